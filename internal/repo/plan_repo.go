// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// MedicinePlan model, the plan store of the reminder subsystem.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a plan is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated. Degrading read failures to empty
//     results is a service-layer policy, not a repository one.
//
// The store enforces the plan lifecycle invariant at this layer: any write
// that brings Duration to zero also clears NotificationsEnabled within the
// same statement or transaction, so a completed plan can never be observed
// with reminders still flagged on.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/medremind/go-medicine-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// planOverwriteColumns are the columns replaced by a full-row update.
// LastNotificationDate is deliberately excluded: user edits must not reset
// the rollover gate.
var planOverwriteColumns = []string{
	"name", "dosage", "duration", "food_timing", "notification_time", "notifications_enabled",
}

// CreatePlan inserts a new plan row and returns it with the assigned ID.
// CreatedAt is handled by GORM. The caller is expected to have validated
// field contents (see services.PlanService).
func CreatePlan(ctx context.Context, db *gorm.DB, p *domain.MedicinePlan) (*domain.MedicinePlan, error) {
	if err := db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// ListPlans returns all plans ordered by ID descending (newest first).
// It returns an empty slice when no plans exist. On DB error, it returns
// the error.
func ListPlans(ctx context.Context, db *gorm.DB) ([]domain.MedicinePlan, error) {
	var out []domain.MedicinePlan
	err := db.WithContext(ctx).
		Order("id desc").
		Find(&out).Error
	return out, err
}

// CountPlans returns the total number of plans. On DB error, it returns the error.
func CountPlans(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.MedicinePlan{}).
		Count(&total).Error
	return total, err
}

// ListPlansPage returns a paginated slice of plans ordered by ID descending.
// Use CountPlans to obtain the total for pagination metadata.
//
// The caller is responsible for computing offset and limit (e.g., (page-1)*pageSize).
func ListPlansPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.MedicinePlan, error) {
	var out []domain.MedicinePlan
	err := db.WithContext(ctx).
		Order("id desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// GetPlan fetches a single plan by ID. If the record does not exist, it
// returns ErrNotFound. On other DB errors, the raw error is returned.
func GetPlan(ctx context.Context, db *gorm.DB, id uint) (*domain.MedicinePlan, error) {
	var p domain.MedicinePlan
	err := db.WithContext(ctx).
		Where("id = ?", id).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdatePlan overwrites the editable columns of the plan identified by p.ID
// (name, dosage, duration, food timing, notification time, enabled flag).
// The rollover marker is preserved. If no rows are affected (plan missing),
// it returns ErrNotFound. On DB error, the raw error is returned.
func UpdatePlan(ctx context.Context, db *gorm.DB, p *domain.MedicinePlan) error {
	res := db.WithContext(ctx).
		Model(&domain.MedicinePlan{}).
		Where("id = ?", p.ID).
		Select(planOverwriteColumns).
		Updates(map[string]any{
			"name":                  p.Name,
			"dosage":                p.Dosage,
			"duration":              p.Duration,
			"food_timing":           p.FoodTiming,
			"notification_time":     p.NotificationTime,
			"notifications_enabled": p.NotificationsEnabled,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeletePlan removes the plan with the given ID. Deleting an absent plan is
// a no-op, not an error.
func DeletePlan(ctx context.Context, db *gorm.DB, id uint) error {
	return db.WithContext(ctx).
		Delete(&domain.MedicinePlan{}, id).Error
}

// SetNotificationsEnabled sets only the reminder flag of a plan.
// Returns ErrNotFound when the plan does not exist.
func SetNotificationsEnabled(ctx context.Context, db *gorm.DB, id uint, enabled bool) error {
	res := db.WithContext(ctx).
		Model(&domain.MedicinePlan{}).
		Where("id = ?", id).
		Update("notifications_enabled", enabled)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DecrementDuration atomically reads the plan's remaining duration, floors
// the decrement at zero, writes the result back, and, when the result is
// zero, disables notifications within the same transaction. It returns the
// new duration, or ErrNotFound when the plan does not exist.
func DecrementDuration(ctx context.Context, db *gorm.DB, id uint) (int, error) {
	var newDuration int
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p domain.MedicinePlan
		if err := tx.Select("id", "duration").Where("id = ?", id).First(&p).Error; err != nil {
			return err
		}

		newDuration = p.Duration - 1
		if newDuration < 0 {
			newDuration = 0
		}

		updates := map[string]any{"duration": newDuration}
		if newDuration == 0 {
			updates["notifications_enabled"] = false
		}
		return tx.Model(&domain.MedicinePlan{}).
			Where("id = ?", id).
			Updates(updates).Error
	})
	if err != nil {
		return 0, err
	}
	return newDuration, nil
}

// ListActivePlans returns plans with notifications enabled and days
// remaining, ordered by ID descending.
func ListActivePlans(ctx context.Context, db *gorm.DB) ([]domain.MedicinePlan, error) {
	var out []domain.MedicinePlan
	err := db.WithContext(ctx).
		Where("notifications_enabled = ? AND duration > 0", true).
		Order("id desc").
		Find(&out).Error
	return out, err
}

// SetLastNotificationDate stamps the rollover marker ("YYYY-MM-DD") on a plan.
// Returns ErrNotFound when the plan does not exist.
func SetLastNotificationDate(ctx context.Context, db *gorm.DB, id uint, date string) error {
	res := db.WithContext(ctx).
		Model(&domain.MedicinePlan{}).
		Where("id = ?", id).
		Update("last_notification_date", date)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListPlansNeedingRollover returns active plans whose rollover marker is not
// today: the idempotence gate for the daily decrement. today must be a
// "YYYY-MM-DD" calendar date.
func ListPlansNeedingRollover(ctx context.Context, db *gorm.DB, today string) ([]domain.MedicinePlan, error) {
	var out []domain.MedicinePlan
	err := db.WithContext(ctx).
		Where("notifications_enabled = ? AND duration > 0", true).
		Where("last_notification_date IS NULL OR last_notification_date <> ?", today).
		Order("id desc").
		Find(&out).Error
	return out, err
}

// RollOverPlan applies the once-per-day decrement to a single plan as one
// conditional UPDATE: it decrements the duration, stamps the rollover
// marker, and clears the reminder flag when the duration reaches zero, all
// in the same statement. The WHERE clause re-checks the gate (active and
// not already stamped today), so the operation is safe to run redundantly
// from any trigger source and can never double-decrement within a calendar
// day, even across a crash between trigger points.
//
// It returns applied=false (without error) when the gate rejected the
// update: the plan is missing, inactive, or already rolled over today.
// When applied, newDuration carries the post-decrement value.
func RollOverPlan(ctx context.Context, db *gorm.DB, id uint, today string) (applied bool, newDuration int, err error) {
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.MedicinePlan{}).
			Where("id = ? AND notifications_enabled = ? AND duration > 0", id, true).
			Where("last_notification_date IS NULL OR last_notification_date <> ?", today).
			Updates(map[string]any{
				"duration":               gorm.Expr("duration - 1"),
				"last_notification_date": today,
				"notifications_enabled":  gorm.Expr("CASE WHEN duration - 1 <= 0 THEN 0 ELSE notifications_enabled END"),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		applied = true

		var p domain.MedicinePlan
		if err := tx.Select("id", "duration").Where("id = ?", id).First(&p).Error; err != nil {
			return err
		}
		newDuration = p.Duration
		return nil
	})
	if err != nil {
		return false, 0, err
	}
	return applied, newDuration, nil
}
