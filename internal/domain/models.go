// Package domain defines the persistence models for medication plans.
// These types are mapped with GORM and form the core data layer of the
// medicine-reminder backend.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// FoodTiming describes when a dose is taken relative to a meal.
type FoodTiming string

// Allowed FoodTiming values (enforced by DB constraint).
const (
	FoodBefore FoodTiming = "before"
	FoodAfter  FoodTiming = "after"
	FoodDuring FoodTiming = "during"
)

// Valid reports whether f is one of the allowed food timings.
func (f FoodTiming) Valid() bool {
	switch f {
	case FoodBefore, FoodAfter, FoodDuring:
		return true
	}
	return false
}

// MedicinePlan represents a medication course with a daily reminder and a
// finite remaining-day counter. It is the sole durable entity of the
// reminder subsystem; scheduled notifications themselves are ephemeral and
// referenced by identifiers derived from the plan ID.
//
// Fields:
//   - ID: autoincrement integer primary key, assigned on insert, immutable.
//   - Name / Dosage: free-text strings describing the medication.
//   - Duration: remaining days of treatment; only ever decreases; never
//     below zero.
//   - FoodTiming: "before", "after" or "during" food.
//   - NotificationTime: wall-clock reminder time, 24-hour "HH:MM".
//   - NotificationsEnabled: reminder flag; forced to false once Duration
//     reaches zero.
//   - LastNotificationDate: "YYYY-MM-DD" marker of the last day the plan
//     was rolled over; nil until the first rollover. This is the
//     at-most-once-per-day decrement gate.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
//   - DeletedAt: soft deletion marker.
type MedicinePlan struct {
	ID                   uint           `json:"id"                     gorm:"primaryKey;autoIncrement"`
	Name                 string         `json:"name"                   gorm:"type:varchar(255);not null"`
	Dosage               string         `json:"dosage"                 gorm:"type:varchar(255);not null"`
	Duration             int            `json:"duration"               gorm:"not null;check:duration >= 0"`
	FoodTiming           FoodTiming     `json:"food_timing"            gorm:"type:varchar(16);not null;check:food_timing IN ('before','after','during')"`
	NotificationTime     string         `json:"notification_time"      gorm:"type:varchar(5);not null"`
	NotificationsEnabled bool           `json:"notifications_enabled"  gorm:"not null"`
	LastNotificationDate *string        `json:"last_notification_date" gorm:"type:varchar(10)"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
	DeletedAt            gorm.DeletedAt `json:"-"                      gorm:"index"`
}

// TableName returns the database table name for MedicinePlan.
func (MedicinePlan) TableName() string { return "medicine_plans" }

// Active reports whether the plan should currently have live reminders:
// notifications enabled and treatment days remaining.
func (p MedicinePlan) Active() bool {
	return p.NotificationsEnabled && p.Duration > 0
}
