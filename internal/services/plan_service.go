// Package services – PlanService
//
// This file implements the PlanService, which manages the lifecycle of
// medication plans. It validates plan fields before persistence, coordinates
// repository operations, and keeps the reminder chain in step with every
// mutation: creating or editing an active plan (re-)arms its notifications,
// disabling or deleting a plan cancels them. A plan whose duration is zero
// must never hold a live reminder.
//
// Service-level errors (e.g., ErrPlanNotFound, ErrInvalidTime) are returned
// for predictable cases so handlers can map them to HTTP results
// consistently.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/medremind/go-medicine-backend/internal/domain"
	"github.com/medremind/go-medicine-backend/internal/notify"
)

// PlanRepo defines the repository contract required by PlanService.
// Implementations are responsible for persistence of the plan aggregate.
type PlanRepo interface {
	// CreatePlan inserts a new plan row and returns it with the assigned ID.
	CreatePlan(ctx context.Context, db *gorm.DB, p *domain.MedicinePlan) (*domain.MedicinePlan, error)

	// ListPlans returns all plans, newest ID first.
	ListPlans(ctx context.Context, db *gorm.DB) ([]domain.MedicinePlan, error)

	// CountPlans returns the total number of plans for pagination.
	CountPlans(ctx context.Context, db *gorm.DB) (int64, error)

	// ListPlansPage returns a page of plans, newest ID first.
	ListPlansPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.MedicinePlan, error)

	// GetPlan fetches a plan by ID.
	GetPlan(ctx context.Context, db *gorm.DB, id uint) (*domain.MedicinePlan, error)

	// UpdatePlan overwrites a plan's editable columns by ID.
	UpdatePlan(ctx context.Context, db *gorm.DB, p *domain.MedicinePlan) error

	// DeletePlan removes a plan; absent IDs are a no-op.
	DeletePlan(ctx context.Context, db *gorm.DB, id uint) error

	// SetNotificationsEnabled sets only the reminder flag.
	SetNotificationsEnabled(ctx context.Context, db *gorm.DB, id uint, enabled bool) error
}

// ReminderScheduler is the slice of the notification scheduler the services
// depend on. *notify.Scheduler satisfies it.
type ReminderScheduler interface {
	Schedule(identifier, title, body, timeOfDay string) (time.Time, error)
	Cancel(identifier string)
	CancelPlan(planID uint)
	Scheduled() []notify.Entry
}

// PlanService provides plan-level operations such as creating, listing,
// editing and deleting medication plans, and keeps scheduled reminders
// consistent with the stored state.
type PlanService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the plan repository used by this service.
	Repo PlanRepo
	// Scheduler arms and cancels reminder chains. May be nil in contexts
	// that never touch notifications (e.g., read-only tooling).
	Scheduler ReminderScheduler

	// TitleLocale selects the casing rules for the medication name in
	// reminder copy.
	TitleLocale language.Tag
}

// NewPlanService constructs a PlanService with default reminder copy rules.
func NewPlanService(db *gorm.DB, r PlanRepo, sched ReminderScheduler) *PlanService {
	return &PlanService{
		DB:          db,
		Repo:        r,
		Scheduler:   sched,
		TitleLocale: language.English,
	}
}

// validatePlan applies the Plan Store input constraints: non-empty name,
// dosage and time, a well-formed "HH:MM" time, a known food timing, and a
// non-negative duration. Rejected before persistence or scheduling.
func validatePlan(p *domain.MedicinePlan) error {
	p.Name = strings.TrimSpace(p.Name)
	p.Dosage = strings.TrimSpace(p.Dosage)
	p.NotificationTime = strings.TrimSpace(p.NotificationTime)

	switch {
	case p.Name == "":
		return ErrNameRequired
	case p.Dosage == "":
		return ErrDosageRequired
	case p.Duration < 0:
		return ErrInvalidDuration
	case !p.FoodTiming.Valid():
		return ErrInvalidFoodTiming
	}
	if !notify.ValidTime(p.NotificationTime) {
		return fmt.Errorf("%w: %q", ErrInvalidTime, p.NotificationTime)
	}
	return nil
}

// ReminderContent renders the notification title and body for a plan,
// title-casing the medication name per the configured locale.
func (s *PlanService) ReminderContent(p *domain.MedicinePlan) (title, body string) {
	caser := cases.Title(s.localeOrDefault())
	title = "Medicine Reminder"
	body = fmt.Sprintf("Time to take your %s (%s) %s food", caser.String(p.Name), p.Dosage, p.FoodTiming)
	return title, body
}

func (s *PlanService) localeOrDefault() language.Tag {
	if s.TitleLocale == language.Und {
		return language.English
	}
	return s.TitleLocale
}

// Create validates and persists a new plan, then arms its reminder chain
// when the plan is active. The rollover marker always starts unset so the
// first daily pass counts day one.
func (s *PlanService) Create(ctx context.Context, p *domain.MedicinePlan) (*domain.MedicinePlan, error) {
	if err := validatePlan(p); err != nil {
		return nil, err
	}
	p.ID = 0
	p.LastNotificationDate = nil
	if p.Duration == 0 {
		// A zero-day plan is complete on arrival; never armed.
		p.NotificationsEnabled = false
	}

	created, err := s.Repo.CreatePlan(ctx, s.DB, p)
	if err != nil {
		return nil, err
	}
	s.syncReminders(created)
	return created, nil
}

// Get fetches a plan by ID, mapping missing rows to ErrPlanNotFound.
func (s *PlanService) Get(ctx context.Context, id uint) (*domain.MedicinePlan, error) {
	p, err := s.Repo.GetPlan(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return p, nil
}

// List returns all plans, newest first. The read path never fails the
// caller: storage errors are logged and an empty slice is returned.
func (s *PlanService) List(ctx context.Context) []domain.MedicinePlan {
	plans, err := s.Repo.ListPlans(ctx, s.DB)
	if err != nil {
		log.Error().Err(err).Msg("list plans")
		return []domain.MedicinePlan{}
	}
	if plans == nil {
		plans = []domain.MedicinePlan{}
	}
	return plans
}

// ListPage returns a page of plans (newest first) and the total count.
// It applies defaults for invalid page/pageSize.
func (s *PlanService) ListPage(ctx context.Context, page, pageSize int) ([]domain.MedicinePlan, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := s.Repo.CountPlans(ctx, s.DB)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.MedicinePlan{}, 0, nil
	}

	items, err := s.Repo.ListPlansPage(ctx, s.DB, offset, pageSize)
	return items, total, err
}

// Update validates and overwrites a plan by ID (the rollover marker is
// preserved), then re-arms or cancels its reminders to match the new state.
func (s *PlanService) Update(ctx context.Context, p *domain.MedicinePlan) (*domain.MedicinePlan, error) {
	if err := validatePlan(p); err != nil {
		return nil, err
	}
	if p.Duration == 0 {
		p.NotificationsEnabled = false
	}

	if err := s.Repo.UpdatePlan(ctx, s.DB, p); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}

	updated, err := s.Repo.GetPlan(ctx, s.DB, p.ID)
	if err != nil {
		return nil, err
	}
	s.syncReminders(updated)
	return updated, nil
}

// Delete removes a plan and cancels both of its reminder identifiers.
// Deleting an absent plan is a no-op.
func (s *PlanService) Delete(ctx context.Context, id uint) error {
	if err := s.Repo.DeletePlan(ctx, s.DB, id); err != nil {
		return err
	}
	if s.Scheduler != nil {
		s.Scheduler.CancelPlan(id)
	}
	return nil
}

// Toggle flips only the reminder flag. Enabling a completed plan is
// rejected with ErrPlanCompleted; disabling cancels the reminder chain.
func (s *PlanService) Toggle(ctx context.Context, id uint, enabled bool) error {
	p, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if enabled && p.Duration == 0 {
		return ErrPlanCompleted
	}

	if err := s.Repo.SetNotificationsEnabled(ctx, s.DB, id, enabled); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPlanNotFound
		}
		return err
	}

	p.NotificationsEnabled = enabled
	s.syncReminders(p)
	return nil
}

// RearmActive re-arms reminder chains for every active plan. Called at
// startup: pending timers live in memory only and do not survive a restart.
func (s *PlanService) RearmActive(ctx context.Context, plans []domain.MedicinePlan) {
	for i := range plans {
		s.syncReminders(&plans[i])
	}
}

// syncReminders reconciles the scheduler with a plan's stored state:
// active plans get a (re-)armed chain, inactive plans get both identifiers
// canceled. Scheduling failures are logged, not propagated: the plan
// mutation itself already succeeded and the chain is re-armed at the next
// startup or toggle.
func (s *PlanService) syncReminders(p *domain.MedicinePlan) {
	if s.Scheduler == nil {
		return
	}
	if !p.Active() {
		s.Scheduler.CancelPlan(p.ID)
		return
	}
	title, body := s.ReminderContent(p)
	if _, err := s.Scheduler.Schedule(notify.PlanIdentifier(p.ID), title, body, p.NotificationTime); err != nil {
		log.Error().Err(err).Uint("plan_id", p.ID).Msg("arm reminder chain")
	}
}
