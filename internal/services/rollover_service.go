// Package services – RolloverService
//
// This file implements the Daily Rollover Processor: the only writer of a
// plan's remaining duration and rollover marker. It runs from several
// trigger points (process start, the periodic check tick, an explicit host
// request, and notification responses) and is safe to run redundantly from
// any of them: each plan is rolled over at most once per calendar day, and
// the decrement, the date stamp and the zero-disable land in one atomic
// store operation.
package services

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/medremind/go-medicine-backend/internal/notify"
	"github.com/medremind/go-medicine-backend/internal/repo"
)

// RolloverService decrements plan durations once per calendar day and keeps
// the reminder chain in step: plans whose treatment completes have both
// notification identifiers canceled, next-day responses re-arm the chain.
type RolloverService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Plans supplies reminder copy and the scheduler handle.
	Plans *PlanService

	// Loc is the calendar zone for "today"; nil means the current device
	// zone.
	Loc *time.Location

	// mu serializes rollover passes across trigger sources.
	mu sync.Mutex

	// nowFn is a seam for tests; defaults to time.Now.
	nowFn func() time.Time
}

// NewRolloverService constructs a RolloverService over the given plan
// service.
func NewRolloverService(db *gorm.DB, plans *PlanService, loc *time.Location) *RolloverService {
	return &RolloverService{DB: db, Plans: plans, Loc: loc}
}

// today returns the device-local calendar date as "YYYY-MM-DD".
func (s *RolloverService) today() string {
	now := time.Now
	if s.nowFn != nil {
		now = s.nowFn
	}
	loc := s.Loc
	if loc == nil {
		loc = time.Local
	}
	return now().In(loc).Format("2006-01-02")
}

// ProcessDailyUpdates performs one rollover pass: every active plan not yet
// stamped today is decremented and stamped atomically; plans reaching zero
// have both reminder identifiers canceled (treatment complete, no
// rescheduling). Plans with days remaining keep their existing
// forward-looking triggers.
//
// A failure on one plan is logged and the loop continues; the skipped plan
// is retried at the next trigger point.
// Only the initial candidate query can fail the pass as a whole.
func (s *RolloverService) ProcessDailyUpdates(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	today := s.today()
	tr := otel.Tracer("services/RolloverService")
	ctx, span := tr.Start(ctx, "ProcessDailyUpdates",
		trace.WithAttributes(attribute.String("rollover.date", today)),
	)
	defer span.End()

	candidates, err := repo.ListPlansNeedingRollover(ctx, s.DB, today)
	if err != nil {
		log.Error().Err(err).Msg("rollover: list candidates")
		return err
	}

	for _, p := range candidates {
		applied, remaining, err := repo.RollOverPlan(ctx, s.DB, p.ID, today)
		if err != nil {
			log.Error().Err(err).Uint("plan_id", p.ID).Msg("rollover: plan skipped")
			continue
		}
		if !applied {
			// Raced with another trigger source that got here first.
			continue
		}

		log.Info().
			Uint("plan_id", p.ID).
			Str("name", p.Name).
			Int("days_remaining", remaining).
			Msg("rollover: plan updated")

		if remaining == 0 {
			s.cancelChain(p.ID)
			log.Info().Uint("plan_id", p.ID).Str("name", p.Name).Msg("rollover: plan completed")
		}
	}
	return nil
}

// HandleResponse processes a user interaction with a delivered reminder.
// The identifier is parsed to recover the plan, then the same atomic
// once-per-day gate applies: a plan already rolled over today is skipped.
// When the tapped trigger was the pre-armed next-day variant and treatment
// continues, a fresh chain is scheduled from the plan's original time,
// keeping the forward chain alive.
//
// Responses with identifiers outside the plan scheme are ignored.
func (s *RolloverService) HandleResponse(ctx context.Context, r notify.Response) error {
	planID, ok := notify.ParseIdentifier(r.Identifier)
	if !ok {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tr := otel.Tracer("services/RolloverService")
	ctx, span := tr.Start(ctx, "HandleResponse",
		trace.WithAttributes(
			attribute.Int("plan.id", int(planID)),
			attribute.Bool("reminder.next_day", r.Payload.IsNextDay),
		),
	)
	defer span.End()

	today := s.today()
	applied, remaining, err := repo.RollOverPlan(ctx, s.DB, planID, today)
	if err != nil {
		log.Error().Err(err).Uint("plan_id", planID).Msg("rollover: response skipped")
		return err
	}
	if !applied {
		// Already processed today, or the plan is gone/inactive.
		return nil
	}

	log.Info().
		Uint("plan_id", planID).
		Int("days_remaining", remaining).
		Msg("rollover: response processed")

	if remaining == 0 {
		s.cancelChain(planID)
		return nil
	}

	if r.Payload.IsNextDay && r.Payload.OriginalTime != "" {
		p, err := s.Plans.Get(ctx, planID)
		if err != nil {
			log.Error().Err(err).Uint("plan_id", planID).Msg("rollover: reload plan for re-arm")
			return err
		}
		title, body := s.Plans.ReminderContent(p)
		if s.Plans.Scheduler != nil {
			if _, err := s.Plans.Scheduler.Schedule(notify.PlanIdentifier(planID), title, body, r.Payload.OriginalTime); err != nil {
				log.Error().Err(err).Uint("plan_id", planID).Msg("rollover: re-arm chain")
				return err
			}
		}
	}
	return nil
}

// Run consumes notification responses from the bus until ctx is done,
// feeding each into HandleResponse. Running all response handling on one
// goroutine keeps rollover passes from firing re-entrantly.
func (s *RolloverService) Run(ctx context.Context, responses <-chan notify.Response) {
	for {
		select {
		case <-ctx.Done():
			return
		case r, ok := <-responses:
			if !ok {
				return
			}
			_ = s.HandleResponse(ctx, r)
		}
	}
}

func (s *RolloverService) cancelChain(planID uint) {
	if s.Plans != nil && s.Plans.Scheduler != nil {
		s.Plans.Scheduler.CancelPlan(planID)
	}
}
