// Package notify implements the on-device reminder scheduler. It translates
// a plan's wall-clock notification time into one-shot timers, fully
// in-process and without any server round trip: the Go analog of the mobile
// OS local-notification layer.
//
// Identifier scheme (the de facto wire format shared with clients):
//   - "plan_<id>"       the next trigger for a plan (today, or tomorrow when
//     today's time has already elapsed)
//   - "plan_<id>_next"  the pre-armed trigger exactly 24h after that
//
// Pre-arming both the current and the next-day trigger compensates for the
// lack of native daily-recurring notifications with dynamic decrement state:
// the daily rollover always has a forward-looking trigger to re-arm from,
// with no background daemon.
//
// Scheduled timers live in memory only. Restarting the process drops them;
// the host re-arms every active plan at startup.
package notify

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ErrInvalidTime is returned when a notification time does not match the
// 24-hour "HH:MM" format.
var ErrInvalidTime = errors.New("invalid time format")

var (
	// timeRE accepts 24-hour "HH:MM" with an optional leading zero on the
	// hour ("8:30" and "08:30" both pass, "25:00" and "9:5" do not).
	timeRE = regexp.MustCompile(`^([0-1]?[0-9]|2[0-3]):[0-5][0-9]$`)

	// identifierRE recovers the plan ID from a notification identifier.
	identifierRE = regexp.MustCompile(`^plan_(\d+)(_next)?$`)
)

var (
	remindersScheduled = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reminders_scheduled_total",
		Help: "Total number of reminder triggers armed.",
	})
	remindersFired = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reminders_fired_total",
		Help: "Total number of reminder triggers that fired.",
	})
	reminderDeliveryFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reminder_delivery_failures_total",
		Help: "Total number of reminder deliveries rejected by the sink.",
	})
)

func init() {
	prometheus.MustRegister(remindersScheduled, remindersFired, reminderDeliveryFailures)
}

// ValidTime reports whether t is a well-formed 24-hour "HH:MM" string.
func ValidTime(t string) bool { return timeRE.MatchString(t) }

// PlanIdentifier returns the primary notification identifier for a plan.
func PlanIdentifier(planID uint) string { return fmt.Sprintf("plan_%d", planID) }

// NextDayIdentifier returns the pre-armed next-day identifier for a plan.
func NextDayIdentifier(planID uint) string { return PlanIdentifier(planID) + "_next" }

// ParseIdentifier recovers the plan ID from a notification identifier.
// The second result reports whether the identifier matched the scheme.
func ParseIdentifier(identifier string) (uint, bool) {
	m := identifierRE.FindStringSubmatch(identifier)
	if m == nil {
		return 0, false
	}
	id, err := strconv.ParseUint(m[1], 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

// Payload is the data carried by every scheduled reminder. Field names
// mirror the notification wire format consumed by clients.
type Payload struct {
	PlanID       uint      `json:"planId"`
	OriginalTime string    `json:"originalTime"`
	ScheduledFor time.Time `json:"scheduledFor"`
	IsNextDay    bool      `json:"isNextDay,omitempty"`
}

// Notification is a reminder handed to a delivery sink when its timer fires.
type Notification struct {
	Identifier string  `json:"identifier"`
	Title      string  `json:"title"`
	Body       string  `json:"body"`
	Payload    Payload `json:"payload"`
}

// Entry describes a pending (not yet fired) reminder, for diagnostics.
type Entry struct {
	Identifier string    `json:"identifier"`
	FireAt     time.Time `json:"fire_at"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	Payload    Payload   `json:"payload"`
}

// Notifier delivers a fired reminder to the user. Implementations must be
// safe for concurrent use; they are invoked from timer goroutines.
type Notifier interface {
	Notify(n Notification) error
}

type pending struct {
	timer *time.Timer
	entry Entry
}

// Scheduler owns every pending reminder timer, keyed by identifier.
// All methods are safe for concurrent use.
type Scheduler struct {
	mu      sync.Mutex
	pending map[string]*pending

	sink Notifier
	loc  *time.Location
	log  zerolog.Logger

	// now is a seam for tests; defaults to time.Now.
	now func() time.Time
}

// NewScheduler constructs a Scheduler delivering through sink, computing
// occurrences in loc. A nil loc means the current device zone (time.Local);
// a zone change simply shifts the next computed occurrence.
func NewScheduler(sink Notifier, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		pending: make(map[string]*pending),
		sink:    sink,
		loc:     loc,
		log:     log.With().Str("component", "scheduler").Logger(),
		now:     time.Now,
	}
}

// Schedule arms the reminder chain for identifier at the given wall-clock
// time of day ("HH:MM", 24-hour):
//
//  1. Any existing trigger under identifier is canceled (idempotent re-arm).
//  2. The first occurrence is today at timeOfDay, or tomorrow when that
//     instant has already elapsed.
//  3. A second trigger is pre-armed under "<identifier>_next" exactly one
//     day after the first, flagged IsNextDay.
//
// It returns the instant of the first occurrence, or ErrInvalidTime when
// timeOfDay is malformed.
func (s *Scheduler) Schedule(identifier, title, body, timeOfDay string) (time.Time, error) {
	s.Cancel(identifier)

	if !timeRE.MatchString(timeOfDay) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTime, timeOfDay)
	}

	hh, mm, _ := parseClock(timeOfDay)

	now := s.now().In(s.loc)
	first := time.Date(now.Year(), now.Month(), now.Day(), hh, mm, 0, 0, s.loc)
	if !first.After(now) {
		first = first.AddDate(0, 0, 1)
	}

	planID, _ := ParseIdentifier(identifier)

	s.arm(Entry{
		Identifier: identifier,
		FireAt:     first,
		Title:      title,
		Body:       body,
		Payload: Payload{
			PlanID:       planID,
			OriginalTime: timeOfDay,
			ScheduledFor: first,
		},
	})

	// Pre-arm the following day so a rollover always finds a forward trigger.
	next := first.AddDate(0, 0, 1)
	next = time.Date(next.Year(), next.Month(), next.Day(), hh, mm, 0, 0, s.loc)
	s.arm(Entry{
		Identifier: identifier + "_next",
		FireAt:     next,
		Title:      title,
		Body:       body,
		Payload: Payload{
			PlanID:       planID,
			OriginalTime: timeOfDay,
			ScheduledFor: next,
			IsNextDay:    true,
		},
	})

	s.log.Info().
		Str("identifier", identifier).
		Time("first", first).
		Time("next", next).
		Msg("reminder scheduled")

	return first, nil
}

// arm registers a one-shot timer for e, replacing any pending trigger under
// the same identifier.
func (s *Scheduler) arm(e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.pending[e.Identifier]; ok {
		old.timer.Stop()
	}

	d := e.FireAt.Sub(s.now())
	if d < 0 {
		d = 0
	}
	p := &pending{entry: e}
	p.timer = time.AfterFunc(d, func() { s.fire(e.Identifier) })
	s.pending[e.Identifier] = p
	remindersScheduled.Inc()
}

// fire delivers a due reminder to the sink. Sink failures are logged, never
// propagated: a failed delivery must not disturb the rest of the chain.
func (s *Scheduler) fire(identifier string) {
	s.mu.Lock()
	p, ok := s.pending[identifier]
	if ok {
		delete(s.pending, identifier)
	}
	s.mu.Unlock()
	if !ok {
		return
	}

	remindersFired.Inc()
	n := Notification{
		Identifier: p.entry.Identifier,
		Title:      p.entry.Title,
		Body:       p.entry.Body,
		Payload:    p.entry.Payload,
	}
	if s.sink != nil {
		if err := s.sink.Notify(n); err != nil {
			reminderDeliveryFailures.Inc()
			s.log.Error().Err(err).Str("identifier", identifier).Msg("reminder delivery failed")
			return
		}
	}
	s.log.Info().Str("identifier", identifier).Msg("reminder fired")
}

// Cancel stops and forgets the trigger under identifier. Canceling an
// unknown identifier is a no-op.
func (s *Scheduler) Cancel(identifier string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.pending[identifier]; ok {
		p.timer.Stop()
		delete(s.pending, identifier)
	}
}

// CancelPlan cancels both triggers of a plan's reminder chain.
func (s *Scheduler) CancelPlan(planID uint) {
	s.Cancel(PlanIdentifier(planID))
	s.Cancel(NextDayIdentifier(planID))
}

// CancelAll stops every pending trigger.
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range s.pending {
		p.timer.Stop()
		delete(s.pending, id)
	}
}

// Scheduled enumerates pending triggers ordered by fire time. Diagnostic
// only; not part of the functional contract.
func (s *Scheduler) Scheduled() []Entry {
	s.mu.Lock()
	out := make([]Entry, 0, len(s.pending))
	for _, p := range s.pending {
		out = append(out, p.entry)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].FireAt.Before(out[j].FireAt) })
	return out
}

// parseClock splits a pre-validated "HH:MM" string.
func parseClock(t string) (hh, mm int, err error) {
	i := 1
	if t[1] != ':' {
		i = 2
	}
	hh, err = strconv.Atoi(t[:i])
	if err != nil {
		return 0, 0, err
	}
	mm, err = strconv.Atoi(t[i+1:])
	return hh, mm, err
}
