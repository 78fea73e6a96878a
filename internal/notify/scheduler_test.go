package notify

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// captureSink records delivered notifications for assertions.
type captureSink struct {
	mu    sync.Mutex
	seen  []Notification
	fail  error
	fired chan struct{}
}

func newCaptureSink() *captureSink {
	return &captureSink{fired: make(chan struct{}, 16)}
}

func (s *captureSink) Notify(n Notification) error {
	s.mu.Lock()
	s.seen = append(s.seen, n)
	s.mu.Unlock()
	s.fired <- struct{}{}
	return s.fail
}

func (s *captureSink) notifications() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Notification, len(s.seen))
	copy(out, s.seen)
	return out
}

// newTestScheduler pins "now" so occurrence math is deterministic.
func newTestScheduler(t *testing.T, sink Notifier, now time.Time) *Scheduler {
	t.Helper()
	s := NewScheduler(sink, time.UTC)
	s.now = func() time.Time { return now }
	t.Cleanup(s.CancelAll)
	return s
}

func TestValidTime(t *testing.T) {
	valid := []string{"00:00", "23:59", "08:00", "9:05", "19:30", "1:00"}
	for _, v := range valid {
		if !ValidTime(v) {
			t.Fatalf("ValidTime(%q) = false, want true", v)
		}
	}
	invalid := []string{"", "24:00", "25:00", "9:60", "9:5", "0800", "8:00am", "ab:cd", "08:00 ", "-1:30"}
	for _, v := range invalid {
		if ValidTime(v) {
			t.Fatalf("ValidTime(%q) = true, want false", v)
		}
	}
}

func TestIdentifiers(t *testing.T) {
	if PlanIdentifier(7) != "plan_7" || NextDayIdentifier(7) != "plan_7_next" {
		t.Fatalf("identifier scheme changed: %q %q", PlanIdentifier(7), NextDayIdentifier(7))
	}

	for _, tc := range []struct {
		in   string
		id   uint
		ok   bool
	}{
		{"plan_7", 7, true},
		{"plan_7_next", 7, true},
		{"plan_0", 0, true},
		{"plan_", 0, false},
		{"plan_x", 0, false},
		{"other_7", 0, false},
		{"", 0, false},
	} {
		id, ok := ParseIdentifier(tc.in)
		if id != tc.id || ok != tc.ok {
			t.Fatalf("ParseIdentifier(%q) = (%d, %v), want (%d, %v)", tc.in, id, ok, tc.id, tc.ok)
		}
	}
}

func TestSchedule_RejectsMalformedTime(t *testing.T) {
	s := newTestScheduler(t, newCaptureSink(), time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC))

	if _, err := s.Schedule("plan_1", "t", "b", "25:00"); !errors.Is(err, ErrInvalidTime) {
		t.Fatalf("expected ErrInvalidTime, got %v", err)
	}
	if got := s.Scheduled(); len(got) != 0 {
		t.Fatalf("rejected schedule must not arm triggers: %+v", got)
	}
}

func TestSchedule_TodayWhenTimeStillAhead(t *testing.T) {
	now := time.Date(2026, 8, 31, 7, 0, 0, 0, time.UTC)
	s := newTestScheduler(t, newCaptureSink(), now)

	first, err := s.Schedule("plan_1", "t", "b", "08:00")
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	want := time.Date(2026, 8, 31, 8, 0, 0, 0, time.UTC)
	if !first.Equal(want) {
		t.Fatalf("first occurrence = %v, want %v", first, want)
	}
}

func TestSchedule_TomorrowWhenTimeElapsed(t *testing.T) {
	now := time.Date(2026, 8, 31, 9, 30, 0, 0, time.UTC)
	s := newTestScheduler(t, newCaptureSink(), now)

	first, err := s.Schedule("plan_1", "t", "b", "08:00")
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	want := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	if !first.Equal(want) {
		t.Fatalf("first occurrence = %v, want %v", first, want)
	}
}

func TestSchedule_ExactBoundaryGoesToTomorrow(t *testing.T) {
	now := time.Date(2026, 8, 31, 8, 0, 0, 0, time.UTC)
	s := newTestScheduler(t, newCaptureSink(), now)

	first, err := s.Schedule("plan_1", "t", "b", "08:00")
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if first.Day() != 1 || first.Month() != 9 {
		t.Fatalf("schedule at the exact boundary must land tomorrow, got %v", first)
	}
}

func TestSchedule_PreArmsNextDayTrigger(t *testing.T) {
	now := time.Date(2026, 8, 31, 7, 0, 0, 0, time.UTC)
	s := newTestScheduler(t, newCaptureSink(), now)

	first, err := s.Schedule("plan_3", "t", "b", "08:00")
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}

	got := s.Scheduled()
	if len(got) != 2 {
		t.Fatalf("expected primary and next-day triggers, got %+v", got)
	}
	if got[0].Identifier != "plan_3" || got[1].Identifier != "plan_3_next" {
		t.Fatalf("unexpected order/identifiers: %q %q", got[0].Identifier, got[1].Identifier)
	}
	if !got[1].FireAt.Equal(first.AddDate(0, 0, 1)) {
		t.Fatalf("next-day trigger at %v, want %v", got[1].FireAt, first.AddDate(0, 0, 1))
	}
	if got[1].Payload.IsNextDay != true || got[0].Payload.IsNextDay != false {
		t.Fatalf("IsNextDay flags wrong: %+v", got)
	}
	if got[0].Payload.PlanID != 3 || got[0].Payload.OriginalTime != "08:00" {
		t.Fatalf("payload wrong: %+v", got[0].Payload)
	}
}

func TestSchedule_ReArmReplacesExistingTriggers(t *testing.T) {
	now := time.Date(2026, 8, 31, 7, 0, 0, 0, time.UTC)
	s := newTestScheduler(t, newCaptureSink(), now)

	if _, err := s.Schedule("plan_1", "t", "b", "08:00"); err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if _, err := s.Schedule("plan_1", "t", "b", "09:30"); err != nil {
		t.Fatalf("re-Schedule: %v", err)
	}

	got := s.Scheduled()
	if len(got) != 2 {
		t.Fatalf("re-arm must not accumulate triggers: %+v", got)
	}
	if got[0].Payload.OriginalTime != "09:30" {
		t.Fatalf("stale trigger survived re-arm: %+v", got[0])
	}
}

func TestCancelPlan_RemovesWholeChain(t *testing.T) {
	now := time.Date(2026, 8, 31, 7, 0, 0, 0, time.UTC)
	s := newTestScheduler(t, newCaptureSink(), now)

	if _, err := s.Schedule("plan_5", "t", "b", "08:00"); err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	s.CancelPlan(5)
	if got := s.Scheduled(); len(got) != 0 {
		t.Fatalf("chain not fully canceled: %+v", got)
	}

	// Unknown identifiers are a no-op.
	s.Cancel("plan_99")
	s.CancelPlan(99)
}

func TestFire_DeliversToSinkAndForgets(t *testing.T) {
	sink := newCaptureSink()
	now := time.Date(2026, 8, 31, 7, 59, 59, int(999*time.Millisecond), time.UTC)
	s := newTestScheduler(t, sink, now)

	// Due in ~1ms of wall time.
	if _, err := s.Schedule("plan_1", "Medicine Reminder", "body", "08:00"); err != nil {
		t.Fatalf("Schedule: %v", err)
	}

	select {
	case <-sink.fired:
	case <-time.After(2 * time.Second):
		t.Fatalf("reminder never fired")
	}

	seen := sink.notifications()
	if len(seen) != 1 || seen[0].Identifier != "plan_1" || seen[0].Title != "Medicine Reminder" {
		t.Fatalf("unexpected delivery: %+v", seen)
	}

	// Fired trigger is forgotten; the next-day trigger stays armed.
	got := s.Scheduled()
	if len(got) != 1 || got[0].Identifier != "plan_1_next" {
		t.Fatalf("expected only next-day trigger, got %+v", got)
	}
}

func TestFire_SinkFailureDoesNotPanic(t *testing.T) {
	sink := newCaptureSink()
	sink.fail = errors.New("toast service down")
	now := time.Date(2026, 8, 31, 7, 59, 59, int(999*time.Millisecond), time.UTC)
	s := newTestScheduler(t, sink, now)

	if _, err := s.Schedule("plan_1", "t", "b", "08:00"); err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	select {
	case <-sink.fired:
	case <-time.After(2 * time.Second):
		t.Fatalf("reminder never fired")
	}
	// The failed delivery is logged; the scheduler remains usable.
	if _, err := s.Schedule("plan_2", "t", "b", "09:00"); err != nil {
		t.Fatalf("Schedule after failure: %v", err)
	}
}
