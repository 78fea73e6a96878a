package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/medremind/go-medicine-backend/internal/domain"
	"github.com/medremind/go-medicine-backend/internal/notify"
	"github.com/medremind/go-medicine-backend/internal/repo"
)

func newServiceDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("service_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := db.AutoMigrate(&domain.MedicinePlan{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// testPlanRepo proxies the repository free functions, mirroring the shim the
// router installs in production.
type testPlanRepo struct{}

func (testPlanRepo) CreatePlan(ctx context.Context, db *gorm.DB, p *domain.MedicinePlan) (*domain.MedicinePlan, error) {
	return repo.CreatePlan(ctx, db, p)
}
func (testPlanRepo) ListPlans(ctx context.Context, db *gorm.DB) ([]domain.MedicinePlan, error) {
	return repo.ListPlans(ctx, db)
}
func (testPlanRepo) CountPlans(ctx context.Context, db *gorm.DB) (int64, error) {
	return repo.CountPlans(ctx, db)
}
func (testPlanRepo) ListPlansPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.MedicinePlan, error) {
	return repo.ListPlansPage(ctx, db, offset, limit)
}
func (testPlanRepo) GetPlan(ctx context.Context, db *gorm.DB, id uint) (*domain.MedicinePlan, error) {
	return repo.GetPlan(ctx, db, id)
}
func (testPlanRepo) UpdatePlan(ctx context.Context, db *gorm.DB, p *domain.MedicinePlan) error {
	return repo.UpdatePlan(ctx, db, p)
}
func (testPlanRepo) DeletePlan(ctx context.Context, db *gorm.DB, id uint) error {
	return repo.DeletePlan(ctx, db, id)
}
func (testPlanRepo) SetNotificationsEnabled(ctx context.Context, db *gorm.DB, id uint, enabled bool) error {
	return repo.SetNotificationsEnabled(ctx, db, id, enabled)
}

// fakeScheduler records scheduler interactions instead of arming timers.
type fakeScheduler struct {
	mu        sync.Mutex
	scheduled map[string]string // identifier -> timeOfDay
	canceled  []string
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{scheduled: make(map[string]string)}
}

func (f *fakeScheduler) Schedule(identifier, title, body, timeOfDay string) (time.Time, error) {
	if !notify.ValidTime(timeOfDay) {
		return time.Time{}, notify.ErrInvalidTime
	}
	f.mu.Lock()
	f.scheduled[identifier] = timeOfDay
	f.mu.Unlock()
	return time.Now().Add(time.Hour), nil
}

func (f *fakeScheduler) Cancel(identifier string) {
	f.mu.Lock()
	delete(f.scheduled, identifier)
	f.canceled = append(f.canceled, identifier)
	f.mu.Unlock()
}

func (f *fakeScheduler) CancelPlan(planID uint) {
	f.Cancel(notify.PlanIdentifier(planID))
	f.Cancel(notify.NextDayIdentifier(planID))
}

func (f *fakeScheduler) Scheduled() []notify.Entry {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]notify.Entry, 0, len(f.scheduled))
	for id := range f.scheduled {
		out = append(out, notify.Entry{Identifier: id})
	}
	return out
}

func (f *fakeScheduler) armedFor(identifier string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tod, ok := f.scheduled[identifier]
	return tod, ok
}

func newTestPlanService(t *testing.T) (*PlanService, *fakeScheduler) {
	t.Helper()
	sched := newFakeScheduler()
	return NewPlanService(newServiceDB(t), testPlanRepo{}, sched), sched
}

func validPlan() *domain.MedicinePlan {
	return &domain.MedicinePlan{
		Name:                 "amoxicillin",
		Dosage:               "500mg",
		Duration:             3,
		FoodTiming:           domain.FoodAfter,
		NotificationTime:     "08:00",
		NotificationsEnabled: true,
	}
}

func TestCreate_ValidationSentinels(t *testing.T) {
	svc, _ := newTestPlanService(t)
	ctx := context.Background()

	cases := []struct {
		mutate func(*domain.MedicinePlan)
		want   error
	}{
		{func(p *domain.MedicinePlan) { p.Name = "   " }, ErrNameRequired},
		{func(p *domain.MedicinePlan) { p.Dosage = "" }, ErrDosageRequired},
		{func(p *domain.MedicinePlan) { p.Duration = -1 }, ErrInvalidDuration},
		{func(p *domain.MedicinePlan) { p.FoodTiming = "with" }, ErrInvalidFoodTiming},
		{func(p *domain.MedicinePlan) { p.NotificationTime = "25:00" }, ErrInvalidTime},
		{func(p *domain.MedicinePlan) { p.NotificationTime = "9:5" }, ErrInvalidTime},
	}
	for i, tc := range cases {
		p := validPlan()
		tc.mutate(p)
		if _, err := svc.Create(ctx, p); !errors.Is(err, tc.want) {
			t.Fatalf("case %d: got %v, want %v", i, err, tc.want)
		}
	}
}

func TestCreate_ActivePlanArmsChain(t *testing.T) {
	svc, sched := newTestPlanService(t)

	p, err := svc.Create(context.Background(), validPlan())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.ID == 0 || p.LastNotificationDate != nil {
		t.Fatalf("unexpected created plan: %+v", p)
	}
	if tod, ok := sched.armedFor(notify.PlanIdentifier(p.ID)); !ok || tod != "08:00" {
		t.Fatalf("reminder chain not armed: %v %v", tod, ok)
	}
}

func TestCreate_ZeroDurationIsCompleteAndUnarmed(t *testing.T) {
	svc, sched := newTestPlanService(t)

	in := validPlan()
	in.Duration = 0
	p, err := svc.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.NotificationsEnabled {
		t.Fatalf("zero-day plan must be created disabled: %+v", p)
	}
	if _, ok := sched.armedFor(notify.PlanIdentifier(p.ID)); ok {
		t.Fatalf("zero-day plan must not be armed")
	}
}

func TestReminderContent_TitleCasesName(t *testing.T) {
	svc, _ := newTestPlanService(t)

	p := validPlan() // name "amoxicillin", timing "after"
	title, body := svc.ReminderContent(p)
	if title != "Medicine Reminder" {
		t.Fatalf("title = %q", title)
	}
	if body != "Time to take your Amoxicillin (500mg) after food" {
		t.Fatalf("body = %q", body)
	}
}

func TestGet_NotFound(t *testing.T) {
	svc, _ := newTestPlanService(t)
	if _, err := svc.Get(context.Background(), 99); !errors.Is(err, ErrPlanNotFound) {
		t.Fatalf("expected ErrPlanNotFound, got %v", err)
	}
}

func TestList_NeverFails(t *testing.T) {
	svc, _ := newTestPlanService(t)
	ctx := context.Background()

	if got := svc.List(ctx); len(got) != 0 {
		t.Fatalf("expected empty slice, got %+v", got)
	}

	if _, err := svc.Create(ctx, validPlan()); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got := svc.List(ctx); len(got) != 1 {
		t.Fatalf("expected one plan, got %+v", got)
	}
}

func TestListPage_DefaultsAndTotals(t *testing.T) {
	svc, _ := newTestPlanService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := svc.Create(ctx, validPlan()); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	items, total, err := svc.ListPage(ctx, 0, -5) // invalid, falls back to 1/20
	if err != nil {
		t.Fatalf("ListPage: %v", err)
	}
	if total != 3 || len(items) != 3 {
		t.Fatalf("got %d items, total %d", len(items), total)
	}

	items, total, err = svc.ListPage(ctx, 2, 2)
	if err != nil || total != 3 || len(items) != 1 {
		t.Fatalf("page 2 = (%d items, total %d, %v)", len(items), total, err)
	}
}

func TestUpdate_ReArmsOnNewTime(t *testing.T) {
	svc, sched := newTestPlanService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, validPlan())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	p.NotificationTime = "21:15"
	updated, err := svc.Update(ctx, p)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.NotificationTime != "21:15" {
		t.Fatalf("time not updated: %+v", updated)
	}
	if tod, _ := sched.armedFor(notify.PlanIdentifier(p.ID)); tod != "21:15" {
		t.Fatalf("chain armed for %q, want 21:15", tod)
	}
}

func TestUpdate_DisablingCancelsChain(t *testing.T) {
	svc, sched := newTestPlanService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, validPlan())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	p.NotificationsEnabled = false
	if _, err := svc.Update(ctx, p); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if _, ok := sched.armedFor(notify.PlanIdentifier(p.ID)); ok {
		t.Fatalf("disabled plan still armed")
	}
}

func TestUpdate_MissingPlan(t *testing.T) {
	svc, _ := newTestPlanService(t)

	p := validPlan()
	p.ID = 77
	if _, err := svc.Update(context.Background(), p); !errors.Is(err, ErrPlanNotFound) {
		t.Fatalf("expected ErrPlanNotFound, got %v", err)
	}
}

func TestDelete_CancelsChainAndToleratesAbsent(t *testing.T) {
	svc, sched := newTestPlanService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, validPlan())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := svc.Delete(ctx, p.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok := sched.armedFor(notify.PlanIdentifier(p.ID)); ok {
		t.Fatalf("deleted plan still armed")
	}

	if err := svc.Delete(ctx, 999); err != nil {
		t.Fatalf("deleting an absent plan must be a no-op, got %v", err)
	}
}

func TestToggle_EnableCompletedPlanRejected(t *testing.T) {
	svc, _ := newTestPlanService(t)
	ctx := context.Background()

	in := validPlan()
	in.Duration = 0
	p, err := svc.Create(ctx, in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := svc.Toggle(ctx, p.ID, true); !errors.Is(err, ErrPlanCompleted) {
		t.Fatalf("expected ErrPlanCompleted, got %v", err)
	}
	// Disabling an already-disabled completed plan stays legal.
	if err := svc.Toggle(ctx, p.ID, false); err != nil {
		t.Fatalf("Toggle off: %v", err)
	}
}

func TestToggle_OffCancelsAndOnReArms(t *testing.T) {
	svc, sched := newTestPlanService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, validPlan())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := svc.Toggle(ctx, p.ID, false); err != nil {
		t.Fatalf("Toggle off: %v", err)
	}
	if _, ok := sched.armedFor(notify.PlanIdentifier(p.ID)); ok {
		t.Fatalf("chain survived disable")
	}

	if err := svc.Toggle(ctx, p.ID, true); err != nil {
		t.Fatalf("Toggle on: %v", err)
	}
	if tod, ok := sched.armedFor(notify.PlanIdentifier(p.ID)); !ok || tod != "08:00" {
		t.Fatalf("chain not re-armed: %v %v", tod, ok)
	}

	if err := svc.Toggle(ctx, 999, true); !errors.Is(err, ErrPlanNotFound) {
		t.Fatalf("expected ErrPlanNotFound, got %v", err)
	}
}

func TestRearmActive_SchedulesEveryActivePlan(t *testing.T) {
	svc, _ := newTestPlanService(t)
	ctx := context.Background()

	a, _ := svc.Create(ctx, validPlan())
	inactive := validPlan()
	inactive.NotificationsEnabled = false
	b, _ := svc.Create(ctx, inactive)

	// Fresh scheduler simulates a process restart with empty timers.
	restarted := newFakeScheduler()
	svc.Scheduler = restarted

	plans, err := repo.ListActivePlans(ctx, svc.DB)
	if err != nil {
		t.Fatalf("ListActivePlans: %v", err)
	}
	svc.RearmActive(ctx, plans)

	if _, ok := restarted.armedFor(notify.PlanIdentifier(a.ID)); !ok {
		t.Fatalf("active plan %d not re-armed", a.ID)
	}
	if _, ok := restarted.armedFor(notify.PlanIdentifier(b.ID)); ok {
		t.Fatalf("inactive plan %d must stay unarmed", b.ID)
	}
}
