package domain

import (
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newDomainDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	return db
}

func TestTableNames(t *testing.T) {
	if (MedicinePlan{}).TableName() != "medicine_plans" {
		t.Fatalf("MedicinePlan.TableName() = %q", (MedicinePlan{}).TableName())
	}
	if (Idempotency{}).TableName() != "idempotency" {
		t.Fatalf("Idempotency.TableName() = %q", (Idempotency{}).TableName())
	}
}

func TestFoodTimingValid(t *testing.T) {
	for _, f := range []FoodTiming{FoodBefore, FoodAfter, FoodDuring} {
		if !f.Valid() {
			t.Fatalf("%q should be valid", f)
		}
	}
	for _, f := range []FoodTiming{"", "with", "BEFORE", "before "} {
		if f.Valid() {
			t.Fatalf("%q should be invalid", f)
		}
	}
}

func TestMedicinePlanActive(t *testing.T) {
	cases := []struct {
		enabled  bool
		duration int
		want     bool
	}{
		{true, 5, true},
		{true, 0, false},
		{false, 5, false},
		{false, 0, false},
	}
	for _, c := range cases {
		p := MedicinePlan{NotificationsEnabled: c.enabled, Duration: c.duration}
		if p.Active() != c.want {
			t.Fatalf("Active() with enabled=%v duration=%d = %v, want %v",
				c.enabled, c.duration, p.Active(), c.want)
		}
	}
}

func TestMigration_ConstraintsEnforced(t *testing.T) {
	db := newDomainDB(t)

	if err := db.AutoMigrate(&MedicinePlan{}, &Idempotency{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	m := db.Migrator()
	if !m.HasTable(&MedicinePlan{}) || !m.HasTable(&Idempotency{}) {
		t.Fatalf("expected both tables to exist")
	}
	if !m.HasIndex(&Idempotency{}, "ux_user_scope_key") {
		t.Fatalf("expected composite index ux_user_scope_key on idempotency")
	}

	// CHECK on duration rejects negatives.
	bad := &MedicinePlan{
		Name: "x", Dosage: "1", Duration: -1,
		FoodTiming: FoodAfter, NotificationTime: "08:00",
	}
	if err := db.Create(bad).Error; err == nil {
		t.Fatalf("expected CHECK violation for negative duration")
	}

	// CHECK on food_timing rejects values outside the enum.
	bad = &MedicinePlan{
		Name: "x", Dosage: "1", Duration: 1,
		FoodTiming: "snack", NotificationTime: "08:00",
	}
	if err := db.Create(bad).Error; err == nil {
		t.Fatalf("expected CHECK violation for unknown food timing")
	}

	// A valid row round-trips, including the nullable rollover marker.
	stamp := "2026-08-30"
	good := &MedicinePlan{
		Name: "Ibuprofen", Dosage: "200mg", Duration: 7,
		FoodTiming: FoodDuring, NotificationTime: "21:15",
		NotificationsEnabled: true, LastNotificationDate: &stamp,
	}
	if err := db.Create(good).Error; err != nil {
		t.Fatalf("insert valid plan: %v", err)
	}
	var got MedicinePlan
	if err := db.First(&got, good.ID).Error; err != nil {
		t.Fatalf("readback: %v", err)
	}
	if got.LastNotificationDate == nil || *got.LastNotificationDate != stamp {
		t.Fatalf("marker not persisted: %+v", got.LastNotificationDate)
	}

	// Unique (user_id, scope, key) on idempotency.
	now := time.Now().UTC()
	rec := &Idempotency{
		ID: "id-1", UserID: "u1", Scope: "plans", Key: "k1",
		PlanID: got.ID, Status: 201, CreatedAt: now, ExpiresAt: now.Add(time.Hour),
	}
	if err := db.Create(rec).Error; err != nil {
		t.Fatalf("insert idempotency: %v", err)
	}
	dup := &Idempotency{
		ID: "id-2", UserID: "u1", Scope: "plans", Key: "k1",
		PlanID: got.ID, Status: 201, CreatedAt: now, ExpiresAt: now.Add(time.Hour),
	}
	if err := db.Create(dup).Error; err == nil {
		t.Fatalf("expected UNIQUE violation on (user_id, scope, key)")
	}
}
