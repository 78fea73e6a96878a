// Package services defines the business logic for medication plans and the
// daily rollover. This file centralizes common service-level error values so
// that they can be consistently returned by service methods and checked by
// callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler layer.
package services

import (
	"errors"

	"github.com/medremind/go-medicine-backend/internal/notify"
)

var (
	// ErrPlanNotFound indicates that the requested plan does not exist.
	ErrPlanNotFound = errors.New("plan not found")

	// ErrNameRequired is returned when a plan is submitted without a
	// medication name.
	ErrNameRequired = errors.New("name is required")

	// ErrDosageRequired is returned when a plan is submitted without a dosage.
	ErrDosageRequired = errors.New("dosage is required")

	// ErrInvalidDuration is returned when a plan's duration is negative.
	ErrInvalidDuration = errors.New("duration must be >= 0")

	// ErrInvalidFoodTiming is returned when the food timing is outside the
	// allowed set (before, after, during).
	ErrInvalidFoodTiming = errors.New("food timing must be before, after or during")

	// ErrInvalidTime is returned when a notification time does not match the
	// 24-hour "HH:MM" format. It aliases the scheduler's sentinel so the two
	// layers agree under errors.Is.
	ErrInvalidTime = notify.ErrInvalidTime

	// ErrPlanCompleted is returned when reminders are enabled on a plan whose
	// treatment has already finished (duration zero).
	ErrPlanCompleted = errors.New("plan has no remaining days")
)
