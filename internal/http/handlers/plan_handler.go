// Plan HTTP handlers.
//
// This file exposes REST endpoints for medication-plan resources:
//   - POST   /plans                    (create, Idempotency-Key safe retry)
//   - GET    /plans                    (list, paginated, ETag support)
//   - GET    /plans/{id}               (fetch)
//   - PUT    /plans/{id}               (full overwrite)
//   - DELETE /plans/{id}               (delete)
//   - PUT    /plans/{id}/notifications (toggle reminder flag)
//
// Handlers are transport-thin: they validate input, call application
// services, and translate results into HTTP responses.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/medremind/go-medicine-backend/internal/domain"
	"github.com/medremind/go-medicine-backend/internal/http/middleware"
	"github.com/medremind/go-medicine-backend/internal/notify"
	"github.com/medremind/go-medicine-backend/internal/repo"
	"github.com/medremind/go-medicine-backend/internal/services"
	"github.com/medremind/go-medicine-backend/internal/sysutil"
	"github.com/medremind/go-medicine-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// PlanService defines plan lifecycle operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type PlanService interface {
	// Create validates and persists a new plan, arming its reminders.
	Create(ctx context.Context, p *domain.MedicinePlan) (*domain.MedicinePlan, error)
	// Get fetches a plan by ID.
	Get(ctx context.Context, id uint) (*domain.MedicinePlan, error)
	// List returns all plans (legacy, non-paginated; never fails).
	List(ctx context.Context) []domain.MedicinePlan
	// ListPage returns a page of plans and the total count.
	ListPage(ctx context.Context, page, pageSize int) ([]domain.MedicinePlan, int64, error)
	// Update overwrites a plan by ID and reconciles its reminders.
	Update(ctx context.Context, p *domain.MedicinePlan) (*domain.MedicinePlan, error)
	// Delete removes a plan and cancels its reminders.
	Delete(ctx context.Context, id uint) error
	// Toggle flips only the reminder flag.
	Toggle(ctx context.Context, id uint, enabled bool) error
}

// RolloverService defines the daily-rollover operations reachable over HTTP.
type RolloverService interface {
	// ProcessDailyUpdates performs one idempotent rollover pass.
	ProcessDailyUpdates(ctx context.Context) error
}

// ReminderBrowser enumerates pending reminder triggers (diagnostic).
type ReminderBrowser interface {
	Scheduled() []notify.Entry
}

// ResponsePublisher hands notification taps to the rollover worker.
type ResponsePublisher interface {
	Publish(r notify.Response) bool
}

// idempotencyTTL bounds how long a completed create can be replayed.
const idempotencyTTL = 24 * time.Hour

//
// Handler wiring
//

// Handlers groups HTTP endpoints for plans and reminders. It depends on
// abstract service interfaces to keep transport concerns separate from
// business logic.
type Handlers struct {
	planSvc     PlanService
	rolloverSvc RolloverService
	reminders   ReminderBrowser
	responses   ResponsePublisher
}

// New constructs and returns a Handlers instance bound to the given services.
func New(planSvc PlanService, rolloverSvc RolloverService, reminders ReminderBrowser, responses ResponsePublisher) *Handlers {
	return &Handlers{planSvc: planSvc, rolloverSvc: rolloverSvc, reminders: reminders, responses: responses}
}

//
// DTOs
//

// PlanRequest is the JSON payload for creating or overwriting a plan.
type PlanRequest struct {
	// Name of the medication.
	Name string `json:"name" binding:"required" example:"Amoxicillin"`
	// Dosage free text.
	Dosage string `json:"dosage" binding:"required" example:"500mg"`
	// Duration is the number of treatment days remaining.
	Duration int `json:"duration" example:"3"`
	// FoodTiming is one of before, after, during.
	FoodTiming string `json:"food_timing" binding:"required" example:"after"`
	// NotificationTime is the daily reminder time, 24-hour HH:MM.
	NotificationTime string `json:"notification_time" binding:"required" example:"08:00"`
	// NotificationsEnabled arms the reminder chain.
	NotificationsEnabled bool `json:"notifications_enabled" example:"true"`
}

// ToggleRequest is the JSON payload for flipping the reminder flag.
type ToggleRequest struct {
	Enabled *bool `json:"enabled" binding:"required" example:"false"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListPlansResponse wraps a page of plans and pagination information.
type ListPlansResponse struct {
	Plans      []domain.MedicinePlan `json:"plans"`
	Pagination Pagination            `json:"pagination"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// planFromRequest maps a validated request body onto a domain plan.
func planFromRequest(req PlanRequest) *domain.MedicinePlan {
	return &domain.MedicinePlan{
		Name:                 req.Name,
		Dosage:               req.Dosage,
		Duration:             req.Duration,
		FoodTiming:           domain.FoodTiming(req.FoodTiming),
		NotificationTime:     req.NotificationTime,
		NotificationsEnabled: req.NotificationsEnabled,
	}
}

// planID parses the :id route parameter, failing the request on bad input.
func planID(c *gin.Context) (uint, bool) {
	id, ok := utils.ParseID(c.Param("id"))
	if !ok {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "plan id must be a positive integer")
	}
	return id, ok
}

// failValidation maps service validation sentinels onto 4xx responses.
// Returns false when err was not a validation error.
func failValidation(c *gin.Context, err error) bool {
	switch {
	case errors.Is(err, services.ErrInvalidTime):
		fail(c, http.StatusBadRequest, ErrCodeInvalidTime, err.Error())
	case errors.Is(err, services.ErrNameRequired),
		errors.Is(err, services.ErrDosageRequired),
		errors.Is(err, services.ErrInvalidDuration),
		errors.Is(err, services.ErrInvalidFoodTiming):
		fail(c, http.StatusBadRequest, ErrCodeInvalidPlan, err.Error())
	default:
		return false
	}
	return true
}

// db returns the raw GORM handle when the plan service is the concrete
// implementation (ETag and idempotency support are best-effort extras).
func (h *Handlers) db() *gorm.DB {
	if svc, ok := h.planSvc.(*services.PlanService); ok {
		return svc.DB
	}
	return nil
}

//
// Handlers
//

// CreatePlan godoc
// @ID          createPlan
// @Summary     Create a medication plan
// @Description Creates a plan, arms its reminder chain, and returns the plan resource. Supports Idempotency-Key safe retries.
// @Tags        Plans
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID        header  string  false "User ID (demo header)"  example(user123)
// @Param       Idempotency-Key  header  string  false "Safe-retry key"
// @Param       body             body    handlers.PlanRequest  true  "Create plan payload"
//
// @Success     201  {object}  domain.MedicinePlan
// @Success     200  {object}  domain.MedicinePlan "Replayed original result"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /plans [post]
func (h *Handlers) CreatePlan(c *gin.Context) {
	var req PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	ctx := c.Request.Context()
	key, hasKey := middleware.GetIdempotencyKey(c)

	// Serve a replay of a previously completed create, if any.
	if hasKey {
		if db := h.db(); db != nil {
			if rec, err := repo.GetIdempotency(ctx, db, userID(c), repo.IdempotencyScopePlans, key, time.Now().UTC()); err == nil && rec != nil {
				if p, err := h.planSvc.Get(ctx, rec.PlanID); err == nil {
					ok(c, http.StatusOK, p)
					return
				}
			}
		}
	}

	p, err := h.planSvc.Create(ctx, planFromRequest(req))
	if err != nil {
		if failValidation(c, err) {
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		return
	}

	if hasKey {
		if db := h.db(); db != nil {
			if _, err := repo.CreateIdempotency(ctx, db, userID(c), repo.IdempotencyScopePlans, key, p.ID, http.StatusCreated, idempotencyTTL); err != nil && !errors.Is(err, repo.ErrDuplicate) {
				middleware.LoggerFrom(c).Warn().Err(err).Msg("record idempotency key")
			}
		}
	}

	ok(c, http.StatusCreated, p)
}

// ListPlans godoc
// @ID          listPlans
// @Summary     List medication plans (paginated)
// @Description Returns a page of plans, newest first. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Plans
// @Produce     json
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"abc123\")
// @Param       page           query   int     false "Page number"                  minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"               minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListPlansResponse
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /plans [get]
func (h *Handlers) ListPlans(c *gin.Context) {
	ctx := c.Request.Context()
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	if db := h.db(); db != nil {
		count, maxTS, err := repo.PlansStats(ctx, db)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"plans:%d:%d"`, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	items, total, err := h.planSvc.ListPage(ctx, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	resp := ListPlansResponse{
		Plans: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	}
	ok(c, http.StatusOK, resp)
}

// GetPlan godoc
// @ID          getPlan
// @Summary     Fetch a medication plan
// @Tags        Plans
// @Produce     json
//
// @Param       id  path  int  true  "Plan ID"  example(7)
//
// @Success     200  {object} domain.MedicinePlan
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Plan not found"
// @Router      /plans/{id} [get]
func (h *Handlers) GetPlan(c *gin.Context) {
	id, okID := planID(c)
	if !okID {
		return
	}

	p, err := h.planSvc.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrPlanNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "plan not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, p)
}

// UpdatePlan godoc
// @ID          updatePlan
// @Summary     Overwrite a medication plan
// @Description Full-row overwrite of the editable fields; the rollover marker is preserved. Reminders are re-armed or canceled to match.
// @Tags        Plans
// @Accept      json
// @Produce     json
//
// @Param       id    path  int                   true "Plan ID"  example(7)
// @Param       body  body  handlers.PlanRequest  true "New plan contents"
//
// @Success     200  {object} domain.MedicinePlan
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Plan not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /plans/{id} [put]
func (h *Handlers) UpdatePlan(c *gin.Context) {
	id, okID := planID(c)
	if !okID {
		return
	}

	var req PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	p := planFromRequest(req)
	p.ID = id

	updated, err := h.planSvc.Update(c.Request.Context(), p)
	if err != nil {
		if failValidation(c, err) {
			return
		}
		if errors.Is(err, services.ErrPlanNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "plan not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, updated)
}

// DeletePlan godoc
// @ID          deletePlan
// @Summary     Delete a medication plan
// @Description Removes the plan and cancels both of its reminder identifiers. Deleting an absent plan is still a 204.
// @Tags        Plans
// @Produce     json
//
// @Param       id  path  int  true  "Plan ID"  example(7)
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /plans/{id} [delete]
func (h *Handlers) DeletePlan(c *gin.Context) {
	id, okID := planID(c)
	if !okID {
		return
	}

	if err := h.planSvc.Delete(c.Request.Context(), id); err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	noContent(c)
}

// ToggleNotifications godoc
// @ID          toggleNotifications
// @Summary     Enable or disable a plan's reminders
// @Description Sets only the reminder flag. Enabling a completed plan (zero days remaining) is rejected.
// @Tags        Plans
// @Accept      json
// @Produce     json
//
// @Param       id    path  int                     true "Plan ID"  example(7)
// @Param       body  body  handlers.ToggleRequest  true "New flag value"
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Plan not found"
// @Failure     409  {object} handlers.ErrorResponse "Plan completed"
// @Router      /plans/{id}/notifications [put]
func (h *Handlers) ToggleNotifications(c *gin.Context) {
	id, okID := planID(c)
	if !okID {
		return
	}

	var req ToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Enabled == nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "enabled flag required")
		return
	}

	err := h.planSvc.Toggle(c.Request.Context(), id, *req.Enabled)
	switch {
	case err == nil:
		noContent(c)
	case errors.Is(err, services.ErrPlanNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "plan not found")
	case errors.Is(err, services.ErrPlanCompleted):
		fail(c, http.StatusConflict, ErrCodePlanCompleted, "plan has no remaining days")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}

// userID extracts the authenticated user id from Gin context (set by
// upstream middleware). If absent, it falls back to "X-User-ID" header
// (tests use it), and finally to "demo-user".
func userID(c *gin.Context) string {
	if v, okv := c.Get("userID"); okv {
		if s, oks := v.(string); oks && s != "" {
			return s
		}
	}
	var header string
	if c != nil && c.Request != nil {
		header = c.GetHeader("X-User-ID")
	}
	return sysutil.FirstNonEmpty(header, "demo-user")
}
