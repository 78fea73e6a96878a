package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/medremind/go-medicine-backend/internal/http/middleware"
	"github.com/medremind/go-medicine-backend/internal/notify"
)

// reminderEntry is the wire shape of one pending reminder trigger.
type reminderEntry struct {
	Identifier string `json:"identifier" example:"plan_7"`
	Title      string `json:"title" example:"Medicine Reminder"`
	FireAt     string `json:"fire_at" example:"2026-08-31T08:00:00+02:00"`
	IsNextDay  bool   `json:"is_next_day"`
}

// ListRemindersResponse wraps the pending reminder triggers.
type ListRemindersResponse struct {
	Reminders []reminderEntry `json:"reminders"`
}

// ResponseRequest reports a tapped notification back to the server.
type ResponseRequest struct {
	// Identifier of the fired reminder, either "plan_{id}" or
	// "plan_{id}_next".
	Identifier string         `json:"identifier" binding:"required" example:"plan_7"`
	Payload    notify.Payload `json:"payload"`
}

// ListReminders godoc
// @ID          listReminders
// @Summary     List pending reminder triggers
// @Description Diagnostic view of every armed reminder, soonest first.
// @Tags        Reminders
// @Produce     json
//
// @Success     200  {object} handlers.ListRemindersResponse
// @Router      /reminders [get]
func (h *Handlers) ListReminders(c *gin.Context) {
	entries := h.reminders.Scheduled()
	out := make([]reminderEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, reminderEntry{
			Identifier: e.Identifier,
			Title:      e.Title,
			FireAt:     e.FireAt.Format(time.RFC3339),
			IsNextDay:  e.Payload.IsNextDay,
		})
	}
	ok(c, http.StatusOK, ListRemindersResponse{Reminders: out})
}

// TriggerRollover godoc
// @ID          triggerRollover
// @Summary     Run one daily rollover pass
// @Description Decrements every plan due today, at most once per calendar day per plan. Safe to call repeatedly.
// @Tags        Reminders
// @Produce     json
//
// @Success     204  {string} string "No Content"
// @Failure     500  {object} handlers.ErrorResponse "Rollover failed"
// @Router      /reminders/rollover [post]
func (h *Handlers) TriggerRollover(c *gin.Context) {
	if err := h.rolloverSvc.ProcessDailyUpdates(c.Request.Context()); err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeRolloverFailed, err.Error())
		return
	}
	noContent(c)
}

// ReminderResponse godoc
// @ID          reminderResponse
// @Summary     Report a tapped reminder
// @Description Queues a notification tap for processing. The rollover worker applies the day decrement and re-arms the chain asynchronously.
// @Tags        Reminders
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.ResponseRequest  true  "Tapped notification"
//
// @Success     202  {string} string "Accepted"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     503  {object} handlers.ErrorResponse "Worker unavailable"
// @Router      /reminders/response [post]
func (h *Handlers) ReminderResponse(c *gin.Context) {
	var req ResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if _, okID := notify.ParseIdentifier(req.Identifier); !okID {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unrecognized reminder identifier")
		return
	}

	r := notify.Response{Identifier: req.Identifier, Payload: req.Payload}
	if !h.responses.Publish(r) {
		middleware.LoggerFrom(c).Warn().Str("identifier", req.Identifier).Msg("reminder response dropped, worker busy")
		fail(c, http.StatusServiceUnavailable, ErrCodeInternal, "response queue full")
		return
	}
	c.Status(http.StatusAccepted)
}
