// Scheduled event HTTP handlers.
//
// This file exposes the delivery worker endpoints:
//   - GET  /events/{id}/due       (resolve when the occurrence is due)
//   - POST /events/{id}/archive   (record a delivery attempt)
//
// Idempotency:
// When the client supplies an Idempotency-Key and a live result exists for
// ("archive:<event id>", key), the handler returns the recorded ledger row
// with `Idempotency-Replayed: true` instead of archiving again.
package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/survey-scheduler/internal/domain"
	"github.com/tbourn/survey-scheduler/internal/http/middleware"
	"github.com/tbourn/survey-scheduler/internal/services"
	"github.com/tbourn/survey-scheduler/internal/temporal"
)

// HeaderIdempotencyReplayed marks a response served from a stored result.
const HeaderIdempotencyReplayed = "Idempotency-Replayed"

//
// DTOs
//

// DueResponse describes when a scheduled event should be delivered.
//
// Resolvable is false for relative schedules whose participant has no
// anchor date yet; DueAt is omitted then. Canonical is the stored
// scheduled_time projected into the study timezone.
type DueResponse struct {
	EventID      string     `json:"event_id"`
	ScheduleType string     `json:"schedule_type" example:"weekly"`
	Week         string     `json:"week,omitempty" example:"upcoming"`
	Resolvable   bool       `json:"resolvable"`
	DueAt        *time.Time `json:"due_at,omitempty"`
	Canonical    time.Time  `json:"canonical"`
	Timezone     string     `json:"timezone" example:"America/New_York"`
}

// ArchiveRequest is the JSON payload for recording a delivery attempt.
type ArchiveRequest struct {
	// Status is the delivery outcome, e.g. "success" or "device_unreachable".
	Status string `json:"status" binding:"required" example:"success"`
	// ParticipantID optionally asserts the event's owner.
	ParticipantID string `json:"participant_id,omitempty" example:"p-0001"`
}

//
// Handlers
//

// Due godoc
// @ID          eventDue
// @Summary     Resolve an event's due time
// @Description Resolves the event's schedule definition in the study timezone.
// @Description For weekly events, week selects this week's slot, next week's, or whichever is upcoming.
// @Tags        Events
// @Produce     json
//
// @Param       id    path   string  true   "Scheduled event ID"
// @Param       week  query  string  false  "this | next | upcoming"  default(upcoming)
//
// @Success     200  {object}  handlers.DueResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Unknown week selector"
// @Failure     404  {object}  handlers.ErrorResponse  "Event or definition not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Event references no single definition"
// @Router      /events/{id}/due [get]
func (h *Handlers) Due(c *gin.Context) {
	week, okWeek := temporal.ParseWeek(strings.ToLower(strings.TrimSpace(c.Query("week"))))
	if !okWeek {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "week must be one of this, next, upcoming")
		return
	}

	res, err := h.resolver.ResolveEvent(c.Request.Context(), c.Param("id"), services.Query{Week: week, Now: h.now()})
	if err != nil {
		failErr(c, err, ErrCodeResolveFailed)
		return
	}

	out := DueResponse{
		EventID:    res.Event.ID,
		Resolvable: res.OK,
		Canonical:  res.Canonical(),
	}
	if res.Location != nil {
		out.Timezone = res.Location.String()
	}
	if typ, _, err := res.Event.Variant(); err == nil {
		out.ScheduleType = string(typ)
		if typ == domain.ScheduleWeekly {
			out.Week = week.String()
		}
	}
	if res.OK {
		at := res.DueAt
		out.DueAt = &at
	}
	ok(c, http.StatusOK, out)
}

// Archive godoc
// @ID          archiveEvent
// @Summary     Record a delivery attempt
// @Description Appends the attempt to the participant's ledger. A success retires the event.
// @Description Supports idempotency via the Idempotency-Key header (same key → same ledger row).
// @Tags        Events
// @Accept      json
// @Produce     json
//
// @Param       X-Worker-ID      header  string  false  "Delivery worker ID"
// @Param       Idempotency-Key  header  string  false  "Idempotency key for safe retries"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       id               path    string  true   "Scheduled event ID"
// @Param       body             body    handlers.ArchiveRequest  true  "Delivery outcome"
//
// @Success     201  {object}  domain.ArchivedEvent  "Recorded"
// @Success     200  {object}  domain.ArchivedEvent  "Replayed"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request or unknown status"
// @Failure     404  {object}  handlers.ErrorResponse  "Event or participant not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Event belongs to another participant"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /events/{id}/archive [post]
func (h *Handlers) Archive(c *gin.Context) {
	ctx := c.Request.Context()
	eventID := c.Param("id")

	var req ArchiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "status required")
		return
	}

	// Replay path.
	key, _ := middleware.GetIdempotencyKey(c)
	scope := middleware.GetIdempotencyScope(c)
	if key != "" && scope != "" && h.idem != nil {
		if prev, found, err := h.idem.Replay(ctx, scope, key); err == nil && found {
			c.Header(HeaderIdempotencyReplayed, "true")
			ok(c, http.StatusOK, prev)
			return
		}
	}

	ae, err := h.archiver.ArchiveByID(ctx, eventID, strings.TrimSpace(req.ParticipantID), req.Status)
	if err != nil {
		failErr(c, err, ErrCodeArchiveFailed)
		return
	}

	// Store path, best effort.
	if key != "" && scope != "" && h.idem != nil {
		if err := h.idem.Remember(ctx, scope, key, ae.ID, http.StatusCreated); err != nil {
			middleware.LoggerFrom(c).Warn().Err(err).Str("event_id", eventID).Msg("idempotency record not stored")
		}
	}

	middleware.LoggerFrom(c).Info().
		Str("event_id", eventID).
		Str("archived_event_id", ae.ID).
		Str("status", string(ae.Status)).
		Bool("was_resend", ae.WasResend).
		Msg("delivery archived")
	ok(c, http.StatusCreated, ae)
}
