// Schedule HTTP handlers.
//
// This file exposes the editor endpoints for schedule definitions:
//   - PUT /surveys/{id}/schedules/{absolute|relative|weekly}   (reconcile)
//   - GET /surveys/{id}/schedules/{absolute|relative|weekly}   (export)
//   - GET /surveys/{id}/next-weekly                            (next slot)
//
// Timings travel in the editor's compact array form:
//
//	absolute: [[year, month, day, seconds], ...]
//	relative: [[intervention_id, days_after, seconds], ...]
//	weekly:   [[seconds, ...] x 7]   (Sunday first)
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/survey-scheduler/internal/services"
)

//
// Wire shapes
//

// AbsoluteEntry is one [year, month, day, seconds] tuple.
type AbsoluteEntry services.AbsoluteTiming

// UnmarshalJSON decodes the four-element array form.
func (e *AbsoluteEntry) UnmarshalJSON(b []byte) error {
	var a []int
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	if len(a) != 4 {
		return fmt.Errorf("absolute timing needs 4 elements, got %d", len(a))
	}
	*e = AbsoluteEntry{Year: a[0], Month: a[1], Day: a[2], Seconds: a[3]}
	return nil
}

// MarshalJSON encodes the four-element array form.
func (e AbsoluteEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([4]int{e.Year, e.Month, e.Day, e.Seconds})
}

// RelativeEntry is one [intervention_id, days_after, seconds] tuple.
type RelativeEntry services.RelativeTiming

// UnmarshalJSON decodes the three-element array form. A null intervention
// decodes to "" and is rejected by reconciliation.
func (e *RelativeEntry) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if len(raw) != 3 {
		return fmt.Errorf("relative timing needs 3 elements, got %d", len(raw))
	}
	var (
		iv   *string
		days int
		secs int
	)
	if err := json.Unmarshal(raw[0], &iv); err != nil {
		return fmt.Errorf("intervention id: %w", err)
	}
	if err := json.Unmarshal(raw[1], &days); err != nil {
		return fmt.Errorf("days after: %w", err)
	}
	if err := json.Unmarshal(raw[2], &secs); err != nil {
		return fmt.Errorf("seconds: %w", err)
	}
	*e = RelativeEntry{DaysAfter: days, Seconds: secs}
	if iv != nil {
		e.InterventionID = *iv
	}
	return nil
}

// MarshalJSON encodes the three-element array form.
func (e RelativeEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{e.InterventionID, e.DaysAfter, e.Seconds})
}

//
// DTOs
//

// AbsoluteTimingsRequest is the desired absolute schedule set.
type AbsoluteTimingsRequest struct {
	Timings []AbsoluteEntry `json:"timings" swaggertype:"array,integer" example:"2024,3,10,32400"`
}

// RelativeTimingsRequest is the desired relative schedule set.
type RelativeTimingsRequest struct {
	Timings []RelativeEntry `json:"timings" swaggertype:"array,string"`
}

// WeeklyTimingsRequest is the desired weekly schedule set, one bucket per
// weekday starting on Sunday.
type WeeklyTimingsRequest struct {
	Timings [][]int `json:"timings" swaggertype:"array,integer"`
}

// AbsoluteTimingsResponse wraps exported absolute timings.
type AbsoluteTimingsResponse struct {
	SurveyID string          `json:"survey_id"`
	Timings  []AbsoluteEntry `json:"timings" swaggertype:"array,integer"`
}

// RelativeTimingsResponse wraps exported relative timings.
type RelativeTimingsResponse struct {
	SurveyID string          `json:"survey_id"`
	Timings  []RelativeEntry `json:"timings" swaggertype:"array,string"`
}

// WeeklyTimingsResponse wraps exported weekly timings.
type WeeklyTimingsResponse struct {
	SurveyID string  `json:"survey_id"`
	Timings  [][]int `json:"timings" swaggertype:"array,integer"`
}

// NextWeeklyResponse is the earliest upcoming weekly slot of a survey.
type NextWeeklyResponse struct {
	SurveyID   string    `json:"survey_id"`
	ScheduleID string    `json:"schedule_id"`
	DayOfWeek  int       `json:"day_of_week" example:"2"`
	Hour       int       `json:"hour" example:"9"`
	Minute     int       `json:"minute" example:"30"`
	At         time.Time `json:"at"`
}

// bindTimings decodes the request body into dst; a missing body counts as
// an empty set.
func bindTimings(c *gin.Context, dst any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid timings: "+err.Error())
		return false
	}
	return true
}

//
// Handlers
//

// ReconcileAbsolute godoc
// @ID          reconcileAbsolute
// @Summary     Replace absolute schedules
// @Description Makes the survey's stored absolute definitions equal the submitted set.
// @Description An empty set deletes every absolute definition. Sub-minute precision is dropped.
// @Tags        Schedules
// @Accept      json
// @Produce     json
//
// @Param       id    path  string  true  "Survey ID"
// @Param       body  body  handlers.AbsoluteTimingsRequest  true  "Desired timings"
//
// @Success     200  {object}  services.ReconcileResult
// @Failure     400  {object}  handlers.ErrorResponse  "Malformed body"
// @Failure     404  {object}  handlers.ErrorResponse  "Survey not found"
// @Failure     422  {object}  handlers.ErrorResponse  "Invalid timing"
// @Failure     503  {object}  handlers.ErrorResponse  "Store contention"
// @Router      /surveys/{id}/schedules/absolute [put]
func (h *Handlers) ReconcileAbsolute(c *gin.Context) {
	var req AbsoluteTimingsRequest
	if !bindTimings(c, &req) {
		return
	}
	timings := make(services.AbsoluteTimings, len(req.Timings))
	for i, e := range req.Timings {
		timings[i] = services.AbsoluteTiming(e)
	}
	res, err := h.schedules.ReconcileAbsolute(c.Request.Context(), c.Param("id"), timings)
	if err != nil {
		failErr(c, err, ErrCodeReconcileFailed)
		return
	}
	ok(c, http.StatusOK, res)
}

// ReconcileRelative godoc
// @ID          reconcileRelative
// @Summary     Replace relative schedules
// @Description Makes the survey's stored relative definitions equal the submitted set.
// @Description Every intervention must belong to the survey's study.
// @Tags        Schedules
// @Accept      json
// @Produce     json
//
// @Param       id    path  string  true  "Survey ID"
// @Param       body  body  handlers.RelativeTimingsRequest  true  "Desired timings"
//
// @Success     200  {object}  services.ReconcileResult
// @Failure     400  {object}  handlers.ErrorResponse  "Malformed body"
// @Failure     404  {object}  handlers.ErrorResponse  "Survey not found"
// @Failure     422  {object}  handlers.ErrorResponse  "Invalid timing or unknown intervention"
// @Failure     503  {object}  handlers.ErrorResponse  "Store contention"
// @Router      /surveys/{id}/schedules/relative [put]
func (h *Handlers) ReconcileRelative(c *gin.Context) {
	var req RelativeTimingsRequest
	if !bindTimings(c, &req) {
		return
	}
	timings := make(services.RelativeTimings, len(req.Timings))
	for i, e := range req.Timings {
		timings[i] = services.RelativeTiming(e)
	}
	res, err := h.schedules.ReconcileRelative(c.Request.Context(), c.Param("id"), timings)
	if err != nil {
		failErr(c, err, ErrCodeReconcileFailed)
		return
	}
	ok(c, http.StatusOK, res)
}

// ReconcileWeekly godoc
// @ID          reconcileWeekly
// @Summary     Replace weekly schedules
// @Description Makes the survey's stored weekly definitions equal the submitted set.
// @Description Exactly seven day buckets are required, Sunday first.
// @Tags        Schedules
// @Accept      json
// @Produce     json
//
// @Param       id    path  string  true  "Survey ID"
// @Param       body  body  handlers.WeeklyTimingsRequest  true  "Desired timings"
//
// @Success     200  {object}  services.ReconcileResult
// @Failure     400  {object}  handlers.ErrorResponse  "Malformed body"
// @Failure     404  {object}  handlers.ErrorResponse  "Survey not found"
// @Failure     422  {object}  handlers.ErrorResponse  "Wrong bucket count or invalid timing"
// @Failure     503  {object}  handlers.ErrorResponse  "Store contention"
// @Router      /surveys/{id}/schedules/weekly [put]
func (h *Handlers) ReconcileWeekly(c *gin.Context) {
	var req WeeklyTimingsRequest
	if !bindTimings(c, &req) {
		return
	}
	res, err := h.schedules.ReconcileWeekly(c.Request.Context(), c.Param("id"), services.WeeklyTimings(req.Timings))
	if err != nil {
		failErr(c, err, ErrCodeReconcileFailed)
		return
	}
	ok(c, http.StatusOK, res)
}

// ExportAbsolute godoc
// @ID          exportAbsolute
// @Summary     Export absolute schedules
// @Tags        Schedules
// @Produce     json
// @Param       id   path  string  true  "Survey ID"
// @Success     200  {object}  handlers.AbsoluteTimingsResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Survey not found"
// @Router      /surveys/{id}/schedules/absolute [get]
func (h *Handlers) ExportAbsolute(c *gin.Context) {
	surveyID := c.Param("id")
	ts, err := h.schedules.ExportAbsolute(c.Request.Context(), surveyID)
	if err != nil {
		failErr(c, err, ErrCodeScheduleExportFailed)
		return
	}
	out := make([]AbsoluteEntry, len(ts))
	for i, t := range ts {
		out[i] = AbsoluteEntry(t)
	}
	ok(c, http.StatusOK, AbsoluteTimingsResponse{SurveyID: surveyID, Timings: out})
}

// ExportRelative godoc
// @ID          exportRelative
// @Summary     Export relative schedules
// @Tags        Schedules
// @Produce     json
// @Param       id   path  string  true  "Survey ID"
// @Success     200  {object}  handlers.RelativeTimingsResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Survey not found"
// @Router      /surveys/{id}/schedules/relative [get]
func (h *Handlers) ExportRelative(c *gin.Context) {
	surveyID := c.Param("id")
	ts, err := h.schedules.ExportRelative(c.Request.Context(), surveyID)
	if err != nil {
		failErr(c, err, ErrCodeScheduleExportFailed)
		return
	}
	out := make([]RelativeEntry, len(ts))
	for i, t := range ts {
		out[i] = RelativeEntry(t)
	}
	ok(c, http.StatusOK, RelativeTimingsResponse{SurveyID: surveyID, Timings: out})
}

// ExportWeekly godoc
// @ID          exportWeekly
// @Summary     Export weekly schedules
// @Tags        Schedules
// @Produce     json
// @Param       id   path  string  true  "Survey ID"
// @Success     200  {object}  handlers.WeeklyTimingsResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Survey not found"
// @Router      /surveys/{id}/schedules/weekly [get]
func (h *Handlers) ExportWeekly(c *gin.Context) {
	surveyID := c.Param("id")
	ts, err := h.schedules.ExportWeekly(c.Request.Context(), surveyID)
	if err != nil {
		failErr(c, err, ErrCodeScheduleExportFailed)
		return
	}
	ok(c, http.StatusOK, WeeklyTimingsResponse{SurveyID: surveyID, Timings: ts})
}

// NextWeekly godoc
// @ID          nextWeekly
// @Summary     Next weekly occurrence
// @Description Returns the earliest upcoming weekly slot of the survey in the study timezone.
// @Tags        Schedules
// @Produce     json
// @Param       id   path  string  true  "Survey ID"
// @Success     200  {object}  handlers.NextWeeklyResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Survey not found or no weekly schedules"
// @Router      /surveys/{id}/next-weekly [get]
func (h *Handlers) NextWeekly(c *gin.Context) {
	surveyID := c.Param("id")
	next, err := h.resolver.NextWeekly(c.Request.Context(), surveyID, h.now())
	if err != nil {
		failErr(c, err, ErrCodeResolveFailed)
		return
	}
	if next.Schedule == nil {
		failErr(c, errors.New("next weekly without schedule"), ErrCodeResolveFailed)
		return
	}
	ok(c, http.StatusOK, NextWeeklyResponse{
		SurveyID:   surveyID,
		ScheduleID: next.Schedule.ID,
		DayOfWeek:  next.Schedule.DayOfWeek,
		Hour:       next.Schedule.Hour,
		Minute:     next.Schedule.Minute,
		At:         next.At,
	})
}
