// Participant HTTP handlers.
//
// This file exposes:
//   - POST /participants/{id}/notification-receipts   (device acknowledgements)
//   - GET  /participants/{id}/archived-events         (ledger, paginated, ETag)
package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/survey-scheduler/internal/domain"
)

//
// DTOs
//

// ReceiptsRequest carries the correlation uuids a device reports as shown.
type ReceiptsRequest struct {
	UUIDs []string `json:"uuids" binding:"required,min=1,max=500" example:"7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab"`
}

// ReceiptsResponse reports how many distinct receipts were queued.
type ReceiptsResponse struct {
	ParticipantID string `json:"participant_id"`
	Accepted      int    `json:"accepted" example:"2"`
}

// ListArchivedEventsResponse wraps a page of the ledger.
type ListArchivedEventsResponse struct {
	Events     []domain.ArchivedEvent `json:"events"`
	Pagination Pagination             `json:"pagination"`
}

//
// Handlers
//

// RecordReceipts godoc
// @ID          recordReceipts
// @Summary     Record notification receipts
// @Description Queues device acknowledgements. Matching ledger rows are confirmed by the periodic receipt sweep.
// @Tags        Participants
// @Accept      json
// @Produce     json
//
// @Param       id    path  string  true  "Participant ID"
// @Param       body  body  handlers.ReceiptsRequest  true  "Correlation uuids"
//
// @Success     202  {object}  handlers.ReceiptsResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request or malformed uuid"
// @Failure     404  {object}  handlers.ErrorResponse  "Participant not found"
// @Router      /participants/{id}/notification-receipts [post]
func (h *Handlers) RecordReceipts(c *gin.Context) {
	participantID := c.Param("id")

	var req ReceiptsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "uuids required (1-500)")
		return
	}

	rows, err := h.receipts.Record(c.Request.Context(), participantID, req.UUIDs)
	if err != nil {
		failErr(c, err, ErrCodeReceiptRecordFailed)
		return
	}
	ok(c, http.StatusAccepted, ReceiptsResponse{ParticipantID: participantID, Accepted: len(rows)})
}

// ListArchivedEvents godoc
// @ID          listArchivedEvents
// @Summary     List a participant's delivery ledger
// @Description Returns archived delivery attempts newest first. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Participants
// @Produce     json
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"ledger:p1:3:1:0:1:20\")
// @Param       id             path    string  true  "Participant ID"
// @Param       page           query   int     false "Page number"     minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListArchivedEventsResponse
// @Header      200  {string} ETag  "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     404  {object} handlers.ErrorResponse "Participant not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /participants/{id}/archived-events [get]
func (h *Handlers) ListArchivedEvents(c *gin.Context) {
	ctx := c.Request.Context()
	participantID := c.Param("id")
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	if st, err := h.ledger.Stats(ctx, participantID); err == nil && st.Count > 0 {
		var ts int64
		if st.LastUpdated != nil {
			ts = st.LastUpdated.UnixNano()
		}
		etag := fmt.Sprintf(`W/"ledger:%s:%d:%d:%d:%d:%d"`, participantID, st.Count, st.Confirmed, ts, page, pageSize)
		c.Header("ETag", etag)
		if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}

	items, total, err := h.ledger.ListPage(ctx, participantID, page, pageSize)
	if err != nil {
		failErr(c, err, ErrCodeListFailed)
		return
	}
	ok(c, http.StatusOK, ListArchivedEventsResponse{
		Events:     items,
		Pagination: newPagination(page, pageSize, total),
	})
}
