// Package handlers exposes the scheduling core over HTTP.
//
// Handlers are transport-thin: they validate input, call application
// services, and translate results into HTTP responses (including
// conditional and replayed responses).
package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/survey-scheduler/internal/domain"
	"github.com/tbourn/survey-scheduler/internal/services"
	"github.com/tbourn/survey-scheduler/internal/utils"
)

//
// Service contracts (context-aware)
//

// ScheduleService reconciles and exports schedule definitions.
type ScheduleService interface {
	ReconcileAbsolute(ctx context.Context, surveyID string, t services.AbsoluteTimings) (services.ReconcileResult, error)
	ReconcileRelative(ctx context.Context, surveyID string, t services.RelativeTimings) (services.ReconcileResult, error)
	ReconcileWeekly(ctx context.Context, surveyID string, t services.WeeklyTimings) (services.ReconcileResult, error)
	ExportAbsolute(ctx context.Context, surveyID string) (services.AbsoluteTimings, error)
	ExportRelative(ctx context.Context, surveyID string) (services.RelativeTimings, error)
	ExportWeekly(ctx context.Context, surveyID string) (services.WeeklyTimings, error)
}

// Resolver computes due instants.
type Resolver interface {
	ResolveEvent(ctx context.Context, eventID string, q services.Query) (services.Resolution, error)
	NextWeekly(ctx context.Context, surveyID string, now time.Time) (services.NextOccurrence, error)
}

// Archiver records delivery attempts.
type Archiver interface {
	ArchiveByID(ctx context.Context, eventID, participantID, status string) (*domain.ArchivedEvent, error)
}

// ReceiptService stores device acknowledgements.
type ReceiptService interface {
	Record(ctx context.Context, participantID string, uuids []string) ([]domain.NotificationReport, error)
}

// LedgerService lists archived delivery attempts.
type LedgerService interface {
	ListPage(ctx context.Context, participantID string, page, pageSize int) ([]domain.ArchivedEvent, int64, error)
	Stats(ctx context.Context, participantID string) (services.LedgerStats, error)
}

// IdempotencyStore replays and remembers archive results keyed by
// (scope, key).
type IdempotencyStore interface {
	Replay(ctx context.Context, scope, key string) (*domain.ArchivedEvent, bool, error)
	Remember(ctx context.Context, scope, key, resourceID string, status int) error
}

//
// Handler wiring
//

// Handlers groups the scheduler endpoints.
type Handlers struct {
	schedules ScheduleService
	resolver  Resolver
	archiver  Archiver
	receipts  ReceiptService
	ledger    LedgerService
	idem      IdempotencyStore
	now       func() time.Time
}

// New constructs Handlers. idem may be nil to disable archive replays.
func New(schedules ScheduleService, resolver Resolver, archiver Archiver, receipts ReceiptService, ledger LedgerService, idem IdempotencyStore) *Handlers {
	return &Handlers{
		schedules: schedules,
		resolver:  resolver,
		archiver:  archiver,
		receipts:  receipts,
		ledger:    ledger,
		idem:      idem,
		now:       time.Now,
	}
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

func newPagination(page, pageSize int, total int64) Pagination {
	totalPages := utils.PageCount(total, pageSize)
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

// clampPagination parses and bounds page and page_size query params.
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
	pageSize = utils.ClampInt(utils.AtoiDefault(c.Query("page_size"), defaultPageSize), 1, maxPageSize)
	return
}
