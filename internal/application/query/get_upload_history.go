package query

import (
	"context"

	"github.com/pem-hub/pem-payments-hub/internal/domain/participant"
	"github.com/pem-hub/pem-payments-hub/internal/domain/payment"
	"github.com/pem-hub/pem-payments-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// UPLOAD HISTORY QUERY
// ══════════════════════════════════════════════════════════════════════════════

// GetUploadHistoryQuery filters the reconciliation history.
type GetUploadHistoryQuery struct {
	// Limit caps the result; 0 uses the default.
	Limit int

	// Period/Program filter to one period and program; both zero lists all.
	Month   int
	Year    int
	Program participant.Program
}

// DefaultHistoryLimit bounds unfiltered listings.
const DefaultHistoryLimit = 50

// GetUploadHistoryHandler handles the query.
type GetUploadHistoryHandler struct {
	uploads payment.UploadRepository
}

// NewGetUploadHistoryHandler creates the handler.
func NewGetUploadHistoryHandler(uploads payment.UploadRepository) *GetUploadHistoryHandler {
	return &GetUploadHistoryHandler{uploads: uploads}
}

// Handle lists upload records, most recent first.
func (h *GetUploadHistoryHandler) Handle(ctx context.Context, q GetUploadHistoryQuery) ([]*payment.Upload, error) {
	if q.Month != 0 || q.Year != 0 {
		period, err := shared.NewPeriod(q.Month, q.Year)
		if err != nil {
			return nil, err
		}
		if !q.Program.IsValid() {
			return nil, shared.ErrInvalidProgram
		}
		return h.uploads.GetByPeriodProgram(ctx, period, q.Program)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return h.uploads.List(ctx, limit)
}
