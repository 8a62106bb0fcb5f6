package command

import (
	"context"
	"time"

	"github.com/pem-hub/pem-payments-hub/internal/domain/payment"
	"github.com/pem-hub/pem-payments-hub/internal/domain/shared"
	"github.com/pem-hub/pem-payments-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// REVERSE UPLOAD COMMAND
// Undoes a previously committed reconciliation batch: deletes its payment
// records, decrements counters, removes the POSIBLE_BAJA novelties it raised
// and reverts absence statuses that are still consistent with the batch.
// ══════════════════════════════════════════════════════════════════════════════

// ReverseUploadCommand identifies the batch to reverse.
type ReverseUploadCommand struct {
	UploadID string
}

// Validate validates the command.
func (c ReverseUploadCommand) Validate() error {
	if c.UploadID == "" {
		return shared.ErrInvalidID
	}
	return nil
}

// ReverseUploadResult summarizes the reversal.
type ReverseUploadResult struct {
	UploadID        string
	PaymentsDeleted int
	AbsencesCleared int
	ReversedAt      time.Time
}

// ReverseUploadHandler handles the ReverseUploadCommand.
type ReverseUploadHandler struct {
	uploads   payment.UploadRepository
	payments  payment.Repository
	novelties payment.NoveltyRepository
	writer    payment.BatchWriter
	publisher shared.EventPublisher
	log       *logger.Logger
}

// NewReverseUploadHandler creates the handler.
func NewReverseUploadHandler(
	uploads payment.UploadRepository,
	payments payment.Repository,
	novelties payment.NoveltyRepository,
	writer payment.BatchWriter,
	publisher shared.EventPublisher,
	log *logger.Logger,
) *ReverseUploadHandler {
	if publisher == nil {
		publisher = shared.NopPublisher{}
	}
	if log == nil {
		log = logger.Default()
	}
	return &ReverseUploadHandler{
		uploads:   uploads,
		payments:  payments,
		novelties: novelties,
		writer:    writer,
		publisher: publisher,
		log:       log.With(logger.Component("reversal")),
	}
}

// Handle builds and submits the reversal batch. Counters decrement only for
// participants whose payment record from this batch still exists; absence
// statuses revert only where the participant still shows the absence this
// batch flagged (an unrelated later change is left untouched).
func (h *ReverseUploadHandler) Handle(ctx context.Context, cmd ReverseUploadCommand) (*ReverseUploadResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	upload, err := h.uploads.GetByID(ctx, cmd.UploadID)
	if err != nil {
		return nil, err
	}
	if upload.Reversed {
		return nil, shared.WrapError("payment", "Reverse", shared.ErrAlreadyApplied,
			"upload already reversed", nil)
	}

	records, err := h.payments.GetByUpload(ctx, cmd.UploadID)
	if err != nil {
		return nil, err
	}

	// Paid set of the period before the batch, to restitute last-paid markers.
	priorPaid, err := h.payments.GetPaidNationalIDs(ctx, upload.Period.Prev(), upload.Program)
	if err != nil {
		return nil, err
	}

	rb := &payment.ReversalBatch{Upload: upload, ReversedAt: time.Now().UTC()}
	for _, rec := range records {
		rb.PaymentIDs = append(rb.PaymentIDs, rec.ID)

		dec := payment.CounterDecrement{ParticipantID: rec.ParticipantID}
		if _, ok := priorPaid[rec.NationalID]; ok {
			dec.PreviousPaidPeriod = upload.Period.Prev()
		}
		rb.Decrements = append(rb.Decrements, dec)
	}

	novelties, err := h.novelties.GetByPeriodProgram(ctx, upload.Period, upload.Program, payment.NoveltyPosibleBaja)
	if err != nil {
		return nil, err
	}
	for _, n := range novelties {
		rb.AbsenceReverts = append(rb.AbsenceReverts, n.ParticipantID)
	}

	if err := h.writer.Reverse(ctx, rb); err != nil {
		return nil, shared.WrapError("payment", "Reverse", shared.ErrBatchRejected,
			"reversal was not applied", err)
	}

	h.publisher.Publish(shared.NewEvent(shared.EventBatchReversed, upload.ID, map[string]interface{}{
		"period":   upload.Period.String(),
		"program":  upload.Program.String(),
		"payments": len(rb.PaymentIDs),
	}))

	h.log.Info("lote revertido",
		logger.UploadID(upload.ID),
		logger.Period(upload.Period.String()),
		logger.Int("payments_deleted", len(rb.PaymentIDs)),
		logger.Int("absences_cleared", len(rb.AbsenceReverts)))

	return &ReverseUploadResult{
		UploadID:        upload.ID,
		PaymentsDeleted: len(rb.PaymentIDs),
		AbsencesCleared: len(rb.AbsenceReverts),
		ReversedAt:      rb.ReversedAt,
	}, nil
}
