// Package command contains write operations (CQRS - Commands).
// Commands are responsible for changing the state of the system. The core
// command is RunReconciliation: it takes a raw payment file and applies the
// resulting participant mutations, payment records and absence novelties as
// one atomic batch.
package command

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pem-hub/pem-payments-hub/internal/domain/participant"
	"github.com/pem-hub/pem-payments-hub/internal/domain/payment"
	"github.com/pem-hub/pem-payments-hub/internal/domain/pricing"
	"github.com/pem-hub/pem-payments-hub/internal/domain/reconciliation"
	"github.com/pem-hub/pem-payments-hub/internal/domain/shared"
	"github.com/pem-hub/pem-payments-hub/pkg/logger"
	"github.com/pem-hub/pem-payments-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// RUN RECONCILIATION COMMAND
// One human action triggers one sequential pipeline:
// normalize -> resolve config -> classify -> commit.
// ══════════════════════════════════════════════════════════════════════════════

// RunReconciliationCommand contains the input for one reconciliation run.
type RunReconciliationCommand struct {
	// RawText is the delimited payment file content.
	RawText string

	// Month and Year identify the target period.
	Month int
	Year  int

	// Program is the target program for the file.
	Program participant.Program

	// UploadedBy identifies the user who triggered the run.
	UploadedBy string

	// Act is the authorizing act stamped on newly classified participants.
	// Optional.
	Act shared.ActReference
}

// Validate validates the command.
func (c RunReconciliationCommand) Validate() error {
	if _, err := shared.NewPeriod(c.Month, c.Year); err != nil {
		return err
	}
	if !c.Program.IsValid() {
		return shared.ErrInvalidProgram
	}
	if c.RawText == "" {
		return fmt.Errorf("run_reconciliation: %w: empty file", shared.ErrEmptyValue)
	}
	if c.UploadedBy == "" {
		return fmt.Errorf("run_reconciliation: %w: uploader", shared.ErrEmptyValue)
	}
	return nil
}

// RunReconciliationResult is the summary returned to the caller for display.
type RunReconciliationResult struct {
	UploadID string
	Period   shared.Period
	Program  participant.Program

	Regulars int
	News     int
	Absents  int

	// Chunks is the number of atomic units the batch was split into.
	// Greater than one means cross-chunk atomicity was not guaranteed.
	Chunks int

	CommittedAt time.Time
}

// RunReconciliationHandler handles the RunReconciliationCommand.
type RunReconciliationHandler struct {
	participants participant.Repository
	payments     payment.Repository
	resolver     *pricing.Resolver
	writer       payment.BatchWriter
	publisher    shared.EventPublisher
	retrier      *retry.Retrier
	log          *logger.Logger
}

// NewRunReconciliationHandler creates the handler.
func NewRunReconciliationHandler(
	participants participant.Repository,
	payments payment.Repository,
	resolver *pricing.Resolver,
	writer payment.BatchWriter,
	publisher shared.EventPublisher,
	log *logger.Logger,
) *RunReconciliationHandler {
	if publisher == nil {
		publisher = shared.NopPublisher{}
	}
	if log == nil {
		log = logger.Default()
	}
	return &RunReconciliationHandler{
		participants: participants,
		payments:     payments,
		resolver:     resolver,
		writer:       writer,
		publisher:    publisher,
		retrier: retry.New(
			retry.WithMaxAttempts(3),
			retry.WithRetryIf(shared.IsStoreFailure),
		),
		log: log.With(logger.Component("reconciliation")),
	}
}

// Handle runs the full pipeline. Blocking conditions (unknown identifiers,
// duplicates, uncategorized amounts) are returned as a *reconciliation.BlockReport
// error with the itemized detail; no writes happen in that case. Once the
// commit starts there is no cancellation: the pipeline runs to completion or
// reports total failure, and the caller must retry from classification.
func (h *RunReconciliationHandler) Handle(ctx context.Context, cmd RunReconciliationCommand) (*RunReconciliationResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	period, _ := shared.NewPeriod(cmd.Month, cmd.Year)

	log := h.log.With(
		logger.Period(period.String()),
		logger.Program(cmd.Program.String()),
	)

	records := reconciliation.Normalize(cmd.RawText)
	if len(records) == 0 {
		return nil, fmt.Errorf("run_reconciliation: %w: no valid records in file", shared.ErrInvalidInput)
	}
	log.Info("archivo normalizado", logger.RecordCount(len(records)))

	// Pricing cache is refreshed between runs, never during one.
	if err := h.resolver.Refresh(ctx); err != nil {
		return nil, shared.WrapError("reconciliation", "Refresh", shared.ErrStoreUnavailable,
			"could not refresh pricing configurations", err)
	}

	registry, priorPaid, err := h.fetchInputs(ctx, period, cmd.Program)
	if err != nil {
		return nil, err
	}

	table, err := h.categoryTable(ctx, period, cmd.Program)
	if err != nil {
		return nil, err
	}

	classifier := reconciliation.NewClassifier(registry, priorPaid)
	classification := classifier.Classify(records, table)

	if report := reconciliation.BuildBlockReport(classification); report.Blocked() {
		log.Warn("conciliación bloqueada",
			logger.Int("unknown", len(report.UnknownIDs)),
			logger.Int("duplicates", len(report.DuplicateIDs)),
			logger.Int("category_issues", len(report.CategoryIssues)))
		return nil, report
	}

	batch := h.buildBatch(classification, period, cmd)

	chunks := batch.Split(h.writer.MaxBatchOps())
	for i, chunk := range chunks {
		if err := h.writer.Commit(ctx, chunk); err != nil {
			if i > 0 {
				// Earlier chunks are already applied: the documented
				// consistency gap of multi-unit commits.
				log.Error("fallo parcial entre unidades atómicas",
					logger.Int("applied_chunks", i),
					logger.Int("total_chunks", len(chunks)),
					logger.Err(err))
			}
			return nil, shared.WrapError("reconciliation", "Commit", shared.ErrBatchRejected,
				"batch was not applied", err)
		}
	}

	regulars, news, absents, _ := classification.Counts()
	result := &RunReconciliationResult{
		UploadID:    batch.Upload.ID,
		Period:      period,
		Program:     cmd.Program,
		Regulars:    regulars,
		News:        news,
		Absents:     absents,
		Chunks:      len(chunks),
		CommittedAt: batch.Upload.CreatedAt,
	}

	h.publisher.Publish(shared.NewEvent(shared.EventBatchCommitted, batch.Upload.ID, map[string]interface{}{
		"period":   period.String(),
		"program":  cmd.Program.String(),
		"regulars": regulars,
		"news":     news,
		"absents":  absents,
		"chunks":   len(chunks),
	}))
	for _, absent := range classification.Absent {
		h.publisher.Publish(shared.NewEvent(shared.EventAbsenceFlagged, absent.ID, map[string]interface{}{
			"period":      period.String(),
			"program":     cmd.Program.String(),
			"national_id": absent.NationalID.String(),
		}))
	}

	log.Info("conciliación aplicada",
		logger.UploadID(result.UploadID),
		logger.Int("regulars", regulars),
		logger.Int("news", news),
		logger.Int("absents", absents),
		logger.Int("chunks", len(chunks)))
	return result, nil
}

// fetchInputs issues the two read-only store queries concurrently: the
// program-restricted registry and the prior-period paid set. The pipeline
// does not proceed until both have resolved.
func (h *RunReconciliationHandler) fetchInputs(ctx context.Context, period shared.Period, program participant.Program) ([]*participant.Participant, map[shared.NationalID]struct{}, error) {
	var (
		wg        sync.WaitGroup
		registry  []*participant.Participant
		priorPaid map[shared.NationalID]struct{}
		regErr    error
		paidErr   error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		regErr = h.retrier.Do(ctx, func(ctx context.Context) error {
			var err error
			registry, err = h.participants.GetByProgram(ctx, program)
			return err
		})
	}()
	go func() {
		defer wg.Done()
		paidErr = h.retrier.Do(ctx, func(ctx context.Context) error {
			var err error
			priorPaid, err = h.payments.GetPaidNationalIDs(ctx, period.Prev(), program)
			return err
		})
	}()
	wg.Wait()

	if regErr != nil {
		return nil, nil, shared.WrapError("reconciliation", "FetchRegistry", shared.ErrStoreUnavailable,
			"could not load participant registry", regErr)
	}
	if paidErr != nil {
		return nil, nil, shared.WrapError("reconciliation", "FetchPriorPaid", shared.ErrStoreUnavailable,
			"could not load prior period payments", paidErr)
	}
	return registry, priorPaid, nil
}

// categoryTable resolves the pricing configuration and builds the
// amount-to-category table. Fixed-amount programs get the null table. A
// missing configuration for the tutoring program does not fail here: it
// surfaces per-record as a blocking condition.
func (h *RunReconciliationHandler) categoryTable(ctx context.Context, period shared.Period, program participant.Program) (*reconciliation.CategoryTable, error) {
	if !program.HasCategories() {
		return reconciliation.NoCategories(), nil
	}

	cfg, err := h.resolver.Resolve(ctx, period)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return reconciliation.NewCategoryTable(nil), nil
		}
		return nil, err
	}
	return reconciliation.NewCategoryTable(cfg), nil
}

// buildBatch materializes the classification into one commit batch: every
// regular/new record increments the participant counter by exactly one and
// creates an immutable payment record; every absence flags the participant
// and appends a POSIBLE_BAJA novelty; exactly one upload summary is added.
func (h *RunReconciliationHandler) buildBatch(cl *reconciliation.Classification, period shared.Period, cmd RunReconciliationCommand) *payment.CommitBatch {
	now := time.Now().UTC()
	uploadID := uuid.NewString()

	batch := &payment.CommitBatch{Period: period, Program: cmd.Program}

	appendPayment := func(rec reconciliation.ClassifiedRecord, isNew bool) {
		p := rec.Participant
		p.RegisterPayment(period)
		if rec.Category.Category != "" {
			p.AssignCategory(rec.Category.Category)
		}
		if isNew && !cmd.Act.IsZero() {
			p.EnrollmentAct = cmd.Act
		}

		batch.Payments = append(batch.Payments, payment.PaymentWrite{
			Participant: p,
			Record: &payment.Record{
				ID:            uuid.NewString(),
				ParticipantID: p.ID,
				NationalID:    p.NationalID,
				Amount:        rec.Raw.Amount,
				Period:        period,
				Program:       cmd.Program,
				Category:      rec.Category.Category,
				UploadID:      uploadID,
				UploadedBy:    cmd.UploadedBy,
				CreatedAt:     now,
			},
		})
	}

	for _, rec := range cl.Regular {
		appendPayment(rec, false)
	}
	for _, rec := range cl.New {
		appendPayment(rec, true)
	}

	for _, absent := range cl.Absent {
		absent.FlagAbsence(period)
		batch.Absences = append(batch.Absences, payment.AbsenceWrite{
			Participant: absent,
			Novelty: &payment.Novelty{
				ID:            uuid.NewString(),
				ParticipantID: absent.ID,
				Type:          payment.NoveltyPosibleBaja,
				Description:   fmt.Sprintf("Sin pago en el archivo del período %s", period),
				Period:        period,
				Program:       cmd.Program,
				CreatedAt:     now,
			},
		})
	}

	processed := make([]string, 0, len(batch.Payments))
	for _, w := range batch.Payments {
		processed = append(processed, w.Record.NationalID.String())
	}

	regulars, news, absents, _ := cl.Counts()
	batch.Upload = &payment.Upload{
		ID:           uploadID,
		Period:       period,
		Program:      cmd.Program,
		UploadedBy:   cmd.UploadedBy,
		Regulars:     regulars,
		News:         news,
		Absents:      absents,
		ProcessedIDs: processed,
		CreatedAt:    now,
	}
	return batch
}
