package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pem-hub/pem-payments-hub/internal/domain/participant"
	"github.com/pem-hub/pem-payments-hub/internal/domain/payment"
	"github.com/pem-hub/pem-payments-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ATOMIC BATCH WRITER
// Implements payment.BatchWriter: one reconciliation unit is one transaction.
// Either every write in the unit lands or none does.
// ══════════════════════════════════════════════════════════════════════════════

// BatchCommitter is the PostgreSQL implementation of payment.BatchWriter.
type BatchCommitter struct {
	conn   *Connection
	maxOps int
}

// NewBatchCommitter creates a batch committer. maxOps is the practical limit
// per atomic unit; 0 means unbounded.
func NewBatchCommitter(conn *Connection, maxOps int) *BatchCommitter {
	return &BatchCommitter{conn: conn, maxOps: maxOps}
}

// MaxBatchOps returns the per-unit operation limit.
func (c *BatchCommitter) MaxBatchOps() int {
	return c.maxOps
}

// Commit applies one unit as a single transaction.
func (c *BatchCommitter) Commit(ctx context.Context, batch *payment.CommitBatch) error {
	if c.maxOps > 0 && batch.TotalOps() > c.maxOps {
		return shared.WrapError("payment", "Commit", shared.ErrBatchTooLarge,
			fmt.Sprintf("batch has %d ops, limit is %d", batch.TotalOps(), c.maxOps), nil)
	}

	err := c.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		for _, w := range batch.Payments {
			if err := updateParticipant(ctx, tx, w.Participant); err != nil {
				return err
			}
			if err := insertRecord(ctx, tx, w.Record); err != nil {
				return err
			}
		}
		for _, w := range batch.Absences {
			if err := updateParticipant(ctx, tx, w.Participant); err != nil {
				return err
			}
			if err := insertNovelty(ctx, tx, w.Novelty); err != nil {
				return err
			}
		}
		if batch.Upload != nil {
			if err := insertUpload(ctx, tx, batch.Upload); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrDuplicatePayment
		}
		if isDomainErr(err) {
			return err
		}
		return shared.WrapError("payment", "Commit", shared.ErrBatchRejected,
			"batch transaction failed", err)
	}
	return nil
}

// Reverse undoes an applied batch in a single transaction. Absence reverts are
// conditional: the participant is restored to active only while its state is
// still the one this batch left behind.
func (c *BatchCommitter) Reverse(ctx context.Context, batch *payment.ReversalBatch) error {
	up := batch.Upload
	period := up.Period

	err := c.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		if len(batch.PaymentIDs) > 0 {
			if _, err := tx.Exec(ctx,
				"DELETE FROM payment_records WHERE id = ANY($1)",
				batch.PaymentIDs,
			); err != nil {
				return fmt.Errorf("failed to delete payment records: %w", err)
			}
		}

		// POSIBLE_BAJA novelties of the reversed period and program go away
		// with the batch that created them.
		if _, err := tx.Exec(ctx, `
			DELETE FROM novelties
			WHERE period_month = $1 AND period_year = $2 AND program = $3 AND type = $4
		`,
			period.Month, period.Year, up.Program.String(), string(payment.NoveltyPosibleBaja),
		); err != nil {
			return fmt.Errorf("failed to delete absence novelties: %w", err)
		}

		for _, dec := range batch.Decrements {
			if _, err := tx.Exec(ctx, `
				UPDATE participants SET
					payment_count = GREATEST(payment_count - 1, 0),
					last_paid_month = $2,
					last_paid_year = $3,
					updated_at = $4
				WHERE id = $1
			`,
				dec.ParticipantID,
				dec.PreviousPaidPeriod.Month,
				dec.PreviousPaidPeriod.Year,
				batch.ReversedAt,
			); err != nil {
				return fmt.Errorf("failed to decrement payment counter: %w", err)
			}
		}

		for _, id := range batch.AbsenceReverts {
			if _, err := tx.Exec(ctx, `
				UPDATE participants SET
					status = $2,
					absence_month = 0,
					absence_year = 0,
					updated_at = $3
				WHERE id = $1
					AND status = $4
					AND absence_month = $5
					AND absence_year = $6
			`,
				id,
				string(participant.StatusActivo),
				batch.ReversedAt,
				string(participant.StatusRequiereAtencion),
				period.Month,
				period.Year,
			); err != nil {
				return fmt.Errorf("failed to revert absence state: %w", err)
			}
		}

		tag, err := tx.Exec(ctx,
			"UPDATE uploads SET reversed = TRUE, reversed_at = $2 WHERE id = $1 AND reversed = FALSE",
			up.ID, batch.ReversedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to mark upload reversed: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrAlreadyApplied
		}
		return nil
	})
	if err != nil {
		if isDomainErr(err) {
			return err
		}
		return shared.WrapError("payment", "Reverse", shared.ErrBatchRejected,
			"reversal transaction failed", err)
	}
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Per-entity writes inside the transaction
// ──────────────────────────────────────────────────────────────────────────────

func updateParticipant(ctx context.Context, tx pgx.Tx, p *participant.Participant) error {
	tag, err := tx.Exec(ctx, `
		UPDATE participants SET
			category = $2, payment_count = $3,
			last_paid_month = $4, last_paid_year = $5,
			active = $6, status = $7,
			absence_month = $8, absence_year = $9,
			enrollment_act = $10, updated_at = $11
		WHERE id = $1
	`,
		p.ID,
		p.Category,
		p.PaymentCount,
		p.LastPaidPeriod.Month,
		p.LastPaidPeriod.Year,
		p.Active,
		string(p.Status),
		p.AbsencePeriod.Month,
		p.AbsencePeriod.Year,
		p.EnrollmentAct.String(),
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update participant %s: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrParticipantNotFound
	}
	return nil
}

func insertRecord(ctx context.Context, tx pgx.Tx, rec *payment.Record) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO payment_records (
			id, participant_id, national_id, amount, period_month, period_year,
			program, category, upload_id, uploaded_by, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		rec.ID,
		rec.ParticipantID,
		rec.NationalID.String(),
		rec.Amount,
		rec.Period.Month,
		rec.Period.Year,
		rec.Program.String(),
		rec.Category,
		rec.UploadID,
		rec.UploadedBy,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert payment record: %w", err)
	}
	return nil
}

func insertNovelty(ctx context.Context, tx pgx.Tx, n *payment.Novelty) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO novelties (
			id, participant_id, type, description,
			period_month, period_year, program, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		n.ID,
		n.ParticipantID,
		string(n.Type),
		n.Description,
		n.Period.Month,
		n.Period.Year,
		n.Program.String(),
		n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert novelty: %w", err)
	}
	return nil
}

func insertUpload(ctx context.Context, tx pgx.Tx, up *payment.Upload) error {
	processedJSON, err := json.Marshal(up.ProcessedIDs)
	if err != nil {
		return fmt.Errorf("failed to encode processed IDs: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO uploads (
			id, period_month, period_year, program, uploaded_by,
			regulars, news, absents, processed_ids, reversed, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, FALSE, $10)
	`,
		up.ID,
		up.Period.Month,
		up.Period.Year,
		up.Program.String(),
		up.UploadedBy,
		up.Regulars,
		up.News,
		up.Absents,
		processedJSON,
		up.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert upload record: %w", err)
	}
	return nil
}

func isDomainErr(err error) bool {
	return shared.IsNotFound(err) ||
		shared.IsAlreadyExists(err) ||
		shared.IsStoreFailure(err) ||
		shared.IsValidation(err) ||
		errors.Is(err, shared.ErrAlreadyApplied)
}
