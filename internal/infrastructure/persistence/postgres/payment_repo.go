package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/pem-hub/pem-payments-hub/internal/domain/participant"
	"github.com/pem-hub/pem-payments-hub/internal/domain/payment"
	"github.com/pem-hub/pem-payments-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PAYMENT RECORD REPOSITORY (reads)
// ══════════════════════════════════════════════════════════════════════════════

// PaymentRepository implements payment.Repository using PostgreSQL.
// Writes go through BatchCommitter exclusively.
type PaymentRepository struct {
	conn *Connection
}

// NewPaymentRepository creates a new payment repository.
func NewPaymentRepository(conn *Connection) *PaymentRepository {
	return &PaymentRepository{conn: conn}
}

const paymentColumns = `
	id, participant_id, national_id, amount, period_month, period_year,
	program, category, upload_id, uploaded_by, created_at
`

// GetByPeriodProgram returns the payments of one period and program.
func (r *PaymentRepository) GetByPeriodProgram(ctx context.Context, period shared.Period, program participant.Program) ([]*payment.Record, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM payment_records
		WHERE period_month = $1 AND period_year = $2 AND program = $3
		ORDER BY national_id
	`, paymentColumns)

	rows, err := r.conn.Query(ctx, query, period.Month, period.Year, program.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query payments by period: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// GetPaidNationalIDs returns the set of national IDs with a confirmed payment
// for one period and program.
func (r *PaymentRepository) GetPaidNationalIDs(ctx context.Context, period shared.Period, program participant.Program) (map[shared.NationalID]struct{}, error) {
	query := `
		SELECT DISTINCT national_id FROM payment_records
		WHERE period_month = $1 AND period_year = $2 AND program = $3
	`

	rows, err := r.conn.Query(ctx, query, period.Month, period.Year, program.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query paid national IDs: %w", err)
	}
	defer rows.Close()

	paid := make(map[shared.NationalID]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan national ID: %w", err)
		}
		paid[shared.NationalID(id)] = struct{}{}
	}
	return paid, rows.Err()
}

// GetByUpload returns the payments created by one upload batch.
func (r *PaymentRepository) GetByUpload(ctx context.Context, uploadID string) ([]*payment.Record, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM payment_records WHERE upload_id = $1 ORDER BY national_id",
		paymentColumns,
	)

	rows, err := r.conn.Query(ctx, query, uploadID)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments by upload: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// GetByParticipant returns the payment history of one participant.
func (r *PaymentRepository) GetByParticipant(ctx context.Context, participantID string) ([]*payment.Record, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM payment_records
		WHERE participant_id = $1
		ORDER BY period_year DESC, period_month DESC
	`, paymentColumns)

	rows, err := r.conn.Query(ctx, query, participantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments by participant: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

func scanRecords(rows pgx.Rows) ([]*payment.Record, error) {
	var out []*payment.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment row: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanRecord(row pgx.Row) (*payment.Record, error) {
	var (
		rec         payment.Record
		nationalID  string
		amount      decimal.Decimal
		month, year int
		program     string
	)

	err := row.Scan(
		&rec.ID,
		&rec.ParticipantID,
		&nationalID,
		&amount,
		&month,
		&year,
		&program,
		&rec.Category,
		&rec.UploadID,
		&rec.UploadedBy,
		&rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.NationalID = shared.NationalID(nationalID)
	rec.Amount = amount
	rec.Period = shared.Period{Month: month, Year: year}
	rec.Program = participant.Program(program)
	return &rec, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// NOVELTY REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// NoveltyRepository implements payment.NoveltyRepository plus the append
// operation used by administrative deactivation.
type NoveltyRepository struct {
	conn *Connection
}

// NewNoveltyRepository creates a new novelty repository.
func NewNoveltyRepository(conn *Connection) *NoveltyRepository {
	return &NoveltyRepository{conn: conn}
}

const noveltyColumns = `
	id, participant_id, type, description, period_month, period_year, program, created_at
`

// Append stores a new novelty outside a reconciliation batch.
func (r *NoveltyRepository) Append(ctx context.Context, n *payment.Novelty) error {
	if !n.Type.IsValid() {
		return shared.ErrInvalidInput
	}

	_, err := r.conn.Exec(ctx, `
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
		return fmt.Errorf("failed to append novelty: %w", err)
	}
	return nil
}

// GetByParticipant returns the novelties of one participant.
func (r *NoveltyRepository) GetByParticipant(ctx context.Context, participantID string) ([]*payment.Novelty, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM novelties WHERE participant_id = $1 ORDER BY created_at DESC",
		noveltyColumns,
	)

	rows, err := r.conn.Query(ctx, query, participantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query novelties by participant: %w", err)
	}
	defer rows.Close()

	return scanNovelties(rows)
}

// GetByPeriodProgram returns the novelties of one period and program,
// optionally filtered by type.
func (r *NoveltyRepository) GetByPeriodProgram(ctx context.Context, period shared.Period, program participant.Program, noveltyType payment.NoveltyType) ([]*payment.Novelty, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM novelties
		WHERE period_month = $1 AND period_year = $2 AND program = $3
	`, noveltyColumns)
	args := []interface{}{period.Month, period.Year, program.String()}

	if noveltyType != "" {
		query += " AND type = $4"
		args = append(args, string(noveltyType))
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query novelties by period: %w", err)
	}
	defer rows.Close()

	return scanNovelties(rows)
}

func scanNovelties(rows pgx.Rows) ([]*payment.Novelty, error) {
	var out []*payment.Novelty
	for rows.Next() {
		var (
			n           payment.Novelty
			ntype       string
			month, year int
			program     string
		)
		err := rows.Scan(
			&n.ID,
			&n.ParticipantID,
			&ntype,
			&n.Description,
			&month,
			&year,
			&program,
			&n.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan novelty row: %w", err)
		}
		n.Type = payment.NoveltyType(ntype)
		n.Period = shared.Period{Month: month, Year: year}
		n.Program = participant.Program(program)
		out = append(out, &n)
	}
	return out, rows.Err()
}

// ══════════════════════════════════════════════════════════════════════════════
// UPLOAD HISTORY REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// UploadRepository implements payment.UploadRepository using PostgreSQL.
type UploadRepository struct {
	conn *Connection
}

// NewUploadRepository creates a new upload repository.
func NewUploadRepository(conn *Connection) *UploadRepository {
	return &UploadRepository{conn: conn}
}

const uploadColumns = `
	id, period_month, period_year, program, uploaded_by,
	regulars, news, absents, processed_ids, reversed, reversed_at, created_at
`

// GetByID returns an upload by ID.
func (r *UploadRepository) GetByID(ctx context.Context, id string) (*payment.Upload, error) {
	query := fmt.Sprintf("SELECT %s FROM uploads WHERE id = $1", uploadColumns)

	up, err := scanUpload(r.conn.QueryRow(ctx, query, id))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrUploadNotFound
		}
		return nil, fmt.Errorf("failed to scan upload: %w", err)
	}
	return up, nil
}

// GetByPeriodProgram returns the uploads of one period and program.
func (r *UploadRepository) GetByPeriodProgram(ctx context.Context, period shared.Period, program participant.Program) ([]*payment.Upload, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM uploads
		WHERE period_month = $1 AND period_year = $2 AND program = $3
		ORDER BY created_at DESC
	`, uploadColumns)

	rows, err := r.conn.Query(ctx, query, period.Month, period.Year, program.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query uploads by period: %w", err)
	}
	defer rows.Close()

	return scanUploads(rows)
}

// List returns upload history, newest first.
func (r *UploadRepository) List(ctx context.Context, limit int) ([]*payment.Upload, error) {
	query := fmt.Sprintf("SELECT %s FROM uploads ORDER BY created_at DESC LIMIT $1", uploadColumns)

	rows, err := r.conn.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query upload history: %w", err)
	}
	defer rows.Close()

	return scanUploads(rows)
}

func scanUploads(rows pgx.Rows) ([]*payment.Upload, error) {
	var out []*payment.Upload
	for rows.Next() {
		up, err := scanUpload(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan upload row: %w", err)
		}
		out = append(out, up)
	}
	return out, rows.Err()
}

func scanUpload(row pgx.Row) (*payment.Upload, error) {
	var (
		up           payment.Upload
		month, year  int
		program      string
		processedRaw []byte
		reversedAt   *time.Time
	)

	err := row.Scan(
		&up.ID,
		&month,
		&year,
		&program,
		&up.UploadedBy,
		&up.Regulars,
		&up.News,
		&up.Absents,
		&processedRaw,
		&up.Reversed,
		&reversedAt,
		&up.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	up.Period = shared.Period{Month: month, Year: year}
	up.Program = participant.Program(program)
	if reversedAt != nil {
		up.ReversedAt = *reversedAt
	}
	if err := json.Unmarshal(processedRaw, &up.ProcessedIDs); err != nil {
		return nil, fmt.Errorf("failed to decode processed IDs: %w", err)
	}
	return &up, nil
}
