package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/pem-hub/pem-payments-hub/internal/domain/participant"
	"github.com/pem-hub/pem-payments-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PARTICIPANT REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// ParticipantRepository implements participant.Repository using PostgreSQL.
type ParticipantRepository struct {
	conn *Connection
}

// NewParticipantRepository creates a new participant repository.
func NewParticipantRepository(conn *Connection) *ParticipantRepository {
	return &ParticipantRepository{conn: conn}
}

const participantColumns = `
	id, full_name, national_id, birth_date, program, category,
	payment_count, last_paid_month, last_paid_year,
	active, status, absence_month, absence_year,
	is_staff, enrollment_act, created_at, updated_at
`

// Create inserts a new participant.
func (r *ParticipantRepository) Create(ctx context.Context, p *participant.Participant) error {
	if err := p.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO participants (
			id, full_name, national_id, birth_date, program, category,
			payment_count, last_paid_month, last_paid_year,
			active, status, absence_month, absence_year,
			is_staff, enrollment_act, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	_, err := r.conn.Exec(ctx, query,
		p.ID,
		p.FullName,
		p.NationalID.String(),
		nullableDate(p.BirthDate),
		p.Program.String(),
		p.Category,
		p.PaymentCount,
		p.LastPaidPeriod.Month,
		p.LastPaidPeriod.Year,
		p.Active,
		string(p.Status),
		p.AbsencePeriod.Month,
		p.AbsencePeriod.Year,
		p.IsStaff,
		p.EnrollmentAct.String(),
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrParticipantAlreadyExists
		}
		return fmt.Errorf("failed to create participant: %w", err)
	}
	return nil
}

// GetByID returns a participant by internal ID.
func (r *ParticipantRepository) GetByID(ctx context.Context, id string) (*participant.Participant, error) {
	query := fmt.Sprintf("SELECT %s FROM participants WHERE id = $1", participantColumns)
	return r.scanOne(r.conn.QueryRow(ctx, query, id))
}

// GetByNationalID returns a participant by canonical national ID.
func (r *ParticipantRepository) GetByNationalID(ctx context.Context, nationalID shared.NationalID) (*participant.Participant, error) {
	query := fmt.Sprintf("SELECT %s FROM participants WHERE national_id = $1", participantColumns)
	return r.scanOne(r.conn.QueryRow(ctx, query, nationalID.String()))
}

// Update persists changes to an existing participant.
func (r *ParticipantRepository) Update(ctx context.Context, p *participant.Participant) error {
	if err := p.Validate(); err != nil {
		return err
	}

	query := `
		UPDATE participants SET
			full_name = $2, national_id = $3, birth_date = $4, program = $5,
			category = $6, payment_count = $7, last_paid_month = $8,
			last_paid_year = $9, active = $10, status = $11,
			absence_month = $12, absence_year = $13, is_staff = $14,
			enrollment_act = $15, updated_at = $16
		WHERE id = $1
	`

	tag, err := r.conn.Exec(ctx, query,
		p.ID,
		p.FullName,
		p.NationalID.String(),
		nullableDate(p.BirthDate),
		p.Program.String(),
		p.Category,
		p.PaymentCount,
		p.LastPaidPeriod.Month,
		p.LastPaidPeriod.Year,
		p.Active,
		string(p.Status),
		p.AbsencePeriod.Month,
		p.AbsencePeriod.Year,
		p.IsStaff,
		p.EnrollmentAct.String(),
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to update participant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrParticipantNotFound
	}
	return nil
}

// GetByProgram returns the full registry restricted to one program.
func (r *ParticipantRepository) GetByProgram(ctx context.Context, program participant.Program) ([]*participant.Participant, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM participants WHERE program = $1 ORDER BY full_name",
		participantColumns,
	)

	rows, err := r.conn.Query(ctx, query, program.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query participants by program: %w", err)
	}
	defer rows.Close()

	return r.scanAll(rows)
}

// GetAll returns the full registry across programs.
func (r *ParticipantRepository) GetAll(ctx context.Context) ([]*participant.Participant, error) {
	query := fmt.Sprintf("SELECT %s FROM participants ORDER BY program, full_name", participantColumns)

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query participants: %w", err)
	}
	defer rows.Close()

	return r.scanAll(rows)
}

// CountByProgram returns the number of participants in a program.
func (r *ParticipantRepository) CountByProgram(ctx context.Context, program participant.Program) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx,
		"SELECT COUNT(*) FROM participants WHERE program = $1",
		program.String(),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count participants: %w", err)
	}
	return count, nil
}

// ExistsByNationalID checks existence by national ID.
func (r *ParticipantRepository) ExistsByNationalID(ctx context.Context, nationalID shared.NationalID) (bool, error) {
	var exists bool
	err := r.conn.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM participants WHERE national_id = $1)",
		nationalID.String(),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check participant existence: %w", err)
	}
	return exists, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Scanning helpers
// ──────────────────────────────────────────────────────────────────────────────

func (r *ParticipantRepository) scanOne(row pgx.Row) (*participant.Participant, error) {
	p, err := scanParticipant(row)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrParticipantNotFound
		}
		return nil, fmt.Errorf("failed to scan participant: %w", err)
	}
	return p, nil
}

func (r *ParticipantRepository) scanAll(rows pgx.Rows) ([]*participant.Participant, error) {
	var out []*participant.Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan participant row: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// scanParticipant reads one row into a domain entity. Period columns are stored
// flattened (month, year); zero values map to an unset Period.
func scanParticipant(row pgx.Row) (*participant.Participant, error) {
	var (
		p             participant.Participant
		nationalID    string
		birthDate     *time.Time
		program       string
		status        string
		lastMonth     int
		lastYear      int
		absenceMonth  int
		absenceYear   int
		enrollmentAct string
	)

	err := row.Scan(
		&p.ID,
		&p.FullName,
		&nationalID,
		&birthDate,
		&program,
		&p.Category,
		&p.PaymentCount,
		&lastMonth,
		&lastYear,
		&p.Active,
		&status,
		&absenceMonth,
		&absenceYear,
		&p.IsStaff,
		&enrollmentAct,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.NationalID = shared.NationalID(nationalID)
	p.Program = participant.Program(program)
	p.Status = participant.Status(status)
	p.LastPaidPeriod = shared.Period{Month: lastMonth, Year: lastYear}
	p.AbsencePeriod = shared.Period{Month: absenceMonth, Year: absenceYear}
	p.EnrollmentAct = shared.ActReference(enrollmentAct)
	if birthDate != nil {
		p.BirthDate = *birthDate
	}
	return &p, nil
}

// nullableDate maps a zero time to SQL NULL.
func nullableDate(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
