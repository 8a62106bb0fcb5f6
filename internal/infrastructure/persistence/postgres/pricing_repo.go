package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/pem-hub/pem-payments-hub/internal/domain/participant"
	"github.com/pem-hub/pem-payments-hub/internal/domain/pricing"
	"github.com/pem-hub/pem-payments-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PRICING CONFIGURATION REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// PricingRepository implements pricing.Repository using PostgreSQL.
// Amount maps are stored as JSONB with decimal string values so no precision
// is lost on the round trip.
type PricingRepository struct {
	conn *Connection
}

// NewPricingRepository creates a new pricing repository.
func NewPricingRepository(conn *Connection) *PricingRepository {
	return &PricingRepository{conn: conn}
}

const pricingColumns = `
	id, effective_month, effective_year, category_amounts, program_amounts,
	act, is_current, created_at, updated_at
`

// Create stores a new configuration version and atomically clears the
// is_current flag on every other version.
func (r *PricingRepository) Create(ctx context.Context, cfg *pricing.Configuration) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	categoryJSON, programJSON, err := encodeAmounts(cfg)
	if err != nil {
		return err
	}

	return r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		var exists bool
		err := tx.QueryRow(ctx,
			"SELECT EXISTS(SELECT 1 FROM pricing_configurations WHERE effective_month = $1 AND effective_year = $2)",
			cfg.EffectivePeriod.Month, cfg.EffectivePeriod.Year,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check configuration existence: %w", err)
		}
		if exists {
			return shared.ErrConfigurationExists
		}

		if cfg.IsCurrent {
			if _, err := tx.Exec(ctx,
				"UPDATE pricing_configurations SET is_current = FALSE WHERE is_current = TRUE",
			); err != nil {
				return fmt.Errorf("failed to clear current flag: %w", err)
			}
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO pricing_configurations (
				id, effective_month, effective_year, category_amounts,
				program_amounts, act, is_current, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`,
			cfg.ID,
			cfg.EffectivePeriod.Month,
			cfg.EffectivePeriod.Year,
			categoryJSON,
			programJSON,
			cfg.Act.String(),
			cfg.IsCurrent,
			cfg.CreatedAt,
			cfg.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert configuration: %w", err)
		}
		return nil
	})
}

// Update edits an existing configuration in place.
func (r *PricingRepository) Update(ctx context.Context, cfg *pricing.Configuration) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	categoryJSON, programJSON, err := encodeAmounts(cfg)
	if err != nil {
		return err
	}

	tag, err := r.conn.Exec(ctx, `
		UPDATE pricing_configurations SET
			effective_month = $2, effective_year = $3, category_amounts = $4,
			program_amounts = $5, act = $6, updated_at = $7
		WHERE id = $1
	`,
		cfg.ID,
		cfg.EffectivePeriod.Month,
		cfg.EffectivePeriod.Year,
		categoryJSON,
		programJSON,
		cfg.Act.String(),
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to update configuration: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrConfigurationNotFound
	}
	return nil
}

// GetByID returns a configuration by ID.
func (r *PricingRepository) GetByID(ctx context.Context, id string) (*pricing.Configuration, error) {
	query := fmt.Sprintf("SELECT %s FROM pricing_configurations WHERE id = $1", pricingColumns)

	cfg, err := scanConfiguration(r.conn.QueryRow(ctx, query, id))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrConfigurationNotFound
		}
		return nil, fmt.Errorf("failed to scan configuration: %w", err)
	}
	return cfg, nil
}

// GetAll returns every configuration version.
func (r *PricingRepository) GetAll(ctx context.Context) ([]*pricing.Configuration, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM pricing_configurations ORDER BY effective_year DESC, effective_month DESC",
		pricingColumns,
	)

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query configurations: %w", err)
	}
	defer rows.Close()

	var out []*pricing.Configuration
	for rows.Next() {
		cfg, err := scanConfiguration(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan configuration row: %w", err)
		}
		out = append(out, cfg)
	}
	return out, rows.Err()
}

// ──────────────────────────────────────────────────────────────────────────────
// JSONB amount maps
// ──────────────────────────────────────────────────────────────────────────────

func encodeAmounts(cfg *pricing.Configuration) ([]byte, []byte, error) {
	categories := make(map[string]string, len(cfg.CategoryAmounts))
	for category, amount := range cfg.CategoryAmounts {
		categories[category] = amount.String()
	}
	programs := make(map[string]string, len(cfg.ProgramAmounts))
	for program, amount := range cfg.ProgramAmounts {
		programs[program.String()] = amount.String()
	}

	categoryJSON, err := json.Marshal(categories)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode category amounts: %w", err)
	}
	programJSON, err := json.Marshal(programs)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode program amounts: %w", err)
	}
	return categoryJSON, programJSON, nil
}

func scanConfiguration(row pgx.Row) (*pricing.Configuration, error) {
	var (
		cfg          pricing.Configuration
		month, year  int
		categoryJSON []byte
		programJSON  []byte
		act          string
	)

	err := row.Scan(
		&cfg.ID,
		&month,
		&year,
		&categoryJSON,
		&programJSON,
		&act,
		&cfg.IsCurrent,
		&cfg.CreatedAt,
		&cfg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	cfg.EffectivePeriod = shared.Period{Month: month, Year: year}
	cfg.Act = shared.ActReference(act)

	var categories map[string]string
	if err := json.Unmarshal(categoryJSON, &categories); err != nil {
		return nil, fmt.Errorf("failed to decode category amounts: %w", err)
	}
	cfg.CategoryAmounts = make(map[string]decimal.Decimal, len(categories))
	for category, raw := range categories {
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid category amount %q: %w", raw, err)
		}
		cfg.CategoryAmounts[category] = amount
	}

	var programs map[string]string
	if err := json.Unmarshal(programJSON, &programs); err != nil {
		return nil, fmt.Errorf("failed to decode program amounts: %w", err)
	}
	cfg.ProgramAmounts = make(map[participant.Program]decimal.Decimal, len(programs))
	for program, raw := range programs {
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid program amount %q: %w", raw, err)
		}
		cfg.ProgramAmounts[participant.Program(program)] = amount
	}

	return &cfg, nil
}
