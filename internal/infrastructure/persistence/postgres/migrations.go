package postgres

// ══════════════════════════════════════════════════════════════════════════════
// SCHEMA MIGRATIONS
// ══════════════════════════════════════════════════════════════════════════════

const migrationParticipants = `
CREATE TABLE IF NOT EXISTS participants (
	id UUID PRIMARY KEY,
	full_name TEXT NOT NULL,
	national_id TEXT NOT NULL,
	birth_date DATE,
	program TEXT NOT NULL,
	category TEXT NOT NULL DEFAULT '',
	payment_count INTEGER NOT NULL DEFAULT 0 CHECK (payment_count >= 0),
	last_paid_month INTEGER NOT NULL DEFAULT 0,
	last_paid_year INTEGER NOT NULL DEFAULT 0,
	active BOOLEAN NOT NULL DEFAULT TRUE,
	status TEXT NOT NULL DEFAULT 'Ingresado',
	absence_month INTEGER NOT NULL DEFAULT 0,
	absence_year INTEGER NOT NULL DEFAULT 0,
	is_staff BOOLEAN NOT NULL DEFAULT FALSE,
	enrollment_act TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

	CONSTRAINT uq_participants_national_id_program UNIQUE (national_id, program)
);

CREATE INDEX IF NOT EXISTS idx_participants_national_id ON participants(national_id);
CREATE INDEX IF NOT EXISTS idx_participants_program ON participants(program);
CREATE INDEX IF NOT EXISTS idx_participants_status ON participants(status);
CREATE INDEX IF NOT EXISTS idx_participants_active ON participants(active) WHERE active = TRUE;
`

const migrationPricingConfigurations = `
CREATE TABLE IF NOT EXISTS pricing_configurations (
	id UUID PRIMARY KEY,
	effective_month INTEGER NOT NULL CHECK (effective_month BETWEEN 1 AND 12),
	effective_year INTEGER NOT NULL,
	category_amounts JSONB NOT NULL DEFAULT '{}',
	program_amounts JSONB NOT NULL DEFAULT '{}',
	act TEXT NOT NULL DEFAULT '',
	is_current BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_pricing_effective
	ON pricing_configurations(effective_year DESC, effective_month DESC);
CREATE INDEX IF NOT EXISTS idx_pricing_current
	ON pricing_configurations(is_current) WHERE is_current = TRUE;
`

const migrationPaymentRecords = `
CREATE TABLE IF NOT EXISTS payment_records (
	id UUID PRIMARY KEY,
	participant_id UUID NOT NULL REFERENCES participants(id),
	national_id TEXT NOT NULL,
	amount NUMERIC(14, 2) NOT NULL,
	period_month INTEGER NOT NULL CHECK (period_month BETWEEN 1 AND 12),
	period_year INTEGER NOT NULL,
	program TEXT NOT NULL,
	category TEXT NOT NULL DEFAULT '',
	upload_id UUID NOT NULL,
	uploaded_by TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

	CONSTRAINT uq_payment_participant_period
		UNIQUE (participant_id, period_month, period_year, program)
);

CREATE INDEX IF NOT EXISTS idx_payment_records_period
	ON payment_records(period_year, period_month, program);
CREATE INDEX IF NOT EXISTS idx_payment_records_upload ON payment_records(upload_id);
CREATE INDEX IF NOT EXISTS idx_payment_records_participant ON payment_records(participant_id);
`

const migrationNovelties = `
CREATE TABLE IF NOT EXISTS novelties (
	id UUID PRIMARY KEY,
	participant_id UUID NOT NULL REFERENCES participants(id),
	type TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	period_month INTEGER NOT NULL,
	period_year INTEGER NOT NULL,
	program TEXT NOT NULL,
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_novelties_participant ON novelties(participant_id);
CREATE INDEX IF NOT EXISTS idx_novelties_period_type
	ON novelties(period_year, period_month, program, type);
`

const migrationUploads = `
CREATE TABLE IF NOT EXISTS uploads (
	id UUID PRIMARY KEY,
	period_month INTEGER NOT NULL CHECK (period_month BETWEEN 1 AND 12),
	period_year INTEGER NOT NULL,
	program TEXT NOT NULL,
	uploaded_by TEXT NOT NULL DEFAULT '',
	regulars INTEGER NOT NULL DEFAULT 0,
	news INTEGER NOT NULL DEFAULT 0,
	absents INTEGER NOT NULL DEFAULT 0,
	processed_ids JSONB NOT NULL DEFAULT '[]',
	reversed BOOLEAN NOT NULL DEFAULT FALSE,
	reversed_at TIMESTAMP WITH TIME ZONE,
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_uploads_period
	ON uploads(period_year, period_month, program);
CREATE INDEX IF NOT EXISTS idx_uploads_created ON uploads(created_at DESC);
`

// GetMigrations returns all migrations in order.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_participants",
			UpSQL:   migrationParticipants,
			DownSQL: "DROP TABLE IF EXISTS participants CASCADE;",
		},
		{
			Version: 2,
			Name:    "create_pricing_configurations",
			UpSQL:   migrationPricingConfigurations,
			DownSQL: "DROP TABLE IF EXISTS pricing_configurations CASCADE;",
		},
		{
			Version: 3,
			Name:    "create_payment_records",
			UpSQL:   migrationPaymentRecords,
			DownSQL: "DROP TABLE IF EXISTS payment_records CASCADE;",
		},
		{
			Version: 4,
			Name:    "create_novelties",
			UpSQL:   migrationNovelties,
			DownSQL: "DROP TABLE IF EXISTS novelties CASCADE;",
		},
		{
			Version: 5,
			Name:    "create_uploads",
			UpSQL:   migrationUploads,
			DownSQL: "DROP TABLE IF EXISTS uploads CASCADE;",
		},
	}
}
