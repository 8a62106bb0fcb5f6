package command

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pem-hub/pem-payments-hub/internal/domain/participant"
	"github.com/pem-hub/pem-payments-hub/internal/domain/pricing"
	"github.com/pem-hub/pem-payments-hub/internal/domain/shared"
	"github.com/pem-hub/pem-payments-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// CREATE CONFIGURATION COMMAND
// Pricing is versioned, never mutated in place: a new configuration becomes
// the current one and clears the flag on every other version atomically.
// ══════════════════════════════════════════════════════════════════════════════

// CreateConfigurationCommand holds a new pricing configuration version.
type CreateConfigurationCommand struct {
	// EffectiveMonth/EffectiveYear: the period this version starts to rule.
	EffectiveMonth int
	EffectiveYear  int

	// CategoryAmounts: amount per tutoring category.
	CategoryAmounts map[string]decimal.Decimal

	// ProgramAmounts: fixed amount per non-tutoring program.
	ProgramAmounts map[participant.Program]decimal.Decimal

	// Act is the authorizing act for these amounts.
	Act shared.ActReference
}

// Validate validates the command.
func (c CreateConfigurationCommand) Validate() error {
	if _, err := shared.NewPeriod(c.EffectiveMonth, c.EffectiveYear); err != nil {
		return err
	}
	if len(c.CategoryAmounts) == 0 && len(c.ProgramAmounts) == 0 {
		return shared.ErrEmptyConfiguration
	}
	for _, amount := range c.CategoryAmounts {
		if amount.IsNegative() {
			return shared.ErrNegativeValue
		}
	}
	for program, amount := range c.ProgramAmounts {
		if !program.IsValid() {
			return shared.ErrInvalidProgram
		}
		if amount.IsNegative() {
			return shared.ErrNegativeValue
		}
	}
	return nil
}

// CreateConfigurationHandler handles the CreateConfigurationCommand.
type CreateConfigurationHandler struct {
	configs   pricing.Repository
	resolver  *pricing.Resolver
	publisher shared.EventPublisher
	log       *logger.Logger
}

// NewCreateConfigurationHandler creates the handler.
func NewCreateConfigurationHandler(
	configs pricing.Repository,
	resolver *pricing.Resolver,
	publisher shared.EventPublisher,
	log *logger.Logger,
) *CreateConfigurationHandler {
	if publisher == nil {
		publisher = shared.NopPublisher{}
	}
	if log == nil {
		log = logger.Default()
	}
	return &CreateConfigurationHandler{
		configs:   configs,
		resolver:  resolver,
		publisher: publisher,
		log:       log.With(logger.Component("pricing")),
	}
}

// Handle creates the new version and refreshes the resolver cache so the
// next reconciliation run sees it.
func (h *CreateConfigurationHandler) Handle(ctx context.Context, cmd CreateConfigurationCommand) (*pricing.Configuration, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	effective, _ := shared.NewPeriod(cmd.EffectiveMonth, cmd.EffectiveYear)

	now := time.Now().UTC()
	cfg := &pricing.Configuration{
		ID:              uuid.NewString(),
		EffectivePeriod: effective,
		CategoryAmounts: cmd.CategoryAmounts,
		ProgramAmounts:  cmd.ProgramAmounts,
		Act:             cmd.Act,
		IsCurrent:       true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := h.configs.Create(ctx, cfg); err != nil {
		return nil, err
	}
	if err := h.resolver.Refresh(ctx); err != nil {
		h.log.Warn("no se pudo refrescar el caché de configuraciones", logger.Err(err))
	}

	h.publisher.Publish(shared.NewEvent(shared.EventConfigurationCreated, cfg.ID, map[string]interface{}{
		"effective": effective.String(),
		"act":       cmd.Act.String(),
	}))

	h.log.Info("configuración creada",
		logger.Period(effective.String()),
		logger.String("act", cmd.Act.String()))
	return cfg, nil
}

// EditConfigurationCommand edits the same record, without creating a version.
type EditConfigurationCommand struct {
	ID              string
	CategoryAmounts map[string]decimal.Decimal
	ProgramAmounts  map[participant.Program]decimal.Decimal
	Act             shared.ActReference
}

// Handle applies an in-place edit of an existing configuration.
func (h *CreateConfigurationHandler) HandleEdit(ctx context.Context, cmd EditConfigurationCommand) (*pricing.Configuration, error) {
	if cmd.ID == "" {
		return nil, shared.ErrInvalidID
	}

	cfg, err := h.configs.GetByID(ctx, cmd.ID)
	if err != nil {
		return nil, err
	}

	if cmd.CategoryAmounts != nil {
		cfg.CategoryAmounts = cmd.CategoryAmounts
	}
	if cmd.ProgramAmounts != nil {
		cfg.ProgramAmounts = cmd.ProgramAmounts
	}
	if !cmd.Act.IsZero() {
		cfg.Act = cmd.Act
	}
	cfg.UpdatedAt = time.Now().UTC()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := h.configs.Update(ctx, cfg); err != nil {
		return nil, err
	}
	if err := h.resolver.Refresh(ctx); err != nil {
		h.log.Warn("no se pudo refrescar el caché de configuraciones", logger.Err(err))
	}

	h.publisher.Publish(shared.NewEvent(shared.EventConfigurationEdited, cfg.ID, nil))
	return cfg, nil
}
