package command

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/pem-hub/pem-payments-hub/internal/domain/participant"
	"github.com/pem-hub/pem-payments-hub/internal/domain/payment"
	"github.com/pem-hub/pem-payments-hub/internal/domain/shared"
	"github.com/pem-hub/pem-payments-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// DEACTIVATE / REACTIVATE PARTICIPANT
// Explicit lifecycle actions outside the reconciliation pipeline. A
// definitive deactivation appends a BAJA_DEFINITIVA novelty.
// ══════════════════════════════════════════════════════════════════════════════

// DeactivateParticipantCommand marks a participant as Baja.
type DeactivateParticipantCommand struct {
	ParticipantID string
	Reason        string

	// Month/Year of the deactivation event.
	Month int
	Year  int
}

// Validate validates the command.
func (c DeactivateParticipantCommand) Validate() error {
	if c.ParticipantID == "" {
		return shared.ErrInvalidID
	}
	if _, err := shared.NewPeriod(c.Month, c.Year); err != nil {
		return err
	}
	return nil
}

// NoveltyAppender persists a single novelty outside a reconciliation batch.
type NoveltyAppender interface {
	Append(ctx context.Context, n *payment.Novelty) error
}

// DeactivateParticipantHandler handles deactivation and reactivation.
type DeactivateParticipantHandler struct {
	participants participant.Repository
	novelties    NoveltyAppender
	publisher    shared.EventPublisher
	log          *logger.Logger
}

// NewDeactivateParticipantHandler creates the handler.
func NewDeactivateParticipantHandler(
	participants participant.Repository,
	novelties NoveltyAppender,
	publisher shared.EventPublisher,
	log *logger.Logger,
) *DeactivateParticipantHandler {
	if publisher == nil {
		publisher = shared.NopPublisher{}
	}
	if log == nil {
		log = logger.Default()
	}
	return &DeactivateParticipantHandler{
		participants: participants,
		novelties:    novelties,
		publisher:    publisher,
		log:          log.With(logger.Component("lifecycle")),
	}
}

// Handle deactivates the participant and appends the definitive novelty.
func (h *DeactivateParticipantHandler) Handle(ctx context.Context, cmd DeactivateParticipantCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	period, _ := shared.NewPeriod(cmd.Month, cmd.Year)

	p, err := h.participants.GetByID(ctx, cmd.ParticipantID)
	if err != nil {
		return err
	}
	if p.Status == participant.StatusBaja {
		return shared.ErrInvalidStatusTransition
	}

	p.Deactivate()
	if err := h.participants.Update(ctx, p); err != nil {
		return err
	}

	novelty := &payment.Novelty{
		ID:            uuid.NewString(),
		ParticipantID: p.ID,
		Type:          payment.NoveltyBajaDefinitiva,
		Description:   cmd.Reason,
		Period:        period,
		Program:       p.Program,
		CreatedAt:     time.Now().UTC(),
	}
	if err := h.novelties.Append(ctx, novelty); err != nil {
		return err
	}

	h.publisher.Publish(shared.NewEvent(shared.EventParticipantDeactivated, p.ID, map[string]interface{}{
		"period": period.String(),
		"reason": cmd.Reason,
	}))

	h.log.Info("participante dado de baja",
		logger.ParticipantID(p.ID),
		logger.Period(period.String()))
	return nil
}

// HandleReactivate restores a deactivated participant to Activo.
func (h *DeactivateParticipantHandler) HandleReactivate(ctx context.Context, participantID string) error {
	if participantID == "" {
		return shared.ErrInvalidID
	}

	p, err := h.participants.GetByID(ctx, participantID)
	if err != nil {
		return err
	}
	if p.Status != participant.StatusBaja {
		return shared.ErrInvalidStatusTransition
	}

	p.Reactivate()
	if err := h.participants.Update(ctx, p); err != nil {
		return err
	}

	h.publisher.Publish(shared.NewEvent(shared.EventParticipantReactivated, p.ID, nil))
	h.log.Info("participante reincorporado", logger.ParticipantID(p.ID))
	return nil
}
