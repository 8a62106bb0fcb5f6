package command

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/pem-hub/pem-payments-hub/internal/domain/participant"
	"github.com/pem-hub/pem-payments-hub/internal/domain/shared"
	"github.com/pem-hub/pem-payments-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENROLL PARTICIPANT COMMAND
// Intake of a new participant into a program, in Ingresado status. Counters
// and lifecycle fields are afterwards mutated only by the commit coordinator
// or by explicit deactivation/reactivation.
// ══════════════════════════════════════════════════════════════════════════════

// EnrollParticipantCommand holds the intake data.
type EnrollParticipantCommand struct {
	FullName  string
	RawID     string // raw national ID, normalized to digits-only
	BirthDate time.Time
	Program   participant.Program
	IsStaff   bool
	Act       shared.ActReference
}

// Validate validates the command.
func (c EnrollParticipantCommand) Validate() error {
	if c.FullName == "" {
		return shared.ErrEmptyValue
	}
	if !shared.NormalizeNationalID(c.RawID).IsValid() {
		return shared.ErrInvalidNationalID
	}
	if !c.Program.IsValid() {
		return shared.ErrInvalidProgram
	}
	if c.BirthDate.IsZero() || c.BirthDate.After(time.Now()) {
		return shared.ErrInvalidInput
	}
	return nil
}

// EnrollParticipantHandler handles the EnrollParticipantCommand.
type EnrollParticipantHandler struct {
	participants participant.Repository
	publisher    shared.EventPublisher
	log          *logger.Logger
}

// NewEnrollParticipantHandler creates the handler.
func NewEnrollParticipantHandler(participants participant.Repository, publisher shared.EventPublisher, log *logger.Logger) *EnrollParticipantHandler {
	if publisher == nil {
		publisher = shared.NopPublisher{}
	}
	if log == nil {
		log = logger.Default()
	}
	return &EnrollParticipantHandler{
		participants: participants,
		publisher:    publisher,
		log:          log.With(logger.Component("intake")),
	}
}

// Handle creates the participant after checking the national ID is free.
func (h *EnrollParticipantHandler) Handle(ctx context.Context, cmd EnrollParticipantCommand) (*participant.Participant, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	nationalID := shared.NormalizeNationalID(cmd.RawID)
	exists, err := h.participants.ExistsByNationalID(ctx, nationalID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.ErrParticipantAlreadyExists
	}

	p, err := participant.New(uuid.NewString(), cmd.FullName, nationalID, cmd.BirthDate, cmd.Program)
	if err != nil {
		return nil, err
	}
	p.IsStaff = cmd.IsStaff
	p.EnrollmentAct = cmd.Act

	if err := h.participants.Create(ctx, p); err != nil {
		return nil, err
	}

	h.publisher.Publish(shared.NewEvent(shared.EventParticipantEnrolled, p.ID, map[string]interface{}{
		"national_id": nationalID.String(),
		"program":     cmd.Program.String(),
	}))

	h.log.Info("participante ingresado",
		logger.ParticipantID(p.ID),
		logger.NationalID(nationalID.String()),
		logger.Program(cmd.Program.String()))
	return p, nil
}
