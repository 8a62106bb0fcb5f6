package participant

import (
	"context"

	"github.com/pem-hub/pem-payments-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// INTERFACES DE REPOSITORIO
// Definen el contrato con el almacén de documentos. Las implementaciones
// están en infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository define las operaciones sobre el padrón de participantes.
type Repository interface {
	// Create crea un participante nuevo.
	// Devuelve ErrParticipantAlreadyExists si el documento ya está registrado.
	Create(ctx context.Context, p *Participant) error

	// GetByID devuelve un participante por su ID interno.
	// Devuelve ErrParticipantNotFound si no existe.
	GetByID(ctx context.Context, id string) (*Participant, error)

	// GetByNationalID devuelve un participante por documento canónico.
	// Devuelve ErrParticipantNotFound si no existe.
	GetByNationalID(ctx context.Context, nationalID shared.NationalID) (*Participant, error)

	// Update persiste los cambios de un participante fuera de una
	// conciliación (alta de datos, baja, reactivación).
	// Devuelve ErrParticipantNotFound si no existe.
	Update(ctx context.Context, p *Participant) error

	// GetByProgram devuelve el padrón completo restringido a un programa.
	// Es la lectura base del motor de clasificación.
	GetByProgram(ctx context.Context, program Program) ([]*Participant, error)

	// GetAll devuelve el padrón completo, para el tablero de elegibilidad.
	GetAll(ctx context.Context) ([]*Participant, error)

	// CountByProgram devuelve la cantidad de participantes por programa.
	CountByProgram(ctx context.Context, program Program) (int, error)

	// ExistsByNationalID verifica existencia por documento.
	ExistsByNationalID(ctx context.Context, nationalID shared.NationalID) (bool, error)
}
