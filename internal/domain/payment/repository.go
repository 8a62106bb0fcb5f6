package payment

import (
	"context"

	"github.com/pem-hub/pem-payments-hub/internal/domain/participant"
	"github.com/pem-hub/pem-payments-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// INTERFACES DE REPOSITORIO (lecturas)
// Las escrituras de la conciliación pasan exclusivamente por BatchWriter.
// ══════════════════════════════════════════════════════════════════════════════

// Repository define las lecturas sobre registros de pago.
type Repository interface {
	// GetByPeriodProgram devuelve los pagos de un período y programa.
	GetByPeriodProgram(ctx context.Context, period shared.Period, program participant.Program) ([]*Record, error)

	// GetPaidNationalIDs devuelve el conjunto de documentos con pago
	// confirmado para un período y programa. Es la base del cruce con el
	// período anterior en la clasificación.
	GetPaidNationalIDs(ctx context.Context, period shared.Period, program participant.Program) (map[shared.NationalID]struct{}, error)

	// GetByUpload devuelve los pagos creados por un lote de carga.
	GetByUpload(ctx context.Context, uploadID string) ([]*Record, error)

	// GetByParticipant devuelve el historial de pagos de un participante.
	GetByParticipant(ctx context.Context, participantID string) ([]*Record, error)
}

// NoveltyRepository define las lecturas sobre novedades.
type NoveltyRepository interface {
	// GetByParticipant devuelve las novedades de un participante.
	GetByParticipant(ctx context.Context, participantID string) ([]*Novelty, error)

	// GetByPeriodProgram devuelve las novedades de un período y programa,
	// opcionalmente filtradas por tipo (tipo vacío = todas).
	GetByPeriodProgram(ctx context.Context, period shared.Period, program participant.Program, noveltyType NoveltyType) ([]*Novelty, error)
}

// UploadRepository define las operaciones sobre el historial de cargas.
type UploadRepository interface {
	// GetByID devuelve un lote por ID.
	// Devuelve ErrUploadNotFound si no existe.
	GetByID(ctx context.Context, id string) (*Upload, error)

	// GetByPeriodProgram devuelve los lotes de un período y programa.
	GetByPeriodProgram(ctx context.Context, period shared.Period, program participant.Program) ([]*Upload, error)

	// List devuelve el historial completo, del más reciente al más antiguo.
	List(ctx context.Context, limit int) ([]*Upload, error)
}
