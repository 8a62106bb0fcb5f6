// Package payment contiene los registros de pago conciliados, las novedades
// de ausencia/baja y el historial de archivos procesados.
package payment

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/pem-hub/pem-payments-hub/internal/domain/participant"
	"github.com/pem-hub/pem-payments-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REGISTRO DE PAGO
// ══════════════════════════════════════════════════════════════════════════════

// Record es un pago conciliado. Inmutable: sólo se elimina como parte de la
// reversión completa del lote que lo creó.
type Record struct {
	// ID - identificador interno (UUID en formato string).
	ID string

	// ParticipantID - referencia al participante pagado.
	ParticipantID string

	// NationalID - documento canónico, redundante para auditoría del archivo.
	NationalID shared.NationalID

	// Amount - monto pagado según el archivo.
	Amount decimal.Decimal

	// Period - período objetivo del pago.
	Period shared.Period

	// Program - programa por el que se pagó.
	Program participant.Program

	// Category - categoría resuelta (sólo TUTORES; vacía para el resto).
	Category string

	// UploadID - lote de carga que originó el registro.
	UploadID string

	// UploadedBy - usuario que disparó la conciliación.
	UploadedBy string

	// CreatedAt - momento de creación.
	CreatedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// NOVEDADES
// ══════════════════════════════════════════════════════════════════════════════

// NoveltyType clasifica la novedad.
type NoveltyType string

const (
	// NoveltyPosibleBaja - el participante no apareció en el archivo del período.
	NoveltyPosibleBaja NoveltyType = "POSIBLE_BAJA"
	// NoveltyBajaDefinitiva - baja confirmada del programa.
	NoveltyBajaDefinitiva NoveltyType = "BAJA_DEFINITIVA"
	// NoveltyOtra - cualquier otra observación administrativa.
	NoveltyOtra NoveltyType = "OTRA"
)

// IsValid verifica que el tipo sea conocido.
func (t NoveltyType) IsValid() bool {
	switch t {
	case NoveltyPosibleBaja, NoveltyBajaDefinitiva, NoveltyOtra:
		return true
	default:
		return false
	}
}

// Novelty es un evento administrativo sobre un participante. Sólo se agrega:
// la única eliminación permitida es la de las POSIBLE_BAJA de un lote
// revertido, para su período y programa.
type Novelty struct {
	// ID - identificador interno (UUID en formato string).
	ID string

	// ParticipantID - referencia al participante.
	ParticipantID string

	// Type - tipo de novedad.
	Type NoveltyType

	// Description - texto libre para el operador.
	Description string

	// Period - período del evento.
	Period shared.Period

	// Program - programa afectado.
	Program participant.Program

	// CreatedAt - momento de creación.
	CreatedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// HISTORIAL DE CARGAS
// ══════════════════════════════════════════════════════════════════════════════

// Upload resume un archivo de pago procesado: conteos por clasificación y la
// lista de documentos incluidos. Exactamente un registro por conciliación.
type Upload struct {
	// ID - identificador interno (UUID en formato string).
	ID string

	// Period - período objetivo del archivo.
	Period shared.Period

	// Program - programa del archivo.
	Program participant.Program

	// UploadedBy - usuario que disparó la conciliación.
	UploadedBy string

	// Regulars - pagados también en el período anterior.
	Regulars int

	// News - altas: primer pago o reingreso tras un hueco.
	News int

	// Absents - pagados el período anterior y ausentes del archivo.
	Absents int

	// ProcessedIDs - documentos canónicos incluidos en el archivo.
	ProcessedIDs []string

	// Reversed - el lote fue revertido. El registro se conserva como
	// historia; los pagos asociados ya no existen.
	Reversed bool

	// ReversedAt - momento de la reversión, si corresponde.
	ReversedAt time.Time

	// CreatedAt - momento de la carga.
	CreatedAt time.Time
}
