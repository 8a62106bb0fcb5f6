package payment

import (
	"context"
	"time"

	"github.com/pem-hub/pem-payments-hub/internal/domain/participant"
	"github.com/pem-hub/pem-payments-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LOTE DE ESCRITURA ATÓMICA
// Contrato con la primitiva transaccional del almacén de documentos: o se
// aplica todo el lote o no se aplica nada. El almacén tiene un tope práctico
// de operaciones por unidad atómica; el coordinador parte lotes grandes en
// unidades disjuntas por participante, perdiendo atomicidad entre unidades
// (limitación documentada, no garantía).
// ══════════════════════════════════════════════════════════════════════════════

// PaymentWrite agrupa las escrituras de un pago conciliado: la mutación del
// participante (contador, período, estado) y el registro de pago nuevo.
type PaymentWrite struct {
	// Participant lleva ya aplicadas las mutaciones en memoria.
	Participant *participant.Participant

	// Record es el pago inmutable a crear.
	Record *Record
}

// Ops devuelve la cantidad de operaciones de escritura del ítem.
func (w PaymentWrite) Ops() int { return 2 }

// AbsenceWrite agrupa las escrituras de una ausencia detectada: la mutación
// de estado del participante y la novedad POSIBLE_BAJA.
type AbsenceWrite struct {
	Participant *participant.Participant
	Novelty     *Novelty
}

// Ops devuelve la cantidad de operaciones de escritura del ítem.
func (w AbsenceWrite) Ops() int { return 2 }

// CommitBatch es el lote completo de una conciliación.
type CommitBatch struct {
	Period   shared.Period
	Program  participant.Program
	Payments []PaymentWrite
	Absences []AbsenceWrite

	// Upload es el registro de historial, exactamente uno por conciliación.
	// En lotes partidos en varias unidades viaja sólo en la primera.
	Upload *Upload
}

// TotalOps devuelve la cantidad total de operaciones del lote.
func (b *CommitBatch) TotalOps() int {
	ops := 0
	for _, w := range b.Payments {
		ops += w.Ops()
	}
	for _, w := range b.Absences {
		ops += w.Ops()
	}
	if b.Upload != nil {
		ops++
	}
	return ops
}

// Split parte el lote en unidades cuyo tamaño no supera maxOps operaciones,
// con conjuntos de participantes disjuntos. El registro de historial viaja en
// la primera unidad. Con maxOps <= 0 o lote chico devuelve el lote entero.
// La atomicidad entre unidades NO está garantizada: es la limitación conocida
// de los archivos grandes.
func (b *CommitBatch) Split(maxOps int) []*CommitBatch {
	if maxOps <= 0 || b.TotalOps() <= maxOps {
		return []*CommitBatch{b}
	}

	var chunks []*CommitBatch
	current := &CommitBatch{Period: b.Period, Program: b.Program, Upload: b.Upload}
	ops := 0
	if b.Upload != nil {
		ops = 1
	}

	flush := func() {
		if len(current.Payments) > 0 || len(current.Absences) > 0 || current.Upload != nil {
			chunks = append(chunks, current)
		}
		current = &CommitBatch{Period: b.Period, Program: b.Program}
		ops = 0
	}

	for _, w := range b.Payments {
		if ops+w.Ops() > maxOps && ops > 0 {
			flush()
		}
		current.Payments = append(current.Payments, w)
		ops += w.Ops()
	}
	for _, w := range b.Absences {
		if ops+w.Ops() > maxOps && ops > 0 {
			flush()
		}
		current.Absences = append(current.Absences, w)
		ops += w.Ops()
	}
	flush()
	return chunks
}

// ReversalBatch describe la reversión completa de un lote previamente
// aplicado. Los estados de ausencia se revierten sólo si siguen consistentes
// con el lote (estado Requiere Atención y marca de ausencia del mismo
// período); la condición la evalúa el almacén dentro de la transacción.
type ReversalBatch struct {
	Upload *Upload

	// PaymentIDs - registros de pago a eliminar.
	PaymentIDs []string

	// Decrements - participantes cuyo contador baja exactamente en uno,
	// con el período pagado anterior a restituir (zero si no se conoce).
	Decrements []CounterDecrement

	// AbsenceReverts - participantes marcados ausentes por este lote cuyos
	// estados se restituyen a Activo si no cambiaron desde entonces.
	AbsenceReverts []string

	ReversedAt time.Time
}

// CounterDecrement revierte el contador de pagos de un participante.
type CounterDecrement struct {
	ParticipantID string

	// PreviousPaidPeriod - último período pagado antes del lote revertido.
	PreviousPaidPeriod shared.Period
}

// BatchWriter es la primitiva de escritura atómica del almacén.
type BatchWriter interface {
	// MaxBatchOps devuelve el tope práctico de operaciones por unidad
	// atómica (0 = sin tope).
	MaxBatchOps() int

	// Commit aplica el lote como una única unidad atómica. Ante cualquier
	// error el lote completo debe tratarse como no aplicado.
	Commit(ctx context.Context, batch *CommitBatch) error

	// Reverse deshace un lote aplicado, en una única transacción: elimina
	// pagos y novedades POSIBLE_BAJA del período/programa, decrementa
	// contadores y restituye estados sólo donde siguen consistentes.
	Reverse(ctx context.Context, batch *ReversalBatch) error
}
