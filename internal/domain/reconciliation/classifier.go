package reconciliation

import (
	"github.com/pem-hub/pem-payments-hub/internal/domain/participant"
	"github.com/pem-hub/pem-payments-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// MOTOR DE CLASIFICACIÓN
// Parte los registros normalizados en resultados disjuntos (regular, alta,
// desconocido) cruzándolos contra el padrón del programa y contra el conjunto
// de documentos pagados en el período inmediatamente anterior. Las ausencias
// se computan aparte, como diferencia de conjuntos sobre documentos.
// ══════════════════════════════════════════════════════════════════════════════

// ClassifiedRecord es un registro del archivo con su participante resuelto y
// su categoría calculada.
type ClassifiedRecord struct {
	Raw         RawPayment
	Participant *participant.Participant
	Category    CategoryResult
}

// Classification es la partición completa de una corrida: todo registro del
// archivo cae exactamente en uno de Regular, New o Unknown; Absent es
// independiente de los registros (participantes fuera del archivo).
type Classification struct {
	// Regular - pagados también en el período anterior.
	Regular []ClassifiedRecord

	// New - altas: primer pago o reingreso tras un hueco.
	New []ClassifiedRecord

	// Unknown - documentos del archivo sin participante en el padrón.
	Unknown []RawPayment

	// Absent - participantes activos con pago en el período anterior que no
	// aparecen en ninguna línea del archivo.
	Absent []*participant.Participant

	// Duplicates - documentos que aparecen más de una vez en el archivo.
	// Un duplicado bloquea la corrida: el comportamiento histórico de
	// pisar con la última aparición se consideró un defecto.
	Duplicates []shared.NationalID
}

// Counts devuelve los conteos por resultado, para el resumen de la carga.
func (c *Classification) Counts() (regular, news, absent, unknown int) {
	return len(c.Regular), len(c.New), len(c.Absent), len(c.Unknown)
}

// Classifier cruza archivo, padrón y período anterior.
type Classifier struct {
	// byNationalID - padrón del programa indexado por documento canónico.
	byNationalID map[shared.NationalID]*participant.Participant

	// priorPaid - documentos con pago confirmado en el período anterior.
	priorPaid map[shared.NationalID]struct{}
}

// NewClassifier construye el clasificador para una corrida: el padrón ya
// restringido al programa objetivo y el conjunto de pagados del período
// anterior (un mes atrás, mismo programa, cruzando el límite de año).
func NewClassifier(registry []*participant.Participant, priorPaid map[shared.NationalID]struct{}) *Classifier {
	byID := make(map[shared.NationalID]*participant.Participant, len(registry))
	for _, p := range registry {
		byID[p.NationalID] = p
	}
	if priorPaid == nil {
		priorPaid = map[shared.NationalID]struct{}{}
	}
	return &Classifier{byNationalID: byID, priorPaid: priorPaid}
}

// Classify ejecuta la clasificación completa. Por cada registro:
//  1. busca el participante por documento canónico dentro del padrón;
//  2. si no está en el padrón, es desconocido;
//  3. si su documento figura entre los pagados del período anterior, es regular;
//  4. si no, es alta.
//
// Aparte computa las ausencias: todo participante activo, con estado distinto
// de Ingresado, no staff, pagado el período anterior, cuyo documento no
// aparece en ninguna parte del archivo.
func (c *Classifier) Classify(records []RawPayment, table *CategoryTable) *Classification {
	result := &Classification{}
	inFile := make(map[shared.NationalID]struct{}, len(records))

	for _, rec := range records {
		if _, seen := inFile[rec.NationalID]; seen {
			result.Duplicates = append(result.Duplicates, rec.NationalID)
			continue
		}
		inFile[rec.NationalID] = struct{}{}

		p, ok := c.byNationalID[rec.NationalID]
		if !ok {
			result.Unknown = append(result.Unknown, rec)
			continue
		}

		classified := ClassifiedRecord{
			Raw:         rec,
			Participant: p,
			Category:    table.Classify(rec.Amount),
		}

		if _, paid := c.priorPaid[rec.NationalID]; paid {
			result.Regular = append(result.Regular, classified)
		} else {
			result.New = append(result.New, classified)
		}
	}

	for id := range c.priorPaid {
		if _, present := inFile[id]; present {
			continue
		}
		p, ok := c.byNationalID[id]
		if !ok || !p.EligibleForAbsenceCheck() {
			continue
		}
		result.Absent = append(result.Absent, p)
	}

	return result
}
