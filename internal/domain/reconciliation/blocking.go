package reconciliation

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/pem-hub/pem-payments-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONDICIONES DE BLOQUEO
// El coordinador de commits se niega a correr mientras haya documentos
// desconocidos, duplicados o montos sin categoría: de lo contrario el padrón
// y el libro de pagos quedarían desincronizados en forma permanente. El
// reporte es detallado: el operador necesita la lista exacta para corregir
// el archivo antes de reintentar.
// ══════════════════════════════════════════════════════════════════════════════

// CategoryIssue identifica un registro cuyo monto no pudo categorizarse.
type CategoryIssue struct {
	NationalID shared.NationalID
	Amount     decimal.Decimal
	Reason     CategoryReason
}

// BlockReport es el detalle de las condiciones que impiden el commit.
type BlockReport struct {
	UnknownIDs     []shared.NationalID
	DuplicateIDs   []shared.NationalID
	CategoryIssues []CategoryIssue
}

// BuildBlockReport arma el reporte a partir de una clasificación.
func BuildBlockReport(cl *Classification) *BlockReport {
	report := &BlockReport{}

	for _, rec := range cl.Unknown {
		report.UnknownIDs = append(report.UnknownIDs, rec.NationalID)
	}
	report.DuplicateIDs = append(report.DuplicateIDs, cl.Duplicates...)

	for _, group := range [][]ClassifiedRecord{cl.Regular, cl.New} {
		for _, rec := range group {
			if rec.Category.OK() {
				continue
			}
			report.CategoryIssues = append(report.CategoryIssues, CategoryIssue{
				NationalID: rec.Raw.NationalID,
				Amount:     rec.Raw.Amount,
				Reason:     rec.Category.Reason,
			})
		}
	}
	return report
}

// Blocked indica si alguna condición impide el commit.
func (r *BlockReport) Blocked() bool {
	return len(r.UnknownIDs) > 0 || len(r.DuplicateIDs) > 0 || len(r.CategoryIssues) > 0
}

// Error implementa error con el detalle itemizado.
func (r *BlockReport) Error() string {
	var b strings.Builder
	b.WriteString("la conciliación está bloqueada:")
	if len(r.UnknownIDs) > 0 {
		b.WriteString(fmt.Sprintf(" %d documentos desconocidos (%s);",
			len(r.UnknownIDs), joinIDs(r.UnknownIDs)))
	}
	if len(r.DuplicateIDs) > 0 {
		b.WriteString(fmt.Sprintf(" %d documentos duplicados (%s);",
			len(r.DuplicateIDs), joinIDs(r.DuplicateIDs)))
	}
	for _, issue := range r.CategoryIssues {
		b.WriteString(fmt.Sprintf(" %s monto %s: %s;",
			issue.NationalID, issue.Amount.String(), issue.Reason))
	}
	return strings.TrimSuffix(b.String(), ";")
}

func joinIDs(ids []shared.NationalID) string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return strings.Join(out, ", ")
}
