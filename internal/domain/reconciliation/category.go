package reconciliation

import (
	"github.com/shopspring/decimal"

	"github.com/pem-hub/pem-payments-hub/internal/domain/pricing"
)

// ══════════════════════════════════════════════════════════════════════════════
// CALCULADORA DE CATEGORÍAS
// Sólo se invoca para el programa de tutorías: infiere la categoría del tutor
// a partir del monto pagado, por búsqueda exacta (sin tolerancia ni redondeo)
// en la tabla monto→categoría de la configuración vigente.
// ══════════════════════════════════════════════════════════════════════════════

// CategoryReason explica por qué no pudo asignarse categoría. Los textos son
// los visibles para el operador en el reporte de bloqueo.
type CategoryReason string

const (
	// ReasonConfigMissing - no hay configuración vigente para el período.
	ReasonConfigMissing CategoryReason = "CONFIGURACION NO ENCONTRADA"
	// ReasonAmountMismatch - el monto no figura en la tabla de categorías.
	ReasonAmountMismatch CategoryReason = "MONTO NO COINCIDE"
)

// CategoryResult es el resultado explícito del cálculo: categoría asignada o
// motivo de falla, nunca un texto centinela circulando como categoría.
type CategoryResult struct {
	Category string
	Reason   CategoryReason
}

// OK indica si se asignó categoría (o no correspondía calcularla).
func (r CategoryResult) OK() bool {
	return r.Reason == ""
}

// CategoryTable es la tabla invertida monto→categoría de una configuración.
// Las claves son la forma canónica del decimal, de modo que "1500,50" del
// archivo y 1500.50 de la configuración coinciden.
type CategoryTable struct {
	byAmount  map[string]string
	hasConfig bool

	// fixed marca la tabla nula de los programas de monto fijo: ahí la
	// categoría no aplica y toda búsqueda devuelve resultado vacío.
	fixed bool
}

// NewCategoryTable construye la tabla desde la configuración resuelta. Sólo
// entran los montos por categoría; los montos fijos de los otros programas
// quedan afuera. Con cfg nil (sin configuración aplicable) toda búsqueda
// devuelve ReasonConfigMissing.
func NewCategoryTable(cfg *pricing.Configuration) *CategoryTable {
	if cfg == nil {
		return &CategoryTable{hasConfig: false}
	}

	byAmount := make(map[string]string, len(cfg.CategoryAmounts))
	for category, amount := range cfg.CategoryAmounts {
		byAmount[amount.String()] = category
	}
	return &CategoryTable{byAmount: byAmount, hasConfig: true}
}

// Classify busca el monto pagado en la tabla, en forma exacta.
func (t *CategoryTable) Classify(amount decimal.Decimal) CategoryResult {
	if t.fixed {
		return CategoryResult{}
	}
	if !t.hasConfig {
		return CategoryResult{Reason: ReasonConfigMissing}
	}
	if category, ok := t.byAmount[amount.String()]; ok {
		return CategoryResult{Category: category}
	}
	return CategoryResult{Reason: ReasonAmountMismatch}
}

// NoCategories devuelve una tabla que asigna siempre resultado vacío, para
// los programas de monto fijo donde la categoría no aplica.
func NoCategories() *CategoryTable {
	return &CategoryTable{byAmount: map[string]string{}, hasConfig: true, fixed: true}
}
