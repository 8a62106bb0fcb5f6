// Package pricing contiene la configuración de montos de los programas,
// versionada por período de vigencia. Las configuraciones nunca se mutan al
// crear una nueva versión: la vigente es la última cuyo período efectivo no
// supera al período buscado.
package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/pem-hub/pem-payments-hub/internal/domain/participant"
	"github.com/pem-hub/pem-payments-hub/internal/domain/shared"
)

// Configuration es una versión de la configuración de montos.
type Configuration struct {
	// ID - identificador interno (UUID en formato string).
	ID string

	// EffectivePeriod - período desde el cual rige esta configuración.
	// Rige para todos los períodos posteriores hasta que otra la supere.
	EffectivePeriod shared.Period

	// CategoryAmounts - monto por categoría de tutoría (sólo TUTORES).
	CategoryAmounts map[string]decimal.Decimal

	// ProgramAmounts - monto fijo por programa (EMPLEO_JOVEN, PROMOVER).
	ProgramAmounts map[participant.Program]decimal.Decimal

	// Act - acto administrativo que autoriza estos montos.
	Act shared.ActReference

	// IsCurrent - a lo sumo una configuración lleva esta bandera. Crear una
	// nueva la limpia en todas las demás en forma atómica.
	IsCurrent bool

	// CreatedAt - momento de creación.
	CreatedAt time.Time

	// UpdatedAt - momento de la última edición del mismo registro.
	UpdatedAt time.Time
}

// Validate verifica que la configuración tenga montos y vigencia coherentes.
func (c *Configuration) Validate() error {
	if !c.EffectivePeriod.IsValid() {
		return shared.ErrInvalidPeriod
	}
	if len(c.CategoryAmounts) == 0 && len(c.ProgramAmounts) == 0 {
		return shared.ErrEmptyConfiguration
	}
	return nil
}

// EffectiveKey devuelve la clave ordenable año·100+mes de la vigencia.
func (c *Configuration) EffectiveKey() int {
	return c.EffectivePeriod.Key()
}

// AppliesTo indica si la configuración rige para el período dado.
func (c *Configuration) AppliesTo(period shared.Period) bool {
	return c.EffectiveKey() <= period.Key()
}

// AmountFor devuelve el monto fijo del programa, si está definido.
func (c *Configuration) AmountFor(program participant.Program) (decimal.Decimal, bool) {
	amount, ok := c.ProgramAmounts[program]
	return amount, ok
}

// Categories devuelve las categorías de tutoría definidas.
func (c *Configuration) Categories() []string {
	out := make([]string, 0, len(c.CategoryAmounts))
	for category := range c.CategoryAmounts {
		out = append(out, category)
	}
	return out
}
