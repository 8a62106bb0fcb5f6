// Package shared contiene tipos de dominio comunes (errores, eventos y value
// objects) usados por todos los paquetes de dominio. Este paquete no tiene
// dependencias externas.
package shared

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ═══════════════════════════════════════════════════════════════════════════
// Período de pago (mes/año)
// ═══════════════════════════════════════════════════════════════════════════

// Period identifica un ciclo de pago mensual (mes, año).
type Period struct {
	Month int
	Year  int
}

// NewPeriod crea un período validando sus rangos.
func NewPeriod(month, year int) (Period, error) {
	p := Period{Month: month, Year: year}
	if !p.IsValid() {
		return Period{}, fmt.Errorf("%w: %d/%d", ErrInvalidPeriod, month, year)
	}
	return p, nil
}

// IsValid verifica que el período sea coherente.
func (p Period) IsValid() bool {
	return p.Month >= 1 && p.Month <= 12 && p.Year >= 2000 && p.Year <= 2100
}

// IsZero indica si el período está sin asignar.
func (p Period) IsZero() bool {
	return p.Month == 0 && p.Year == 0
}

// Key devuelve la clave ordenable año·100+mes, usada para comparar períodos
// y para resolver la configuración de precios vigente.
func (p Period) Key() int {
	return p.Year*100 + p.Month
}

// Prev devuelve el período inmediatamente anterior, cruzando el límite de año
// cuando corresponde (01/2025 -> 12/2024).
func (p Period) Prev() Period {
	if p.Month == 1 {
		return Period{Month: 12, Year: p.Year - 1}
	}
	return Period{Month: p.Month - 1, Year: p.Year}
}

// Next devuelve el período siguiente.
func (p Period) Next() Period {
	if p.Month == 12 {
		return Period{Month: 1, Year: p.Year + 1}
	}
	return Period{Month: p.Month + 1, Year: p.Year}
}

// Before indica si p es estrictamente anterior a other.
func (p Period) Before(other Period) bool {
	return p.Key() < other.Key()
}

// Equal indica si ambos períodos coinciden.
func (p Period) Equal(other Period) bool {
	return p.Month == other.Month && p.Year == other.Year
}

// String devuelve el formato "MM/YYYY" usado en registros y pantallas.
func (p Period) String() string {
	return fmt.Sprintf("%02d/%04d", p.Month, p.Year)
}

// ParsePeriod interpreta el formato "MM/YYYY".
func ParsePeriod(s string) (Period, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 2 {
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
	month, err := strconv.Atoi(parts[0])
	if err != nil {
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
	year, err := strconv.Atoi(parts[1])
	if err != nil {
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
	return NewPeriod(month, year)
}

// ═══════════════════════════════════════════════════════════════════════════
// Documento de identidad
// ═══════════════════════════════════════════════════════════════════════════

// NationalID es el documento nacional en forma canónica: sólo dígitos,
// sin puntos ni guiones.
type NationalID string

// MinNationalIDDigits es el largo mínimo aceptado para un documento.
// Registros con menos dígitos se consideran ruido del archivo de pago.
const MinNationalIDDigits = 7

// NormalizeNationalID elimina todo carácter no numérico del valor crudo.
func NormalizeNationalID(raw string) NationalID {
	var b strings.Builder
	for _, r := range raw {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return NationalID(b.String())
}

// IsValid verifica que el documento canónico tenga largo suficiente.
func (n NationalID) IsValid() bool {
	return len(n) >= MinNationalIDDigits
}

// String devuelve la representación en texto.
func (n NationalID) String() string {
	return string(n)
}

// ═══════════════════════════════════════════════════════════════════════════
// Acto administrativo
// ═══════════════════════════════════════════════════════════════════════════

// ActReference es la referencia a la resolución o decreto que autoriza un
// alta o una configuración de montos (por ejemplo "Res. 142/2024").
type ActReference string

// IsZero indica si no se informó acto administrativo.
func (a ActReference) IsZero() bool {
	return strings.TrimSpace(string(a)) == ""
}

// String devuelve la representación en texto.
func (a ActReference) String() string {
	return string(a)
}
