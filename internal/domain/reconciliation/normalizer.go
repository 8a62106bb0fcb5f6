// Package reconciliation contiene el motor de conciliación de archivos de
// pago: normalización del archivo, cálculo de categorías de tutoría y
// clasificación de registros contra el padrón y el período anterior.
// Lógica pura, sin dependencias de infraestructura.
package reconciliation

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/pem-hub/pem-payments-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// NORMALIZADOR DE REGISTROS
// ══════════════════════════════════════════════════════════════════════════════

// RawPayment es un registro normalizado del archivo: documento canónico y
// monto pagado. El orden dentro del archivo no es significativo.
type RawPayment struct {
	NationalID shared.NationalID
	Amount     decimal.Decimal

	// Line - número de línea original, para los reportes de bloqueo.
	Line int
}

// Palabras de encabezado reconocidas. Si la primera línea contiene alguna
// (sin distinguir mayúsculas) se descarta como encabezado.
var headerKeywords = []string{
	"dni", "cuil", "documento", "monto", "importe", "apellido", "nombre", "beneficiario",
}

// Normalize parsea el texto crudo del archivo de pago, una línea por registro.
// Detecta el separador (punto y coma si aparece en alguna línea, coma en caso
// contrario), descarta el encabezado si lo hay y emite pares (documento,
// monto). Las líneas malformadas se descartan en silencio, sin registros
// parciales: un registro se conserva sólo si el documento tiene más de seis
// dígitos y el monto parsea a un número finito.
func Normalize(raw string) []RawPayment {
	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")
	sep := detectSeparator(lines)

	out := make([]RawPayment, 0, len(lines))
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if i == 0 && isHeader(line) {
			continue
		}

		fields := strings.Split(line, sep)
		if len(fields) < 2 {
			continue
		}

		id := shared.NormalizeNationalID(fields[0])
		if !id.IsValid() {
			continue
		}

		amount, ok := parseAmount(fields[1])
		if !ok {
			continue
		}

		out = append(out, RawPayment{NationalID: id, Amount: amount, Line: i + 1})
	}
	return out
}

// detectSeparator devuelve ";" si alguna línea lo contiene, "," si no.
func detectSeparator(lines []string) string {
	for _, line := range lines {
		if strings.Contains(line, ";") {
			return ";"
		}
	}
	return ","
}

// isHeader aplica la heurística de encabezado sobre la primera línea.
func isHeader(line string) bool {
	lower := strings.ToLower(line)
	for _, kw := range headerKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// parseAmount limpia separadores de miles, convierte la coma decimal a punto
// y parsea el monto. Cuando aparecen punto y coma a la vez, el que está más a
// la derecha es el separador decimal ("1.500,50" y "1,500.50" valen 1500.50).
func parseAmount(raw string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return decimal.Decimal{}, false
	}

	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")

	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	case lastDot >= 0:
		if strings.Count(s, ".") > 1 {
			s = strings.ReplaceAll(s, ".", "")
		}
	}

	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return amount, true
}
