package participant

import (
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// MOTOR DE ALERTAS DE ELEGIBILIDAD
// Función pura del programa, el contador de pagos y la edad. Se evalúa para
// mostrar en pantalla: no bloquea la conciliación. O(1) por participante,
// apta para correr sobre el padrón completo en cada render del tablero.
// ══════════════════════════════════════════════════════════════════════════════

// Severity es el nivel de la alerta de elegibilidad.
type Severity string

const (
	// SeverityNormal - sin observaciones.
	SeverityNormal Severity = "normal"
	// SeverityWarning - se acerca a un tope.
	SeverityWarning Severity = "warning"
	// SeveritySevere - requiere intervención administrativa.
	SeveritySevere Severity = "severe"
	// SeverityInfo - estado informativo (equipo técnico).
	SeverityInfo Severity = "info"
)

// Alert es el resultado de evaluar la elegibilidad de un participante.
type Alert struct {
	Severity Severity
	// Label es el texto visible para el usuario.
	Label string
}

// Umbrales de alerta por cantidad de pagos. A los 6 pagos se necesita un acto
// de autorización para continuar; a los 12 termina el ciclo del programa.
const (
	AuthorizationThreshold = 6
	CycleEndThreshold      = 12
	// AgeLimit es la edad máxima para el programa con límite etario.
	AgeLimit = 28
)

// Textos de alerta visibles para el usuario.
const (
	LabelStaff             = "Equipo Técnico"
	LabelAgeLimit          = "Límite de Edad Alcanzado"
	LabelAuthorization     = "Requiere Autorización (6 Pagos)"
	LabelCycleEnd          = "Fin de Ciclo (12 Pagos)"
	LabelExceeded          = "Excedido (Revisar)"
	LabelApproachingLimit  = "Próximo a Vencimiento"
	LabelInProgress        = "En Curso"
)

// Eligibility evalúa las reglas de alerta en orden de precedencia:
//  1. equipo técnico: informativo, sin más controles;
//  2. programa con límite etario y edad >= 28: alerta grave;
//  3. programas con tope de pagos: 6 y 12 graves, >12 grave, 5 y 11 aviso;
//  4. el resto: en curso.
func Eligibility(p *Participant, ref time.Time) Alert {
	if p.IsStaff {
		return Alert{Severity: SeverityInfo, Label: LabelStaff}
	}

	if p.Program.HasAgeLimit() && p.Age(ref) >= AgeLimit {
		return Alert{Severity: SeveritySevere, Label: LabelAgeLimit}
	}

	if p.Program.HasPaymentLimit() {
		switch {
		case p.PaymentCount == AuthorizationThreshold:
			return Alert{Severity: SeveritySevere, Label: LabelAuthorization}
		case p.PaymentCount == CycleEndThreshold:
			return Alert{Severity: SeveritySevere, Label: LabelCycleEnd}
		case p.PaymentCount > CycleEndThreshold:
			return Alert{Severity: SeveritySevere, Label: LabelExceeded}
		case p.PaymentCount == AuthorizationThreshold-1,
			p.PaymentCount == CycleEndThreshold-1:
			return Alert{Severity: SeverityWarning, Label: LabelApproachingLimit}
		}
	}

	return Alert{Severity: SeverityNormal, Label: LabelInProgress}
}
