// Package participant contiene el modelo de dominio de los participantes de
// los programas de empleo subsidiado. Es el núcleo de la lógica de negocio:
// no tiene dependencias de infraestructura.
package participant

import (
	"strings"
	"time"

	"github.com/pem-hub/pem-payments-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROGRAMAS
// ══════════════════════════════════════════════════════════════════════════════

// Program identifica el programa de empleo al que pertenece un participante.
type Program string

const (
	// ProgramEmpleoJoven - programa para jóvenes, con límite de edad (28 años)
	// y monto fijo por período.
	ProgramEmpleoJoven Program = "EMPLEO_JOVEN"

	// ProgramPromover - programa de actividades productivas, monto fijo.
	ProgramPromover Program = "PROMOVER"

	// ProgramTutores - programa de tutorías. El monto depende de la categoría
	// del tutor y no tiene tope de cantidad de pagos.
	ProgramTutores Program = "TUTORES"
)

// AllPrograms devuelve los programas conocidos.
func AllPrograms() []Program {
	return []Program{ProgramEmpleoJoven, ProgramPromover, ProgramTutores}
}

// IsValid verifica que el programa sea uno de los conocidos.
func (p Program) IsValid() bool {
	switch p {
	case ProgramEmpleoJoven, ProgramPromover, ProgramTutores:
		return true
	default:
		return false
	}
}

// String devuelve la representación en texto.
func (p Program) String() string {
	return string(p)
}

// HasCategories indica si el monto del programa depende de la categoría del
// participante (sólo tutorías).
func (p Program) HasCategories() bool {
	return p == ProgramTutores
}

// HasPaymentLimit indica si el programa tiene tope de cantidad de pagos.
// Las tutorías pueden cobrarse indefinidamente.
func (p Program) HasPaymentLimit() bool {
	return p != ProgramTutores
}

// HasAgeLimit indica si el programa tiene límite de edad.
func (p Program) HasAgeLimit() bool {
	return p == ProgramEmpleoJoven
}

// ParseProgram interpreta un programa desde texto, tolerando mayúsculas.
func ParseProgram(s string) (Program, error) {
	p := Program(strings.ToUpper(strings.TrimSpace(s)))
	if !p.IsValid() {
		return "", shared.ErrInvalidProgram
	}
	return p, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ESTADO DEL PARTICIPANTE
// ══════════════════════════════════════════════════════════════════════════════

// Status es el estado de ciclo de vida del participante en el programa.
// Los valores son los visibles para el usuario, por eso están en castellano.
type Status string

const (
	// StatusIngresado - dado de alta, todavía sin pagos conciliados.
	StatusIngresado Status = "Ingresado"
	// StatusActivo - con pagos conciliados normalmente.
	StatusActivo Status = "Activo"
	// StatusRequiereAtencion - no apareció en el último archivo de pago.
	StatusRequiereAtencion Status = "Requiere Atención"
	// StatusBaja - dado de baja del programa.
	StatusBaja Status = "Baja"
)

// IsValid verifica que el estado sea uno de los conocidos.
func (s Status) IsValid() bool {
	switch s {
	case StatusIngresado, StatusActivo, StatusRequiereAtencion, StatusBaja:
		return true
	default:
		return false
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// ENTIDAD PRINCIPAL: PARTICIPANTE
// ══════════════════════════════════════════════════════════════════════════════

// Participant es la entidad central del sistema.
type Participant struct {
	// ID - identificador interno (UUID en formato string).
	ID string

	// FullName - nombre y apellido.
	FullName string

	// NationalID - documento en forma canónica (sólo dígitos). Único.
	NationalID shared.NationalID

	// BirthDate - fecha de nacimiento, usada para el control de edad.
	BirthDate time.Time

	// Program - programa al que pertenece.
	Program Program

	// Category - categoría de tutoría. Sólo relevante para TUTORES;
	// vacía para el resto de los programas.
	Category string

	// PaymentCount - cantidad acumulada de pagos conciliados. Sólo lo
	// incrementa el coordinador de commits y sólo lo decrementa la
	// reversión explícita de un lote.
	PaymentCount int

	// LastPaidPeriod - último período pagado ("MM/YYYY"), zero si nunca cobró.
	LastPaidPeriod shared.Period

	// Active - bandera de actividad.
	Active bool

	// Status - estado de ciclo de vida.
	Status Status

	// AbsencePeriod - período de la ausencia detectada. Sólo tiene valor
	// mientras el estado es Requiere Atención.
	AbsencePeriod shared.Period

	// IsStaff - integrante del equipo técnico. Excluido de la detección de
	// ausencias y de los topes de pago.
	IsStaff bool

	// EnrollmentAct - acto administrativo que autorizó el alta.
	EnrollmentAct shared.ActReference

	// CreatedAt - momento de creación del registro.
	CreatedAt time.Time

	// UpdatedAt - momento de la última modificación.
	UpdatedAt time.Time
}

// New crea un participante recién ingresado.
func New(id, fullName string, nationalID shared.NationalID, birthDate time.Time, program Program) (*Participant, error) {
	if !nationalID.IsValid() {
		return nil, shared.ErrInvalidNationalID
	}
	if !program.IsValid() {
		return nil, shared.ErrInvalidProgram
	}
	now := time.Now().UTC()
	return &Participant{
		ID:         id,
		FullName:   strings.TrimSpace(fullName),
		NationalID: nationalID,
		BirthDate:  birthDate,
		Program:    program,
		Status:     StatusIngresado,
		Active:     true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// Validate verifica los invariantes de la entidad. Documentos que no cumplen
// se rechazan en la capa de persistencia en lugar de coercionarse.
func (p *Participant) Validate() error {
	if !p.NationalID.IsValid() {
		return shared.ErrInvalidNationalID
	}
	if !p.Program.IsValid() {
		return shared.ErrInvalidProgram
	}
	if !p.Status.IsValid() {
		return shared.ErrInvalidStatusTransition
	}
	if p.PaymentCount < 0 {
		return shared.ErrNegativeValue
	}
	if p.FullName == "" {
		return shared.ErrEmptyValue
	}
	return nil
}

// RegisterPayment aplica sobre la entidad el efecto de un pago conciliado:
// suma exactamente un pago, fija el último período pagado, fuerza actividad
// y estado Activo, y limpia cualquier marca de ausencia previa.
func (p *Participant) RegisterPayment(period shared.Period) {
	p.PaymentCount++
	p.LastPaidPeriod = period
	p.Active = true
	p.Status = StatusActivo
	p.AbsencePeriod = shared.Period{}
	p.UpdatedAt = time.Now().UTC()
}

// RevertPayment deshace el efecto de un pago revertido. Nunca deja el
// contador por debajo de cero.
func (p *Participant) RevertPayment() {
	if p.PaymentCount > 0 {
		p.PaymentCount--
	}
	p.UpdatedAt = time.Now().UTC()
}

// FlagAbsence marca al participante como ausente en el período indicado.
func (p *Participant) FlagAbsence(period shared.Period) {
	p.Status = StatusRequiereAtencion
	p.AbsencePeriod = period
	p.UpdatedAt = time.Now().UTC()
}

// ClearAbsence revierte una marca de ausencia, restituyendo el estado Activo.
func (p *Participant) ClearAbsence() {
	p.Status = StatusActivo
	p.AbsencePeriod = shared.Period{}
	p.UpdatedAt = time.Now().UTC()
}

// Deactivate da de baja al participante.
func (p *Participant) Deactivate() {
	p.Active = false
	p.Status = StatusBaja
	p.AbsencePeriod = shared.Period{}
	p.UpdatedAt = time.Now().UTC()
}

// Reactivate reincorpora a un participante dado de baja.
func (p *Participant) Reactivate() {
	p.Active = true
	p.Status = StatusActivo
	p.UpdatedAt = time.Now().UTC()
}

// AssignCategory fija la categoría de tutoría calculada en la conciliación.
func (p *Participant) AssignCategory(category string) {
	p.Category = category
	p.UpdatedAt = time.Now().UTC()
}

// EligibleForAbsenceCheck indica si el participante entra en la detección de
// ausencias: activo, con historia de pagos (no Ingresado) y no staff.
func (p *Participant) EligibleForAbsenceCheck() bool {
	return p.Active && p.Status != StatusIngresado && !p.IsStaff
}

// Age devuelve la edad en años cumplidos a la fecha de referencia.
func (p *Participant) Age(ref time.Time) int {
	years := ref.Year() - p.BirthDate.Year()
	if ref.Month() < p.BirthDate.Month() ||
		(ref.Month() == p.BirthDate.Month() && ref.Day() < p.BirthDate.Day()) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}
