// Package shared contiene tipos de dominio comunes (errores, eventos y value
// objects) usados por todos los paquetes de dominio.
package shared

import (
	"errors"
	"fmt"
)

// Errores base del dominio, comparables con errors.Is().
var (
	// Errores de entidad
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrInvalidEntity = errors.New("invalid entity")

	// Errores de validación
	ErrValidation    = errors.New("validation error")
	ErrInvalidID     = errors.New("invalid ID")
	ErrInvalidInput  = errors.New("invalid input")
	ErrEmptyValue    = errors.New("value cannot be empty")
	ErrNegativeValue = errors.New("value cannot be negative")
	ErrInvalidPeriod = errors.New("invalid period")
	ErrInvalidFormat = errors.New("invalid format")

	// Errores de estado
	ErrInvalidState    = errors.New("invalid state")
	ErrStateTransition = errors.New("invalid state transition")
	ErrAlreadyApplied  = errors.New("already applied")

	// Errores del almacén de documentos
	ErrStoreUnavailable = errors.New("document store unavailable")
	ErrBatchTooLarge    = errors.New("write batch exceeds store limit")
	ErrBatchRejected    = errors.New("write batch rejected")
	ErrTimeout          = errors.New("operation timeout")
)

// DomainError representa un error de dominio con contexto.
type DomainError struct {
	Domain  string // por ejemplo "participant", "pricing", "reconciliation"
	Op      string // operación que falló, por ejemplo "Create", "Commit"
	Kind    error  // error base para comparar con errors.Is()
	Message string // mensaje legible
	Err     error  // error subyacente (opcional)
}

// Error implementa la interfaz error.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap devuelve el error subyacente para errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implementa la comparación de errors.Is().
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError crea un nuevo error de dominio.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError envuelve un error existente con contexto de dominio.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Errores del dominio participante
var (
	ErrParticipantNotFound      = NewDomainError("participant", "Find", ErrNotFound, "participant not found")
	ErrParticipantAlreadyExists = NewDomainError("participant", "Create", ErrAlreadyExists, "participant already exists")
	ErrInvalidNationalID        = NewDomainError("participant", "Validate", ErrInvalidID, "invalid national ID")
	ErrInvalidProgram           = NewDomainError("participant", "Validate", ErrInvalidInput, "invalid program")
	ErrParticipantNotActive     = NewDomainError("participant", "CheckStatus", ErrInvalidState, "participant is not active")
	ErrInvalidStatusTransition  = NewDomainError("participant", "UpdateStatus", ErrStateTransition, "invalid status transition")
)

// Errores del dominio de configuración de montos
var (
	ErrConfigurationNotFound = NewDomainError("pricing", "Resolve", ErrNotFound, "no applicable pricing configuration")
	ErrConfigurationExists   = NewDomainError("pricing", "Create", ErrAlreadyExists, "configuration for that effective period already exists")
	ErrEmptyConfiguration    = NewDomainError("pricing", "Validate", ErrEmptyValue, "configuration has no amounts")
)

// Errores del dominio de pagos
var (
	ErrPaymentNotFound   = NewDomainError("payment", "Find", ErrNotFound, "payment record not found")
	ErrDuplicatePayment  = NewDomainError("payment", "Create", ErrAlreadyExists, "payment already recorded for that period and program")
	ErrUploadNotFound    = NewDomainError("payment", "FindUpload", ErrNotFound, "upload record not found")
	ErrUploadNotReversed = NewDomainError("payment", "Reverse", ErrInvalidState, "upload could not be fully reversed")
)

// IsNotFound indica si el error corresponde a "no encontrado".
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists indica si el error corresponde a "ya existe".
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation indica si el error es de validación de entrada.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrNegativeValue) ||
		errors.Is(err, ErrInvalidPeriod)
}

// IsStoreFailure indica si el error proviene del almacén de documentos.
// Ante estos errores el lote completo debe tratarse como no aplicado.
func IsStoreFailure(err error) bool {
	return errors.Is(err, ErrStoreUnavailable) ||
		errors.Is(err, ErrBatchRejected) ||
		errors.Is(err, ErrBatchTooLarge) ||
		errors.Is(err, ErrTimeout)
}
