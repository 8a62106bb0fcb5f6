// Package shared contiene tipos de dominio comunes (errores, eventos y value
// objects) usados por todos los paquetes de dominio.
package shared

import (
	"time"
)

// EventType identifica el tipo de evento de dominio.
type EventType string

// Tipos de eventos de dominio. Cada evento representa algo significativo que
// ocurrió en el registro de participantes o en la conciliación de pagos.
const (
	// Eventos de participantes
	EventParticipantEnrolled    EventType = "participant.enrolled"
	EventParticipantDeactivated EventType = "participant.deactivated"
	EventParticipantReactivated EventType = "participant.reactivated"
	EventAbsenceFlagged         EventType = "participant.absence_flagged"

	// Eventos de conciliación
	EventBatchCommitted EventType = "payment.batch_committed"
	EventBatchReversed  EventType = "payment.batch_reversed"

	// Eventos de configuración de montos
	EventConfigurationCreated EventType = "pricing.configuration_created"
	EventConfigurationEdited  EventType = "pricing.configuration_edited"
)

// Event es la interfaz base de todos los eventos de dominio.
type Event interface {
	// EventType devuelve el tipo del evento.
	EventType() EventType

	// OccurredAt devuelve cuándo ocurrió el evento.
	OccurredAt() time.Time

	// AggregateID devuelve el ID del agregado que produjo el evento.
	AggregateID() string

	// Payload devuelve los datos del evento para serialización.
	Payload() map[string]interface{}
}

// BaseEvent aporta la funcionalidad común de los eventos.
type BaseEvent struct {
	Type        EventType `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	AggregateId string    `json:"aggregate_id"`
}

// NewBaseEvent crea un evento base con timestamp actual.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		AggregateId: aggregateID,
	}
}

// EventType devuelve el tipo del evento.
func (e BaseEvent) EventType() EventType { return e.Type }

// OccurredAt devuelve cuándo ocurrió el evento.
func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }

// AggregateID devuelve el ID del agregado.
func (e BaseEvent) AggregateID() string { return e.AggregateId }

// GenericEvent es un evento con payload arbitrario.
type GenericEvent struct {
	BaseEvent
	Data map[string]interface{} `json:"data,omitempty"`
}

// NewEvent crea un evento genérico.
func NewEvent(eventType EventType, aggregateID string, data map[string]interface{}) *GenericEvent {
	return &GenericEvent{
		BaseEvent: NewBaseEvent(eventType, aggregateID),
		Data:      data,
	}
}

// Payload devuelve los datos del evento.
func (e *GenericEvent) Payload() map[string]interface{} { return e.Data }

// EventHandler procesa un evento de dominio.
type EventHandler interface {
	Handle(event Event) error
}

// EventHandlerFunc adapta una función como EventHandler.
type EventHandlerFunc func(event Event) error

// Handle implementa EventHandler.
func (f EventHandlerFunc) Handle(event Event) error { return f(event) }

// EventPublisher publica eventos de dominio hacia los suscriptores.
type EventPublisher interface {
	// Publish publica un evento. No debe bloquear la operación de negocio:
	// los errores de publicación se registran, no se propagan.
	Publish(event Event)
}

// NopPublisher descarta todos los eventos. Útil en tests.
type NopPublisher struct{}

// Publish descarta el evento.
func (NopPublisher) Publish(Event) {}
