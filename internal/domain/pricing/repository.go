package pricing

import (
	"context"
)

// Repository define las operaciones sobre el almacén de configuraciones.
type Repository interface {
	// Create guarda una versión nueva y limpia la bandera de vigente en
	// todas las demás, en forma atómica.
	// Devuelve ErrConfigurationExists si ya hay una versión con la misma
	// vigencia.
	Create(ctx context.Context, cfg *Configuration) error

	// Update edita el mismo registro (no crea versión nueva).
	// Devuelve ErrConfigurationNotFound si no existe.
	Update(ctx context.Context, cfg *Configuration) error

	// GetByID devuelve una configuración por ID.
	GetByID(ctx context.Context, id string) (*Configuration, error)

	// GetAll devuelve todas las configuraciones, en cualquier orden.
	// El Resolver se encarga del ordenamiento.
	GetAll(ctx context.Context) ([]*Configuration, error)
}
