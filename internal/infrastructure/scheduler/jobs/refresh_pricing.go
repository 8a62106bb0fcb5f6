// Package jobs contiene las tareas periódicas del concentrador de pagos.
package jobs

import (
	"context"

	"github.com/pem-hub/pem-payments-hub/internal/domain/pricing"
	"github.com/pem-hub/pem-payments-hub/pkg/logger"
)

// RefreshPricingJob recarga la lista de configuraciones de precios en memoria.
// Mantiene al resolutor al día cuando otra instancia crea o edita una
// configuración directamente en la base.
type RefreshPricingJob struct {
	resolver *pricing.Resolver
	log      *logger.Logger
}

// NewRefreshPricingJob crea la tarea de refresco de precios.
func NewRefreshPricingJob(resolver *pricing.Resolver, log *logger.Logger) *RefreshPricingJob {
	return &RefreshPricingJob{
		resolver: resolver,
		log:      log.With(logger.Component("job_refresh_pricing")),
	}
}

// Name devuelve el nombre de la tarea.
func (j *RefreshPricingJob) Name() string { return "refresh_pricing" }

// Description devuelve la descripción de la tarea.
func (j *RefreshPricingJob) Description() string {
	return "recarga las configuraciones de precios desde la base"
}

// Run ejecuta el refresco.
func (j *RefreshPricingJob) Run(ctx context.Context) error {
	if err := j.resolver.Refresh(ctx); err != nil {
		return err
	}
	j.log.Debug("configuraciones de precios recargadas")
	return nil
}
