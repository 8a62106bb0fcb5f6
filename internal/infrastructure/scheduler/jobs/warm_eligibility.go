package jobs

import (
	"context"

	"github.com/pem-hub/pem-payments-hub/internal/application/query"
	"github.com/pem-hub/pem-payments-hub/pkg/logger"
)

// WarmEligibilityJob reevalúa el panel de elegibilidad del padrón completo y
// deja el resultado en caché, para que la primera consulta de la mañana no
// pague el recorrido completo.
type WarmEligibilityJob struct {
	handler *query.GetEligibilityHandler
	log     *logger.Logger
}

// NewWarmEligibilityJob crea la tarea de precalentamiento.
func NewWarmEligibilityJob(handler *query.GetEligibilityHandler, log *logger.Logger) *WarmEligibilityJob {
	return &WarmEligibilityJob{
		handler: handler,
		log:     log.With(logger.Component("job_warm_eligibility")),
	}
}

// Name devuelve el nombre de la tarea.
func (j *WarmEligibilityJob) Name() string { return "warm_eligibility" }

// Description devuelve la descripción de la tarea.
func (j *WarmEligibilityJob) Description() string {
	return "precalienta el panel de elegibilidad del padrón completo"
}

// Run ejecuta la reevaluación. El propio handler guarda el resultado en caché.
func (j *WarmEligibilityJob) Run(ctx context.Context) error {
	snapshot, err := j.handler.Handle(ctx, query.GetEligibilityQuery{SkipCache: true})
	if err != nil {
		return err
	}
	j.log.Debug("panel de elegibilidad precalentado",
		logger.Int("alerts", len(snapshot.Alerts)),
	)
	return nil
}
