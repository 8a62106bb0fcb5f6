// Package scheduler implementa la ejecución de tareas periódicas en segundo
// plano: refresco de la configuración de precios vigente y precalentamiento
// del panel de elegibilidad antes del horario de trabajo.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pem-hub/pem-payments-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// ERRORES
// ══════════════════════════════════════════════════════════════════════════════

var (
	ErrNilJob         = errors.New("scheduler: job is nil")
	ErrNilSchedule    = errors.New("scheduler: schedule is nil")
	ErrJobExists      = errors.New("scheduler: job already registered")
	ErrJobNotFound    = errors.New("scheduler: job not found")
	ErrAlreadyRunning = errors.New("scheduler: already running")
	ErrNotRunning     = errors.New("scheduler: not running")
)

// ══════════════════════════════════════════════════════════════════════════════
// INTERFACES
// ══════════════════════════════════════════════════════════════════════════════

// Job es una tarea periódica registrable en el planificador.
type Job interface {
	// Name devuelve el nombre único de la tarea.
	Name() string

	// Run ejecuta la tarea. El contexto se cancela cuando el planificador
	// se detiene.
	Run(ctx context.Context) error

	// Description devuelve una descripción legible de la tarea.
	Description() string
}

// Schedule determina cuándo debe ejecutarse una tarea.
type Schedule interface {
	// Next devuelve la próxima ejecución posterior a t.
	Next(t time.Time) time.Time

	// String devuelve una representación legible del cronograma.
	String() string
}

// JobResult registra el resultado de una ejecución.
type JobResult struct {
	JobName     string
	StartedAt   time.Time
	CompletedAt time.Time
	Duration    time.Duration
	Success     bool
	Error       error
}

// ══════════════════════════════════════════════════════════════════════════════
// PLANIFICADOR
// ══════════════════════════════════════════════════════════════════════════════

// Scheduler administra y ejecuta las tareas registradas.
type Scheduler struct {
	mu sync.RWMutex

	log      *logger.Logger
	timezone *time.Location

	jobs      map[string]*scheduledJob
	running   bool
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	startedAt time.Time

	lastRuns map[string]*JobResult
}

type scheduledJob struct {
	job       Job
	schedule  Schedule
	enabled   bool
	lastRun   time.Time
	nextRun   time.Time
	runCount  int64
	failCount int64
}

// Config contiene la configuración del planificador.
type Config struct {
	Logger   *logger.Logger
	Timezone *time.Location
}

// NewScheduler crea un planificador vacío.
func NewScheduler(config Config) *Scheduler {
	if config.Logger == nil {
		config.Logger = logger.Default()
	}
	if config.Timezone == nil {
		config.Timezone = time.UTC
	}

	return &Scheduler{
		log:      config.Logger.With(logger.Component("scheduler")),
		timezone: config.Timezone,
		jobs:     make(map[string]*scheduledJob),
		lastRuns: make(map[string]*JobResult),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// REGISTRO DE TAREAS
// ══════════════════════════════════════════════════════════════════════════════

// Register agrega una tarea con su cronograma.
func (s *Scheduler) Register(job Job, schedule Schedule) error {
	if job == nil {
		return ErrNilJob
	}
	if schedule == nil {
		return ErrNilSchedule
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	name := job.Name()
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("%w: %s", ErrJobExists, name)
	}

	now := time.Now().In(s.timezone)
	sj := &scheduledJob{
		job:      job,
		schedule: schedule,
		enabled:  true,
		nextRun:  schedule.Next(now),
	}
	s.jobs[name] = sj

	s.log.Info("tarea registrada",
		logger.String("job", name),
		logger.String("schedule", schedule.String()),
		logger.Time("next_run", sj.nextRun),
	)

	return nil
}

// Unregister elimina una tarea registrada.
func (s *Scheduler) Unregister(jobName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[jobName]; !exists {
		return fmt.Errorf("%w: %s", ErrJobNotFound, jobName)
	}

	delete(s.jobs, jobName)
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// CICLO DE VIDA
// ══════════════════════════════════════════════════════════════════════════════

// Start inicia el bucle del planificador.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.running = true
	s.startedAt = time.Now()
	jobCount := len(s.jobs)
	s.mu.Unlock()

	s.log.Info("planificador iniciado", logger.Int("jobs", jobCount))

	s.wg.Add(1)
	go s.runLoop()

	return nil
}

// Stop detiene el planificador y espera a que terminen las tareas en curso.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return ErrNotRunning
	}
	s.running = false
	s.cancel()
	s.mu.Unlock()

	s.wg.Wait()

	s.log.Info("planificador detenido",
		logger.Duration("uptime", time.Since(s.startedAt)),
	)

	return nil
}

// IsRunning indica si el planificador está activo.
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// RunNow ejecuta una tarea de forma inmediata, fuera de su cronograma.
func (s *Scheduler) RunNow(ctx context.Context, jobName string) error {
	s.mu.RLock()
	sj, exists := s.jobs[jobName]
	s.mu.RUnlock()

	if !exists {
		return fmt.Errorf("%w: %s", ErrJobNotFound, jobName)
	}

	return sj.job.Run(ctx)
}

// LastResult devuelve el último resultado registrado de una tarea.
func (s *Scheduler) LastResult(jobName string) (*JobResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.lastRuns[jobName]
	return r, ok
}

// ══════════════════════════════════════════════════════════════════════════════
// BUCLE PRINCIPAL
// ══════════════════════════════════════════════════════════════════════════════

func (s *Scheduler) runLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.checkAndRunJobs()
		}
	}
}

func (s *Scheduler) checkAndRunJobs() {
	now := time.Now().In(s.timezone)

	s.mu.RLock()
	due := make([]*scheduledJob, 0)
	for _, sj := range s.jobs {
		if sj.enabled && !sj.nextRun.IsZero() && now.After(sj.nextRun) {
			due = append(due, sj)
		}
	}
	s.mu.RUnlock()

	for _, sj := range due {
		s.wg.Add(1)
		go s.runJob(sj)
	}
}

func (s *Scheduler) runJob(sj *scheduledJob) {
	defer s.wg.Done()

	jobName := sj.job.Name()
	startedAt := time.Now()

	s.log.Debug("tarea iniciada", logger.String("job", jobName))

	// El próximo turno se calcula antes de ejecutar para que una tarea
	// lenta no se dispare dos veces seguidas.
	s.mu.Lock()
	sj.lastRun = startedAt
	sj.nextRun = sj.schedule.Next(startedAt.In(s.timezone))
	sj.runCount++
	s.mu.Unlock()

	err := sj.job.Run(s.ctx)
	completedAt := time.Now()

	result := JobResult{
		JobName:     jobName,
		StartedAt:   startedAt,
		CompletedAt: completedAt,
		Duration:    completedAt.Sub(startedAt),
		Success:     err == nil,
		Error:       err,
	}

	s.mu.Lock()
	if err != nil {
		sj.failCount++
	}
	s.lastRuns[jobName] = &result
	s.mu.Unlock()

	if err != nil {
		s.log.Error("tarea fallida",
			logger.String("job", jobName),
			logger.Duration("duration", result.Duration),
			logger.Err(err),
		)
		return
	}

	s.log.Info("tarea completada",
		logger.String("job", jobName),
		logger.Duration("duration", result.Duration),
	)
}
