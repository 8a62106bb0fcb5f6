package scheduler

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pem-hub/pem-payments-hub/pkg/logger"
)

type countingJob struct {
	name string
	runs atomic.Int64
	err  error
}

func (j *countingJob) Name() string        { return j.name }
func (j *countingJob) Description() string { return "tarea de prueba" }

func (j *countingJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	return j.err
}

func testScheduler() *Scheduler {
	return NewScheduler(Config{
		Logger: logger.New(logger.Options{Output: io.Discard, Level: logger.LevelFatal}),
	})
}

func TestRegisterValidation(t *testing.T) {
	s := testScheduler()
	job := &countingJob{name: "refresh"}

	assert.ErrorIs(t, s.Register(nil, NewIntervalSchedule(time.Minute)), ErrNilJob)
	assert.ErrorIs(t, s.Register(job, nil), ErrNilSchedule)

	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Minute)))
	assert.ErrorIs(t, s.Register(job, NewIntervalSchedule(time.Minute)), ErrJobExists)
}

func TestUnregister(t *testing.T) {
	s := testScheduler()
	job := &countingJob{name: "refresh"}
	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Minute)))

	require.NoError(t, s.Unregister("refresh"))
	assert.ErrorIs(t, s.Unregister("refresh"), ErrJobNotFound)
}

func TestStartStopLifecycle(t *testing.T) {
	s := testScheduler()

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())
	assert.ErrorIs(t, s.Start(context.Background()), ErrAlreadyRunning)

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	assert.ErrorIs(t, s.Stop(), ErrNotRunning)
}

func TestRunNow(t *testing.T) {
	s := testScheduler()
	job := &countingJob{name: "refresh"}
	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Hour)))

	require.NoError(t, s.RunNow(context.Background(), "refresh"))
	assert.Equal(t, int64(1), job.runs.Load())

	assert.ErrorIs(t, s.RunNow(context.Background(), "otra"), ErrJobNotFound)
}

func TestSchedulerRunsDueJobs(t *testing.T) {
	s := testScheduler()
	job := &countingJob{name: "refresh"}
	require.NoError(t, s.Register(job, NewIntervalSchedule(100*time.Millisecond)))

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	// El bucle revisa una vez por segundo, hay que darle margen.
	require.Eventually(t, func() bool {
		return job.runs.Load() >= 1
	}, 5*time.Second, 50*time.Millisecond)

	result, ok := s.LastResult("refresh")
	require.True(t, ok)
	assert.True(t, result.Success)
	assert.Equal(t, "refresh", result.JobName)
}

func TestSchedulerRecordsFailures(t *testing.T) {
	s := testScheduler()
	job := &countingJob{name: "refresh", err: errors.New("store down")}
	require.NoError(t, s.Register(job, NewIntervalSchedule(100*time.Millisecond)))

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	require.Eventually(t, func() bool {
		_, ok := s.LastResult("refresh")
		return ok
	}, 5*time.Second, 50*time.Millisecond)

	result, _ := s.LastResult("refresh")
	assert.False(t, result.Success)
	assert.Error(t, result.Error)
}

func TestIntervalSchedule(t *testing.T) {
	s := NewIntervalSchedule(15 * time.Minute)
	base := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, base.Add(15*time.Minute), s.Next(base))
	assert.Equal(t, "@every 15m0s", s.String())
}

func TestDailySchedule(t *testing.T) {
	tz := time.FixedZone("UTC-3", -3*60*60)
	s := NewDailySchedule(7, 30, tz)

	// Antes de la hora objetivo: ejecuta hoy.
	before := time.Date(2024, 6, 15, 6, 0, 0, 0, tz)
	assert.Equal(t, time.Date(2024, 6, 15, 7, 30, 0, 0, tz), s.Next(before))

	// Después de la hora objetivo: ejecuta mañana.
	after := time.Date(2024, 6, 15, 8, 0, 0, 0, tz)
	assert.Equal(t, time.Date(2024, 6, 16, 7, 30, 0, 0, tz), s.Next(after))

	// En el instante exacto: también mañana.
	exact := time.Date(2024, 6, 15, 7, 30, 0, 0, tz)
	assert.Equal(t, time.Date(2024, 6, 16, 7, 30, 0, 0, tz), s.Next(exact))
}

func TestDailyScheduleNilLocationDefaultsToUTC(t *testing.T) {
	s := NewDailySchedule(7, 30, nil)
	assert.Equal(t, time.UTC, s.Location)
}
