package scheduler

import (
	"fmt"
	"time"
)

// IntervalSchedule ejecuta una tarea a intervalos fijos.
type IntervalSchedule struct {
	Interval time.Duration
}

// NewIntervalSchedule crea un cronograma de intervalo fijo.
func NewIntervalSchedule(interval time.Duration) *IntervalSchedule {
	return &IntervalSchedule{Interval: interval}
}

// Next devuelve la próxima ejecución.
func (s *IntervalSchedule) Next(t time.Time) time.Time {
	return t.Add(s.Interval)
}

// String devuelve la representación del cronograma.
func (s *IntervalSchedule) String() string {
	return fmt.Sprintf("@every %s", s.Interval.String())
}

// DailySchedule ejecuta una tarea una vez por día a una hora fija,
// en la zona horaria indicada.
type DailySchedule struct {
	Hour     int
	Minute   int
	Location *time.Location
}

// NewDailySchedule crea un cronograma diario. La hora se interpreta en loc;
// si loc es nil se usa UTC.
func NewDailySchedule(hour, minute int, loc *time.Location) *DailySchedule {
	if loc == nil {
		loc = time.UTC
	}
	return &DailySchedule{Hour: hour, Minute: minute, Location: loc}
}

// Next devuelve la próxima ejecución posterior a t.
func (s *DailySchedule) Next(t time.Time) time.Time {
	local := t.In(s.Location)
	next := time.Date(local.Year(), local.Month(), local.Day(), s.Hour, s.Minute, 0, 0, s.Location)
	if !next.After(local) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// String devuelve la representación del cronograma.
func (s *DailySchedule) String() string {
	return fmt.Sprintf("@daily %02d:%02d %s", s.Hour, s.Minute, s.Location.String())
}
