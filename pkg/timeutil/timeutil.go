// Package timeutil provides timezone utilities for the Buenos Aires timezone (UTC-3).
// All payment periods, upload timestamps and age calculations in the payments hub
// are anchored to this timezone. Argentina abolished DST in 2009, so the offset
// is constant year-round.
// No external dependencies - uses only standard library.
package timeutil

import (
	"fmt"
	"time"
)

// BuenosAiresTZ is the Buenos Aires timezone (UTC-3, no DST).
var BuenosAiresTZ = time.FixedZone("America/Argentina/Buenos_Aires", -3*60*60)

// Now returns the current time in Buenos Aires timezone.
func Now() time.Time {
	return time.Now().In(BuenosAiresTZ)
}

// ToLocal converts a time to Buenos Aires timezone.
func ToLocal(t time.Time) time.Time {
	return t.In(BuenosAiresTZ)
}

// ToUTC converts a time to UTC.
func ToUTC(t time.Time) time.Time {
	return t.UTC()
}

// Date creates a time in Buenos Aires timezone with the given date.
func Date(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, BuenosAiresTZ)
}

// StartOfDay returns the start of the day (00:00:00) in Buenos Aires timezone.
func StartOfDay(t time.Time) time.Time {
	local := ToLocal(t)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, BuenosAiresTZ)
}

// StartOfMonth returns the start of the month in Buenos Aires timezone.
func StartOfMonth(t time.Time) time.Time {
	local := ToLocal(t)
	return time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, BuenosAiresTZ)
}

// EndOfMonth returns the last instant of the month in Buenos Aires timezone.
func EndOfMonth(t time.Time) time.Time {
	start := StartOfMonth(t)
	return start.AddDate(0, 1, 0).Add(-time.Nanosecond)
}

// YearsBetween returns the number of whole calendar years between birth and ref.
// The count is decremented when ref's month/day precedes birth's month/day,
// which is how a person's age is legally computed.
func YearsBetween(birth, ref time.Time) int {
	birth = ToLocal(birth)
	ref = ToLocal(ref)

	years := ref.Year() - birth.Year()
	if ref.Month() < birth.Month() ||
		(ref.Month() == birth.Month() && ref.Day() < birth.Day()) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}

// Age returns the current age in whole years for the given birth date.
func Age(birth time.Time) int {
	return YearsBetween(birth, Now())
}

// FormatDate formats a time as DD/MM/YYYY, the date format used in uploads
// and administrative acts.
func FormatDate(t time.Time) string {
	local := ToLocal(t)
	return fmt.Sprintf("%02d/%02d/%04d", local.Day(), local.Month(), local.Year())
}

// FormatDateTime formats a time as DD/MM/YYYY HH:MM in local time.
func FormatDateTime(t time.Time) string {
	local := ToLocal(t)
	return fmt.Sprintf("%02d/%02d/%04d %02d:%02d",
		local.Day(), local.Month(), local.Year(), local.Hour(), local.Minute())
}

// SameDay checks if two times fall on the same calendar day in local time.
func SameDay(a, b time.Time) bool {
	la, lb := ToLocal(a), ToLocal(b)
	return la.Year() == lb.Year() && la.Month() == lb.Month() && la.Day() == lb.Day()
}
