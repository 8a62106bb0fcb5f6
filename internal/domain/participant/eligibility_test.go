package participant

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var refDate = time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

func promoverParticipant(paymentCount int) *Participant {
	return &Participant{
		ID:           "p1",
		NationalID:   "12345678",
		BirthDate:    time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
		Program:      ProgramPromover,
		PaymentCount: paymentCount,
		Active:       true,
		Status:       StatusActivo,
	}
}

func TestEligibilityPaymentThresholds(t *testing.T) {
	tests := []struct {
		payments int
		severity Severity
		label    string
	}{
		{0, SeverityNormal, LabelInProgress},
		{4, SeverityNormal, LabelInProgress},
		{5, SeverityWarning, LabelApproachingLimit},
		{6, SeveritySevere, LabelAuthorization},
		{7, SeverityNormal, LabelInProgress},
		{11, SeverityWarning, LabelApproachingLimit},
		{12, SeveritySevere, LabelCycleEnd},
		{13, SeveritySevere, LabelExceeded},
		{20, SeveritySevere, LabelExceeded},
	}

	for _, tt := range tests {
		alert := Eligibility(promoverParticipant(tt.payments), refDate)
		assert.Equal(t, tt.severity, alert.Severity, "payments=%d", tt.payments)
		assert.Equal(t, tt.label, alert.Label, "payments=%d", tt.payments)
	}
}

func TestEligibilityStaffOverridesEverything(t *testing.T) {
	p := promoverParticipant(13)
	p.IsStaff = true

	alert := Eligibility(p, refDate)
	assert.Equal(t, SeverityInfo, alert.Severity)
	assert.Equal(t, LabelStaff, alert.Label)
}

func TestEligibilityAgeLimit(t *testing.T) {
	p := promoverParticipant(0)
	p.Program = ProgramEmpleoJoven
	p.BirthDate = time.Date(1996, 6, 15, 0, 0, 0, 0, time.UTC) // cumple 28 el día de referencia

	alert := Eligibility(p, refDate)
	assert.Equal(t, SeveritySevere, alert.Severity)
	assert.Equal(t, LabelAgeLimit, alert.Label)

	// Un día antes de cumplir 28 todavía no dispara
	p.BirthDate = time.Date(1996, 6, 16, 0, 0, 0, 0, time.UTC)
	alert = Eligibility(p, refDate)
	assert.Equal(t, SeverityNormal, alert.Severity)
}

func TestEligibilityAgeLimitOnlyForEmpleoJoven(t *testing.T) {
	p := promoverParticipant(0)
	p.BirthDate = time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)

	alert := Eligibility(p, refDate)
	assert.Equal(t, SeverityNormal, alert.Severity)
}

func TestEligibilityTutorsHaveNoPaymentLimit(t *testing.T) {
	p := promoverParticipant(13)
	p.Program = ProgramTutores

	alert := Eligibility(p, refDate)
	assert.Equal(t, SeverityNormal, alert.Severity)
	assert.Equal(t, LabelInProgress, alert.Label)
}

func TestEligibilityAgeTakesPrecedenceOverPayments(t *testing.T) {
	p := promoverParticipant(6)
	p.Program = ProgramEmpleoJoven
	p.BirthDate = time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)

	alert := Eligibility(p, refDate)
	assert.Equal(t, LabelAgeLimit, alert.Label)
}
