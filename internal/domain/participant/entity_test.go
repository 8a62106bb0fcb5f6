package participant

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pem-hub/pem-payments-hub/internal/domain/shared"
)

func TestNewParticipant(t *testing.T) {
	p, err := New("p1", "  Juan Pérez  ", "12345678",
		time.Date(2000, 3, 10, 0, 0, 0, 0, time.UTC), ProgramEmpleoJoven)
	require.NoError(t, err)

	assert.Equal(t, "Juan Pérez", p.FullName)
	assert.Equal(t, StatusIngresado, p.Status)
	assert.True(t, p.Active)
	assert.Zero(t, p.PaymentCount)
	assert.True(t, p.LastPaidPeriod.IsZero())
}

func TestNewParticipantRejectsInvalidInput(t *testing.T) {
	_, err := New("p1", "Juan", "123", time.Time{}, ProgramPromover)
	assert.ErrorIs(t, err, shared.ErrInvalidID)

	_, err = New("p1", "Juan", "12345678", time.Time{}, Program("OTRO"))
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestRegisterPaymentClearsAbsence(t *testing.T) {
	p, err := New("p1", "Juan", "12345678", time.Time{}, ProgramPromover)
	require.NoError(t, err)

	absencePeriod := shared.Period{Month: 5, Year: 2024}
	p.FlagAbsence(absencePeriod)
	assert.Equal(t, StatusRequiereAtencion, p.Status)
	assert.Equal(t, absencePeriod, p.AbsencePeriod)

	payPeriod := shared.Period{Month: 6, Year: 2024}
	p.RegisterPayment(payPeriod)

	assert.Equal(t, 1, p.PaymentCount)
	assert.Equal(t, payPeriod, p.LastPaidPeriod)
	assert.Equal(t, StatusActivo, p.Status)
	assert.True(t, p.AbsencePeriod.IsZero())
}

func TestRevertPaymentNeverGoesNegative(t *testing.T) {
	p, err := New("p1", "Juan", "12345678", time.Time{}, ProgramPromover)
	require.NoError(t, err)

	p.RevertPayment()
	assert.Zero(t, p.PaymentCount)

	p.RegisterPayment(shared.Period{Month: 6, Year: 2024})
	p.RevertPayment()
	assert.Zero(t, p.PaymentCount)
}

func TestDeactivateAndReactivate(t *testing.T) {
	p, err := New("p1", "Juan", "12345678", time.Time{}, ProgramPromover)
	require.NoError(t, err)
	p.FlagAbsence(shared.Period{Month: 5, Year: 2024})

	p.Deactivate()
	assert.False(t, p.Active)
	assert.Equal(t, StatusBaja, p.Status)
	assert.True(t, p.AbsencePeriod.IsZero())

	p.Reactivate()
	assert.True(t, p.Active)
	assert.Equal(t, StatusActivo, p.Status)
}

func TestValidate(t *testing.T) {
	p, err := New("p1", "Juan", "12345678", time.Time{}, ProgramPromover)
	require.NoError(t, err)
	assert.NoError(t, p.Validate())

	p.PaymentCount = -1
	assert.ErrorIs(t, p.Validate(), shared.ErrNegativeValue)

	p.PaymentCount = 0
	p.FullName = ""
	assert.ErrorIs(t, p.Validate(), shared.ErrEmptyValue)
}

func TestAge(t *testing.T) {
	p := &Participant{BirthDate: time.Date(1996, 6, 15, 0, 0, 0, 0, time.UTC)}

	assert.Equal(t, 28, p.Age(time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 27, p.Age(time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 0, p.Age(time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestParseProgram(t *testing.T) {
	p, err := ParseProgram(" tutores ")
	require.NoError(t, err)
	assert.Equal(t, ProgramTutores, p)

	_, err = ParseProgram("inexistente")
	assert.Error(t, err)
}

func TestProgramTraits(t *testing.T) {
	assert.True(t, ProgramTutores.HasCategories())
	assert.False(t, ProgramTutores.HasPaymentLimit())
	assert.True(t, ProgramEmpleoJoven.HasAgeLimit())
	assert.True(t, ProgramPromover.HasPaymentLimit())
	assert.False(t, ProgramPromover.HasAgeLimit())
}
