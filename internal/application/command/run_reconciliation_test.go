package command

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pem-hub/pem-payments-hub/internal/domain/participant"
	"github.com/pem-hub/pem-payments-hub/internal/domain/payment"
	"github.com/pem-hub/pem-payments-hub/internal/domain/pricing"
	"github.com/pem-hub/pem-payments-hub/internal/domain/reconciliation"
	"github.com/pem-hub/pem-payments-hub/internal/domain/shared"
)

func activeParticipant(t *testing.T, id, nationalID string, program participant.Program) *participant.Participant {
	t.Helper()
	p, err := participant.New(id, "Nombre Apellido", shared.NationalID(nationalID),
		time.Date(1995, 2, 20, 0, 0, 0, 0, time.UTC), program)
	require.NoError(t, err)
	p.Status = participant.StatusActivo
	p.PaymentCount = 1
	return p
}

func priorRecord(nationalID string, period shared.Period, program participant.Program) *payment.Record {
	return &payment.Record{
		ID:         "prior-" + nationalID,
		NationalID: shared.NationalID(nationalID),
		Amount:     decimal.RequireFromString("78000"),
		Period:     period,
		Program:    program,
	}
}

func TestRunReconciliationHappyPath(t *testing.T) {
	period := shared.Period{Month: 6, Year: 2024}
	program := participant.ProgramPromover

	regular := activeParticipant(t, "p1", "11111111", program)
	newcomer, err := participant.New("p2", "Nueva Alta", "22222222",
		time.Date(1999, 8, 1, 0, 0, 0, 0, time.UTC), program)
	require.NoError(t, err)
	absent := activeParticipant(t, "p3", "33333333", program)

	participants := newFakeParticipantRepo(regular, newcomer, absent)
	payments := &fakePaymentRepo{records: []*payment.Record{
		priorRecord("11111111", period.Prev(), program),
		priorRecord("33333333", period.Prev(), program),
	}}
	writer := &fakeBatchWriter{}
	publisher := &capturingPublisher{}
	resolver := pricing.NewResolver(&fakePricingRepo{})

	handler := NewRunReconciliationHandler(participants, payments, resolver, writer, publisher, testLogger())

	result, err := handler.Handle(context.Background(), RunReconciliationCommand{
		RawText:    "11111111;78000\n22222222;78000\n",
		Month:      period.Month,
		Year:       period.Year,
		Program:    program,
		UploadedBy: "operador",
		Act:        "Res. 142/2024",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Regulars)
	assert.Equal(t, 1, result.News)
	assert.Equal(t, 1, result.Absents)
	assert.Equal(t, 1, result.Chunks)
	assert.NotEmpty(t, result.UploadID)

	require.Len(t, writer.commits, 1)
	batch := writer.commits[0]
	require.Len(t, batch.Payments, 2)
	require.Len(t, batch.Absences, 1)
	require.NotNil(t, batch.Upload)

	// El pago incrementa el contador en exactamente uno y fija el período
	assert.Equal(t, 2, regular.PaymentCount)
	assert.Equal(t, period, regular.LastPaidPeriod)
	assert.Equal(t, participant.StatusActivo, regular.Status)

	// El alta lleva el acto administrativo de la corrida
	assert.Equal(t, 1, newcomer.PaymentCount)
	assert.Equal(t, shared.ActReference("Res. 142/2024"), newcomer.EnrollmentAct)

	// El ausente queda marcado con novedad POSIBLE_BAJA
	assert.Equal(t, participant.StatusRequiereAtencion, absent.Status)
	assert.Equal(t, period, absent.AbsencePeriod)
	assert.Equal(t, payment.NoveltyPosibleBaja, batch.Absences[0].Novelty.Type)

	// Historial: un registro con los documentos procesados
	assert.Equal(t, result.UploadID, batch.Upload.ID)
	assert.ElementsMatch(t, []string{"11111111", "22222222"}, batch.Upload.ProcessedIDs)

	assert.Len(t, publisher.byType(shared.EventBatchCommitted), 1)
	assert.Len(t, publisher.byType(shared.EventAbsenceFlagged), 1)
}

func TestRunReconciliationBlockedByUnknownID(t *testing.T) {
	program := participant.ProgramPromover
	known := activeParticipant(t, "p1", "11111111", program)

	participants := newFakeParticipantRepo(known)
	writer := &fakeBatchWriter{}
	resolver := pricing.NewResolver(&fakePricingRepo{})

	handler := NewRunReconciliationHandler(participants, &fakePaymentRepo{}, resolver, writer, nil, testLogger())

	_, err := handler.Handle(context.Background(), RunReconciliationCommand{
		RawText:    "11111111;78000\n99999999;78000\n",
		Month:      6,
		Year:       2024,
		Program:    program,
		UploadedBy: "operador",
	})
	require.Error(t, err)

	var report *reconciliation.BlockReport
	require.True(t, errors.As(err, &report))
	assert.Equal(t, []shared.NationalID{"99999999"}, report.UnknownIDs)

	// Bloqueo total: ninguna escritura
	assert.Empty(t, writer.commits)
	assert.Equal(t, 1, known.PaymentCount)
}

func TestRunReconciliationBlockedByDuplicates(t *testing.T) {
	program := participant.ProgramPromover
	known := activeParticipant(t, "p1", "11111111", program)

	handler := NewRunReconciliationHandler(
		newFakeParticipantRepo(known), &fakePaymentRepo{},
		pricing.NewResolver(&fakePricingRepo{}), &fakeBatchWriter{}, nil, testLogger())

	_, err := handler.Handle(context.Background(), RunReconciliationCommand{
		RawText:    "11111111;78000\n11111111;78000\n",
		Month:      6,
		Year:       2024,
		Program:    program,
		UploadedBy: "operador",
	})

	var report *reconciliation.BlockReport
	require.ErrorAs(t, err, &report)
	assert.Equal(t, []shared.NationalID{"11111111"}, report.DuplicateIDs)
}

func TestRunReconciliationTutorsWithoutConfigurationBlocks(t *testing.T) {
	tutor := activeParticipant(t, "p1", "11111111", participant.ProgramTutores)

	writer := &fakeBatchWriter{}
	handler := NewRunReconciliationHandler(
		newFakeParticipantRepo(tutor), &fakePaymentRepo{},
		pricing.NewResolver(&fakePricingRepo{}), writer, nil, testLogger())

	_, err := handler.Handle(context.Background(), RunReconciliationCommand{
		RawText:    "11111111;1500.50\n",
		Month:      6,
		Year:       2024,
		Program:    participant.ProgramTutores,
		UploadedBy: "operador",
	})

	var report *reconciliation.BlockReport
	require.ErrorAs(t, err, &report)
	require.Len(t, report.CategoryIssues, 1)
	assert.Equal(t, reconciliation.ReasonConfigMissing, report.CategoryIssues[0].Reason)
	assert.Empty(t, writer.commits)
}

func TestRunReconciliationResolvesTutorCategories(t *testing.T) {
	tutor := activeParticipant(t, "p1", "11111111", participant.ProgramTutores)

	pricingRepo := &fakePricingRepo{configs: []*pricing.Configuration{{
		ID:              "cfg-1",
		EffectivePeriod: shared.Period{Month: 1, Year: 2024},
		CategoryAmounts: map[string]decimal.Decimal{
			"TUTOR_A": decimal.RequireFromString("1500.50"),
		},
	}}}

	writer := &fakeBatchWriter{}
	handler := NewRunReconciliationHandler(
		newFakeParticipantRepo(tutor), &fakePaymentRepo{},
		pricing.NewResolver(pricingRepo), writer, nil, testLogger())

	result, err := handler.Handle(context.Background(), RunReconciliationCommand{
		RawText:    "11.111.111;1500,50\n",
		Month:      6,
		Year:       2024,
		Program:    participant.ProgramTutores,
		UploadedBy: "operador",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.News)

	assert.Equal(t, "TUTOR_A", tutor.Category)
	require.Len(t, writer.commits, 1)
	assert.Equal(t, "TUTOR_A", writer.commits[0].Payments[0].Record.Category)
}

func TestRunReconciliationSplitsLargeBatches(t *testing.T) {
	program := participant.ProgramPromover
	participants := newFakeParticipantRepo()
	raw := ""
	for i := 0; i < 10; i++ {
		id := string(rune('0'+i)) + "1111111"
		p := activeParticipant(t, "p-"+id, id, program)
		require.NoError(t, participants.Create(context.Background(), p))
		raw += id + ";78000\n"
	}

	writer := &fakeBatchWriter{maxOps: 5} // 2 pagos por unidad
	handler := NewRunReconciliationHandler(
		participants, &fakePaymentRepo{},
		pricing.NewResolver(&fakePricingRepo{}), writer, nil, testLogger())

	result, err := handler.Handle(context.Background(), RunReconciliationCommand{
		RawText:    raw,
		Month:      6,
		Year:       2024,
		Program:    program,
		UploadedBy: "operador",
	})
	require.NoError(t, err)

	assert.Greater(t, result.Chunks, 1)
	assert.Equal(t, len(writer.commits), result.Chunks)
	assert.Equal(t, 10, writer.totalPayments())

	// El registro de historial viaja sólo en la primera unidad
	assert.NotNil(t, writer.commits[0].Upload)
	for _, chunk := range writer.commits[1:] {
		assert.Nil(t, chunk.Upload)
	}
}

func TestRunReconciliationMidChunkFailure(t *testing.T) {
	program := participant.ProgramPromover
	participants := newFakeParticipantRepo()
	raw := ""
	for i := 0; i < 6; i++ {
		id := string(rune('0'+i)) + "1111111"
		p := activeParticipant(t, "p-"+id, id, program)
		require.NoError(t, participants.Create(context.Background(), p))
		raw += id + ";78000\n"
	}

	writer := &fakeBatchWriter{maxOps: 5, failAtChunk: 2}
	handler := NewRunReconciliationHandler(
		participants, &fakePaymentRepo{},
		pricing.NewResolver(&fakePricingRepo{}), writer, nil, testLogger())

	_, err := handler.Handle(context.Background(), RunReconciliationCommand{
		RawText:    raw,
		Month:      6,
		Year:       2024,
		Program:    program,
		UploadedBy: "operador",
	})
	require.Error(t, err)
	assert.True(t, shared.IsStoreFailure(err))

	// La primera unidad quedó aplicada: la brecha documentada entre unidades
	assert.Len(t, writer.commits, 1)
}

func TestRunReconciliationValidation(t *testing.T) {
	handler := NewRunReconciliationHandler(
		newFakeParticipantRepo(), &fakePaymentRepo{},
		pricing.NewResolver(&fakePricingRepo{}), &fakeBatchWriter{}, nil, testLogger())

	cases := []RunReconciliationCommand{
		{RawText: "x", Month: 13, Year: 2024, Program: participant.ProgramPromover, UploadedBy: "op"},
		{RawText: "x", Month: 6, Year: 2024, Program: "OTRO", UploadedBy: "op"},
		{RawText: "", Month: 6, Year: 2024, Program: participant.ProgramPromover, UploadedBy: "op"},
		{RawText: "x", Month: 6, Year: 2024, Program: participant.ProgramPromover, UploadedBy: ""},
	}
	for i, cmd := range cases {
		_, err := handler.Handle(context.Background(), cmd)
		assert.Error(t, err, "case %d", i)
	}
}

func TestRunReconciliationNoValidRecords(t *testing.T) {
	handler := NewRunReconciliationHandler(
		newFakeParticipantRepo(), &fakePaymentRepo{},
		pricing.NewResolver(&fakePricingRepo{}), &fakeBatchWriter{}, nil, testLogger())

	_, err := handler.Handle(context.Background(), RunReconciliationCommand{
		RawText:    "basura sin registros\n",
		Month:      6,
		Year:       2024,
		Program:    participant.ProgramPromover,
		UploadedBy: "operador",
	})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}
