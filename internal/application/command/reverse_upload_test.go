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
	"github.com/pem-hub/pem-payments-hub/internal/domain/shared"
)

func reversalFixture() (*fakeUploadRepo, *fakePaymentRepo, *fakeNoveltyRepo, shared.Period) {
	period := shared.Period{Month: 6, Year: 2024}
	program := participant.ProgramPromover

	uploads := &fakeUploadRepo{uploads: map[string]*payment.Upload{
		"up-1": {
			ID:      "up-1",
			Period:  period,
			Program: program,
		},
	}}

	payments := &fakePaymentRepo{records: []*payment.Record{
		{
			ID:            "rec-1",
			ParticipantID: "p1",
			NationalID:    "11111111",
			Amount:        decimal.RequireFromString("78000"),
			Period:        period,
			Program:       program,
			UploadID:      "up-1",
		},
		{
			ID:            "rec-2",
			ParticipantID: "p2",
			NationalID:    "22222222",
			Amount:        decimal.RequireFromString("78000"),
			Period:        period,
			Program:       program,
			UploadID:      "up-1",
		},
		// Pago del período anterior: p1 tiene marcador a restituir
		{
			ID:            "rec-0",
			ParticipantID: "p1",
			NationalID:    "11111111",
			Amount:        decimal.RequireFromString("78000"),
			Period:        period.Prev(),
			Program:       program,
		},
	}}

	novelties := &fakeNoveltyRepo{novelties: []*payment.Novelty{
		{
			ID:            "nov-1",
			ParticipantID: "p3",
			Type:          payment.NoveltyPosibleBaja,
			Period:        period,
			Program:       program,
		},
		{
			ID:            "nov-2",
			ParticipantID: "p4",
			Type:          payment.NoveltyBajaDefinitiva, // no es de este lote
			Period:        period,
			Program:       program,
		},
	}}

	return uploads, payments, novelties, period
}

func TestReverseUploadBuildsBatch(t *testing.T) {
	uploads, payments, novelties, period := reversalFixture()
	writer := &fakeBatchWriter{}
	publisher := &capturingPublisher{}

	handler := NewReverseUploadHandler(uploads, payments, novelties, writer, publisher, testLogger())

	result, err := handler.Handle(context.Background(), ReverseUploadCommand{UploadID: "up-1"})
	require.NoError(t, err)

	assert.Equal(t, "up-1", result.UploadID)
	assert.Equal(t, 2, result.PaymentsDeleted)
	assert.Equal(t, 1, result.AbsencesCleared)
	assert.False(t, result.ReversedAt.IsZero())

	require.Len(t, writer.reversals, 1)
	rb := writer.reversals[0]

	assert.ElementsMatch(t, []string{"rec-1", "rec-2"}, rb.PaymentIDs)

	// Sólo las POSIBLE_BAJA del lote se revierten
	assert.Equal(t, []string{"p3"}, rb.AbsenceReverts)

	// p1 cobró el período anterior: su marcador se restituye; p2 no
	require.Len(t, rb.Decrements, 2)
	byID := map[string]payment.CounterDecrement{}
	for _, dec := range rb.Decrements {
		byID[dec.ParticipantID] = dec
	}
	assert.Equal(t, period.Prev(), byID["p1"].PreviousPaidPeriod)
	assert.True(t, byID["p2"].PreviousPaidPeriod.IsZero())

	assert.Len(t, publisher.byType(shared.EventBatchReversed), 1)
}

func TestReverseUploadAlreadyReversed(t *testing.T) {
	uploads, payments, novelties, _ := reversalFixture()
	uploads.uploads["up-1"].Reversed = true
	uploads.uploads["up-1"].ReversedAt = time.Now().UTC()

	writer := &fakeBatchWriter{}
	handler := NewReverseUploadHandler(uploads, payments, novelties, writer, nil, testLogger())

	_, err := handler.Handle(context.Background(), ReverseUploadCommand{UploadID: "up-1"})
	assert.ErrorIs(t, err, shared.ErrAlreadyApplied)
	assert.Empty(t, writer.reversals)
}

func TestReverseUploadNotFound(t *testing.T) {
	uploads, payments, novelties, _ := reversalFixture()
	handler := NewReverseUploadHandler(uploads, payments, novelties, &fakeBatchWriter{}, nil, testLogger())

	_, err := handler.Handle(context.Background(), ReverseUploadCommand{UploadID: "inexistente"})
	assert.True(t, shared.IsNotFound(err))
}

func TestReverseUploadWriterFailure(t *testing.T) {
	uploads, payments, novelties, _ := reversalFixture()
	writer := &fakeBatchWriter{commitErr: errors.New("store down")}

	handler := NewReverseUploadHandler(uploads, payments, novelties, writer, nil, testLogger())

	_, err := handler.Handle(context.Background(), ReverseUploadCommand{UploadID: "up-1"})
	require.Error(t, err)
	assert.True(t, shared.IsStoreFailure(err))
}

func TestReverseUploadValidation(t *testing.T) {
	uploads, payments, novelties, _ := reversalFixture()
	handler := NewReverseUploadHandler(uploads, payments, novelties, &fakeBatchWriter{}, nil, testLogger())

	_, err := handler.Handle(context.Background(), ReverseUploadCommand{})
	assert.ErrorIs(t, err, shared.ErrInvalidID)
}
