package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"event-market/models"

	"event-market/internal/status"
)

func setupTestPaymentService() (*PaymentService, redismock.ClientMock) {
	client, mock := redismock.NewClientMock()
	return NewPaymentService(client, 10*time.Minute), mock
}

func TestPaymentService_Settle_MarksSessionCompleted(t *testing.T) {
	svc, mock := setupTestPaymentService()
	defer mock.ClearExpect()

	mock.ExpectHSet("payment:reg-1", "status", "completed").SetVal(1)
	mock.ExpectPersist("payment:reg-1").SetVal(true)

	err := svc.Settle(context.Background(), "reg-1")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentService_Settle_CollaboratorFailureIsExternal(t *testing.T) {
	svc, mock := setupTestPaymentService()
	defer mock.ClearExpect()

	mock.ExpectHSet("payment:reg-1", "status", "completed").SetErr(errors.New("connection refused"))

	err := svc.Settle(context.Background(), "reg-1")
	require.Error(t, err)
	assert.Equal(t, status.KindExternal, status.KindOf(err))
}

func TestPaymentService_SessionStatus(t *testing.T) {
	svc, mock := setupTestPaymentService()
	defer mock.ClearExpect()

	mock.ExpectHGetAll("payment:reg-1").SetVal(map[string]string{
		"registration_id": "reg-1",
		"status":          "pending",
	})

	fields, err := svc.SessionStatus(context.Background(), "reg-1")
	require.NoError(t, err)
	assert.Equal(t, "pending", fields["status"])

	mock.ExpectHGetAll("payment:reg-2").SetVal(map[string]string{})
	_, err = svc.SessionStatus(context.Background(), "reg-2")
	require.Error(t, err)
	assert.Equal(t, status.KindNotFound, status.KindOf(err))
}

func TestPaymentService_NilRedisIsNoOp(t *testing.T) {
	svc := NewPaymentService(nil, time.Minute)
	ctx := context.Background()

	assert.NoError(t, svc.OpenSession(ctx, &models.EventRegistration{ID: "reg-1"}))
	assert.NoError(t, svc.Settle(ctx, "reg-1"))

	_, err := svc.SessionStatus(ctx, "reg-1")
	assert.Equal(t, status.KindNotFound, status.KindOf(err))
}

func TestOutletService_SetEventOpen(t *testing.T) {
	db := newTestDB(t)
	merchantID := seedMerchant(t, db, "Kopi Pagi")
	outletID := seedOutlet(t, db, merchantID, "Kopi Pagi Sudirman", false, models.ScoreMedium)
	svc := NewOutletService(db)
	ctx := context.Background()

	outlet, err := svc.SetEventOpen(ctx, merchantID, outletID, true)
	require.NoError(t, err)
	assert.True(t, outlet.EventOpen)

	outlet, err = svc.SetEventOpen(ctx, merchantID, outletID, false)
	require.NoError(t, err)
	assert.False(t, outlet.EventOpen)

	other := seedMerchant(t, db, "Sate Nusantara")
	_, err = svc.SetEventOpen(ctx, other, outletID, true)
	require.Error(t, err)
	assert.Equal(t, status.KindNotFound, status.KindOf(err))
}
