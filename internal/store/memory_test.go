package store_test

import (
	"context"
	"testing"

	"github.com/ordermesh/courier/internal/store"
	"github.com/ordermesh/courier/pkg/courier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord() store.ShipmentRecord {
	return store.ShipmentRecord{
		OrderID:  "ORD-1001",
		AWB:      "SR123",
		Provider: "shiprocket",
		Courier:  "Delhivery",
		Status:   courier.StatusCreated,
	}
}

func TestMemoryStore_SaveAndGet(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.SaveShipment(ctx, sampleRecord()))

	rec, err := s.GetShipment(ctx, "SR123")
	require.NoError(t, err)
	assert.Equal(t, "ORD-1001", rec.OrderID)
	assert.Equal(t, "shiprocket", rec.Provider)
	assert.Equal(t, courier.StatusCreated, rec.Status)
	assert.False(t, rec.CreatedAt.IsZero())
	assert.Equal(t, rec.CreatedAt, rec.UpdatedAt)
}

func TestMemoryStore_GetMissing(t *testing.T) {
	s := store.NewMemoryStore()

	_, err := s.GetShipment(context.Background(), "NOPE")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestMemoryStore_ProviderForAWB(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.SaveShipment(ctx, sampleRecord()))

	provider, err := s.ProviderForAWB(ctx, "SR123")
	require.NoError(t, err)
	assert.Equal(t, "shiprocket", provider)

	_, err = s.ProviderForAWB(ctx, "NOPE")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestMemoryStore_UpdateStatus(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.SaveShipment(ctx, sampleRecord()))
	require.NoError(t, s.UpdateStatus(ctx, "SR123", courier.StatusInTransit))

	rec, err := s.GetShipment(ctx, "SR123")
	require.NoError(t, err)
	assert.Equal(t, courier.StatusInTransit, rec.Status)
	assert.True(t, rec.UpdatedAt.After(rec.CreatedAt) || rec.UpdatedAt.Equal(rec.CreatedAt))
}

func TestMemoryStore_UpdateStatusMissing(t *testing.T) {
	s := store.NewMemoryStore()

	err := s.UpdateStatus(context.Background(), "NOPE", courier.StatusDelivered)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	s := store.NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, s.SaveShipment(ctx, sampleRecord()), context.Canceled)
	_, err := s.GetShipment(ctx, "SR123")
	assert.ErrorIs(t, err, context.Canceled)
}
