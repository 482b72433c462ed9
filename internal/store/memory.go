package store

import (
	"context"
	"sync"
	"time"

	"github.com/ordermesh/courier/pkg/courier"
)

// MemoryStore is an in-process OrderStore for tests and local development.
type MemoryStore struct {
	shipments map[string]ShipmentRecord
	mu        sync.RWMutex
}

// NewMemoryStore creates an empty in-memory order store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		shipments: make(map[string]ShipmentRecord),
	}
}

// SaveShipment records a freshly booked AWB.
func (s *MemoryStore) SaveShipment(ctx context.Context, rec ShipmentRecord) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	rec.UpdatedAt = rec.CreatedAt
	s.shipments[rec.AWB] = rec
	return nil
}

// GetShipment returns the record for an AWB.
func (s *MemoryStore) GetShipment(ctx context.Context, awb string) (ShipmentRecord, error) {
	select {
	case <-ctx.Done():
		return ShipmentRecord{}, ctx.Err()
	default:
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.shipments[awb]
	if !ok {
		return ShipmentRecord{}, ErrNotFound
	}
	return rec, nil
}

// ProviderForAWB resolves which provider booked an AWB.
func (s *MemoryStore) ProviderForAWB(ctx context.Context, awb string) (string, error) {
	rec, err := s.GetShipment(ctx, awb)
	if err != nil {
		return "", err
	}
	return rec.Provider, nil
}

// UpdateStatus replaces the lifecycle status of an AWB.
func (s *MemoryStore) UpdateStatus(ctx context.Context, awb string, status courier.ShipmentStatus) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.shipments[awb]
	if !ok {
		return ErrNotFound
	}
	rec.Status = status
	rec.UpdatedAt = time.Now().UTC()
	s.shipments[awb] = rec
	return nil
}

var _ OrderStore = (*MemoryStore)(nil)
