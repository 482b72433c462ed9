// Package store implements the order-persistence collaborator: it records
// booked AWBs and their lifecycle status, and resolves which provider owns
// an AWB.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/ordermesh/courier/pkg/courier"
)

// ErrNotFound indicates the AWB is unknown to the store.
var ErrNotFound = errors.New("shipment not found in store")

// ShipmentRecord is the persisted view of a booked shipment.
type ShipmentRecord struct {
	OrderID    string
	AWB        string
	Provider   string
	Courier    string
	Status     courier.ShipmentStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// OrderStore defines the persistence interface the orchestrator depends on.
type OrderStore interface {
	// SaveShipment records a freshly booked AWB with its initial status.
	SaveShipment(ctx context.Context, rec ShipmentRecord) error

	// GetShipment returns the record for an AWB.
	GetShipment(ctx context.Context, awb string) (ShipmentRecord, error)

	// ProviderForAWB resolves which provider booked an AWB.
	ProviderForAWB(ctx context.Context, awb string) (string, error)

	// UpdateStatus replaces the lifecycle status of an AWB.
	UpdateStatus(ctx context.Context, awb string, status courier.ShipmentStatus) error
}
