// Package courier provides an abstraction layer for courier/logistics providers.
package courier

import (
	"context"
)

// Provider defines the interface that all courier integrations must implement.
type Provider interface {
	// Name returns the provider identifier (e.g., "shiprocket", "nimbuspost").
	Name() string

	// CreateShipment books a shipment with the provider and returns the
	// generated air waybill.
	CreateShipment(ctx context.Context, req *ShipmentRequest) (*AWB, error)

	// CancelShipment cancels an existing shipment by its AWB number.
	CancelShipment(ctx context.Context, awb string) (*CancelAck, error)

	// GetStatus returns the provider-reported status of a shipment.
	GetStatus(ctx context.Context, awb string) (ShipmentStatus, error)

	// GetNDR returns non-delivery detail for a shipment that failed delivery.
	GetNDR(ctx context.Context, awb string) (*NDRRecord, error)

	// GetRate returns a price/SLA quote for a shipment. Business-level
	// failures (lane not serviceable, weight limits) are reported on the
	// quote itself, not as an error, so rate shopping can continue with
	// other providers.
	GetRate(ctx context.Context, req *ShipmentRequest) *RateQuote
}
