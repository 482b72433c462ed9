package courier

import (
	"time"
)

// PaymentMode represents how the shipment is paid for.
type PaymentMode string

const (
	PaymentPrepaid PaymentMode = "PREPAID"
	PaymentCOD     PaymentMode = "COD"
)

// ShipmentType represents the logistics direction of a shipment.
type ShipmentType string

const (
	ShipmentForward ShipmentType = "forward"
	ShipmentReverse ShipmentType = "reverse"
)

// Dimension describes one set of identical boxes in a shipment.
// Lengths are centimetres.
type Dimension struct {
	Count  int
	Length float64
	Width  float64
	Height float64
}

// ShipmentRequest is the normalized request for booking or quoting a
// shipment. It is immutable once constructed; adapters translate it into
// their provider's wire shape.
type ShipmentRequest struct {
	OrderID         string
	PickupPincode   string
	DeliveryPincode string
	WeightGrams     int
	DeclaredValue   float64
	PaymentMode     PaymentMode
	CODAmount       float64
	Dimensions      []Dimension
	Type            ShipmentType
}

// Validate checks provider-independent mandatory fields. Adapters may
// impose further provider-specific requirements on top.
func (r *ShipmentRequest) Validate() error {
	switch {
	case r.PickupPincode == "":
		return NewValidationError("pickup pincode is required")
	case r.DeliveryPincode == "":
		return NewValidationError("delivery pincode is required")
	case r.WeightGrams <= 0:
		return NewValidationError("weight must be positive")
	case r.PaymentMode != PaymentPrepaid && r.PaymentMode != PaymentCOD:
		return NewValidationError("payment mode must be PREPAID or COD")
	case r.PaymentMode == PaymentCOD && r.CODAmount <= 0:
		return NewValidationError("cod amount must be positive for COD shipments")
	}
	for _, d := range r.Dimensions {
		if d.Count <= 0 || d.Length <= 0 || d.Width <= 0 || d.Height <= 0 {
			return NewValidationError("package dimensions must be positive")
		}
	}
	return nil
}

// AWB is a booked air waybill: the provider-assigned tracking identity of a
// shipment. Immutable after creation; lifecycle status lives in the order
// store, not here.
type AWB struct {
	Provider   string
	TrackingID string
	// Courier is the carrier the provider assigned, when the provider is
	// itself an aggregator (e.g. Shiprocket assigning Delhivery).
	Courier   string
	CreatedAt time.Time
}

// CancelAck acknowledges a provider-confirmed cancellation.
type CancelAck struct {
	Provider   string
	TrackingID string
	Cancelled  bool
}

// RateQuote is one provider's answer to a rate-shopping request. Quotes are
// ephemeral: consumed by the ranking step and never persisted.
type RateQuote struct {
	Provider      string
	Courier       string
	Price         float64
	Currency      string
	EstimatedDays int
	Success       bool
	Reason        string
}

// NDRRecord is normalized non-delivery detail for a shipment.
type NDRRecord struct {
	Provider    string
	TrackingID  string
	ReasonCode  string
	Reason      string
	AttemptedAt time.Time
	Attempts    int
	// NextActions are the provider-supported follow-ups, e.g.
	// "reattempt", "rto", "update-address".
	NextActions []string
}
