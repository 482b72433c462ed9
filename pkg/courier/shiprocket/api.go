package shiprocket

import (
	"context"
	"fmt"
)

// APIClient defines the interface for Shiprocket API operations. The
// abstraction allows mock implementations during testing and the real HTTP
// implementation in production. Authenticated calls receive the bearer
// token from the credential cache; Login is the exchange itself.
type APIClient interface {
	// Login exchanges account credentials for a bearer token.
	Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error)

	// CheckServiceability returns the courier companies able to serve a
	// lane with their rates.
	CheckServiceability(ctx context.Context, token string, req *ServiceabilityRequest) (*ServiceabilityResponse, error)

	// CreateForwardShipment books a forward shipment and assigns an AWB.
	CreateForwardShipment(ctx context.Context, token string, req *ForwardShipmentRequest) (*ForwardShipmentResponse, error)

	// CancelShipment cancels shipments by AWB code.
	CancelShipment(ctx context.Context, token string, awbs []string) (*CancelResponse, error)

	// TrackAWB returns tracking data for an AWB.
	TrackAWB(ctx context.Context, token string, awb string) (*TrackResponse, error)

	// GetNDR returns non-delivery detail for an AWB.
	GetNDR(ctx context.Context, token string, awb string) (*NDRResponse, error)
}

// ============================================================================
// API Request/Response Types (match Shiprocket external API v1 structure)
// ============================================================================

// LoginRequest is the auth exchange payload.
// POST /v1/external/auth/login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the issued bearer token. Shiprocket reports token
// lifetime in seconds; the adapter converts it to an absolute expiry.
type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in,omitempty"`
}

// ServiceabilityRequest is encoded as query parameters.
// GET /v1/external/courier/serviceability
type ServiceabilityRequest struct {
	PickupPostcode   string
	DeliveryPostcode string
	WeightKG         float64
	COD              bool
	DeclaredValue    float64
}

// ServiceabilityResponse lists the courier companies serving the lane.
type ServiceabilityResponse struct {
	Status int `json:"status"`
	Data   struct {
		AvailableCourierCompanies []CourierCompany `json:"available_courier_companies"`
	} `json:"data"`
	Message string `json:"message,omitempty"`
}

// CourierCompany is one courier's serviceability entry.
type CourierCompany struct {
	CourierCompanyID      int     `json:"courier_company_id"`
	CourierName           string  `json:"courier_name"`
	Rate                  float64 `json:"rate"`
	FreightCharge         float64 `json:"freight_charge"`
	CODCharges            float64 `json:"cod_charges"`
	EstimatedDeliveryDays string  `json:"estimated_delivery_days"`
	ETD                   string  `json:"etd,omitempty"`
}

// ForwardShipmentRequest books an order and assigns an AWB in one call.
// POST /v1/external/shipments/create/forward-shipment
type ForwardShipmentRequest struct {
	OrderID         string        `json:"order_id"`
	PaymentMethod   string        `json:"payment_method"` // "COD" or "Prepaid"
	SubTotal        float64       `json:"sub_total"`
	PickupPostcode  string        `json:"pickup_postcode"`
	BillingPincode  string        `json:"billing_pincode"`
	ShippingPincode string        `json:"shipping_pincode"`
	Weight          float64       `json:"weight"` // kg
	Boxes           []ShipmentBox `json:"boxes"`
	CourierID       int           `json:"courier_id,omitempty"`
}

// ShipmentBox is one box group in a forward shipment.
type ShipmentBox struct {
	Units   int     `json:"units"`
	Length  float64 `json:"length"`
	Breadth float64 `json:"breadth"`
	Height  float64 `json:"height"`
}

// ForwardShipmentResponse is the booking result.
type ForwardShipmentResponse struct {
	Status      int    `json:"status"`
	ShipmentID  int64  `json:"shipment_id"`
	OrderID     int64  `json:"order_id"`
	AWBCode     string `json:"awb_code"`
	CourierID   int    `json:"courier_company_id"`
	CourierName string `json:"courier_name"`
}

// CancelRequest cancels shipments by AWB.
// POST /v1/external/orders/cancel/shipment/awbs
type CancelRequest struct {
	AWBs []string `json:"awbs"`
}

// CancelResponse acknowledges a cancellation.
type CancelResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// TrackResponse is the AWB tracking payload.
// GET /v1/external/courier/track/awb/{awb}
type TrackResponse struct {
	TrackingData struct {
		TrackStatus    int    `json:"track_status"`
		ShipmentStatus int    `json:"shipment_status"`
		CurrentStatus  string `json:"current_status"`
		ShipmentTrack  []struct {
			CurrentStatus string `json:"current_status"`
			Location      string `json:"location"`
			Date          string `json:"date"`
		} `json:"shipment_track"`
	} `json:"tracking_data"`
}

// NDRResponse is the non-delivery report payload.
// GET /v1/external/ndr/{awb}
type NDRResponse struct {
	Data []NDREntry `json:"data"`
}

// NDREntry is one NDR record.
type NDREntry struct {
	AWB         string   `json:"awb"`
	CourierName string   `json:"courier_name"`
	Reason      string   `json:"reason"`
	ReasonCode  string   `json:"reason_code,omitempty"`
	Attempts    int      `json:"attempts"`
	NDRRaisedAt string   `json:"ndr_raised_at"` // RFC3339
	Actions     []string `json:"actions,omitempty"`
}

// APIError represents an error payload from the Shiprocket API.
type APIError struct {
	StatusCode int               `json:"-"`
	Code       string            `json:"code,omitempty"`
	Message    string            `json:"message"`
	Errors     map[string]string `json:"errors,omitempty"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return e.Code + ": " + e.Message
	}
	return fmt.Sprintf("HTTP_%d: %s", e.StatusCode, e.Message)
}
