package nimbuspost

import (
	"context"
	"fmt"
)

// APIClient defines the interface for NimbusPost API operations.
type APIClient interface {
	// Login exchanges account credentials for a bearer token.
	Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error)

	// CheckServiceability returns courier options with rates for a lane.
	CheckServiceability(ctx context.Context, token string, req *ServiceabilityRequest) (*ServiceabilityResponse, error)

	// CreateShipment books a shipment and assigns an AWB.
	CreateShipment(ctx context.Context, token string, req *ShipmentRequest) (*ShipmentResponse, error)

	// CancelShipment cancels a shipment by AWB.
	CancelShipment(ctx context.Context, token string, awb string) (*CancelResponse, error)

	// TrackShipment returns tracking data for an AWB.
	TrackShipment(ctx context.Context, token string, awb string) (*TrackResponse, error)

	// GetNDR returns non-delivery detail for an AWB.
	GetNDR(ctx context.Context, token string, awb string) (*NDRResponse, error)
}

// ============================================================================
// API Request/Response Types (match NimbusPost REST API v1 structure)
// ============================================================================

// LoginRequest is the auth exchange payload.
// POST /v1/users/login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the issued token in the data field.
type LoginResponse struct {
	Status bool   `json:"status"`
	Data   string `json:"data"` // JWT bearer token
	// ExpiresIn is seconds until expiry; zero means the API default.
	ExpiresIn int64 `json:"expires_in,omitempty"`
}

// ServiceabilityRequest queries courier options for a lane.
// POST /v1/courier/serviceability
type ServiceabilityRequest struct {
	OriginPincode      string  `json:"origin"`
	DestinationPincode string  `json:"destination"`
	PaymentType        string  `json:"payment_type"` // "cod" or "prepaid"
	OrderAmount        float64 `json:"order_amount,omitempty"`
	Weight             int     `json:"weight"` // grams
	Length             int     `json:"length,omitempty"`
	Breadth            int     `json:"breadth,omitempty"`
	Height             int     `json:"height,omitempty"`
}

// ServiceabilityResponse lists serviceable couriers.
type ServiceabilityResponse struct {
	Status  bool            `json:"status"`
	Data    []CourierOption `json:"data"`
	Message string          `json:"message,omitempty"`
}

// CourierOption is one courier's serviceability entry.
type CourierOption struct {
	ID           int     `json:"id"`
	Name         string  `json:"name"`
	TotalCharges float64 `json:"total_charges"`
	EDD          string  `json:"edd"` // estimated delivery days, e.g. "4"
	CODCharges   float64 `json:"cod_charges"`
}

// ShipmentRequest books a shipment.
// POST /v1/shipments
type ShipmentRequest struct {
	OrderNumber      string  `json:"order_number"`
	PaymentType      string  `json:"payment_type"`
	OrderAmount      float64 `json:"order_amount"`
	PackageWeight    int     `json:"package_weight"` // grams
	PackageLength    int     `json:"package_length"` // cm
	PackageBreadth   int     `json:"package_breadth"`
	PackageHeight    int     `json:"package_height"`
	ConsigneePincode string  `json:"consignee_pincode"`
	PickupPincode    string  `json:"pickup_pincode"`
	CourierID        int     `json:"courier_id,omitempty"`
	IsInsurance      bool    `json:"is_insurance,omitempty"`
}

// ShipmentResponse is the booking result.
type ShipmentResponse struct {
	Status bool `json:"status"`
	Data   struct {
		ShipmentID  int64  `json:"shipment_id"`
		AWBNumber   string `json:"awb_number"`
		CourierID   int    `json:"courier_id"`
		CourierName string `json:"courier_name"`
		Label       string `json:"label,omitempty"`
	} `json:"data"`
	Message string `json:"message,omitempty"`
}

// CancelRequest cancels a shipment by AWB.
// POST /v1/shipments/cancel
type CancelRequest struct {
	AWB string `json:"awb"`
}

// CancelResponse acknowledges a cancellation.
type CancelResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
}

// TrackResponse is the tracking payload.
// GET /v1/shipments/track/{awb}
type TrackResponse struct {
	Status bool `json:"status"`
	Data   struct {
		AWBNumber string `json:"awb_number"`
		Status    string `json:"status"` // e.g. "in transit", "delivered", "rto"
		History   []struct {
			StatusCode string `json:"status_code"`
			Location   string `json:"location"`
			EventTime  string `json:"event_time"`
			Message    string `json:"message"`
		} `json:"history"`
	} `json:"data"`
}

// NDRResponse is the non-delivery report payload.
// GET /v1/ndr/{awb}
type NDRResponse struct {
	Status bool `json:"status"`
	Data   struct {
		AWBNumber     string   `json:"awb_number"`
		ReasonCode    string   `json:"reason_code"`
		Reason        string   `json:"reason"`
		AttemptCount  int      `json:"attempt_count"`
		LastAttemptAt string   `json:"last_attempt_at"` // RFC3339
		Actions       []string `json:"actions,omitempty"`
	} `json:"data"`
}

// APIError represents an error payload from the NimbusPost API.
type APIError struct {
	StatusCode int    `json:"-"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP_%d: %s", e.StatusCode, e.Message)
}
