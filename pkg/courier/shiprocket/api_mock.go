package shiprocket

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// MockAPIClient is a mock implementation of APIClient for testing.
type MockAPIClient struct {
	SimulateErrors  bool
	SimulateLatency time.Duration

	OnLogin                 func(ctx context.Context, req *LoginRequest) (*LoginResponse, error)
	OnCheckServiceability   func(ctx context.Context, token string, req *ServiceabilityRequest) (*ServiceabilityResponse, error)
	OnCreateForwardShipment func(ctx context.Context, token string, req *ForwardShipmentRequest) (*ForwardShipmentResponse, error)
	OnCancelShipment        func(ctx context.Context, token string, awbs []string) (*CancelResponse, error)
	OnTrackAWB              func(ctx context.Context, token string, awb string) (*TrackResponse, error)
	OnGetNDR                func(ctx context.Context, token string, awb string) (*NDRResponse, error)
}

// NewMockAPIClient creates a new mock API client with default behavior.
func NewMockAPIClient() *MockAPIClient {
	return &MockAPIClient{}
}

func (m *MockAPIClient) simulate() error {
	if m.SimulateLatency > 0 {
		time.Sleep(m.SimulateLatency)
	}
	if m.SimulateErrors {
		return &APIError{StatusCode: http.StatusBadGateway, Message: "Simulated API error"}
	}
	return nil
}

// Login returns a mock bearer token.
func (m *MockAPIClient) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnLogin != nil {
		return m.OnLogin(ctx, req)
	}
	return &LoginResponse{
		Token:     "sr-token-" + uuid.New().String()[:8],
		ExpiresIn: 864000, // ten days, as issued by the real API
	}, nil
}

// CheckServiceability returns mock courier companies.
func (m *MockAPIClient) CheckServiceability(ctx context.Context, token string, req *ServiceabilityRequest) (*ServiceabilityResponse, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnCheckServiceability != nil {
		return m.OnCheckServiceability(ctx, token, req)
	}

	resp := &ServiceabilityResponse{Status: 200}
	resp.Data.AvailableCourierCompanies = []CourierCompany{
		{
			CourierCompanyID:      24,
			CourierName:           "Delhivery",
			Rate:                  78.50,
			FreightCharge:         68.50,
			CODCharges:            10.00,
			EstimatedDeliveryDays: "3",
		},
		{
			CourierCompanyID:      51,
			CourierName:           "Xpressbees",
			Rate:                  92.00,
			FreightCharge:         82.00,
			CODCharges:            10.00,
			EstimatedDeliveryDays: "4",
		},
	}
	return resp, nil
}

// CreateForwardShipment returns a mock AWB assignment.
func (m *MockAPIClient) CreateForwardShipment(ctx context.Context, token string, req *ForwardShipmentRequest) (*ForwardShipmentResponse, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnCreateForwardShipment != nil {
		return m.OnCreateForwardShipment(ctx, token, req)
	}
	return &ForwardShipmentResponse{
		Status:      1,
		ShipmentID:  time.Now().UnixNano() % 10000000,
		AWBCode:     "SR" + uuid.New().String()[:10],
		CourierID:   24,
		CourierName: "Delhivery",
	}, nil
}

// CancelShipment acknowledges a mock cancellation.
func (m *MockAPIClient) CancelShipment(ctx context.Context, token string, awbs []string) (*CancelResponse, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnCancelShipment != nil {
		return m.OnCancelShipment(ctx, token, awbs)
	}
	return &CancelResponse{Status: 200, Message: "shipment cancelled"}, nil
}

// TrackAWB returns mock tracking data.
func (m *MockAPIClient) TrackAWB(ctx context.Context, token string, awb string) (*TrackResponse, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnTrackAWB != nil {
		return m.OnTrackAWB(ctx, token, awb)
	}
	var result TrackResponse
	result.TrackingData.CurrentStatus = "In Transit"
	return &result, nil
}

// GetNDR returns mock non-delivery detail.
func (m *MockAPIClient) GetNDR(ctx context.Context, token string, awb string) (*NDRResponse, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnGetNDR != nil {
		return m.OnGetNDR(ctx, token, awb)
	}
	return &NDRResponse{
		Data: []NDREntry{
			{
				AWB:         awb,
				CourierName: "Delhivery",
				Reason:      "Consignee not available",
				ReasonCode:  "CNA",
				Attempts:    1,
				NDRRaisedAt: time.Now().UTC().Format(time.RFC3339),
				Actions:     []string{"reattempt", "rto"},
			},
		},
	}, nil
}

// Ensure MockAPIClient implements APIClient interface
var _ APIClient = (*MockAPIClient)(nil)
