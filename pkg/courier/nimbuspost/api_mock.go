package nimbuspost

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

	OnLogin               func(ctx context.Context, req *LoginRequest) (*LoginResponse, error)
	OnCheckServiceability func(ctx context.Context, token string, req *ServiceabilityRequest) (*ServiceabilityResponse, error)
	OnCreateShipment      func(ctx context.Context, token string, req *ShipmentRequest) (*ShipmentResponse, error)
	OnCancelShipment      func(ctx context.Context, token string, awb string) (*CancelResponse, error)
	OnTrackShipment       func(ctx context.Context, token string, awb string) (*TrackResponse, error)
	OnGetNDR              func(ctx context.Context, token string, awb string) (*NDRResponse, error)
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
		Status:    true,
		Data:      "np-token-" + uuid.New().String()[:8],
		ExpiresIn: 86400,
	}, nil
}

// CheckServiceability returns mock courier options.
func (m *MockAPIClient) CheckServiceability(ctx context.Context, token string, req *ServiceabilityRequest) (*ServiceabilityResponse, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnCheckServiceability != nil {
		return m.OnCheckServiceability(ctx, token, req)
	}
	return &ServiceabilityResponse{
		Status: true,
		Data: []CourierOption{
			{ID: 1, Name: "Ekart", TotalCharges: 85.00, EDD: "4", CODCharges: 15.00},
			{ID: 7, Name: "Bluedart", TotalCharges: 110.00, EDD: "2", CODCharges: 20.00},
		},
	}, nil
}

// CreateShipment returns a mock AWB assignment.
func (m *MockAPIClient) CreateShipment(ctx context.Context, token string, req *ShipmentRequest) (*ShipmentResponse, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnCreateShipment != nil {
		return m.OnCreateShipment(ctx, token, req)
	}
	var resp ShipmentResponse
	resp.Status = true
	resp.Data.ShipmentID = time.Now().UnixNano() % 10000000
	resp.Data.AWBNumber = "NP" + uuid.New().String()[:10]
	resp.Data.CourierID = 1
	resp.Data.CourierName = "Ekart"
	return &resp, nil
}

// CancelShipment acknowledges a mock cancellation.
func (m *MockAPIClient) CancelShipment(ctx context.Context, token string, awb string) (*CancelResponse, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnCancelShipment != nil {
		return m.OnCancelShipment(ctx, token, awb)
	}
	return &CancelResponse{Status: true, Message: "shipment cancelled"}, nil
}

// TrackShipment returns mock tracking data.
func (m *MockAPIClient) TrackShipment(ctx context.Context, token string, awb string) (*TrackResponse, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnTrackShipment != nil {
		return m.OnTrackShipment(ctx, token, awb)
	}
	var resp TrackResponse
	resp.Status = true
	resp.Data.AWBNumber = awb
	resp.Data.Status = "in transit"
	return &resp, nil
}

// GetNDR returns mock non-delivery detail.
func (m *MockAPIClient) GetNDR(ctx context.Context, token string, awb string) (*NDRResponse, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnGetNDR != nil {
		return m.OnGetNDR(ctx, token, awb)
	}
	var resp NDRResponse
	resp.Status = true
	resp.Data.AWBNumber = awb
	resp.Data.ReasonCode = "ADDR_ISSUE"
	resp.Data.Reason = "Address incomplete"
	resp.Data.AttemptCount = 2
	resp.Data.LastAttemptAt = time.Now().UTC().Format(time.RFC3339)
	resp.Data.Actions = []string{"reattempt", "update-address", "rto"}
	return &resp, nil
}

// Ensure MockAPIClient implements APIClient interface
var _ APIClient = (*MockAPIClient)(nil)
