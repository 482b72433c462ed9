package nimbuspost_test

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/ordermesh/courier/pkg/courier"
	"github.com/ordermesh/courier/pkg/courier/auth"
	"github.com/ordermesh/courier/pkg/courier/nimbuspost"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

func newTestClient(mockAPI *nimbuspost.MockAPIClient) *nimbuspost.Client {
	logger := otelzap.New(zap.NewNop())
	tokens := auth.NewCache()
	return nimbuspost.NewWithAPIClient(
		nimbuspost.Config{Email: "test@example.com", Password: "secret"},
		mockAPI,
		tokens,
		logger,
		nil,
	)
}

func validRequest() *courier.ShipmentRequest {
	return &courier.ShipmentRequest{
		OrderID:         "ORD-2001",
		PickupPincode:   "110001",
		DeliveryPincode: "400001",
		WeightGrams:     750,
		DeclaredValue:   1200,
		PaymentMode:     courier.PaymentPrepaid,
		Dimensions: []courier.Dimension{
			{Count: 1, Length: 25, Width: 20, Height: 12},
		},
	}
}

func TestClient_CreateShipment_Success(t *testing.T) {
	mockAPI := nimbuspost.NewMockAPIClient()
	client := newTestClient(mockAPI)

	awb, err := client.CreateShipment(context.Background(), validRequest())

	require.NoError(t, err)
	assert.Equal(t, "nimbuspost", awb.Provider)
	assert.NotEmpty(t, awb.TrackingID)
	assert.Equal(t, "Ekart", awb.Courier)
}

func TestClient_CreateShipment_RequiresDimensions(t *testing.T) {
	mockAPI := nimbuspost.NewMockAPIClient()
	client := newTestClient(mockAPI)

	req := validRequest()
	req.Dimensions = nil

	_, err := client.CreateShipment(context.Background(), req)
	assert.True(t, courier.IsValidation(err))
}

func TestClient_CreateShipment_BookingRejected(t *testing.T) {
	mockAPI := nimbuspost.NewMockAPIClient()
	mockAPI.OnCreateShipment = func(ctx context.Context, token string, req *nimbuspost.ShipmentRequest) (*nimbuspost.ShipmentResponse, error) {
		return &nimbuspost.ShipmentResponse{Status: false, Message: "pickup location not registered"}, nil
	}
	client := newTestClient(mockAPI)

	_, err := client.CreateShipment(context.Background(), validRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, courier.ErrProvider)
}

func TestClient_RetriesOnceOnRejectedToken(t *testing.T) {
	mockAPI := nimbuspost.NewMockAPIClient()

	var tracks atomic.Int64
	mockAPI.OnTrackShipment = func(ctx context.Context, token, awb string) (*nimbuspost.TrackResponse, error) {
		if tracks.Add(1) == 1 {
			return nil, &nimbuspost.APIError{StatusCode: http.StatusUnauthorized, Message: "token expired"}
		}
		var resp nimbuspost.TrackResponse
		resp.Status = true
		resp.Data.Status = "delivered"
		return &resp, nil
	}
	client := newTestClient(mockAPI)

	status, err := client.GetStatus(context.Background(), "NP123")

	require.NoError(t, err)
	assert.Equal(t, courier.StatusDelivered, status)
	assert.Equal(t, int64(2), tracks.Load())
}

func TestClient_CancelShipment_NotFound(t *testing.T) {
	mockAPI := nimbuspost.NewMockAPIClient()
	mockAPI.OnCancelShipment = func(ctx context.Context, token, awb string) (*nimbuspost.CancelResponse, error) {
		return &nimbuspost.CancelResponse{Status: false, Message: "shipment not found"}, nil
	}
	client := newTestClient(mockAPI)

	_, err := client.CancelShipment(context.Background(), "NOPE")
	assert.True(t, courier.IsNotFound(err))
}

func TestClient_CancelShipment_Success(t *testing.T) {
	mockAPI := nimbuspost.NewMockAPIClient()
	client := newTestClient(mockAPI)

	ack, err := client.CancelShipment(context.Background(), "NP123")

	require.NoError(t, err)
	assert.True(t, ack.Cancelled)
	assert.Equal(t, "NP123", ack.TrackingID)
}

func TestClient_GetStatus_Mapping(t *testing.T) {
	tests := []struct {
		raw  string
		want courier.ShipmentStatus
	}{
		{"booked", courier.StatusCreated},
		{"in transit", courier.StatusInTransit},
		{"delivered", courier.StatusDelivered},
		{"exception", courier.StatusUndelivered},
		{"rto", courier.StatusRTOInTransit},
		{"weird hub scan", courier.StatusInTransit},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			mockAPI := nimbuspost.NewMockAPIClient()
			mockAPI.OnTrackShipment = func(ctx context.Context, token, awb string) (*nimbuspost.TrackResponse, error) {
				var resp nimbuspost.TrackResponse
				resp.Status = true
				resp.Data.Status = tt.raw
				return &resp, nil
			}
			client := newTestClient(mockAPI)

			status, err := client.GetStatus(context.Background(), "NP123")
			require.NoError(t, err)
			assert.Equal(t, tt.want, status)
		})
	}
}

func TestClient_GetNDR(t *testing.T) {
	mockAPI := nimbuspost.NewMockAPIClient()
	client := newTestClient(mockAPI)

	rec, err := client.GetNDR(context.Background(), "NP123")

	require.NoError(t, err)
	assert.Equal(t, "nimbuspost", rec.Provider)
	assert.Equal(t, "NP123", rec.TrackingID)
	assert.Equal(t, "ADDR_ISSUE", rec.ReasonCode)
	assert.Equal(t, 2, rec.Attempts)
	assert.Contains(t, rec.NextActions, "update-address")
}

func TestClient_GetNDR_MalformedTimestamp(t *testing.T) {
	mockAPI := nimbuspost.NewMockAPIClient()
	mockAPI.OnGetNDR = func(ctx context.Context, token, awb string) (*nimbuspost.NDRResponse, error) {
		var resp nimbuspost.NDRResponse
		resp.Status = true
		resp.Data.AWBNumber = awb
		resp.Data.ReasonCode = "ADDR_ISSUE"
		resp.Data.LastAttemptAt = "last tuesday"
		return &resp, nil
	}
	client := newTestClient(mockAPI)

	rec, err := client.GetNDR(context.Background(), "NP123")

	require.NoError(t, err, "a malformed attempt timestamp must not fail the lookup")
	assert.True(t, rec.AttemptedAt.IsZero())
	assert.Equal(t, "ADDR_ISSUE", rec.ReasonCode)
}

func TestClient_GetRate_PicksCheapestOption(t *testing.T) {
	mockAPI := nimbuspost.NewMockAPIClient()
	client := newTestClient(mockAPI)

	quote := client.GetRate(context.Background(), validRequest())

	assert.True(t, quote.Success)
	assert.Equal(t, "nimbuspost", quote.Provider)
	assert.Equal(t, "Ekart", quote.Courier) // 85.00 beats Bluedart at 110.00
	assert.Equal(t, 85.00, quote.Price)
	assert.Equal(t, 4, quote.EstimatedDays)
}

func TestClient_GetRate_NotServiceable(t *testing.T) {
	mockAPI := nimbuspost.NewMockAPIClient()
	mockAPI.OnCheckServiceability = func(ctx context.Context, token string, req *nimbuspost.ServiceabilityRequest) (*nimbuspost.ServiceabilityResponse, error) {
		return &nimbuspost.ServiceabilityResponse{Status: false, Message: "pincode not serviceable"}, nil
	}
	client := newTestClient(mockAPI)

	quote := client.GetRate(context.Background(), validRequest())

	assert.False(t, quote.Success)
	assert.Equal(t, "pincode not serviceable", quote.Reason)
}

func TestClient_LoginRejected(t *testing.T) {
	mockAPI := nimbuspost.NewMockAPIClient()
	mockAPI.OnLogin = func(ctx context.Context, req *nimbuspost.LoginRequest) (*nimbuspost.LoginResponse, error) {
		return &nimbuspost.LoginResponse{Status: false}, nil
	}
	client := newTestClient(mockAPI)

	_, err := client.GetStatus(context.Background(), "NP123")
	assert.True(t, courier.IsAuth(err))
}

func TestClient_Name(t *testing.T) {
	client := newTestClient(nimbuspost.NewMockAPIClient())
	assert.Equal(t, "nimbuspost", client.Name())
}
