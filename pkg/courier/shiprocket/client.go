// Package shiprocket provides integration with the Shiprocket courier
// aggregation API.
package shiprocket

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ordermesh/courier/pkg/courier"
	"github.com/ordermesh/courier/pkg/courier/auth"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const providerName = "shiprocket"

// Default token lifetime when the API omits expires_in. Shiprocket tokens
// are valid for ten days.
const defaultTokenTTL = 240 * time.Hour

// Config holds Shiprocket configuration.
type Config struct {
	Email    string
	Password string
	BaseURL  string
	Timeout  time.Duration
	UseMock  bool // When true, uses mock API client
}

// Client is the Shiprocket provider client. It implements the
// courier.Provider interface and delegates API calls to the underlying
// APIClient (mock or HTTP). Bearer tokens come from the credential cache;
// a 401 invalidates the cached token and the call is retried exactly once.
type Client struct {
	config    Config
	apiClient APIClient
	tokens    *auth.Cache
	logger    *otelzap.Logger
	tracer    trace.Tracer
}

// New creates a new Shiprocket client and registers its token source with
// the credential cache. If cfg.UseMock is true, it uses a mock API client.
func New(cfg Config, tokens *auth.Cache, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	var apiClient APIClient

	if cfg.UseMock {
		apiClient = NewMockAPIClient()
	} else {
		apiClient = NewHTTPAPIClient(HTTPAPIClientConfig{
			BaseURL: cfg.BaseURL,
			Timeout: cfg.Timeout,
		})
	}

	return NewWithAPIClient(cfg, apiClient, tokens, logger, tracer)
}

// NewWithAPIClient creates a new Shiprocket client with a custom API
// client. This is useful for injecting mock clients in tests.
func NewWithAPIClient(cfg Config, apiClient APIClient, tokens *auth.Cache, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	c := &Client{
		config:    cfg,
		apiClient: apiClient,
		tokens:    tokens,
		logger:    logger,
		tracer:    tracer,
	}
	tokens.Register(&tokenSource{api: apiClient, cfg: cfg})
	return c
}

// tokenSource performs the Shiprocket login exchange for the credential
// cache.
type tokenSource struct {
	api APIClient
	cfg Config
}

func (s *tokenSource) Provider() string {
	return providerName
}

func (s *tokenSource) Authenticate(ctx context.Context) (auth.Credential, error) {
	resp, err := s.api.Login(ctx, &LoginRequest{
		Email:    s.cfg.Email,
		Password: s.cfg.Password,
	})
	if err != nil {
		return auth.Credential{}, courier.NewAuthError(providerName, err.Error())
	}
	if resp.Token == "" {
		return auth.Credential{}, courier.NewAuthError(providerName, "login returned empty token")
	}

	ttl := defaultTokenTTL
	if resp.ExpiresIn > 0 {
		ttl = time.Duration(resp.ExpiresIn) * time.Second
	}
	return auth.Credential{
		Provider:  providerName,
		Token:     resp.Token,
		ExpiresAt: time.Now().Add(ttl),
	}, nil
}

// Name returns the provider name.
func (c *Client) Name() string {
	return providerName
}

// CreateShipment books a forward shipment with Shiprocket.
func (c *Client) CreateShipment(ctx context.Context, req *courier.ShipmentRequest) (*courier.AWB, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.OrderID == "" {
		return nil, courier.NewValidationError("shiprocket requires an order id")
	}

	c.logger.Info("Creating Shiprocket shipment",
		zap.String("order_id", req.OrderID),
		zap.String("pickup", req.PickupPincode),
		zap.String("delivery", req.DeliveryPincode),
	)

	apiReq := &ForwardShipmentRequest{
		OrderID:         req.OrderID,
		PaymentMethod:   paymentMethodToAPI(req.PaymentMode),
		SubTotal:        req.DeclaredValue,
		PickupPostcode:  req.PickupPincode,
		BillingPincode:  req.DeliveryPincode,
		ShippingPincode: req.DeliveryPincode,
		Weight:          gramsToKG(req.WeightGrams),
		Boxes:           boxesToAPI(req.Dimensions),
	}

	var apiResp *ForwardShipmentResponse
	err := c.withAuth(ctx, func(token string) error {
		var err error
		apiResp, err = c.apiClient.CreateForwardShipment(ctx, token, apiReq)
		return err
	})
	if err != nil {
		c.logger.Error("Shiprocket API error", zap.Error(err))
		return nil, err
	}

	if apiResp.AWBCode == "" {
		return nil, courier.NewProviderError(providerName, "NO_AWB", "shipment created without awb assignment")
	}

	return &courier.AWB{
		Provider:   providerName,
		TrackingID: apiResp.AWBCode,
		Courier:    apiResp.CourierName,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// CancelShipment cancels a shipment by AWB.
func (c *Client) CancelShipment(ctx context.Context, awb string) (*courier.CancelAck, error) {
	c.logger.Info("Cancelling Shiprocket shipment", zap.String("awb", awb))

	var apiResp *CancelResponse
	err := c.withAuth(ctx, func(token string) error {
		var err error
		apiResp, err = c.apiClient.CancelShipment(ctx, token, []string{awb})
		return err
	})
	if err != nil {
		c.logger.Error("Shiprocket API error", zap.Error(err))
		return nil, err
	}

	// A 200 transport response can still carry a rejected cancellation.
	if apiResp.Status != http.StatusOK {
		return nil, courier.NewProviderError(providerName, "CANCEL_REJECTED", apiResp.Message)
	}

	return &courier.CancelAck{
		Provider:   providerName,
		TrackingID: awb,
		Cancelled:  true,
	}, nil
}

// GetStatus returns the normalized status of a shipment.
func (c *Client) GetStatus(ctx context.Context, awb string) (courier.ShipmentStatus, error) {
	var apiResp *TrackResponse
	err := c.withAuth(ctx, func(token string) error {
		var err error
		apiResp, err = c.apiClient.TrackAWB(ctx, token, awb)
		return err
	})
	if err != nil {
		c.logger.Error("Shiprocket API error", zap.Error(err))
		return "", err
	}

	return mapTrackingStatus(apiResp.TrackingData.CurrentStatus), nil
}

// GetNDR returns normalized non-delivery detail for a shipment.
func (c *Client) GetNDR(ctx context.Context, awb string) (*courier.NDRRecord, error) {
	var apiResp *NDRResponse
	err := c.withAuth(ctx, func(token string) error {
		var err error
		apiResp, err = c.apiClient.GetNDR(ctx, token, awb)
		return err
	})
	if err != nil {
		c.logger.Error("Shiprocket API error", zap.Error(err))
		return nil, err
	}

	if len(apiResp.Data) == 0 {
		return nil, courier.NewNotFoundError(providerName, fmt.Sprintf("no ndr record for awb %s", awb))
	}

	rec, parseErr := ndrEntryToRecord(&apiResp.Data[0])
	if parseErr != nil {
		c.logger.Warn("Unparseable NDR attempt timestamp",
			zap.String("awb", awb),
			zap.String("raised_at", apiResp.Data[0].NDRRaisedAt),
			zap.Error(parseErr),
		)
	}
	return rec, nil
}

// GetRate returns a price/SLA quote. Business-level failures are reported
// on the quote so rate shopping continues with other providers.
func (c *Client) GetRate(ctx context.Context, req *courier.ShipmentRequest) *courier.RateQuote {
	quote := &courier.RateQuote{Provider: providerName, Currency: "INR"}

	apiReq := &ServiceabilityRequest{
		PickupPostcode:   req.PickupPincode,
		DeliveryPostcode: req.DeliveryPincode,
		WeightKG:         gramsToKG(req.WeightGrams),
		COD:              req.PaymentMode == courier.PaymentCOD,
		DeclaredValue:    req.DeclaredValue,
	}

	var apiResp *ServiceabilityResponse
	err := c.withAuth(ctx, func(token string) error {
		var err error
		apiResp, err = c.apiClient.CheckServiceability(ctx, token, apiReq)
		return err
	})
	if err != nil {
		quote.Reason = err.Error()
		return quote
	}

	companies := apiResp.Data.AvailableCourierCompanies
	if len(companies) == 0 {
		quote.Reason = "lane not serviceable"
		return quote
	}

	best := companies[0]
	for _, cc := range companies[1:] {
		if cc.Rate < best.Rate {
			best = cc
		}
	}

	quote.Success = true
	quote.Courier = best.CourierName
	quote.Price = best.Rate
	quote.EstimatedDays = parseEstimatedDays(best.EstimatedDeliveryDays)
	return quote
}

// withAuth runs fn with a cached bearer token. If the provider rejects the
// token, the cache entry is invalidated and fn retried exactly once with a
// freshly exchanged token.
func (c *Client) withAuth(ctx context.Context, fn func(token string) error) error {
	token, err := c.tokens.Token(ctx, providerName)
	if err != nil {
		return mapError(err)
	}

	err = fn(token)
	if !isAuthRejected(err) {
		return mapError(err)
	}

	c.logger.Warn("Shiprocket rejected cached token, refreshing", zap.Error(err))
	if err := c.tokens.Invalidate(ctx, providerName); err != nil {
		return mapError(err)
	}
	token, err = c.tokens.Token(ctx, providerName)
	if err != nil {
		return mapError(err)
	}
	return mapError(fn(token))
}

// ============================================================================
// Conversion helpers
// ============================================================================

func paymentMethodToAPI(mode courier.PaymentMode) string {
	if mode == courier.PaymentCOD {
		return "COD"
	}
	return "Prepaid"
}

func gramsToKG(grams int) float64 {
	return float64(grams) / 1000.0
}

func boxesToAPI(dims []courier.Dimension) []ShipmentBox {
	boxes := make([]ShipmentBox, len(dims))
	for i, d := range dims {
		boxes[i] = ShipmentBox{
			Units:   d.Count,
			Length:  d.Length,
			Breadth: d.Width,
			Height:  d.Height,
		}
	}
	return boxes
}

func ndrEntryToRecord(e *NDREntry) (*courier.NDRRecord, error) {
	var attemptedAt time.Time
	var parseErr error
	if e.NDRRaisedAt != "" {
		attemptedAt, parseErr = time.Parse(time.RFC3339, e.NDRRaisedAt)
	}

	reasonCode := e.ReasonCode
	if reasonCode == "" {
		reasonCode = "UNKNOWN"
	}

	actions := e.Actions
	if len(actions) == 0 {
		actions = []string{"reattempt", "rto"}
	}

	return &courier.NDRRecord{
		Provider:    providerName,
		TrackingID:  e.AWB,
		ReasonCode:  reasonCode,
		Reason:      e.Reason,
		AttemptedAt: attemptedAt,
		Attempts:    e.Attempts,
		NextActions: actions,
	}, parseErr
}

func parseEstimatedDays(s string) int {
	if days, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		return days
	}
	return 0
}

func mapTrackingStatus(status string) courier.ShipmentStatus {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "awb assigned", "pickup scheduled", "pickup generated", "manifested":
		return courier.StatusCreated
	case "shipped", "in transit", "out for delivery", "reached destination hub":
		return courier.StatusInTransit
	case "delivered":
		return courier.StatusDelivered
	case "undelivered", "ndr raised":
		return courier.StatusUndelivered
	case "rto initiated", "rto in transit":
		return courier.StatusRTOInTransit
	case "rto delivered":
		return courier.StatusRTODelivered
	case "lost", "damaged":
		return courier.StatusLost
	case "cancelled", "canceled":
		return courier.StatusCancelled
	default:
		return courier.StatusInTransit
	}
}

// ============================================================================
// Error mapping
// ============================================================================

func isAuthRejected(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusUnauthorized
	}
	return false
}

func mapError(err error) error {
	if err == nil {
		return nil
	}

	var courierErr *courier.Error
	if errors.As(err, &courierErr) {
		return err
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return courier.NewAuthError(providerName, apiErr.Message)
		case http.StatusNotFound:
			return courier.NewNotFoundError(providerName, apiErr.Message)
		default:
			code := apiErr.Code
			if code == "" {
				code = fmt.Sprintf("HTTP_%d", apiErr.StatusCode)
			}
			return courier.NewProviderError(providerName, code, apiErr.Message).WithStatusCode(apiErr.StatusCode)
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return courier.NewTimeoutError(providerName, err.Error())
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return courier.NewTimeoutError(providerName, err.Error())
	}

	return courier.NewProviderError(providerName, "UPSTREAM", err.Error())
}

// Ensure Client implements the Provider interface
var _ courier.Provider = (*Client)(nil)
