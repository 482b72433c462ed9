// Package nimbuspost provides integration with the NimbusPost courier API.
package nimbuspost

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

const providerName = "nimbuspost"

// NimbusPost tokens default to a day when the API omits expires_in.
const defaultTokenTTL = 24 * time.Hour

// Config holds NimbusPost configuration.
type Config struct {
	Email    string
	Password string
	BaseURL  string
	Timeout  time.Duration
	UseMock  bool
}

// Client is the NimbusPost provider client.
type Client struct {
	config    Config
	apiClient APIClient
	tokens    *auth.Cache
	logger    *otelzap.Logger
	tracer    trace.Tracer
}

// New creates a new NimbusPost client and registers its token source with
// the credential cache.
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

// NewWithAPIClient creates a new NimbusPost client with a custom API client.
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
	if !resp.Status || resp.Data == "" {
		return auth.Credential{}, courier.NewAuthError(providerName, "login rejected")
	}

	ttl := defaultTokenTTL
	if resp.ExpiresIn > 0 {
		ttl = time.Duration(resp.ExpiresIn) * time.Second
	}
	return auth.Credential{
		Provider:  providerName,
		Token:     resp.Data,
		ExpiresAt: time.Now().Add(ttl),
	}, nil
}

// Name returns the provider name.
func (c *Client) Name() string {
	return providerName
}

// CreateShipment books a shipment with NimbusPost.
func (c *Client) CreateShipment(ctx context.Context, req *courier.ShipmentRequest) (*courier.AWB, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.OrderID == "" {
		return nil, courier.NewValidationError("nimbuspost requires an order number")
	}
	if len(req.Dimensions) == 0 {
		return nil, courier.NewValidationError("nimbuspost requires package dimensions")
	}

	c.logger.Info("Creating NimbusPost shipment",
		zap.String("order_id", req.OrderID),
		zap.String("pickup", req.PickupPincode),
		zap.String("delivery", req.DeliveryPincode),
	)

	// NimbusPost takes a single package spec; use the first box group.
	box := req.Dimensions[0]
	apiReq := &ShipmentRequest{
		OrderNumber:      req.OrderID,
		PaymentType:      paymentTypeToAPI(req.PaymentMode),
		OrderAmount:      orderAmount(req),
		PackageWeight:    req.WeightGrams,
		PackageLength:    int(box.Length),
		PackageBreadth:   int(box.Width),
		PackageHeight:    int(box.Height),
		ConsigneePincode: req.DeliveryPincode,
		PickupPincode:    req.PickupPincode,
	}

	var apiResp *ShipmentResponse
	err := c.withAuth(ctx, func(token string) error {
		var err error
		apiResp, err = c.apiClient.CreateShipment(ctx, token, apiReq)
		return err
	})
	if err != nil {
		c.logger.Error("NimbusPost API error", zap.Error(err))
		return nil, err
	}

	if !apiResp.Status || apiResp.Data.AWBNumber == "" {
		return nil, courier.NewProviderError(providerName, "NO_AWB", apiResp.Message)
	}

	return &courier.AWB{
		Provider:   providerName,
		TrackingID: apiResp.Data.AWBNumber,
		Courier:    apiResp.Data.CourierName,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// CancelShipment cancels a shipment by AWB.
func (c *Client) CancelShipment(ctx context.Context, awb string) (*courier.CancelAck, error) {
	c.logger.Info("Cancelling NimbusPost shipment", zap.String("awb", awb))

	var apiResp *CancelResponse
	err := c.withAuth(ctx, func(token string) error {
		var err error
		apiResp, err = c.apiClient.CancelShipment(ctx, token, awb)
		return err
	})
	if err != nil {
		c.logger.Error("NimbusPost API error", zap.Error(err))
		return nil, err
	}

	if !apiResp.Status {
		if strings.Contains(strings.ToLower(apiResp.Message), "not found") {
			return nil, courier.NewNotFoundError(providerName, apiResp.Message)
		}
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
		apiResp, err = c.apiClient.TrackShipment(ctx, token, awb)
		return err
	})
	if err != nil {
		c.logger.Error("NimbusPost API error", zap.Error(err))
		return "", err
	}

	if !apiResp.Status {
		return "", courier.NewNotFoundError(providerName, fmt.Sprintf("awb %s not found", awb))
	}
	return mapTrackingStatus(apiResp.Data.Status), nil
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
		c.logger.Error("NimbusPost API error", zap.Error(err))
		return nil, err
	}

	if !apiResp.Status {
		return nil, courier.NewNotFoundError(providerName, fmt.Sprintf("no ndr record for awb %s", awb))
	}

	var attemptedAt time.Time
	if raw := apiResp.Data.LastAttemptAt; raw != "" {
		var parseErr error
		attemptedAt, parseErr = time.Parse(time.RFC3339, raw)
		if parseErr != nil {
			c.logger.Warn("Unparseable NDR attempt timestamp",
				zap.String("awb", awb),
				zap.String("last_attempt_at", raw),
				zap.Error(parseErr),
			)
		}
	}
	actions := apiResp.Data.Actions
	if len(actions) == 0 {
		actions = []string{"reattempt", "rto"}
	}

	return &courier.NDRRecord{
		Provider:    providerName,
		TrackingID:  apiResp.Data.AWBNumber,
		ReasonCode:  apiResp.Data.ReasonCode,
		Reason:      apiResp.Data.Reason,
		AttemptedAt: attemptedAt,
		Attempts:    apiResp.Data.AttemptCount,
		NextActions: actions,
	}, nil
}

// GetRate returns a price/SLA quote.
func (c *Client) GetRate(ctx context.Context, req *courier.ShipmentRequest) *courier.RateQuote {
	quote := &courier.RateQuote{Provider: providerName, Currency: "INR"}

	apiReq := &ServiceabilityRequest{
		OriginPincode:      req.PickupPincode,
		DestinationPincode: req.DeliveryPincode,
		PaymentType:        paymentTypeToAPI(req.PaymentMode),
		OrderAmount:        orderAmount(req),
		Weight:             req.WeightGrams,
	}
	if len(req.Dimensions) > 0 {
		apiReq.Length = int(req.Dimensions[0].Length)
		apiReq.Breadth = int(req.Dimensions[0].Width)
		apiReq.Height = int(req.Dimensions[0].Height)
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

	if !apiResp.Status || len(apiResp.Data) == 0 {
		reason := apiResp.Message
		if reason == "" {
			reason = "lane not serviceable"
		}
		quote.Reason = reason
		return quote
	}

	best := apiResp.Data[0]
	for _, opt := range apiResp.Data[1:] {
		if opt.TotalCharges < best.TotalCharges {
			best = opt
		}
	}

	quote.Success = true
	quote.Courier = best.Name
	quote.Price = best.TotalCharges
	quote.EstimatedDays = parseEDD(best.EDD)
	return quote
}

// withAuth runs fn with a cached bearer token, refreshing and retrying once
// if the provider rejects the token.
func (c *Client) withAuth(ctx context.Context, fn func(token string) error) error {
	token, err := c.tokens.Token(ctx, providerName)
	if err != nil {
		return mapError(err)
	}

	err = fn(token)
	if !isAuthRejected(err) {
		return mapError(err)
	}

	c.logger.Warn("NimbusPost rejected cached token, refreshing", zap.Error(err))
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

func paymentTypeToAPI(mode courier.PaymentMode) string {
	if mode == courier.PaymentCOD {
		return "cod"
	}
	return "prepaid"
}

func orderAmount(req *courier.ShipmentRequest) float64 {
	if req.PaymentMode == courier.PaymentCOD {
		return req.CODAmount
	}
	return req.DeclaredValue
}

func parseEDD(s string) int {
	if days, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		return days
	}
	return 0
}

func mapTrackingStatus(status string) courier.ShipmentStatus {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "booked", "pickup scheduled", "manifested":
		return courier.StatusCreated
	case "in transit", "shipped", "out for delivery":
		return courier.StatusInTransit
	case "delivered":
		return courier.StatusDelivered
	case "undelivered", "exception":
		return courier.StatusUndelivered
	case "rto", "rto in transit":
		return courier.StatusRTOInTransit
	case "rto delivered":
		return courier.StatusRTODelivered
	case "lost":
		return courier.StatusLost
	case "cancelled":
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
			code := fmt.Sprintf("HTTP_%d", apiErr.StatusCode)
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
