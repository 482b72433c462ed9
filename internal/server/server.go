// Package server exposes the courier core over a thin JSON HTTP surface.
// Caller identity arrives as trusted gateway headers; the upstream session
// collaborator has already verified it.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ordermesh/courier/internal/orchestrator"
	"github.com/ordermesh/courier/internal/telemetry"
	"github.com/ordermesh/courier/pkg/courier"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Server is the HTTP server for the courier service.
type Server struct {
	port         int
	orchestrator *orchestrator.Orchestrator
	rates        *courier.RateAggregator
	logger       *otelzap.Logger
	metrics      *telemetry.Metrics
}

// Config holds server configuration.
type Config struct {
	Port int
}

// New creates a new server instance.
func New(cfg Config, orch *orchestrator.Orchestrator, rates *courier.RateAggregator, metrics *telemetry.Metrics, logger *otelzap.Logger) *Server {
	return &Server{
		port:         cfg.Port,
		orchestrator: orch,
		rates:        rates,
		logger:       logger,
		metrics:      metrics,
	}
}

// Handler returns the routed HTTP handler, exposed for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /v1/rates", s.handleRates)
	mux.HandleFunc("POST /v1/shipments", s.handleCreateShipment)
	mux.HandleFunc("POST /v1/shipments/{awb}/cancel", s.handleCancelShipment)
	mux.HandleFunc("GET /v1/shipments/{awb}/ndr", s.handleNDR)
	mux.HandleFunc("POST /v1/shipments/{awb}/refresh", s.handleRefreshStatus)

	return mux
}

// Run starts the HTTP server and blocks until context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting server", zap.Int("port", s.port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// ============================================================================
// Request/Response types
// ============================================================================

type dimensionPayload struct {
	Count  int     `json:"count"`
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type shipmentPayload struct {
	OrderID         string             `json:"order_id"`
	PickupPincode   string             `json:"pickup_pincode"`
	DeliveryPincode string             `json:"delivery_pincode"`
	WeightGrams     int                `json:"weight_grams"`
	DeclaredValue   float64            `json:"declared_value"`
	PaymentMode     string             `json:"payment_mode"`
	CODAmount       float64            `json:"cod_amount"`
	Dimensions      []dimensionPayload `json:"dimensions"`
	Provider        string             `json:"provider,omitempty"`
}

type awbResponse struct {
	Provider   string    `json:"provider"`
	TrackingID string    `json:"tracking_id"`
	Courier    string    `json:"courier,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type quoteResponse struct {
	Provider      string  `json:"provider"`
	Courier       string  `json:"courier,omitempty"`
	Price         float64 `json:"price"`
	Currency      string  `json:"currency,omitempty"`
	EstimatedDays int     `json:"estimated_days,omitempty"`
	Success       bool    `json:"success"`
	Reason        string  `json:"reason,omitempty"`
}

type ndrResponse struct {
	Provider    string    `json:"provider"`
	TrackingID  string    `json:"tracking_id"`
	ReasonCode  string    `json:"reason_code"`
	Reason      string    `json:"reason"`
	AttemptedAt time.Time `json:"attempted_at"`
	Attempts    int       `json:"attempts"`
	NextActions []string  `json:"next_actions"`
}

type errorResponse struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

// ============================================================================
// Handlers
// ============================================================================

func (s *Server) handleRates(w http.ResponseWriter, r *http.Request) {
	var payload shipmentPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeError(w, http.StatusBadRequest, "BAD_JSON", "invalid JSON body")
		return
	}

	quotes, err := s.rates.GetBestRates(r.Context(), payloadToRequest(&payload))
	if err != nil {
		s.writeTaxonomyError(w, err)
		return
	}

	out := make([]quoteResponse, len(quotes))
	for i, q := range quotes {
		outcome := "success"
		if !q.Success {
			outcome = "failure"
		}
		s.metrics.RecordRateQuote(q.Provider, outcome)
		out[i] = quoteResponse{
			Provider:      q.Provider,
			Courier:       q.Courier,
			Price:         q.Price,
			Currency:      q.Currency,
			EstimatedDays: q.EstimatedDays,
			Success:       q.Success,
			Reason:        q.Reason,
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"quotes": out})
}

func (s *Server) handleCreateShipment(w http.ResponseWriter, r *http.Request) {
	var payload shipmentPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeError(w, http.StatusBadRequest, "BAD_JSON", "invalid JSON body")
		return
	}

	awb, err := s.orchestrator.CreateShipment(r.Context(), identityFromHeaders(r), payloadToRequest(&payload), payload.Provider)
	if err != nil {
		s.writeTaxonomyError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, awbResponse{
		Provider:   awb.Provider,
		TrackingID: awb.TrackingID,
		Courier:    awb.Courier,
		CreatedAt:  awb.CreatedAt,
	})
}

func (s *Server) handleCancelShipment(w http.ResponseWriter, r *http.Request) {
	awb := r.PathValue("awb")

	ack, err := s.orchestrator.CancelShipment(r.Context(), identityFromHeaders(r), awb)
	if err != nil {
		s.writeTaxonomyError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"provider":    ack.Provider,
		"tracking_id": ack.TrackingID,
		"cancelled":   ack.Cancelled,
	})
}

func (s *Server) handleNDR(w http.ResponseWriter, r *http.Request) {
	awb := r.PathValue("awb")

	ndr, err := s.orchestrator.GetNDRInfo(r.Context(), identityFromHeaders(r), awb)
	if err != nil {
		s.writeTaxonomyError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, ndrResponse{
		Provider:    ndr.Provider,
		TrackingID:  ndr.TrackingID,
		ReasonCode:  ndr.ReasonCode,
		Reason:      ndr.Reason,
		AttemptedAt: ndr.AttemptedAt,
		Attempts:    ndr.Attempts,
		NextActions: ndr.NextActions,
	})
}

func (s *Server) handleRefreshStatus(w http.ResponseWriter, r *http.Request) {
	awb := r.PathValue("awb")

	status, err := s.orchestrator.RefreshStatus(r.Context(), identityFromHeaders(r), awb)
	if err != nil {
		s.writeTaxonomyError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{"tracking_id": awb, "status": status})
}

// ============================================================================
// Helpers
// ============================================================================

// identityFromHeaders reads the verified identity injected by the upstream
// gateway. The core trusts these headers; it never sees raw session tokens.
func identityFromHeaders(r *http.Request) orchestrator.Identity {
	expiry, _ := time.Parse(time.RFC3339, r.Header.Get("X-Identity-Expiry"))
	return orchestrator.Identity{
		UserID:    r.Header.Get("X-User-Id"),
		Role:      r.Header.Get("X-User-Role"),
		ExpiresAt: expiry,
	}
}

func payloadToRequest(p *shipmentPayload) *courier.ShipmentRequest {
	dims := make([]courier.Dimension, len(p.Dimensions))
	for i, d := range p.Dimensions {
		dims[i] = courier.Dimension{Count: d.Count, Length: d.Length, Width: d.Width, Height: d.Height}
	}
	return &courier.ShipmentRequest{
		OrderID:         p.OrderID,
		PickupPincode:   p.PickupPincode,
		DeliveryPincode: p.DeliveryPincode,
		WeightGrams:     p.WeightGrams,
		DeclaredValue:   p.DeclaredValue,
		PaymentMode:     courier.PaymentMode(p.PaymentMode),
		CODAmount:       p.CODAmount,
		Dimensions:      dims,
		Type:            courier.ShipmentForward,
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, code, reason string) {
	s.writeJSON(w, status, errorResponse{Error: errorDetail{Code: code, Reason: reason}})
}

// writeTaxonomyError maps core errors onto stable codes and HTTP statuses.
// Upstream payloads and stack traces never reach the caller.
func (s *Server) writeTaxonomyError(w http.ResponseWriter, err error) {
	var courierErr *courier.Error
	reason := err.Error()
	if errors.As(err, &courierErr) {
		reason = courierErr.Message
		if courierErr.Provider != "" {
			reason = fmt.Sprintf("%s: %s", courierErr.Provider, courierErr.Message)
		}
	}

	switch {
	case courier.IsValidation(err):
		s.writeError(w, http.StatusBadRequest, "VALIDATION", reason)
	case errors.Is(err, courier.ErrUnauthorized):
		s.writeError(w, http.StatusForbidden, "UNAUTHORIZED", reason)
	case courier.IsNotFound(err):
		s.writeError(w, http.StatusNotFound, "NOT_FOUND", reason)
	case errors.Is(err, courier.ErrTerminalStatus):
		s.writeError(w, http.StatusConflict, "STATUS_CONFLICT", reason)
	case errors.Is(err, courier.ErrProviderNotFound):
		s.writeError(w, http.StatusBadRequest, "UNKNOWN_PROVIDER", reason)
	case courier.IsAuth(err):
		s.writeError(w, http.StatusBadGateway, "PROVIDER_AUTH", reason)
	case courier.IsTimeout(err):
		s.writeError(w, http.StatusGatewayTimeout, "TIMEOUT", reason)
	default:
		s.writeError(w, http.StatusBadGateway, "PROVIDER", reason)
	}
}
