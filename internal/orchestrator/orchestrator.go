// Package orchestrator is the facade callers use to book, cancel, and
// inspect shipments. It enforces caller authorization, routes to the right
// provider adapter, and keeps the persisted lifecycle status consistent
// with the state machine.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ordermesh/courier/internal/store"
	"github.com/ordermesh/courier/internal/telemetry"
	"github.com/ordermesh/courier/pkg/courier"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Identity is a caller identity already verified by the external session
// collaborator. The orchestrator trusts it and only applies authorization
// rules; it never parses or verifies raw tokens.
type Identity struct {
	UserID    string
	Role      string
	ExpiresAt time.Time
}

// Expired reports whether the identity's session has lapsed.
func (id Identity) Expired(now time.Time) bool {
	return !id.ExpiresAt.After(now)
}

// Roles allowed to book and cancel shipments.
var shippingRoles = map[string]bool{
	"admin":      true,
	"operations": true,
	"seller":     true,
}

// Orchestrator routes shipment operations to provider adapters and records
// outcomes in the order store.
type Orchestrator struct {
	registry        *courier.Registry
	store           store.OrderStore
	defaultProvider string
	logger          *otelzap.Logger
	metrics         *telemetry.Metrics
	now             func() time.Time
}

// New creates an orchestrator. defaultProvider is the routing fallback used
// when the caller does not name a provider.
func New(registry *courier.Registry, orderStore store.OrderStore, defaultProvider string, logger *otelzap.Logger, metrics *telemetry.Metrics) *Orchestrator {
	return &Orchestrator{
		registry:        registry,
		store:           orderStore,
		defaultProvider: defaultProvider,
		logger:          logger,
		metrics:         metrics,
		now:             time.Now,
	}
}

// authorize checks the verified identity against the shipping roles.
func (o *Orchestrator) authorize(id Identity) error {
	if id.UserID == "" || id.Expired(o.now()) {
		return fmt.Errorf("%w: session expired", courier.ErrUnauthorized)
	}
	if !shippingRoles[id.Role] {
		return fmt.Errorf("%w: role %q may not manage shipments", courier.ErrUnauthorized, id.Role)
	}
	return nil
}

// CreateShipment books a shipment with the named provider (or the configured
// default) and persists the resulting AWB with status CREATED. Creates are
// never retried here: a duplicate booking would mint a duplicate AWB.
// Callers wanting idempotency dedupe on order ID before calling in.
func (o *Orchestrator) CreateShipment(ctx context.Context, id Identity, req *courier.ShipmentRequest, providerName string) (*courier.AWB, error) {
	if err := o.authorize(id); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if providerName == "" {
		providerName = o.defaultProvider
	}
	provider, err := o.registry.Get(providerName)
	if err != nil {
		return nil, err
	}

	start := o.now()
	awb, err := provider.CreateShipment(ctx, req)
	o.metrics.RecordRequest("create_shipment", providerName, statusLabel(err), time.Since(start).Seconds())
	if err != nil {
		o.metrics.RecordError(providerName, errorType(err))
		o.logger.Error("Shipment creation failed",
			zap.String("provider", providerName),
			zap.String("order_id", req.OrderID),
			zap.Error(err),
		)
		return nil, err
	}

	rec := store.ShipmentRecord{
		OrderID:   req.OrderID,
		AWB:       awb.TrackingID,
		Provider:  awb.Provider,
		Courier:   awb.Courier,
		Status:    courier.StatusCreated,
		CreatedAt: awb.CreatedAt,
	}
	if err := o.store.SaveShipment(ctx, rec); err != nil {
		// The provider booking stands; surface the persistence failure so
		// the caller can reconcile rather than re-book.
		o.logger.Error("Failed to persist booked shipment",
			zap.String("awb", awb.TrackingID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("shipment %s booked but not persisted: %w", awb.TrackingID, err)
	}

	o.logger.Info("Shipment created",
		zap.String("provider", awb.Provider),
		zap.String("awb", awb.TrackingID),
		zap.String("courier", awb.Courier),
	)
	return awb, nil
}

// CancelShipment cancels a booked shipment. The persisted status moves to
// CANCELLED only after the owning provider confirms, and only from states
// the lifecycle allows.
func (o *Orchestrator) CancelShipment(ctx context.Context, id Identity, awb string) (*courier.CancelAck, error) {
	if err := o.authorize(id); err != nil {
		return nil, err
	}

	rec, err := o.store.GetShipment(ctx, awb)
	if errors.Is(err, store.ErrNotFound) {
		return nil, courier.NewNotFoundError("", fmt.Sprintf("awb %s is not a known shipment", awb))
	}
	if err != nil {
		return nil, err
	}

	if !rec.Status.CanTransition(courier.StatusCancelled) {
		return nil, courier.NewStatusConflictError(rec.Provider,
			fmt.Sprintf("shipment %s cannot be cancelled from status %s", awb, rec.Status))
	}

	provider, err := o.registry.Get(rec.Provider)
	if err != nil {
		return nil, err
	}

	start := o.now()
	ack, err := provider.CancelShipment(ctx, awb)
	o.metrics.RecordRequest("cancel_shipment", rec.Provider, statusLabel(err), time.Since(start).Seconds())
	if err != nil {
		o.metrics.RecordError(rec.Provider, errorType(err))
		return nil, err
	}

	if err := o.store.UpdateStatus(ctx, awb, courier.StatusCancelled); err != nil {
		return nil, fmt.Errorf("shipment %s cancelled but status not persisted: %w", awb, err)
	}

	o.logger.Info("Shipment cancelled",
		zap.String("provider", rec.Provider),
		zap.String("awb", awb),
	)
	return ack, nil
}

// GetNDRInfo returns normalized non-delivery detail for a shipment.
func (o *Orchestrator) GetNDRInfo(ctx context.Context, id Identity, awb string) (*courier.NDRRecord, error) {
	if id.UserID == "" || id.Expired(o.now()) {
		return nil, fmt.Errorf("%w: session expired", courier.ErrUnauthorized)
	}

	rec, err := o.store.GetShipment(ctx, awb)
	if errors.Is(err, store.ErrNotFound) {
		return nil, courier.NewNotFoundError("", fmt.Sprintf("awb %s is not a known shipment", awb))
	}
	if err != nil {
		return nil, err
	}

	provider, err := o.registry.Get(rec.Provider)
	if err != nil {
		return nil, err
	}

	start := o.now()
	ndr, err := provider.GetNDR(ctx, awb)
	o.metrics.RecordRequest("get_ndr", rec.Provider, statusLabel(err), time.Since(start).Seconds())
	if err != nil {
		o.metrics.RecordError(rec.Provider, errorType(err))
		return nil, err
	}
	return ndr, nil
}

// RefreshStatus polls the owning provider for the current shipment status
// and persists it if the state machine allows the transition. A provider
// answer that would move a terminal shipment is rejected.
func (o *Orchestrator) RefreshStatus(ctx context.Context, id Identity, awb string) (courier.ShipmentStatus, error) {
	if id.UserID == "" || id.Expired(o.now()) {
		return "", fmt.Errorf("%w: session expired", courier.ErrUnauthorized)
	}

	rec, err := o.store.GetShipment(ctx, awb)
	if errors.Is(err, store.ErrNotFound) {
		return "", courier.NewNotFoundError("", fmt.Sprintf("awb %s is not a known shipment", awb))
	}
	if err != nil {
		return "", err
	}

	provider, err := o.registry.Get(rec.Provider)
	if err != nil {
		return "", err
	}

	start := o.now()
	status, err := provider.GetStatus(ctx, awb)
	o.metrics.RecordRequest("get_status", rec.Provider, statusLabel(err), time.Since(start).Seconds())
	if err != nil {
		o.metrics.RecordError(rec.Provider, errorType(err))
		return "", err
	}

	if status == rec.Status {
		return status, nil
	}
	if !rec.Status.CanTransition(status) {
		return rec.Status, courier.NewStatusConflictError(rec.Provider,
			fmt.Sprintf("provider reported %s but shipment %s is %s", status, awb, rec.Status))
	}
	if err := o.store.UpdateStatus(ctx, awb, status); err != nil {
		return rec.Status, err
	}
	return status, nil
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// errorType classifies a provider failure for the error counter.
func errorType(err error) string {
	switch {
	case courier.IsAuth(err):
		return "auth"
	case courier.IsTimeout(err):
		return "timeout"
	case courier.IsNotFound(err):
		return "not_found"
	case courier.IsValidation(err):
		return "validation"
	default:
		return "provider"
	}
}
