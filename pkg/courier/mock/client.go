// Package mock provides a mock courier provider for testing.
package mock

import (
	"context"
	"fmt"
	"time"

	"github.com/ordermesh/courier/pkg/courier"
)

// Client is a mock provider for testing. Zero value behavior returns
// plausible successes; fields customize quotes, latency, and failures.
type Client struct {
	name string

	// RatePrice is the quoted price; zero means a default.
	RatePrice float64
	// RateDays is the quoted SLA in days; zero means a default.
	RateDays int
	// RateFailReason, when set, makes GetRate return a failed quote.
	RateFailReason string
	// Latency is slept before every call, to simulate slow providers.
	Latency time.Duration
	// Err, when set, is returned by every fallible operation.
	Err error
	// Status is returned by GetStatus; empty means IN_TRANSIT.
	Status courier.ShipmentStatus
}

// New creates a new mock provider.
func New(name string) *Client {
	return &Client{name: name}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return c.name
}

func (c *Client) wait(ctx context.Context) error {
	if c.Latency <= 0 {
		return nil
	}
	select {
	case <-time.After(c.Latency):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// CreateShipment returns a mock AWB.
func (c *Client) CreateShipment(ctx context.Context, req *courier.ShipmentRequest) (*courier.AWB, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	if c.Err != nil {
		return nil, c.Err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return &courier.AWB{
		Provider:   c.name,
		TrackingID: fmt.Sprintf("%s-awb-%d", c.name, time.Now().UnixNano()),
		Courier:    "Delhivery",
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// CancelShipment acknowledges a mock cancellation.
func (c *Client) CancelShipment(ctx context.Context, awb string) (*courier.CancelAck, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	if c.Err != nil {
		return nil, c.Err
	}
	return &courier.CancelAck{Provider: c.name, TrackingID: awb, Cancelled: true}, nil
}

// GetStatus returns the configured status.
func (c *Client) GetStatus(ctx context.Context, awb string) (courier.ShipmentStatus, error) {
	if err := c.wait(ctx); err != nil {
		return "", err
	}
	if c.Err != nil {
		return "", c.Err
	}
	if c.Status != "" {
		return c.Status, nil
	}
	return courier.StatusInTransit, nil
}

// GetNDR returns a mock non-delivery record.
func (c *Client) GetNDR(ctx context.Context, awb string) (*courier.NDRRecord, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	if c.Err != nil {
		return nil, c.Err
	}
	return &courier.NDRRecord{
		Provider:    c.name,
		TrackingID:  awb,
		ReasonCode:  "CNA",
		Reason:      "Consignee not available",
		AttemptedAt: time.Now().UTC().Truncate(time.Second),
		Attempts:    1,
		NextActions: []string{"reattempt", "rto"},
	}, nil
}

// GetRate returns a mock quote.
func (c *Client) GetRate(ctx context.Context, req *courier.ShipmentRequest) *courier.RateQuote {
	quote := &courier.RateQuote{Provider: c.name, Currency: "INR"}

	if err := c.wait(ctx); err != nil {
		quote.Reason = courier.ReasonTimeout
		return quote
	}
	if c.RateFailReason != "" {
		quote.Reason = c.RateFailReason
		return quote
	}

	quote.Success = true
	quote.Courier = "Delhivery"
	quote.Price = c.RatePrice
	if quote.Price == 0 {
		quote.Price = 99.0
	}
	quote.EstimatedDays = c.RateDays
	if quote.EstimatedDays == 0 {
		quote.EstimatedDays = 3
	}
	return quote
}

// Ensure Client implements the Provider interface
var _ courier.Provider = (*Client)(nil)
