package nimbuspost

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// HTTPAPIClient is the production implementation of APIClient using HTTP.
type HTTPAPIClient struct {
	baseURL    string
	httpClient *http.Client
}

// HTTPAPIClientConfig holds configuration for the HTTP client.
type HTTPAPIClientConfig struct {
	BaseURL string
	Timeout time.Duration
}

// NewHTTPAPIClient creates a new HTTP-based API client for production use.
func NewHTTPAPIClient(cfg HTTPAPIClientConfig) *HTTPAPIClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &HTTPAPIClient{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Login exchanges account credentials for a bearer token.
// POST /v1/users/login
func (c *HTTPAPIClient) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	var result LoginResponse
	if err := c.doJSON(ctx, http.MethodPost, "/v1/users/login", "", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CheckServiceability queries courier options for a lane.
// POST /v1/courier/serviceability
func (c *HTTPAPIClient) CheckServiceability(ctx context.Context, token string, req *ServiceabilityRequest) (*ServiceabilityResponse, error) {
	var result ServiceabilityResponse
	if err := c.doJSON(ctx, http.MethodPost, "/v1/courier/serviceability", token, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CreateShipment books a shipment and assigns an AWB.
// POST /v1/shipments
func (c *HTTPAPIClient) CreateShipment(ctx context.Context, token string, req *ShipmentRequest) (*ShipmentResponse, error) {
	var result ShipmentResponse
	if err := c.doJSON(ctx, http.MethodPost, "/v1/shipments", token, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CancelShipment cancels a shipment by AWB.
// POST /v1/shipments/cancel
func (c *HTTPAPIClient) CancelShipment(ctx context.Context, token string, awb string) (*CancelResponse, error) {
	var result CancelResponse
	if err := c.doJSON(ctx, http.MethodPost, "/v1/shipments/cancel", token, &CancelRequest{AWB: awb}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// TrackShipment returns tracking data for an AWB.
// GET /v1/shipments/track/{awb}
func (c *HTTPAPIClient) TrackShipment(ctx context.Context, token string, awb string) (*TrackResponse, error) {
	var result TrackResponse
	path := "/v1/shipments/track/" + url.PathEscape(awb)
	if err := c.doJSON(ctx, http.MethodGet, path, token, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetNDR returns non-delivery detail for an AWB.
// GET /v1/ndr/{awb}
func (c *HTTPAPIClient) GetNDR(ctx context.Context, token string, awb string) (*NDRResponse, error) {
	var result NDRResponse
	path := "/v1/ndr/" + url.PathEscape(awb)
	if err := c.doJSON(ctx, http.MethodGet, path, token, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// doJSON performs a request and decodes the JSON response into out.
func (c *HTTPAPIClient) doJSON(ctx context.Context, method, path, token string, body, out any) error {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "ordermesh-courier/1.0")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return c.parseError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// parseError extracts error information from an HTTP response. Bodies that
// are not the documented JSON error shape never reach callers; they are
// replaced with a generic message so upstream HTML or stack traces stay out
// of our error chain.
func (c *HTTPAPIClient) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	apiErr := APIError{StatusCode: resp.StatusCode}
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
		return &apiErr
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    fmt.Sprintf("upstream returned HTTP %d", resp.StatusCode),
	}
}

// Ensure HTTPAPIClient implements APIClient interface
var _ APIClient = (*HTTPAPIClient)(nil)
