package shiprocket

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
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
// POST /v1/external/auth/login
func (c *HTTPAPIClient) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/external/auth/login", "", req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	var result LoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode login response: %w", err)
	}
	return &result, nil
}

// CheckServiceability queries lane serviceability and rates.
// GET /v1/external/courier/serviceability
func (c *HTTPAPIClient) CheckServiceability(ctx context.Context, token string, req *ServiceabilityRequest) (*ServiceabilityResponse, error) {
	q := url.Values{}
	q.Set("pickup_postcode", req.PickupPostcode)
	q.Set("delivery_postcode", req.DeliveryPostcode)
	q.Set("weight", strconv.FormatFloat(req.WeightKG, 'f', -1, 64))
	if req.COD {
		q.Set("cod", "1")
	} else {
		q.Set("cod", "0")
	}
	if req.DeclaredValue > 0 {
		q.Set("declared_value", strconv.FormatFloat(req.DeclaredValue, 'f', -1, 64))
	}

	path := "/v1/external/courier/serviceability?" + q.Encode()
	resp, err := c.doRequest(ctx, http.MethodGet, path, token, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	var result ServiceabilityResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode serviceability response: %w", err)
	}
	return &result, nil
}

// CreateForwardShipment books a shipment and assigns an AWB.
// POST /v1/external/shipments/create/forward-shipment
func (c *HTTPAPIClient) CreateForwardShipment(ctx context.Context, token string, req *ForwardShipmentRequest) (*ForwardShipmentResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/external/shipments/create/forward-shipment", token, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, c.parseError(resp)
	}

	var result ForwardShipmentResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode shipment response: %w", err)
	}
	return &result, nil
}

// CancelShipment cancels shipments by AWB code.
// POST /v1/external/orders/cancel/shipment/awbs
func (c *HTTPAPIClient) CancelShipment(ctx context.Context, token string, awbs []string) (*CancelResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/external/orders/cancel/shipment/awbs", token, &CancelRequest{AWBs: awbs})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	var result CancelResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode cancel response: %w", err)
	}
	return &result, nil
}

// TrackAWB returns tracking data for an AWB.
// GET /v1/external/courier/track/awb/{awb}
func (c *HTTPAPIClient) TrackAWB(ctx context.Context, token string, awb string) (*TrackResponse, error) {
	path := "/v1/external/courier/track/awb/" + url.PathEscape(awb)
	resp, err := c.doRequest(ctx, http.MethodGet, path, token, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	var result TrackResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode tracking response: %w", err)
	}
	return &result, nil
}

// GetNDR returns non-delivery detail for an AWB.
// GET /v1/external/ndr/{awb}
func (c *HTTPAPIClient) GetNDR(ctx context.Context, token string, awb string) (*NDRResponse, error) {
	path := "/v1/external/ndr/" + url.PathEscape(awb)
	resp, err := c.doRequest(ctx, http.MethodGet, path, token, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	var result NDRResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode ndr response: %w", err)
	}
	return &result, nil
}

// doRequest performs an HTTP request with proper headers. The bearer token
// is attached only for authenticated endpoints.
func (c *HTTPAPIClient) doRequest(ctx context.Context, method, path, token string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "ordermesh-courier/1.0")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return c.httpClient.Do(req)
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
