package warehouse

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"fleet-dash/internal/domain"
	"fleet-dash/internal/tabular"
)

var _ domain.Warehouse = (*ProxyClient)(nil)

// maxResponseBytes caps how much of a proxy response is read.
const maxResponseBytes = 64 << 20

// ProxyClientOptions tunes a ProxyClient.
type ProxyClientOptions struct {
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
	Now        func() time.Time
}

// ProxyClient sends SQL to the warehouse proxy and returns its payload.
type ProxyClient struct {
	endpointURL string
	token       string
	http        *http.Client
	logger      *slog.Logger
	now         func() time.Time
}

// NewProxyClient creates a client for the proxy at endpointURL.
func NewProxyClient(endpointURL, token string, opts ...ProxyClientOptions) *ProxyClient {
	var o ProxyClientOptions
	if len(opts) > 0 {
		o = opts[0]
	}
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{
			Timeout: o.Timeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{MinVersion: tls.VersionTLS12},
			},
		}
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Now == nil {
		o.Now = time.Now
	}

	return &ProxyClient{
		endpointURL: strings.TrimRight(endpointURL, "/"),
		token:       token,
		http:        o.HTTPClient,
		logger:      o.Logger,
		now:         o.Now,
	}
}

// Query posts sql to the proxy. A successful response whose body is JSON
// null returns a nil payload and a nil error.
func (c *ProxyClient) Query(ctx context.Context, sql string) (*tabular.Payload, error) {
	requestID := uuid.NewString()
	body, err := json.Marshal(QueryRequest{SQL: sql, RequestID: requestID})
	if err != nil {
		return nil, fmt.Errorf("encode query request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpointURL+"/query", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create query request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderRequestID, requestID)
	SignRequest(req, c.token, body, c.now())

	start := c.now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("warehouse request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read warehouse response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp ErrorResponse
		if jsonErr := json.Unmarshal(data, &errResp); jsonErr == nil && errResp.Error != "" {
			return nil, fmt.Errorf("warehouse query failed (%s): %s", errResp.Code, errResp.Error)
		}
		return nil, fmt.Errorf("warehouse query failed: status %d", resp.StatusCode)
	}

	payload, err := tabular.ParsePayload(data)
	if err != nil {
		return nil, fmt.Errorf("parse warehouse response: %w", err)
	}

	rowCount := 0
	if payload != nil {
		rowCount = len(payload.Rows)
	}
	c.logger.Debug("warehouse query completed",
		"request_id", requestID,
		"row_count", rowCount,
		"duration_ms", c.now().Sub(start).Milliseconds(),
	)
	return payload, nil
}

// Ping performs a health check against the proxy.
func (c *ProxyClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpointURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("create health request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}
	return nil
}
