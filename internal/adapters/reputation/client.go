package reputation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/mikey/fraud-sentinel/internal/core"
	"go.uber.org/zap"
)

// Doer abstracts the HTTP client so the resilient wrapper can slot in.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client fetches IP reputation from an ipapi.co-style JSON endpoint.
type Client struct {
	httpClient Doer
	endpoint   string
	logger     *zap.Logger
}

// NewClient creates a new reputation lookup client. The endpoint is the
// service base URL; the lookup path is <endpoint>/<ip>/json/.
func NewClient(httpClient Doer, endpoint string, logger *zap.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		endpoint:   strings.TrimRight(endpoint, "/"),
		logger:     logger,
	}
}

// Fetch performs one reputation lookup. Transport errors, timeouts and
// non-2xx responses are returned as errors; the caller decides how to
// degrade.
func (c *Client) Fetch(ctx context.Context, ip string) (*core.ReputationInfo, error) {
	url := fmt.Sprintf("%s/%s/json/", c.endpoint, ip)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch reputation: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var raw map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode reputation response: %w", err)
	}

	info := &core.ReputationInfo{
		Proxy: boolField(raw, "proxy"),
		VPN:   boolField(raw, "vpn"),
		Org:   stringField(raw, "org"),
		ASN:   stringField(raw, "asn"),
		Raw:   raw,
	}

	c.logger.Debug("Fetched IP reputation",
		zap.String("ip", ip),
		zap.String("org", info.Org),
		zap.Bool("proxy", info.Proxy),
		zap.Bool("vpn", info.VPN))

	return info, nil
}

func boolField(raw map[string]interface{}, key string) bool {
	v, ok := raw[key].(bool)
	return ok && v
}

func stringField(raw map[string]interface{}, key string) string {
	v, _ := raw[key].(string)
	return v
}
