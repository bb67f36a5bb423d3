package narrative

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/wattshift/wattshift/pkg/common"
	"github.com/wattshift/wattshift/pkg/types"
)

// Client calls an external narrative-generation endpoint. The endpoint
// receives the explain request as JSON and must answer with an
// Explanation-shaped JSON body.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

var _ Generator = (*Client)(nil)

// NewClient creates a Client for the given endpoint. The timeout bounds
// the whole request on top of any context deadline.
func NewClient(endpoint, apiKey string, timeout time.Duration) *Client {
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     common.HTTPClient(timeout),
	}
}

// Explain posts the request to the narrative endpoint and decodes the
// explanation. A response without a summary is treated as unusable so
// the caller falls back locally.
func (c *Client) Explain(ctx context.Context, req types.ExplainRequest) (types.Explanation, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return types.Explanation{}, fmt.Errorf("failed to marshal explain request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return types.Explanation{}, fmt.Errorf("failed to build narrative request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return types.Explanation{}, fmt.Errorf("narrative request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// read a little of the body for the error message
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return types.Explanation{}, fmt.Errorf("narrative endpoint returned %d: %s", resp.StatusCode, snippet)
	}

	var exp types.Explanation
	if err := json.NewDecoder(resp.Body).Decode(&exp); err != nil {
		return types.Explanation{}, fmt.Errorf("failed to decode narrative response: %w", err)
	}
	if exp.Summary == "" {
		return types.Explanation{}, fmt.Errorf("narrative response missing summary")
	}
	return exp, nil
}
