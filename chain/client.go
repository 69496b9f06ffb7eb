// api/chain/client.go
package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	logger "github.com/ledgerdash/ledgerdash/api/logging"
)

// Client talks to the ledger gateway over HTTP. The gateway exposes three
// endpoints mirroring the Boundary contract: POST /read, POST /submit,
// GET /receipts/{handle}.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, requestTimeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

func (c *Client) Read(ctx context.Context, q Query) (json.RawMessage, error) {
	body, err := c.post(ctx, "/read", q)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", q.Kind, err)
	}

	var result struct {
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("read %s: decode response: %w", q.Kind, err)
	}

	logger.Debug("Ledger read completed", zap.String("kind", q.Kind))
	return result.Value, nil
}

func (c *Client) Submit(ctx context.Context, s Submission) (Handle, error) {
	body, err := c.post(ctx, "/submit", s)
	if err != nil {
		return "", fmt.Errorf("submit %s: %w", s.Kind, err)
	}

	var result struct {
		Handle Handle `json:"handle"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("submit %s: decode response: %w", s.Kind, err)
	}
	if result.Handle == "" {
		return "", fmt.Errorf("submit %s: gateway returned empty handle", s.Kind)
	}

	logger.Info("Operation submitted to ledger",
		zap.String("kind", s.Kind),
		zap.String("handle", string(result.Handle)))
	return result.Handle, nil
}

func (c *Client) Poll(ctx context.Context, h Handle) (Receipt, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/receipts/"+string(h), nil)
	if err != nil {
		return Receipt{}, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Receipt{}, fmt.Errorf("poll %s: %w", h, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Receipt{}, fmt.Errorf("poll %s: %w", h, err)
	}
	if resp.StatusCode != http.StatusOK {
		return Receipt{}, fmt.Errorf("poll %s: gateway returned %d: %s", h, resp.StatusCode, body)
	}

	var receipt Receipt
	if err := json.Unmarshal(body, &receipt); err != nil {
		return Receipt{}, fmt.Errorf("poll %s: decode receipt: %w", h, err)
	}
	return receipt, nil
}

func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gateway returned %d: %s", resp.StatusCode, body)
	}
	return body, nil
}
