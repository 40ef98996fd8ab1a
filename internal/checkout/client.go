package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client talks to the hosted-checkout provider over its REST surface.
type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) CreateCheckoutSession(ctx context.Context, p SessionParams) (Session, error) {
	var s Session
	if err := c.do(ctx, http.MethodPost, "/checkout/sessions", p, &s); err != nil {
		return Session{}, err
	}
	return s, nil
}

func (c *Client) GetSubscription(ctx context.Context, externalRef string) (ProviderSubscription, error) {
	var sub ProviderSubscription
	if err := c.do(ctx, http.MethodGet, "/subscriptions/"+externalRef, nil, &sub); err != nil {
		return ProviderSubscription{}, err
	}
	return sub, nil
}

func (c *Client) CancelSubscription(ctx context.Context, externalRef string) error {
	return c.do(ctx, http.MethodDelete, "/subscriptions/"+externalRef, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProvider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: status %d: %s", ErrProvider, resp.StatusCode, b)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode: %v", ErrProvider, err)
	}
	return nil
}
