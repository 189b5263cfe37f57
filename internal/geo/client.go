// Package geo normalizes free-text complaint locations through an external
// geocoding service. The service is best-effort: any failure falls back to
// the raw input so a submission is never blocked by geocoding.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client calls a geocoding HTTP API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewClient constructs a geocoding client. A nil httpClient gets a default
// with a 5 second timeout.
func NewClient(httpClient *http.Client, baseURL, apiKey string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	return &Client{httpClient: httpClient, baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey}
}

// Enabled reports whether a geocoding endpoint is configured.
func (c *Client) Enabled() bool {
	return c.baseURL != ""
}

// Normalize resolves a raw location string to the service's canonical form.
// On timeout, transport error, non-2xx response or empty result it returns
// the raw input unchanged.
func (c *Client) Normalize(ctx context.Context, raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || !c.Enabled() {
		return raw
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	params := url.Values{}
	params.Set("q", raw)
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}
	endpoint := fmt.Sprintf("%s/geocode?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return raw
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return raw
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return raw
	}

	var payload struct {
		Results []struct {
			DisplayName string `json:"display_name"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return raw
	}
	if len(payload.Results) == 0 || strings.TrimSpace(payload.Results[0].DisplayName) == "" {
		return raw
	}
	return payload.Results[0].DisplayName
}
