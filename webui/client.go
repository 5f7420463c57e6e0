package webui

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// FallbackResponse is shown when the API gives no answer.
const FallbackResponse = "Sorry, I couldn't process that request."

// Client talks to the support API's chat endpoint.
type Client struct {
	url        string
	httpClient *http.Client
}

// ClientOptions configures a Client.
type ClientOptions struct {
	HTTPClient *http.Client
	Timeout    time.Duration
}

// NewClient creates a Client posting to url, e.g. http://localhost:8000/chat/.
func NewClient(url string, optFns ...func(o *ClientOptions)) *Client {
	opts := ClientOptions{Timeout: 5 * time.Minute}

	for _, fn := range optFns {
		fn(&opts)
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}

	return &Client{url: url, httpClient: hc}
}

// Ask posts query and returns the API's response text. A reply without a
// response field, such as an error body, yields FallbackResponse. Transport
// failures and undecodable bodies are errors.
func (c *Client) Ask(ctx context.Context, query string) (string, error) {
	body, err := json.Marshal(map[string]string{"query": query})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("webui: post query: %w", err)
	}
	defer resp.Body.Close()

	var out struct {
		Response *string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("webui: decode response (status %d): %w", resp.StatusCode, err)
	}

	if out.Response == nil {
		return FallbackResponse, nil
	}
	return *out.Response, nil
}
