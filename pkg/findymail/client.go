// Package findymail is a client for the Findymail email finder API.
package findymail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://app.findymail.com"

// Client finds work emails by person name and company domain.
type Client interface {
	FindByName(ctx context.Context, name, domain string) (*Contact, error)
}

// Contact is the lookup result. Email is empty when nothing was found.
type Contact struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Domain string `json:"domain"`
}

// APIError is returned for a non-200 response.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("findymail: unexpected status %d: %s", e.StatusCode, e.Body)
}

// HTTPStatus returns the response status code.
func (e *APIError) HTTPStatus() int { return e.StatusCode }

// DecodeError is returned when a 200 response body is not the expected JSON.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return "findymail: unmarshal response: " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error { return e.Err }

type searchRequest struct {
	Name       string  `json:"name"`
	Domain     string  `json:"domain"`
	WebhookURL *string `json:"webhook_url"`
}

type searchResponse struct {
	Contact *Contact `json:"contact"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a Findymail client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 300,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) FindByName(ctx context.Context, name, domain string) (*Contact, error) {
	body, err := json.Marshal(searchRequest{Name: name, Domain: domain})
	if err != nil {
		return nil, eris.Wrap(err, "findymail: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/search/name", bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "findymail: create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "findymail: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "findymail: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var result searchResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, &DecodeError{Err: err}
	}
	if result.Contact == nil {
		return &Contact{}, nil
	}
	return result.Contact, nil
}
