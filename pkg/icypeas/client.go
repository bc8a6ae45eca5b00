// Package icypeas is a client for the Icypeas bulk profile scrape API.
package icypeas

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

const defaultBaseURL = "https://app.icypeas.com"

// StatusFound marks a profile the provider resolved.
const StatusFound = "FOUND"

// Client scrapes public profiles in bulk.
type Client interface {
	ScrapeProfiles(ctx context.Context, urls []string) (*ScrapeResponse, error)
}

// ScrapeResponse is the bulk scrape result. Data is ordered like the request
// URLs and may be shorter than the request.
type ScrapeResponse struct {
	Success bool            `json:"success"`
	Data    []ProfileResult `json:"data"`
}

// ProfileResult is the outcome for one requested URL.
type ProfileResult struct {
	Status string  `json:"status"`
	Result Profile `json:"result"`
}

// Found reports whether the profile was resolved.
func (p ProfileResult) Found() bool {
	return p.Status == StatusFound
}

// Profile is a scraped profile.
type Profile struct {
	FirstName string     `json:"firstname"`
	LastName  string     `json:"lastname"`
	URL       string     `json:"url"`
	WorksFor  []Position `json:"worksFor"`
}

// Position is one employment entry, newest first as returned.
type Position struct {
	Name     string `json:"name"`
	JobTitle string `json:"jobTitle"`
	EndDate  string `json:"endDate"`
}

// APIError is returned for a non-2xx response.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("icypeas: unexpected status %d: %s", e.StatusCode, e.Body)
}

// HTTPStatus returns the response status code.
func (e *APIError) HTTPStatus() int { return e.StatusCode }

type scrapeRequest struct {
	Type string   `json:"type"`
	Data []string `json:"data"`
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

// NewClient creates an Icypeas client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 120 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) ScrapeProfiles(ctx context.Context, urls []string) (*ScrapeResponse, error) {
	body, err := json.Marshal(scrapeRequest{Type: "profile", Data: urls})
	if err != nil {
		return nil, eris.Wrap(err, "icypeas: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/scrape", bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "icypeas: create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "icypeas: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "icypeas: read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var result ScrapeResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "icypeas: unmarshal response")
	}
	return &result, nil
}
