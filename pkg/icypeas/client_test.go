package icypeas

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScrapeProfiles(t *testing.T) {
	urls := []string{"https://www.linkedin.com/in/a", "https://www.linkedin.com/in/b"}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/scrape", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("Authorization"))

		raw, _ := io.ReadAll(r.Body)
		var req scrapeRequest
		require.NoError(t, json.Unmarshal(raw, &req))
		assert.Equal(t, "profile", req.Type)
		assert.Equal(t, urls, req.Data)

		_, _ = w.Write([]byte(`{
			"success": true,
			"data": [
				{"status": "FOUND", "result": {
					"firstname": "Jane", "lastname": "Doe", "url": "https://www.linkedin.com/in/a",
					"worksFor": [{"name": "Acme", "jobTitle": "CEO", "endDate": "0001-01-01T00:00:00.000Z"}]
				}},
				{"status": "NOT_FOUND", "result": {}}
			]
		}`))
	}))
	defer srv.Close()

	resp, err := NewClient("test-key", WithBaseURL(srv.URL)).ScrapeProfiles(context.Background(), urls)
	require.NoError(t, err)
	require.True(t, resp.Success)
	require.Len(t, resp.Data, 2)

	assert.True(t, resp.Data[0].Found())
	assert.Equal(t, "Jane", resp.Data[0].Result.FirstName)
	assert.Equal(t, []Position{{Name: "Acme", JobTitle: "CEO", EndDate: "0001-01-01T00:00:00.000Z"}}, resp.Data[0].Result.WorksFor)
	assert.False(t, resp.Data[1].Found())
}

func TestScrapeProfiles_Errors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantErr    string
		wantStatus int
	}{
		{"server error", http.StatusBadGateway, `bad gateway`, "unexpected status 502", http.StatusBadGateway},
		{"unauthorized", http.StatusUnauthorized, `{"error":"bad key"}`, "unexpected status 401", http.StatusUnauthorized},
		{"malformed", http.StatusOK, `{"success":`, "unmarshal response", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewClient("k", WithBaseURL(srv.URL)).ScrapeProfiles(context.Background(), []string{"u"})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)

			var apiErr *APIError
			if tt.wantStatus != 0 {
				require.True(t, errors.As(err, &apiErr))
				assert.Equal(t, tt.wantStatus, apiErr.StatusCode)
			} else {
				assert.False(t, errors.As(err, &apiErr))
			}
		})
	}
}
