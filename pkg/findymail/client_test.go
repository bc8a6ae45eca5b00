package findymail

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindByName(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantEmail  string
		wantErr    string
		wantStatus int
		wantDecode bool
	}{
		{
			name:      "found",
			status:    http.StatusOK,
			body:      `{"contact":{"name":"Jane Doe","email":"jane@acme.com","domain":"acme.com"}}`,
			wantEmail: "jane@acme.com",
		},
		{
			name:   "no contact",
			status: http.StatusOK,
			body:   `{"contact":null}`,
		},
		{
			name:   "empty email",
			status: http.StatusOK,
			body:   `{"contact":{"email":""}}`,
		},
		{
			name:       "not found status",
			status:     http.StatusNotFound,
			body:       `{"error":"Not found"}`,
			wantErr:    "unexpected status 404",
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "payment required",
			status:     http.StatusPaymentRequired,
			body:       `{"error":"Not enough credits"}`,
			wantErr:    "unexpected status 402",
			wantStatus: http.StatusPaymentRequired,
		},
		{
			name:    "malformed",
			status:  http.StatusOK,
			body:       `<html>`,
			wantErr:    "unmarshal response",
			wantDecode: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/api/search/name", r.URL.Path)
				assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

				raw, _ := io.ReadAll(r.Body)
				assert.JSONEq(t, `{"name":"Jane Doe","domain":"acme.com","webhook_url":null}`, string(raw))

				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			contact, err := NewClient("test-key", WithBaseURL(srv.URL)).FindByName(context.Background(), "Jane Doe", "acme.com")

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				if tt.wantStatus != 0 {
					var apiErr *APIError
					require.True(t, errors.As(err, &apiErr))
					assert.Equal(t, tt.wantStatus, apiErr.StatusCode)
				}
				var decodeErr *DecodeError
				assert.Equal(t, tt.wantDecode, errors.As(err, &decodeErr))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantEmail, contact.Email)
		})
	}
}
