package proident

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/vetting-cli/internal/resilience"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient("test-key", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
}

func TestLookupCompany(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/companies/search", r.URL.Path)
		assert.Equal(t, "Acme Roofing", r.URL.Query().Get("name"))
		assert.Equal(t, "acmeroofing.com", r.URL.Query().Get("domain"))
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		_ = json.NewEncoder(w).Encode(CompanyRecord{
			Name:          "Acme Roofing",
			Domain:        "acmeroofing.com",
			Industry:      "construction",
			EmployeeCount: 200,
			Verified:      true,
		})
	})

	rec, err := c.LookupCompany(context.Background(), "Acme Roofing", "acmeroofing.com")
	require.NoError(t, err)
	assert.True(t, rec.Verified)
	assert.Equal(t, 200, rec.EmployeeCount)
}

func TestLookupPerson(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/people/search", r.URL.Path)
		assert.Equal(t, "Pat Smith", r.URL.Query().Get("name"))
		assert.Equal(t, "Acme Roofing", r.URL.Query().Get("company"))

		_ = json.NewEncoder(w).Encode(PersonRecord{Name: "Pat Smith", Title: "CEO", Company: "Acme Roofing"})
	})

	rec, err := c.LookupPerson(context.Background(), "Pat Smith", "Acme Roofing")
	require.NoError(t, err)
	assert.Equal(t, "CEO", rec.Title)
}

func TestLookupNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "no match", http.StatusNotFound)
	})

	_, err := c.LookupCompany(context.Background(), "Ghost Corp", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLookupServerErrorIsTransient(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	})

	_, err := c.LookupCompany(context.Background(), "Acme", "")
	require.Error(t, err)
	assert.True(t, resilience.IsTransient(err), "5xx must be retryable")
	assert.Contains(t, err.Error(), "503")
}

func TestLookupClientErrorIsPermanent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	})

	_, err := c.LookupCompany(context.Background(), "Acme", "")
	require.Error(t, err)
	assert.False(t, resilience.IsTransient(err), "auth failures must not be retried")
}

func TestLookupMalformedResponse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	})

	_, err := c.LookupPerson(context.Background(), "Pat", "Acme")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal")
}
