// Package proident queries a professional-directory API for company and
// person records. It is the only data source the identity validator uses.
package proident

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/vetting-cli/internal/resilience"
)

const defaultBaseURL = "https://api.prodirectory.io"

// Client performs company and person lookups against the directory API.
type Client interface {
	LookupCompany(ctx context.Context, name, domain string) (*CompanyRecord, error)
	LookupPerson(ctx context.Context, name, company string) (*PersonRecord, error)
}

// CompanyRecord is a directory match for a company.
type CompanyRecord struct {
	Name          string `json:"name"`
	Domain        string `json:"domain"`
	Industry      string `json:"industry"`
	EmployeeCount int    `json:"employee_count"`
	Verified      bool   `json:"verified"`
}

// PersonRecord is a directory match for a person at a company.
type PersonRecord struct {
	Name    string `json:"name"`
	Title   string `json:"title"`
	Company string `json:"company"`
}

// ErrNotFound is returned when the directory has no match. Callers must
// distinguish "looked and found nothing" from a transport failure.
var ErrNotFound = eris.New("proident: not found")

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
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

// NewClient creates a directory API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) LookupCompany(ctx context.Context, name, domain string) (*CompanyRecord, error) {
	q := url.Values{}
	q.Set("name", name)
	if domain != "" {
		q.Set("domain", domain)
	}

	var rec CompanyRecord
	if err := c.get(ctx, "/v1/companies/search", q, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *httpClient) LookupPerson(ctx context.Context, name, company string) (*PersonRecord, error) {
	q := url.Values{}
	q.Set("name", name)
	q.Set("company", company)

	var rec PersonRecord
	if err := c.get(ctx, "/v1/people/search", q, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *httpClient) get(ctx context.Context, path string, q url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return eris.Wrap(err, "proident: create request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "proident: send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "proident: read response")
	}

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("proident: unexpected status %d: %s", resp.StatusCode, string(body))
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return resilience.NewTransientError(err, resp.StatusCode)
		}
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrap(err, "proident: unmarshal response")
	}
	return nil
}
