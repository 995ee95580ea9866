// Package webfetch fetches a company's homepage for website intelligence
// analysis. Plain net/http with block detection and HTML stripping; the
// analyzer only needs enough plaintext for the summarization prompt.
package webfetch

import (
	"context"
	"io"
	"net"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Page is a fetched, plaintext-converted page.
type Page struct {
	URL        string
	Title      string
	Text       string
	StatusCode int
}

// Fetcher retrieves a domain's homepage content.
type Fetcher interface {
	Fetch(ctx context.Context, domain string) (*Page, error)
}

// HTTPFetcher implements Fetcher over net/http.
type HTTPFetcher struct {
	client       *http.Client
	maxBodyBytes int64
}

// NewHTTPFetcher creates an HTTPFetcher with the given timeout and body cap.
func NewHTTPFetcher(timeout time.Duration, maxBodyBytes int) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if maxBodyBytes <= 0 {
		maxBodyBytes = 512 * 1024
	}
	return &HTTPFetcher{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 10 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		maxBodyBytes: int64(maxBodyBytes),
	}
}

// Fetch retrieves https://<domain>/, detects blocks, strips HTML to plaintext.
func (f *HTTPFetcher) Fetch(ctx context.Context, domain string) (*Page, error) {
	targetURL := "https://" + domain + "/"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "webfetch: create request")
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; VettingBot/1.0)")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "webfetch: fetch")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodyBytes))
	if err != nil {
		return nil, eris.Wrap(err, "webfetch: read body")
	}

	if berr := classifyBlock(resp, body); berr != nil {
		return nil, berr
	}

	if resp.StatusCode >= 400 {
		return nil, eris.Errorf("webfetch: status %d", resp.StatusCode)
	}

	if len(body) < 100 {
		return nil, eris.New("webfetch: empty page")
	}

	return &Page{
		URL:        targetURL,
		Title:      extractTitle(body),
		Text:       stripHTML(string(body)),
		StatusCode: resp.StatusCode,
	}, nil
}

var titleRe = regexp.MustCompile(`(?i)<title[^>]*>(.*?)</title>`)

// extractTitle pulls the <title> from HTML.
func extractTitle(body []byte) string {
	m := titleRe.FindSubmatch(body)
	if len(m) > 1 {
		return strings.TrimSpace(string(m[1]))
	}
	return ""
}

// stripHTML removes scripts/styles/nav/footer, strips tags, decodes entities,
// and collapses whitespace. The result is plaintext suitable for LLM analysis.
func stripHTML(html string) string {
	// Remove script, style, nav, footer blocks entirely.
	for _, tag := range []string{"script", "style", "nav", "footer"} {
		re := regexp.MustCompile(`(?is)<` + tag + `[^>]*>.*?</` + tag + `>`)
		html = re.ReplaceAllString(html, "")
	}

	// Strip remaining HTML tags.
	tagRe := regexp.MustCompile(`<[^>]+>`)
	html = tagRe.ReplaceAllString(html, " ")

	// Decode common HTML entities.
	r := strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
		"&nbsp;", " ",
	)
	html = r.Replace(html)

	// Collapse whitespace: multiple spaces → single, multiple newlines → double.
	spaceRe := regexp.MustCompile(`[ \t]+`)
	html = spaceRe.ReplaceAllString(html, " ")

	nlRe := regexp.MustCompile(`\n{3,}`)
	html = nlRe.ReplaceAllString(html, "\n\n")

	return strings.TrimSpace(html)
}
