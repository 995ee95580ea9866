package webfetch

import (
	"net/http"
	"strings"
)

// BlockKind names the anti-bot mechanism that refused a fetch.
type BlockKind string

const (
	BlockCloudflare BlockKind = "cloudflare"
	BlockCaptcha    BlockKind = "captcha"
	BlockJSShell    BlockKind = "js_shell"
)

// BlockedError reports that a site served a bot challenge instead of page
// content. Callers separate it from plain transport failures with errors.As;
// the website validator records it as its own failure reason.
type BlockedError struct {
	Kind BlockKind
}

func (e *BlockedError) Error() string {
	return "webfetch: blocked (" + string(e.Kind) + ")"
}

// challengeMarkers appear on Cloudflare interstitials regardless of status.
var challengeMarkers = []string{
	"checking your browser",
	"cf-browser-verification",
}

var captchaMarkers = []string{
	"captcha",
	"recaptcha",
	"hcaptcha",
}

// classifyBlock decides whether a response is a bot challenge rather than
// the real page. A nil return means the body can be analyzed as content.
func classifyBlock(resp *http.Response, body []byte) *BlockedError {
	if resp == nil {
		return nil
	}

	// Cloudflare fronting: challenge status codes plus cf-* headers.
	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusServiceUnavailable {
		h := resp.Header
		if h.Get("cf-ray") != "" || h.Get("cf-cache-status") != "" || h.Get("server") == "cloudflare" {
			return &BlockedError{Kind: BlockCloudflare}
		}
	}

	lower := strings.ToLower(string(body))

	for _, m := range challengeMarkers {
		if strings.Contains(lower, m) {
			return &BlockedError{Kind: BlockCloudflare}
		}
	}
	if strings.Contains(lower, "cloudflare") && strings.Contains(lower, "challenge") {
		return &BlockedError{Kind: BlockCloudflare}
	}

	for _, m := range captchaMarkers {
		if strings.Contains(lower, m) {
			return &BlockedError{Kind: BlockCaptcha}
		}
	}

	// A tiny body that immediately demands JavaScript is a challenge shell,
	// not a homepage.
	if len(body) < 2000 {
		if strings.Contains(lower, "<noscript") && strings.Contains(lower, "javascript") {
			return &BlockedError{Kind: BlockJSShell}
		}
		if strings.Contains(lower, `meta http-equiv="refresh"`) {
			return &BlockedError{Kind: BlockJSShell}
		}
	}

	return nil
}

// parkedMarkers are phrases registrar landers and domain resellers put on
// pages with no business behind them.
var parkedMarkers = []string{
	"this domain is for sale",
	"buy this domain",
	"domain is parked",
	"domain parking",
	"parked free, courtesy of",
	"hugedomains",
	"sedoparking",
}

// LooksParked reports whether a fetched page reads like a registrar lander
// or for-sale placeholder rather than a company site. A parked domain is a
// legitimacy finding worth zero, not a fetch failure, so the page still
// produces an outcome and a cache entry.
func LooksParked(page *Page) bool {
	if page == nil {
		return false
	}
	hay := strings.ToLower(page.Title + "\n" + page.Text)
	for _, m := range parkedMarkers {
		if strings.Contains(hay, m) {
			return true
		}
	}
	return false
}
