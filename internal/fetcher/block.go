package fetcher

import (
	"bytes"
	"errors"
	"net/http"
)

// ErrBlocked is wrapped by a FetchError whose response was an anti-bot
// challenge instead of the requested document.
var ErrBlocked = errors.New("blocked by anti-bot challenge")

// BlockKind names the protection that answered a request.
type BlockKind string

const (
	BlockNone       BlockKind = ""
	BlockCloudflare BlockKind = "cloudflare"
	BlockCaptcha    BlockKind = "captcha"
	BlockJSShell    BlockKind = "js_shell"
)

// challengeBodyLimit bounds the body scanned for challenge markers.
const challengeBodyLimit = 64 << 10

// DetectBlock reports whether resp (with its body) is an anti-bot
// interstitial rather than the requested document.
func DetectBlock(resp *http.Response, body []byte) BlockKind {
	if resp == nil {
		return BlockNone
	}

	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusServiceUnavailable {
		if resp.Header.Get("Cf-Ray") != "" || resp.Header.Get("Cf-Cache-Status") != "" ||
			resp.Header.Get("Server") == "cloudflare" {
			return BlockCloudflare
		}
	}

	if len(body) == 0 || len(body) > challengeBodyLimit {
		return BlockNone
	}
	lower := bytes.ToLower(body)

	if bytes.Contains(lower, []byte("checking your browser")) ||
		bytes.Contains(lower, []byte("cf-browser-verification")) ||
		(bytes.Contains(lower, []byte("cloudflare")) && bytes.Contains(lower, []byte("challenge"))) {
		return BlockCloudflare
	}
	if bytes.Contains(lower, []byte("captcha")) {
		return BlockCaptcha
	}
	if len(body) < 2000 {
		if bytes.Contains(lower, []byte("<noscript")) && bytes.Contains(lower, []byte("javascript")) {
			return BlockJSShell
		}
		if bytes.Contains(lower, []byte(`http-equiv="refresh"`)) {
			return BlockJSShell
		}
	}
	return BlockNone
}
