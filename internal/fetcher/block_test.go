package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectBlock(t *testing.T) {
	tests := []struct {
		name   string
		status int
		header http.Header
		body   string
		want   BlockKind
	}{
		{"cloudflare ray header", 403, http.Header{"Cf-Ray": {"abc123"}}, "", BlockCloudflare},
		{"cloudflare server", 503, http.Header{"Server": {"cloudflare"}}, "", BlockCloudflare},
		{"browser check page", 200, http.Header{}, "<p>Checking your browser before accessing</p>", BlockCloudflare},
		{"captcha", 200, http.Header{}, "<p>Please complete the reCAPTCHA to continue</p>", BlockCaptcha},
		{"js shell", 200, http.Header{}, "<html><noscript>Enable JavaScript to continue</noscript></html>", BlockJSShell},
		{"meta refresh", 200, http.Header{}, `<meta http-equiv="refresh" content="0;url=/x">`, BlockJSShell},
		{"plain 403", 403, http.Header{}, "forbidden", BlockNone},
		{"listing page", 200, http.Header{}, "<table><tr><td>i5-4670K</td></tr></table>", BlockNone},
		{"large page mentioning captcha", 200, http.Header{}, strings.Repeat("x", challengeBodyLimit) + "captcha", BlockNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &http.Response{StatusCode: tt.status, Header: tt.header}
			assert.Equal(t, tt.want, DetectBlock(resp, []byte(tt.body)))
		})
	}
	assert.Equal(t, BlockNone, DetectBlock(nil, nil))
}

func TestFetchText_ChallengePageIsBlocked(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Server", "cloudflare")
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestFetcher().FetchText(context.Background(), srv.URL)

	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, BlockCloudflare, fe.Block)
	assert.ErrorIs(t, err, ErrBlocked)
	assert.Equal(t, int32(1), calls.Load(), "a challenge is not retried")
	assert.Contains(t, fe.Error(), "(cloudflare)")
}

func TestFetchText_CaptchaOn200IsBlocked(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><body>Solve the hCaptcha to continue</body></html>"))
	}))
	defer srv.Close()

	_, err := newTestFetcher().FetchText(context.Background(), srv.URL)
	require.ErrorIs(t, err, ErrBlocked)
	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, BlockCaptcha, fe.Block)
}
