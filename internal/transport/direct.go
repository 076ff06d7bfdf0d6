package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/dmitrijs2005/bonuskeeper/internal/common"
)

// DefaultBaseURL is the public GitHub REST API.
const DefaultBaseURL = "https://api.github.com"

// DirectConfig configures a Direct forwarder.
type DirectConfig struct {
	// BaseURL defaults to DefaultBaseURL.
	BaseURL string
	// Token is sent as "Authorization: token <Token>". Required.
	Token string
	// UserAgent defaults to common.DefaultUserAgent.
	UserAgent string
	// Timeout bounds each call. Zero means no per-call timeout.
	Timeout time.Duration
	// HTTPClient defaults to a client without redirects.
	HTTPClient *http.Client
}

// Direct talks to the remote API with the access token attached. It must
// only be constructed in the trusted context (the proxy service, or an
// operator-run CLI).
type Direct struct {
	baseURL   string
	token     string
	userAgent string
	timeout   time.Duration
	client    *http.Client
}

var _ Forwarder = (*Direct)(nil)

func NewDirect(cfg DirectConfig) (*Direct, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("transport: access token is required")
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasPrefix(baseURL, "https://") && !strings.HasPrefix(baseURL, "http://") {
		return nil, fmt.Errorf("transport: invalid base URL %q", cfg.BaseURL)
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = common.DefaultUserAgent
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
	}
	return &Direct{baseURL: baseURL, token: cfg.Token, userAgent: ua, timeout: cfg.Timeout, client: client}, nil
}

func (d *Direct) Forward(ctx context.Context, req Request) (*Response, error) {
	method, err := NormalizeMethod(req.Method)
	if err != nil {
		return nil, err
	}
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	var body io.Reader
	if hasBody(req.Data) {
		body = bytes.NewReader(req.Data)
	}
	url := d.baseURL + "/" + strings.TrimLeft(req.Endpoint, "/")
	httpReq, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("transport: creating request: %w", err)
	}
	httpReq.Header.Set("Authorization", "token "+d.token)
	httpReq.Header.Set("Accept", "application/vnd.github+json")
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", d.userAgent)

	resp, err := d.client.Do(httpReq)
	if err != nil {
		return nil, common.Transport(d.redact(err))
	}
	defer resp.Body.Close()

	b, err := readBody(resp, d.redact)
	if err != nil {
		return nil, err
	}
	return &Response{StatusCode: resp.StatusCode, Body: b}, nil
}

var tokenInURL = regexp.MustCompile(`https?://[^\s"]*@`)

// redact keeps the token out of error text: net/http errors quote the URL,
// and a base URL may carry userinfo.
func (d *Direct) redact(err error) error {
	msg := strings.ReplaceAll(err.Error(), d.token, "[redacted]")
	msg = tokenInURL.ReplaceAllString(msg, "[redacted]@")
	return fmt.Errorf("%s", msg)
}
