package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/bonuskeeper/internal/common"
)

// ProxyClient forwards calls through the proxy service. It holds no
// credential.
type ProxyClient struct {
	url     string
	timeout time.Duration
	client  *http.Client
}

var _ Forwarder = (*ProxyClient)(nil)

// NewProxyClient returns a forwarder posting to proxyURL. A nil httpClient
// selects http.DefaultClient.
func NewProxyClient(proxyURL string, timeout time.Duration, httpClient *http.Client) (*ProxyClient, error) {
	if proxyURL == "" {
		return nil, fmt.Errorf("transport: proxy URL is required")
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &ProxyClient{url: proxyURL, timeout: timeout, client: httpClient}, nil
}

func (p *ProxyClient) Forward(ctx context.Context, req Request) (*Response, error) {
	method, err := NormalizeMethod(req.Method)
	if err != nil {
		return nil, err
	}
	req.Method = method
	if !hasBody(req.Data) {
		req.Data = nil
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("transport: encoding proxy request: %w", err)
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("transport: creating proxy request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, common.Transport(err)
	}
	defer resp.Body.Close()

	body, err := readBody(resp, nil)
	if err != nil {
		return nil, err
	}

	switch resp.Header.Get(common.ProxyErrorHeader) {
	case "":
		return &Response{StatusCode: resp.StatusCode, Body: body}, nil
	case common.ProxyErrorUpstream:
		return nil, common.Transport(fmt.Errorf("proxy: %s", proxyErrorText(body)))
	default:
		return nil, &common.RemoteError{Status: resp.StatusCode, Message: "proxy: " + proxyErrorText(body)}
	}
}

// ErrorBody is the JSON body of responses produced by the proxy itself.
type ErrorBody struct {
	Error string `json:"error"`
}

func proxyErrorText(body []byte) string {
	var e ErrorBody
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		return e.Error
	}
	return string(body)
}
