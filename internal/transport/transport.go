// Package transport carries remote API calls across the trust boundary.
//
// The only capability handed to untrusted code is Forwarder. Direct is the
// trusted implementation: it owns the access token and attaches it to
// upstream requests, and nothing in its API returns it. ProxyClient is the
// untrusted implementation: it posts the call to the proxy service, which
// runs a Direct on the caller's behalf. Callers cannot tell the two apart.
package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/bonuskeeper/internal/common"
)

// maxResponseBytes bounds every response body read from the network.
const maxResponseBytes = 10 << 20

// Request is one remote API call. Endpoint is relative to the API base URL,
// e.g. "repos/octo/data/contents/bonus_data.json". Data is the JSON request
// body; empty or "null" means no body.
type Request struct {
	Endpoint string          `json:"endpoint"`
	Method   string          `json:"method,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
}

// Response is the remote API's status and body, unmodified.
type Response struct {
	StatusCode int
	Body       []byte
}

// Forwarder performs a remote API call. Network failures and timeouts
// return errors wrapping common.ErrTransport, and a body over the size limit
// is a *common.RemoteError. Any other HTTP response, including non-2xx ones,
// is returned as a Response with a nil error.
type Forwarder interface {
	Forward(ctx context.Context, req Request) (*Response, error)
}

// NormalizeMethod upper-cases method, defaults it to GET, and rejects
// anything but GET, POST and PUT.
func NormalizeMethod(method string) (string, error) {
	m := strings.ToUpper(strings.TrimSpace(method))
	switch m {
	case "":
		return http.MethodGet, nil
	case http.MethodGet, http.MethodPost, http.MethodPut:
		return m, nil
	default:
		return "", fmt.Errorf("method %q is not allowed", method)
	}
}

// hasBody reports whether data holds a JSON value other than null.
func hasBody(data json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(data))
	return trimmed != "" && trimmed != "null"
}

// readBody reads at most maxResponseBytes of resp's body. Read errors are
// passed through clean, if set, before wrapping.
func readBody(resp *http.Response, clean func(error) error) ([]byte, error) {
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		if clean != nil {
			err = clean(err)
		}
		return nil, common.Transport(err)
	}
	if len(b) > maxResponseBytes {
		return nil, &common.RemoteError{Status: resp.StatusCode, Message: fmt.Sprintf("response body exceeds %d bytes", maxResponseBytes)}
	}
	return b, nil
}
