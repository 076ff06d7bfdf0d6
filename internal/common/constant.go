package common

// ProxyErrorHeader tags proxy responses produced by the proxy itself
// (as opposed to relayed upstream responses).
const ProxyErrorHeader = "X-Proxy-Error"

// ProxyErrorUpstream is the ProxyErrorHeader value used when the upstream
// API could not be reached.
const ProxyErrorUpstream = "upstream"

// DefaultUserAgent is sent on every upstream request. GitHub rejects
// requests without a User-Agent.
const DefaultUserAgent = "Pepper-Bonus-System"

// Other ProxyErrorHeader values: the proxy refused the request itself.
const (
	ProxyErrorBadRequest = "bad-request"
	ProxyErrorForbidden  = "forbidden"
	ProxyErrorMethod     = "method"
	ProxyErrorNotFound   = "not-found"
)
