// Package warehouse talks to the analytical warehouse. The dashboard never
// opens the warehouse directly: every query goes through a single proxy
// endpoint that answers with a columnar payload.
package warehouse

// QueryRequest is the JSON body sent to POST /query on the proxy.
// Shared by ProxyClient and the proxy handler so the wire contract stays in
// sync at compile time.
type QueryRequest struct {
	SQL       string `json:"sql"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse is the JSON error body returned by the proxy on failures.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// Proxy error codes.
const (
	CodeAuth      = "AUTH_ERROR"
	CodeParse     = "PARSE_ERROR"
	CodeExecution = "EXECUTION_ERROR"
)

// HeaderRequestID carries the caller's request ID to the proxy.
const HeaderRequestID = "X-Request-ID"
