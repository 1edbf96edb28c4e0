package requestlog

import "time"

// Entry captures one dispatched request and the mock response.
type Entry struct {
	// ID is the gateway request ID.
	ID string `json:"id"`

	// Timestamp is when the request was received.
	Timestamp time.Time `json:"timestamp"`

	// Variant is the dispatch variant: data, page or upload.
	Variant string `json:"variant"`

	Method      string `json:"method"`
	Path        string `json:"path"`
	QueryString string `json:"queryString,omitempty"`
	Referer     string `json:"referer,omitempty"`

	// Body is the request body, truncated to util.MaxLogBodySize.
	Body string `json:"body,omitempty"`

	// BodySize is the original body size in bytes.
	BodySize int `json:"bodySize"`

	RemoteAddr string `json:"remoteAddr,omitempty"`

	ResponseStatus      int    `json:"responseStatus"`
	ResponseContentType string `json:"responseContentType,omitempty"`

	// ResponseBody is the mock response, truncated like Body.
	ResponseBody string `json:"responseBody,omitempty"`

	// DurationMs includes the module timeout delay.
	DurationMs int64 `json:"durationMs"`

	// Abandoned is set when the client went away before the response.
	Abandoned bool `json:"abandoned,omitempty"`
}
