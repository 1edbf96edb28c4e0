package reqctx

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// DefaultMaxBodyBytes bounds the body buffered for one dispatch (10MB).
const DefaultMaxBodyBytes = 10 << 20

// ErrBodyTooLarge is returned by FromHTTP when the body exceeds the limit.
var ErrBodyTooLarge = errors.New("request body too large")

// Request is the read-only view of an incoming request used during dispatch.
type Request struct {
	Pathname string
	// Search is the raw query string including its leading "?", or empty.
	Search string
	Method string
	Header http.Header
	Host   string
	// Body is fully buffered before dispatch begins.
	Body []byte
}

// FromHTTP buffers r's body (at most maxBody bytes) and returns the dispatch view.
// The original body is replaced with a replay reader so r can still be forwarded.
func FromHTTP(r *http.Request, maxBody int64) (*Request, error) {
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}

	var body []byte
	if r.Body != nil && r.Body != http.NoBody {
		data, err := io.ReadAll(io.LimitReader(r.Body, maxBody+1))
		_ = r.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("read request body: %w", err)
		}
		if int64(len(data)) > maxBody {
			return nil, fmt.Errorf("%w: limit %d bytes", ErrBodyTooLarge, maxBody)
		}
		body = data
		r.Body = io.NopCloser(bytes.NewReader(body))
	}

	search := ""
	if r.URL.RawQuery != "" {
		search = "?" + r.URL.RawQuery
	}

	return &Request{
		Pathname: r.URL.Path,
		Search:   search,
		Method:   r.Method,
		Header:   r.Header.Clone(),
		Host:     r.Host,
		Body:     body,
	}, nil
}

// ContentType returns the request Content-Type header.
func (r *Request) ContentType() string {
	return r.Header.Get("Content-Type")
}

// BodyReader returns a fresh reader over the buffered body. Each call replays
// the body from the start.
func (r *Request) BodyReader() io.Reader {
	return bytes.NewReader(r.Body)
}
