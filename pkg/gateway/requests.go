package gateway

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/getmockd/mockgate/pkg/dispatch"
	"github.com/getmockd/mockgate/pkg/httputil"
	"github.com/getmockd/mockgate/pkg/reqctx"
	"github.com/getmockd/mockgate/pkg/requestlog"
	"github.com/getmockd/mockgate/pkg/util"
)

// RequestList is the response of a request log listing.
type RequestList struct {
	Requests []*requestlog.Entry `json:"requests"`
	Count    int                 `json:"count"`
	Total    int                 `json:"total"`
}

// record logs a finished dispatch. A nil ctx marks a request whose client
// went away before the response.
func (g *Gateway) record(id string, variant dispatch.Variant, r *http.Request, req *reqctx.Request, ctx *reqctx.Context, start time.Time) {
	if g.requests == nil {
		return
	}
	entry := &requestlog.Entry{
		ID:          id,
		Timestamp:   start,
		Variant:     string(variant),
		Method:      req.Method,
		Path:        req.Pathname,
		QueryString: strings.TrimPrefix(req.Search, "?"),
		Referer:     r.Referer(),
		Body:        util.TruncateBody(req.Body, 0),
		BodySize:    len(req.Body),
		RemoteAddr:  r.RemoteAddr,
		DurationMs:  time.Since(start).Milliseconds(),
		Abandoned:   ctx == nil,
	}
	if ctx != nil {
		entry.ResponseStatus = ctx.Status
		entry.ResponseContentType = ctx.ContentType()
		entry.ResponseBody = util.TruncateBody(ctx.Content, 0)
	}
	g.requests.Log(entry)
}

// serveRequests lists (GET RequestsPath), fetches (GET RequestsPath/{id})
// and clears (DELETE RequestsPath) the request log.
func (g *Gateway) serveRequests(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, RequestsPath), "/")

	switch {
	case r.Method == http.MethodDelete && id == "":
		g.requests.Clear()
		w.WriteHeader(http.StatusNoContent)

	case r.Method == http.MethodGet && id != "":
		entry := g.requests.Get(id)
		if entry == nil {
			httputil.WriteNotFound(w, "not_found", "no logged request "+id)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, entry)

	case r.Method == http.MethodGet:
		filter, err := parseFilter(r)
		if err != nil {
			httputil.WriteBadRequest(w, "invalid_filter", err.Error())
			return
		}
		entries := g.requests.List(filter)
		httputil.WriteJSON(w, http.StatusOK, RequestList{
			Requests: entries,
			Count:    len(entries),
			Total:    g.requests.Count(),
		})

	default:
		w.Header().Set("Allow", "GET, DELETE")
		httputil.WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", r.Method+" is not supported")
	}
}

func parseFilter(r *http.Request) (*requestlog.Filter, error) {
	q := r.URL.Query()
	f := &requestlog.Filter{
		Variant: q.Get("variant"),
		Method:  q.Get("method"),
		Path:    q.Get("path"),
	}
	for name, dst := range map[string]*int{"status": &f.StatusCode, "limit": &f.Limit, "offset": &f.Offset} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid %s %q", name, v)
		}
		*dst = n
	}
	return f, nil
}
