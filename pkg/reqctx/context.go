package reqctx

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// State is the position of a Context in its suspend/resume lifecycle.
type State int32

const (
	// Flowing is the initial state; the dispatcher has not taken over yet.
	Flowing State = iota
	// Suspended means the dispatcher owns the response and will resume it.
	Suspended
	// Resumed is terminal: the response may be written.
	Resumed
)

func (s State) String() string {
	switch s {
	case Flowing:
		return "flowing"
	case Suspended:
		return "suspended"
	case Resumed:
		return "resumed"
	default:
		return "unknown"
	}
}

// Context carries one request through dispatch and collects the response.
// Status, Header and Content are written by the dispatcher before it resumes
// the context and are read by the gateway after Done is closed.
type Context struct {
	Request *Request

	Status  int
	Header  http.Header
	Content []byte

	// Missed is set when no module resolved the request.
	Missed bool

	state   atomic.Int32
	once    sync.Once
	done    chan struct{}
	resumes atomic.Int32
}

// New returns a flowing Context for req with status 200.
func New(req *Request) *Context {
	return &Context{
		Request: req,
		Status:  http.StatusOK,
		Header:  make(http.Header),
		done:    make(chan struct{}),
	}
}

// Stop suspends the context. It only has an effect on a flowing context.
func (c *Context) Stop() {
	c.state.CompareAndSwap(int32(Flowing), int32(Suspended))
}

// Start resumes the context. Only the first call has an effect; it reports
// whether this call performed the resumption.
func (c *Context) Start() bool {
	resumed := false
	c.once.Do(func() {
		c.state.Store(int32(Resumed))
		c.resumes.Add(1)
		close(c.done)
		resumed = true
	})
	return resumed
}

// StartAfter resumes the context once d has elapsed. A non-positive d resumes
// immediately.
func (c *Context) StartAfter(d time.Duration) {
	if d <= 0 {
		c.Start()
		return
	}
	time.AfterFunc(d, func() { c.Start() })
}

// Done is closed when the context resumes.
func (c *Context) Done() <-chan struct{} {
	return c.done
}

// State reports the current lifecycle state.
func (c *Context) State() State {
	return State(c.state.Load())
}

// Resumes reports how many resumptions took effect; it is always 0 or 1.
func (c *Context) Resumes() int {
	return int(c.resumes.Load())
}

// SetContentType sets the response Content-Type header.
func (c *Context) SetContentType(ct string) {
	c.Header.Set("Content-Type", ct)
}

// ContentType returns the response Content-Type header.
func (c *Context) ContentType() string {
	return c.Header.Get("Content-Type")
}
