package reqctx

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContext_Lifecycle(t *testing.T) {
	c := New(&Request{Pathname: "/data/foo/bar"})
	assert.Equal(t, Flowing, c.State())
	assert.Equal(t, http.StatusOK, c.Status)

	c.Stop()
	assert.Equal(t, Suspended, c.State())

	assert.True(t, c.Start())
	assert.Equal(t, Resumed, c.State())

	select {
	case <-c.Done():
	default:
		t.Fatal("Done should be closed after Start")
	}
}

func TestContext_StartIsOneShot(t *testing.T) {
	c := New(&Request{})
	c.Stop()

	var wg sync.WaitGroup
	results := make(chan bool, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- c.Start()
		}()
	}
	wg.Wait()
	close(results)

	won := 0
	for r := range results {
		if r {
			won++
		}
	}
	assert.Equal(t, 1, won)
	assert.Equal(t, 1, c.Resumes())
}

func TestContext_StopAfterResumeIsIgnored(t *testing.T) {
	c := New(&Request{})
	c.Start()
	c.Stop()
	assert.Equal(t, Resumed, c.State())
}

func TestContext_StartAfter(t *testing.T) {
	c := New(&Request{})
	c.Stop()

	begin := time.Now()
	c.StartAfter(40 * time.Millisecond)
	assert.Equal(t, Suspended, c.State())

	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("context never resumed")
	}
	assert.GreaterOrEqual(t, time.Since(begin), 40*time.Millisecond)
	assert.Equal(t, 1, c.Resumes())
}

func TestFromHTTP(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "http://localhost:4280/data/foo/bar?path=/x/y", strings.NewReader("a=1"))
	r.Header.Set("Referer", "http://localhost/page?ed=1")

	req, err := FromHTTP(r, 0)
	require.NoError(t, err)

	assert.Equal(t, "/data/foo/bar", req.Pathname)
	assert.Equal(t, "?path=/x/y", req.Search)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "localhost:4280", req.Host)
	assert.Equal(t, "a=1", string(req.Body))
	assert.Equal(t, "http://localhost/page?ed=1", req.Header.Get("referer"))

	// The original body stays readable for forwarding.
	buf := new(bytes.Buffer)
	_, err = buf.ReadFrom(r.Body)
	require.NoError(t, err)
	assert.Equal(t, "a=1", buf.String())
}

func TestFromHTTP_TooLarge(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/data/foo/bar", strings.NewReader("0123456789"))
	_, err := FromHTTP(r, 4)
	assert.ErrorIs(t, err, ErrBodyTooLarge)
}

func TestRequest_BodyReaderReplays(t *testing.T) {
	req := &Request{Body: []byte("payload")}
	for i := 0; i < 2; i++ {
		buf := new(bytes.Buffer)
		_, err := buf.ReadFrom(req.BodyReader())
		require.NoError(t, err)
		assert.Equal(t, "payload", buf.String())
	}
}
