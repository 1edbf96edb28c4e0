package requestlog

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_LogAssignsIDAndTimestamp(t *testing.T) {
	s := NewMemoryStore(10)
	e := &Entry{Variant: "data", Method: "POST", Path: "/data/user/list"}
	s.Log(e)
	s.Log(nil)

	assert.Equal(t, "req-1", e.ID)
	assert.False(t, e.Timestamp.IsZero())
	assert.Equal(t, 1, s.Count())
	assert.Same(t, e, s.Get("req-1"))
	assert.Nil(t, s.Get("missing"))
}

func TestMemoryStore_KeepsGatewayID(t *testing.T) {
	s := NewMemoryStore(10)
	s.Log(&Entry{ID: "abc"})
	assert.NotNil(t, s.Get("abc"))
}

func TestMemoryStore_EvictsOldest(t *testing.T) {
	s := NewMemoryStore(3)
	for i := 1; i <= 5; i++ {
		s.Log(&Entry{Path: fmt.Sprintf("/data/m/%d", i)})
	}

	got := s.List(nil)
	require.Len(t, got, 3)
	assert.Equal(t, "/data/m/5", got[0].Path)
	assert.Equal(t, "/data/m/3", got[2].Path)
	assert.Nil(t, s.Get("req-1"))
}

func TestMemoryStore_Filter(t *testing.T) {
	s := NewMemoryStore(0)
	s.Log(&Entry{Variant: "data", Method: "POST", Path: "/data/user/list", ResponseStatus: 200})
	s.Log(&Entry{Variant: "data", Method: "POST", Path: "/data/user/detail", ResponseStatus: 404})
	s.Log(&Entry{Variant: "page", Method: "GET", Path: "/shop/cart", ResponseStatus: 200})
	s.Log(&Entry{Variant: "upload", Method: "POST", Path: "/data/img/upload", ResponseStatus: 200})

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"variant", Filter{Variant: "page"}, []string{"/shop/cart"}},
		{"method case-insensitive", Filter{Method: "get"}, []string{"/shop/cart"}},
		{"path prefix", Filter{Path: "/data/user"}, []string{"/data/user/detail", "/data/user/list"}},
		{"status", Filter{StatusCode: 404}, []string{"/data/user/detail"}},
		{"limit", Filter{Limit: 2}, []string{"/data/img/upload", "/shop/cart"}},
		{"offset", Filter{Offset: 3}, []string{"/data/user/list"}},
		{"offset past end", Filter{Offset: 10}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			paths := []string{}
			for _, e := range s.List(&tt.filter) {
				paths = append(paths, e.Path)
			}
			assert.Equal(t, tt.want, paths)
		})
	}
}

func TestMemoryStore_Clear(t *testing.T) {
	s := NewMemoryStore(5)
	s.Log(&Entry{})
	s.Clear()
	assert.Equal(t, 0, s.Count())
	assert.Empty(t, s.List(nil))
}

func TestMemoryStore_Concurrent(t *testing.T) {
	s := NewMemoryStore(50)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				s.Log(&Entry{Variant: "data"})
				_ = s.List(&Filter{Variant: "data", Limit: 5})
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, s.Count())
}
