package module

import (
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/mockgate/pkg/envelope"
	"github.com/getmockd/mockgate/pkg/reqctx"
)

func mustCompile(t *testing.T, dir, src string) *Module {
	t.Helper()
	def, err := ParseDefinition([]byte(src), FormatYAML)
	require.NoError(t, err)
	m, err := Compile("test/module", dir, def)
	require.NoError(t, err)
	return m
}

func call(t *testing.T, m *Module, key string, c *Call) Result {
	t.Helper()
	fn, err := m.Handler(key)
	require.NoError(t, err)
	res, err := fn(c)
	require.NoError(t, err)
	return res
}

func TestParseDefinition_YAMLAndJSON(t *testing.T) {
	yamlDef, err := ParseDefinition([]byte(`
description: users
timeout: 300
handlers:
  response:
    body: {id: 1}
`), FormatYAML)
	require.NoError(t, err)

	jsonDef, err := ParseDefinition([]byte(`{"description":"users","timeout":300,"handlers":{"response":{"body":{"id":1}}}}`), FormatJSON)
	require.NoError(t, err)

	assert.Equal(t, yamlDef, jsonDef)
	assert.Equal(t, 300, yamlDef.Timeout)
	assert.Equal(t, map[string]any{"id": float64(1)}, yamlDef.Handlers["response"].Body)
}

func TestParseDefinition_Invalid(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"syntax", "handlers: [unclosed"},
		{"no handlers", "timeout: 10"},
		{"empty handlers", "handlers: {}"},
		{"unknown field", "handlers: {response: {body: 1}}\nextra: true"},
		{"unknown handler field", "handlers: {response: {bogus: 1}}"},
		{"negative timeout", "timeout: -1\nhandlers: {response: {body: 1}}"},
		{"status out of range", "handlers: {response: {status: 700}}"},
		{"body and expr", "handlers: {response: {body: 1, expr: 'ok()'}}"},
		{"body and bodyFile", "handlers: {response: {body: 1, bodyFile: a.html}}"},
		{"bodyFile and expr", "handlers: {response: {bodyFile: a.html, expr: 'ok()'}}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDefinition([]byte(tt.src), FormatYAML)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidDefinition)
		})
	}
}

func TestFormatFor(t *testing.T) {
	assert.Equal(t, FormatYAML, FormatFor("a/b.yaml"))
	assert.Equal(t, FormatYAML, FormatFor("a/b.YML"))
	assert.Equal(t, FormatJSON, FormatFor("a/b.json"))
}

func TestCompile_StaticBody(t *testing.T) {
	m := mustCompile(t, t.TempDir(), `
timeout: 250
handlers:
  response:
    body: {name: ann}
  empty: {}
`)
	assert.Equal(t, 250*time.Millisecond, m.Timeout)
	assert.Equal(t, []string{"empty", "response"}, m.Keys())

	res := call(t, m, "response", &Call{})
	assert.Equal(t, KindData, res.Kind)
	assert.Equal(t, map[string]any{"name": "ann"}, res.Data)

	res = call(t, m, "empty", &Call{})
	assert.Equal(t, KindData, res.Kind)
	assert.Nil(t, res.Data)
}

func TestCompile_ContentTypeMakesRaw(t *testing.T) {
	m := mustCompile(t, t.TempDir(), `
handlers:
  response:
    contentType: text/plain
    body: hello
  json:
    contentType: application/vnd.api+json
    body: {a: 1}
`)
	res := call(t, m, "response", &Call{})
	assert.Equal(t, KindRaw, res.Kind)
	assert.Equal(t, "text/plain", res.ContentType)
	assert.Equal(t, "hello", string(res.Body))

	res = call(t, m, "json", &Call{})
	assert.Equal(t, KindRaw, res.Kind)
	assert.JSONEq(t, `{"a":1}`, string(res.Body))
}

func TestCompile_StatusAndHeaders(t *testing.T) {
	m := mustCompile(t, t.TempDir(), `
handlers:
  response:
    status: 201
    headers: {X-Mock: yes}
    body: {}
`)
	res := call(t, m, "response", &Call{})
	assert.Equal(t, 201, res.Status)
	assert.Equal(t, "yes", res.Header.Get("X-Mock"))
}

func TestCompile_BodyFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bar.html"), []byte("<p>bar</p>"), 0o644))

	m := mustCompile(t, dir, `
handlers:
  response:
    bodyFile: bar.html
`)
	res := call(t, m, "response", &Call{})
	assert.Equal(t, KindRaw, res.Kind)
	assert.Contains(t, res.ContentType, "text/html")
	assert.Equal(t, "<p>bar</p>", string(res.Body))
}

func TestCompile_BodyFileRejected(t *testing.T) {
	for _, src := range []string{
		"handlers: {response: {bodyFile: ../escape.html}}",
		"handlers: {response: {bodyFile: missing.html}}",
	} {
		def, err := ParseDefinition([]byte(src), FormatYAML)
		require.NoError(t, err)
		_, err = Compile("a/b", t.TempDir(), def)
		assert.ErrorIs(t, err, ErrInvalidDefinition, src)
	}
}

func TestCompile_ExprSyntaxError(t *testing.T) {
	def, err := ParseDefinition([]byte(`handlers: {response: {expr: 'ok(('}}`), FormatYAML)
	require.NoError(t, err)
	_, err = Compile("a/b", "", def)
	assert.ErrorIs(t, err, ErrInvalidDefinition)
}

func TestExpr_Envelopes(t *testing.T) {
	m := mustCompile(t, "", `
handlers:
  response:
    expr: 'ok({"id": body.id, "path": path})'
  _user_list:
    expr: 'list([{"id": 1}], {"pageNo": 3, "extra": "x"})'
  fail:
    expr: 'fail("nope")'
  session:
    expr: 'session()'
`)
	c := &Call{Path: "/data/user/list", Body: map[string]any{"id": 7}}

	res := call(t, m, "response", c)
	assert.Equal(t, KindData, res.Kind)
	assert.Equal(t, envelope.Map{
		"success": true,
		"result":  map[string]any{"id": 7, "path": "/data/user/list"},
	}, res.Data)

	res = call(t, m, "_user_list", c)
	page := res.Data.(envelope.Map)["page"].(envelope.Map)
	assert.Equal(t, 3, page["pageNo"])
	assert.Equal(t, envelope.DefaultPageSize, page["pageSize"])
	assert.Equal(t, "x", page["extra"])

	res = call(t, m, "fail", c)
	assert.Equal(t, envelope.Fail("nope"), res.Data)

	res = call(t, m, "session", c)
	assert.Equal(t, envelope.Session(nil), res.Data)
}

func TestExpr_RequestEnvironment(t *testing.T) {
	req := &reqctx.Request{
		Pathname: "/data/user/list",
		Method:   "POST",
		Header:   map[string][]string{"X-Token": {"abc"}},
	}
	m := mustCompile(t, "", `
handlers:
  response:
    expr: '{"method": method, "pathname": pathname, "token": headers["x-token"], "page": query.page, "tags": query.tag}'
`)
	res := call(t, m, "response", &Call{
		Path:    "/data/user/list",
		Query:   url.Values{"page": {"2"}, "tag": {"a", "b"}},
		Context: reqctx.New(req),
	})
	assert.Equal(t, map[string]any{
		"method":   "POST",
		"pathname": "/data/user/list",
		"token":    "abc",
		"page":     "2",
		"tags":     []any{"a", "b"},
	}, res.Data)
}

func TestExpr_RawAndContentType(t *testing.T) {
	m := mustCompile(t, "", `
handlers:
  response:
    expr: 'raw("text/plain", "hi " + path)'
  html:
    contentType: text/html
    expr: '"<b>" + path + "</b>"'
`)
	res := call(t, m, "response", &Call{Path: "x"})
	assert.Equal(t, Raw("text/plain", []byte("hi x")), res)

	res = call(t, m, "html", &Call{Path: "x"})
	assert.Equal(t, KindRaw, res.Kind)
	assert.Equal(t, "text/html", res.ContentType)
	assert.Equal(t, "<b>x</b>", string(res.Body))
}

func TestExpr_JSONPathAndUUID(t *testing.T) {
	m := mustCompile(t, "", `
handlers:
  response:
    expr: 'jsonpath(body, "$.user.name")'
  all:
    expr: 'jsonpath(body, "$.items[*].id")'
  none:
    expr: 'jsonpath(body, "$.missing")'
  id:
    expr: 'uuid()'
`)
	body := map[string]any{
		"user":  map[string]any{"name": "ann"},
		"items": []any{map[string]any{"id": 1}, map[string]any{"id": 2}},
	}
	assert.Equal(t, "ann", call(t, m, "response", &Call{Body: body}).Data)
	assert.Equal(t, []any{1, 2}, call(t, m, "all", &Call{Body: body}).Data)
	assert.Nil(t, call(t, m, "none", &Call{Body: body}).Data)
	assert.Len(t, call(t, m, "id", &Call{}).Data, 36)
}

func TestExpr_RuntimeErrorIsReturned(t *testing.T) {
	m := mustCompile(t, "", `
handlers:
  response:
    expr: 'list([], "not a map")'
`)
	fn, err := m.Handler("response")
	require.NoError(t, err)
	_, err = fn(&Call{})
	assert.Error(t, err)
}

func TestModule_HandlerNotFound(t *testing.T) {
	m := New("a/b", map[string]HandlerFunc{
		DefaultKey: func(*Call) (Result, error) { return Data(nil), nil },
	})
	_, err := m.Handler("_missing")
	assert.ErrorIs(t, err, ErrHandlerNotFound)

	_, err = m.Handler(DefaultKey)
	assert.NoError(t, err)
}

func TestFlatten(t *testing.T) {
	got := Flatten(url.Values{"a": {"1"}, "b": {"x", "y"}})
	assert.Equal(t, map[string]any{"a": "1", "b": []any{"x", "y"}}, got)
}
