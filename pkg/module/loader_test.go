package module

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestFileLoader_Load(t *testing.T) {
	root := t.TempDir()
	src := writeFile(t, root, "user/list.yaml", "timeout: 20\nhandlers: {response: {body: {id: 1}}}\n")

	m, err := NewFileLoader(root).Load("user/list")
	require.NoError(t, err)
	assert.Equal(t, "user/list", m.Identity)
	assert.Equal(t, src, m.Source)
	assert.Equal(t, src, m.Fingerprint.Path)
	assert.Len(t, m.Fingerprint.Hash, 64)
	assert.NotZero(t, m.Fingerprint.Size)
}

func TestFileLoader_ExtensionOrder(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a/b.json", `{"handlers":{"response":{"body":"json"}}}`)
	yml := writeFile(t, root, "a/b.yml", "handlers: {response: {body: yml}}")

	m, err := NewFileLoader(root).Load("a/b")
	require.NoError(t, err)
	assert.Equal(t, yml, m.Source)

	yaml := writeFile(t, root, "a/b.yaml", "handlers: {response: {body: yaml}}")
	m, err = NewFileLoader(root).Load("a/b")
	require.NoError(t, err)
	assert.Equal(t, yaml, m.Source)
}

func TestFileLoader_Missing(t *testing.T) {
	_, err := NewFileLoader(t.TempDir()).Load("no/such")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileLoader_Invalid(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a/b.yaml", "handlers: {response: {expr: 'ok(('}}")

	_, err := NewFileLoader(root).Load("a/b")
	assert.ErrorIs(t, err, ErrInvalidDefinition)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestFileLoader_Identities(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "user/list.yaml", "handlers: {response: {}}")
	writeFile(t, root, "user/list.json", `{"handlers":{"response":{}}}`)
	writeFile(t, root, "shop/order/detail.json", `{"handlers":{"response":{}}}`)
	writeFile(t, root, "top.yaml", "handlers: {response: {}}")
	writeFile(t, root, ".tmp/upload/x.json", "{}")
	writeFile(t, root, "user/notes.txt", "ignored")

	ids, err := NewFileLoader(root).Identities()
	require.NoError(t, err)
	assert.Equal(t, []string{"shop/order/detail", "user/list"}, ids)
}

func TestFileLoader_IdentityFor(t *testing.T) {
	root := t.TempDir()
	l := NewFileLoader(root)

	id, ok := l.IdentityFor(filepath.Join(root, "user", "list.yaml"))
	assert.True(t, ok)
	assert.Equal(t, "user/list", id)

	_, ok = l.IdentityFor(filepath.Join(root, "user", "list.txt"))
	assert.False(t, ok)
	_, ok = l.IdentityFor(filepath.Join(filepath.Dir(root), "elsewhere", "x.yaml"))
	assert.False(t, ok)
}

func TestChainLoader(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "file/only.yaml", "handlers: {response: {body: file}}")
	writeFile(t, root, "shared/id.yaml", "handlers: {response: {body: file}}")
	writeFile(t, root, "bad/def.yaml", "handlers: {}")

	static := StaticLoader{
		"shared/id": New("shared/id", map[string]HandlerFunc{
			DefaultKey: func(*Call) (Result, error) { return Data("static"), nil },
		}),
	}
	chain := ChainLoader{static, NewFileLoader(root)}

	m, err := chain.Load("shared/id")
	require.NoError(t, err)
	assert.Empty(t, m.Source)

	m, err = chain.Load("file/only")
	require.NoError(t, err)
	assert.NotEmpty(t, m.Source)

	_, err = chain.Load("bad/def")
	assert.ErrorIs(t, err, ErrInvalidDefinition)

	_, err = chain.Load("none/here")
	assert.ErrorIs(t, err, ErrNotFound)
}
