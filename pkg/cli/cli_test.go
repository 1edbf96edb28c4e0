package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/mockgate/pkg/config"
)

// project writes a config file and modules into a temp dir and returns the
// config path.
func project(t *testing.T, modules map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	root := filepath.Join(dir, "mockup")
	require.NoError(t, os.MkdirAll(root, 0o755))
	for rel, content := range modules {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	cfgPath := filepath.Join(dir, "mockgate.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("port: 9100\nmockRoot: "+root+"\n"), 0o644))
	return cfgPath
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

const userList = `
timeout: 50
handlers:
  response:
    expr: 'ok({"page": body.page})'
  _user_detail:
    body: {id: 7}
`

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "mockgate ")

	out, err = execute(t, "version", "--json")
	require.NoError(t, err)
	var v VersionOutput
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.NotEmpty(t, v.Go)
}

func TestValidate_AllValid(t *testing.T) {
	cfg := project(t, map[string]string{
		"user/list.yaml":    userList,
		"order/detail.json": `{"handlers": {"response": {"body": {"id": 1}}}}`,
	})

	out, err := execute(t, "validate", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "ok    order/detail")
	assert.Contains(t, out, "ok    user/list")
	assert.Contains(t, out, "2 module(s) valid")
}

func TestValidate_ReportsInvalidModules(t *testing.T) {
	cfg := project(t, map[string]string{
		"user/list.yaml": userList,
		"bad/expr.yaml":  "handlers: {response: {expr: 'ok('}}",
	})

	out, err := execute(t, "validate", "--config", cfg, "--json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 invalid module(s)")

	var report ValidateOutput
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.False(t, report.Valid)
	require.Len(t, report.Modules, 2)
	assert.Equal(t, "bad/expr", report.Modules[0].Identity)
	assert.NotEmpty(t, report.Modules[0].Error)
	assert.Equal(t, []string{"_user_detail", "response"}, report.Modules[1].Handlers)
	assert.Equal(t, int64(50), report.Modules[1].TimeoutMS)
}

func TestValidate_MissingRoot(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "mockgate.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("mockRoot: "+filepath.Join(dir, "nope")+"\n"), 0o644))

	_, err := execute(t, "validate", "--config", cfgPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mock root")
}

func TestResolve(t *testing.T) {
	cfg := project(t, map[string]string{"user/list.yaml": userList})

	out, err := execute(t, "resolve", "/data/user/list", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "identity:  user/list")
	assert.Contains(t, out, "handler:   response\n")

	out, err = execute(t, "resolve", "/data/user/list?path=/User/Detail", "--config", cfg, "--json")
	require.NoError(t, err)
	var res ResolveOutput
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "/User/Detail", res.Path)
	assert.Equal(t, "_user_detail", res.Key)
	assert.True(t, res.HasHandler)

	out, err = execute(t, "resolve", "/data/user/list?path=/nothing", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "_nothing (missing)")
}

func TestResolve_Invoke(t *testing.T) {
	cfg := project(t, map[string]string{"user/list.yaml": userList})

	out, err := execute(t, "resolve", "/data/user/list", "--config", cfg, "--json",
		"--invoke", "--data", `{"page": 2}`, "--content-type", "application/json")
	require.NoError(t, err)

	var res ResolveOutput
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.NotNil(t, res.Response)
	assert.Equal(t, 200, res.Response.Status)
	assert.JSONEq(t, `{"success":true,"result":{"page":2}}`, res.Response.Body)
}

func TestResolve_Miss(t *testing.T) {
	cfg := project(t, nil)
	_, err := execute(t, "resolve", "/data/none/here", "--config", cfg)
	assert.Error(t, err)
}

func TestConfig_Sources(t *testing.T) {
	cfg := project(t, nil)

	out, err := execute(t, "config", "--config", cfg, "--json")
	require.NoError(t, err)
	var res ConfigOutput
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, config.SourceFile, res.Sources["port"])
	assert.Equal(t, config.SourceDefault, res.Sources["dataPrefix"])

	out, err = execute(t, "config", "--config", cfg, "--sources")
	require.NoError(t, err)
	assert.Contains(t, out, "port: 9100")
	assert.Contains(t, out, "# sources")
}

func TestServeFlags_Overlay(t *testing.T) {
	f := &serveFlags{}
	cmd := &cobra.Command{Use: "serve"}
	f.register(cmd)
	require.NoError(t, cmd.ParseFlags([]string{
		"--port", "3000",
		"--backend", "http://localhost:8080",
		"--whitelist", "glob:/data/session/**,/data/ping",
		"--page", "/shop/:page",
		"--watch=false",
		"--no-metrics",
	}))

	cfg := config.Default()
	cfg.Reload.Watch = true
	config.Merge(cfg, f.overlay(cmd), config.SourceFlag)

	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, config.DefaultMockRoot, cfg.MockRoot)
	assert.Equal(t, "http://localhost:8080", cfg.Backend)
	assert.Equal(t, []string{"glob:/data/session/**", "/data/ping"}, cfg.Intercept.WhiteList)
	assert.Equal(t, []config.PageRoute{{Location: "/shop/:page"}}, cfg.Pages)
	assert.False(t, cfg.Reload.Watch)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, config.SourceFlag, cfg.Sources["port"])
	assert.Equal(t, config.SourceDefault, cfg.Sources["mockRoot"])
	require.NoError(t, cfg.Validate())
}

func TestServe_InvalidFlags(t *testing.T) {
	cfg := project(t, nil)
	_, err := execute(t, "serve", "--config", cfg, "--policy", "sometimes")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reload.policy")
}
