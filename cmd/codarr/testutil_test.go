package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// testEnv is a config file with its database and library in a temp dir.
type testEnv struct {
	dir     string
	config  string
	db      string
	library string
}

// newTestEnv writes a config with only javbus enabled, pointed at baseURL.
func newTestEnv(t *testing.T, baseURL string) *testEnv {
	t.Helper()
	dir := t.TempDir()
	env := &testEnv{
		dir:     dir,
		config:  filepath.Join(dir, "config.toml"),
		db:      filepath.Join(dir, "data", "codarr.db"),
		library: filepath.Join(dir, "library"),
	}
	content := fmt.Sprintf(`
[log]
level = "error"

[database]
path = %q

[output]
root = %q
sidecar = true

[cache]
enabled = false

[sources.dmm]
enabled = false

[sources.javbus]
base_url = %q

[sources.javdb]
enabled = false
`, env.db, env.library, baseURL)
	require.NoError(t, os.WriteFile(env.config, []byte(content), 0o644))
	return env
}

// execute runs the CLI with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// javbusServer serves the ABP-001 detail page fixture and 404 for anything else.
func javbusServer(t *testing.T) *httptest.Server {
	t.Helper()
	body, err := os.ReadFile(filepath.Join("..", "..", "internal", "source", "javbus", "testdata", "ABP-001.html"))
	require.NoError(t, err)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ABP-001" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}
