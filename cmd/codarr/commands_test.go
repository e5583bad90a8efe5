package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmunix/codarr/internal/job"
)

func TestParseCmd_JSON(t *testing.T) {
	out, err := execute(t, "--config", filepath.Join(t.TempDir(), "none.toml"), "--json",
		"parse", "/downloads/[HD] ABP-001-C.mp4", "holiday.mp4")
	require.NoError(t, err)

	var results []parseResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 2)

	require.NotNil(t, results[0].Identifier)
	assert.Equal(t, "ABP-001", results[0].Identifier.DisplayID)
	assert.True(t, results[0].Identifier.Attributes.Subtitle)
	assert.Empty(t, results[0].Error)

	assert.Nil(t, results[1].Identifier)
	assert.NotEmpty(t, results[1].Error)
}

func TestParseCmd_Table(t *testing.T) {
	out, err := execute(t, "--config", filepath.Join(t.TempDir(), "none.toml"), "parse", "ssis123.mp4")
	require.NoError(t, err)
	assert.Contains(t, out, "NUMBER")
	assert.Contains(t, out, "SSIS-123")
}

func TestConfigInitAndTest(t *testing.T) {
	t.Setenv("CODARR_DATA", t.TempDir())
	t.Setenv("CODARR_OUTPUT", "/library")
	path := filepath.Join(t.TempDir(), "codarr", "config.toml")

	out, err := execute(t, "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	_, err = execute(t, "config", "init", path)
	assert.ErrorContains(t, err, "already exists")

	out, err = execute(t, "config", "test", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Config OK")
	assert.Contains(t, out, "dmm(10) javbus(20) javdb(30)")
}

func TestConfigTest_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[batch]\nconcurrency = -2\n"), 0o644))

	_, err := execute(t, "config", "test", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch.concurrency")
}

func TestRunCmd_EndToEnd(t *testing.T) {
	srv := javbusServer(t)
	env := newTestEnv(t, srv.URL)

	in := t.TempDir()
	good := filepath.Join(in, "ABP-001.mp4")
	bad := filepath.Join(in, "ABP-999.mp4")
	require.NoError(t, os.WriteFile(good, []byte("video"), 0o644))
	require.NoError(t, os.WriteFile(bad, []byte("video"), 0o644))

	out, err := execute(t, "--config", env.config, "run", in)
	require.ErrorIs(t, err, errFilesFailed)
	assert.Contains(t, out, "2 files: 1 succeeded, 1 failed, 0 skipped")
	assert.FileExists(t, filepath.Join(env.library, "Actor A", "ABP-001", "ABP-001.mp4"))

	out, err = execute(t, "--config", env.config, "--json", "jobs", "list", "--status", "failed")
	require.NoError(t, err)
	var jobs []job.Job
	require.NoError(t, json.Unmarshal([]byte(out), &jobs))
	require.Len(t, jobs, 1)
	assert.Equal(t, bad, jobs[0].FilePath)
	assert.Contains(t, jobs[0].Error, "resolve")

	out, err = execute(t, "--config", env.config, "--json", "jobs", "stats")
	require.NoError(t, err)
	var stats map[job.Status]int
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.Equal(t, 1, stats[job.StatusCompleted])
	assert.Equal(t, 1, stats[job.StatusFailed])

	// The placed file has moved out of the input dir; the failed one is skipped.
	out, err = execute(t, "--config", env.config, "run", in)
	require.NoError(t, err)
	assert.Contains(t, out, "1 files: 0 succeeded, 0 failed, 1 skipped")

	out, err = execute(t, "--config", env.config, "failed", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "ABP-999.mp4")

	out, err = execute(t, "--config", env.config, "jobs", "retry", bad)
	require.NoError(t, err)
	assert.Contains(t, out, "failed -> pending")

	out, err = execute(t, "--config", env.config, "--json", "failed", "list")
	require.NoError(t, err)
	assert.Equal(t, "null\n", out)

	out, err = execute(t, "--config", env.config, "events", "-n", "100")
	require.NoError(t, err)
	assert.Contains(t, out, "job.retried")
	assert.Contains(t, out, "batch.finished")
}

func TestRunCmd_OverrideNeedsSingleFile(t *testing.T) {
	env := newTestEnv(t, "http://127.0.0.1:1")
	in := t.TempDir()
	for _, name := range []string{"a.mp4", "b.mp4"} {
		require.NoError(t, os.WriteFile(filepath.Join(in, name), []byte("x"), 0o644))
	}
	_, err := execute(t, "--config", env.config, "run", "--number", "ABP-001", in)
	assert.ErrorContains(t, err, "found 2 files")
}

func TestFailedCmd_RemoveAndClear(t *testing.T) {
	env := newTestEnv(t, "http://127.0.0.1:1")

	out, err := execute(t, "--config", env.config, "failed", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No failed files")

	out, err = execute(t, "--config", env.config, "failed", "remove", "/nowhere.mp4")
	require.NoError(t, err)
	assert.Contains(t, out, "not in failed list")

	out, err = execute(t, "--config", env.config, "failed", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed 0 file(s)")
}

func TestJobsCmd_Empty(t *testing.T) {
	env := newTestEnv(t, "http://127.0.0.1:1")

	out, err := execute(t, "--config", env.config, "jobs", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No jobs")

	_, err = execute(t, "--config", env.config, "jobs", "list", "--status", "done")
	assert.ErrorContains(t, err, "unknown status")

	out, err = execute(t, "--config", env.config, "jobs", "reset-stuck")
	require.NoError(t, err)
	assert.Contains(t, out, "Reset 0 job(s)")

	out, err = execute(t, "--config", env.config, "cache", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "0 live, 0 expired")
}
