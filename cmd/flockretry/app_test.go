package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bashhack/flockretry"
	"github.com/bashhack/flockretry/internal/config"
)

type fakeRunner struct {
	code   int
	err    error
	name   string
	args   []string
	called bool
}

func (r *fakeRunner) Run(_ context.Context, name string, args []string) (int, error) {
	r.called = true
	r.name = name
	r.args = args
	return r.code, r.err
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.New()
	cfg.LockPath = filepath.Join(t.TempDir(), "app.lock")
	cfg.Command = []string{"true"}
	return cfg
}

func TestNewAppRequiresConfig(t *testing.T) {
	assert.Panics(t, func() { NewApp(AppOptions{}) })
}

func TestRunVersion(t *testing.T) {
	var stdout, stderr bytes.Buffer

	cfg := config.New()
	cfg.Version = true
	cfg.VersionInfo = config.VersionInfo{Version: "1.2.3", Commit: "abc", Date: "today"}

	app := NewApp(AppOptions{Config: cfg, Stdout: &stdout, Stderr: &stderr})

	code, err := app.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ExitOK, code)
	assert.Contains(t, stdout.String(), "flockretry 1.2.3")
}

func TestRunCommandUnderLock(t *testing.T) {
	var stdout, stderr bytes.Buffer

	cfg := testConfig(t)
	cfg.Command = []string{"echo", "hello"}

	runner := &fakeRunner{code: 0}
	app := NewApp(AppOptions{Config: cfg, Runner: runner, Stdout: &stdout, Stderr: &stderr})

	code, err := app.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ExitOK, code)

	require.True(t, runner.called)
	assert.Equal(t, "echo", runner.name)
	assert.Equal(t, []string{"hello"}, runner.args)

	// The lock was released after the command: the empty file is gone
	_, statErr := os.Stat(cfg.LockPath)
	assert.True(t, os.IsNotExist(statErr), "expected lock file to be cleaned up")
}

func TestRunPassesThroughExitCode(t *testing.T) {
	cfg := testConfig(t)

	runner := &fakeRunner{code: 7}
	app := NewApp(AppOptions{Config: cfg, Runner: runner, Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}})

	code, err := app.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, code)
}

func TestRunConflictExitCode(t *testing.T) {
	cfg := testConfig(t)

	acquire := func(path string, opts ...flockretry.Option) (*flockretry.Lock, error) {
		return nil, &flockretry.TimeoutError{Path: path, Seconds: cfg.Retries}
	}

	runner := &fakeRunner{}
	app := NewApp(AppOptions{Config: cfg, Acquire: acquire, Runner: runner, Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}})

	code, err := app.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, ExitConflict, code)
	assert.False(t, runner.called, "command must not run without the lock")

	var timeoutErr *flockretry.TimeoutError
	assert.True(t, errors.As(err, &timeoutErr))
}

func TestRunAcquireFailure(t *testing.T) {
	cfg := testConfig(t)

	acquire := func(path string, opts ...flockretry.Option) (*flockretry.Lock, error) {
		return nil, &flockretry.OpenError{Path: path, Err: os.ErrPermission}
	}

	runner := &fakeRunner{}
	app := NewApp(AppOptions{Config: cfg, Acquire: acquire, Runner: runner, Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}})

	code, err := app.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, ExitError, code)
	assert.False(t, runner.called)
}

func TestRunInvalidConfig(t *testing.T) {
	cfg := config.New()
	// No lock path, no command

	app := NewApp(AppOptions{Config: cfg, Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}})

	code, err := app.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, ExitError, code)
}

func TestRunSharedFlagForwarded(t *testing.T) {
	cfg := testConfig(t)
	cfg.Shared = true
	cfg.Retries = 9

	var gotPath string
	var gotOpts int
	acquire := func(path string, opts ...flockretry.Option) (*flockretry.Lock, error) {
		gotPath = path
		gotOpts = len(opts)
		return &flockretry.Lock{}, nil
	}

	app := NewApp(AppOptions{Config: cfg, Acquire: acquire, Runner: &fakeRunner{}, Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}})

	code, err := app.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ExitOK, code)
	assert.Equal(t, cfg.LockPath, gotPath)
	// WithRetries plus Shared
	assert.Equal(t, 2, gotOpts)
}

func TestExecRunnerExitCodes(t *testing.T) {
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("requires /bin/sh")
	}

	var stdout, stderr bytes.Buffer
	runner := &execRunner{stdout: &stdout, stderr: &stderr}

	code, err := runner.Run(context.Background(), "/bin/sh", []string{"-c", "echo out; exit 3"})
	require.NoError(t, err)
	assert.Equal(t, 3, code)
	assert.Contains(t, stdout.String(), "out")

	code, err = runner.Run(context.Background(), "/bin/sh", []string{"-c", "exit 0"})
	require.NoError(t, err)
	assert.Equal(t, ExitOK, code)

	code, err = runner.Run(context.Background(), "/no/such/binary", nil)
	require.Error(t, err)
	assert.Equal(t, ExitError, code)
}
