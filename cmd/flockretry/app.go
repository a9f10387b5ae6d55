package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/bashhack/flockretry"
	"github.com/bashhack/flockretry/internal/config"
	"github.com/bashhack/flockretry/internal/logger"
)

// Exit codes. ExitConflict mirrors flock(1): the command was never run
// because the lock could not be obtained within the retry budget.
const (
	ExitOK       = 0
	ExitError    = 1
	ExitConflict = 2
)

// AcquireFunc acquires the lock for the app; swapped out in tests.
type AcquireFunc func(path string, opts ...flockretry.Option) (*flockretry.Lock, error)

// CommandRunner runs the user's command while the lock is held.
type CommandRunner interface {
	Run(ctx context.Context, name string, args []string) (int, error)
}

// AppOptions contains app configuration and dependencies.
type AppOptions struct {
	// Required
	Config *config.Config

	// Optional components
	Logger  logger.Logger
	Acquire AcquireFunc
	Runner  CommandRunner

	// I/O dependencies
	Stdout io.Writer
	Stderr io.Writer
}

// App is the flockretry command-line application.
type App struct {
	Config  *config.Config
	Logger  logger.Logger
	Acquire AcquireFunc
	Runner  CommandRunner

	// I/O streams
	Stdout io.Writer
	Stderr io.Writer
}

// NewApp creates an App, filling in defaults for any dependency not
// provided.
func NewApp(opts AppOptions) *App {
	if opts.Config == nil {
		panic("Config is required in AppOptions")
	}

	app := &App{
		Config:  opts.Config,
		Logger:  opts.Logger,
		Acquire: opts.Acquire,
		Runner:  opts.Runner,
		Stdout:  opts.Stdout,
		Stderr:  opts.Stderr,
	}

	if app.Stdout == nil {
		app.Stdout = os.Stdout
	}
	if app.Stderr == nil {
		app.Stderr = os.Stderr
	}
	if app.Acquire == nil {
		app.Acquire = flockretry.Acquire
	}

	return app
}

// Initialize sets up components not provided during construction.
func (a *App) Initialize() error {
	if err := a.Config.Finalize(); err != nil {
		return err
	}

	if a.Logger == nil {
		a.Logger = logger.NewWithOutput(a.Config.Debug, a.Config.LogFile, a.Config.Quiet, a.Stdout, a.Stderr)
	}

	if a.Runner == nil {
		a.Runner = &execRunner{
			stdin:  os.Stdin,
			stdout: a.Stdout,
			stderr: a.Stderr,
		}
	}

	return nil
}

// Run acquires the lock, runs the configured command while holding it,
// and returns the exit code the process should terminate with.
func (a *App) Run(ctx context.Context) (int, error) {
	if err := a.Initialize(); err != nil {
		return ExitError, err
	}

	if a.Config.Version {
		a.ShowVersion()
		return ExitOK, nil
	}

	// Ensure the logger is flushed even on early error paths
	defer func() {
		if err := a.Close(); err != nil {
			_, _ = fmt.Fprintf(a.Stderr, "❌ Error during cleanup: %v\n", err)
		}
	}()

	opts := []flockretry.Option{flockretry.WithRetries(a.Config.Retries)}
	if a.Config.Shared {
		opts = append(opts, flockretry.Shared())
	}

	a.Logger.Info("acquiring lock on %s (retries=%d, shared=%v)",
		a.Config.LockPath, a.Config.Retries, a.Config.Shared)

	lock, err := a.Acquire(a.Config.LockPath, opts...)
	if err != nil {
		var timeoutErr *flockretry.TimeoutError
		if errors.As(err, &timeoutErr) {
			return ExitConflict, err
		}
		return ExitError, err
	}
	defer lock.Release()

	a.Logger.Info("lock acquired on %s, running %v", a.Config.LockPath, a.Config.Command)

	return a.Runner.Run(ctx, a.Config.Command[0], a.Config.Command[1:])
}

// ShowVersion displays version information.
func (a *App) ShowVersion() {
	_, _ = fmt.Fprintf(a.Stdout, "flockretry %s (%s) built on %s\n",
		a.Config.VersionInfo.Version,
		a.Config.VersionInfo.Commit,
		a.Config.VersionInfo.Date)
}

// Close releases resources held by the App.
func (a *App) Close() error {
	if a.Logger != nil {
		return a.Logger.Close()
	}
	return nil
}

// execRunner runs commands with inherited stdio and forwards termination
// signals to the child so the lock is released only after the child
// exits.
type execRunner struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// Run starts the command and waits for it. A non-zero child exit is not
// an error here: the child's code is passed through as ours, again
// matching flock(1).
func (r *execRunner) Run(ctx context.Context, name string, args []string) (int, error) {
	cmd := exec.Command(name, args...)
	cmd.Stdin = r.stdin
	cmd.Stdout = r.stdout
	cmd.Stderr = r.stderr

	if err := cmd.Start(); err != nil {
		return ExitError, fmt.Errorf("failed to start %s: %w", name, err)
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	done := make(chan struct{})
	go func() {
		ctxDone := ctx.Done()
		for {
			select {
			case sig := <-sigs:
				_ = cmd.Process.Signal(sig)
			case <-ctxDone:
				_ = cmd.Process.Signal(syscall.SIGTERM)
				ctxDone = nil
			case <-done:
				return
			}
		}
	}()
	defer func() {
		signal.Stop(sigs)
		close(done)
	}()

	err := cmd.Wait()
	if err == nil {
		return ExitOK, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return ExitError, fmt.Errorf("command %s failed: %w", name, err)
}
