package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/bashhack/flockretry/internal/config"
)

// Version information - injected at build time
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	cfg := config.New()
	cfg.VersionInfo = config.VersionInfo{
		Version: version,
		Commit:  commit,
		Date:    date,
	}
	cfg.LoadFromEnvironment()

	fs := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	if err := cfg.ParseFlags(fs, os.Args[1:]); err != nil {
		os.Exit(ExitError)
	}

	app := NewApp(AppOptions{Config: cfg})

	code, err := app.Run(context.Background())
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "❌ Error: %v\n", err)
	}
	os.Exit(code)
}
