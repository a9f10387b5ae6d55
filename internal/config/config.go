package config

import (
	"crypto/sha256"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bashhack/flockretry"
)

// Config holds all flockretry CLI settings.
type Config struct {
	// Lock configuration
	LockPath string
	Retries  int
	Shared   bool

	// Command to run while holding the lock
	Command []string

	// User experience
	Quiet bool

	// Debugging
	Debug   bool
	LogFile string

	// Special flags
	Version bool

	// Build metadata
	VersionInfo VersionInfo
}

// VersionInfo contains build-time version metadata.
type VersionInfo struct {
	Version string
	Commit  string
	Date    string
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Retries: flockretry.DefaultRetries,

		// Default version info, overridden at build time if provided
		VersionInfo: VersionInfo{
			Version: "dev",
			Commit:  "unknown",
			Date:    "unknown",
		},
	}
}

// LoadFromEnvironment updates config from FLOCKRETRY_* environment
// variables.
func (c *Config) LoadFromEnvironment() {
	c.Retries = getEnvInt("FLOCKRETRY_RETRIES", c.Retries)
	c.Shared = getEnvBool("FLOCKRETRY_SHARED", c.Shared)
	c.Quiet = getEnvBool("FLOCKRETRY_QUIET", c.Quiet)
	c.Debug = getEnvBool("FLOCKRETRY_DEBUG", c.Debug)
	c.LogFile = getEnvString("FLOCKRETRY_LOG_FILE", c.LogFile)
}

// SetupFlags registers command-line flags that override config values.
func (c *Config) SetupFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.Retries, "retries", c.Retries, "Contended retries before giving up (~1 second each)")
	fs.BoolVar(&c.Shared, "shared", c.Shared, "Take a shared lock instead of an exclusive one")
	fs.BoolVar(&c.Quiet, "quiet", c.Quiet, "Hide warning messages")
	fs.BoolVar(&c.Debug, "debug", c.Debug, "Enable debug logging")
	fs.StringVar(&c.LogFile, "log-file", c.LogFile, "Path to log file (default: ~/.local/share/flockretry/logs/flockretry-{lock-hash}.log)")
	fs.BoolVar(&c.Version, "version", c.Version, "Print version information and exit")
}

// ParseFlags parses args (not including the program name) and captures
// the positional lock path and command.
func (c *Config) ParseFlags(fs *flag.FlagSet, args []string) error {
	c.SetupFlags(fs)

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("failed to parse command-line arguments: %w", err)
	}

	rest := fs.Args()
	if len(rest) > 0 {
		c.LockPath = rest[0]
	}
	if len(rest) > 1 {
		c.Command = rest[1:]
	}

	return nil
}

// Finalize validates the configuration and fills in derived defaults.
func (c *Config) Finalize() error {
	if c.Version {
		return nil
	}

	if c.Retries < 0 {
		return fmt.Errorf("invalid retries: %d (must be non-negative)", c.Retries)
	}

	if c.LockPath == "" {
		return fmt.Errorf("no lock file given (usage: flockretry [flags] <lockfile> <command> [args...])")
	}

	absLockPath, err := filepath.Abs(c.LockPath)
	if err != nil {
		return fmt.Errorf("failed to resolve lock file path %q: %w", c.LockPath, err)
	}
	c.LockPath = absLockPath

	if len(c.Command) == 0 {
		return fmt.Errorf("no command given (usage: flockretry [flags] <lockfile> <command> [args...])")
	}

	if c.Debug && c.LogFile == "" {
		// Follow the XDG Base Directory Specification
		logDir := os.Getenv("XDG_DATA_HOME")
		if logDir == "" {
			homeDir, err := os.UserHomeDir()
			if err == nil {
				logDir = filepath.Join(homeDir, ".local", "share")
			} else {
				logDir = os.TempDir()
			}
		}

		// Unique identifier for the lock path
		lockHash := fmt.Sprintf("%x", sha256OfString(c.LockPath)[:8])

		c.LogFile = filepath.Join(logDir, "flockretry", "logs",
			fmt.Sprintf("flockretry-%s.log", lockHash))
	}

	return nil
}

// getEnvString returns an environment variable string or a default value.
func getEnvString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvInt returns an environment variable as int or a default value.
func getEnvInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		if value, err := strconv.Atoi(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}

// getEnvBool returns an environment variable as bool or a default value.
func getEnvBool(key string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(key); exists {
		valueLower := strings.ToLower(valueStr)
		if valueLower == "true" || valueLower == "1" || valueLower == "yes" {
			return true
		}
		if valueLower == "false" || valueLower == "0" || valueLower == "no" {
			return false
		}
		// Any other value falls back to the default
	}
	return defaultValue
}

// sha256OfString returns the SHA256 hash of a string.
func sha256OfString(input string) []byte {
	hash := sha256.Sum256([]byte(input))
	return hash[:]
}
