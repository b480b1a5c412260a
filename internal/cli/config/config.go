// Package config loads quarry's configuration from defaults, a
// quarry.yaml file, QUARRY_ environment variables, and CLI flags, in
// ascending precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Config file names, checked in order.
const (
	FileName    = "quarry.yaml"
	FileNameAlt = "quarry.yml"
)

// Defaults.
const (
	DefaultWorkspaceDir = "fragments"
	DefaultOutput       = "auto"
	DefaultDatabase     = "" // in-memory DuckDB
)

// Config holds the resolved settings for one invocation.
type Config struct {
	// WorkspaceDir is the fragment directory.
	WorkspaceDir string `koanf:"workspace_dir"`
	// StatePath is the SQLite fragment store; empty disables it and
	// the workspace directory is the only store.
	StatePath string `koanf:"state_path"`
	// Database is the DuckDB path previews run against; empty means
	// in-memory.
	Database string `koanf:"database"`
	// Output selects the render mode: auto, text, markdown, or json.
	Output string `koanf:"output"`
	// Verbose enables debug logging.
	Verbose bool `koanf:"verbose"`
}

// Validate rejects settings no command could act on.
func (c *Config) Validate() error {
	switch c.Output {
	case "auto", "text", "markdown", "md", "json":
	default:
		return fmt.Errorf("invalid output mode %q (want auto, text, markdown, or json)", c.Output)
	}
	if c.WorkspaceDir == "" {
		return fmt.Errorf("workspace_dir must not be empty")
	}
	return nil
}

// findConfigFile returns the config file to use: the explicit path if
// given, otherwise quarry.yaml / quarry.yml in dir. Empty means none.
func findConfigFile(explicit, dir string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{FileName, FileNameAlt} {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// FindProjectRoot walks up from startDir looking for a config file,
// falling back to startDir when none is found.
func FindProjectRoot(startDir string) string {
	dir := startDir
	for {
		if findConfigFile("", dir) != "" {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return startDir
		}
		dir = parent
	}
}
