// Package state centralizes filesystem locations for gasoline-scenarios runtime artifacts.
package state

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// StateDirEnv overrides the default runtime state root.
	StateDirEnv = "GASOLINE_SCENARIOS_STATE_DIR"

	xdgStateHomeEnv = "XDG_STATE_HOME"
	appName         = "gasoline-scenarios"

	// SecretsExcluderFile is the sentinel written to the secrets directory
	// on first use, instructing source-control tooling to ignore everything
	// else in that directory (spec.md §3 invariant 5).
	SecretsExcluderFile = ".gitignore"
)

// RootDir returns the runtime state root for gasoline-scenarios.
// Resolution order:
//  1. GASOLINE_SCENARIOS_STATE_DIR (if set)
//  2. XDG_STATE_HOME/gasoline-scenarios (if XDG_STATE_HOME is set)
//  3. os.UserConfigDir()/gasoline-scenarios (cross-platform fallback)
func RootDir() (string, error) {
	if override := strings.TrimSpace(os.Getenv(StateDirEnv)); override != "" {
		return normalizePath(override)
	}

	if xdg := strings.TrimSpace(os.Getenv(xdgStateHomeEnv)); xdg != "" {
		root, err := normalizePath(xdg)
		if err != nil {
			return "", err
		}
		return filepath.Join(root, appName), nil
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine user config directory: %w", err)
	}
	root, err := normalizePath(configDir)
	if err != nil {
		return "", err
	}
	return filepath.Join(root, appName), nil
}

// LogsDir returns the logs directory under RootDir.
func LogsDir() (string, error) {
	return InRoot("logs")
}

// DefaultLogFile returns the default structured log file path.
func DefaultLogFile() (string, error) {
	return InRoot("logs", "gasoline-scenarios.jsonl")
}

// CrashLogFile returns the panic crash log file path.
func CrashLogFile() (string, error) {
	return InRoot("logs", "crash.log")
}

// ScenariosDir returns the directory holding one file per stored scenario
// plus the index (spec.md §4.5).
func ScenariosDir() (string, error) {
	return InRoot("scenarios")
}

// SecretsDir returns the directory holding one file per scenario that has
// secrets, plus the excluder sentinel (spec.md §3 invariant 5, §4.5).
func SecretsDir() (string, error) {
	return InRoot("secrets")
}

// IndexFile returns the path to the sqlite-backed scenario index cache.
func IndexFile() (string, error) {
	return InRoot("scenarios", "index.sqlite")
}

// InRoot returns a path rooted under RootDir with additional path elements.
func InRoot(parts ...string) (string, error) {
	root, err := RootDir()
	if err != nil {
		return "", err
	}
	all := make([]string, 0, len(parts)+1)
	all = append(all, root)
	all = append(all, parts...)
	return filepath.Join(all...), nil
}

func normalizePath(path string) (string, error) {
	if path == "" {
		return "", errors.New("empty path")
	}
	if filepath.IsAbs(path) {
		return filepath.Clean(path), nil
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("cannot resolve path %q: %w", path, err)
	}
	return filepath.Clean(absPath), nil
}
