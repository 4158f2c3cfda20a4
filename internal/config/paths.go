package config

import (
	"os"
	"path/filepath"
)

const appName = "roficlip"

// Paths locates every file roficlip touches
type Paths struct {
	ConfigFile   string
	RingDB       string
	PersistentDB string
	ArchiveDB    string
	FIFO         string
	PIDFile      string
}

// DefaultPaths resolves the XDG base directories
func DefaultPaths() (Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Paths{}, err
	}
	dataDir := filepath.Join(xdgDir("XDG_DATA_HOME", filepath.Join(home, ".local", "share")), appName)
	configDir := filepath.Join(xdgDir("XDG_CONFIG_HOME", filepath.Join(home, ".config")), appName)
	runtimeDir := xdgDir("XDG_RUNTIME_DIR", os.TempDir())

	return Paths{
		ConfigFile:   filepath.Join(configDir, "settings"),
		RingDB:       filepath.Join(dataDir, "ring.db"),
		PersistentDB: filepath.Join(dataDir, "persistent.db"),
		ArchiveDB:    filepath.Join(dataDir, "archive.db"),
		FIFO:         filepath.Join(runtimeDir, appName+".fifo"),
		PIDFile:      filepath.Join(runtimeDir, appName+".pid"),
	}, nil
}

// xdgDir returns the variable's value when it is an absolute path, as the
// XDG base directory rules require, and fallback otherwise.
func xdgDir(env, fallback string) string {
	if dir := os.Getenv(env); filepath.IsAbs(dir) {
		return dir
	}
	return fallback
}
