package models

import (
	"os"
	"path/filepath"

	"github.com/shibukawa/configdir"
)

type Config struct {
	Arch  string
	CPU   string
	SMP   int
	Accel string
	// MemSize bytes of RAM mapped at physical address 0.
	MemSize uint64

	LogFile string
	Verbose bool

	SaveFile   string
	LoadFile   string
	ReplayFile string
	Monitor    bool
	// UserOnly restores the default SIGABRT handler before a fatal abort.
	UserOnly bool
}

func DefaultConfig() *Config {
	return &Config{
		Arch:    "arm",
		CPU:     "cortex-a9",
		SMP:     1,
		Accel:   "soft",
		MemSize: 16 << 20,
	}
}

// CachePath returns a file under the per-user cache directory, creating the
// directory if needed. It returns "" if the directory is unavailable.
func CachePath(name string) string {
	cacheDir := configdir.New("vcpu", "monitor").QueryCacheFolder()
	if err := cacheDir.MkdirAll(); err != nil {
		return ""
	}
	return filepath.Join(cacheDir.Path, name)
}

// ExpandPath makes path absolute relative to the working directory.
func ExpandPath(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if wd, err := os.Getwd(); err == nil {
		return filepath.Join(wd, path)
	}
	return path
}
