// Package paths resolves the files eartrainer reads and writes.
package paths

import (
	"os"
	"path/filepath"
	"strings"
)

// AppDirName is the per-project and per-user state directory.
const AppDirName = ".eartrainer"

// Expand replaces a leading "~" with the home directory and expands
// environment variables. Paths it cannot expand are returned cleaned.
func Expand(p string) string {
	if p == "" {
		return ""
	}
	p = os.ExpandEnv(p)
	if p == "~" || strings.HasPrefix(p, "~/") || strings.HasPrefix(p, `~\`) {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, p[1:])
		}
	}
	return filepath.Clean(p)
}

// ResolveAppDir returns the .eartrainer directory for dir. dir may be a
// project directory or the .eartrainer directory itself. A "redirect" file
// inside it holding another path, relative or absolute, is followed once.
func ResolveAppDir(dir string) string {
	dir = filepath.Clean(dir)
	if filepath.Base(dir) != AppDirName {
		dir = filepath.Join(dir, AppDirName)
	}

	data, err := os.ReadFile(filepath.Join(dir, "redirect")) //nolint:gosec // path is built from the app dir
	if err != nil {
		return dir
	}
	target := strings.TrimSpace(string(data))
	if target == "" {
		return dir
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(dir, target)
	}
	return filepath.Clean(target)
}

// UserAppDir returns ~/.eartrainer, or .eartrainer when there is no home
// directory.
func UserAppDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return AppDirName
	}
	return filepath.Join(home, AppDirName)
}
