// Package configpaths computes candidate configuration file locations.
package configpaths

import (
	"os"
	"path/filepath"
	"strings"
)

const appDir = "jamloop"

// DefaultConfigDir returns the per-user configuration directory.
func DefaultConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, appDir), nil
}

// ConfigCandidatePaths returns the configuration file paths to try, grouped
// by format, in priority order: an explicit user-supplied path first, then
// the working directory, then the per-user config directory. Missing files
// are skipped by the loader.
func ConfigCandidatePaths(userCfg string) (jsonPaths, yamlPaths, tomlPaths []string) {
	add := func(p string) {
		switch strings.ToLower(filepath.Ext(p)) {
		case ".json":
			jsonPaths = append(jsonPaths, p)
		case ".yaml", ".yml":
			yamlPaths = append(yamlPaths, p)
		case ".toml":
			tomlPaths = append(tomlPaths, p)
		}
	}

	if userCfg != "" {
		add(userCfg)
	}

	dirs := []string{"."}
	if d, err := DefaultConfigDir(); err == nil {
		dirs = append(dirs, d)
	}
	for _, dir := range dirs {
		for _, ext := range []string{".json", ".yaml", ".yml", ".toml"} {
			add(filepath.Join(dir, appDir+ext))
		}
	}
	return jsonPaths, yamlPaths, tomlPaths
}
