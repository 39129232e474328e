// Package projectconfig loads a project's .blood/config.yaml: the entry
// file, where to mount the standard library, and whether the file cache
// is enabled. BLOOD_PATH/BLOOD_STDLIB environment variables, when set,
// override the file's values; fields neither sets keep conventional
// defaults, the same layering internal/module/loader.go uses for
// AILANG_PATH/AILANG_STDLIB.
package projectconfig

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileName is the conventional config path relative to a project root.
const FileName = ".blood/config.yaml"

// Config is the on-disk shape of .blood/config.yaml.
type Config struct {
	Entry        string   `yaml:"entry"`
	StdlibRoot   string   `yaml:"stdlib_root,omitempty"`
	SearchPaths  []string `yaml:"search_paths,omitempty"`
	CacheEnabled *bool    `yaml:"cache_enabled,omitempty"`
}

// Default returns a Config with every field at its convention default,
// used when no .blood/config.yaml exists.
func Default() *Config {
	enabled := true
	return &Config{
		Entry:        "main.blood",
		SearchPaths:  defaultSearchPaths(),
		StdlibRoot:   defaultStdlibRoot(),
		CacheEnabled: &enabled,
	}
}

// Load starts from defaults, applies root/.blood/config.yaml if present,
// then applies environment overrides on top of both. A missing
// config file is not an error; it behaves exactly like an empty one.
func Load(root string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filepath.Join(root, FileName))
	if err != nil {
		if os.IsNotExist(err) {
			return applyEnv(cfg), nil
		}
		return nil, err
	}

	var onDisk Config
	if err := yaml.Unmarshal(data, &onDisk); err != nil {
		return nil, err
	}
	if onDisk.Entry != "" {
		cfg.Entry = onDisk.Entry
	}
	if onDisk.StdlibRoot != "" {
		cfg.StdlibRoot = onDisk.StdlibRoot
	}
	if len(onDisk.SearchPaths) > 0 {
		cfg.SearchPaths = onDisk.SearchPaths
	}
	if onDisk.CacheEnabled != nil {
		cfg.CacheEnabled = onDisk.CacheEnabled
	}

	return applyEnv(cfg), nil
}

// Save writes cfg to root/.blood/config.yaml, creating the .blood
// directory if necessary.
func Save(root string, cfg *Config) error {
	path := filepath.Join(root, FileName)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// CacheIsEnabled reports whether the project's file cache should be
// consulted, defaulting to true when unset.
func (c *Config) CacheIsEnabled() bool {
	return c.CacheEnabled == nil || *c.CacheEnabled
}

// applyEnv overrides StdlibRoot and SearchPaths from BLOOD_STDLIB and
// BLOOD_PATH when set, taking priority over both the on-disk config and
// the built-in defaults — mirroring AILANG_STDLIB/AILANG_PATH's
// highest-priority placement in getStdlibPath/getDefaultSearchPaths.
func applyEnv(cfg *Config) *Config {
	if stdlib := os.Getenv("BLOOD_STDLIB"); stdlib != "" {
		cfg.StdlibRoot = stdlib
	}
	if path := os.Getenv("BLOOD_PATH"); path != "" {
		cfg.SearchPaths = append([]string{"."}, strings.Split(path, string(os.PathListSeparator))...)
	}
	return cfg
}

func defaultSearchPaths() []string {
	paths := []string{"."}
	if path := os.Getenv("BLOOD_PATH"); path != "" {
		paths = append(paths, strings.Split(path, string(os.PathListSeparator))...)
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".blood", "modules"))
	}
	return paths
}

func defaultStdlibRoot() string {
	if stdlib := os.Getenv("BLOOD_STDLIB"); stdlib != "" {
		return stdlib
	}
	if exe, err := os.Executable(); err == nil {
		stdlib := filepath.Join(filepath.Dir(exe), "..", "stdlib")
		if info, err := os.Stat(stdlib); err == nil && info.IsDir() {
			return stdlib
		}
	}
	return filepath.Join(".", "stdlib")
}
