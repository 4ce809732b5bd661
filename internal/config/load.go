package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/qjebbs/go-jsons"
)

var (
	instance *Config
	once     sync.Once
	loadErr  error
)

// Init loads the configuration once and memoizes it for the rest of the
// process.
func Init(workingDir string, debug bool) (*Config, error) {
	once.Do(func() {
		instance, loadErr = Load(workingDir, debug)
	})
	return instance, loadErr
}

// Get returns the loaded configuration, nil before Init.
func Get() *Config {
	return instance
}

// Load reads every config file layer, merges them, applies environment
// overrides, and validates the result. Later layers win: global config,
// then the config stored in the data directory, then the project-local
// files.
func Load(workingDir string, debug bool) (*Config, error) {
	cfg := &Config{
		workingDir:    workingDir,
		dataConfigDir: GlobalConfigData(),
	}

	merged, err := mergeConfigFiles(configPaths(workingDir))
	if err != nil {
		return nil, err
	}
	if merged != nil {
		if err := json.Unmarshal(merged, cfg); err != nil {
			return nil, fmt.Errorf("config: parse: %w", err)
		}
	}

	cfg.applyEnv()
	if debug {
		if cfg.Options == nil {
			cfg.Options = &Options{}
		}
		cfg.Options.Debug = true
	}
	if len(cfg.Symbols) == 0 {
		cfg.Symbols = slices.Clone(defaultSymbols)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func configPaths(workingDir string) []string {
	return []string{
		GlobalConfig(),
		GlobalConfigData(),
		filepath.Join(workingDir, appName+".json"),
		filepath.Join(workingDir, "."+appName+".json"),
	}
}

func mergeConfigFiles(paths []string) ([]byte, error) {
	var inputs []any
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		inputs = append(inputs, data)
	}
	if len(inputs) == 0 {
		return nil, nil
	}

	merged, err := jsons.Merge(inputs...)
	if err != nil {
		return nil, fmt.Errorf("config: merge: %w", err)
	}
	return merged, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("TAPEVIEW_SYMBOLS"); v != "" {
		var symbols []string
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				symbols = append(symbols, strings.ToUpper(s))
			}
		}
		if len(symbols) > 0 {
			c.Symbols = symbols
		}
	}
	if v := os.Getenv("TAPEVIEW_DATA_DIR"); v != "" {
		if c.Options == nil {
			c.Options = &Options{}
		}
		c.Options.DataDirectory = v
	}
	if v, err := strconv.ParseBool(os.Getenv("TAPEVIEW_DEBUG")); err == nil {
		if c.Options == nil {
			c.Options = &Options{}
		}
		c.Options.Debug = v
	}
}

// GlobalConfig returns the path of the global configuration file.
func GlobalConfig() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName, appName+".json")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "."+appName, appName+".json")
	}
	return filepath.Join(home, ".config", appName, appName+".json")
}

// GlobalConfigData returns the path of the config file kept in the data
// directory, where runtime settings get persisted.
func GlobalConfigData() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, appName, appName+".json")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "."+appName, appName+".json")
	}
	return filepath.Join(home, ".local", "share", appName, appName+".json")
}
