package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/kbukum/guardkit/logger"
)

// FileSystem abstracts file operations for the loader (useful in tests).
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

// RealFileSystem implements FileSystem with actual file operations.
type RealFileSystem struct{}

func (rfs *RealFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (rfs *RealFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

// LoaderConfig holds loader dependencies and optional file overrides.
type LoaderConfig struct {
	FileSystem FileSystem
	ConfigFile string
	EnvFile    string
}

// LoaderOption is a functional option for Load.
type LoaderOption func(*LoaderConfig)

// WithFileSystem sets a custom filesystem for the loader.
func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *LoaderConfig) { lc.FileSystem = fs }
}

// WithConfigFile sets an explicit config file path.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// Load populates cfg for the named service. It locates config.yml and
// .env files in standard locations (explicit paths win), reads the YAML,
// layers environment variables on top, and unmarshals the merged tree.
func Load(serviceName string, cfg any, opts ...LoaderOption) error {
	var lc LoaderConfig
	for _, opt := range opts {
		opt(&lc)
	}
	if lc.FileSystem == nil {
		lc.FileSystem = &RealFileSystem{}
	}

	configFile := lc.ConfigFile
	if configFile == "" {
		configFile = findFile(lc.FileSystem, configSearchPaths(serviceName))
	}
	envFile := lc.EnvFile
	if envFile == "" {
		envFile = findFile(lc.FileSystem, envSearchPaths(serviceName))
	}

	v := viper.New()

	// YAML first, the base layer.
	if configFile != "" && lc.FileSystem.Exists(configFile) {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			logger.Warn("failed to read config file", logger.Fields(
				"file", configFile,
				logger.FieldError, err.Error(),
			))
		}
	}

	// Environment variables override the file.
	v.AutomaticEnv()
	bindEnvVars(v)

	// .env last: it may introduce variables that need re-binding.
	if envFile != "" && lc.FileSystem.Exists(envFile) {
		if err := lc.FileSystem.LoadEnv(envFile); err != nil {
			logger.Warn("failed to load env file", logger.Fields(
				"file", envFile,
				logger.FieldError, err.Error(),
			))
		} else {
			bindEnvVars(v)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("unmarshal config for %s: %w", serviceName, err)
	}
	return nil
}

// configSearchPaths lists candidate config.yml locations, most specific
// first.
func configSearchPaths(serviceName string) []string {
	return []string{
		fmt.Sprintf("./cmd/%s/config.yml", serviceName),
		fmt.Sprintf("../cmd/%s/config.yml", serviceName),
		"./config/config.yml",
		"../config/config.yml",
		"./config.yml",
	}
}

// envSearchPaths lists candidate .env locations. A service-specific
// .env.<name> beats the shared .env at every level.
func envSearchPaths(serviceName string) []string {
	names := []string{fmt.Sprintf(".env.%s", serviceName), ".env"}
	bases := []string{
		fmt.Sprintf("./cmd/%s", serviceName),
		"./config",
		".",
		"..",
	}

	paths := make([]string, 0, len(names)*len(bases))
	for _, name := range names {
		for _, base := range bases {
			paths = append(paths, base+"/"+name)
		}
	}
	return paths
}

func findFile(fs FileSystem, paths []string) string {
	for _, path := range paths {
		if fs.Exists(path) {
			return path
		}
	}
	return ""
}

// bindEnvVars maps every UPPER_SNAKE environment variable onto the
// nested viper keys it could address, so GUARDS_SEARCH_TIMEOUT reaches
// guards.search.timeout without explicit BindEnv calls.
func bindEnvVars(v *viper.Viper) {
	for _, env := range os.Environ() {
		pair := strings.SplitN(env, "=", 2)
		if len(pair) != 2 {
			continue
		}
		for _, variant := range envKeyVariants(pair[0]) {
			v.Set(variant, pair[1])
		}
	}
}

// envKeyVariants generates the nested key spellings an environment
// variable may bind to. Examples:
//
//	LOGGING_LEVEL -> [logging_level, logging.level]
//	GUARDS_SEARCH_MAX_ATTEMPTS -> [guards_search_max_attempts,
//	    guards.search.max.attempts, guards.search_max_attempts, ...]
func envKeyVariants(envKey string) []string {
	lowerKey := strings.ToLower(envKey)
	parts := strings.Split(lowerKey, "_")
	if len(parts) <= 1 {
		return []string{lowerKey}
	}

	variants := []string{
		lowerKey,
		strings.ReplaceAll(lowerKey, "_", "."),
	}
	for i := 1; i < len(parts); i++ {
		prefix := strings.Join(parts[:i], ".")
		suffix := strings.Join(parts[i:], "_")
		variants = append(variants, prefix+"."+suffix)
	}

	seen := make(map[string]bool, len(variants))
	unique := variants[:0]
	for _, v := range variants {
		if !seen[v] {
			seen[v] = true
			unique = append(unique, v)
		}
	}
	return unique
}
