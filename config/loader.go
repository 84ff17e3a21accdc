package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment variable overrides, e.g.
// VOICEKIT_BACKEND_BASE_URL sets backend.base_url.
const EnvPrefix = "VOICEKIT"

// LoaderConfig holds optional file overrides for Load.
type LoaderConfig struct {
	ConfigFile string
	EnvFile    string
}

// LoaderOption customizes Load.
type LoaderOption func(*LoaderConfig)

// WithConfigFile sets an explicit config file path instead of the
// standard search locations.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// Load builds the application configuration. Precedence, lowest to
// highest: built-in defaults, the YAML config file, the .env file,
// process environment variables. The result is defaulted and
// validated.
func Load(opts ...LoaderOption) (*Config, error) {
	var lc LoaderConfig
	for _, opt := range opts {
		opt(&lc)
	}
	if lc.ConfigFile == "" {
		lc.ConfigFile = findConfigFile()
	}
	if lc.EnvFile == "" {
		lc.EnvFile = findEnvFile()
	}

	// .env goes first so viper's env lookup sees its variables.
	if lc.EnvFile != "" {
		if err := godotenv.Load(lc.EnvFile); err != nil {
			return nil, fmt.Errorf("load env file %s: %w", lc.EnvFile, err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindKnownKeys(v)

	if lc.ConfigFile != "" {
		v.SetConfigFile(lc.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", lc.ConfigFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// bindKnownKeys registers every config key with viper so AutomaticEnv
// can resolve it during Unmarshal. Viper only consults the environment
// for keys it already knows about.
func bindKnownKeys(v *viper.Viper) {
	for _, key := range []string{
		"app.name",
		"app.environment",
		"app.debug",
		"logging.level",
		"logging.format",
		"logging.output",
		"logging.no_color",
		"logging.timestamp",
		"logging.caller",
		"backend.base_url",
		"backend.model_size",
		"backend.language",
		"backend.connect_timeout",
		"backend.send_timeout",
		"backend.receive_timeout",
		"capture.scratch_dir",
		"history.limit",
		"telemetry.enabled",
		"telemetry.endpoint",
		"telemetry.insecure",
		"telemetry.sample_rate",
	} {
		// BindEnv with one argument derives the variable name from
		// the prefix and replacer.
		_ = v.BindEnv(key)
	}
}

// findConfigFile searches the standard locations for a config file.
// Returns "" when none exists; defaults apply in that case.
func findConfigFile() string {
	candidates := []string{
		"./voicekit.yml",
		"./config.yml",
	}
	if dir, err := os.UserConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, "voicekit", "config.yml"))
	}
	for _, path := range candidates {
		if fileExists(path) {
			return path
		}
	}
	return ""
}

// findEnvFile looks for a .env next to the working directory.
func findEnvFile() string {
	for _, path := range []string{".env.voicekit", ".env"} {
		if fileExists(path) {
			return path
		}
	}
	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
