package app

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/fieldmatch/pkg/constants"
	"github.com/agentstation/fieldmatch/pkg/errors"
)

// EnvPrefix is prepended to every environment variable the CLI reads,
// so threshold is FIELDMATCH_THRESHOLD.
const EnvPrefix = "FIELDMATCH"

// Config holds the application configuration loaded from flags, the
// environment, .env files and the config file.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// Config file
	ConfigFile string

	// Taxonomy source
	ChoicesURL   string
	ChoicesFile  string
	ChoicesAuth  string
	ChoicesToken string
	CacheTTL     time.Duration
	FetchTimeout time.Duration
	AutoRefresh  time.Duration

	// Reconciliation
	Method          string
	Threshold       float64
	TopK            int
	Workers         int
	CaseInsensitive bool

	// Scenarios and history
	ScenariosFile string
	DB            string

	// Server
	Listen      string
	APIKey      string
	RateLimit   int
	CORSOrigins []string

	// Logging configuration
	LogLevel     string
	LogFormat    string
	LogOutput    string
	LogFile      string
	LogFileLevel string
}

// LoadConfig loads configuration from all sources in order of precedence:
//  1. Command-line flags (bound in setupCommand)
//  2. FIELDMATCH_* environment variables
//  3. .env files
//  4. Config file (~/.fieldmatch.yaml or ./.fieldmatch.yaml)
//  5. Defaults
func LoadConfig(v *viper.Viper) (*Config, error) {
	loadEnvFiles()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}
	return configFromViper(v), nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("cache_ttl", constants.DefaultCacheTTL)
	v.SetDefault("fetch_timeout", constants.DefaultHTTPTimeout)
	v.SetDefault("choices_auth", "bearer")
	v.SetDefault("method", constants.DefaultMethod)
	v.SetDefault("threshold", constants.DefaultThreshold)
	v.SetDefault("top_k", constants.DefaultTopK)
	v.SetDefault("workers", constants.DefaultWorkers)
	v.SetDefault("db", defaultDBPath())
	v.SetDefault("listen", constants.DefaultListen)
	v.SetDefault("rate_limit", 100)
	v.SetDefault("log_format", "auto")
	v.SetDefault("log_output", "stderr")
	v.SetDefault("log_file_level", "debug")
}

// readConfigFile reads an explicit --config file, or looks for
// .fieldmatch.yaml in the home and working directories. A missing
// default file is not an error.
func readConfigFile(v *viper.Viper) error {
	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return errors.NewConfigError("config", "cannot read "+path, err)
		}
		return nil
	}

	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
	}
	v.AddConfigPath(".")
	v.SetConfigType("yaml")
	v.SetConfigName(".fieldmatch")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return errors.NewConfigError("config", "cannot parse config file", err)
	}
	return nil
}

func configFromViper(v *viper.Viper) *Config {
	return &Config{
		Verbose: v.GetBool("verbose"),
		Quiet:   v.GetBool("quiet"),
		NoColor: v.GetBool("no_color"),
		Format:  v.GetString("format"),

		ConfigFile: v.ConfigFileUsed(),

		ChoicesURL:   v.GetString("choices_url"),
		ChoicesFile:  v.GetString("choices_file"),
		ChoicesAuth:  v.GetString("choices_auth"),
		ChoicesToken: v.GetString("choices_token"),
		CacheTTL:     v.GetDuration("cache_ttl"),
		FetchTimeout: v.GetDuration("fetch_timeout"),
		AutoRefresh:  v.GetDuration("auto_refresh"),

		Method:          v.GetString("method"),
		Threshold:       v.GetFloat64("threshold"),
		TopK:            v.GetInt("top_k"),
		Workers:         v.GetInt("workers"),
		CaseInsensitive: v.GetBool("case_insensitive"),

		ScenariosFile: v.GetString("scenarios_file"),
		DB:            v.GetString("db"),

		Listen:      v.GetString("listen"),
		APIKey:      v.GetString("api_key"),
		RateLimit:   v.GetInt("rate_limit"),
		CORSOrigins: v.GetStringSlice("cors_origins"),

		LogLevel:     v.GetString("log_level"),
		LogFormat:    v.GetString("log_format"),
		LogOutput:    v.GetString("log_output"),
		LogFile:      v.GetString("log_file"),
		LogFileLevel: v.GetString("log_file_level"),
	}
}

// defaultDBPath is ~/.fieldmatch/history.db, or a relative path when the
// home directory is unknown.
func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".fieldmatch", "history.db")
	}
	return filepath.Join(home, ".fieldmatch", "history.db")
}

// loadEnvFiles loads environment variables from .env files.
// .env.local is loaded first so it wins; godotenv never overrides a
// variable that is already set.
func loadEnvFiles() {
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}
}
