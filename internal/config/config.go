package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "ndxcli/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	OpenAI     OpenAIConfig     `yaml:"openai" envconfig:"OPENAI"`
	Input      InputConfig      `yaml:"input" envconfig:"INPUT"`
	Enrichment EnrichmentConfig `yaml:"enrichment" envconfig:"ENRICHMENT"`
	Logging    LoggingConfig    `yaml:"logging" envconfig:"LOGGING"`
	Telemetry  TelemetryConfig  `yaml:"telemetry" envconfig:"TELEMETRY"`
	Output     OutputConfig     `yaml:"output" envconfig:"OUTPUT"`
}

// OpenAIConfig contains the remote completion service settings.
// APIKey is read from OPENAI_API_KEY (or NDX_OPENAI_API_KEY) by Load.
type OpenAIConfig struct {
	APIKey  string        `yaml:"api_key" ignored:"true" validate:"required"`
	BaseURL string        `yaml:"base_url" envconfig:"BASE_URL" validate:"required,url"`
	Model   string        `yaml:"model" envconfig:"MODEL" validate:"required"`
	Timeout time.Duration `yaml:"timeout" envconfig:"TIMEOUT" validate:"gt=0"`
}

// InputConfig names the two tabular sources and their columns
type InputConfig struct {
	ConstituentsFile string `yaml:"constituents_file" envconfig:"CONSTITUENTS_FILE" validate:"required"`
	PriceChangeFile  string `yaml:"price_change_file" envconfig:"PRICE_CHANGE_FILE" validate:"required"`
	JoinKey          string `yaml:"join_key" envconfig:"JOIN_KEY" validate:"required"`
	ChangeColumn     string `yaml:"change_column" envconfig:"CHANGE_COLUMN" validate:"required"`
	NameColumn       string `yaml:"name_column" envconfig:"NAME_COLUMN"`
	IndexName        string `yaml:"index_name" envconfig:"INDEX_NAME" validate:"required"`
}

// EnrichmentConfig controls the per-row classification stage
type EnrichmentConfig struct {
	Concurrency    int  `yaml:"concurrency" envconfig:"CONCURRENCY" validate:"min=1,max=64"`
	ValidateLabels bool `yaml:"validate_labels" envconfig:"VALIDATE_LABELS"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"omitempty,oneof=debug info warn warning error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"omitempty,oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"omitempty,oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// TelemetryConfig contains tracing and metrics configuration
type TelemetryConfig struct {
	Tracing     bool   `yaml:"tracing" envconfig:"TRACING"`
	TraceFile   string `yaml:"trace_file" envconfig:"TRACE_FILE"`
	MetricsFile string `yaml:"metrics_file" envconfig:"METRICS_FILE"`
}

// OutputConfig controls console rendering
type OutputConfig struct {
	Markdown bool `yaml:"markdown" envconfig:"MARKDOWN"`
	Width    int  `yaml:"width" envconfig:"WIDTH" validate:"min=0"`
}

// Load builds the configuration from defaults, an optional YAML file and
// environment variables, in increasing order of precedence. A missing
// credential is reported as a ConfigError.
func Load() (*Config, error) {
	return LoadFile(getConfigFilePath())
}

// LoadFile is Load with an explicit config file path. An empty path means
// environment and defaults only.
func LoadFile(configFile string) (*Config, error) {
	cfg := Default()

	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, apperrors.NewConfigError(fmt.Sprintf("failed to load config file %s", configFile), err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	if key := lookupAPIKey(); key != "" {
		cfg.OpenAI.APIKey = key
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromFile overlays YAML values onto cfg; keys absent from the file
// keep their current value.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// lookupAPIKey prefers the namespaced variable over the provider default
func lookupAPIKey() string {
	for _, name := range []string{EnvPrefix + "_OPENAI_API_KEY", APIKeyEnv} {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v
		}
	}
	return ""
}

var validate = validator.New()

// Validate checks the configuration. The credential is checked first so a
// missing key is always reported as such.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.OpenAI.APIKey) == "" {
		return apperrors.NewConfigError(fmt.Sprintf("missing credential: set %s", APIKeyEnv), nil)
	}

	if err := validate.Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
			}
			return apperrors.NewConfigError("invalid configuration: "+strings.Join(fields, ", "), err).
				WithContext("fields", fields)
		}
		return apperrors.NewConfigError("invalid configuration", err)
	}

	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "console"
	}
	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		c.Logging.FilePath = DefaultLogFile
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if path := os.Getenv(EnvPrefix + "_CONFIG"); path != "" {
		return path
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		OpenAI: OpenAIConfig{
			BaseURL: DefaultBaseURL,
			Model:   DefaultModel,
			Timeout: DefaultHTTPTimeout,
		},
		Input: InputConfig{
			ConstituentsFile: DefaultConstituentsFile,
			PriceChangeFile:  DefaultPriceChangeFile,
			JoinKey:          DefaultJoinKey,
			ChangeColumn:     DefaultChangeColumn,
			NameColumn:       DefaultNameColumn,
			IndexName:        DefaultIndexName,
		},
		Enrichment: EnrichmentConfig{
			Concurrency: 1,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: DefaultLogFile,
		},
		Output: OutputConfig{
			Width: 100,
		},
	}
}
