package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// History backends.
const (
	HistoryMemory   = "memory"
	HistoryRedis    = "redis"
	HistoryDynamoDB = "dynamodb"
)

// Config holds the service configuration read from the environment.
type Config struct {
	Port          string `envconfig:"PORT" default:"5001"`
	Env           string `envconfig:"ENV" default:"production"`
	LogLevel      string `envconfig:"LOG_LEVEL" default:"info"`
	LogEncoding   string `envconfig:"LOG_ENCODING" default:"json"`
	LogBufferSize int    `envconfig:"LOG_BUFFER_SIZE" default:"5000"`
	// LogStoreLevel is the minimum level captured for the log API.
	LogStoreLevel string `envconfig:"LOG_STORE_LEVEL" default:"debug"`

	Locale     string `envconfig:"LOCALE" default:"ko"`
	LocaleFile string `envconfig:"LOCALE_FILE"`

	OpenAIModel   string        `envconfig:"OPENAI_MODEL" default:"gpt-4.1-nano"`
	OpenAIBaseURL string        `envconfig:"OPENAI_BASE_URL"`
	OpenAITimeout time.Duration `envconfig:"OPENAI_TIMEOUT" default:"60s"`
	OpenAIAPIKey  string        `envconfig:"OPENAI_API_KEY"`

	// ParamPrefix switches secret loading to SSM Parameter Store.
	ParamPrefix string `envconfig:"PARAM_PREFIX"`

	SlackSigningSecret string `envconfig:"SLACK_SIGNING_SECRET"`
	SlackBotToken      string `envconfig:"SLACK_BOT_TOKEN"`
	SlackCommand       string `envconfig:"SLACK_COMMAND" default:"/scenario"`

	MaxAttempts    int `envconfig:"MAX_ATTEMPTS" default:"2"`
	MaxInputLength int `envconfig:"MAX_INPUT_LENGTH" default:"1000"`
	MinFieldLength int `envconfig:"MIN_FIELD_LENGTH" default:"3"`

	HistorySize    int    `envconfig:"HISTORY_SIZE" default:"10"`
	HistoryBackend string `envconfig:"HISTORY_BACKEND" default:"memory"`
	RedisAddr      string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword  string `envconfig:"REDIS_PASSWORD"`
	RedisDB        int    `envconfig:"REDIS_DB" default:"0"`
	StateTable     string `envconfig:"STATE_TABLE"`

	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: process env: %w", err)
	}
	cfg.HistoryBackend = strings.ToLower(strings.TrimSpace(cfg.HistoryBackend))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that envconfig cannot express.
func (c *Config) Validate() error {
	var errs []error
	if c.MaxAttempts < 1 {
		errs = append(errs, errors.New("MAX_ATTEMPTS must be at least 1"))
	}
	if c.MaxInputLength < 1 {
		errs = append(errs, errors.New("MAX_INPUT_LENGTH must be positive"))
	}
	if c.MinFieldLength < 1 {
		errs = append(errs, errors.New("MIN_FIELD_LENGTH must be positive"))
	}
	if c.HistorySize < 1 {
		errs = append(errs, errors.New("HISTORY_SIZE must be positive"))
	}
	if c.OpenAITimeout <= 0 {
		errs = append(errs, errors.New("OPENAI_TIMEOUT must be positive"))
	}
	switch c.HistoryBackend {
	case HistoryMemory, HistoryRedis:
	case HistoryDynamoDB:
		if strings.TrimSpace(c.StateTable) == "" {
			errs = append(errs, errors.New("STATE_TABLE is required for the dynamodb history backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("HISTORY_BACKEND %q is not one of memory, redis, dynamodb", c.HistoryBackend))
	}
	if c.UseParamStore() {
		return wrapValidation(errs)
	}
	if strings.TrimSpace(c.OpenAIAPIKey) == "" {
		errs = append(errs, errors.New("OPENAI_API_KEY is required when PARAM_PREFIX is not set"))
	}
	if strings.TrimSpace(c.SlackSigningSecret) == "" {
		errs = append(errs, errors.New("SLACK_SIGNING_SECRET is required when PARAM_PREFIX is not set"))
	}
	return wrapValidation(errs)
}

func wrapValidation(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("config: invalid configuration: %w", errors.Join(errs...))
}

// UseParamStore reports whether secrets come from SSM Parameter Store.
func (c *Config) UseParamStore() bool {
	return strings.TrimSpace(c.ParamPrefix) != ""
}

func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, "development")
}
