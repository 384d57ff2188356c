package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config represents runtime configuration for the service. Every value is
// sourced from the environment; required values abort startup when missing.
type Config struct {
	ServerAddress string `env:"SERVER_ADDRESS" envDefault:":8090"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`

	// SecretKey signs session tokens.
	SecretKey  string `env:"SECRET_KEY,required"`
	DBDriver   string `env:"DB_DRIVER" envDefault:"sqlite3"`
	DBURL      string `env:"DB_URL,required"`
	TestsDBURL string `env:"TESTS_DB_URL,required"`

	TokenTTLHours          int `env:"TOKEN_TTL_HOURS" envDefault:"24"`
	ProviderTimeoutSeconds int `env:"PROVIDER_TIMEOUT_SECONDS" envDefault:"30"`

	Auth0  Auth0Config  `envPrefix:"AUTH0_"`
	OpenAI OpenAIConfig `envPrefix:"OPENAI_"`
	IBM    IBMConfig    `envPrefix:"IBM_"`
	Vision VisionConfig
}

// Auth0Config holds the pre-registered OAuth client credentials.
type Auth0Config struct {
	ClientID     string `env:"CLIENT_ID,required"`
	ClientSecret string `env:"CLIENT_SECRET,required"`
	Domain       string `env:"DOMAIN,required"`
	RedirectURI  string `env:"REDIRECT_URI,required"`
}

type OpenAIConfig struct {
	APIKey  string `env:"API_KEY,required"`
	BaseURL string `env:"BASE_URL"`
	Model   string `env:"MODEL" envDefault:"gpt-3.5-turbo"`
}

type IBMConfig struct {
	SessionID   string `env:"SESSION_ID,required"`
	AssistantID string `env:"ASSISTANT_ID,required"`
	BaseURL     string `env:"WATSON_URL" envDefault:"https://api.us-south.assistant.watson.cloud.ibm.com"`
}

type VisionConfig struct {
	ModelPath  string `env:"VISION_MODEL_PATH" envDefault:"models/inception_v3.onnx"`
	LabelsPath string `env:"VISION_LABELS_PATH" envDefault:"models/imagenet_labels.txt"`
	// LibraryPath points at the onnxruntime shared library. Empty means the
	// platform default search path.
	LibraryPath string `env:"ONNXRUNTIME_LIB_PATH"`
}

// Load reads configuration from the environment. A .env file in the working
// directory is merged in first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return &cfg, nil
}

// TokenTTL reports the configured session token lifetime.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLHours) * time.Hour
}

// ProviderTimeout reports the per-call deadline for outbound provider calls.
func (c *Config) ProviderTimeout() time.Duration {
	return time.Duration(c.ProviderTimeoutSeconds) * time.Second
}
