// Package config defines the configuration structure for the Blue Waters
// backend. Configuration is loaded once at process start and is immutable
// thereafter; components receive only the sub-structs they need.
//
// Values are resolved via a priority chain:
//
//	OS Environment (Highest) -> Dotenv File -> AWS SSM Parameter Store (Lowest)
//
// Any missing required value or invalid format aborts startup.
package config

import (
	"time"

	"bluewaters/internal/types"
)

// SecretString is an alias for types.SecretString so callers of this package
// do not need to import types for credential fields.
type SecretString = types.SecretString

// Config is the top-level configuration struct.
type Config struct {
	// System Metadata
	Environment string `envconfig:"APP_ENV" validate:"required,oneof=local dev staging prod"`
	Service     string `envconfig:"OTEL_SERVICE_NAME" default:"bluewaters-api"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	Server        ServerConfig
	Advisory      AdvisoryConfig
	Alerts        AlertsConfig
	Security      SecurityConfig
	Observability ObservabilityConfig

	// Build Metadata (Injected via ldflags, not Env)
	Build BuildInfo
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	// RequestTimeout bounds a whole request, including an alerts aggregation
	// pass that may issue many sequential advisory calls.
	RequestTimeout  time.Duration `envconfig:"REQUEST_TIMEOUT" default:"5m"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// AdvisoryConfig holds the watsonx.ai credentials and generation parameters.
type AdvisoryConfig struct {
	APIKey     SecretString `envconfig:"WATSONX_API_KEY" validate:"required_unless=Stub true"`
	ProjectID  string       `envconfig:"WATSONX_PROJECT_ID" validate:"required_unless=Stub true"`
	BaseURL    string       `envconfig:"WATSONX_BASE_URL" validate:"required_unless=Stub true,omitempty,url"`
	IAMURL     string       `envconfig:"WATSONX_IAM_URL" default:"https://iam.cloud.ibm.com/identity/token" validate:"url"`
	ModelID    string       `envconfig:"WATSONX_MODEL_ID" default:"ibm/granite-3-8b-instruct"`
	APIVersion string       `envconfig:"WATSONX_API_VERSION" default:"2023-10-25"`

	MaxTokens   int     `envconfig:"WATSONX_MAX_TOKENS" default:"300" validate:"min=1,max=4096"`
	Temperature float64 `envconfig:"WATSONX_TEMPERATURE" default:"0.2" validate:"gte=0,lte=2"`
	// TimeLimit is forwarded to the model as its generation budget.
	TimeLimit time.Duration `envconfig:"WATSONX_TIME_LIMIT" default:"30s"`

	TokenConnectTimeout time.Duration `envconfig:"WATSONX_TOKEN_CONNECT_TIMEOUT" default:"20s"`
	TokenReadTimeout    time.Duration `envconfig:"WATSONX_TOKEN_READ_TIMEOUT" default:"60s"`
	CompletionTimeout   time.Duration `envconfig:"WATSONX_COMPLETION_TIMEOUT" default:"120s"`

	// Stub replaces the watsonx client with a canned advisor for offline work.
	Stub bool `envconfig:"ADVISORY_STUB" default:"false"`
}

// AlertsConfig controls the alert aggregation pass.
type AlertsConfig struct {
	FailurePolicy types.FailurePolicy `envconfig:"ALERT_FAILURE_POLICY" default:"abort" validate:"oneof=abort skip"`
	Concurrency   int                 `envconfig:"ALERT_CONCURRENCY" default:"1" validate:"min=1,max=16"`
}

// SecurityConfig holds CORS settings.
type SecurityConfig struct {
	CorsAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:8080"`
}

// ObservabilityConfig holds telemetry settings.
type ObservabilityConfig struct {
	MetricsBackend    string `envconfig:"METRICS_BACKEND" default:"prometheus" validate:"oneof=prometheus cloudwatch none"`
	MetricNamespace   string `envconfig:"METRIC_NAMESPACE" default:"BlueWaters"`
	AWSRegion         string `envconfig:"AWS_REGION" default:"us-east-1"`
	EnableCompression bool   `envconfig:"ENABLE_COMPRESSION" default:"true"`
}

// BuildInfo holds build-time metadata injected via ldflags.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// ConfigErrorType categorizes configuration loading failures to aid debugging.
type ConfigErrorType string

const (
	// ErrMissingEnv indicates a required environment variable was not found.
	ErrMissingEnv ConfigErrorType = "MISSING_ENV"
	// ErrSSMResolution indicates a failure when fetching secrets from AWS SSM.
	ErrSSMResolution ConfigErrorType = "SSM_FAILURE"
	// ErrValidation indicates the configuration failed struct validation rules.
	ErrValidation ConfigErrorType = "VALIDATION_FAILED"
	// ErrParsing indicates a failure when parsing environment variable values
	// into their target types.
	ErrParsing ConfigErrorType = "PARSING_FAILED"
)
