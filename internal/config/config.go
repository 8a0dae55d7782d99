package config

// Config holds all application configuration loaded from environment
// variables via github.com/caarlos0/env.
type Config struct {
	// Server configuration
	GRPCPort    int    `env:"GRPC_PORT" envDefault:"6565"`
	MetricsPort int    `env:"METRICS_PORT" envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"dev"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"JitaiDecisionEngine"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// Redis configuration
	RedisHost       string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort       string `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword   string `env:"REDIS_PASSWORD"`
	RedisMaxRetries int    `env:"REDIS_MAX_RETRIES" envDefault:"5"`

	// Engine tunables file (optional; defaults apply when missing)
	EngineConfigPath string `env:"ENGINE_CONFIG_PATH" envDefault:"config/engine.yaml"`

	// Telemetry configuration
	OtelEnabled bool   `env:"OTEL_ENABLED" envDefault:"true"`
	ZipkinURL   string `env:"ZIPKIN_URL"`
}
