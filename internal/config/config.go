// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, database paths, rate limiting, and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "go-chat-backend")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// ProviderConfig holds API credentials for supported LLM providers. A
// provider is available to the Generation Pipeline only if its credential
// is non-empty; selecting an unavailable provider/model is an error
// surfaced at generation time, not at startup (a deployment may only ever
// use one provider).
type ProviderConfig struct {
	OpenAIAPIKey    string // OPENAI_API_KEY
	AnthropicAPIKey string // ANTHROPIC_API_KEY
	GoogleAPIKey    string // GOOGLE_API_KEY

	// DefaultProvider/DefaultModel are the baseline selection the
	// Generation Pipeline falls back to when a stream request names
	// neither.
	DefaultProvider string // LLM_DEFAULT_PROVIDER
	DefaultModel    string // LLM_DEFAULT_MODEL
}

// WorkspaceConfig bounds the resources the Process Supervisor and Port
// Allocator may hand out to spawned workspace child processes.
type WorkspaceConfig struct {
	StoragePath    string        // STORAGE_PATH: root directory for per-workspace file trees
	PortPoolBase   int           // child-process base port
	PortPoolSize   int           // number of ports available for preview servers
	InstallTimeout time.Duration // dependency install timeout (default 120s)
	MaxConcurrent  int           // maximum concurrent workspace processes
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	LogFilePath    string // LOG_FILE: rotated operational log destination, empty disables rotation
	LogMaxSizeMB   int    // LOG_MAX_SIZE_MB: lumberjack MaxSize
	LogMaxBackups  int    // LOG_MAX_BACKUPS: lumberjack MaxBackups
	LogMaxAgeDays  int    // LOG_MAX_AGE_DAYS: lumberjack MaxAge
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// App
	DBPath    string  // SQLite path (DATABASE_URL, falling back to DB_PATH)
	DataPath  string  // default path to data.md
	DataMD    string  // optional override for DataPath
	Threshold float64 // retrieval confidence threshold [0,1]

	// Auth
	JWTSecret string // JWT_SECRET: HMAC signing key for bearer tokens

	// Providers
	Providers ProviderConfig

	// Workspaces
	Workspace WorkspaceConfig

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration // how long a given Idempotency-Key is valid

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		LogFilePath:    getenv("LOG_FILE", ""),
		LogMaxSizeMB:   getint("LOG_MAX_SIZE_MB", 100),
		LogMaxBackups:  getint("LOG_MAX_BACKUPS", 5),
		LogMaxAgeDays:  getint("LOG_MAX_AGE_DAYS", 28),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		// App
		DBPath:    getenv("DATABASE_URL", getenv("DB_PATH", "app.db")),
		DataPath:  getenv("DATA_PATH", "data/data.md"),
		DataMD:    getenv("DATA_MD", ""),
		Threshold: getfloat("THRESHOLD", 0.32),

		// Auth
		JWTSecret: getenv("JWT_SECRET", ""),

		// Providers
		Providers: ProviderConfig{
			OpenAIAPIKey:    getenv("OPENAI_API_KEY", ""),
			AnthropicAPIKey: getenv("ANTHROPIC_API_KEY", ""),
			GoogleAPIKey:    getenv("GOOGLE_API_KEY", ""),
			DefaultProvider: getenv("LLM_DEFAULT_PROVIDER", "openai"),
			DefaultModel:    getenv("LLM_DEFAULT_MODEL", "gpt-4o-mini"),
		},

		// Workspaces
		Workspace: WorkspaceConfig{
			StoragePath:    getenv("STORAGE_PATH", "workspaces"),
			PortPoolBase:   getint("WORKSPACE_PORT_BASE", 20000),
			PortPoolSize:   getint("WORKSPACE_PORT_POOL_SIZE", 200),
			InstallTimeout: getdur("WORKSPACE_INSTALL_TIMEOUT", 120*time.Second),
			MaxConcurrent:  getint("WORKSPACE_MAX_CONCURRENT", 10),
		},

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", getenv("CORS_ORIGIN", ""))),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Idempotency
		IdempotencyTTL: getdur("IDEMPOTENCY_TTL", 24*time.Hour),

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-chat-backend"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if strings.TrimSpace(cfg.DataPath) == "" {
		return cfg, errors.New("DATA_PATH must not be empty")
	}
	if cfg.Threshold < 0 || cfg.Threshold > 1 {
		return cfg, errors.New("THRESHOLD must be between 0 and 1")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.IdempotencyTTL <= 0 {
		return cfg, errors.New("IDEMPOTENCY_TTL must be > 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}
	if strings.TrimSpace(cfg.Workspace.StoragePath) == "" {
		return cfg, errors.New("STORAGE_PATH must not be empty")
	}
	if cfg.Workspace.PortPoolSize < 1 {
		return cfg, errors.New("WORKSPACE_PORT_POOL_SIZE must be >= 1")
	}
	if cfg.Workspace.PortPoolBase < 1 || cfg.Workspace.PortPoolBase+cfg.Workspace.PortPoolSize > 65535 {
		return cfg, errors.New("WORKSPACE_PORT_BASE/WORKSPACE_PORT_POOL_SIZE must describe a valid port range")
	}
	if cfg.Workspace.InstallTimeout <= 0 {
		return cfg, errors.New("WORKSPACE_INSTALL_TIMEOUT must be > 0")
	}
	if cfg.Workspace.MaxConcurrent < 1 {
		return cfg, errors.New("WORKSPACE_MAX_CONCURRENT must be >= 1")
	}
	if cfg.LogFilePath != "" && (cfg.LogMaxSizeMB < 1 || cfg.LogMaxBackups < 0 || cfg.LogMaxAgeDays < 0) {
		return cfg, errors.New("LOG_MAX_SIZE_MB must be >= 1 and LOG_MAX_BACKUPS/LOG_MAX_AGE_DAYS must be >= 0")
	}
	if strings.TrimSpace(cfg.Providers.DefaultProvider) == "" {
		return cfg, errors.New("LLM_DEFAULT_PROVIDER must not be empty")
	}
	// if cfg.APIBasePath == "" || cfg.APIBasePath[0] != '/' {
	// 	return cfg, errors.New("API_BASE_PATH must start with '/'")
	// }

	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
