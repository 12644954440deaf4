package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/yungbote/backofhouse-backend/internal/clients/gcp"
	"github.com/yungbote/backofhouse-backend/internal/data/db"
	"github.com/yungbote/backofhouse-backend/internal/modules/advisor/steps"
	"github.com/yungbote/backofhouse-backend/internal/observability"
	"github.com/yungbote/backofhouse-backend/internal/pkg/envutil"
	"github.com/yungbote/backofhouse-backend/internal/pkg/logger"
)

const (
	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

type Config struct {
	Port    string
	LogMode string

	DBDriver   string
	Postgres   db.PostgresConfig
	SQLitePath string

	JWTSecret      string
	AllowedOrigins []string

	AnthropicAPIKey  string
	AnthropicBaseURL string
	ProviderRPS      float64
	Models           steps.ModelConfig
	DebugAPISummary  bool
	AssemblyTimeout  time.Duration

	POSBaseURL   string
	POSAPIKey    string
	POSAssembler steps.POSAssemblerConfig

	NotionAPIKey string

	ObjectStorage gcp.ObjectStorageConfig

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	WorkerConcurrency int
	WorkerQueueSize   int

	Otel observability.OtelConfig
}

// LoadDotEnv loads a .env file when present; a missing file is not an error.
func LoadDotEnv(log *logger.Logger, paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			log.Debug("No env file loaded", "path", p, "error", err)
		}
	}
}

func LoadConfig(log *logger.Logger) Config {
	return Config{
		Port:    envutil.String("PORT", "8080", log),
		LogMode: envutil.String("LOG_MODE", "development", log),

		DBDriver: strings.ToLower(envutil.String("DB_DRIVER", DBDriverPostgres, log)),
		Postgres: db.PostgresConfig{
			Host:     envutil.String("POSTGRES_HOST", "localhost", log),
			Port:     envutil.String("POSTGRES_PORT", "5432", log),
			User:     envutil.String("POSTGRES_USER", "postgres", log),
			Password: envutil.String("POSTGRES_PASSWORD", "", log),
			Name:     envutil.String("POSTGRES_NAME", "backofhouse", log),
			SSLMode:  envutil.String("POSTGRES_SSLMODE", "disable", log),
		},
		SQLitePath: envutil.String("SQLITE_PATH", "backofhouse.db", log),

		JWTSecret:      envutil.String("JWT_SECRET", "", log),
		AllowedOrigins: envutil.List("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}, log),

		AnthropicAPIKey:  envutil.String("ANTHROPIC_API_KEY", "", log),
		AnthropicBaseURL: envutil.String("ANTHROPIC_BASE_URL", "https://api.anthropic.com", log),
		ProviderRPS:      envutil.Float("ADVISOR_PROVIDER_RPS", 5, log),
		Models: steps.ModelConfig{
			Advanced: envutil.String("ADVISOR_MODEL_ADVANCED", steps.DefaultAdvancedModel, log),
			Standard: envutil.String("ADVISOR_MODEL_STANDARD", steps.DefaultStandardModel, log),
		},
		DebugAPISummary: envutil.Bool("ADVISOR_DEBUG_API_SUMMARY", false, log),
		AssemblyTimeout: envutil.Duration("ADVISOR_ASSEMBLY_TIMEOUT", 90*time.Second, log),

		POSBaseURL: envutil.String("POS_API_BASE_URL", "", log),
		POSAPIKey:  envutil.String("POS_API_KEY", "", log),
		POSAssembler: steps.POSAssemblerConfig{
			PollAttempts: envutil.Int("POS_POLL_ATTEMPTS", steps.DefaultPOSPollAttempts, log),
			PollInterval: envutil.Duration("POS_POLL_INTERVAL", steps.DefaultPOSPollInterval, log),
		},

		NotionAPIKey: envutil.String("NOTION_API_KEY", "", log),

		ObjectStorage: gcp.ObjectStorageConfig{
			Mode:         gcp.ObjectStorageMode(strings.ToLower(envutil.String("OBJECT_STORAGE_MODE", string(gcp.ObjectStorageModeGCS), log))),
			EmulatorHost: envutil.String("STORAGE_EMULATOR_HOST", "", log),
			Bucket:       envutil.String("RESTAURANT_FILES_BUCKET", "", log),
		},

		RedisAddr:     envutil.String("REDIS_ADDR", "", log),
		RedisPassword: envutil.String("REDIS_PASSWORD", "", log),
		RedisDB:       envutil.Int("REDIS_DB", 0, log),

		WorkerConcurrency: envutil.Int("WORKER_CONCURRENCY", 2, log),
		WorkerQueueSize:   envutil.Int("WORKER_QUEUE_SIZE", 256, log),

		Otel: observability.OtelConfig{
			Enabled:     envutil.Bool("OTEL_ENABLED", false, log),
			ServiceName: envutil.String("OTEL_SERVICE_NAME", "backofhouse-backend", log),
			Environment: envutil.String("OTEL_ENVIRONMENT", "", log),
			Version:     envutil.String("OTEL_SERVICE_VERSION", "", log),
			Endpoint:    envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", "", log),
			Headers:     envutil.String("OTEL_EXPORTER_OTLP_HEADERS", "", log),
			Insecure:    envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", false, log),
			SampleRatio: envutil.Float("OTEL_SAMPLER_RATIO", 0.1, log),
		},
	}
}

// Validate reports settings the service cannot start without.
func (c Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.JWTSecret) == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if strings.TrimSpace(c.AnthropicAPIKey) == "" {
		missing = append(missing, "ANTHROPIC_API_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required settings: %s", strings.Join(missing, ", "))
	}
	switch c.DBDriver {
	case DBDriverPostgres, DBDriverSQLite:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	return nil
}

// StorageEnabled reports whether uploaded files can be read.
func (c Config) StorageEnabled() bool {
	return strings.TrimSpace(c.ObjectStorage.Bucket) != ""
}
