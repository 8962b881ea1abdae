package config

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	CORS     CORSConfig
	Log      LogConfig
	Solver   SolverConfig
	Exports  ExportsConfig
	Jobs     JobsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	// ResultTTL bounds how long a materialized rotation stays cached.
	ResultTTL time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SolverConfig tunes the constraint model. The gap and adjacency thresholds
// varied across rollout iterations, so they are configuration rather than
// constants.
type SolverConfig struct {
	Policy              string
	FallbackPolicy      string
	TimeBudget          time.Duration
	Seed                int64
	SeedExplicit        bool
	MinGapMinutes       int
	ImpossibleGaps      []int
	IntensiveThreshold  int
	WorkloadDeltaLow    int
	WorkloadDeltaHigh   int
	FillWeight          int
	ContinuityWeight    int
	ConditionalWeight   int
	DeviationWeight     int
	Units               []string
}

// ExportsConfig governs rotation file rendering.
type ExportsConfig struct {
	SheetName string
}

// JobsConfig tunes the async solve queue.
type JobsConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:      v.GetString("REDIS_HOST"),
		Port:      v.GetInt("REDIS_PORT"),
		Password:  v.GetString("REDIS_PASSWORD"),
		DB:        v.GetInt("REDIS_DB"),
		ResultTTL: parseDuration(v.GetString("REDIS_RESULT_TTL"), 24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Solver = SolverConfig{
		Policy:             v.GetString("SOLVER_POLICY"),
		FallbackPolicy:     v.GetString("SOLVER_FALLBACK_POLICY"),
		TimeBudget:         parseDuration(v.GetString("SOLVER_TIME_BUDGET"), 60*time.Second),
		Seed:               v.GetInt64("SOLVER_SEED"),
		SeedExplicit:       v.IsSet("SOLVER_SEED") && v.GetString("SOLVER_SEED") != "",
		MinGapMinutes:      v.GetInt("SOLVER_MIN_GAP_MINUTES"),
		ImpossibleGaps:     splitInts(v.GetString("SOLVER_IMPOSSIBLE_GAPS")),
		IntensiveThreshold: v.GetInt("SOLVER_INTENSIVE_THRESHOLD"),
		WorkloadDeltaLow:   v.GetInt("SOLVER_WORKLOAD_DELTA_LOW"),
		WorkloadDeltaHigh:  v.GetInt("SOLVER_WORKLOAD_DELTA_HIGH"),
		FillWeight:         v.GetInt("SOLVER_FILL_WEIGHT"),
		ContinuityWeight:   v.GetInt("SOLVER_CONTINUITY_WEIGHT"),
		ConditionalWeight:  v.GetInt("SOLVER_CONDITIONAL_WEIGHT"),
		DeviationWeight:    v.GetInt("SOLVER_DEVIATION_WEIGHT"),
		Units:              splitAndTrim(v.GetString("SOLVER_UNITS")),
	}

	cfg.Exports = ExportsConfig{
		SheetName: v.GetString("EXPORTS_SHEET_NAME"),
	}

	cfg.Jobs = JobsConfig{
		Workers:    v.GetInt("JOBS_WORKERS"),
		BufferSize: v.GetInt("JOBS_BUFFER_SIZE"),
		MaxRetries: v.GetInt("JOBS_MAX_RETRIES"),
		RetryDelay: parseDuration(v.GetString("JOBS_RETRY_DELAY"), time.Second),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "rota")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_RESULT_TTL", "24h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SOLVER_POLICY", "hard-workload")
	v.SetDefault("SOLVER_FALLBACK_POLICY", "double-weighted-workload")
	v.SetDefault("SOLVER_TIME_BUDGET", "60s")
	v.SetDefault("SOLVER_MIN_GAP_MINUTES", 60)
	v.SetDefault("SOLVER_IMPOSSIBLE_GAPS", "10,20,30,40,50")
	v.SetDefault("SOLVER_INTENSIVE_THRESHOLD", 10)
	v.SetDefault("SOLVER_WORKLOAD_DELTA_LOW", 4)
	v.SetDefault("SOLVER_WORKLOAD_DELTA_HIGH", 0)
	v.SetDefault("SOLVER_FILL_WEIGHT", 100)
	v.SetDefault("SOLVER_CONTINUITY_WEIGHT", 5)
	v.SetDefault("SOLVER_CONDITIONAL_WEIGHT", 3)
	v.SetDefault("SOLVER_DEVIATION_WEIGHT", 1)
	v.SetDefault("SOLVER_UNITS", "Satélite,Jardim,Vicentina")

	v.SetDefault("EXPORTS_SHEET_NAME", "Rotas")

	v.SetDefault("JOBS_WORKERS", 1)
	v.SetDefault("JOBS_BUFFER_SIZE", 8)
	v.SetDefault("JOBS_MAX_RETRIES", 1)
	v.SetDefault("JOBS_RETRY_DELAY", "1s")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

func splitInts(raw string) []int {
	var result []int
	for _, part := range splitAndTrim(raw) {
		n, err := strconv.Atoi(part)
		if err != nil || n <= 0 {
			continue
		}
		result = append(result, n)
	}
	return result
}
