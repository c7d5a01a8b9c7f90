package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/fraud-desk/alert_service/pkg/version"
)

// referenceDateLayout is the layout of query.reference_date
const referenceDateLayout = "2006-01-02"

// Config represents the application configuration
type Config struct {
	Environment string           `mapstructure:"environment"`
	LogLevel    string           `mapstructure:"log_level"`
	Server      ServerConfig     `mapstructure:"server"`
	Database    DatabaseConfig   `mapstructure:"database"`
	Redis       RedisConfig      `mapstructure:"redis"`
	JWT         JWTConfig        `mapstructure:"jwt"`
	Audit       AuditConfig      `mapstructure:"audit"`
	Email       EmailConfig      `mapstructure:"email"`
	Tracing     TracingConfig    `mapstructure:"tracing"`
	Query       QueryConfig      `mapstructure:"query"`
	Enrichment  EnrichmentConfig `mapstructure:"enrichment"`
	Scheduler   SchedulerConfig  `mapstructure:"scheduler"`
}

type ServerConfig struct {
	Port            int      `mapstructure:"port"`
	Host            string   `mapstructure:"host"`
	ReadTimeout     int      `mapstructure:"read_timeout"`
	WriteTimeout    int      `mapstructure:"write_timeout"`
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	RateLimitPerMin int      `mapstructure:"rate_limit_per_min"`
	// DispositionsPerMin caps dispositions per analyst; shared through Redis when available
	DispositionsPerMin int `mapstructure:"dispositions_per_min"`
}

type DatabaseConfig struct {
	URL             string `mapstructure:"url"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"ssl_mode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
	MigrationsPath  string `mapstructure:"migrations_path"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	// SnapshotTTL is the lifetime of the cached alert snapshot in seconds
	SnapshotTTL int `mapstructure:"snapshot_ttl"`
}

// JWTConfig verifies analyst tokens issued by the bank's identity provider
type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

type AuditConfig struct {
	// SigningKey signs audit entries; defaults to the JWT secret
	SigningKey string `mapstructure:"signing_key"`
}

type EmailConfig struct {
	Provider      string `mapstructure:"provider"` // "sendgrid" or empty to disable
	APIKey        string `mapstructure:"api_key"`
	FromEmail     string `mapstructure:"from_email"`
	FromName      string `mapstructure:"from_name"`
	FraudOpsEmail string `mapstructure:"fraud_ops_email"`
	Environment   string `mapstructure:"environment"`
}

type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Endpoint    string  `mapstructure:"endpoint"`
	ServiceName string  `mapstructure:"service_name"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
	Insecure    bool    `mapstructure:"insecure"`
}

type QueryConfig struct {
	PageSize        int `mapstructure:"page_size"`
	HistoryPageSize int `mapstructure:"history_page_size"`
	MaxRecords      int `mapstructure:"max_records"`
	// ReferenceDate pins "today" for period windows (YYYY-MM-DD); empty uses the wall clock
	ReferenceDate string `mapstructure:"reference_date"`
}

type EnrichmentConfig struct {
	TablesPath string `mapstructure:"tables_path"`
}

type SchedulerConfig struct {
	Enabled             bool   `mapstructure:"enabled"`
	SnapshotRefreshSpec string `mapstructure:"snapshot_refresh_spec"`
}

// ReferenceNow returns the pinned reference date, or now when none is configured
func (q QueryConfig) ReferenceNow() time.Time {
	if q.ReferenceDate == "" {
		return time.Now().UTC()
	}
	t, err := time.Parse(referenceDateLayout, q.ReferenceDate)
	if err != nil {
		return time.Now().UTC()
	}
	return t
}

// Load reads .env, configs/config.yaml and the environment
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile loads configuration from an explicit YAML file, or from the default
// search path when path is empty
func LoadFile(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	overrideFromEnv(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if config.Database.URL == "" {
		config.Database.URL = fmt.Sprintf(
			"postgres://%s:%s@%s:%d/%s?sslmode=%s",
			config.Database.User,
			config.Database.Password,
			config.Database.Host,
			config.Database.Port,
			config.Database.Name,
			config.Database.SSLMode,
		)
	}

	if config.Audit.SigningKey == "" {
		config.Audit.SigningKey = config.JWT.Secret
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", 30)
	v.SetDefault("server.write_timeout", 30)
	v.SetDefault("server.rate_limit_per_min", 300)
	v.SetDefault("server.dispositions_per_min", 30)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "fraud_alerts")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.conn_max_lifetime", 300)
	v.SetDefault("database.migrations_path", "file://migrations")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.snapshot_ttl", 300)

	v.SetDefault("jwt.issuer", "fraud-desk")

	v.SetDefault("email.provider", "")
	v.SetDefault("email.from_email", "alerts@fraud-desk.local")
	v.SetDefault("email.from_name", "Fraud Alert Desk")
	v.SetDefault("email.environment", "development")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.endpoint", "localhost:4317")
	v.SetDefault("tracing.service_name", version.Service)
	v.SetDefault("tracing.sample_ratio", 1.0)
	v.SetDefault("tracing.insecure", true)

	v.SetDefault("query.page_size", 10)
	v.SetDefault("query.history_page_size", 7)
	v.SetDefault("query.max_records", 40000)
	v.SetDefault("query.reference_date", "")

	v.SetDefault("enrichment.tables_path", "configs/reference_tables.yaml")

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.snapshot_refresh_spec", "@every 5m")
}

func overrideFromEnv(v *viper.Viper) {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			v.Set("server.port", p)
		}
	}
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		var list []string
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				list = append(list, o)
			}
		}
		v.Set("server.allowed_origins", list)
	}

	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		v.Set("database.url", dbURL)
	}

	if host := os.Getenv("REDIS_HOST"); host != "" {
		v.Set("redis.host", host)
	}
	if pw := os.Getenv("REDIS_PASSWORD"); pw != "" {
		v.Set("redis.password", pw)
	}

	if jwtSecret := os.Getenv("JWT_SECRET"); jwtSecret != "" {
		v.Set("jwt.secret", jwtSecret)
	}

	if key := os.Getenv("AUDIT_SIGNING_KEY"); key != "" {
		v.Set("audit.signing_key", key)
	}

	if key := os.Getenv("SENDGRID_API_KEY"); key != "" {
		v.Set("email.api_key", key)
		v.Set("email.provider", "sendgrid")
	}
	if to := os.Getenv("FRAUD_OPS_EMAIL"); to != "" {
		v.Set("email.fraud_ops_email", to)
	}

	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); endpoint != "" {
		v.Set("tracing.endpoint", endpoint)
		v.Set("tracing.enabled", true)
	}

	if path := os.Getenv("REFERENCE_TABLES_PATH"); path != "" {
		v.Set("enrichment.tables_path", path)
	}
	if ref := os.Getenv("REFERENCE_NOW"); ref != "" {
		v.Set("query.reference_date", ref)
	}
}

func validate(config *Config) error {
	if config.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	if config.Database.URL == "" && (config.Database.Host == "" || config.Database.Name == "") {
		return fmt.Errorf("database configuration is incomplete")
	}

	if config.Query.PageSize < 1 || config.Query.HistoryPageSize < 1 {
		return fmt.Errorf("query page sizes must be positive")
	}
	if config.Query.MaxRecords < 1 {
		return fmt.Errorf("query max_records must be positive")
	}
	if config.Query.ReferenceDate != "" {
		if _, err := time.Parse(referenceDateLayout, config.Query.ReferenceDate); err != nil {
			return fmt.Errorf("query reference_date must be YYYY-MM-DD: %w", err)
		}
	}

	if config.Email.Provider == "sendgrid" {
		if config.Email.APIKey == "" {
			return fmt.Errorf("sendgrid api key is required")
		}
		if config.Email.FraudOpsEmail == "" {
			return fmt.Errorf("fraud ops email is required when notifications are enabled")
		}
	}

	return nil
}
