package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	Engine       EngineConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Cron         CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"CRAFTSTOCK_APP_ENV" required:"true"`
	Port         string   `envconfig:"CRAFTSTOCK_APP_PORT" required:"true"`
	LogLevel     string   `envconfig:"CRAFTSTOCK_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"CRAFTSTOCK_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"CRAFTSTOCK_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"CRAFTSTOCK_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"CRAFTSTOCK_DB_DSN"`
	Driver string `envconfig:"CRAFTSTOCK_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CRAFTSTOCK_DB_HOST"`
	LegacyPort     int    `envconfig:"CRAFTSTOCK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CRAFTSTOCK_DB_USER"`
	LegacyPassword string `envconfig:"CRAFTSTOCK_DB_PASSWORD"`
	LegacyName     string `envconfig:"CRAFTSTOCK_DB_NAME"`
	LegacySSLMode  string `envconfig:"CRAFTSTOCK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CRAFTSTOCK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CRAFTSTOCK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CRAFTSTOCK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CRAFTSTOCK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CRAFTSTOCK_REDIS_URL" required:"true"`
	Address      string        `envconfig:"CRAFTSTOCK_REDIS_ADDR"`
	Password     string        `envconfig:"CRAFTSTOCK_REDIS_PASSWORD"`
	DB           int           `envconfig:"CRAFTSTOCK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CRAFTSTOCK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CRAFTSTOCK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CRAFTSTOCK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CRAFTSTOCK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CRAFTSTOCK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// EngineConfig carries request-independent bounds for the crafting engine.
// Caller preferences (cost/reliability ordering) stay request-scoped and are
// never persisted here.
type EngineConfig struct {
	MaxSourceResults int `envconfig:"CRAFTSTOCK_ENGINE_MAX_SOURCE_RESULTS" default:"25"`
	MaxSuggestions   int `envconfig:"CRAFTSTOCK_ENGINE_MAX_SUGGESTIONS" default:"10"`
	MaxGapSources    int `envconfig:"CRAFTSTOCK_ENGINE_MAX_GAP_SOURCES" default:"5"`
	HistoryPageLimit int `envconfig:"CRAFTSTOCK_ENGINE_HISTORY_PAGE_LIMIT" default:"100"`
	MaxCraftPriority int `envconfig:"CRAFTSTOCK_ENGINE_MAX_CRAFT_PRIORITY" default:"100"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"CRAFTSTOCK_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"CRAFTSTOCK_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"CRAFTSTOCK_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"CRAFTSTOCK_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"CRAFTSTOCK_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	DomainTopic        string `envconfig:"CRAFTSTOCK_PUBSUB_DOMAIN_TOPIC" default:"craftstock-domain-events"`
	DomainSubscription string `envconfig:"CRAFTSTOCK_PUBSUB_DOMAIN_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"CRAFTSTOCK_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"CRAFTSTOCK_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"CRAFTSTOCK_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type CronConfig struct {
	Interval            time.Duration `envconfig:"CRAFTSTOCK_CRON_INTERVAL" default:"1m"`
	OutboxRetentionDays int           `envconfig:"CRAFTSTOCK_CRON_OUTBOX_RETENTION_DAYS" default:"30"`
	OutboxMinAttempts   int           `envconfig:"CRAFTSTOCK_CRON_OUTBOX_MIN_ATTEMPTS" default:"5"`
	AutoStartBatchSize  int           `envconfig:"CRAFTSTOCK_CRON_AUTOSTART_BATCH_SIZE" default:"100"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
