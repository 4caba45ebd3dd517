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
	JWT          JWTConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
	Stripe       StripeConfig
	Dedup        DedupConfig
	Settlement   SettlementConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Kafka        KafkaConfig
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
	if err := cfg.Dedup.validate(); err != nil {
		return nil, err
	}
	if err := cfg.Outbox.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SETTLEMENT_APP_ENV" required:"true"`
	Port         string `envconfig:"SETTLEMENT_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"SETTLEMENT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SETTLEMENT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"SETTLEMENT_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"SETTLEMENT_DB_DSN"`
	Driver string `envconfig:"SETTLEMENT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SETTLEMENT_DB_HOST"`
	LegacyPort     int    `envconfig:"SETTLEMENT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SETTLEMENT_DB_USER"`
	LegacyPassword string `envconfig:"SETTLEMENT_DB_PASSWORD"`
	LegacyName     string `envconfig:"SETTLEMENT_DB_NAME"`
	LegacySSLMode  string `envconfig:"SETTLEMENT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SETTLEMENT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SETTLEMENT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SETTLEMENT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SETTLEMENT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SETTLEMENT_REDIS_URL"`
	Address      string        `envconfig:"SETTLEMENT_REDIS_ADDR"`
	Password     string        `envconfig:"SETTLEMENT_REDIS_PASSWORD"`
	DB           int           `envconfig:"SETTLEMENT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SETTLEMENT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SETTLEMENT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SETTLEMENT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SETTLEMENT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SETTLEMENT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether any redis endpoint is configured.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type JWTConfig struct {
	Secret            string `envconfig:"SETTLEMENT_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"SETTLEMENT_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"SETTLEMENT_JWT_EXPIRATION_MINUTES" default:"60"`
}

type RateLimitConfig struct {
	SellerWindow time.Duration `envconfig:"SETTLEMENT_RATE_LIMIT_SELLER_WINDOW" default:"1m"`
	SellerLimit  int64         `envconfig:"SETTLEMENT_RATE_LIMIT_SELLER_LIMIT" default:"60"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SETTLEMENT_AUTO_MIGRATE" default:"false"`
}

type StripeConfig struct {
	WebhookSecret string `envconfig:"SETTLEMENT_STRIPE_WEBHOOK_SECRET" required:"true"`
	Env           string `envconfig:"SETTLEMENT_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

const (
	DedupBackendMemory = "memory"
	DedupBackendRedis  = "redis"
)

type DedupConfig struct {
	Backend       string        `envconfig:"SETTLEMENT_DEDUP_BACKEND" default:"memory"`
	Window        time.Duration `envconfig:"SETTLEMENT_DEDUP_WINDOW" default:"5m"`
	HighWaterMark int           `envconfig:"SETTLEMENT_DEDUP_HIGH_WATER_MARK" default:"10000"`
}

func (d DedupConfig) validate() error {
	switch strings.ToLower(d.Backend) {
	case DedupBackendMemory, DedupBackendRedis:
	default:
		return fmt.Errorf("%s must be %q or %q", EnvDedupBackend, DedupBackendMemory, DedupBackendRedis)
	}
	if d.Window <= 0 {
		return fmt.Errorf("%s must be positive", EnvDedupWindow)
	}
	return nil
}

type SettlementConfig struct {
	AutoCompleteDays int    `envconfig:"SETTLEMENT_AUTO_COMPLETE_DAYS" default:"7"`
	DefaultCurrency  string `envconfig:"SETTLEMENT_DEFAULT_CURRENCY" default:"usd"`
}

// AutoCompleteAfter converts the hold period to a duration.
func (s SettlementConfig) AutoCompleteAfter() time.Duration {
	if s.AutoCompleteDays <= 0 {
		return 0
	}
	return time.Duration(s.AutoCompleteDays) * 24 * time.Hour
}

type GCPConfig struct {
	ProjectID string `envconfig:"SETTLEMENT_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	SettlementTopic string `envconfig:"SETTLEMENT_PUBSUB_SETTLEMENT_TOPIC" default:"settlement-events"`
}

type KafkaConfig struct {
	Brokers []string `envconfig:"SETTLEMENT_KAFKA_BROKERS"`
	Topic   string   `envconfig:"SETTLEMENT_KAFKA_TOPIC" default:"settlement-events"`
}

const (
	OutboxSinkPubSub = "pubsub"
	OutboxSinkKafka  = "kafka"
)

type OutboxConfig struct {
	Sink           string `envconfig:"SETTLEMENT_OUTBOX_SINK" default:"pubsub"`
	BatchSize      int    `envconfig:"SETTLEMENT_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int    `envconfig:"SETTLEMENT_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int    `envconfig:"SETTLEMENT_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

func (o OutboxConfig) validate() error {
	switch strings.ToLower(o.Sink) {
	case OutboxSinkPubSub, OutboxSinkKafka:
		return nil
	default:
		return fmt.Errorf("%s must be %q or %q", EnvOutboxSink, OutboxSinkPubSub, OutboxSinkKafka)
	}
}

type CronConfig struct {
	Interval time.Duration `envconfig:"SETTLEMENT_CRON_INTERVAL" default:"1h"`
	LockTTL  time.Duration `envconfig:"SETTLEMENT_CRON_LOCK_TTL" default:"10m"`
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
