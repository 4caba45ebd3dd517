package config

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv    = "SETTLEMENT_APP_ENV"
	EnvPort      = "SETTLEMENT_APP_PORT"
	EnvDBDSN     = "SETTLEMENT_DB_DSN"
	EnvDBHost    = "SETTLEMENT_DB_HOST"
	EnvDBUser    = "SETTLEMENT_DB_USER"
	EnvDBName    = "SETTLEMENT_DB_NAME"
	EnvRedisURL  = "SETTLEMENT_REDIS_URL"
	EnvJWTSecret = "SETTLEMENT_JWT_SECRET"
	EnvJWTIssuer = "SETTLEMENT_JWT_ISSUER"

	EnvStripeWebhookSecret = "SETTLEMENT_STRIPE_WEBHOOK_SECRET"
	EnvDedupBackend        = "SETTLEMENT_DEDUP_BACKEND"
	EnvDedupWindow         = "SETTLEMENT_DEDUP_WINDOW"
	EnvAutoCompleteDays    = "SETTLEMENT_AUTO_COMPLETE_DAYS"
	EnvOutboxSink          = "SETTLEMENT_OUTBOX_SINK"
	EnvKafkaBrokers        = "SETTLEMENT_KAFKA_BROKERS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
