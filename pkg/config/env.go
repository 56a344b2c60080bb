package config

// EnvPrefix is handed to envconfig; every field carries its full variable name.
const EnvPrefix = "WEALTHGUARDIAN"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const (
	EnvAppEnv   = "WEALTHGUARDIAN_APP_ENV"
	EnvPort     = "WEALTHGUARDIAN_APP_PORT"
	EnvLogLevel = "WEALTHGUARDIAN_LOG_LEVEL"

	EnvDBDSN    = "WEALTHGUARDIAN_DB_DSN"
	EnvDBDriver = "WEALTHGUARDIAN_DB_DRIVER"
	EnvDBHost   = "WEALTHGUARDIAN_DB_HOST"
	EnvDBPort   = "WEALTHGUARDIAN_DB_PORT"
	EnvDBUser   = "WEALTHGUARDIAN_DB_USER"
	EnvDBPass   = "WEALTHGUARDIAN_DB_PASSWORD"
	EnvDBName   = "WEALTHGUARDIAN_DB_NAME"

	EnvRedisURL = "WEALTHGUARDIAN_REDIS_URL"

	EnvJWTSecret  = "WEALTHGUARDIAN_JWT_SECRET"
	EnvJWTIssuer  = "WEALTHGUARDIAN_JWT_ISSUER"
	EnvJWTExpMins = "WEALTHGUARDIAN_JWT_EXPIRATION_MINUTES"

	EnvUseSQLite = "WEALTHGUARDIAN_USE_SQLITE"

	EnvWalletStartingBalance = "WEALTHGUARDIAN_WALLET_STARTING_BALANCE"

	EnvRazorpayKeyID         = "WEALTHGUARDIAN_RAZORPAY_KEY_ID"
	EnvRazorpayKeySecret     = "WEALTHGUARDIAN_RAZORPAY_KEY_SECRET"
	EnvRazorpayWebhookSecret = "WEALTHGUARDIAN_RAZORPAY_WEBHOOK_SECRET"
	EnvRazorpayTimeout       = "WEALTHGUARDIAN_RAZORPAY_TIMEOUT"

	EnvPubSubWalletTopic = "WEALTHGUARDIAN_PUBSUB_WALLET_EVENTS_TOPIC"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
