package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	WalletLimits  WalletRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Wallet        WalletConfig
	Razorpay      RazorpayConfig
	Reconcile     ReconcileConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = DriverSQLite
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if _, err := cfg.Wallet.StartingBalanceAmount(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"WEALTHGUARDIAN_APP_ENV" required:"true"`
	Port         string `envconfig:"WEALTHGUARDIAN_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"WEALTHGUARDIAN_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"WEALTHGUARDIAN_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"WEALTHGUARDIAN_LOG_FORMAT" default:"json"`
	MetricsAddr  string `envconfig:"WEALTHGUARDIAN_METRICS_ADDR"`

	CORSOrigins []string `envconfig:"WEALTHGUARDIAN_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"WEALTHGUARDIAN_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"WEALTHGUARDIAN_DB_DSN"`
	Driver string `envconfig:"WEALTHGUARDIAN_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"WEALTHGUARDIAN_DB_HOST"`
	LegacyPort     int    `envconfig:"WEALTHGUARDIAN_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"WEALTHGUARDIAN_DB_USER"`
	LegacyPassword string `envconfig:"WEALTHGUARDIAN_DB_PASSWORD"`
	LegacyName     string `envconfig:"WEALTHGUARDIAN_DB_NAME"`
	LegacySSLMode  string `envconfig:"WEALTHGUARDIAN_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"WEALTHGUARDIAN_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"WEALTHGUARDIAN_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"WEALTHGUARDIAN_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"WEALTHGUARDIAN_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	SlowQueryThreshold time.Duration `envconfig:"WEALTHGUARDIAN_DB_SLOW_QUERY" default:"250ms"`
}

// IsSQLite reports whether the sqlite dialector should be used.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"WEALTHGUARDIAN_REDIS_URL" required:"true"`
	Address      string        `envconfig:"WEALTHGUARDIAN_REDIS_ADDR"`
	Password     string        `envconfig:"WEALTHGUARDIAN_REDIS_PASSWORD"`
	DB           int           `envconfig:"WEALTHGUARDIAN_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"WEALTHGUARDIAN_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"WEALTHGUARDIAN_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"WEALTHGUARDIAN_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"WEALTHGUARDIAN_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"WEALTHGUARDIAN_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string        `envconfig:"WEALTHGUARDIAN_JWT_SECRET" required:"true"`
	Issuer            string        `envconfig:"WEALTHGUARDIAN_JWT_ISSUER" required:"true"`
	ExpirationMinutes int           `envconfig:"WEALTHGUARDIAN_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTTL        time.Duration `envconfig:"WEALTHGUARDIAN_REFRESH_TOKEN_TTL" default:"720h"`
}

// AccessTTL returns the access token lifetime.
func (j JWTConfig) AccessTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

// RefreshTokenTTL returns how long a refresh session stays valid.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	return j.RefreshTTL
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"WEALTHGUARDIAN_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"WEALTHGUARDIAN_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"WEALTHGUARDIAN_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"WEALTHGUARDIAN_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"WEALTHGUARDIAN_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"WEALTHGUARDIAN_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"WEALTHGUARDIAN_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"WEALTHGUARDIAN_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"WEALTHGUARDIAN_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"WEALTHGUARDIAN_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"WEALTHGUARDIAN_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

// WalletRateLimitConfig caps money-moving calls per user. A zero limit disables
// the check.
type WalletRateLimitConfig struct {
	DepositWindow  time.Duration `envconfig:"WEALTHGUARDIAN_WALLET_RATE_LIMIT_DEPOSIT_WINDOW" default:"1m"`
	DepositLimit   int           `envconfig:"WEALTHGUARDIAN_WALLET_RATE_LIMIT_DEPOSIT_LIMIT" default:"10"`
	TransferWindow time.Duration `envconfig:"WEALTHGUARDIAN_WALLET_RATE_LIMIT_TRANSFER_WINDOW" default:"1m"`
	TransferLimit  int           `envconfig:"WEALTHGUARDIAN_WALLET_RATE_LIMIT_TRANSFER_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"WEALTHGUARDIAN_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"WEALTHGUARDIAN_AUTO_MIGRATE" default:"false"`
}

type WalletConfig struct {
	StartingBalance string `envconfig:"WEALTHGUARDIAN_WALLET_STARTING_BALANCE" default:"1000"`
	DefaultCurrency string `envconfig:"WEALTHGUARDIAN_WALLET_DEFAULT_CURRENCY" default:"INR"`
}

// StartingBalanceAmount parses the configured starting balance in major units.
func (w WalletConfig) StartingBalanceAmount() (decimal.Decimal, error) {
	raw := strings.TrimSpace(w.StartingBalance)
	if raw == "" {
		return decimal.Zero, nil
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing %s: %w", EnvWalletStartingBalance, err)
	}
	if amount.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s must not be negative", EnvWalletStartingBalance)
	}
	return amount, nil
}

// Currency returns the normalized default currency code.
func (w WalletConfig) Currency() string {
	cur := strings.ToUpper(strings.TrimSpace(w.DefaultCurrency))
	if cur == "" {
		return "INR"
	}
	return cur
}

type RazorpayConfig struct {
	KeyID         string        `envconfig:"WEALTHGUARDIAN_RAZORPAY_KEY_ID" required:"true"`
	KeySecret     string        `envconfig:"WEALTHGUARDIAN_RAZORPAY_KEY_SECRET" required:"true"`
	WebhookSecret string        `envconfig:"WEALTHGUARDIAN_RAZORPAY_WEBHOOK_SECRET" required:"true"`
	BaseURL       string        `envconfig:"WEALTHGUARDIAN_RAZORPAY_BASE_URL" default:"https://api.razorpay.com"`
	Timeout       time.Duration `envconfig:"WEALTHGUARDIAN_RAZORPAY_TIMEOUT" default:"10s"`
	WebhookTTL    time.Duration `envconfig:"WEALTHGUARDIAN_RAZORPAY_WEBHOOK_IDEMPOTENCY_TTL" default:"72h"`
}

type ReconcileConfig struct {
	Interval  time.Duration `envconfig:"WEALTHGUARDIAN_RECONCILE_INTERVAL" default:"10m"`
	MinAge    time.Duration `envconfig:"WEALTHGUARDIAN_RECONCILE_MIN_AGE" default:"15m"`
	MaxAge    time.Duration `envconfig:"WEALTHGUARDIAN_RECONCILE_MAX_AGE" default:"72h"`
	BatchSize int           `envconfig:"WEALTHGUARDIAN_RECONCILE_BATCH_SIZE" default:"50"`
	LockTTL   time.Duration `envconfig:"WEALTHGUARDIAN_CRON_LOCK_TTL" default:"15m"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"WEALTHGUARDIAN_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	WalletEventsTopic        string `envconfig:"WEALTHGUARDIAN_PUBSUB_WALLET_EVENTS_TOPIC" default:"wg-wallet-events"`
	WalletEventsSubscription string `envconfig:"WEALTHGUARDIAN_PUBSUB_WALLET_EVENTS_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"WEALTHGUARDIAN_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"WEALTHGUARDIAN_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"WEALTHGUARDIAN_OUTBOX_MAX_ATTEMPTS" default:"10"`

	Retention     time.Duration `envconfig:"WEALTHGUARDIAN_OUTBOX_RETENTION" default:"720h"`
	PruneInterval time.Duration `envconfig:"WEALTHGUARDIAN_OUTBOX_PRUNE_INTERVAL" default:"1h"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		db.DSN = "file:wealthguardian.db?cache=shared"
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
