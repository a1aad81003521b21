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
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Admin        AdminConfig
	Password     PasswordConfig
	RateLimit    RateLimitConfig
	CORS         CORSConfig
	FeatureFlags FeatureFlagsConfig
	Rewards      RewardsConfig
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
	Env          string `envconfig:"EARNPRO_APP_ENV" required:"true"`
	Port         string `envconfig:"EARNPRO_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"EARNPRO_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"EARNPRO_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"EARNPRO_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"EARNPRO_DB_DSN"`
	Driver string `envconfig:"EARNPRO_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"EARNPRO_DB_HOST"`
	LegacyPort     int    `envconfig:"EARNPRO_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"EARNPRO_DB_USER"`
	LegacyPassword string `envconfig:"EARNPRO_DB_PASSWORD"`
	LegacyName     string `envconfig:"EARNPRO_DB_NAME"`
	LegacySSLMode  string `envconfig:"EARNPRO_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"EARNPRO_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"EARNPRO_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"EARNPRO_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"EARNPRO_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"EARNPRO_DB_SLOW_QUERY" default:"250ms"`
}

// IsSQLite reports whether the configured driver is the embedded SQLite engine.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"EARNPRO_REDIS_URL" required:"true"`
	Address      string        `envconfig:"EARNPRO_REDIS_ADDR"`
	Password     string        `envconfig:"EARNPRO_REDIS_PASSWORD"`
	DB           int           `envconfig:"EARNPRO_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"EARNPRO_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"EARNPRO_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"EARNPRO_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"EARNPRO_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"EARNPRO_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string        `envconfig:"EARNPRO_JWT_SECRET" required:"true"`
	Issuer            string        `envconfig:"EARNPRO_JWT_ISSUER" required:"true"`
	ExpirationMinutes int           `envconfig:"EARNPRO_JWT_EXPIRATION_MINUTES" required:"true"`
	AdminSessionTTL   time.Duration `envconfig:"EARNPRO_ADMIN_SESSION_TTL" default:"12h"`
}

// AccessTTL returns the access token lifetime.
func (j JWTConfig) AccessTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

// AdminConfig holds the single operator account used by the admin surface.
type AdminConfig struct {
	Username     string `envconfig:"EARNPRO_ADMIN_USERNAME" default:"admin"`
	PasswordHash string `envconfig:"EARNPRO_ADMIN_PASSWORD_HASH"`
	TelegramID   int64  `envconfig:"EARNPRO_ADMIN_TELEGRAM_ID" default:"0"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"EARNPRO_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"EARNPRO_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"EARNPRO_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"EARNPRO_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"EARNPRO_ARGON_KEY_LEN" default:"32"`
}

type RateLimitConfig struct {
	ClaimWindow      time.Duration `envconfig:"EARNPRO_RATE_LIMIT_CLAIM_WINDOW" default:"1m"`
	ClaimLimit       int           `envconfig:"EARNPRO_RATE_LIMIT_CLAIM_LIMIT" default:"10"`
	AdminLoginWindow time.Duration `envconfig:"EARNPRO_RATE_LIMIT_ADMIN_LOGIN_WINDOW" default:"5m"`
	AdminLoginLimit  int           `envconfig:"EARNPRO_RATE_LIMIT_ADMIN_LOGIN_LIMIT" default:"5"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"EARNPRO_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000,https://web.telegram.org"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"EARNPRO_AUTO_MIGRATE" default:"false"`
}

// RewardsConfig carries the economic constants that are not admin-editable.
type RewardsConfig struct {
	WelcomeBonus     int64  `envconfig:"EARNPRO_WELCOME_BONUS" default:"100"`
	CoinsPerPayout   int64  `envconfig:"EARNPRO_COINS_PER_PAYOUT_UNIT" default:"1000"`
	PayoutCurrency   string `envconfig:"EARNPRO_PAYOUT_CURRENCY" default:"USDT"`
	LeaderboardLimit int    `envconfig:"EARNPRO_LEADERBOARD_LIMIT" default:"100"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"EARNPRO_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	LedgerTopic string `envconfig:"EARNPRO_PUBSUB_LEDGER_TOPIC" default:"earnpro-ledger-events"`
	// CreateTopic provisions a missing ledger topic at startup. Meant for
	// the local emulator; production topics are managed outside the app.
	CreateTopic bool `envconfig:"EARNPRO_PUBSUB_CREATE_TOPIC" default:"false"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"EARNPRO_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"EARNPRO_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"EARNPRO_OUTBOX_MAX_ATTEMPTS" default:"10"`
	// Retention is how long published and dead rows stay in outbox_events.
	Retention time.Duration `envconfig:"EARNPRO_OUTBOX_RETENTION" default:"720h"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"EARNPRO_CRON_INTERVAL" default:"1h"`
	LockTTL  time.Duration `envconfig:"EARNPRO_CRON_LOCK_TTL" default:"30m"`
	Timezone string        `envconfig:"EARNPRO_CRON_TIMEZONE" default:"UTC"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		return fmt.Errorf("%s is required for the sqlite driver", EnvDBDSN)
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
