package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix is applied to every envconfig lookup.
	EnvPrefix = "floorops"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "FLOOROPS_DB_DSN"
	EnvDBHost = "FLOOROPS_DB_HOST"
	EnvDBUser = "FLOOROPS_DB_USER"
	EnvDBName = "FLOOROPS_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	AuthRateLimit AuthRateLimitConfig
	Venue         VenueConfig
	Merge         MergeConfig
	FeatureFlags  FeatureFlagsConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
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
	Env          string `envconfig:"FLOOROPS_APP_ENV" required:"true"`
	Port         string `envconfig:"FLOOROPS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"FLOOROPS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FLOOROPS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"FLOOROPS_DB_DSN"`
	Driver string `envconfig:"FLOOROPS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"FLOOROPS_DB_HOST"`
	LegacyPort     int    `envconfig:"FLOOROPS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FLOOROPS_DB_USER"`
	LegacyPassword string `envconfig:"FLOOROPS_DB_PASSWORD"`
	LegacyName     string `envconfig:"FLOOROPS_DB_NAME"`
	LegacySSLMode  string `envconfig:"FLOOROPS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FLOOROPS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FLOOROPS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FLOOROPS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FLOOROPS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FLOOROPS_REDIS_URL"`
	Address      string        `envconfig:"FLOOROPS_REDIS_ADDRESS"`
	Password     string        `envconfig:"FLOOROPS_REDIS_PASSWORD"`
	DB           int           `envconfig:"FLOOROPS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FLOOROPS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FLOOROPS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FLOOROPS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FLOOROPS_REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"FLOOROPS_REDIS_WRITE_TIMEOUT" default:"3s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"FLOOROPS_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"FLOOROPS_JWT_ISSUER" default:"floorops"`
	ExpirationMinutes int    `envconfig:"FLOOROPS_JWT_EXPIRATION_MINUTES" default:"60"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"FLOOROPS_AUTH_LOGIN_WINDOW" default:"1m"`
	LoginIPLimit    int64         `envconfig:"FLOOROPS_AUTH_LOGIN_IP_LIMIT" default:"10"`
	LoginEmailLimit int64         `envconfig:"FLOOROPS_AUTH_LOGIN_EMAIL_LIMIT" default:"5"`
}

// VenueConfig carries floor-level policy knobs.
type VenueConfig struct {
	// ReservationLookahead is how far ahead of now a booked reservation
	// still claims its tables for state derivation.
	ReservationLookahead time.Duration `envconfig:"FLOOROPS_VENUE_RESERVATION_LOOKAHEAD" default:"90m"`
}

// MergeConfig tunes the merge executor.
type MergeConfig struct {
	// LockTimeout bounds how long a merge transaction waits on row locks
	// before failing fast with a retryable conflict.
	LockTimeout time.Duration `envconfig:"FLOOROPS_MERGE_LOCK_TIMEOUT" default:"3s"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"FLOOROPS_FEATURE_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"FLOOROPS_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	DomainTopic        string `envconfig:"FLOOROPS_PUBSUB_DOMAIN_TOPIC" default:"floorops-domain-events"`
	DomainSubscription string `envconfig:"FLOOROPS_PUBSUB_DOMAIN_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"FLOOROPS_OUTBOX_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"FLOOROPS_OUTBOX_POLL_INTERVAL_MS" default:"500"`
	MaxAttempts    int `envconfig:"FLOOROPS_OUTBOX_MAX_ATTEMPTS" default:"10"`
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
