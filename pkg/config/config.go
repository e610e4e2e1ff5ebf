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
	FeatureFlags FeatureFlagsConfig
	Cache        CacheConfig
	Delegation   DelegationConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
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
	Env          string `envconfig:"TIERFORGE_APP_ENV" required:"true"`
	Port         string `envconfig:"TIERFORGE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"TIERFORGE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TIERFORGE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"TIERFORGE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"TIERFORGE_DB_DSN"`
	Driver string `envconfig:"TIERFORGE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"TIERFORGE_DB_HOST"`
	LegacyPort     int    `envconfig:"TIERFORGE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"TIERFORGE_DB_USER"`
	LegacyPassword string `envconfig:"TIERFORGE_DB_PASSWORD"`
	LegacyName     string `envconfig:"TIERFORGE_DB_NAME"`
	LegacySSLMode  string `envconfig:"TIERFORGE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TIERFORGE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TIERFORGE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TIERFORGE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TIERFORGE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"TIERFORGE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"TIERFORGE_REDIS_ADDR"`
	Password     string        `envconfig:"TIERFORGE_REDIS_PASSWORD"`
	DB           int           `envconfig:"TIERFORGE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TIERFORGE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TIERFORGE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TIERFORGE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TIERFORGE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TIERFORGE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"TIERFORGE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"TIERFORGE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"TIERFORGE_JWT_EXPIRATION_MINUTES" required:"true"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"TIERFORGE_AUTO_MIGRATE" default:"false"`
}

type CacheConfig struct {
	HierarchyTTL time.Duration `envconfig:"TIERFORGE_CACHE_HIERARCHY_TTL" default:"30s"`
}

// DelegationConfig tunes the rate-resolution defaults applied to records
// that never configured a rate.
type DelegationConfig struct {
	DefaultDiscount   string `envconfig:"TIERFORGE_DEFAULT_DISCOUNT" default:"60"`
	AncestorWalkLimit int    `envconfig:"TIERFORGE_ANCESTOR_WALK_LIMIT" default:"50"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"TIERFORGE_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"TIERFORGE_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"TIERFORGE_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	TierTopic        string `envconfig:"TIERFORGE_PUBSUB_TIER_TOPIC" default:"tf-tier-events"`
	TierSubscription string `envconfig:"TIERFORGE_PUBSUB_TIER_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int           `envconfig:"TIERFORGE_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int           `envconfig:"TIERFORGE_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int           `envconfig:"TIERFORGE_OUTBOX_MAX_ATTEMPTS" default:"10"`
	IdempotencyTTL time.Duration `envconfig:"TIERFORGE_OUTBOX_IDEMPOTENCY_TTL" default:"720h"`
	RetentionDays  int           `envconfig:"TIERFORGE_OUTBOX_RETENTION_DAYS" default:"30"`
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
