package config

// EnvPrefix is passed to envconfig; individual fields carry their full
// variable names, so the prefix stays empty.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

// Canonical environment variable names referenced outside struct tags.
const (
	EnvAppEnv     = "TIERFORGE_APP_ENV"
	EnvPort       = "TIERFORGE_APP_PORT"
	EnvDBDSN      = "TIERFORGE_DB_DSN"
	EnvDBHost     = "TIERFORGE_DB_HOST"
	EnvDBUser     = "TIERFORGE_DB_USER"
	EnvDBName     = "TIERFORGE_DB_NAME"
	EnvRedisURL   = "TIERFORGE_REDIS_URL"
	EnvJWTSecret  = "TIERFORGE_JWT_SECRET"
	EnvJWTIssuer  = "TIERFORGE_JWT_ISSUER"
	EnvJWTExpMins = "TIERFORGE_JWT_EXPIRATION_MINUTES"

	EnvGCPProjectID    = "TIERFORGE_GCP_PROJECT_ID"
	EnvPubSubTierTopic = "TIERFORGE_PUBSUB_TIER_TOPIC"
	EnvPubSubTierSub   = "TIERFORGE_PUBSUB_TIER_SUBSCRIPTION"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
