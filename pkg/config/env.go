package config

// EnvPrefix scopes all environment variables read by envconfig.
const EnvPrefix = "CRAFTSTOCK"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

// Canonical environment variable names, used in error messages and tests.
const (
	EnvAppEnv       = "CRAFTSTOCK_APP_ENV"
	EnvPort         = "CRAFTSTOCK_APP_PORT"
	EnvDBDSN        = "CRAFTSTOCK_DB_DSN"
	EnvDBHost       = "CRAFTSTOCK_DB_HOST"
	EnvDBUser       = "CRAFTSTOCK_DB_USER"
	EnvDBName       = "CRAFTSTOCK_DB_NAME"
	EnvRedisURL     = "CRAFTSTOCK_REDIS_URL"
	EnvGCPProjectID = "CRAFTSTOCK_GCP_PROJECT_ID"
	EnvDomainTopic  = "CRAFTSTOCK_PUBSUB_DOMAIN_TOPIC"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
