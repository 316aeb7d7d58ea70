package config

// EnvPrefix is handed to envconfig; every tag already carries the full name.
const EnvPrefix = "DROPSHIP"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const (
	EnvAppEnv      = "DROPSHIP_APP_ENV"
	EnvPort        = "DROPSHIP_APP_PORT"
	EnvDBDSN       = "DROPSHIP_DB_DSN"
	EnvDBDriver    = "DROPSHIP_DB_DRIVER"
	EnvDBHost      = "DROPSHIP_DB_HOST"
	EnvDBUser      = "DROPSHIP_DB_USER"
	EnvDBName      = "DROPSHIP_DB_NAME"
	EnvDBPassword  = "DROPSHIP_DB_PASSWORD"
	EnvRedisURL    = "DROPSHIP_REDIS_URL"
	EnvJWTSecret   = "DROPSHIP_JWT_SECRET"
	EnvJWTIssuer   = "DROPSHIP_JWT_ISSUER"
	EnvJWTExpMins  = "DROPSHIP_JWT_EXPIRATION_MINUTES"
	EnvCronEvery   = "DROPSHIP_CRON_INTERVAL"
	EnvAutoFulfill = "DROPSHIP_FULFILLMENT_AUTO_FULFILL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
