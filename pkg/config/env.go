package config

const EnvPrefix = "EARNPRO"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

const (
	EnvAppEnv    = "EARNPRO_APP_ENV"
	EnvPort      = "EARNPRO_APP_PORT"
	EnvDBDSN     = "EARNPRO_DB_DSN"
	EnvDBDriver  = "EARNPRO_DB_DRIVER"
	EnvDBHost    = "EARNPRO_DB_HOST"
	EnvDBUser    = "EARNPRO_DB_USER"
	EnvDBName    = "EARNPRO_DB_NAME"
	EnvRedisURL  = "EARNPRO_REDIS_URL"
	EnvJWTSecret = "EARNPRO_JWT_SECRET"
	EnvJWTIssuer = "EARNPRO_JWT_ISSUER"
	EnvJWTExpMin = "EARNPRO_JWT_EXPIRATION_MINUTES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
