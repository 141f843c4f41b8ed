package config

// EnvPrefix namespaces every environment variable the service reads.
const EnvPrefix = "FOODSHARE"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv   = "FOODSHARE_APP_ENV"
	EnvPort     = "FOODSHARE_APP_PORT"
	EnvDBDSN    = "FOODSHARE_DB_DSN"
	EnvDBHost   = "FOODSHARE_DB_HOST"
	EnvDBUser   = "FOODSHARE_DB_USER"
	EnvDBName   = "FOODSHARE_DB_NAME"
	EnvRedisURL = "FOODSHARE_REDIS_URL"

	EnvJWTSecret              = "FOODSHARE_JWT_SECRET"
	EnvJWTIssuer              = "FOODSHARE_JWT_ISSUER"
	EnvJWTExpMins             = "FOODSHARE_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "FOODSHARE_REFRESH_TOKEN_TTL_MINUTES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
