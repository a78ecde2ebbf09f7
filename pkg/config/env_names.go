package config

// EnvPrefix is passed to envconfig; individual fields carry explicit names so
// the prefix only matters for fields without a tag.
const EnvPrefix = "pollpulse"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

// Environment variable names referenced outside the struct tags (validation
// messages, tests).
const (
	EnvAppEnv     = "POLLPULSE_APP_ENV"
	EnvPort       = "POLLPULSE_APP_PORT"
	EnvDBDSN      = "POLLPULSE_DB_DSN"
	EnvDBHost     = "POLLPULSE_DB_HOST"
	EnvDBUser     = "POLLPULSE_DB_USER"
	EnvDBName     = "POLLPULSE_DB_NAME"
	EnvRedisURL   = "POLLPULSE_REDIS_URL"
	EnvJWTSecret  = "POLLPULSE_JWT_SECRET"
	EnvJWTIssuer  = "POLLPULSE_JWT_ISSUER"
	EnvJWTExpMins = "POLLPULSE_JWT_EXPIRATION_MINUTES"

	EnvRefreshTokenTTLMinutes = "POLLPULSE_REFRESH_TOKEN_TTL_MINUTES"

	EnvSMSAPIKey          = "POLLPULSE_SMS_API_KEY"
	EnvZarinpalMerchantID = "POLLPULSE_ZARINPAL_MERCHANT_ID"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
