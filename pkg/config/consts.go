package config

const EnvPrefix = "ONMALL"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "ONMALL_APP_ENV"
	EnvPort     = "ONMALL_APP_PORT"
	EnvLogLevel = "ONMALL_LOG_LEVEL"

	EnvDBDSN      = "ONMALL_DB_DSN"
	EnvDBHost     = "ONMALL_DB_HOST"
	EnvDBPort     = "ONMALL_DB_PORT"
	EnvDBUser     = "ONMALL_DB_USER"
	EnvDBPassword = "ONMALL_DB_PASSWORD"
	EnvDBName     = "ONMALL_DB_NAME"

	EnvRedisURL = "ONMALL_REDIS_URL"

	EnvJWTSecret  = "ONMALL_JWT_SECRET"
	EnvJWTIssuer  = "ONMALL_JWT_ISSUER"
	EnvJWTExpMins = "ONMALL_JWT_EXPIRATION_MINUTES"

	EnvCloudinaryCloudName = "ONMALL_CLOUDINARY_CLOUD_NAME"
	EnvCloudinaryAPIKey    = "ONMALL_CLOUDINARY_API_KEY"
	EnvCloudinaryAPISecret = "ONMALL_CLOUDINARY_API_SECRET"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
