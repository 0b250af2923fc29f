package config

// EnvPrefix is handed to envconfig; every field carries an explicit tag so it only matters for
// fields added without one.
const EnvPrefix = "STOREFRONT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	StorageBackendMemory = "memory"
	StorageBackendRedis  = "redis"
	StorageBackendSQL    = "sql"
)

const (
	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

const DefaultSQLiteDSN = "file:storefront.db?cache=shared"

const (
	EnvAppEnv          = "STOREFRONT_APP_ENV"
	EnvPort            = "STOREFRONT_APP_PORT"
	EnvLogFormat       = "STOREFRONT_LOG_FORMAT"
	EnvDBDSN           = "STOREFRONT_DB_DSN"
	EnvDBHost          = "STOREFRONT_DB_HOST"
	EnvDBUser          = "STOREFRONT_DB_USER"
	EnvDBName          = "STOREFRONT_DB_NAME"
	EnvRedisURL        = "STOREFRONT_REDIS_URL"
	EnvJWTSecret       = "STOREFRONT_JWT_SECRET"
	EnvJWTIssuer       = "STOREFRONT_JWT_ISSUER"
	EnvStorageBackend  = "STOREFRONT_STORAGE_BACKEND"
	EnvPendingAddTTL   = "STOREFRONT_PENDING_ADD_TTL"
	EnvReconcileSettle = "STOREFRONT_RECONCILE_SETTLE_DELAY"
	EnvUseSQLite       = "STOREFRONT_USE_SQLITE"
)

var hostDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
