package config

// EnvPrefix is the envconfig prefix shared by every binary.
const EnvPrefix = "FRESHKART"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv = "FRESHKART_APP_ENV"
	EnvPort   = "FRESHKART_APP_PORT"

	EnvDBDSN  = "FRESHKART_DB_DSN"
	EnvDBHost = "FRESHKART_DB_HOST"
	EnvDBUser = "FRESHKART_DB_USER"
	EnvDBName = "FRESHKART_DB_NAME"

	EnvRedisURL = "FRESHKART_REDIS_URL"

	EnvJWTSecret              = "FRESHKART_JWT_SECRET"
	EnvJWTIssuer              = "FRESHKART_JWT_ISSUER"
	EnvJWTExpMins             = "FRESHKART_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "FRESHKART_REFRESH_TOKEN_TTL_MINUTES"

	EnvGCPProjectID = "FRESHKART_GCP_PROJECT_ID"

	EnvPubSubOrdersTopic       = "FRESHKART_PUBSUB_ORDERS_TOPIC"
	EnvPubSubOrdersSub         = "FRESHKART_PUBSUB_ORDERS_SUBSCRIPTION"
	EnvPubSubNotificationTopic = "FRESHKART_PUBSUB_NOTIFICATION_TOPIC"
	EnvPubSubNotificationSub   = "FRESHKART_PUBSUB_NOTIFICATION_SUBSCRIPTION"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
