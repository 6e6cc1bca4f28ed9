package config

import (
	"fmt"
	"strings"
	"time"
)

type Config struct {
	AppName                       string   `env:"APP_NAME" env-default:"bna-rentals-api"`
	Port                          int      `env:"PORT" env-default:"3000"`
	LogLevel                      string   `env:"LOG_LEVEL" env-default:"info"`
	PrettyLogs                    bool     `env:"PRETTY_LOGS" env-default:"false"`
	HttpServerWriteTimeoutSeconds int      `env:"HTTP_SERVER_WRITE_TIMEOUT_SECONDS" env-default:"120"`
	HttpServerReadTimeoutSeconds  int      `env:"HTTP_SERVER_READ_TIMEOUT_SECONDS" env-default:"10"`
	HttpServerIdleTimeoutSeconds  int      `env:"HTTP_SERVER_IDLE_TIMEOUT_SECONDS" env-default:"10"`
	MaxHeaderBytes                int      `env:"HTTP_SERVER_MAX_HEADER_BYTES" env-default:"64000"` // 64KB
	ReadHeaderTimeoutSeconds      int      `env:"HTTP_SERVER_READ_HEADER_TIMEOUT_SECONDS" env-default:"10"`
	AllowOrigins                  []string `env:"HTTP_SERVER_ALLOW_ORIGINS" env-default:"*"`
	AllowMethods                  []string `env:"HTTP_SERVER_ALLOW_METHODS" env-default:"GET,POST"`
	StartupMaxAttempts            int      `env:"STARTUP_MAX_ATTEMPTS" env-default:"5"`

	// Database connection string. When set it takes precedence over the discrete DB_* fields.
	DatabaseURL string `env:"DATABASE_URL" env-default:""`
	// Database driver
	DatabaseDriver string `env:"DB_DRIVER" env-default:"postgres"`
	// Database host
	DatabaseHost string `env:"DB_HOST" env-default:""`
	// Database port
	DatabasePort string `env:"DB_PORT" env-default:"5432"`
	// Database user
	DatabaseUserName string `env:"DB_USER_NAME" env-default:""`
	// Database user password
	DatabasePassword string `env:"DB_PASSWORD" env-default:""`
	// Database name
	DatabaseName string `env:"DB_NAME" env-default:"rentals"`
	// Database SSL Mode
	DatabaseSSLMode string `env:"DB_SSL_MODE" env-default:"disable"`
	// Max Open Conns
	DatabaseMaxOpenConns int `env:"DB_MAX_OPEN_CONNS" env-default:"25"`
	// Max Idle Conns
	DatabaseMaxIdleConns int `env:"DB_MAX_IDLE_CONNS" env-default:"10"`
	// Conn Max Lifetime
	DatabaseConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" env-default:"10s"`
	// Migration Folder Path
	DatabaseMigrationFolderPath string `env:"DB_MIGRATION_FOLDER_PATH" env-default:"db/pg"`
	// Database Migration Version
	DatabaseMigrationVersion int `env:"DB_MIGRATION_VERSION" env-default:"0"`
	// Database Migration Force
	DatabaseMigrationForce int `env:"DB_MIGRATION_FORCE" env-default:"0"`
	// Database Migration Auto Rollback
	DatabaseMigrationAutoRollback bool `env:"DB_MIGRATION_AUTO_ROLLBACK" env-default:"true"`

	// Zillow search API key. ZILLOW_API_KEY wins over RAPIDAPI_KEY when both are set;
	// startup fails when neither is.
	ZillowAPIKey  string `env:"ZILLOW_API_KEY" env-default:""`
	RapidAPIKey   string `env:"RAPIDAPI_KEY" env-default:""`
	ZillowAPIHost string `env:"ZILLOW_API_HOST" env-default:"zillow56.p.rapidapi.com"`
	// Zillow request timeout
	ZillowTimeout time.Duration `env:"ZILLOW_TIMEOUT" env-default:"30s"`
	// Attempts per page fetch
	ZillowRetries int `env:"ZILLOW_RETRIES" env-default:"4"`
	// Base backoff unit, multiplied by the attempt number
	ZillowCooldown time.Duration `env:"ZILLOW_COOLDOWN" env-default:"5s"`

	// Shared secret required by the cron trigger endpoint
	CronSecret string `env:"CRON_SECRET" env-default:""`
	// Public base URL of this service, used by the cron endpoint to self-invoke /sync
	PublicBaseURL string `env:"PUBLIC_BASE_URL" env-default:"http://localhost:3000"`

	// Search defaults applied to every sync run
	SearchStatus    string   `env:"SEARCH_STATUS" env-default:"forRent"`
	SearchMinPrice  int      `env:"SEARCH_MIN_PRICE" env-default:"500"`
	SearchMaxPrice  int      `env:"SEARCH_MAX_PRICE" env-default:"5000"`
	SearchBedsMin   int      `env:"SEARCH_BEDS_MIN" env-default:"0"`
	SearchBedsMax   int      `env:"SEARCH_BEDS_MAX" env-default:"5"`
	SearchSqftMin   int      `env:"SEARCH_SQFT_MIN" env-default:"0"`
	SearchSqftMax   int      `env:"SEARCH_SQFT_MAX" env-default:"10000"`
	SearchLocations []string `env:"SEARCH_LOCATIONS" env-default:"Nashville TN,East Nashville Nashville TN,Germantown Nashville TN,The Gulch Nashville TN,Downtown Nashville TN"`
	// Max pages fetched per location
	MaxPagesPerLocation int `env:"MAX_PAGES_PER_LOCATION" env-default:"3"`
	// Locations processed per batch
	LocationsPerBatch int `env:"LOCATIONS_PER_BATCH" env-default:"2"`
	// Delay between page fetches within a location
	InterRequestDelay time.Duration `env:"INTER_REQUEST_DELAY" env-default:"2s"`
	// Delay between location batches
	InterBatchDelay time.Duration `env:"INTER_BATCH_DELAY" env-default:"5s"`

	// Redis (optional): when enabled, sync runs are serialized with a distributed lock
	RedisEnabled  bool   `env:"REDIS_ENABLED" env-default:"false"`
	RedisHost     string `env:"REDIS_HOST" env-default:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" env-default:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD" env-default:""`
	RedisDB       int    `env:"REDIS_DB" env-default:"0"`
	// Sync lock TTL
	SyncLockTTL time.Duration `env:"SYNC_LOCK_TTL" env-default:"15m"`

	// Kafka (optional): when enabled, sync completions are published as events
	KafkaEnabled    bool   `env:"KAFKA_ENABLED" env-default:"false"`
	KafkaBrokers    string `env:"KAFKA_BROKERS" env-default:"localhost:9092"`
	KafkaEventTopic string `env:"KAFKA_EVENT_TOPIC" env-default:"rental-events"`

	// Tracing settings
	// Enable OTLP tracing export (set to true to send traces to collector)
	OTLPEnabled bool `env:"OTLP_ENABLED" env-default:"false"`
	// OTLP collector endpoint
	OTLPEndpoint string `env:"OTLP_ENDPOINT" env-default:"localhost:4317"`
	// OTLP protocol (grpc or http)
	OTLPProtocol string `env:"OTLP_PROTOCOL" env-default:"grpc"`
	// Disable TLS for OTLP (for local development)
	OTLPInsecure bool `env:"OTLP_INSECURE" env-default:"true"`
}

// APIKey returns the upstream API key, checking the accepted variable names in order.
func (c *Config) APIKey() (string, error) {
	if c.ZillowAPIKey != "" {
		return c.ZillowAPIKey, nil
	}
	if c.RapidAPIKey != "" {
		return c.RapidAPIKey, nil
	}
	return "", fmt.Errorf("missing Zillow API key: set ZILLOW_API_KEY or RAPIDAPI_KEY")
}

// DSN returns the Postgres connection string, preferring DATABASE_URL.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	parts := []string{
		"host=" + c.DatabaseHost,
		"port=" + c.DatabasePort,
		"user=" + c.DatabaseUserName,
		"password=" + c.DatabasePassword,
		"dbname=" + c.DatabaseName,
		"sslmode=" + c.DatabaseSSLMode,
	}
	return strings.Join(parts, " ")
}

// KafkaBrokerList splits the comma-separated broker string.
func (c *Config) KafkaBrokerList() []string {
	brokers := strings.Split(c.KafkaBrokers, ",")
	for i := range brokers {
		brokers[i] = strings.TrimSpace(brokers[i])
	}
	return brokers
}
