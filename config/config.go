package config

import (
	"log"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

var Cfg Config

type Config struct {
	// 服务配置
	ServerPort  string `env:"SERVER_PORT" envDefault:"8888"`
	ServerHost  string `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"` // development, staging, production
	ServiceName string `env:"SERVICE_NAME" envDefault:"tripmate"`
	// 变更总线上的实例标识，留空则每次启动随机生成
	InstanceID string `env:"INSTANCE_ID"`

	// PostgreSQL 配置
	PostgreSQLHost     string `env:"POSTGRESQL_HOST" envDefault:"localhost"`
	PostgreSQLPort     string `env:"POSTGRESQL_PORT" envDefault:"5432"`
	PostgreSQLUser     string `env:"POSTGRESQL_USER" envDefault:"postgres"`
	PostgreSQLPassword string `env:"POSTGRESQL_PASSWORD" envDefault:"postgres"`
	PostgreSQLDatabase string `env:"POSTGRESQL_DATABASE" envDefault:"tripmate"`
	PostgreSQLSchema   string `env:"POSTGRESQL_SCHEMA" envDefault:"public"`
	PostgreSQLSSLMode  string `env:"POSTGRESQL_SSLMODE" envDefault:"disable"`
	PostgreSQLMaxIdle  int    `env:"POSTGRESQL_MAX_IDLE" envDefault:"30"`
	PostgreSQLMaxOpen  int    `env:"POSTGRESQL_MAX_OPEN" envDefault:"200"`
	// 只读副本，留空则不启用 dbresolver
	PostgreSQLReplicaHost string `env:"POSTGRESQL_REPLICA_HOST"`
	PostgreSQLReplicaPort string `env:"POSTGRESQL_REPLICA_PORT" envDefault:"5432"`

	// Redis 配置
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	RedisPrefix   string `env:"REDIS_PREFIX" envDefault:"tm"`

	// RabbitMQ 配置
	RabbitMQAddr      string `env:"RABBITMQ_ADDR" envDefault:"localhost"`
	RabbitMQPort      string `env:"RABBITMQ_PORT" envDefault:"5672"`
	RabbitMQUsername  string `env:"RABBITMQ_USERNAME" envDefault:"guest"`
	RabbitMQPassword  string `env:"RABBITMQ_PASSWORD" envDefault:"guest"`
	RabbitMQVhost     string `env:"RABBITMQ_VHOST" envDefault:"/"`
	ChangeExchange    string `env:"CHANGE_EXCHANGE" envDefault:"trip.changes"`
	ChangePushQueue   string `env:"CHANGE_PUSH_QUEUE" envDefault:"trip.changes.push"`
	ChangePrefetch    int    `env:"CHANGE_PREFETCH" envDefault:"32"`
	RefreshDebounceMs int    `env:"REFRESH_DEBOUNCE_MS" envDefault:"0"`
	WorkspaceIdleMins int    `env:"WORKSPACE_IDLE_MINUTES" envDefault:"30"`

	// Snowflake ID 生成器配置
	SnowflakeMachineID  int64 `env:"SNOWFLAKE_MACHINE_ID" envDefault:"1"`
	SnowflakeDataCenter int64 `env:"SNOWFLAKE_DATACENTER_ID" envDefault:"1"`

	// 日志配置
	LoggerLevel      string `env:"LOGGER_LEVEL" envDefault:"INFO"`
	LoggerFormat     string `env:"LOGGER_FORMAT" envDefault:"text"` // json, text
	LoggerOutputPath string `env:"LOGGER_OUTPUT_PATH" envDefault:"stdout"`

	// OpenTelemetry
	OTelEnabled     bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTelEndpoint    string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4317"`
	OTelSampleRatio float64 `env:"OTEL_SAMPLE_RATIO" envDefault:"0.1"`
	ServiceVersion  string  `env:"SERVICE_VERSION" envDefault:"dev"`

	// 速率限制配置, 配置在中间件内
	RateLimitEnabled bool `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	RateLimitWindow  int  `env:"RATE_LIMIT_WINDOW" envDefault:"60"`
	RateLimitMax     int  `env:"RATE_LIMIT_MAX" envDefault:"120"`

	// 地图/地点搜索
	GeocodeProvider string  `env:"GEOCODE_PROVIDER" envDefault:"google"` // google, mock
	GoogleMapsKey   string  `env:"GOOGLE_MAPS_API_KEY"`
	GeocodeQPS      float64 `env:"GEOCODE_QPS" envDefault:"10"`
	GeocodeLanguage string  `env:"GEOCODE_LANGUAGE" envDefault:"ko"`
	MapViewWidth    int     `env:"MAP_VIEW_WIDTH" envDefault:"800"`
	MapViewHeight   int     `env:"MAP_VIEW_HEIGHT" envDefault:"400"`

	// 对象存储
	StorageProvider   string `env:"STORAGE_PROVIDER" envDefault:"s3"` // s3, mock
	S3Bucket          string `env:"S3_ASSETS_BUCKET"`
	S3Region          string `env:"AWS_REGION" envDefault:"ap-northeast-2"`
	S3PresignMinutes  int    `env:"S3_PRESIGN_MINUTES" envDefault:"10080"`
	ImageMaxSizeBytes int64  `env:"IMAGE_MAX_SIZE_BYTES" envDefault:"10485760"`

	// Pusher
	PusherAppID   string `env:"PUSHER_APP_ID"`
	PusherKey     string `env:"PUSHER_KEY"`
	PusherSecret  string `env:"PUSHER_SECRET"`
	PusherCluster string `env:"PUSHER_CLUSTER" envDefault:"ap3"`

	// 巡检任务
	LinkAuditIntervalMins int `env:"LINK_AUDIT_INTERVAL_MINUTES" envDefault:"60"`
}

func init() {
	if err := godotenv.Load(); err != nil {
		log.Printf("WARN: Cannot load .env file: %v, using environment variables", err)
	}

	Cfg = Config{}
	if err := env.Parse(&Cfg); err != nil {
		log.Fatalf("Failed to parse environment variables: %v", err)
	}

	validateConfig()
}

func validateConfig() {
	if Cfg.GoogleMapsKey == "" && Cfg.GeocodeProvider == "google" {
		log.Printf("WARN: GOOGLE_MAPS_API_KEY is not set, place search and map views will report GEOCODE_UNAVAILABLE")
	}

	if Cfg.S3Bucket == "" && Cfg.StorageProvider == "s3" {
		log.Printf("WARN: S3_ASSETS_BUCKET is not set, image upload will not work")
	}

	if Cfg.PusherAppID == "" || Cfg.PusherKey == "" || Cfg.PusherSecret == "" {
		log.Printf("WARN: Pusher credentials are not set, browser push is disabled")
	}

	if Cfg.SnowflakeMachineID < 0 || Cfg.SnowflakeMachineID > 31 {
		log.Printf("WARN: SNOWFLAKE_MACHINE_ID must be within 0..31")
	}
}

func (c *Config) GetDSN() string {
	return buildDSN(c, c.PostgreSQLHost, c.PostgreSQLPort)
}

// GetReplicaDSN 返回只读副本 DSN，未配置时返回空串
func (c *Config) GetReplicaDSN() string {
	if c.PostgreSQLReplicaHost == "" {
		return ""
	}
	return buildDSN(c, c.PostgreSQLReplicaHost, c.PostgreSQLReplicaPort)
}

func buildDSN(c *Config, host, port string) string {
	return "host=" + host +
		" port=" + port +
		" user=" + c.PostgreSQLUser +
		" password=" + c.PostgreSQLPassword +
		" dbname=" + c.PostgreSQLDatabase +
		" sslmode=" + c.PostgreSQLSSLMode +
		" search_path=" + c.PostgreSQLSchema
}

func (c *Config) GetRabbitMQURL() string {
	return "amqp://" + c.RabbitMQUsername + ":" + c.RabbitMQPassword + "@" + c.RabbitMQAddr + ":" + c.RabbitMQPort + c.RabbitMQVhost
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) PusherEnabled() bool {
	return c.PusherAppID != "" && c.PusherKey != "" && c.PusherSecret != ""
}
