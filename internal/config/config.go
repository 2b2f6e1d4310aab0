package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host         string
	Port         int `validate:"gt=0"`
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	TrustedProxies []string
}

type PostgresConfig struct {
	DSN             string `validate:"required"`
	MaxOpen         int
	MaxIdle         int
	ConnMaxLifetime time.Duration
}

type MongoConfig struct {
	URI      string `validate:"required"`
	Database string `validate:"required"`
}

type RedisConfig struct {
	Addr     string `validate:"required"`
	Password string
	DB       int
	Stream   string `validate:"required"`
}

type StorageConfig struct {
	Endpoint  string `validate:"required"`
	AccessKey string
	SecretKey string
	Bucket    string `validate:"required"`
	PublicURL string
	UseSSL    bool
	Region    string
}

type AvatarConfig struct {
	Folder   string `validate:"required"`
	MaxWidth int    `validate:"gt=0"`
}

type SecurityConfig struct {
	SessionSecret    string `validate:"required,min=16"`
	ActivationSecret string `validate:"required,min=16"`
	SessionTTL       time.Duration
	ActivationTTL    time.Duration
	CookieName       string `validate:"required"`
	CookieSecure     bool
}

type MailConfig struct {
	Provider     string `validate:"oneof=smtp resend"`
	Host         string
	Port         int
	Username     string
	Password     string
	From         string `validate:"required"`
	ResendAPIKey string
}

type AppConfig struct {
	ActivationURL string `validate:"required"`
}

type AuditConfig struct {
	Buffer  int `validate:"gt=0"`
	Timeout time.Duration
}

type RateLimitConfig struct {
	PerSecond float64
	Burst     int
}

type CleanupConfig struct {
	Schedule         string
	PendingRetention time.Duration
}

type WorkerConfig struct {
	Group         string
	Consumer      string
	ClaimInterval time.Duration
	MaxRetries    int `validate:"gte=0"`
	LogLevel      string
}

type Config struct {
	Environment      string
	HTTP             HTTPConfig
	Postgres         PostgresConfig
	Mongo            MongoConfig
	Redis            RedisConfig
	Storage          StorageConfig
	Avatar           AvatarConfig
	Security         SecurityConfig
	Mail             MailConfig
	App              AppConfig
	Audit            AuditConfig
	RateLimit        RateLimitConfig
	Cleanup          CleanupConfig
	Worker           WorkerConfig
	AllowCORSOrigins []string
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")

	v.SetEnvPrefix("ESHOP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8000)
	v.SetDefault("http.readtimeout", "10s")
	v.SetDefault("http.writetimeout", "30s")
	v.SetDefault("http.idletimeout", "60s")
	v.SetDefault("http.trustedproxies", []string{})

	v.SetDefault("postgres.dsn", "")
	v.SetDefault("postgres.maxopen", 20)
	v.SetDefault("postgres.maxidle", 2)
	v.SetDefault("postgres.connmaxlifetime", "30m")

	v.SetDefault("mongo.uri", "mongodb://127.0.0.1:27017")
	v.SetDefault("mongo.database", "eshop")

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.stream", "account:tasks")

	v.SetDefault("storage.endpoint", "127.0.0.1:9000")
	v.SetDefault("storage.accesskey", "")
	v.SetDefault("storage.secretkey", "")
	v.SetDefault("storage.bucket", "eshop-media")
	v.SetDefault("storage.publicurl", "")
	v.SetDefault("storage.usessl", false)
	v.SetDefault("storage.region", "us-east-1")

	v.SetDefault("avatar.folder", "avatars")
	v.SetDefault("avatar.maxwidth", 500)

	v.SetDefault("security.sessionsecret", "")
	v.SetDefault("security.activationsecret", "")
	v.SetDefault("security.sessionttl", "168h")
	v.SetDefault("security.activationttl", "5m")
	v.SetDefault("security.cookiename", "token")
	v.SetDefault("security.cookiesecure", true)

	v.SetDefault("mail.provider", "smtp")
	v.SetDefault("mail.host", "")
	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.username", "")
	v.SetDefault("mail.password", "")
	v.SetDefault("mail.from", "no-reply@eshop.local")
	v.SetDefault("mail.resendapikey", "")

	v.SetDefault("app.activationurl", "http://localhost:3000/activation")

	v.SetDefault("audit.buffer", 256)
	v.SetDefault("audit.timeout", "5s")

	v.SetDefault("ratelimit.persecond", 5)
	v.SetDefault("ratelimit.burst", 10)

	v.SetDefault("cleanup.schedule", "0 0 3 * * *")
	v.SetDefault("cleanup.pendingretention", "72h")

	v.SetDefault("worker.group", "account-workers")
	v.SetDefault("worker.consumer", "worker-1")
	v.SetDefault("worker.claiminterval", "30s")
	v.SetDefault("worker.maxretries", 5)
	v.SetDefault("worker.loglevel", "info")

	v.SetDefault("allowcorsorigins", []string{})
}
