package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	APIRateLimit  APIRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	CJ            CJConfig
	Zendrop       ZendropConfig
	AppScenic     AppScenicConfig
	Twilio        TwilioConfig
	Sendgrid      SendgridConfig
	Fulfillment   FulfillmentConfig
	Webhooks      WebhooksConfig
	Cron          CronConfig
	Telemetry     TelemetryConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"DROPSHIP_APP_ENV" required:"true"`
	Port         string `envconfig:"DROPSHIP_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"DROPSHIP_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"DROPSHIP_LOG_WARN_STACK" default:"false"`
	StoreName    string `envconfig:"DROPSHIP_STORE_NAME" default:"Dropship Store"`
	StoreURL     string `envconfig:"DROPSHIP_STORE_URL" default:"http://localhost:3000"`
	// CORSOrigins is a comma separated list of storefront and admin origins.
	CORSOrigins []string `envconfig:"DROPSHIP_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"DROPSHIP_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"DROPSHIP_DB_DSN"`
	Driver string `envconfig:"DROPSHIP_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"DROPSHIP_DB_HOST"`
	LegacyPort     int    `envconfig:"DROPSHIP_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"DROPSHIP_DB_USER"`
	LegacyPassword string `envconfig:"DROPSHIP_DB_PASSWORD"`
	LegacyName     string `envconfig:"DROPSHIP_DB_NAME"`
	LegacySSLMode  string `envconfig:"DROPSHIP_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"DROPSHIP_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DROPSHIP_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DROPSHIP_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"DROPSHIP_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the configured driver is the embedded SQLite engine.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"DROPSHIP_REDIS_URL" required:"true"`
	Address      string        `envconfig:"DROPSHIP_REDIS_ADDR"`
	Password     string        `envconfig:"DROPSHIP_REDIS_PASSWORD"`
	DB           int           `envconfig:"DROPSHIP_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"DROPSHIP_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"DROPSHIP_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"DROPSHIP_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"DROPSHIP_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"DROPSHIP_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"DROPSHIP_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"DROPSHIP_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"DROPSHIP_JWT_EXPIRATION_MINUTES" default:"720"`
}

// TTL returns the admin token lifetime.
func (j JWTConfig) TTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"DROPSHIP_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"DROPSHIP_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"DROPSHIP_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"DROPSHIP_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"DROPSHIP_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"DROPSHIP_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit int           `envconfig:"DROPSHIP_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"DROPSHIP_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

// APIRateLimitConfig throttles the storefront by client IP and the admin API
// by admin id. A zero limit disables that surface.
type APIRateLimitConfig struct {
	Window      time.Duration `envconfig:"DROPSHIP_API_RATE_LIMIT_WINDOW" default:"1m"`
	PublicLimit int           `envconfig:"DROPSHIP_API_RATE_LIMIT_PUBLIC" default:"120"`
	AdminLimit  int           `envconfig:"DROPSHIP_API_RATE_LIMIT_ADMIN" default:"600"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"DROPSHIP_AUTO_MIGRATE" default:"false"`
}

type CJConfig struct {
	BaseURL string        `envconfig:"DROPSHIP_CJ_BASE_URL" default:"https://api.cjdropshipping.com/api/v1"`
	Timeout time.Duration `envconfig:"DROPSHIP_CJ_TIMEOUT" default:"10s"`
	// WebhookSecret signs supplier callbacks. Empty accepts unsigned callbacks in dev only.
	WebhookSecret string `envconfig:"DROPSHIP_CJ_WEBHOOK_SECRET"`
}

type ZendropConfig struct {
	BaseURL       string        `envconfig:"DROPSHIP_ZENDROP_BASE_URL" default:"https://api.zendrop.com/v2"`
	Timeout       time.Duration `envconfig:"DROPSHIP_ZENDROP_TIMEOUT" default:"10s"`
	WebhookSecret string        `envconfig:"DROPSHIP_ZENDROP_WEBHOOK_SECRET"`
}

type AppScenicConfig struct {
	BaseURL string        `envconfig:"DROPSHIP_APPSCENIC_BASE_URL" default:"https://api.appscenic.com/v1"`
	Timeout time.Duration `envconfig:"DROPSHIP_APPSCENIC_TIMEOUT" default:"10s"`
}

type TwilioConfig struct {
	AccountSID string `envconfig:"DROPSHIP_TWILIO_ACCOUNT_SID"`
	AuthToken  string `envconfig:"DROPSHIP_TWILIO_AUTH_TOKEN"`
	FromNumber string `envconfig:"DROPSHIP_TWILIO_FROM_NUMBER"`
	BaseURL    string `envconfig:"DROPSHIP_TWILIO_BASE_URL" default:"https://api.twilio.com"`
}

// Enabled reports whether enough credentials exist to send SMS.
func (t TwilioConfig) Enabled() bool {
	return t.AccountSID != "" && t.AuthToken != "" && t.FromNumber != ""
}

type SendgridConfig struct {
	APIKey      string `envconfig:"DROPSHIP_SENDGRID_API_KEY"`
	DefaultFrom string `envconfig:"DROPSHIP_SENDGRID_FROM_EMAIL"`
	FromName    string `envconfig:"DROPSHIP_SENDGRID_FROM_NAME" default:"Store"`
	BaseURL     string `envconfig:"DROPSHIP_SENDGRID_BASE_URL" default:"https://api.sendgrid.com"`
}

// Enabled reports whether enough credentials exist to send email.
func (s SendgridConfig) Enabled() bool {
	return s.APIKey != "" && s.DefaultFrom != ""
}

// FulfillmentConfig seeds the automation block of the platform config row
// when the row does not exist yet.
type FulfillmentConfig struct {
	AutoFulfill       bool          `envconfig:"DROPSHIP_FULFILLMENT_AUTO_FULFILL" default:"true"`
	AutoSync          bool          `envconfig:"DROPSHIP_FULFILLMENT_AUTO_SYNC" default:"false"`
	SyncInterval      time.Duration `envconfig:"DROPSHIP_FULFILLMENT_SYNC_INTERVAL" default:"1h"`
	MinStockThreshold int           `envconfig:"DROPSHIP_FULFILLMENT_MIN_STOCK" default:"5"`
	Warehouse         string        `envconfig:"DROPSHIP_FULFILLMENT_WAREHOUSE" default:"CN"`
	ShippingMethod    string        `envconfig:"DROPSHIP_FULFILLMENT_SHIPPING_METHOD" default:"ePacket"`
}

type WebhooksConfig struct {
	DedupeTTL    time.Duration `envconfig:"DROPSHIP_WEBHOOK_DEDUPE_TTL" default:"72h"`
	MaxBodyBytes int64         `envconfig:"DROPSHIP_WEBHOOK_MAX_BODY_BYTES" default:"1048576"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"DROPSHIP_CRON_INTERVAL" default:"15m"`
	LockTTL  time.Duration `envconfig:"DROPSHIP_CRON_LOCK_TTL" default:"30m"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}

// TelemetryConfig enables OTLP trace export. Tracing is a no-op when disabled.
type TelemetryConfig struct {
	Enabled       bool    `envconfig:"DROPSHIP_OTEL_ENABLED" default:"false"`
	Endpoint      string  `envconfig:"DROPSHIP_OTEL_ENDPOINT" default:"localhost:4317"`
	Insecure      bool    `envconfig:"DROPSHIP_OTEL_INSECURE" default:"true"`
	SamplingRatio float64 `envconfig:"DROPSHIP_OTEL_SAMPLING_RATIO" default:"1"`
}
