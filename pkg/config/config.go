package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	Guest        GuestConfig
	Cloudinary   CloudinaryConfig
	Media        MediaConfig
	FeatureFlags FeatureFlagsConfig
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
	Env          string `envconfig:"ONMALL_APP_ENV" required:"true"`
	Port         string `envconfig:"ONMALL_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"ONMALL_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ONMALL_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"ONMALL_DB_DSN"`
	Driver string `envconfig:"ONMALL_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"ONMALL_DB_HOST"`
	LegacyPort     int    `envconfig:"ONMALL_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"ONMALL_DB_USER"`
	LegacyPassword string `envconfig:"ONMALL_DB_PASSWORD"`
	LegacyName     string `envconfig:"ONMALL_DB_NAME"`
	LegacySSLMode  string `envconfig:"ONMALL_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ONMALL_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ONMALL_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ONMALL_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ONMALL_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"ONMALL_REDIS_URL" required:"true"`
	Password     string        `envconfig:"ONMALL_REDIS_PASSWORD"`
	DB           int           `envconfig:"ONMALL_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ONMALL_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ONMALL_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ONMALL_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ONMALL_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ONMALL_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"ONMALL_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"ONMALL_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"ONMALL_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"ONMALL_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// Expiration returns the access token TTL configured in minutes.
func (j JWTConfig) Expiration() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"ONMALL_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"ONMALL_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"ONMALL_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"ONMALL_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"ONMALL_ARGON_KEY_LEN" default:"32"`
}

type GuestConfig struct {
	CookieName   string        `envconfig:"ONMALL_GUEST_COOKIE_NAME" default:"guest_id"`
	CookieTTL    time.Duration `envconfig:"ONMALL_GUEST_COOKIE_TTL" default:"720h"`
	CookieSecure bool          `envconfig:"ONMALL_GUEST_COOKIE_SECURE" default:"true"`
}

type CloudinaryConfig struct {
	CloudName string `envconfig:"ONMALL_CLOUDINARY_CLOUD_NAME" required:"true"`
	APIKey    string `envconfig:"ONMALL_CLOUDINARY_API_KEY" required:"true"`
	APISecret string `envconfig:"ONMALL_CLOUDINARY_API_SECRET" required:"true"`

	// Base endpoints, overridable so tests can point at a local server.
	UploadPrefix   string `envconfig:"ONMALL_CLOUDINARY_UPLOAD_PREFIX" default:"https://api.cloudinary.com"`
	DeliveryPrefix string `envconfig:"ONMALL_CLOUDINARY_DELIVERY_PREFIX" default:"https://res.cloudinary.com"`
}

type MediaConfig struct {
	MaxUploadMB   int           `envconfig:"ONMALL_MAX_UPLOAD_MB" default:"10"`
	SignedURLTTL  time.Duration `envconfig:"ONMALL_MEDIA_SIGNED_URL_TTL" default:"10m"`
	PreviewTTL    time.Duration `envconfig:"ONMALL_MEDIA_PREVIEW_TTL" default:"5m"`
	ViewerTTL     time.Duration `envconfig:"ONMALL_MEDIA_VIEWER_TTL" default:"1h"`
	KYCFolder     string        `envconfig:"ONMALL_MEDIA_KYC_FOLDER" default:"kyc"`
	ProductFolder string        `envconfig:"ONMALL_MEDIA_PRODUCT_FOLDER" default:"products"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"ONMALL_AUTO_MIGRATE" default:"false"`
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
