package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix is applied to every environment variable consumed here.
	EnvPrefix = "HAVEN"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	GCP           GCPConfig
	GCS           GCSConfig
	Media         MediaConfig
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
	Env          string `envconfig:"HAVEN_APP_ENV" required:"true"`
	Port         string `envconfig:"HAVEN_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"HAVEN_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"HAVEN_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"HAVEN_DB_DSN"`

	Host     string `envconfig:"HAVEN_DB_HOST"`
	Port     int    `envconfig:"HAVEN_DB_PORT" default:"5432"`
	User     string `envconfig:"HAVEN_DB_USER"`
	Password string `envconfig:"HAVEN_DB_PASSWORD"`
	Name     string `envconfig:"HAVEN_DB_NAME"`
	SSLMode  string `envconfig:"HAVEN_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"HAVEN_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"HAVEN_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"HAVEN_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"HAVEN_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"HAVEN_REDIS_URL" required:"true"`
	Address      string        `envconfig:"HAVEN_REDIS_ADDR"`
	Password     string        `envconfig:"HAVEN_REDIS_PASSWORD"`
	DB           int           `envconfig:"HAVEN_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"HAVEN_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"HAVEN_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"HAVEN_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"HAVEN_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"HAVEN_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"HAVEN_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"HAVEN_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"HAVEN_JWT_EXPIRATION_MINUTES" required:"true"`
	SessionTTLMinutes int    `envconfig:"HAVEN_SESSION_TTL_MINUTES" default:"43200"`
}

// SessionTTL returns the redis session lifetime configured in minutes.
func (j JWTConfig) SessionTTL() time.Duration {
	if j.SessionTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.SessionTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"HAVEN_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"HAVEN_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"HAVEN_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"HAVEN_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"HAVEN_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"HAVEN_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"HAVEN_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"HAVEN_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"HAVEN_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"HAVEN_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"HAVEN_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate   bool   `envconfig:"HAVEN_AUTO_MIGRATE" default:"false"`
	GCSAccessMode string `envconfig:"HAVEN_GCS_ACCESS_MODE" default:"public"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"HAVEN_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"HAVEN_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"HAVEN_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName        string        `envconfig:"HAVEN_GCS_BUCKET_NAME" required:"true"`
	DownloadURLExpiry time.Duration `envconfig:"HAVEN_GCS_DOWNLOAD_URL_EXPIRY" default:"1h"`
}

type MediaConfig struct {
	MaxUploadMB         int `envconfig:"HAVEN_MAX_UPLOAD_MB" default:"10"`
	MaxImagesPerProduct int `envconfig:"HAVEN_MEDIA_MAX_IMAGES_PER_PRODUCT" default:"8"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	for _, part := range []struct {
		env   string
		value string
	}{
		{"HAVEN_DB_HOST", db.Host},
		{"HAVEN_DB_USER", db.User},
		{"HAVEN_DB_NAME", db.Name},
	} {
		if part.value == "" {
			missing = append(missing, part.env)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("either HAVEN_DB_DSN or %s are required", strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
