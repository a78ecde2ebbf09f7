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
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	OTP           OTPConfig
	AuthRateLimit AuthRateLimitConfig
	SMS           SMSConfig
	Zarinpal      ZarinpalConfig
	FeatureFlags  FeatureFlagsConfig
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
	Env          string `envconfig:"POLLPULSE_APP_ENV" required:"true"`
	Port         string `envconfig:"POLLPULSE_APP_PORT" required:"true"`
	BaseURL      string `envconfig:"POLLPULSE_APP_BASE_URL" default:"http://localhost:8080"`
	LogLevel     string `envconfig:"POLLPULSE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"POLLPULSE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"POLLPULSE_DB_DSN"`
	Driver string `envconfig:"POLLPULSE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"POLLPULSE_DB_HOST"`
	LegacyPort     int    `envconfig:"POLLPULSE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"POLLPULSE_DB_USER"`
	LegacyPassword string `envconfig:"POLLPULSE_DB_PASSWORD"`
	LegacyName     string `envconfig:"POLLPULSE_DB_NAME"`
	LegacySSLMode  string `envconfig:"POLLPULSE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"POLLPULSE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"POLLPULSE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"POLLPULSE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"POLLPULSE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"POLLPULSE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"POLLPULSE_REDIS_ADDR"`
	Password     string        `envconfig:"POLLPULSE_REDIS_PASSWORD"`
	DB           int           `envconfig:"POLLPULSE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"POLLPULSE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"POLLPULSE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"POLLPULSE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"POLLPULSE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"POLLPULSE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"POLLPULSE_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"POLLPULSE_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"POLLPULSE_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"POLLPULSE_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"POLLPULSE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"POLLPULSE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"POLLPULSE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"POLLPULSE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"POLLPULSE_ARGON_KEY_LEN" default:"32"`
}

type OTPConfig struct {
	CodeLength  int           `envconfig:"POLLPULSE_OTP_CODE_LENGTH" default:"6"`
	TTL         time.Duration `envconfig:"POLLPULSE_OTP_TTL" default:"2m"`
	MaxAttempts int           `envconfig:"POLLPULSE_OTP_MAX_ATTEMPTS" default:"5"`
}

type AuthRateLimitConfig struct {
	OTPWindow     time.Duration `envconfig:"POLLPULSE_AUTH_RATE_LIMIT_OTP_WINDOW" default:"1m"`
	OTPPhoneLimit int           `envconfig:"POLLPULSE_AUTH_RATE_LIMIT_OTP_PHONE_LIMIT" default:"3"`
	OTPIPLimit    int           `envconfig:"POLLPULSE_AUTH_RATE_LIMIT_OTP_IP_LIMIT" default:"20"`
}

type SMSConfig struct {
	APIKey      string        `envconfig:"POLLPULSE_SMS_API_KEY"`
	Sender      string        `envconfig:"POLLPULSE_SMS_SENDER"`
	BaseURL     string        `envconfig:"POLLPULSE_SMS_BASE_URL" default:"https://api.kavenegar.com"`
	HTTPTimeout time.Duration `envconfig:"POLLPULSE_SMS_HTTP_TIMEOUT" default:"10s"`
}

type ZarinpalConfig struct {
	MerchantID  string        `envconfig:"POLLPULSE_ZARINPAL_MERCHANT_ID"`
	BaseURL     string        `envconfig:"POLLPULSE_ZARINPAL_BASE_URL" default:"https://api.zarinpal.com"`
	PayBaseURL  string        `envconfig:"POLLPULSE_ZARINPAL_PAY_BASE_URL" default:"https://www.zarinpal.com/pg/StartPay"`
	CallbackURL string        `envconfig:"POLLPULSE_ZARINPAL_CALLBACK_URL"`
	HTTPTimeout time.Duration `envconfig:"POLLPULSE_ZARINPAL_HTTP_TIMEOUT" default:"15s"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"POLLPULSE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"POLLPULSE_AUTO_MIGRATE" default:"false"`
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
