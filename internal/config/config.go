package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	TransportBearer = "bearer"
	TransportCookie = "cookie"

	minSecretLen = 32
)

type Config struct {
	ServiceName string
	ServerPort  int
	LogLevel    string

	DBDriver    string
	DatabaseURL string

	JWTSecret        []byte
	JWTRefreshSecret []byte
	AccessTTL        time.Duration
	RefreshTTL       time.Duration

	AuthTransport string
	CookieSecure  bool

	AllowAdminRegistration bool
	AdminUsername          string
	AdminEmail             string
	AdminPassword          string

	KafkaBrokers []string

	RequestTimeout time.Duration
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("notice: cannot read .env: %v, using system environment", err)
	}
	return FromEnv()
}

func FromEnv() (*Config, error) {
	cfg := &Config{
		ServiceName: EnvDefault("SERVICE_NAME", "restoran"),
		ServerPort:  EnvIntDefault("SERVER_PORT", 8080),
		LogLevel:    EnvDefault("LOG_LEVEL", "info"),

		DBDriver:    strings.ToLower(EnvDefault("DB_DRIVER", DriverPostgres)),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		JWTSecret:        []byte(os.Getenv("JWT_SECRET")),
		JWTRefreshSecret: []byte(os.Getenv("JWT_REFRESH_SECRET")),
		AccessTTL:        EnvDurationDefault("JWT_ACCESS_TTL", 30*time.Minute),
		RefreshTTL:       EnvDurationDefault("JWT_REFRESH_TTL", 7*24*time.Hour),

		AuthTransport: strings.ToLower(EnvDefault("AUTH_TRANSPORT", TransportBearer)),
		CookieSecure:  EnvBoolDefault("COOKIE_SECURE", true),

		AllowAdminRegistration: EnvBoolDefault("ALLOW_ADMIN_REGISTRATION", false),
		AdminUsername:          os.Getenv("ADMIN_USERNAME"),
		AdminEmail:             os.Getenv("ADMIN_EMAIL"),
		AdminPassword:          os.Getenv("ADMIN_PASSWORD"),

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),

		RequestTimeout: EnvDurationDefault("REQUEST_TIMEOUT", 10*time.Second),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.DBDriver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.DatabaseURL == "" {
		return errors.New("missing required env DATABASE_URL")
	}
	if len(c.JWTSecret) < minSecretLen {
		return fmt.Errorf("JWT_SECRET must be at least %d bytes", minSecretLen)
	}
	if len(c.JWTRefreshSecret) < minSecretLen {
		return fmt.Errorf("JWT_REFRESH_SECRET must be at least %d bytes", minSecretLen)
	}
	switch c.AuthTransport {
	case TransportBearer, TransportCookie:
	default:
		return fmt.Errorf("unsupported AUTH_TRANSPORT %q", c.AuthTransport)
	}
	if c.AdminUsername != "" && (c.AdminEmail == "" || c.AdminPassword == "") {
		return errors.New("ADMIN_USERNAME requires ADMIN_EMAIL and ADMIN_PASSWORD")
	}
	return nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.ServerPort)
}
