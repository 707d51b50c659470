package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Security SecurityConfig
	Email    EmailConfig
	Assets   AssetsConfig
}

type DatabaseConfig struct {
	Host              string
	Port              int
	User              string
	Password          string
	Name              string
	SSLMode           string
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
}

type ServerConfig struct {
	Port           string
	Env            string
	LogLevel       string
	AllowedOrigins []string
	TrustedProxies []string
}

type SecurityConfig struct {
	IPHashSalt         string
	AdminPassword      string
	AdminPasswordHash  string // optional bcrypt hash; takes precedence over AdminPassword
	AdminTOTPSecret    string // optional second factor
	AdminSessionSecret string
	AdminSessionExpiry time.Duration
	CronSecret         string
	TurnstileSecretKey string

	// BlockStoreFailOpen flips the fail-closed default for IsBlocked when
	// the block store is unreachable. Leave false unless an outage of the
	// database is considered worse than letting abusive traffic through.
	BlockStoreFailOpen bool

	AdminMaxAttempts   int
	AdminAttemptWindow time.Duration
	FormMaxRequests    int
	FormRequestWindow  time.Duration
	GeneralRatePerMin  int
	DefaultBlockMins   int
	CleanupInterval    time.Duration
}

type EmailConfig struct {
	AWSRegion   string
	FromAddress string
	SiteBaseURL string
}

type AssetsConfig struct {
	BaseURL      string
	FetchTimeout time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	env := getEnv("ENV", "development")

	cfg := &Config{
		Database: DatabaseConfig{
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              getEnvAsInt("DB_PORT", 5432),
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", ""),
			Name:              getEnv("DB_NAME", "pawtrait"),
			SSLMode:           getEnv("DB_SSLMODE", "disable"),
			MaxConns:          int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns:          int32(getEnvAsInt("DB_MIN_CONNS", 5)),
			MaxConnLifetime:   getEnvAsDuration("DB_MAX_CONN_LIFETIME", 5*time.Minute),
			MaxConnIdleTime:   getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 1*time.Minute),
			HealthCheckPeriod: getEnvAsDuration("DB_HEALTH_CHECK_PERIOD", 1*time.Minute),
		},
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Env:            env,
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			AllowedOrigins: parseAllowedOrigins(env),
			TrustedProxies: parseCommaList(getEnv("TRUSTED_PROXIES", "")),
		},
		Security: SecurityConfig{
			IPHashSalt:         getEnv("IP_HASH_SALT", ""),
			AdminPassword:      getEnv("ADMIN_PASSWORD", ""),
			AdminPasswordHash:  getEnv("ADMIN_PASSWORD_HASH", ""),
			AdminTOTPSecret:    getEnv("ADMIN_TOTP_SECRET", ""),
			AdminSessionSecret: getEnv("ADMIN_SESSION_SECRET", ""),
			AdminSessionExpiry: getEnvAsDuration("ADMIN_SESSION_EXPIRY", 1*time.Hour),
			CronSecret:         getEnv("CRON_SECRET", ""),
			TurnstileSecretKey: getEnv("TURNSTILE_SECRET_KEY", ""),
			BlockStoreFailOpen: getEnvAsBool("IPBLOCK_FAIL_OPEN", false),
			AdminMaxAttempts:   getEnvAsInt("ADMIN_MAX_ATTEMPTS", 5),
			AdminAttemptWindow: getEnvAsDuration("ADMIN_ATTEMPT_WINDOW", 15*time.Minute),
			FormMaxRequests:    getEnvAsInt("FORM_MAX_REQUESTS", 5),
			FormRequestWindow:  getEnvAsDuration("FORM_REQUEST_WINDOW", 10*time.Minute),
			GeneralRatePerMin:  getEnvAsInt("GENERAL_RATE_PER_MIN", 60),
			DefaultBlockMins:   getEnvAsInt("DEFAULT_BLOCK_MINUTES", 60),
			CleanupInterval:    getEnvAsDuration("CLEANUP_INTERVAL", 1*time.Hour),
		},
		Email: EmailConfig{
			AWSRegion:   getEnv("AWS_REGION", "us-east-1"),
			FromAddress: getEnv("EMAIL_FROM", "hello@pawtrait.studio"),
			SiteBaseURL: getEnv("SITE_BASE_URL", "https://pawtrait.studio"),
		},
		Assets: AssetsConfig{
			BaseURL:      getEnv("ASSETS_BASE_URL", ""),
			FetchTimeout: getEnvAsDuration("ASSETS_FETCH_TIMEOUT", 15*time.Second),
		},
	}

	if cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}

	// Production refuses to start without the secrets the security layer
	// depends on; development degrades with warnings instead.
	if env == "production" {
		if cfg.Security.IPHashSalt == "" {
			return nil, fmt.Errorf("IP_HASH_SALT is required in production")
		}
		if cfg.Security.AdminPassword == "" && cfg.Security.AdminPasswordHash == "" {
			return nil, fmt.Errorf("ADMIN_PASSWORD or ADMIN_PASSWORD_HASH is required in production")
		}
		if cfg.Security.CronSecret == "" {
			return nil, fmt.Errorf("CRON_SECRET is required in production")
		}
		if err := validateSessionSecret(cfg.Security.AdminSessionSecret); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// validateSessionSecret enforces minimum strength for the admin session signing key
func validateSessionSecret(secret string) error {
	if len(secret) < 32 {
		return fmt.Errorf("ADMIN_SESSION_SECRET must be at least 32 characters in production (got %d)", len(secret))
	}

	weakSecrets := []string{
		"secret", "test", "password", "12345", "changeme",
		"admin", "root", "default", "example",
	}

	secretLower := strings.ToLower(secret)
	for _, weak := range weakSecrets {
		if secretLower == weak {
			return fmt.Errorf("ADMIN_SESSION_SECRET cannot be a common weak value")
		}
	}

	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}

func parseCommaList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

func parseAllowedOrigins(env string) []string {
	if env == "production" {
		originsStr := getEnv("ALLOWED_ORIGINS", "")
		if originsStr == "" {
			return []string{}
		}
		origins := strings.Split(originsStr, ",")
		for i, origin := range origins {
			origins[i] = strings.TrimSpace(origin)
		}
		return origins
	}

	// Development: allow localhost variants
	return []string{
		"http://localhost:3000",
		"http://localhost:8080",
		"http://localhost:5173",
		"http://127.0.0.1:3000",
		"http://127.0.0.1:8080",
		"http://127.0.0.1:5173",
	}
}
