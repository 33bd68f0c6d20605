package config

import (
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	CORS      CORSConfig
	Email     EmailConfig
	Team      TeamConfig
	RateLimit RateLimitConfig
	Session   SessionConfig
	Redis     RedisConfig
}

// AppConfig holds application-level configuration
type AppConfig struct {
	Name    string
	Version string
	Debug   bool
	Port    string
	Host    string

	// TrustedProxies lists the peers (IPs or CIDRs) whose X-Forwarded-For
	// and X-Real-IP headers are believed. Empty means the socket address is
	// always the client address.
	TrustedProxies []string
}

// TrustedProxyPrefixes parses TrustedProxies. Bare addresses become
// single-host prefixes.
func (c *AppConfig) TrustedProxyPrefixes() ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(c.TrustedProxies))
	for _, entry := range c.TrustedProxies {
		if entry == "" {
			continue
		}
		if strings.Contains(entry, "/") {
			p, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, fmt.Errorf("invalid TRUSTED_PROXIES entry %q: %w", entry, err)
			}
			prefixes = append(prefixes, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, fmt.Errorf("invalid TRUSTED_PROXIES entry %q: %w", entry, err)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string
}

// AuthConfig holds admin authentication configuration
type AuthConfig struct {
	SecretKey            string
	SessionTTLMinutes    int
	CookieName           string
	CookieSecure         bool
	DefaultAdminUsername string
	DefaultAdminPassword string
}

// SessionTTL returns the lifetime of an admin session.
func (c *AuthConfig) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	MaxAge         int
}

// Email providers understood by mail.New.
const (
	EmailProviderSMTP     = "smtp"
	EmailProviderSendGrid = "sendgrid"
	EmailProviderConsole  = "console"
)

// EmailConfig holds email service configuration
type EmailConfig struct {
	Enabled         bool
	Provider        string // "smtp", "sendgrid", "console" (for development)
	SMTPHost        string
	SMTPPort        int
	Username        string
	Password        string
	SendGridAPIKey  string
	SendGridBaseURL string
	FromEmail       string
	FromName        string
	CompanyEmail    string
	CompanyName     string
}

// TeamConfig holds the routing directory for contact inquiries.
type TeamConfig struct {
	// File optionally points at a TOML file overriding Members.
	File    string
	Members map[string]TeamMember
}

// TeamMember is a routing target selectable on the contact form.
type TeamMember struct {
	Name  string `toml:"name"`
	Email string `toml:"email"`
}

// RateLimitConfig holds per-address admission control for the contact form
type RateLimitConfig struct {
	Backend       string // "memory" or "redis"
	ContactMax    int
	ContactWindow time.Duration
}

// SessionConfig holds admin session storage configuration
type SessionConfig struct {
	Backend string // "memory" or "redis"
}

// RedisConfig holds the connection used by redis-backed sessions and counters
type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		App: AppConfig{
			Name:    getEnv("APP_NAME", "Menu Makers API"),
			Version: getEnv("APP_VERSION", "1.0.0"),
			Debug:   getEnvAsBool("DEBUG", false),
			Port:    getEnv("PORT", "3000"),
			Host:    getEnv("HOST", "0.0.0.0"),

			TrustedProxies: getEnvAsSlice("TRUSTED_PROXIES", nil),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", "sqlite:///./client_inquiries.db"),
		},
		Auth: AuthConfig{
			SecretKey:            getEnv("SECRET_KEY", "your-secret-key-change-in-production"),
			SessionTTLMinutes:    getEnvAsInt("SESSION_TTL_MINUTES", 24*60),
			CookieName:           getEnv("SESSION_COOKIE_NAME", "admin_session"),
			CookieSecure:         getEnvAsBool("SESSION_COOKIE_SECURE", !getEnvAsBool("DEBUG", false)),
			DefaultAdminUsername: getEnv("ADMIN_USERNAME", "admin"),
			DefaultAdminPassword: getEnv("ADMIN_PASSWORD", ""),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("ALLOWED_HOSTS", []string{"*"}),
			AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type", "Authorization", "X-Request-ID"},
			MaxAge:         86400,
		},
		Email: EmailConfig{
			Enabled:         getEnvAsBool("EMAIL_ENABLED", false),
			Provider:        strings.ToLower(getEnv("EMAIL_PROVIDER", EmailProviderSMTP)),
			SMTPHost:        getEnv("SMTP_HOST", "smtp.gmail.com"),
			SMTPPort:        getEnvAsInt("SMTP_PORT", 587),
			Username:        getEnv("EMAIL_USER", ""),
			Password:        getEnv("EMAIL_PASS", ""),
			SendGridAPIKey:  getEnv("SENDGRID_API_KEY", ""),
			SendGridBaseURL: getEnv("SENDGRID_BASE_URL", "https://api.sendgrid.com"),
			FromEmail:       getEnv("EMAIL_FROM", getEnv("EMAIL_USER", "menumakers17@gmail.com")),
			FromName:        getEnv("EMAIL_FROM_NAME", "Menu Makers"),
			CompanyEmail:    getEnv("COMPANY_EMAIL", "menumakers17@gmail.com"),
			CompanyName:     getEnv("COMPANY_NAME", "Menu Makers Company"),
		},
		Team: TeamConfig{
			File:    getEnv("TEAM_FILE", ""),
			Members: defaultTeam(),
		},
		RateLimit: RateLimitConfig{
			Backend:       strings.ToLower(getEnv("RATE_LIMIT_BACKEND", "memory")),
			ContactMax:    getEnvAsInt("CONTACT_RATE_LIMIT_MAX", 5),
			ContactWindow: time.Duration(getEnvAsInt("CONTACT_RATE_LIMIT_WINDOW_MINUTES", 15)) * time.Minute,
		},
		Session: SessionConfig{
			Backend: strings.ToLower(getEnv("SESSION_BACKEND", "memory")),
		},
		Redis: RedisConfig{
			Address:  getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
	}

	if config.Team.File != "" {
		members, err := LoadTeamFile(config.Team.File)
		if err != nil {
			return nil, err
		}
		config.Team.Members = members
	}

	// Validate configuration
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// defaultTeam returns the built-in directory; each address can be overridden
// per member and falls back to the company inbox when unset.
func defaultTeam() map[string]TeamMember {
	return map[string]TeamMember{
		"jatinder":   {Name: "Jatinder Kaur", Email: getEnv("JATINDER_EMAIL", "")},
		"mansi":      {Name: "Mansi Keer", Email: getEnv("MANSI_EMAIL", "")},
		"madhusudan": {Name: "Madhusudan Mainali", Email: getEnv("MADHUSUDAN_EMAIL", "")},
		"ramesh":     {Name: "Ramesh Kumawat", Email: getEnv("RAMESH_EMAIL", "")},
	}
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	if cfg.App.Port == "" {
		return fmt.Errorf("PORT must be set")
	}
	if _, err := cfg.App.TrustedProxyPrefixes(); err != nil {
		return err
	}
	if cfg.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL must be set")
	}
	if cfg.Auth.SecretKey == "" {
		return fmt.Errorf("SECRET_KEY must be set")
	}
	if cfg.Auth.SessionTTLMinutes <= 0 {
		return fmt.Errorf("SESSION_TTL_MINUTES must be greater than 0")
	}
	if cfg.RateLimit.ContactMax <= 0 {
		return fmt.Errorf("CONTACT_RATE_LIMIT_MAX must be greater than 0")
	}
	if cfg.RateLimit.ContactWindow <= 0 {
		return fmt.Errorf("CONTACT_RATE_LIMIT_WINDOW_MINUTES must be greater than 0")
	}
	if cfg.Email.CompanyEmail == "" {
		return fmt.Errorf("COMPANY_EMAIL must be set")
	}
	switch cfg.Email.Provider {
	case EmailProviderSMTP, EmailProviderSendGrid, EmailProviderConsole:
	default:
		return fmt.Errorf("unsupported EMAIL_PROVIDER: %s", cfg.Email.Provider)
	}
	for name, backend := range map[string]string{"SESSION_BACKEND": cfg.Session.Backend, "RATE_LIMIT_BACKEND": cfg.RateLimit.Backend} {
		switch backend {
		case "memory":
		case "redis":
			if cfg.Redis.Address == "" {
				return fmt.Errorf("REDIS_ADDR must be set when %s=redis", name)
			}
		default:
			return fmt.Errorf("unsupported %s: %s", name, backend)
		}
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// IsPostgres checks if the database URL is for PostgreSQL
func (c *DatabaseConfig) IsPostgres() bool {
	return strings.HasPrefix(c.URL, "postgres://") || strings.HasPrefix(c.URL, "postgresql://")
}

// GetSQLitePath extracts SQLite database path from URL
func (c *DatabaseConfig) GetSQLitePath() string {
	return strings.TrimPrefix(c.URL, "sqlite:///")
}
