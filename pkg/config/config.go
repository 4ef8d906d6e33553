package config

import (
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv         string
	HTTPAddr       string
	MigrationsPath string

	// Hosted Postgres convenience:
	// - DATABASE_URL: runtime connection (often PgBouncer/pooler)
	// - DIRECT_URL: direct connection for migrations
	DatabaseURL string
	DirectURL   string

	DB DBConfig

	// Auth is the staff session token configuration. Token issuance lives
	// outside this service; we only verify.
	Auth AuthConfig

	Notify NotifyConfig

	Photos PhotosConfig

	// RedisAddr enables the notification dedupe cache when set.
	// Example: localhost:6379
	RedisAddr     string
	RedisPassword string

	// PortalAllowedOrigins is a comma-separated allowlist of origins allowed to call
	// the public portal endpoints (token-based). Example:
	//   https://portal.yourapp.com,http://localhost:5173
	PortalAllowedOrigins []string

	// PortalBaseURL is prepended to portal tokens when building tracking
	// links embedded in client notifications (optional).
	PortalBaseURL string
}

type DBConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
}

type AuthConfig struct {
	// SessionSecret signs/verifies staff session JWTs (HS256).
	SessionSecret string
	// Audience expected in staff session tokens (optional).
	Audience string
}

type NotifyConfig struct {
	// SMSGatewayURL / SMSGatewayToken configure the SMS provider HTTP API.
	SMSGatewayURL   string
	SMSGatewayToken string

	// WhatsAppGatewayURL / WhatsAppGatewayToken configure the WhatsApp
	// bridge HTTP API.
	WhatsAppGatewayURL   string
	WhatsAppGatewayToken string

	// SMTP relay for email notifications.
	SMTPAddr string // host:port
	SMTPFrom string
	SMTPUser string
	SMTPPass string

	// AdminPhone / AdminEmail receive part-request and digest notifications.
	AdminPhone string
	AdminEmail string

	// DeliveryWebhookSecret verifies provider delivery-report callbacks.
	DeliveryWebhookSecret string

	// ReminderSchedule is a 5-field cron expression for the overdue-parts
	// digest. Empty disables the job. Example: "0 8 * * *"
	ReminderSchedule string
	// ReminderAgeHours is how long an order may sit in pending before it
	// counts as overdue.
	ReminderAgeHours int
}

type PhotosConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicBaseURL is used to build browser-reachable photo URLs.
	PublicBaseURL string
}

func Load() Config {
	// Convenience for local dev: load variables from .env if present.
	// In production, rely on real environment variables.
	_ = godotenv.Load()

	// Cloud Run sets PORT. Prefer it when HTTP_ADDR isn't explicitly set.
	httpAddr := os.Getenv("HTTP_ADDR")
	if httpAddr == "" {
		if port := os.Getenv("PORT"); port != "" {
			httpAddr = ":" + port
		} else {
			httpAddr = ":8081"
		}
	}

	return Config{
		AppEnv:         env("APP_ENV", "dev"),
		HTTPAddr:       httpAddr,
		MigrationsPath: os.Getenv("MIGRATIONS_PATH"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		DirectURL:      os.Getenv("DIRECT_URL"),
		DB: DBConfig{
			Host:     env("DB_HOST", "localhost"),
			Port:     env("DB_PORT", "5432"),
			Name:     env("DB_NAME", "servicedesk"),
			User:     env("DB_USER", "servicedesk"),
			Password: env("DB_PASSWORD", "servicedesk"),
			SSLMode:  env("DB_SSLMODE", "disable"),
		},
		Auth: AuthConfig{
			SessionSecret: os.Getenv("SESSION_SECRET"),
			Audience:      os.Getenv("SESSION_AUDIENCE"),
		},
		Notify: NotifyConfig{
			SMSGatewayURL:         os.Getenv("SMS_GATEWAY_URL"),
			SMSGatewayToken:       os.Getenv("SMS_GATEWAY_TOKEN"),
			WhatsAppGatewayURL:    os.Getenv("WHATSAPP_GATEWAY_URL"),
			WhatsAppGatewayToken:  os.Getenv("WHATSAPP_GATEWAY_TOKEN"),
			SMTPAddr:              os.Getenv("SMTP_ADDR"),
			SMTPFrom:              os.Getenv("SMTP_FROM"),
			SMTPUser:              os.Getenv("SMTP_USER"),
			SMTPPass:              os.Getenv("SMTP_PASS"),
			AdminPhone:            os.Getenv("NOTIFY_ADMIN_PHONE"),
			AdminEmail:            os.Getenv("NOTIFY_ADMIN_EMAIL"),
			DeliveryWebhookSecret: os.Getenv("DELIVERY_WEBHOOK_SECRET"),
			ReminderSchedule:      os.Getenv("PARTS_REMINDER_SCHEDULE"),
			ReminderAgeHours:      envInt("PARTS_REMINDER_AGE_HOURS", 48),
		},
		Photos: PhotosConfig{
			Endpoint:      os.Getenv("PHOTOS_ENDPOINT"),
			AccessKey:     os.Getenv("PHOTOS_ACCESS_KEY"),
			SecretKey:     os.Getenv("PHOTOS_SECRET_KEY"),
			Bucket:        env("PHOTOS_BUCKET", "service-photos"),
			UseSSL:        os.Getenv("PHOTOS_USE_SSL") == "true",
			PublicBaseURL: os.Getenv("PHOTOS_PUBLIC_BASE_URL"),
		},
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		PortalAllowedOrigins: envList("PORTAL_ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:4173"),
		PortalBaseURL:        os.Getenv("PORTAL_BASE_URL"),
	}
}

func env(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n := 0
	for i := 0; i < len(v); i++ {
		if v[i] < '0' || v[i] > '9' {
			return fallback
		}
		n = n*10 + int(v[i]-'0')
	}
	return n
}

func envList(key, fallbackCSV string) []string {
	v := os.Getenv(key)
	if v == "" {
		v = fallbackCSV
	}
	var out []string
	start := 0
	for i := 0; i <= len(v); i++ {
		if i == len(v) || v[i] == ',' {
			s := v[start:i]
			start = i + 1
			// trim spaces
			for len(s) > 0 && (s[0] == ' ' || s[0] == '\t' || s[0] == '\n' || s[0] == '\r') {
				s = s[1:]
			}
			for len(s) > 0 && (s[len(s)-1] == ' ' || s[len(s)-1] == '\t' || s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
				s = s[:len(s)-1]
			}
			if s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}
