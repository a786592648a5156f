package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ストアバックエンドの識別子。
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Store
	StoreBackend string
	DatabaseURL  string
	EventsFile   string
	UsersFile    string

	// Server
	ServerPort string

	// Twilio (未設定の場合、WhatsApp送信はログ出力のみになる)
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string

	// SMTP (未設定の場合、認証コードメールはログ出力のみになる)
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	// Importer
	CalendlyAPIBase         string
	CalendlyAPIToken        string
	MasterschoolAPIURL      string
	MasterschoolAPIKey      string
	MasterschoolCalendarIDs []string
	FetchTimeout            time.Duration
	FetchMaxSize            int64

	// Reminder
	ReminderCheckInterval time.Duration

	// Rate Limit（送信者ごとの1分あたりコマンド数）
	RateLimitPerSender int
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.StoreBackend = getEnvString("STORE_BACKEND", BackendFile)
	if cfg.StoreBackend != BackendFile && cfg.StoreBackend != BackendPostgres {
		return nil, fmt.Errorf("STORE_BACKEND must be %q or %q, got %q",
			BackendFile, BackendPostgres, cfg.StoreBackend)
	}

	// DATABASE_URLはpostgresバックエンドの場合のみ必須
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.StoreBackend == BackendPostgres && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("required environment variables are not set: [DATABASE_URL]")
	}

	cfg.EventsFile = getEnvString("EVENTS_FILE", "data/events.json")
	cfg.UsersFile = getEnvString("USERS_FILE", "data/users.json")
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")

	cfg.TwilioAccountSID = os.Getenv("TWILIO_ACCOUNT_SID")
	cfg.TwilioAuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	cfg.TwilioFromNumber = os.Getenv("TWILIO_FROM_NUMBER")

	cfg.SMTPHost = os.Getenv("SMTP_HOST")
	cfg.SMTPPort = getEnvInt("SMTP_PORT", 587)
	cfg.SMTPUsername = os.Getenv("SMTP_USERNAME")
	cfg.SMTPPassword = os.Getenv("SMTP_PASSWORD")
	cfg.SMTPFrom = getEnvString("SMTP_FROM", cfg.SMTPUsername)

	cfg.CalendlyAPIBase = getEnvString("CALENDLY_API_BASE", "https://api.calendly.com")
	cfg.CalendlyAPIToken = os.Getenv("CALENDLY_API_TOKEN")
	cfg.MasterschoolAPIURL = os.Getenv("MASTERSCHOOL_API_URL")
	cfg.MasterschoolAPIKey = os.Getenv("MASTERSCHOOL_API_KEY")
	cfg.MasterschoolCalendarIDs = splitCSV(os.Getenv("MASTERSCHOOL_CALENDAR_IDS"))
	cfg.FetchTimeout = getEnvDuration("FETCH_TIMEOUT", 10*time.Second)
	cfg.FetchMaxSize = getEnvInt64("FETCH_MAX_SIZE", 5242880)

	cfg.ReminderCheckInterval = getEnvDuration("REMINDER_CHECK_INTERVAL", time.Minute)
	cfg.RateLimitPerSender = getEnvInt("RATE_LIMIT_PER_SENDER", 20)

	return cfg, nil
}

func splitCSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
