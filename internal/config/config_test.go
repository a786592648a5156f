package config

import (
	"strings"
	"testing"
	"time"
)

// clearEnv は設定に関係する環境変数をテストから隔離する。
func clearEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"STORE_BACKEND", "DATABASE_URL", "EVENTS_FILE", "USERS_FILE",
		"SERVER_PORT",
		"TWILIO_ACCOUNT_SID", "TWILIO_AUTH_TOKEN", "TWILIO_FROM_NUMBER",
		"SMTP_HOST", "SMTP_PORT", "SMTP_USERNAME", "SMTP_PASSWORD", "SMTP_FROM",
		"CALENDLY_API_BASE", "CALENDLY_API_TOKEN",
		"MASTERSCHOOL_API_URL", "MASTERSCHOOL_API_KEY", "MASTERSCHOOL_CALENDAR_IDS",
		"FETCH_TIMEOUT", "FETCH_MAX_SIZE",
		"REMINDER_CHECK_INTERVAL", "RATE_LIMIT_PER_SENDER",
	}
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.StoreBackend != BackendFile {
		t.Errorf("StoreBackend = %q, want %q", cfg.StoreBackend, BackendFile)
	}
	if cfg.EventsFile != "data/events.json" {
		t.Errorf("EventsFile = %q, want data/events.json", cfg.EventsFile)
	}
	if cfg.UsersFile != "data/users.json" {
		t.Errorf("UsersFile = %q, want data/users.json", cfg.UsersFile)
	}
	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %q, want 8080", cfg.ServerPort)
	}
	if cfg.SMTPPort != 587 {
		t.Errorf("SMTPPort = %d, want 587", cfg.SMTPPort)
	}
	if cfg.ReminderCheckInterval != time.Minute {
		t.Errorf("ReminderCheckInterval = %v, want 1m", cfg.ReminderCheckInterval)
	}
	if cfg.RateLimitPerSender != 20 {
		t.Errorf("RateLimitPerSender = %d, want 20", cfg.RateLimitPerSender)
	}
	if cfg.FetchTimeout != 10*time.Second {
		t.Errorf("FetchTimeout = %v, want 10s", cfg.FetchTimeout)
	}
	if cfg.CalendlyAPIBase != "https://api.calendly.com" {
		t.Errorf("CalendlyAPIBase = %q", cfg.CalendlyAPIBase)
	}
	if len(cfg.MasterschoolCalendarIDs) != 0 {
		t.Errorf("MasterschoolCalendarIDs = %v, want empty", cfg.MasterschoolCalendarIDs)
	}
}

func TestLoad_MasterschoolCalendarIDs(t *testing.T) {
	clearEnv(t)
	t.Setenv("MASTERSCHOOL_CALENDAR_IDS", "cal-1, cal-2 ,,cal-3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := []string{"cal-1", "cal-2", "cal-3"}
	if len(cfg.MasterschoolCalendarIDs) != len(want) {
		t.Fatalf("MasterschoolCalendarIDs = %v, want %v", cfg.MasterschoolCalendarIDs, want)
	}
	for i := range want {
		if cfg.MasterschoolCalendarIDs[i] != want[i] {
			t.Errorf("MasterschoolCalendarIDs[%d] = %q, want %q", i, cfg.MasterschoolCalendarIDs[i], want[i])
		}
	}
}

func TestLoad_PostgresRequiresDatabaseURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_BACKEND", "postgres")

	if _, err := Load(); err == nil {
		t.Fatal("Load() should fail when STORE_BACKEND=postgres without DATABASE_URL")
	} else if !strings.Contains(err.Error(), "DATABASE_URL") {
		t.Errorf("error should name the missing variable, got %v", err)
	}

	t.Setenv("DATABASE_URL", "postgres://localhost:5432/calman?sslmode=disable")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.StoreBackend != BackendPostgres {
		t.Errorf("StoreBackend = %q, want postgres", cfg.StoreBackend)
	}
}

func TestLoad_RejectsUnknownBackend(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_BACKEND", "redis")

	if _, err := Load(); err == nil {
		t.Fatal("Load() should reject an unknown STORE_BACKEND")
	}
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("EVENTS_FILE", "/tmp/ev.json")
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("REMINDER_CHECK_INTERVAL", "30s")
	t.Setenv("RATE_LIMIT_PER_SENDER", "5")
	t.Setenv("SMTP_USERNAME", "bot@example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.EventsFile != "/tmp/ev.json" {
		t.Errorf("EventsFile = %q", cfg.EventsFile)
	}
	if cfg.ServerPort != "9000" {
		t.Errorf("ServerPort = %q", cfg.ServerPort)
	}
	if cfg.ReminderCheckInterval != 30*time.Second {
		t.Errorf("ReminderCheckInterval = %v", cfg.ReminderCheckInterval)
	}
	if cfg.RateLimitPerSender != 5 {
		t.Errorf("RateLimitPerSender = %d", cfg.RateLimitPerSender)
	}
	// SMTP_FROMが未設定ならSMTP_USERNAMEにフォールバックする
	if cfg.SMTPFrom != "bot@example.com" {
		t.Errorf("SMTPFrom = %q, want fallback to SMTP_USERNAME", cfg.SMTPFrom)
	}
}

func TestLoad_InvalidNumericFallsBackToDefault(t *testing.T) {
	clearEnv(t)
	t.Setenv("RATE_LIMIT_PER_SENDER", "many")
	t.Setenv("REMINDER_CHECK_INTERVAL", "soon")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.RateLimitPerSender != 20 {
		t.Errorf("RateLimitPerSender = %d, want default 20", cfg.RateLimitPerSender)
	}
	if cfg.ReminderCheckInterval != time.Minute {
		t.Errorf("ReminderCheckInterval = %v, want default 1m", cfg.ReminderCheckInterval)
	}
}
