package config

import (
	"strings"
	"testing"
	"time"
)

// ============================================================================
// DEFAULTS AND VALIDATION TESTS
// ============================================================================

func defaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func TestApplyDefaults(t *testing.T) {
	cfg := defaultConfig()

	if cfg.StrategyConfig.BoxBars != 12 {
		t.Errorf("Expected default box bars 12, got %d", cfg.StrategyConfig.BoxBars)
	}
	if cfg.StrategyConfig.MinConfidence != 7.5 {
		t.Errorf("Expected default min confidence 7.5, got %f", cfg.StrategyConfig.MinConfidence)
	}
	if cfg.StrategyConfig.Timezone != "America/New_York" {
		t.Errorf("Expected default timezone America/New_York, got %s", cfg.StrategyConfig.Timezone)
	}
	if cfg.OptionsConfig.MaxDTEMultiDay != 10 {
		t.Errorf("Expected default multi-day DTE 10, got %d", cfg.OptionsConfig.MaxDTEMultiDay)
	}
	if cfg.OptionsConfig.MinDTESameDay != 3 {
		t.Errorf("Expected default same-day DTE floor 3, got %d", cfg.OptionsConfig.MinDTESameDay)
	}
	if len(cfg.ScannerConfig.Universe) == 0 {
		t.Error("Expected a default scan universe")
	}
	if cfg.ScannerConfig.MarketIndexSymbol == "" {
		t.Error("Expected a default market index symbol")
	}
}

func TestDefaultConfigValidates(t *testing.T) {
	if err := defaultConfig().Validate(); err != nil {
		t.Errorf("Expected defaults to validate, got %v", err)
	}
}

func TestValidate_Failures(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(cfg *Config)
		wantSub string
	}{
		{"inverted price band", func(c *Config) { c.StrategyConfig.MinPrice = 500; c.StrategyConfig.MaxPrice = 100 }, "price band"},
		{"single box bar", func(c *Config) { c.StrategyConfig.BoxBars = 1 }, "box_bars"},
		{"negative break buffer", func(c *Config) { c.StrategyConfig.BreakBufferPct = -0.001 }, "break_buffer_pct"},
		{"confidence out of scale", func(c *Config) { c.StrategyConfig.MinConfidence = 11 }, "min_confidence"},
		{"bad timezone", func(c *Config) { c.StrategyConfig.Timezone = "Mars/Olympus" }, "timezone"},
		{"DTE disorder", func(c *Config) { c.OptionsConfig.MaxDTE = 0 }, "DTE window"},
		{"same-day floor above ceiling", func(c *Config) { c.OptionsConfig.MinDTESameDay = 9 }, "same-day min DTE"},
		{"inverted delta band", func(c *Config) { c.OptionsConfig.StandardBand = DeltaBand{Low: 0.5, High: 0.3} }, "standard_band"},
		{"aggressive IV above global", func(c *Config) { c.OptionsConfig.IVPctlMaxAggressive = 0.95 }, "ceiling"},
		{"bad windows", func(c *Config) { c.ScannerConfig.AllowedWindows = "not-a-window" }, "allowed_windows"},
		{"zero workers", func(c *Config) { c.ScannerConfig.WorkerCount = 0 }, "worker_count"},
		{"auth without secrets", func(c *Config) { c.AuthConfig.Enabled = true; c.AuthConfig.JWTSecret = "" }, "auth"},
	}

	for _, tc := range cases {
		cfg := defaultConfig()
		tc.mutate(cfg)
		err := cfg.Validate()
		if err == nil {
			t.Errorf("%s: expected validation error", tc.name)
			continue
		}
		if !strings.Contains(err.Error(), tc.wantSub) {
			t.Errorf("%s: expected error mentioning %q, got %v", tc.name, tc.wantSub, err)
		}
	}
}

// ============================================================================
// TIME WINDOW TESTS
// ============================================================================

func TestParseWindows(t *testing.T) {
	windows, err := ParseWindows("09:35-11:00, 13:30-15:50")
	if err != nil {
		t.Fatalf("Expected parse success, got %v", err)
	}
	if len(windows) != 2 {
		t.Fatalf("Expected 2 windows, got %d", len(windows))
	}
	if windows[0].Start != 9*time.Hour+35*time.Minute {
		t.Errorf("Expected start 09:35, got %v", windows[0].Start)
	}
	if windows[1].End != 15*time.Hour+50*time.Minute {
		t.Errorf("Expected end 15:50, got %v", windows[1].End)
	}
}

func TestParseWindows_Invalid(t *testing.T) {
	for _, spec := range []string{"", "09:35", "0935-1100", "11:00-09:35", "09:35-09:35"} {
		if _, err := ParseWindows(spec); err == nil {
			t.Errorf("Expected error for %q", spec)
		}
	}
}

func TestTimeWindowContains(t *testing.T) {
	window := TimeWindow{Start: 9*time.Hour + 35*time.Minute, End: 11 * time.Hour}

	inside := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	if !window.Contains(inside) {
		t.Error("Expected 10:00 inside 09:35-11:00")
	}
	atStart := time.Date(2025, 3, 10, 9, 35, 0, 0, time.UTC)
	if !window.Contains(atStart) {
		t.Error("Expected the start bound inclusive")
	}
	atEnd := time.Date(2025, 3, 10, 11, 0, 0, 0, time.UTC)
	if !window.Contains(atEnd) {
		t.Error("Expected the end bound inclusive")
	}
	before := time.Date(2025, 3, 10, 9, 34, 59, 0, time.UTC)
	if window.Contains(before) {
		t.Error("Expected 09:34:59 outside")
	}
	after := time.Date(2025, 3, 10, 11, 0, 1, 0, time.UTC)
	if window.Contains(after) {
		t.Error("Expected 11:00:01 outside")
	}
}

func TestSplitUniverse(t *testing.T) {
	got := splitUniverse(" spy, QQQ ,,nvda ")
	want := []string{"SPY", "QQQ", "NVDA"}
	if len(got) != len(want) {
		t.Fatalf("Expected %d symbols, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Expected %s at %d, got %s", want[i], i, got[i])
		}
	}
}

// ============================================================================
// REDACTION TESTS
// ============================================================================

func TestRedacted(t *testing.T) {
	cfg := defaultConfig()
	cfg.MarketDataConfig.APIKey = "secret"
	cfg.DatabaseConfig.Password = "secret"
	cfg.RedisConfig.Password = "secret"
	cfg.NotificationConfig.Telegram.BotToken = "secret"
	cfg.NotificationConfig.Discord.WebhookURL = "secret"
	cfg.AuthConfig.JWTSecret = "secret"
	cfg.AuthConfig.AdminKeyHash = "secret"

	out := cfg.Redacted()

	if out.MarketDataConfig.APIKey != "" || out.DatabaseConfig.Password != "" ||
		out.RedisConfig.Password != "" || out.NotificationConfig.Telegram.BotToken != "" ||
		out.NotificationConfig.Discord.WebhookURL != "" || out.AuthConfig.JWTSecret != "" ||
		out.AuthConfig.AdminKeyHash != "" {
		t.Error("Expected all secrets cleared in redacted copy")
	}
	if cfg.MarketDataConfig.APIKey != "secret" {
		t.Error("Expected the original untouched")
	}
}
