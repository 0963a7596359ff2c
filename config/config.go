package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	MarketDataConfig   MarketDataConfig   `json:"market_data"`
	StrategyConfig     StrategyConfig     `json:"strategy"`
	OptionsConfig      OptionsConfig      `json:"options"`
	ScannerConfig      ScannerConfig      `json:"scanner"`
	GradingConfig      GradingConfig      `json:"grading"`
	NotificationConfig NotificationConfig `json:"notification"`
	DatabaseConfig     DatabaseConfig     `json:"database"`
	RedisConfig        RedisConfig        `json:"redis"`
	ServerConfig       ServerConfig       `json:"server"`
	AuthConfig         AuthConfig         `json:"auth"`
	LoggingConfig      LoggingConfig      `json:"logging"`
}

// MarketDataConfig holds data-provider connection settings
type MarketDataConfig struct {
	APIKey         string  `json:"api_key"`
	BaseURL        string  `json:"base_url"`
	RequestsPerSec float64 `json:"requests_per_sec"`
	MaxRetries     int     `json:"max_retries"`
	TimeoutSeconds int     `json:"timeout_seconds"`
}

// StrategyConfig holds every threshold of the compression/breakout evaluator.
// The struct is treated as immutable once loaded; components receive it by
// value and never write to it.
type StrategyConfig struct {
	MinPrice                float64 `json:"min_price"`
	MaxPrice                float64 `json:"max_price"`
	MinAvgDailyVolume       float64 `json:"min_avg_daily_volume"`
	BoxBars                 int     `json:"box_bars"`
	BoxMaxRangePct          float64 `json:"box_max_range_pct"`
	ATRPeriod               int     `json:"atr_period"`
	ATRBaselinePeriod       int     `json:"atr_baseline_period"`
	ATRCompressionFactor    float64 `json:"atr_compression_factor"`
	VolContractionFactor    float64 `json:"vol_contraction_factor"`
	BoxIntegrityRangeMult   float64 `json:"box_integrity_range_mult"`
	BreakBufferPct          float64 `json:"break_buffer_pct"`
	MaxExtensionPct         float64 `json:"max_extension_pct"`
	BreakVolMult            float64 `json:"break_vol_mult"`
	VWAPConfirm             bool    `json:"vwap_confirm"`
	BiasEMAPeriod           int     `json:"bias_ema_period"`
	ChopVWAPCrossings       int     `json:"chop_vwap_crossings"`
	PanicATRMult            float64 `json:"panic_atr_mult"`
	EntryBufferPct          float64 `json:"entry_buffer_pct"`
	StopBufferPct           float64 `json:"stop_buffer_pct"`
	MinConfidence           float64 `json:"min_confidence"`
	Timezone                string  `json:"timezone"`
}

// DeltaBand is an inclusive |delta| range for one option tier.
type DeltaBand struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// OptionsConfig holds the option-tier optimizer thresholds
type OptionsConfig struct {
	Enabled              bool      `json:"enabled"`
	MinDTE               int       `json:"min_dte"`
	MinDTESameDay        int       `json:"min_dte_same_day"`
	MaxDTE               int       `json:"max_dte"`
	MaxDTEMultiDay       int       `json:"max_dte_multi_day"`
	SpreadPctMax         float64   `json:"spread_pct_max"`
	MinVolume            int64     `json:"min_volume"`
	MinOpenInterest      int64     `json:"min_open_interest"`
	MinMidPrice          float64   `json:"min_mid_price"`
	IVPctlMaxAny         float64   `json:"iv_pctl_max_any"`
	IVPctlMaxAggressive  float64   `json:"iv_pctl_max_aggressive"`
	ConservativeBand     DeltaBand `json:"conservative_band"`
	StandardBand         DeltaBand `json:"standard_band"`
	AggressiveBand       DeltaBand `json:"aggressive_band"`
	StockOnlyPenalty     float64   `json:"stock_only_penalty"`
}

// ScannerConfig holds the scan-loop settings
type ScannerConfig struct {
	Enabled            bool     `json:"enabled"`
	Universe           []string `json:"universe"`
	MarketIndexSymbol  string   `json:"market_index_symbol"`
	ScanIntervalSec    int      `json:"scan_interval_sec"`
	WorkerCount        int      `json:"worker_count"`
	RTHOnly            bool     `json:"rth_only"`
	AllowedWindows     string   `json:"allowed_windows"`
	ScanOutsideWindow  bool     `json:"scan_outside_window"`
	CooldownMinutes    int      `json:"cooldown_minutes"`
}

// GradingConfig controls post-hoc alert outcome grading
type GradingConfig struct {
	Enabled          bool `json:"enabled"`
	IntervalMinutes  int  `json:"interval_minutes"`
	LookbackDays     int  `json:"lookback_days"`
	MinAgeMinutes    int  `json:"min_age_minutes"`
}

type NotificationConfig struct {
	Enabled  bool           `json:"enabled"`
	Telegram TelegramConfig `json:"telegram"`
	Discord  DiscordConfig  `json:"discord"`
}

type TelegramConfig struct {
	Enabled  bool   `json:"enabled"`
	BotToken string `json:"bot_token"`
	ChatID   int64  `json:"chat_id"`
}

type DiscordConfig struct {
	Enabled    bool   `json:"enabled"`
	WebhookURL string `json:"webhook_url"`
}

type DatabaseConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`
	SSLMode  string `json:"ssl_mode"`
}

type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Address  string `json:"address"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

type ServerConfig struct {
	Host            string `json:"host"`
	Port            int    `json:"port"`
	AllowedOrigins  string `json:"allowed_origins"`
	ReadTimeout     int    `json:"read_timeout"`
	WriteTimeout    int    `json:"write_timeout"`
	ShutdownTimeout int    `json:"shutdown_timeout"`
	DebugEndpoints  bool   `json:"debug_endpoints"`
}

// AuthConfig protects the admin surface (manual scans, debug endpoints)
type AuthConfig struct {
	Enabled        bool          `json:"enabled"`
	JWTSecret      string        `json:"jwt_secret"`
	AdminKeyHash   string        `json:"admin_key_hash"` // bcrypt hash of the admin API key
	TokenDuration  time.Duration `json:"token_duration"`
}

type LoggingConfig struct {
	Level      string `json:"level"`       // debug, info, warn, error
	JSONFormat bool   `json:"json_format"` // JSON output vs console writer
}

// Load reads config.json if present, applies environment overrides, and
// fills defaults.
func Load() (*Config, error) {
	cfg, err := loadFromFile("config.json")
	if err != nil {
		// No config file is fine; environment supplies everything
		cfg = &Config{}
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides (these take
// precedence over the file).
func applyEnvOverrides(cfg *Config) {
	// Market data provider
	cfg.MarketDataConfig.APIKey = getEnvOrDefault("MARKET_API_KEY", cfg.MarketDataConfig.APIKey)
	cfg.MarketDataConfig.BaseURL = getEnvOrDefault("MARKET_BASE_URL", cfg.MarketDataConfig.BaseURL)

	// Scanner
	if v := os.Getenv("SCANNER_ENABLED"); v != "" {
		cfg.ScannerConfig.Enabled = v == "true"
	}
	if v := os.Getenv("UNIVERSE"); v != "" {
		cfg.ScannerConfig.Universe = splitUniverse(v)
	}
	cfg.ScannerConfig.MarketIndexSymbol = getEnvOrDefault("MARKET_INDEX_SYMBOL", cfg.ScannerConfig.MarketIndexSymbol)
	cfg.ScannerConfig.ScanIntervalSec = getEnvIntOrDefault("SCAN_INTERVAL_SECONDS", cfg.ScannerConfig.ScanIntervalSec)
	if v := os.Getenv("SCAN_OUTSIDE_WINDOW"); v != "" {
		cfg.ScannerConfig.ScanOutsideWindow = v == "true"
	}
	if v := os.Getenv("RTH_ONLY"); v != "" {
		cfg.ScannerConfig.RTHOnly = v == "true"
	}

	// Strategy thresholds commonly tuned per deployment
	cfg.StrategyConfig.MinConfidence = getEnvFloatOrDefault("MIN_CONFIDENCE_TO_ALERT", cfg.StrategyConfig.MinConfidence)
	cfg.StrategyConfig.Timezone = getEnvOrDefault("TIMEZONE", cfg.StrategyConfig.Timezone)

	// Notification
	if v := os.Getenv("NOTIFICATIONS_ENABLED"); v != "" {
		cfg.NotificationConfig.Enabled = v == "true"
	}
	if v := os.Getenv("TELEGRAM_ENABLED"); v != "" {
		cfg.NotificationConfig.Telegram.Enabled = v == "true"
	}
	cfg.NotificationConfig.Telegram.BotToken = getEnvOrDefault("TELEGRAM_BOT_TOKEN", cfg.NotificationConfig.Telegram.BotToken)
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.NotificationConfig.Telegram.ChatID = id
		}
	}
	if v := os.Getenv("DISCORD_ENABLED"); v != "" {
		cfg.NotificationConfig.Discord.Enabled = v == "true"
	}
	cfg.NotificationConfig.Discord.WebhookURL = getEnvOrDefault("DISCORD_WEBHOOK_URL", cfg.NotificationConfig.Discord.WebhookURL)

	// Database
	cfg.DatabaseConfig.Host = getEnvOrDefault("DB_HOST", cfg.DatabaseConfig.Host)
	cfg.DatabaseConfig.Port = getEnvIntOrDefault("DB_PORT", cfg.DatabaseConfig.Port)
	cfg.DatabaseConfig.User = getEnvOrDefault("DB_USER", cfg.DatabaseConfig.User)
	cfg.DatabaseConfig.Password = getEnvOrDefault("DB_PASSWORD", cfg.DatabaseConfig.Password)
	cfg.DatabaseConfig.Database = getEnvOrDefault("DB_NAME", cfg.DatabaseConfig.Database)
	cfg.DatabaseConfig.SSLMode = getEnvOrDefault("DB_SSLMODE", cfg.DatabaseConfig.SSLMode)

	// Redis
	if v := os.Getenv("REDIS_ENABLED"); v != "" {
		cfg.RedisConfig.Enabled = v == "true"
	}
	cfg.RedisConfig.Address = getEnvOrDefault("REDIS_ADDRESS", cfg.RedisConfig.Address)
	cfg.RedisConfig.Password = getEnvOrDefault("REDIS_PASSWORD", cfg.RedisConfig.Password)

	// Server
	cfg.ServerConfig.Host = getEnvOrDefault("WEB_HOST", cfg.ServerConfig.Host)
	cfg.ServerConfig.Port = getEnvIntOrDefault("WEB_PORT", cfg.ServerConfig.Port)
	cfg.ServerConfig.AllowedOrigins = getEnvOrDefault("SERVER_ALLOWED_ORIGINS", cfg.ServerConfig.AllowedOrigins)
	if v := os.Getenv("DEBUG_ENDPOINTS_ENABLED"); v != "" {
		cfg.ServerConfig.DebugEndpoints = v == "true"
	}

	// Auth - always applied from environment when present
	if v := os.Getenv("AUTH_ENABLED"); v != "" {
		cfg.AuthConfig.Enabled = v == "true"
	}
	cfg.AuthConfig.JWTSecret = getEnvOrDefault("AUTH_JWT_SECRET", cfg.AuthConfig.JWTSecret)
	cfg.AuthConfig.AdminKeyHash = getEnvOrDefault("AUTH_ADMIN_KEY_HASH", cfg.AuthConfig.AdminKeyHash)

	// Logging
	cfg.LoggingConfig.Level = getEnvOrDefault("LOG_LEVEL", cfg.LoggingConfig.Level)
	if v := os.Getenv("LOG_JSON"); v != "" {
		cfg.LoggingConfig.JSONFormat = v == "true"
	}
}

// applyDefaults fills unset values with the stock deployment defaults.
func applyDefaults(cfg *Config) {
	md := &cfg.MarketDataConfig
	if md.BaseURL == "" {
		md.BaseURL = "https://api.polygon.io"
	}
	if md.RequestsPerSec == 0 {
		md.RequestsPerSec = 10
	}
	if md.MaxRetries == 0 {
		md.MaxRetries = 3
	}
	if md.TimeoutSeconds == 0 {
		md.TimeoutSeconds = 10
	}

	s := &cfg.StrategyConfig
	if s.MinPrice == 0 {
		s.MinPrice = 10.0
	}
	if s.MaxPrice == 0 {
		s.MaxPrice = 1000.0
	}
	if s.MinAvgDailyVolume == 0 {
		s.MinAvgDailyVolume = 5_000_000
	}
	if s.BoxBars == 0 {
		s.BoxBars = 12
	}
	if s.BoxMaxRangePct == 0 {
		s.BoxMaxRangePct = 0.012
	}
	if s.ATRPeriod == 0 {
		s.ATRPeriod = 14
	}
	if s.ATRBaselinePeriod == 0 {
		s.ATRBaselinePeriod = 50
	}
	if s.ATRCompressionFactor == 0 {
		s.ATRCompressionFactor = 0.75
	}
	if s.VolContractionFactor == 0 {
		s.VolContractionFactor = 0.80
	}
	if s.BoxIntegrityRangeMult == 0 {
		s.BoxIntegrityRangeMult = 3.0
	}
	if s.BreakBufferPct == 0 {
		s.BreakBufferPct = 0.001
	}
	if s.MaxExtensionPct == 0 {
		s.MaxExtensionPct = 0.006
	}
	if s.BreakVolMult == 0 {
		s.BreakVolMult = 1.5
	}
	if s.BiasEMAPeriod == 0 {
		s.BiasEMAPeriod = 20
	}
	if s.ChopVWAPCrossings == 0 {
		s.ChopVWAPCrossings = 3
	}
	if s.PanicATRMult == 0 {
		s.PanicATRMult = 1.5
	}
	if s.EntryBufferPct == 0 {
		s.EntryBufferPct = 0.0005
	}
	if s.StopBufferPct == 0 {
		s.StopBufferPct = 0.0015
	}
	if s.MinConfidence == 0 {
		s.MinConfidence = 7.5
	}
	if s.Timezone == "" {
		s.Timezone = "America/New_York"
	}

	o := &cfg.OptionsConfig
	if o.MinDTE == 0 {
		o.MinDTE = 1
	}
	if o.MinDTESameDay == 0 {
		o.MinDTESameDay = 3
	}
	if o.MaxDTE == 0 {
		o.MaxDTE = 7
	}
	if o.MaxDTEMultiDay == 0 {
		o.MaxDTEMultiDay = 10
	}
	if o.SpreadPctMax == 0 {
		o.SpreadPctMax = 0.08
	}
	if o.MinVolume == 0 {
		o.MinVolume = 200
	}
	if o.MinOpenInterest == 0 {
		o.MinOpenInterest = 500
	}
	if o.MinMidPrice == 0 {
		o.MinMidPrice = 0.25
	}
	if o.IVPctlMaxAny == 0 {
		o.IVPctlMaxAny = 0.85
	}
	if o.IVPctlMaxAggressive == 0 {
		o.IVPctlMaxAggressive = 0.70
	}
	if o.ConservativeBand == (DeltaBand{}) {
		o.ConservativeBand = DeltaBand{Low: 0.50, High: 0.65}
	}
	if o.StandardBand == (DeltaBand{}) {
		o.StandardBand = DeltaBand{Low: 0.35, High: 0.50}
	}
	if o.AggressiveBand == (DeltaBand{}) {
		o.AggressiveBand = DeltaBand{Low: 0.25, High: 0.35}
	}
	if o.StockOnlyPenalty == 0 {
		o.StockOnlyPenalty = 1.0
	}

	sc := &cfg.ScannerConfig
	if len(sc.Universe) == 0 {
		sc.Universe = splitUniverse("SPY,QQQ,IWM,NVDA,TSLA,AAPL,MSFT,AMZN,META,AMD,AVGO")
	}
	if sc.MarketIndexSymbol == "" {
		sc.MarketIndexSymbol = "QQQ"
	}
	if sc.ScanIntervalSec == 0 {
		sc.ScanIntervalSec = 60
	}
	if sc.WorkerCount == 0 {
		sc.WorkerCount = 4
	}
	if sc.AllowedWindows == "" {
		sc.AllowedWindows = "09:35-11:00,13:30-15:50"
	}
	if sc.CooldownMinutes == 0 {
		sc.CooldownMinutes = 60
	}

	g := &cfg.GradingConfig
	if g.IntervalMinutes == 0 {
		g.IntervalMinutes = 30
	}
	if g.LookbackDays == 0 {
		g.LookbackDays = 3
	}
	if g.MinAgeMinutes == 0 {
		g.MinAgeMinutes = 120
	}

	db := &cfg.DatabaseConfig
	if db.Host == "" {
		db.Host = "localhost"
	}
	if db.Port == 0 {
		db.Port = 5432
	}
	if db.User == "" {
		db.User = "breakpoint"
	}
	if db.Database == "" {
		db.Database = "breakpoint"
	}
	if db.SSLMode == "" {
		db.SSLMode = "disable"
	}

	if cfg.RedisConfig.Address == "" {
		cfg.RedisConfig.Address = "localhost:6379"
	}

	sv := &cfg.ServerConfig
	if sv.Host == "" {
		sv.Host = "0.0.0.0"
	}
	if sv.Port == 0 {
		sv.Port = 8080
	}
	if sv.AllowedOrigins == "" {
		sv.AllowedOrigins = "*"
	}
	if sv.ReadTimeout == 0 {
		sv.ReadTimeout = 30
	}
	if sv.WriteTimeout == 0 {
		sv.WriteTimeout = 30
	}
	if sv.ShutdownTimeout == 0 {
		sv.ShutdownTimeout = 10
	}

	if cfg.AuthConfig.TokenDuration == 0 {
		cfg.AuthConfig.TokenDuration = 1 * time.Hour
	}

	if cfg.LoggingConfig.Level == "" {
		cfg.LoggingConfig.Level = "info"
	}
}

// Validate rejects configurations that indicate a deployment mistake.
// It runs once at boot, before any evaluation.
func (c *Config) Validate() error {
	s := c.StrategyConfig
	if s.MinPrice < 0 || s.MaxPrice < 0 || s.MinPrice >= s.MaxPrice {
		return fmt.Errorf("invalid price band: min %.2f max %.2f", s.MinPrice, s.MaxPrice)
	}
	if s.BoxBars < 2 {
		return fmt.Errorf("box_bars must be at least 2, got %d", s.BoxBars)
	}
	for name, v := range map[string]float64{
		"box_max_range_pct":        s.BoxMaxRangePct,
		"atr_compression_factor":   s.ATRCompressionFactor,
		"vol_contraction_factor":   s.VolContractionFactor,
		"break_buffer_pct":         s.BreakBufferPct,
		"max_extension_pct":        s.MaxExtensionPct,
		"break_vol_mult":           s.BreakVolMult,
		"entry_buffer_pct":         s.EntryBufferPct,
		"stop_buffer_pct":          s.StopBufferPct,
		"box_integrity_range_mult": s.BoxIntegrityRangeMult,
		"panic_atr_mult":           s.PanicATRMult,
	} {
		if v <= 0 {
			return fmt.Errorf("%s must be positive, got %f", name, v)
		}
	}
	if s.MinConfidence < 0 || s.MinConfidence > 10 {
		return fmt.Errorf("min_confidence must be within [0,10], got %f", s.MinConfidence)
	}
	if _, err := time.LoadLocation(s.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", s.Timezone, err)
	}

	o := c.OptionsConfig
	if o.MinDTE < 0 || o.MaxDTE < o.MinDTE || o.MaxDTEMultiDay < o.MaxDTE {
		return fmt.Errorf("invalid DTE window: min %d max %d multi-day %d", o.MinDTE, o.MaxDTE, o.MaxDTEMultiDay)
	}
	if o.MinDTESameDay < o.MinDTE || o.MinDTESameDay > o.MaxDTE {
		return fmt.Errorf("same-day min DTE %d outside window %d-%d", o.MinDTESameDay, o.MinDTE, o.MaxDTE)
	}
	for name, band := range map[string]DeltaBand{
		"conservative_band": o.ConservativeBand,
		"standard_band":     o.StandardBand,
		"aggressive_band":   o.AggressiveBand,
	} {
		if band.Low < 0 || band.High > 1 || band.Low >= band.High {
			return fmt.Errorf("invalid %s: low %.2f high %.2f", name, band.Low, band.High)
		}
	}
	if o.IVPctlMaxAggressive > o.IVPctlMaxAny {
		return fmt.Errorf("aggressive IV ceiling %.2f exceeds overall ceiling %.2f", o.IVPctlMaxAggressive, o.IVPctlMaxAny)
	}
	if o.SpreadPctMax <= 0 || o.MinMidPrice < 0 || o.StockOnlyPenalty < 0 {
		return fmt.Errorf("invalid options liquidity thresholds")
	}

	if _, err := ParseWindows(c.ScannerConfig.AllowedWindows); err != nil {
		return fmt.Errorf("invalid allowed_windows %q: %w", c.ScannerConfig.AllowedWindows, err)
	}
	if c.ScannerConfig.WorkerCount < 1 {
		return fmt.Errorf("worker_count must be at least 1, got %d", c.ScannerConfig.WorkerCount)
	}

	if c.AuthConfig.Enabled && (c.AuthConfig.JWTSecret == "" || c.AuthConfig.AdminKeyHash == "") {
		return fmt.Errorf("auth enabled but jwt_secret or admin_key_hash missing")
	}

	return nil
}

// Redacted returns a copy of the config safe to expose over the API.
func (c *Config) Redacted() Config {
	out := *c
	out.MarketDataConfig.APIKey = ""
	out.DatabaseConfig.Password = ""
	out.RedisConfig.Password = ""
	out.NotificationConfig.Telegram.BotToken = ""
	out.NotificationConfig.Discord.WebhookURL = ""
	out.AuthConfig.JWTSecret = ""
	out.AuthConfig.AdminKeyHash = ""
	return out
}

// TimeWindow is an intraday [Start, End] wall-clock window.
type TimeWindow struct {
	Start time.Duration // offset from midnight
	End   time.Duration
}

// Contains reports whether t's wall-clock time falls inside the window.
func (w TimeWindow) Contains(t time.Time) bool {
	offset := time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute + time.Duration(t.Second())*time.Second
	return offset >= w.Start && offset <= w.End
}

// ParseWindows parses a comma-separated "HH:MM-HH:MM,..." window list.
func ParseWindows(spec string) ([]TimeWindow, error) {
	var windows []TimeWindow
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		bounds := strings.Split(part, "-")
		if len(bounds) != 2 {
			return nil, fmt.Errorf("window %q must be HH:MM-HH:MM", part)
		}
		start, err := parseClock(bounds[0])
		if err != nil {
			return nil, err
		}
		end, err := parseClock(bounds[1])
		if err != nil {
			return nil, err
		}
		if end <= start {
			return nil, fmt.Errorf("window %q ends before it starts", part)
		}
		windows = append(windows, TimeWindow{Start: start, End: end})
	}
	if len(windows) == 0 {
		return nil, fmt.Errorf("no windows in %q", spec)
	}
	return windows, nil
}

func parseClock(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q: %w", s, err)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

func splitUniverse(s string) []string {
	var out []string
	for _, sym := range strings.Split(s, ",") {
		sym = strings.TrimSpace(strings.ToUpper(sym))
		if sym != "" {
			out = append(out, sym)
		}
	}
	return out
}

func loadFromFile(filename string) (*Config, error) {
	file, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(file, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return &config, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}
