package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"log"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Vendor struct {
		BaseURL           string        `yaml:"base_url"`
		AuthToken         string        `yaml:"auth_token"`
		Market            string        `yaml:"market"`
		MarketID          string        `yaml:"market_id"`
		RequestTimeout    time.Duration `yaml:"request_timeout"`
		MaxConcurrent     int           `yaml:"max_concurrent"`
		RequestsPerMinute int           `yaml:"requests_per_minute"`
		Resolution        string        `yaml:"resolution"`
		ChunkMinutes      int           `yaml:"chunk_minutes"`
		MaxChunks         int           `yaml:"max_chunks"`
		TradesPageSize    int           `yaml:"trades_page_size"`
	} `yaml:"vendor"`
	Scan struct {
		Interval     time.Duration `yaml:"interval"`
		ErrorBackoff time.Duration `yaml:"error_backoff"`
		BatchSize    int           `yaml:"batch_size"`
		MinPoints    int           `yaml:"min_points"`
	} `yaml:"scan"`
	Strategy struct {
		MinPrice                    float64  `yaml:"min_price"`
		MaxPrice                    float64  `yaml:"max_price"`
		MinMarketCap                float64  `yaml:"min_market_cap"`
		Blacklist                   []string `yaml:"blacklist"`
		InstitutionalTradeThreshold float64  `yaml:"institutional_trade_threshold"`
		ADXThreshold                float64  `yaml:"adx_threshold"`
		RSIOverbought               float64  `yaml:"rsi_overbought"`
		BuyPressureThreshold        float64  `yaml:"buy_pressure_threshold"`
		InstitutionalRatioThreshold float64  `yaml:"institutional_ratio_threshold"`
		BidAskMargin                float64  `yaml:"bid_ask_margin"`
		MaxSpreadRatio              float64  `yaml:"max_spread_ratio"`
		TechnicalConditions         []string `yaml:"technical_conditions"`
		MinTechnicalScore           int      `yaml:"min_technical_score"`
		MinFlowScore                int      `yaml:"min_flow_score"`
		MinDepthScore               int      `yaml:"min_depth_score"`
		MinSignalStrength           float64  `yaml:"min_signal_strength"`
		StrengthDelta               float64  `yaml:"strength_delta"`
	} `yaml:"strategy"`
	Risk struct {
		ATRMultiplier      float64 `yaml:"atr_multiplier"`
		StructuralLookback int     `yaml:"structural_lookback"`
		StructuralBuffer   float64 `yaml:"structural_buffer"`
		FallbackStopPct    float64 `yaml:"fallback_stop_pct"`
		MinRiskReward      float64 `yaml:"min_risk_reward"`
		AccountRiskCapital float64 `yaml:"account_risk_capital"`
		RiskFraction       float64 `yaml:"risk_fraction"`
	} `yaml:"risk"`
	Telegram struct {
		Enabled     bool          `yaml:"enabled"`
		BotToken    string        `yaml:"bot_token"`
		PollTimeout time.Duration `yaml:"poll_timeout"`
	} `yaml:"telegram"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Postgres struct {
		DSN      string `yaml:"dsn"`
		MaxConns int    `yaml:"max_conns"`
	} `yaml:"postgres"`
	Kafka struct {
		Enabled      bool          `yaml:"enabled"`
		Brokers      []string      `yaml:"brokers"`
		Topic        string        `yaml:"topic"`
		RequiredAcks int           `yaml:"required_acks"`
		Compression  string        `yaml:"compression"`
		MaxAttempts  int           `yaml:"max_attempts"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
	} `yaml:"kafka"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("VENDOR_AUTH_TOKEN"); v != "" {
		c.Vendor.AuthToken = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		c.Postgres.DSN = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Vendor.Market == "" {
		c.Vendor.Market = "egypt"
	}
	if c.Vendor.MaxConcurrent <= 0 {
		c.Vendor.MaxConcurrent = 2
	}
	if c.Vendor.RequestsPerMinute <= 0 {
		c.Vendor.RequestsPerMinute = 60
	}
	if c.Vendor.RequestTimeout <= 0 {
		c.Vendor.RequestTimeout = 30 * time.Second
	}
	if c.Vendor.ChunkMinutes <= 0 {
		c.Vendor.ChunkMinutes = 150
	}
	if c.Vendor.MaxChunks <= 0 {
		c.Vendor.MaxChunks = 4
	}
	if c.Vendor.TradesPageSize <= 0 {
		c.Vendor.TradesPageSize = 50
	}
	if c.Scan.Interval <= 0 {
		c.Scan.Interval = 10 * time.Second
	}
	if c.Scan.ErrorBackoff <= 0 {
		c.Scan.ErrorBackoff = time.Minute
	}
	if c.Scan.BatchSize <= 0 {
		c.Scan.BatchSize = c.Vendor.MaxConcurrent
	}
	if c.Scan.MinPoints <= 0 {
		c.Scan.MinPoints = 26
	}
	if c.Strategy.StrengthDelta <= 0 {
		c.Strategy.StrengthDelta = 0.05
	}
	if c.Risk.MinRiskReward <= 0 {
		c.Risk.MinRiskReward = 2
	}
	if c.Risk.StructuralLookback <= 0 {
		c.Risk.StructuralLookback = 10
	}
}

// Validate checks if the configuration is valid. Missing mandatory
// configuration is the only fatal startup path in the system.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Vendor.BaseURL == "" {
		return fmt.Errorf("vendor.base_url is required")
	}
	if c.Vendor.MarketID == "" {
		return fmt.Errorf("vendor.market_id is required")
	}
	if c.Strategy.MinSignalStrength < 0 || c.Strategy.MinSignalStrength > 1 {
		return fmt.Errorf("strategy.min_signal_strength must be in [0,1], got %v", c.Strategy.MinSignalStrength)
	}
	if c.Telegram.Enabled && c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	return nil
}
