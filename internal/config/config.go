// Package config defines all configuration for the swing-trading bot.
// Config is loaded from a YAML file (default: configs/config.yaml) with
// sensitive fields overridable via KIS_* environment variables.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config is the top-level configuration. Maps directly to the YAML file structure.
type Config struct {
	Broker    BrokerConfig    `mapstructure:"broker"`
	Exchange  ExchangeConfig  `mapstructure:"exchange"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	Trading   TradingConfig   `mapstructure:"trading"`
	Store     StoreConfig     `mapstructure:"store"`
	Log       LogConfig       `mapstructure:"log"`
	Dashboard DashboardConfig `mapstructure:"dashboard"`
}

// BrokerConfig holds the KIS OpenAPI endpoints, credentials, and account
// selector. Mode picks the endpoint/tr_id family for account and order
// calls; market-data calls always go to the real endpoint because the
// mock gateway does not serve quotations.
type BrokerConfig struct {
	BaseURLReal    string `mapstructure:"base_url_real"`
	BaseURLMock    string `mapstructure:"base_url_mock"`
	AppKey         string `mapstructure:"app_key"`
	AppSecret      string `mapstructure:"app_secret"`
	AccountNumber  string `mapstructure:"account_number"`
	AccountProduct string `mapstructure:"account_product"`
	Mode           string `mapstructure:"mode"` // "real" or "mock"
	TokenPath      string `mapstructure:"token_path"`
}

// Real reports whether account/order traffic targets the live endpoint family.
func (b *BrokerConfig) Real() bool { return b.Mode == "real" }

// TradeBaseURL is the base URL for account and order calls.
func (b *BrokerConfig) TradeBaseURL() string {
	if b.Real() {
		return b.BaseURLReal
	}
	return b.BaseURLMock
}

// TokenBaseURL is where access tokens are issued. Always the real
// endpoint, whatever the mode: the same token must be presented to
// market-data calls, which only the real gateway serves.
func (b *BrokerConfig) TokenBaseURL() string { return b.BaseURLReal }

// ExchangeConfig holds the KRX reference-data endpoints used for the
// monthly ticker universe refresh.
type ExchangeConfig struct {
	KospiURL  string `mapstructure:"kospi_url"`
	KosdaqURL string `mapstructure:"kosdaq_url"`
	Key       string `mapstructure:"key"`
}

// NotifyConfig points at the webhook that receives job-boundary and
// order-fill messages. Empty URL disables notification.
type NotifyConfig struct {
	WebhookURL string `mapstructure:"webhook_url"`
}

// TradingConfig tunes the intraday buy/sell loop.
//
//   - ContractRate: fraction of effective cash committed per buy order.
//   - LimitPrice:   per-ticker accumulation cap in KRW; buys stop once
//     qty×avgPrice exceeds it.
//   - LimitCnt:     max number of distinct holdings.
type TradingConfig struct {
	ContractRate float64    `mapstructure:"contract_rate"`
	LimitPrice   float64    `mapstructure:"limit_price"`
	LimitCnt     int        `mapstructure:"limit_cnt"`
	Buy          BuyConfig  `mapstructure:"buy"`
	Sell         SellConfig `mapstructure:"sell"`
}

// BuyConfig gates the buy task. TestForceBuy skips the price-vs-target
// check; it exists for paper-account dry runs.
type BuyConfig struct {
	UseYN        string `mapstructure:"use_yn"`
	TestForceBuy string `mapstructure:"test_force_buy"`
}

// SellConfig tunes the sell task.
//
//   - UpRate:   take-profit threshold in percent.
//   - DownRate: loss-cut threshold in percent (negative).
//   - HoldRate: fraction of LimitPrice below which the position keeps
//     accumulating instead of being sold.
type SellConfig struct {
	UpRate        float64 `mapstructure:"up_rate"`
	DownRate      float64 `mapstructure:"down_rate"`
	UseLossCut    string  `mapstructure:"use_loss_cut"`
	HoldRate      float64 `mapstructure:"hold_rate"`
	TestForceSell string  `mapstructure:"test_force_sell"`
}

// StoreConfig sets where the SQLite database lives.
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// DashboardConfig controls the read-only status server. AllowedOrigins
// restricts websocket upgrades; empty means same-host and localhost only.
type DashboardConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	ListenAddr     string   `mapstructure:"listen_addr"`
	StaticDir      string   `mapstructure:"static_dir"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Load reads config from a YAML file with env var overrides.
// Sensitive fields use env vars: KIS_APP_KEY, KIS_APP_SECRET,
// KIS_ACCOUNT_NUMBER, KIS_WEBHOOK_URL, KIS_EXCHANGE_KEY.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("KIS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("broker.base_url_real", "https://openapi.koreainvestment.com:9443")
	v.SetDefault("broker.base_url_mock", "https://openapivts.koreainvestment.com:29443")
	v.SetDefault("broker.account_product", "01")
	v.SetDefault("broker.mode", "mock")
	v.SetDefault("broker.token_path", "auth/token.txt")
	v.SetDefault("trading.contract_rate", 0.1)
	v.SetDefault("trading.limit_price", 500000.0)
	v.SetDefault("trading.limit_cnt", 20)
	v.SetDefault("trading.buy.use_yn", "Y")
	v.SetDefault("trading.buy.test_force_buy", "N")
	v.SetDefault("trading.sell.up_rate", 10.0)
	v.SetDefault("trading.sell.down_rate", -20.0)
	v.SetDefault("trading.sell.use_loss_cut", "Y")
	v.SetDefault("trading.sell.hold_rate", 0.8)
	v.SetDefault("trading.sell.test_force_sell", "N")
	v.SetDefault("store.path", "swingbot.db")
	v.SetDefault("dashboard.enabled", false)
	v.SetDefault("dashboard.listen_addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Override sensitive fields from env
	if key := os.Getenv("KIS_APP_KEY"); key != "" {
		cfg.Broker.AppKey = key
	}
	if secret := os.Getenv("KIS_APP_SECRET"); secret != "" {
		cfg.Broker.AppSecret = secret
	}
	if acct := os.Getenv("KIS_ACCOUNT_NUMBER"); acct != "" {
		cfg.Broker.AccountNumber = acct
	}
	if url := os.Getenv("KIS_WEBHOOK_URL"); url != "" {
		cfg.Notify.WebhookURL = url
	}
	if key := os.Getenv("KIS_EXCHANGE_KEY"); key != "" {
		cfg.Exchange.Key = key
	}

	return &cfg, nil
}

// Validate checks all required fields and value ranges.
func (c *Config) Validate() error {
	if c.Broker.AppKey == "" {
		return fmt.Errorf("broker.app_key is required (set KIS_APP_KEY)")
	}
	if c.Broker.AppSecret == "" {
		return fmt.Errorf("broker.app_secret is required (set KIS_APP_SECRET)")
	}
	if c.Broker.AccountNumber == "" {
		return fmt.Errorf("broker.account_number is required (set KIS_ACCOUNT_NUMBER)")
	}
	switch c.Broker.Mode {
	case "real", "mock":
	default:
		return fmt.Errorf("broker.mode must be one of: real, mock")
	}
	if c.Broker.BaseURLReal == "" {
		return fmt.Errorf("broker.base_url_real is required")
	}
	if c.Trading.ContractRate <= 0 || c.Trading.ContractRate > 1 {
		return fmt.Errorf("trading.contract_rate must be in (0, 1]")
	}
	if c.Trading.LimitPrice <= 0 {
		return fmt.Errorf("trading.limit_price must be > 0")
	}
	if c.Trading.LimitCnt <= 0 {
		return fmt.Errorf("trading.limit_cnt must be > 0")
	}
	if c.Trading.Sell.HoldRate < 0 || c.Trading.Sell.HoldRate > 1 {
		return fmt.Errorf("trading.sell.hold_rate must be in [0, 1]")
	}
	if c.Store.Path == "" {
		return fmt.Errorf("store.path is required")
	}
	return nil
}
