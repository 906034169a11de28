package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"

	"btcalert/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App          AppConfig          `mapstructure:"app"`
	Logging      logging.Config     `mapstructure:"logging"`
	Feed         FeedConfig         `mapstructure:"feed"`
	Alerting     AlertingConfig     `mapstructure:"alerting"`
	Webhook      WebhookConfig      `mapstructure:"webhook"`
	Notification NotificationConfig `mapstructure:"notification"`
	Metrics      MetricsConfig      `mapstructure:"metrics"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// FeedConfig describes the public ticker endpoint.
type FeedConfig struct {
	URL            string        `mapstructure:"url"`
	Currency       string        `mapstructure:"currency"`
	Field          string        `mapstructure:"field"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	Retries        int           `mapstructure:"retries"`
	RetryDelay     time.Duration `mapstructure:"retry_delay"`
}

// AlertingConfig holds the threshold and loop timing.
type AlertingConfig struct {
	Threshold     decimal.Decimal `mapstructure:"price"`
	CheckInterval time.Duration   `mapstructure:"check_time"`
	Cooldown      time.Duration   `mapstructure:"timeout"`
}

// WebhookConfig points at the notification endpoint.
type WebhookConfig struct {
	URL            string        `mapstructure:"url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// NotificationConfig overrides the rendered alert text.
type NotificationConfig struct {
	Content     string `mapstructure:"content"`
	Title       string `mapstructure:"title"`
	Description string `mapstructure:"description"`
	Color       int    `mapstructure:"color"`
	Footer      string `mapstructure:"footer"`
	PricePrefix string `mapstructure:"price_prefix"`
	Asset       string `mapstructure:"asset"`
}

// MetricsConfig enables the prometheus listener when Addr is set.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// Options select where configuration is read from.
type Options struct {
	// Path of an optional YAML file; empty means ./config.yaml if present.
	Path string
	// EnvFile is loaded into the environment without overriding existing variables.
	EnvFile string
}

// legacyEnv maps config keys to the unprefixed variable names operators already use.
var legacyEnv = map[string]string{
	"alerting.price":      "ALERT_PRICE",
	"alerting.check_time": "CHECK_TIME",
	"alerting.timeout":    "ALERT_TIMEOUT",
	"webhook.url":         "WEBHOOK",
}

// Load builds configuration from dotenv file, config file, environment, and defaults.
func Load(opts Options) (*Config, error) {
	if err := loadEnvFile(opts.EnvFile); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix("BTCALERT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range legacyEnv {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	setDefaults(v)

	if opts.Path != "" {
		v.SetConfigFile(opts.Path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := gotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "btcalert")
	v.SetDefault("app.environment", "production")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.file.max_size_mb", 50)
	v.SetDefault("logging.file.max_backups", 5)
	v.SetDefault("logging.file.max_age_days", 30)

	v.SetDefault("feed.url", "https://blockchain.info/ticker")
	v.SetDefault("feed.currency", "EUR")
	v.SetDefault("feed.field", "buy")
	v.SetDefault("feed.request_timeout", "10s")
	v.SetDefault("feed.retries", 0)
	v.SetDefault("feed.retry_delay", "5s")

	v.SetDefault("alerting.price", "70000")
	v.SetDefault("alerting.check_time", "900")
	v.SetDefault("alerting.timeout", "86400")

	v.SetDefault("webhook.request_timeout", "10s")

	v.SetDefault("notification.content", "@here ⚠️ BTC Price Alert")
	v.SetDefault("notification.title", "Bitcoin Price Drop")
	v.SetDefault("notification.description", "The price of BTC has dropped below your threshold!")
	v.SetDefault("notification.color", 16711680)
	v.SetDefault("notification.footer", "BTC Alert Bot")
	v.SetDefault("notification.price_prefix", "$")
	v.SetDefault("notification.asset", "BTC")

	v.SetDefault("metrics.addr", "")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			secondsToDurationHook(),
			stringToDecimalHook(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

var (
	durationType = reflect.TypeOf(time.Duration(0))
	decimalType  = reflect.TypeOf(decimal.Decimal{})
)

// secondsToDurationHook reads bare integers as seconds and anything else as a Go duration.
func secondsToDurationHook() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != durationType || from == durationType {
			return data, nil
		}

		switch from.Kind() {
		case reflect.String:
			raw := strings.TrimSpace(reflect.ValueOf(data).String())
			if secs, err := strconv.ParseInt(raw, 10, 64); err == nil {
				return time.Duration(secs) * time.Second, nil
			}
			d, err := time.ParseDuration(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid duration %q: expected seconds or a duration such as 15m", raw)
			}
			return d, nil
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return time.Duration(reflect.ValueOf(data).Int()) * time.Second, nil
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return time.Duration(reflect.ValueOf(data).Uint()) * time.Second, nil
		}
		return data, nil
	}
}

func stringToDecimalHook() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != decimalType || from == decimalType {
			return data, nil
		}

		switch from.Kind() {
		case reflect.String:
			raw := strings.TrimSpace(reflect.ValueOf(data).String())
			d, err := decimal.NewFromString(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid decimal %q: %w", raw, err)
			}
			return d, nil
		case reflect.Float32, reflect.Float64:
			return decimal.NewFromFloat(reflect.ValueOf(data).Float()), nil
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return decimal.NewFromInt(reflect.ValueOf(data).Int()), nil
		}
		return data, nil
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if !c.Alerting.Threshold.IsPositive() {
		return fmt.Errorf("alerting.price (ALERT_PRICE) must be greater than zero")
	}
	if c.Alerting.CheckInterval <= 0 {
		return fmt.Errorf("alerting.check_time (CHECK_TIME) must be greater than zero")
	}
	if c.Alerting.Cooldown <= 0 {
		return fmt.Errorf("alerting.timeout (ALERT_TIMEOUT) must be greater than zero")
	}
	if strings.TrimSpace(c.Webhook.URL) == "" {
		return fmt.Errorf("webhook.url (WEBHOOK) is required")
	}
	if err := validateHTTPURL(c.Webhook.URL); err != nil {
		return fmt.Errorf("webhook.url (WEBHOOK): %w", err)
	}
	if err := validateHTTPURL(c.Feed.URL); err != nil {
		return fmt.Errorf("feed.url: %w", err)
	}
	if c.Feed.Currency == "" {
		return fmt.Errorf("feed.currency must not be empty")
	}
	if c.Feed.Field == "" {
		return fmt.Errorf("feed.field must not be empty")
	}
	if c.Feed.Retries < 0 {
		return fmt.Errorf("feed.retries cannot be negative")
	}
	if c.Feed.Retries > 0 && c.Feed.RetryDelay < 0 {
		return fmt.Errorf("feed.retry_delay cannot be negative")
	}
	return nil
}

func validateHTTPURL(raw string) error {
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("url %q has no host", raw)
	}
	return nil
}
