package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"server"`

	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"` // "json" or "console"
	} `mapstructure:"log"`

	Storage struct {
		Driver  string `mapstructure:"driver"` // file, memory, sqlite, postgres
		DSN     string `mapstructure:"dsn"`
		DataDir string `mapstructure:"data_dir"`
	} `mapstructure:"storage"`

	Auth struct {
		Disabled       bool   `mapstructure:"disabled"`
		Password       string `mapstructure:"password"`
		PasswordHash   string `mapstructure:"password_hash"`
		ViewerPassword string `mapstructure:"viewer_password"`
		SessionTTL     string `mapstructure:"session_ttl"`
	} `mapstructure:"auth"`

	Session struct {
		Driver string `mapstructure:"driver"` // memory or redis
	} `mapstructure:"session"`

	Redis struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`

	Billing struct {
		StrictInput bool `mapstructure:"strict_input"`
	} `mapstructure:"billing"`

	Email struct {
		Provider    string `mapstructure:"provider"`
		Host        string `mapstructure:"host"`
		Port        int    `mapstructure:"port"`
		Username    string `mapstructure:"username"`
		Password    string `mapstructure:"password"`
		FromAddress string `mapstructure:"from_address"`
		FromName    string `mapstructure:"from_name"`
		APIKey      string `mapstructure:"api_key"`
		Encryption  string `mapstructure:"encryption"`
	} `mapstructure:"email"`

	Report struct {
		Schedule  string `mapstructure:"schedule"`
		Recipient string `mapstructure:"recipient"`
	} `mapstructure:"report"`

	Alert struct {
		WebhookURL  string `mapstructure:"webhook_url"`
		WebhookType string `mapstructure:"webhook_type"`
	} `mapstructure:"alert"`
}

const defaultAddr = ":3000"

// setDefaults registers every key. Viper only unmarshals environment
// overrides for keys it already knows about.
func setDefaults(v *viper.Viper) {
	defaults := map[string]any{
		"server.addr":          "",
		"log.level":            "info",
		"log.format":           "json",
		"storage.driver":       "file",
		"storage.dsn":          "",
		"storage.data_dir":     "./data",
		"auth.disabled":        false,
		"auth.password":        "",
		"auth.password_hash":   "",
		"auth.viewer_password": "",
		"auth.session_ttl":     "12h",
		"session.driver":       "memory",
		"redis.addr":           "localhost:6379",
		"redis.password":       "",
		"redis.db":             0,
		"billing.strict_input": false,
		"email.provider":       "",
		"email.host":           "",
		"email.port":           587,
		"email.username":       "",
		"email.password":       "",
		"email.from_address":   "",
		"email.from_name":      "Copier Billing",
		"email.api_key":        "",
		"email.encryption":     "tls",
		"report.schedule":      "",
		"report.recipient":     "",
		"alert.webhook_url":    "",
		"alert.webhook_type":   "",
	}
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
}

// Load reads configuration from an optional YAML file, a .env file in the
// working directory, and COPIERBILL_* environment variables (highest
// precedence). PORT is honored for compatibility with container platforms.
func Load(path string) (Config, error) {
	// A missing .env is the normal case outside development.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("COPIERBILL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("port", "PORT")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("decode config: %w", err)
	}

	if c.Server.Addr == "" {
		c.Server.Addr = defaultAddr
		if port := v.GetString("port"); port != "" {
			c.Server.Addr = ":" + port
		}
	}
	return c, nil
}

// Validate checks settings that would otherwise fail late at request time.
func (c Config) Validate() error {
	if !c.Auth.Disabled && c.Auth.Password == "" && c.Auth.PasswordHash == "" {
		return errors.New("auth.password or auth.password_hash is required (or set auth.disabled)")
	}
	switch c.Session.Driver {
	case "memory", "redis":
	default:
		return fmt.Errorf("unsupported session driver %q", c.Session.Driver)
	}
	if c.Report.Schedule != "" && c.Report.Recipient == "" {
		return errors.New("report.recipient is required when report.schedule is set")
	}
	return nil
}
