package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// TrustedProxies lists proxy IPs or CIDRs whose X-Forwarded-For is believed. Empty trusts none.
	TrustedProxies []string `mapstructure:"trusted_proxies"`
}

type DatabaseConfig struct {
	Path          string `mapstructure:"path"`
	LogMode       bool   `mapstructure:"log_mode"`
	BusyTimeoutMS int    `mapstructure:"busy_timeout_ms"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	Issuer      string `mapstructure:"issuer"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

type SecurityConfig struct {
	BcryptCost         int    `mapstructure:"bcrypt_cost"`
	MaxFailedLogins    int    `mapstructure:"max_failed_logins"`
	LockMinutes        int    `mapstructure:"lock_minutes"`
	AllowedEmailDomain string `mapstructure:"allowed_email_domain"`

	// AuthRatePerMinute limits login and register calls per client IP; 0 disables it.
	AuthRatePerMinute int `mapstructure:"auth_rate_per_minute"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type AppSubConfig struct {
	PageSize         int `mapstructure:"page_size"`
	HistoryLimit     int `mapstructure:"history_limit"`
	HistoricalMonths int `mapstructure:"historical_months"`
}

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Security SecurityConfig `mapstructure:"security"`
	Log      LogConfig      `mapstructure:"log"`
	App      AppSubConfig   `mapstructure:"app"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", "0.0.0.0")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.cors_origins", []string{"http://localhost:5173"})
	v.SetDefault("server.shutdown_timeout", "15s")
	v.SetDefault("server.trusted_proxies", []string{})

	v.SetDefault("database.path", "./data/fintrack.db")
	v.SetDefault("database.log_mode", false)
	v.SetDefault("database.busy_timeout_ms", 5000)

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "fintrack")
	v.SetDefault("jwt.expire_hours", 24)

	v.SetDefault("security.bcrypt_cost", 10)
	v.SetDefault("security.max_failed_logins", 5)
	v.SetDefault("security.lock_minutes", 10)
	v.SetDefault("security.allowed_email_domain", "")
	v.SetDefault("security.auth_rate_per_minute", 30)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("app.page_size", 20)
	v.SetDefault("app.history_limit", 6)
	v.SetDefault("app.historical_months", 6)
}

// Read builds a Config from an optional YAML file, .env and FINTRACK_* environment variables.
// A missing file is not an error when path is empty; every key has a default.
func Read(path string) (*Config, error) {
	// .env is optional, same as the worker binaries that load it best effort
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if path == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	} else {
		v.SetConfigFile(path)
	}

	// environment overrides, e.g. FINTRACK_SERVER_PORT=9000
	v.SetEnvPrefix("FINTRACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var problems []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid server port %d: must be between 1 and 65535", c.Server.Port))
	}
	switch c.Server.Mode {
	case "", "debug", "release", "test":
	default:
		problems = append(problems, fmt.Sprintf("invalid server mode %q: must be debug, release or test", c.Server.Mode))
	}
	for _, p := range c.Server.TrustedProxies {
		if !validProxy(p) {
			problems = append(problems, fmt.Sprintf("invalid trusted proxy %q: must be an IP or CIDR", p))
		}
	}
	if c.Database.Path == "" {
		problems = append(problems, "database path cannot be empty")
	}
	if c.JWT.Secret == "" {
		problems = append(problems, "jwt secret cannot be empty (set FINTRACK_JWT_SECRET)")
	}
	if c.JWT.ExpireHours <= 0 {
		problems = append(problems, "jwt expire_hours must be positive")
	}
	if c.Security.BcryptCost < 4 || c.Security.BcryptCost > 31 {
		problems = append(problems, fmt.Sprintf("invalid bcrypt cost %d: must be between 4 and 31", c.Security.BcryptCost))
	}
	if c.Security.AuthRatePerMinute < 0 {
		problems = append(problems, "security auth_rate_per_minute cannot be negative")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("invalid log format %q: must be text or json", c.Log.Format))
	}
	if c.App.PageSize <= 0 || c.App.HistoryLimit <= 0 || c.App.HistoricalMonths <= 0 {
		problems = append(problems, "app page_size, history_limit and historical_months must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

func validProxy(p string) bool {
	if _, _, err := net.ParseCIDR(p); err == nil {
		return true
	}
	return net.ParseIP(p) != nil
}
