package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	defaultAddress       = ":8090"
	defaultAuthAPIBase   = "https://app.dynamicauth.com"
	defaultWalletAPIBase = "https://app.dynamic.xyz"
)

type Config struct {
	Address     string        `yaml:"address" validate:"required"`
	Environment string        `yaml:"environment"`
	Dynamic     DynamicConfig `yaml:"dynamic"`
	Cookie      CookieConfig  `yaml:"cookie"`
	Revoke      RevokeConfig  `yaml:"revoke"`
}

// DynamicConfig holds everything needed to talk to the Dynamic vendor APIs
// and to verify the tokens it issues. BearerToken and EnvironmentID may be
// empty at load time; the proxy handlers report the missing configuration
// per request instead of refusing to start.
type DynamicConfig struct {
	EnvironmentID    string   `yaml:"environment_id"`
	BearerToken      string   `yaml:"bearer_token"`
	AuthAPIBaseURL   string   `yaml:"auth_api_base_url" validate:"required,url"`
	WalletAPIBaseURL string   `yaml:"wallet_api_base_url" validate:"required,url"`
	JwksURL          string   `yaml:"jwks_url"`
	Issuers          []string `yaml:"issuers"`
	Audiences        []string `yaml:"audiences"`
}

type CookieConfig struct {
	Name        string   `yaml:"name" validate:"required"`
	Domain      string   `yaml:"domain"`
	FallbackTTL Duration `yaml:"fallback_ttl"`
}

type RevokeConfig struct {
	Interval Duration `yaml:"interval"`
}

// Duration makes time.Duration usable in YAML with the usual "500ms", "24h"
// notation.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (c *Config) Production() bool {
	return c.Environment == "production"
}

// ResolveJwksURL returns the configured JWKS endpoint, falling back to the
// well-known SDK location of the Dynamic environment.
func (d *DynamicConfig) ResolveJwksURL() string {
	if d.JwksURL != "" {
		return d.JwksURL
	}
	return fmt.Sprintf("%s/api/v0/sdk/%s/.well-known/jwks", d.WalletAPIBaseURL, d.EnvironmentID)
}

func Default() *Config {
	return &Config{
		Address:     defaultAddress,
		Environment: "development",
		Dynamic: DynamicConfig{
			AuthAPIBaseURL:   defaultAuthAPIBase,
			WalletAPIBaseURL: defaultWalletAPIBase,
		},
		Cookie: CookieConfig{
			Name:        "DYNAMIC_JWT_TOKEN",
			FallbackTTL: Duration(24 * time.Hour),
		},
		Revoke: RevokeConfig{
			Interval: Duration(500 * time.Millisecond),
		},
	}
}

func LoadConfigFile(path string) (*Config, error) {
	config := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	err = yaml.Unmarshal(data, config)
	if err != nil {
		return nil, fmt.Errorf("unmarshal config file: %w", err)
	}

	config.applyEnv()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Load builds the configuration from defaults and environment variables
// only, for deployments without a config file.
func Load() (*Config, error) {
	config := Default()
	config.applyEnv()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("WALLET_GATEWAY_ADDRESS"); v != "" {
		c.Address = v
	}
	if v := os.Getenv("WALLET_GATEWAY_ENV"); v != "" {
		c.Environment = v
	}
	if v := os.Getenv("DYNAMIC_BEARER_TOKEN"); v != "" {
		c.Dynamic.BearerToken = v
	}
	if v := os.Getenv("DYNAMIC_ENVIRONMENT_ID"); v != "" {
		c.Dynamic.EnvironmentID = v
	}
	if v := os.Getenv("DYNAMIC_JWKS_URL"); v != "" {
		c.Dynamic.JwksURL = v
	}
	if v := os.Getenv("WALLET_GATEWAY_COOKIE_DOMAIN"); v != "" {
		c.Cookie.Domain = v
	}
}
