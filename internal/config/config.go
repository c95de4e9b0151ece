// Package config carga la configuración YAML del servicio y aplica
// overrides por variables de entorno.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		// dev | prod
		Env      string `yaml:"env"`
		LogLevel string `yaml:"log_level"`
	} `yaml:"app"`

	Server struct {
		Addr    string `yaml:"addr"`
		BaseURL string `yaml:"base_url"`
	} `yaml:"server"`

	// Users define el backend del store de usuarios para form/basic.
	Users struct {
		// memory | postgres
		Driver string `yaml:"driver"`
		DSN    string `yaml:"dsn"`
		Seed   []struct {
			Username     string            `yaml:"username"`
			PasswordHash string            `yaml:"password_hash"`
			Attributes   map[string]string `yaml:"attributes"`
		} `yaml:"seed"`
	} `yaml:"users"`

	Form struct {
		Enabled           bool   `yaml:"enabled"`
		LoginURL          string `yaml:"login_url"`
		UsernameParameter string `yaml:"username_parameter"`
		PasswordParameter string `yaml:"password_parameter"`
	} `yaml:"form"`

	Basic struct {
		Enabled bool   `yaml:"enabled"`
		Realm   string `yaml:"realm"`
	} `yaml:"basic"`

	OAuth []OAuthProvider `yaml:"oauth"`

	CAS struct {
		Enabled               bool `yaml:"enabled"`
		MillisBetweenCleanups int  `yaml:"millis_between_cleanups"`
		DisableCleanups       bool `yaml:"disable_cleanups"`
		// TicketStore: memory | redis
		TicketStore string `yaml:"ticket_store"`
		Redis       struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cas"`
}

// OAuthProvider configura un proveedor de delegated tokens.
type OAuthProvider struct {
	// Name: "github", "google", o "custom".
	Name   string `yaml:"name"`
	Key    string `yaml:"key"`
	Secret string `yaml:"secret"`

	ConnectTimeoutMs int `yaml:"connect_timeout_ms"`
	ReadTimeoutMs    int `yaml:"read_timeout_ms"`

	// Solo para name: custom.
	AuthorizationURL string   `yaml:"authorization_url"`
	TokenURL         string   `yaml:"token_url"`
	ProfileURL       string   `yaml:"profile_url"`
	Scopes           []string `yaml:"scopes"`
	IDAttribute      string   `yaml:"id_attribute"`
}

// Load lee el YAML, aplica overrides de entorno y valida.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
	}
	cfg.applyEnvOverrides()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnvOverrides pisa el YAML con variables AUTHBRIDGE_*.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("AUTHBRIDGE_ENV"); v != "" {
		c.App.Env = v
	}
	if v := os.Getenv("AUTHBRIDGE_LOG_LEVEL"); v != "" {
		c.App.LogLevel = v
	}
	if v := os.Getenv("AUTHBRIDGE_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("AUTHBRIDGE_BASE_URL"); v != "" {
		c.Server.BaseURL = v
	}
	if v := os.Getenv("AUTHBRIDGE_USERS_DSN"); v != "" {
		c.Users.DSN = v
	}
	if v := os.Getenv("AUTHBRIDGE_CAS_REDIS_ADDR"); v != "" {
		c.CAS.Redis.Addr = v
	}
	if v := os.Getenv("AUTHBRIDGE_CAS_CLEANUP_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.CAS.MillisBetweenCleanups = n
		}
	}
	// Secrets por provider: AUTHBRIDGE_OAUTH_<NAME>_KEY / _SECRET
	for i := range c.OAuth {
		prefix := "AUTHBRIDGE_OAUTH_" + strings.ToUpper(c.OAuth[i].Name)
		if v := os.Getenv(prefix + "_KEY"); v != "" {
			c.OAuth[i].Key = v
		}
		if v := os.Getenv(prefix + "_SECRET"); v != "" {
			c.OAuth[i].Secret = v
		}
	}
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.BaseURL == "" {
		c.Server.BaseURL = "http://localhost" + c.Server.Addr
	}
	if c.Users.Driver == "" {
		c.Users.Driver = "memory"
	}
	if c.CAS.TicketStore == "" {
		c.CAS.TicketStore = "memory"
	}
}

// Validate chequea los valores críticos.
func (c *Config) Validate() error {
	switch c.Users.Driver {
	case "memory":
	case "postgres":
		if strings.TrimSpace(c.Users.DSN) == "" {
			return fmt.Errorf("config: users.dsn is required for driver postgres")
		}
	default:
		return fmt.Errorf("config: unknown users.driver %q", c.Users.Driver)
	}
	if c.Form.Enabled && strings.TrimSpace(c.Form.LoginURL) == "" {
		return fmt.Errorf("config: form.login_url is required when form is enabled")
	}
	seen := map[string]bool{}
	for _, p := range c.OAuth {
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("config: oauth provider without name")
		}
		if seen[p.Name] {
			return fmt.Errorf("config: duplicate oauth provider %q", p.Name)
		}
		seen[p.Name] = true
		if strings.TrimSpace(p.Key) == "" || strings.TrimSpace(p.Secret) == "" {
			return fmt.Errorf("config: oauth provider %q needs key and secret", p.Name)
		}
		if p.Name == "custom" {
			for field, v := range map[string]string{
				"authorization_url": p.AuthorizationURL,
				"token_url":         p.TokenURL,
				"profile_url":       p.ProfileURL,
			} {
				if strings.TrimSpace(v) == "" {
					return fmt.Errorf("config: oauth provider custom needs %s", field)
				}
			}
		}
	}
	switch c.CAS.TicketStore {
	case "memory":
	case "redis":
		if strings.TrimSpace(c.CAS.Redis.Addr) == "" {
			return fmt.Errorf("config: cas.redis.addr is required for ticket_store redis")
		}
	default:
		return fmt.Errorf("config: unknown cas.ticket_store %q", c.CAS.TicketStore)
	}
	return nil
}
