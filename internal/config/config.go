package config

import (
	"errors"
	"log"
	"os"
	"strconv"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
		Env  string `yaml:"env"`
	} `yaml:"server"`

	Database struct {
		DSN string `yaml:"url"`
	} `yaml:"database"`

	JWT struct {
		Secret string `yaml:"secret"`
		TTL    int    `yaml:"ttl"` // minutes
	} `yaml:"jwt"`

	PayChangu struct {
		SecretKey   string `yaml:"secret_key"`
		BaseURL     string `yaml:"base_url"`
		Currency    string `yaml:"currency"`
		RedirectURL string `yaml:"redirect_url"` // browser return after checkout
		CancelURL   string `yaml:"cancel_url"`
		CallbackURL string `yaml:"callback_url"` // server-to-server webhook
	} `yaml:"paychangu"`

	FirstAdminEmail    string `yaml:"first_admin_email"`
	FirstAdminPassword string `yaml:"first_admin_password"`
}

var AppConfig *Config

// LoadConfig reads config.yaml, or builds the config entirely from
// environment variables when DATABASE_URL is set (test/deploy mode).
func LoadConfig() {
	var cfg Config

	dbURL := os.Getenv("DATABASE_URL")

	if dbURL == "" {
		configPath := os.Getenv("CONFIG_PATH")
		if configPath == "" {
			configPath = "config/config.yaml"
		}

		f, err := os.Open(configPath)
		if err != nil {
			log.Fatalf("Failed to open config file at %s: %v", configPath, err)
		}
		defer f.Close()

		decoder := yaml.NewDecoder(f)
		if err := decoder.Decode(&cfg); err != nil {
			log.Fatalf("Failed to parse config file at %s: %v", configPath, err)
		}

		applyEnvOverrides(&cfg)
		applyDefaults(&cfg)
		AppConfig = &cfg
		return
	}

	log.Println("Loading configuration from environment variables")

	cfg.Database.DSN = dbURL
	cfg.Server.Env = os.Getenv("SERVER_ENV")
	cfg.Server.Port, _ = strconv.Atoi(os.Getenv("SERVER_PORT"))
	cfg.JWT.Secret = os.Getenv("JWT_SECRET")
	cfg.JWT.TTL = 60

	cfg.PayChangu.SecretKey = os.Getenv("PAYCHANGU_SECRET_KEY")
	cfg.PayChangu.RedirectURL = os.Getenv("PAYCHANGU_REDIRECT_URL")
	cfg.PayChangu.CancelURL = os.Getenv("PAYCHANGU_CANCEL_URL")
	cfg.PayChangu.CallbackURL = os.Getenv("PAYCHANGU_CALLBACK_URL")

	cfg.FirstAdminEmail = os.Getenv("FIRST_ADMIN_EMAIL")
	cfg.FirstAdminPassword = os.Getenv("FIRST_ADMIN_PASSWORD")

	applyDefaults(&cfg)
	AppConfig = &cfg
}

// applyEnvOverrides lets secrets come from the environment even when the
// rest of the config is file-based, so they never land in config.yaml.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PAYCHANGU_SECRET_KEY"); v != "" {
		cfg.PayChangu.SecretKey = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWT.Secret = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.PayChangu.BaseURL == "" {
		cfg.PayChangu.BaseURL = "https://api.paychangu.com"
	}
	if cfg.PayChangu.Currency == "" {
		cfg.PayChangu.Currency = "MWK"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 4000
	}
	if cfg.JWT.TTL == 0 {
		cfg.JWT.TTL = 60
	}
}

// ValidateRequired reports the settings that cannot be defaulted. Missing
// credentials must surface as a clear error before any DB or network call.
func (c *Config) ValidateRequired() error {
	if c.Database.DSN == "" {
		return errors.New("database url is not configured")
	}
	if c.JWT.Secret == "" {
		return errors.New("jwt secret is not configured")
	}
	if c.PayChangu.SecretKey == "" {
		return errors.New("paychangu secret key is not configured")
	}
	return nil
}

func GetConfig() *Config {
	if AppConfig == nil {
		LoadConfig()
	}
	return AppConfig
}
