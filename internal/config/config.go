package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
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

	Push struct {
		Enabled    bool   `yaml:"enabled"`
		GatewayURL string `yaml:"gateway_url"`
		TimeoutSec int    `yaml:"timeout_sec"`
	} `yaml:"push"`

	Chat struct {
		HistoryPageSize int `yaml:"history_page_size"` // default limit for history pagination
		SendBufferSize  int `yaml:"send_buffer_size"`  // per-connection outbound buffer
	} `yaml:"chat"`

	Admin struct {
		Email    string `yaml:"email"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
	} `yaml:"admin"`
}

var AppConfig *Config

// LoadConfig reads configuration from config.yaml, or entirely from
// environment variables when DATABASE_URL is set (test/CI mode).
// A .env file, if present, is loaded first.
func LoadConfig() {
	_ = godotenv.Load()

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

		applyDefaults(&cfg)
		AppConfig = &cfg
		return
	}

	cfg.Database.DSN = dbURL
	cfg.Server.Env = os.Getenv("SERVER_ENV")
	cfg.Server.Port, _ = strconv.Atoi(os.Getenv("SERVER_PORT"))
	cfg.JWT.Secret = os.Getenv("JWT_SECRET")
	cfg.JWT.TTL = 60
	cfg.Push.Enabled = os.Getenv("PUSH_ENABLED") == "true"
	cfg.Push.GatewayURL = os.Getenv("PUSH_GATEWAY_URL")

	applyDefaults(&cfg)
	AppConfig = &cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Push.GatewayURL == "" {
		cfg.Push.GatewayURL = "https://exp.host/--/api/v2/push/send"
	}
	if cfg.Push.TimeoutSec == 0 {
		cfg.Push.TimeoutSec = 10
	}
	if cfg.Chat.HistoryPageSize == 0 {
		cfg.Chat.HistoryPageSize = 50
	}
	if cfg.Chat.SendBufferSize == 0 {
		cfg.Chat.SendBufferSize = 256
	}
	if cfg.JWT.TTL == 0 {
		cfg.JWT.TTL = 60
	}
}

func GetConfig() *Config {
	if AppConfig == nil {
		LoadConfig()
	}
	return AppConfig
}
