package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// ErrNoSecret: the signing secret is the one piece of mandatory
// configuration; without it the service must refuse to start.
var ErrNoSecret = errors.New("config: secret is required")

type Config struct {
	Mode       string        `mapstructure:"mode"`
	Port       int           `mapstructure:"port"`
	StaticPath string        `mapstructure:"static_path"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	Secret     string        `mapstructure:"secret"`

	TokenTTL      time.Duration `mapstructure:"token_ttl"`
	RoomTTL       time.Duration `mapstructure:"room_ttl"`
	SearchWindow  time.Duration `mapstructure:"search_window"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`

	STUNServers []string `mapstructure:"stun_servers"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("token_ttl", "168h")
	v.SetDefault("room_ttl", "30m")
	v.SetDefault("search_window", "90s")
	v.SetDefault("sweep_interval", "5s")
	v.SetDefault("stun_servers", []string{"stun:stun.l.google.com:19302"})

	v.BindEnv("secret", "MINGLE_SECRET")

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("⚠️ Config file not found (%s), using defaults\n", fileName)
	} else {
		fmt.Printf("✅ Loaded config: %s\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Secret == "" {
		return nil, ErrNoSecret
	}
	fmt.Printf("🧩 Mode: %s | Port: %d | Static: %s\n", cfg.Mode, cfg.Port, cfg.StaticPath)
	return &cfg, nil
}
