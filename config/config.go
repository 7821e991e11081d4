package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yml
var embeddedConfig []byte

type Config struct {
	Mode     string `mapstructure:"mode"`
	Handlers struct {
		Prometheus struct {
			Port string `mapstructure:"port"`
		} `mapstructure:"prometheus"`
	} `mapstructure:"handlers"`
	Repositories struct {
		Postgres struct {
			Enabled           bool   `mapstructure:"enabled"`
			Host              string `mapstructure:"host"`
			Password          string `mapstructure:"password"`
			Port              string `mapstructure:"port"`
			Username          string `mapstructure:"username"`
			DB                string `mapstructure:"db"`
			SSLMODE           string `mapstructure:"SSLMODE"`
			MAXCONWAITINGTIME int    `mapstructure:"MAXCONWAITINGTIME"`
		} `mapstructure:"postgres"`
	} `mapstructure:"repositories"`
	Server struct {
		HTTPPort string        `mapstructure:"HTTPPort"`
		Timeout  time.Duration `mapstructure:"HTTPTimeout"`
	} `mapstructure:"server"`
	Generation struct {
		APIKey      string        `mapstructure:"apiKey"`
		Model       string        `mapstructure:"model"`
		Temperature float32       `mapstructure:"temperature"`
		Timeout     time.Duration `mapstructure:"timeout"`
	} `mapstructure:"generation"`
	Places struct {
		APIKey       string        `mapstructure:"apiKey"`
		PhotoBaseURL string        `mapstructure:"photoBaseURL"`
		MaxWidth     int           `mapstructure:"maxWidth"`
		CacheTTL     time.Duration `mapstructure:"cacheTTL"`
	} `mapstructure:"places"`
	Weather struct {
		APIKey  string        `mapstructure:"apiKey"`
		BaseURL string        `mapstructure:"baseURL"`
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"weather"`
	Chat struct {
		Provider     string  `mapstructure:"provider"`
		OpenAIAPIKey string  `mapstructure:"openaiApiKey"`
		OpenAIModel  string  `mapstructure:"openaiModel"`
		Temperature  float32 `mapstructure:"temperature"`
		MaxTokens    int     `mapstructure:"maxTokens"`
	} `mapstructure:"chat"`
	Cache struct {
		Redis struct {
			Addr     string `mapstructure:"addr"`
			Password string `mapstructure:"password"`
			DB       int    `mapstructure:"db"`
		} `mapstructure:"redis"`
	} `mapstructure:"cache"`
	Sessions struct {
		TTL time.Duration `mapstructure:"ttl"`
	} `mapstructure:"sessions"`
	RateLimit struct {
		RequestsPerMinute int `mapstructure:"requestsPerMinute"`
		Burst             int `mapstructure:"burst"`
	} `mapstructure:"ratelimit"`
}

// secrets are never committed to config.yml; they come from the environment.
var envBindings = map[string]string{
	"generation.apiKey":              "GOOGLE_GEMINI_API_KEY",
	"places.apiKey":                  "SERVER_GOOGLE_MAPS_API_KEY",
	"weather.apiKey":                 "OPENWEATHER_KEY",
	"chat.openaiApiKey":              "OPENAI_API_KEY",
	"cache.redis.addr":               "REDIS_ADDR",
	"cache.redis.password":           "REDIS_PASSWORD",
	"repositories.postgres.enabled":  "POSTGRES_ENABLED",
	"repositories.postgres.host":     "POSTGRES_HOST",
	"repositories.postgres.port":     "POSTGRES_PORT",
	"repositories.postgres.username": "POSTGRES_USER",
	"repositories.postgres.password": "POSTGRES_PASSWORD",
	"repositories.postgres.db":       "POSTGRES_DB",
	"server.HTTPPort":                "PORT",
	"generation.model":               "GEMINI_MODEL",
}

func InitConfig() (Config, error) {
	var config Config
	v := viper.New()

	v.AddConfigPath(".")
	v.AddConfigPath("config")
	v.AddConfigPath("/app/config")

	v.SetConfigName("config")
	v.SetConfigType("yml")

	err := v.ReadInConfig()
	if err != nil {
		fmt.Printf("Warning: Failed to find file-based config: %s. Falling back to embedded config.\n", err)
		if err = v.ReadConfig(bytes.NewReader(embeddedConfig)); err != nil {
			return Config{}, fmt.Errorf("failed to read embedded config: %w", err)
		}
	}

	for key, env := range envBindings {
		if err = v.BindEnv(key, env); err != nil {
			return Config{}, fmt.Errorf("failed to bind env %s: %w", env, err)
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	fmt.Println("Successfully loaded app configs...")
	return config, nil
}
