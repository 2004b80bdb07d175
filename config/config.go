package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds everything the service reads from the environment.
type Config struct {
	DatabaseURL         string
	Port                string
	AllowedOrigins      string
	AdminToken          string
	GatewayServiceToken string
	InviteBaseURL       string

	SpotsEnabled          bool
	PotaAggregatorEnabled bool
	RbnAggregatorEnabled  bool
	SotaAggregatorEnabled bool
}

// Load reads the environment. Missing required variables are an error so the
// process fails at startup rather than at first request.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		Port:                os.Getenv("PORT"),
		AllowedOrigins:      os.Getenv("ALLOWED_ORIGINS"),
		AdminToken:          os.Getenv("ADMIN_TOKEN"),
		GatewayServiceToken: os.Getenv("GATEWAY_SERVICE_TOKEN"),
		InviteBaseURL:       os.Getenv("INVITE_BASE_URL"),

		SpotsEnabled:          boolEnv("SPOTS_ENABLED", true),
		PotaAggregatorEnabled: boolEnv("POTA_AGGREGATOR_ENABLED", true),
		RbnAggregatorEnabled:  boolEnv("RBN_AGGREGATOR_ENABLED", true),
		SotaAggregatorEnabled: boolEnv("SOTA_AGGREGATOR_ENABLED", true),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable not set")
	}
	if cfg.AdminToken == "" {
		return nil, fmt.Errorf("ADMIN_TOKEN environment variable not set")
	}
	if cfg.GatewayServiceToken == "" {
		return nil, fmt.Errorf("GATEWAY_SERVICE_TOKEN environment variable not set")
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.AllowedOrigins == "" {
		cfg.AllowedOrigins = "http://localhost:3000"
	}
	if cfg.InviteBaseURL == "" {
		cfg.InviteBaseURL = "https://carrierwave.app"
	}
	cfg.InviteBaseURL = strings.TrimRight(cfg.InviteBaseURL, "/")

	return cfg, nil
}

func boolEnv(key string, fallback bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return v
}
