// Package config handles loading and validation of agent configuration.
// Supports both development (env vars) and production (Secret Manager) modes.
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strconv"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"

	"cartsync/internal/pricing"
)

// Config holds all agent configuration.
// Environment determines whether store credentials load from env vars
// (development) or Secret Manager (production).
type Config struct {
	// Server settings
	Port        string
	Environment string // "development" or "production"
	LogLevel    string // "debug", "info", "warn", "error"

	// GCP settings (required in production)
	GCPProject string
	StoreID    string

	// StatePath is the SQLite file for the local fallback store.
	// Empty means in-memory state that does not survive restarts.
	StatePath string

	// Store-specific configuration (loaded from secrets in production)
	Store StoreConfig
}

// StoreConfig contains the cart service connection settings.
// In production this is loaded from Secret Manager as JSON.
type StoreConfig struct {
	BaseURL          string `json:"base_url"`
	MinServerVersion string `json:"min_server_version,omitempty"`

	// Pricing constants for local totals estimation while the service is
	// unreachable. Zero values fall back to the storefront defaults.
	TaxRate               float64 `json:"tax_rate,omitempty"`
	FreeShippingThreshold int64   `json:"free_shipping_threshold,omitempty"`
	FlatShippingFee       int64   `json:"flat_shipping_fee,omitempty"`
}

// Load reads configuration from file, environment, or Secret Manager.
// Priority: CONFIG_FILE (if set) -> ENV vars / Secret Manager.
// Validates all required fields and returns an error if any are missing.
func Load(ctx context.Context) (*Config, error) {
	if configPath := os.Getenv("CONFIG_FILE"); configPath != "" {
		return loadFromFile(configPath)
	}

	cfg := &Config{
		Port:        envOrDefault("PORT", "8080"),
		Environment: envOrDefault("ENVIRONMENT", "development"),
		LogLevel:    envOrDefault("LOG_LEVEL", "info"),
		GCPProject:  os.Getenv("GCP_PROJECT"),
		StoreID:     os.Getenv("STORE_ID"),
		StatePath:   os.Getenv("STATE_PATH"),
	}

	var err error
	if cfg.Environment == "production" {
		if cfg.GCPProject == "" {
			return nil, fmt.Errorf("GCP_PROJECT required in production environment")
		}
		if cfg.StoreID == "" {
			return nil, fmt.Errorf("STORE_ID required in production environment")
		}
		err = cfg.loadFromSecretManager(ctx)
	} else {
		err = cfg.loadFromEnv()
	}
	if err != nil {
		return nil, fmt.Errorf("loading store config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromFile reads all configuration from a JSON file.
// Used for local development to avoid multiple ENV vars.
func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var fileConfig struct {
		Port        string      `json:"port"`
		Environment string      `json:"environment"`
		LogLevel    string      `json:"log_level"`
		StoreID     string      `json:"store_id"`
		StatePath   string      `json:"state_path"`
		Store       StoreConfig `json:"store"`
	}

	if err := json.Unmarshal(data, &fileConfig); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg := &Config{
		Port:        withDefault(fileConfig.Port, "8080"),
		Environment: withDefault(fileConfig.Environment, "development"),
		LogLevel:    withDefault(fileConfig.LogLevel, "info"),
		StoreID:     fileConfig.StoreID,
		StatePath:   fileConfig.StatePath,
		Store:       fileConfig.Store,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromSecretManager fetches store config from GCP Secret Manager.
// Secret name format: projects/{project}/secrets/{store_id}/versions/latest
func (c *Config) loadFromSecretManager(ctx context.Context) error {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("creating secret manager client: %w", err)
	}
	defer client.Close()

	secretName := fmt.Sprintf("projects/%s/secrets/%s/versions/latest",
		c.GCPProject, c.StoreID)

	result, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: secretName,
	})
	if err != nil {
		return fmt.Errorf("accessing secret %s: %w", secretName, err)
	}

	if err := json.Unmarshal(result.Payload.Data, &c.Store); err != nil {
		return fmt.Errorf("parsing secret JSON: %w", err)
	}

	return nil
}

// loadFromEnv reads store config from individual environment variables.
// Used in development mode for local testing.
func (c *Config) loadFromEnv() error {
	c.Store = StoreConfig{
		BaseURL:          os.Getenv("STORE_BASE_URL"),
		MinServerVersion: os.Getenv("STORE_MIN_SERVER_VERSION"),
	}

	var err error
	if rate := os.Getenv("STORE_TAX_RATE"); rate != "" {
		if c.Store.TaxRate, err = strconv.ParseFloat(rate, 64); err != nil {
			return fmt.Errorf("parsing STORE_TAX_RATE: %w", err)
		}
	}
	if threshold := os.Getenv("STORE_FREE_SHIPPING_THRESHOLD"); threshold != "" {
		if c.Store.FreeShippingThreshold, err = strconv.ParseInt(threshold, 10, 64); err != nil {
			return fmt.Errorf("parsing STORE_FREE_SHIPPING_THRESHOLD: %w", err)
		}
	}
	if fee := os.Getenv("STORE_FLAT_SHIPPING_FEE"); fee != "" {
		if c.Store.FlatShippingFee, err = strconv.ParseInt(fee, 10, 64); err != nil {
			return fmt.Errorf("parsing STORE_FLAT_SHIPPING_FEE: %w", err)
		}
	}

	return nil
}

// validate checks that all required configuration fields are present.
func (c *Config) validate() error {
	if c.Store.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}
	if _, err := url.Parse(c.Store.BaseURL); err != nil {
		return fmt.Errorf("invalid base_url: %w", err)
	}
	if c.Store.TaxRate < 0 || c.Store.TaxRate >= 1 {
		return fmt.Errorf("tax_rate must be in [0, 1)")
	}
	if c.Store.FreeShippingThreshold < 0 || c.Store.FlatShippingFee < 0 {
		return fmt.Errorf("shipping amounts must not be negative")
	}
	return nil
}

// Pricing builds the local estimation constants, falling back to the
// storefront defaults for anything unset.
func (c *Config) Pricing() pricing.Config {
	out := pricing.DefaultConfig()
	if c.Store.TaxRate > 0 {
		out.TaxRate = c.Store.TaxRate
	}
	if c.Store.FreeShippingThreshold > 0 {
		out.FreeShippingThreshold = c.Store.FreeShippingThreshold
	}
	if c.Store.FlatShippingFee > 0 {
		out.FlatShippingFee = c.Store.FlatShippingFee
	}
	return out
}

// withDefault returns val if non-empty, otherwise defaultVal.
func withDefault(val, defaultVal string) string {
	if val != "" {
		return val
	}
	return defaultVal
}

// envOrDefault returns the environment variable value or the default if not set.
func envOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
