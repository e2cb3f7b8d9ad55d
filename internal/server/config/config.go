// Package config assembles server settings from defaults, a dotenv file and
// the process environment, an optional JSON file, and command-line flags,
// applied in that order.
package config

import "time"

// Config holds runtime settings for the Chanakya server.
//
// DatabaseDSN selects the storage backend: a mongodb:// or mongodb+srv://
// URI uses MongoDB, anything else is treated as a PostgreSQL DSN.
// Export to object storage is enabled only when S3Bucket is set, and paid
// upgrades only when StripeSecretKey is set.
type Config struct {
	HTTPAddr     string
	GRPCAddr     string
	DatabaseDSN  string
	DatabaseName string

	SecretKey                   string
	AccessTokenValidityDuration time.Duration

	GroqAPIKey  string
	GroqBaseURL string
	LLMModel    string
	LLMTimeout  time.Duration

	CORSOrigins []string
	LogLevel    string

	S3RootUser                string
	S3RootPassword            string
	S3Bucket                  string
	S3Region                  string
	S3BaseEndpoint            string
	ExportURLValidityDuration time.Duration

	StripeSecretKey     string
	StripeWebhookSecret string
	StripePriceMonthly  string
	StripePriceYearly   string
	FrontendURL         string
}

// LoadDefaults populates Config with development defaults.
// The secret key must be overridden outside development.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = ":8000"
	c.GRPCAddr = ":50051"
	c.DatabaseDSN = "mongodb://localhost:27017"
	c.DatabaseName = "chanakya"
	c.SecretKey = "secretKey"
	c.AccessTokenValidityDuration = 7 * 24 * time.Hour
	c.GroqBaseURL = "https://api.groq.com/openai/v1/"
	c.LLMModel = "openai/gpt-oss-20b"
	c.LLMTimeout = 60 * time.Second
	c.CORSOrigins = []string{"*"}
	c.LogLevel = "info"
	c.S3Region = "us-east-1"
	c.ExportURLValidityDuration = 15 * time.Minute
}

// ExportEnabled reports whether itinerary export to object storage is configured.
func (c *Config) ExportEnabled() bool {
	return c.S3Bucket != ""
}

// BillingEnabled reports whether Stripe checkout is configured.
func (c *Config) BillingEnabled() bool {
	return c.StripeSecretKey != ""
}

// LoadConfig applies defaults, environment, JSON file and flags in order.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
