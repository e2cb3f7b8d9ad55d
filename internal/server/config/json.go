package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/chanakya/internal/flagx"
	"github.com/dmitrijs2005/chanakya/internal/timex"
)

// JsonConfig is the on-disk shape of the JSON config file. Durations accept
// "45s"-style strings or integer nanoseconds.
type JsonConfig struct {
	HTTPAddr                    string         `json:"http_addr"`
	GRPCAddr                    string         `json:"grpc_addr"`
	DatabaseDSN                 string         `json:"database_dsn"`
	DatabaseName                string         `json:"database_name"`
	SecretKey                   string         `json:"secret_key"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration"`
	GroqAPIKey                  string         `json:"groq_api_key"`
	GroqBaseURL                 string         `json:"groq_base_url"`
	LLMModel                    string         `json:"llm_model"`
	LLMTimeout                  timex.Duration `json:"llm_timeout"`
	CORSOrigins                 []string       `json:"cors_origins"`
	LogLevel                    string         `json:"log_level"`
	S3RootUser                  string         `json:"s3_root_user"`
	S3RootPassword              string         `json:"s3_root_password"`
	S3Bucket                    string         `json:"s3_bucket"`
	S3Region                    string         `json:"s3_region"`
	S3BaseEndpoint              string         `json:"s3_base_endpoint"`
	ExportURLValidityDuration   timex.Duration `json:"export_url_validity_duration"`
	StripeSecretKey             string         `json:"stripe_secret_key"`
	StripeWebhookSecret         string         `json:"stripe_webhook_secret"`
	StripePriceMonthly          string         `json:"stripe_price_id_monthly"`
	StripePriceYearly           string         `json:"stripe_price_id_yearly"`
	FrontendURL                 string         `json:"frontend_url"`
}

// parseJson overlays values from the file named by -c/-config. Fields absent
// from the file keep their current values. An unreadable file or invalid JSON
// panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigFile()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	overlay(&config.HTTPAddr, c.HTTPAddr)
	overlay(&config.GRPCAddr, c.GRPCAddr)
	overlay(&config.DatabaseDSN, c.DatabaseDSN)
	overlay(&config.DatabaseName, c.DatabaseName)
	overlay(&config.SecretKey, c.SecretKey)
	overlay(&config.GroqAPIKey, c.GroqAPIKey)
	overlay(&config.GroqBaseURL, c.GroqBaseURL)
	overlay(&config.LLMModel, c.LLMModel)
	overlay(&config.LogLevel, c.LogLevel)
	overlay(&config.S3RootUser, c.S3RootUser)
	overlay(&config.S3RootPassword, c.S3RootPassword)
	overlay(&config.S3Bucket, c.S3Bucket)
	overlay(&config.S3Region, c.S3Region)
	overlay(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	overlay(&config.StripeSecretKey, c.StripeSecretKey)
	overlay(&config.StripeWebhookSecret, c.StripeWebhookSecret)
	overlay(&config.StripePriceMonthly, c.StripePriceMonthly)
	overlay(&config.StripePriceYearly, c.StripePriceYearly)
	overlay(&config.FrontendURL, c.FrontendURL)

	if c.AccessTokenValidityDuration.Duration > 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.LLMTimeout.Duration > 0 {
		config.LLMTimeout = c.LLMTimeout.Duration
	}
	if c.ExportURLValidityDuration.Duration > 0 {
		config.ExportURLValidityDuration = c.ExportURLValidityDuration.Duration
	}
	if len(c.CORSOrigins) > 0 {
		config.CORSOrigins = c.CORSOrigins
	}
}

func overlay(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
