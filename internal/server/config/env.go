package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/dmitrijs2005/chanakya/internal/flagx"
	"github.com/joho/godotenv"
)

// parseEnv loads a dotenv file into the process environment and copies the
// recognised variables into config. The file given with -env must exist;
// the implicit ./.env is optional. Variables already set in the environment
// take precedence over the file.
func parseEnv(config *Config) {
	if path := flagx.EnvFile(); path != "" {
		if err := godotenv.Load(path); err != nil {
			panic(err)
		}
	} else if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(err)
	}

	setString(&config.HTTPAddr, "PORT", func(v string) string {
		if strings.Contains(v, ":") {
			return v
		}
		return ":" + v
	})
	setString(&config.GRPCAddr, "GRPC_ADDR", nil)
	setString(&config.DatabaseDSN, "DATABASE_DSN", nil)
	setString(&config.DatabaseDSN, "MONGODB_URI", nil)
	setString(&config.DatabaseName, "DATABASE_NAME", nil)
	setString(&config.SecretKey, "JWT_SECRET_KEY", nil)
	setString(&config.GroqAPIKey, "GROQ_API_KEY", nil)
	setString(&config.GroqBaseURL, "GROQ_BASE_URL", nil)
	setString(&config.LLMModel, "GROQ_MODEL", nil)
	setString(&config.LogLevel, "LOG_LEVEL", nil)
	setString(&config.S3RootUser, "S3_ROOT_USER", nil)
	setString(&config.S3RootPassword, "S3_ROOT_PASSWORD", nil)
	setString(&config.S3Bucket, "S3_BUCKET", nil)
	setString(&config.S3Region, "S3_REGION", nil)
	setString(&config.S3BaseEndpoint, "S3_BASE_ENDPOINT", nil)
	setString(&config.StripeSecretKey, "STRIPE_SECRET_KEY", nil)
	setString(&config.StripeWebhookSecret, "STRIPE_WEBHOOK_SECRET", nil)
	setString(&config.StripePriceMonthly, "STRIPE_PRICE_ID_MONTHLY", nil)
	setString(&config.StripePriceYearly, "STRIPE_PRICE_ID_YEARLY", nil)
	setString(&config.FrontendURL, "FRONTEND_URL", nil)

	if v, ok := os.LookupEnv("CORS_ORIGINS"); ok && strings.TrimSpace(v) != "" {
		config.CORSOrigins = splitList(v)
	}
}

func setString(dst *string, key string, transform func(string) string) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	if transform != nil {
		v = transform(v)
	}
	*dst = v
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
