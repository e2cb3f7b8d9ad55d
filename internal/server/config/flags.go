package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/chanakya/internal/flagx"
)

// parseFlags overlays command-line flags, the last configuration layer.
//
//	-a string   HTTP listen address
//	-g string   gRPC health listen address
//	-d string   database DSN (mongodb:// URI or PostgreSQL DSN)
//	-n string   database name (MongoDB)
//	-s string   JWT HMAC secret
//	-t int      access token validity, hours
//	-k string   Groq API key
//	-m string   LLM model
//	-l string   log level
//	-u/-p/-b/-r/-e   S3 user, password, bucket, region, endpoint
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-g", "-d", "-n", "-s", "-t", "-k", "-m", "-l", "-u", "-p", "-b", "-r", "-e"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "HTTP address and port")
	fs.StringVar(&config.GRPCAddr, "g", config.GRPCAddr, "gRPC health address and port")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.DatabaseName, "n", config.DatabaseName, "database name")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "JWT secret key")

	tokenHours := fs.Int("t", int(config.AccessTokenValidityDuration.Hours()), "access token validity (in hours)")

	fs.StringVar(&config.GroqAPIKey, "k", config.GroqAPIKey, "Groq API key")
	fs.StringVar(&config.LLMModel, "m", config.LLMModel, "LLM model")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "r", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AccessTokenValidityDuration = time.Duration(*tokenHours) * time.Hour
}
