package main

import (
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"github.com/hannes/pii-mask/cli"
)

func main() {
	// Optional .env for PII_* and SENTRY_DSN overrides.
	if err := godotenv.Load(); err == nil {
		log.Debug("loaded .env file")
	}

	cli.Execute()
}
