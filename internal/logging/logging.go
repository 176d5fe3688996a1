// Package logging configures the process-wide logrus logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Setup configures the standard logger. LOG_LEVEL overrides level when set.
// An unknown level falls back to info and is reported as an error.
func Setup(level, format string, out io.Writer) error {
	if env := os.Getenv("LOG_LEVEL"); env != "" {
		level = env
	}
	if out != nil {
		log.SetOutput(out)
	}

	switch strings.ToLower(format) {
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	case "", "text":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	default:
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
		return fmt.Errorf("unknown log format %q", format)
	}

	if level == "" {
		level = "info"
	}
	parsed, err := log.ParseLevel(level)
	if err != nil {
		log.SetLevel(log.InfoLevel)
		return fmt.Errorf("unknown log level %q", level)
	}
	log.SetLevel(parsed)
	return nil
}
