package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	log "github.com/sirupsen/logrus"
)

func TestSetupJSON(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	var buf bytes.Buffer
	if err := Setup("debug", "json", &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(func() { _ = Setup("info", "text", nil) })

	log.WithField("subject", "intro").Debug("playing")

	var line map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected JSON log line, got %q: %v", buf.String(), err)
	}
	if line["subject"] != "intro" {
		t.Errorf("expected subject field, got %v", line)
	}
}

func TestSetupEnvOverridesLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	if err := Setup("debug", "text", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(func() { log.SetLevel(log.InfoLevel) })

	if log.GetLevel() != log.WarnLevel {
		t.Errorf("expected warn level, got %s", log.GetLevel())
	}
}

func TestSetupUnknownLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	if err := Setup("chatty", "text", nil); err == nil {
		t.Fatal("expected error for unknown level")
	}
	if log.GetLevel() != log.InfoLevel {
		t.Errorf("expected fallback to info, got %s", log.GetLevel())
	}
}
