package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"mercator-hq/themis/pkg/config"
)

func TestNewLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(config.LoggingConfig{Level: "info", Format: "json"}, &buf)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}

	logger.Info("session started", "session_id", "sess-001")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if record["msg"] != "session started" {
		t.Errorf("msg = %v", record["msg"])
	}
	if record["session_id"] != "sess-001" {
		t.Errorf("session_id = %v", record["session_id"])
	}
}

func TestNewLoggerTextAndLevels(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(config.LoggingConfig{Level: "warn", Format: "text"}, &buf)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}

	logger.Info("suppressed")
	logger.Warn("kept")

	out := buf.String()
	if strings.Contains(out, "suppressed") {
		t.Error("info record emitted at warn level")
	}
	if !strings.Contains(out, "kept") {
		t.Error("warn record missing")
	}
}

func TestNewLoggerRejectsUnknowns(t *testing.T) {
	if _, err := NewLogger(config.LoggingConfig{Level: "loud"}, nil); err == nil {
		t.Error("unknown level accepted")
	}
	if _, err := NewLogger(config.LoggingConfig{Format: "xml"}, nil); err == nil {
		t.Error("unknown format accepted")
	}
}
