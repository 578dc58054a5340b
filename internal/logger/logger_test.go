package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewWithWriter_Level(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "warn")

	log.Info("hidden")
	log.Warn("shown", "symbol", "AAPL")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message logged at warn level: %s", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "symbol=AAPL") {
		t.Errorf("warn message missing: %s", out)
	}
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "debug").With("component", "market")
	log.Debug("quote")

	if !strings.Contains(buf.String(), "component=market") {
		t.Errorf("missing attribute: %s", buf.String())
	}
}
