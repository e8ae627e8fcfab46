package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/YuminosukeSato/irisknn/pkg/errors"
)

func TestZerologLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLogger(&buf, LevelInfo)

	logger.Debug("hidden", KKey, 1)
	logger.Info("tuning run completed", KKey, 3, MetricKey, "euclidean", AccuracyKey, 0.9)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("Expected 1 line, got %d: %q", len(lines), buf.String())
	}

	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if entry["message"] != "tuning run completed" {
		t.Errorf("message = %v", entry["message"])
	}
	if entry[KKey] != 3.0 {
		t.Errorf("%s = %v, want 3", KKey, entry[KKey])
	}
	if entry[MetricKey] != "euclidean" {
		t.Errorf("%s = %v", MetricKey, entry[MetricKey])
	}
	if entry["level"] != "info" {
		t.Errorf("level = %v", entry["level"])
	}
}

func TestZerologLogger_LeadingError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLogger(&buf, LevelDebug)

	logger.Error("tuning run failed", errors.NewInvalidHyperparameterError(0, 4), KKey, 0)

	out := buf.String()
	if !strings.Contains(out, `"error":"knn: invalid hyperparameter: k=0 must be in [1, 4]"`) {
		t.Errorf("Expected error field, got %s", out)
	}
	if !strings.Contains(out, `"knn.k":0`) {
		t.Errorf("Expected k field, got %s", out)
	}
}

func TestZerologLogger_With(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLogger(&buf, LevelDebug).With(DatasetKey, "iris", ComponentKey, "neighbors")

	logger.Info("loaded", TrainingSizeKey, 120)

	out := buf.String()
	for _, want := range []string{`"dataset.name":"iris"`, `"knn.component":"neighbors"`, `"data.training":120`} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %s in %s", want, out)
		}
	}
}

func TestZerologLogger_Enabled(t *testing.T) {
	logger := NewZerologLogger(&bytes.Buffer{}, LevelWarn)
	ctx := context.Background()

	if logger.Enabled(ctx, LevelInfo) {
		t.Error("Info should be disabled at warn level")
	}
	if !logger.Enabled(ctx, LevelError) {
		t.Error("Error should be enabled at warn level")
	}
}

func TestNopLogger(t *testing.T) {
	logger := NewNopLogger()
	logger.Info("nothing")
	if logger.Enabled(context.Background(), LevelError) {
		t.Error("Nop logger should report every level disabled")
	}
}

func TestToLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{in: "debug", want: LevelDebug},
		{in: "INFO", want: LevelInfo},
		{in: "warn", want: LevelWarn},
		{in: "error", want: LevelError},
		{in: "verbose", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ToLogLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ToLogLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ToLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSetupLogger_RoutesWarnings(t *testing.T) {
	previous := GetLogger()
	defer func() {
		SetLogger(previous)
		errors.SetZerologWarnFunc(nil)
	}()

	var buf bytes.Buffer
	if err := SetupLogger("info", &buf); err != nil {
		t.Fatalf("SetupLogger() error = %v", err)
	}

	errors.Warn(errors.NewTieWarning(2, 1, []string{"setosa", "virginica"}, "setosa"))
	GetLoggerWithName("neighbors").Info("after setup")

	out := buf.String()
	if !strings.Contains(out, `"type":"TieWarning"`) {
		t.Errorf("Expected tie warning in output, got %s", out)
	}
	if !strings.Contains(out, `"knn.component":"neighbors"`) {
		t.Errorf("Expected component field, got %s", out)
	}

	if err := SetupLogger("loud", &buf); err == nil {
		t.Error("Expected error for unknown level")
	}
}

func TestTestLogger(t *testing.T) {
	logger, buffer := NewTestLogger(LevelInfo)

	logger.Debug("dropped")
	logger.With(DatasetKey, "iris").Info("loaded", TrainingSizeKey, 4)
	logger.Error("failed", fmt.Errorf("boom"), KKey, 9)

	if strings.Contains(buffer.String(), "dropped") {
		t.Error("Debug record should be filtered")
	}
	if !logger.ContainsMessage("loaded") {
		t.Error("Expected loaded message")
	}
	if !logger.ContainsField(DatasetKey, "iris") {
		t.Error("Expected dataset field inherited through With")
	}
	if !logger.ContainsField("error", "boom") {
		t.Error("Expected leading error captured under the error key")
	}
	if !logger.ContainsField(KKey, 9.0) {
		t.Error("Expected k field")
	}

	entries, err := logger.GetLogEntries()
	if err != nil {
		t.Fatalf("GetLogEntries() error = %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("Expected 2 entries, got %d", len(entries))
	}

	logger.Clear()
	if buffer.Len() != 0 {
		t.Error("Clear should empty the buffer")
	}
}
