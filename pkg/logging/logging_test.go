// Copyright 2025 The Sigstore Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"off", LevelSilent},
		{"bogus", LevelInfo},
		{"", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLogLevel(tt.in); got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestDefaultLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerOptions{Level: LevelWarn, Output: &buf})

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	out := buf.String()
	if strings.Contains(out, "debug message") || strings.Contains(out, "info message") {
		t.Errorf("below-level messages were logged: %q", out)
	}
	if !strings.Contains(out, "warn message") || !strings.Contains(out, "error message") {
		t.Errorf("expected warn and error messages, got: %q", out)
	}
}

func TestDefaultLogger_TextFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerOptions{Output: &buf})

	logger.WithField("resource", "anchors.pem").Info("fetched %d bytes", 42)

	out := buf.String()
	if !strings.Contains(out, "[INFO] fetched 42 bytes") {
		t.Errorf("unexpected output: %q", out)
	}
	if !strings.Contains(out, "resource=anchors.pem") {
		t.Errorf("field missing from output: %q", out)
	}
}

func TestDefaultLogger_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerOptions{Format: FormatJSON, Output: &buf})

	logger.WithFields(map[string]interface{}{"key": "value"}).Error("boom")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v (%q)", err, buf.String())
	}
	if entry["level"] != "error" {
		t.Errorf("level = %v, want error", entry["level"])
	}
	if entry["message"] != "boom" {
		t.Errorf("message = %v, want boom", entry["message"])
	}
	fields, ok := entry["fields"].(map[string]interface{})
	if !ok || fields["key"] != "value" {
		t.Errorf("fields = %v, want key=value", entry["fields"])
	}
}

func TestDefaultLogger_WithFieldsDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	parent := NewLogger(LoggerOptions{Output: &buf})
	_ = parent.WithField("child", "only")

	parent.Info("parent message")
	if strings.Contains(buf.String(), "child=only") {
		t.Errorf("parent logger inherited child field: %q", buf.String())
	}
}

func TestEnsureLogger(t *testing.T) {
	if EnsureLogger(nil) == nil {
		t.Fatal("EnsureLogger(nil) returned nil")
	}
	logger := NewLogger(LoggerOptions{Level: LevelError})
	if EnsureLogger(logger) != logger {
		t.Error("EnsureLogger did not return the provided logger")
	}
}

func TestZapLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZapLogger(LevelInfo, true, &buf)

	logger.Debug("hidden")
	logger.Info("visible %s", "entry")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug message logged at info level: %q", out)
	}
	if !strings.Contains(out, "visible entry") {
		t.Errorf("info message missing: %q", out)
	}
	if logger.GetLevel() != LevelInfo {
		t.Errorf("GetLevel() = %v, want %v", logger.GetLevel(), LevelInfo)
	}
}
