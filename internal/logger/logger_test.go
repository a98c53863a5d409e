package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestInitLevel(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{LogLevel: "warn"}, &buf)
	defer Init(NewConfig(), nil)

	Infof("hidden %d", 1)
	Warnf("shown %d", 2)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message logged at warn level: %q", out)
	}
	if !strings.Contains(out, "shown 2") {
		t.Errorf("warn message missing: %q", out)
	}
}

func TestTagFiltering(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{LogLevel: "debug", EnabledTags: []string{"Bridge"}}, &buf)
	defer Init(NewConfig(), nil)

	DebugTagf("bridge", "kept")
	DebugTagf("poller", "dropped-tag")
	Debugf("dropped-untagged")

	out := buf.String()
	if !strings.Contains(out, "kept") {
		t.Errorf("enabled tag was filtered: %q", out)
	}
	if strings.Contains(out, "dropped-tag") || strings.Contains(out, "dropped-untagged") {
		t.Errorf("unexpected messages passed the filter: %q", out)
	}
}

func TestPackageFiltering(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{LogLevel: "debug", DisabledPackages: []string{"logger"}}, &buf)
	defer Init(NewConfig(), nil)

	Infof("from the logger package")
	if buf.Len() != 0 {
		t.Errorf("disabled package still logged: %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]string{
		"debug":   "DEBUG",
		"WARNING": "WARN",
		"err":     "ERROR",
		"bogus":   "INFO",
	}
	for in, want := range tests {
		if got := ParseLevel(in).String(); got != want {
			t.Errorf("ParseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}
