package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(Te *testing.T) {
	for s, l := range map[string]slog.Level{"debug": slog.LevelDebug, "INFO": slog.LevelInfo, "": slog.LevelInfo, "warn": slog.LevelWarn, " error ": slog.LevelError} {
		got, err := ParseLevel(s)
		if err != nil || got != l {
			Te.Errorf("ParseLevel(%q) gave %v, %v, want %v", s, got, err, l)
		}
	}
	if _, err := ParseLevel("verbose"); err == nil {
		Te.Errorf("unknown levels should give an error")
	}
}

func TestLevelAndContext(Te *testing.T) {
	var b bytes.Buffer
	l := New(&b, slog.LevelWarn)
	l.Info("hidden")
	l.Warn("shown", "dir", "/data")
	if strings.Contains(b.String(), "hidden") || !strings.Contains(b.String(), "dir=/data") {
		Te.Errorf("wrong output: %q", b.String())
	}
	ctx := NewContext(context.Background(), l)
	if FromContext(ctx) != l {
		Te.Errorf("the logger was not stored in the context")
	}
	if FromContext(context.Background()) != slog.Default() {
		Te.Errorf("an empty context should give the default logger")
	}
}
