package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/backmassage/beatcut/internal/config"
)

func TestNewLogger_NoFile(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.ColorMode = config.ColorNever
	l, err := NewLogger(&cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()
	l.Info("test message")
}

func TestNewLogger_WithFile(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.ColorMode = config.ColorNever
	cfg.LogFile = filepath.Join(dir, "logs", "beatcut.log")
	l, err := NewLogger(&cfg)
	if err != nil {
		t.Fatal(err)
	}
	l.Plan("to file")
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}
	b, _ := os.ReadFile(cfg.LogFile)
	if !bytes.Contains(b, []byte("[PLAN]")) || !bytes.Contains(b, []byte("to file")) {
		t.Errorf("log file content: %s", string(b))
	}
}

func TestLogger_LineFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, false)
	l.now = func() time.Time { return time.Date(2026, 3, 1, 9, 5, 7, 0, time.UTC) }

	l.Warn("no beats in %s", "song.mp3")
	want := "2026-03-01 09:05:07 [WARN] no beats in song.mp3\n"
	if buf.String() != want {
		t.Errorf("line = %q, want %q", buf.String(), want)
	}
}

func TestLogger_DebugOnlyWhenVerbose(t *testing.T) {
	var quiet, loud bytes.Buffer
	New(&quiet, false).Debug("hidden")
	New(&loud, true).Debug("shown")
	if quiet.Len() != 0 {
		t.Errorf("non-verbose debug wrote %q", quiet.String())
	}
	if !strings.Contains(loud.String(), "[DEBUG] shown") {
		t.Errorf("verbose debug = %q", loud.String())
	}
}

func TestLogger_BlockHasNoPrefix(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, false)
	l.Block("line one\nline two")
	if got := buf.String(); got != "line one\nline two\n" {
		t.Errorf("Block output = %q", got)
	}
}
