package term

import (
	"os"
	"testing"

	"github.com/backmassage/beatcut/internal/config"
)

func TestResolve(t *testing.T) {
	env := func(m map[string]string) func(string) string {
		return func(k string) string { return m[k] }
	}
	tests := []struct {
		name string
		mode config.ColorMode
		env  map[string]string
		tty  bool
		want bool
	}{
		{"always without tty", config.ColorAlways, nil, false, true},
		{"never with tty", config.ColorNever, nil, true, false},
		{"auto with tty", config.ColorAuto, nil, true, true},
		{"auto without tty", config.ColorAuto, nil, false, false},
		{"auto with NO_COLOR", config.ColorAuto, map[string]string{"NO_COLOR": "1"}, true, false},
		{"auto with dumb terminal", config.ColorAuto, map[string]string{"TERM": "DUMB"}, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolve(tt.mode, env(tt.env), tt.tty); got != tt.want {
				t.Errorf("resolve() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPaint(t *testing.T) {
	set(false)
	if got := Paint(Red, "x"); got != "x" {
		t.Errorf("disabled Paint = %q", got)
	}
	set(true)
	defer set(false)
	if !Enabled() {
		t.Fatal("colors should be enabled")
	}
	if got := Paint(Red, "x"); got != Red+"x"+NC {
		t.Errorf("enabled Paint = %q", got)
	}
}

func TestSet_Sequences(t *testing.T) {
	set(true)
	defer set(false)
	if Red != "\033[1;91m" || Cyan != "\033[1;96m" {
		t.Errorf("unexpected sequences %q %q", Red, Cyan)
	}
	if NC != "\033[0m" {
		t.Errorf("NC = %q", NC)
	}
}

func TestIsTerminal_NilAndFile(t *testing.T) {
	if IsTerminal(nil) {
		t.Error("nil file reported as terminal")
	}
	f, err := os.CreateTemp(t.TempDir(), "out")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if IsTerminal(f) {
		t.Error("regular file reported as terminal")
	}
}
