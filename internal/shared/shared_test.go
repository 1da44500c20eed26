package shared

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLogger(t *testing.T) {
	t.Run("NewFileLogger creates parent directories", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "logs", "moviex.log")

		logger, err := NewFileLogger(path)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		logger.Info("hello", "component", "test")

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read log file: %v", err)
		}
		if !strings.Contains(string(data), "hello") {
			t.Errorf("expected log file to contain message, got %q", string(data))
		}
	})
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	tc := []struct {
		name string
		in   string
		want string
	}{
		{name: "tilde prefix", in: "~/.moviex", want: filepath.Join(home, ".moviex")},
		{name: "bare tilde", in: "~", want: home},
		{name: "absolute path", in: "/tmp/moviex", want: "/tmp/moviex"},
		{name: "tilde in middle", in: "a/~/b", want: "a/~/b"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExpandHome(tt.in); got != tt.want {
				t.Errorf("ExpandHome(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestBrowserCommand(t *testing.T) {
	original := getRuntime
	t.Cleanup(func() { getRuntime = original })

	for _, rt := range []string{"darwin", "linux", "windows"} {
		t.Run(rt, func(t *testing.T) {
			getRuntime = func() string { return rt }
			cmd, err := browserCommand("https://www.themoviedb.org/movie/1")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !strings.Contains(strings.Join(cmd.Args, " "), "https://www.themoviedb.org/movie/1") {
				t.Errorf("expected url in args, got %v", cmd.Args)
			}
		})
	}

	t.Run("unsupported", func(t *testing.T) {
		getRuntime = func() string { return "plan9" }
		if _, err := browserCommand("https://example.com"); !errors.Is(err, ErrUnsupportedPlatform) {
			t.Errorf("expected ErrUnsupportedPlatform, got %v", err)
		}
	})
}
