package device

import (
	"errors"
	"os"
	"runtime"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Device
	}{
		{"cpu", CPU},
		{"CPU", CPU},
		{"gpu", GPU},
		{"mps", GPU},
		{"cuda", GPU},
		{"", Auto},
		{"auto", Auto},
	}

	for _, tt := range tests {
		got, err := Parse(tt.in)
		if err != nil {
			t.Errorf("Parse(%q) returned error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestParse_Unknown(t *testing.T) {
	if _, err := Parse("tpu"); err == nil {
		t.Fatal("expected error for unknown device")
	}
}

func TestProvider(t *testing.T) {
	if got := Provider(CPU); got != "cpu" {
		t.Errorf("Provider(cpu) = %q, want cpu", got)
	}
	want := "cuda"
	if runtime.GOOS == "darwin" {
		want = "coreml"
	}
	if got := Provider(GPU); got != want {
		t.Errorf("Provider(gpu) = %q, want %q", got, want)
	}
}

func notFound(string) (string, error) { return "", errors.New("not found") }

func noStat(string) (os.FileInfo, error) { return nil, os.ErrNotExist }

func TestPlatformProber(t *testing.T) {
	tests := []struct {
		name     string
		goos     string
		goarch   string
		lookPath func(string) (string, error)
		stat     func(string) (os.FileInfo, error)
		want     bool
	}{
		{"apple silicon", "darwin", "arm64", notFound, noStat, true},
		{"intel mac", "darwin", "amd64", notFound, noStat, false},
		{"linux without nvidia", "linux", "amd64", notFound, noStat, false},
		{"linux with nvidia-smi", "linux", "amd64", func(string) (string, error) { return "/usr/bin/nvidia-smi", nil }, noStat, true},
		{"linux with device node", "linux", "amd64", notFound, func(string) (os.FileInfo, error) { return nil, nil }, true},
		{"freebsd", "freebsd", "amd64", notFound, noStat, false},
	}

	for _, tt := range tests {
		p := &PlatformProber{goos: tt.goos, goarch: tt.goarch, lookPath: tt.lookPath, stat: tt.stat}
		got, err := p.Probe()
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tt.name, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%s: Probe() = %v, want %v", tt.name, got, tt.want)
		}
	}
}
