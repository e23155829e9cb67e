package audio

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func sine(n, sampleRate int, freq float64) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(0.5 * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate)))
	}
	return out
}

func TestWriteWAV_Roundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "tone.wav")
	samples := sine(24000, 24000, 440)

	if err := WriteWAV(path, samples, 24000); err != nil {
		t.Fatalf("WriteWAV failed: %v", err)
	}

	info, err := ReadWAV(path)
	if err != nil {
		t.Fatalf("ReadWAV failed: %v", err)
	}
	if info.SampleRate != 24000 {
		t.Errorf("SampleRate = %d, want 24000", info.SampleRate)
	}
	if info.Channels != 1 {
		t.Errorf("Channels = %d, want 1", info.Channels)
	}
	if info.BitDepth != 16 {
		t.Errorf("BitDepth = %d, want 16", info.BitDepth)
	}
	if len(info.Samples) != len(samples) {
		t.Fatalf("sample count = %d, want %d", len(info.Samples), len(samples))
	}
	for i := 0; i < len(samples); i += 997 {
		if diff := math.Abs(float64(info.Samples[i] - samples[i])); diff > 1.0/16000 {
			t.Errorf("sample %d: got %f, want %f", i, info.Samples[i], samples[i])
		}
	}
	if d := info.Duration(); d != time.Second {
		t.Errorf("Duration = %v, want 1s", d)
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temporary file should be gone, stat err = %v", err)
	}
}

func TestWriteWAV_InvalidSampleRate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.wav")
	if err := WriteWAV(path, []float32{0.1}, 0); err == nil {
		t.Fatal("expected error for zero sample rate")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("no file should be written, stat err = %v", err)
	}
}

func TestWriteWAV_UnwritableDir(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatalf("failed to create blocker: %v", err)
	}
	// 父路径是普通文件，无法创建目录
	if err := WriteWAV(filepath.Join(blocker, "out.wav"), []float32{0.1}, 16000); err == nil {
		t.Fatal("expected error when parent is a file")
	}
}

func TestReadWAV_NotWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "text.wav")
	if err := os.WriteFile(path, []byte("definitely not a riff file"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	if _, err := ReadWAV(path); err == nil {
		t.Fatal("expected error for invalid WAV")
	}
}

func TestSamplesDuration(t *testing.T) {
	if d := SamplesDuration(12000, 24000); d != 500*time.Millisecond {
		t.Errorf("SamplesDuration = %v, want 500ms", d)
	}
	if d := SamplesDuration(100, 0); d != 0 {
		t.Errorf("SamplesDuration with zero rate = %v, want 0", d)
	}
}
