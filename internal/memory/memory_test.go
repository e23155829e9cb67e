package memory

import (
	"sync/atomic"
	"testing"
	"time"
)

// rampReader 每次读取返回递增的 RSS。
type rampReader struct {
	n atomic.Uint64
}

func (r *rampReader) RSS() (uint64, error) {
	return r.n.Add(1024), nil
}

func TestProcessReader_RSSPositive(t *testing.T) {
	r, err := NewProcessReader()
	if err != nil {
		t.Fatalf("NewProcessReader failed: %v", err)
	}
	rss, err := r.RSS()
	if err != nil {
		t.Fatalf("RSS failed: %v", err)
	}
	if rss == 0 {
		t.Fatal("expected non-zero RSS for running process")
	}
}

func TestWatch_RecordsPeak(t *testing.T) {
	r := &rampReader{}
	w := Watch(r, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	peak := w.Stop()

	if peak == 0 {
		t.Fatal("expected watcher to observe at least one sample")
	}
	if peak > r.n.Load() {
		t.Errorf("peak %d exceeds last value read %d", peak, r.n.Load())
	}
}

func TestWatch_DisabledInterval(t *testing.T) {
	r := &rampReader{}
	w := Watch(r, 0)
	if peak := w.Stop(); peak != 0 {
		t.Errorf("expected 0 peak when disabled, got %d", peak)
	}
	if r.n.Load() != 0 {
		t.Errorf("reader should not be called when disabled, got %d reads", r.n.Load()/1024)
	}
}

func TestWatch_StopIsIdempotent(t *testing.T) {
	w := Watch(&rampReader{}, time.Millisecond)
	first := w.Stop()
	second := w.Stop()
	if first != second {
		t.Errorf("Stop returned %d then %d", first, second)
	}
}
