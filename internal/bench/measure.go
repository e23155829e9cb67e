package bench

import (
	"time"

	"github.com/iabetor/ttsbench/internal/device"
	"github.com/iabetor/ttsbench/internal/logger"
	"github.com/iabetor/ttsbench/internal/memory"
)

// Sample 是一次被测调用的耗时和内存读数。
type Sample struct {
	Elapsed     time.Duration `json:"elapsed_ns"`
	BaselineRSS uint64        `json:"baseline_rss_bytes"`
	PeakRSS     uint64        `json:"peak_rss_bytes"`
	Device      device.Device `json:"device"`
}

// ElapsedSeconds 返回以秒为单位的耗时。
func (s Sample) ElapsedSeconds() float64 { return s.Elapsed.Seconds() }

// PeakMemoryBytes 返回测量窗口内观测到的最大 RSS。
func (s Sample) PeakMemoryBytes() uint64 { return s.PeakRSS }

// MemoryDelta 返回峰值相对调用前的增量。
func (s Sample) MemoryDelta() uint64 {
	if s.PeakRSS < s.BaselineRSS {
		return 0
	}
	return s.PeakRSS - s.BaselineRSS
}

// measure 执行 fn 并记录耗时和内存。
// 计时只覆盖 fn 本身；内存在调用前、调用期间（按间隔）和调用后采样，取最大值。
// 内存读取失败只记日志，不影响 fn 的结果。
func (h *Harness) measure(dev device.Device, fn func() error) (Sample, error) {
	s := Sample{Device: dev}
	s.BaselineRSS = h.readRSS()
	peak := s.BaselineRSS

	var w *memory.Watcher
	if h.mem != nil {
		w = memory.Watch(h.mem, h.opts.MemoryInterval)
	}

	start := time.Now()
	err := fn()
	s.Elapsed = time.Since(start)

	if w != nil {
		peak = max(peak, w.Stop())
	}
	s.PeakRSS = max(peak, h.readRSS())
	return s, err
}

func (h *Harness) readRSS() uint64 {
	if h.mem == nil {
		return 0
	}
	rss, err := h.mem.RSS()
	if err != nil {
		logger.Warnf("[bench] 读取内存失败: %v", err)
		return 0
	}
	return rss
}
