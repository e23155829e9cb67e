// Package memory 采样进程常驻内存（RSS）。
// 采样粒度较粗，只用于基准测试的量级参考，不是 profiler 级别的测量。
package memory

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/process"

	"github.com/iabetor/ttsbench/internal/logger"
)

// Reader 返回当前进程的常驻内存字节数。
type Reader interface {
	RSS() (uint64, error)
}

// ProcessReader 通过 gopsutil 读取本进程的 RSS。
type ProcessReader struct {
	proc *process.Process
}

// NewProcessReader 创建读取当前进程内存的 Reader。
func NewProcessReader() (*ProcessReader, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, fmt.Errorf("[memory] 获取当前进程失败: %w", err)
	}
	return &ProcessReader{proc: proc}, nil
}

// RSS 实现 Reader。
func (r *ProcessReader) RSS() (uint64, error) {
	info, err := r.proc.MemoryInfo()
	if err != nil {
		return 0, fmt.Errorf("[memory] 读取内存信息失败: %w", err)
	}
	return info.RSS, nil
}

// Watcher 在后台按固定间隔采样 RSS，记录观测到的峰值。
// 间隔之间的短暂峰值可能漏掉。
type Watcher struct {
	reader   Reader
	interval time.Duration

	mu   sync.Mutex
	peak uint64

	stop chan struct{}
	done chan struct{}
}

// Watch 启动后台采样；interval <= 0 时不启动 goroutine，Stop 直接返回 0。
func Watch(reader Reader, interval time.Duration) *Watcher {
	w := &Watcher{
		reader:   reader,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	if interval <= 0 {
		close(w.done)
		return w
	}
	go w.loop()
	return w
}

func (w *Watcher) loop() {
	defer close(w.done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stop:
			return
		case <-ticker.C:
			rss, err := w.reader.RSS()
			if err != nil {
				logger.Debugf("[memory] 采样失败: %v", err)
				continue
			}
			w.observe(rss)
		}
	}
}

func (w *Watcher) observe(rss uint64) {
	w.mu.Lock()
	if rss > w.peak {
		w.peak = rss
	}
	w.mu.Unlock()
}

// Stop 停止采样并返回观测到的峰值，可重复调用。
func (w *Watcher) Stop() uint64 {
	select {
	case <-w.stop:
	default:
		close(w.stop)
	}
	<-w.done

	w.mu.Lock()
	defer w.mu.Unlock()
	return w.peak
}
