package bench

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/iabetor/ttsbench/internal/audio"
	"github.com/iabetor/ttsbench/internal/device"
	"github.com/iabetor/ttsbench/internal/logger"
	"github.com/iabetor/ttsbench/internal/tts"
)

// IOError 表示输出文件无法写入，只中止当前请求。
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("[bench] %s %s 失败: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// OutputPath 返回场景在某个设备上的输出文件路径，同一请求总是得到同一路径。
func (h *Harness) OutputPath(scenario string, dev device.Device) string {
	return filepath.Join(h.opts.OutputDir, fmt.Sprintf("%s_%s.wav", scenario, dev))
}

// writeWAV 把结果写成 16-bit PCM WAV 并记录路径，供 Cleanup 删除。
func (h *Harness) writeWAV(result *tts.Result, path string) error {
	if err := audio.WriteWAV(path, result.Samples, result.SampleRate); err != nil {
		return &IOError{Op: "写入", Path: path, Err: err}
	}
	h.produced = append(h.produced, path)
	return nil
}

// Cleanup 删除本次运行写出的文件，以及已配置场景在之前运行中留下的输出。
// 不存在的文件被忽略；其余删除失败会被汇总返回，已删除的文件不会恢复。
func (h *Harness) Cleanup() (int, error) {
	paths := make(map[string]struct{})
	for _, p := range h.produced {
		paths[p] = struct{}{}
	}
	for _, sc := range h.scenarios {
		for _, dev := range []device.Device{device.CPU, device.GPU} {
			paths[h.OutputPath(sc.Name, dev)] = struct{}{}
		}
	}

	removed := 0
	var errs []error
	for p := range paths {
		err := os.Remove(p)
		switch {
		case err == nil:
			removed++
			logger.Debugf("[bench] 已删除 %s", p)
		case errors.Is(err, os.ErrNotExist):
		default:
			logger.Warnf("[bench] 删除 %s 失败: %v", p, err)
			errs = append(errs, &IOError{Op: "删除", Path: p, Err: err})
		}
	}
	h.produced = nil

	logger.Infof("[bench] 清理完成，删除 %d 个文件", removed)
	return removed, errors.Join(errs...)
}
