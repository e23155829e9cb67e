// Package device 负责推理设备的枚举、GPU 探测和执行后端映射。
package device

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// Device 推理设备。
type Device string

const (
	CPU Device = "cpu"
	GPU Device = "gpu"
	// Auto 只出现在配置中，表示使用启动时探测到的设备。
	Auto Device = "auto"
)

// Parse 将配置字符串解析为设备枚举，空字符串视为 auto。
func Parse(s string) (Device, error) {
	switch Device(strings.ToLower(strings.TrimSpace(s))) {
	case CPU:
		return CPU, nil
	case GPU, "mps", "cuda", "coreml":
		return GPU, nil
	case Auto, "":
		return Auto, nil
	default:
		return "", fmt.Errorf("未知的设备: %q（可选 cpu、gpu、auto）", s)
	}
}

func (d Device) String() string { return string(d) }

// Provider 返回 sherpa-onnx 使用的执行后端名称。
// GPU 在 Apple Silicon 上对应 CoreML，在其他平台上对应 CUDA。
func Provider(d Device) string {
	if d != GPU {
		return "cpu"
	}
	if runtime.GOOS == "darwin" {
		return "coreml"
	}
	return "cuda"
}

// Prober 查询当前进程能否使用加速后端。
type Prober interface {
	Probe() (bool, error)
}

// ProberFunc 让普通函数实现 Prober。
type ProberFunc func() (bool, error)

// Probe 调用 f。
func (f ProberFunc) Probe() (bool, error) { return f() }

// PlatformProber 根据操作系统和硬件判断 GPU 是否可用。
type PlatformProber struct {
	// 以下字段仅用于测试替换，零值表示使用真实环境。
	goos, goarch string
	lookPath     func(string) (string, error)
	stat         func(string) (os.FileInfo, error)
}

// NewPlatformProber 创建基于当前平台的探测器。
func NewPlatformProber() *PlatformProber {
	return &PlatformProber{
		goos:     runtime.GOOS,
		goarch:   runtime.GOARCH,
		lookPath: exec.LookPath,
		stat:     os.Stat,
	}
}

// Probe 实现 Prober。
// darwin/arm64 始终带有可供 CoreML 使用的 GPU/神经引擎；
// linux 和 windows 上存在 NVIDIA 设备节点或 nvidia-smi 时认为 CUDA 可用。
func (p *PlatformProber) Probe() (bool, error) {
	switch p.goos {
	case "darwin":
		return p.goarch == "arm64", nil
	case "linux":
		if _, err := p.stat("/dev/nvidia0"); err == nil {
			return true, nil
		}
		_, err := p.lookPath("nvidia-smi")
		return err == nil, nil
	case "windows":
		_, err := p.lookPath("nvidia-smi")
		return err == nil, nil
	default:
		return false, nil
	}
}
