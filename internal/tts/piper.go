package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"

	"github.com/iabetor/ttsbench/internal/audio"
	"github.com/iabetor/ttsbench/internal/device"
	"github.com/iabetor/ttsbench/internal/logger"
)

// piperDefaultSampleRate 是模型没有附带 .onnx.json 时使用的采样率。
const piperDefaultSampleRate = 22050

// PiperConfig Piper CLI 配置。
type PiperConfig struct {
	Binary        string
	Models        map[Voice]string // 音色 → .onnx 模型路径
	MaxTextLength int
}

// PiperEngine 使用 piper CLI 子进程实现语音合成。
type PiperEngine struct {
	binary string
	models map[Voice]string
	maxLen int
}

var _ Engine = (*PiperEngine)(nil)

// NewPiperEngine 创建 Piper 引擎，要求至少配置一个模型且 piper 可执行文件存在。
func NewPiperEngine(cfg PiperConfig) (*PiperEngine, error) {
	if cfg.Binary == "" {
		cfg.Binary = "piper"
	}
	if len(cfg.Models) == 0 {
		return nil, fmt.Errorf("[tts] piper: 未配置任何模型")
	}
	if _, err := exec.LookPath(cfg.Binary); err != nil {
		return nil, fmt.Errorf("[tts] piper: 找不到可执行文件 %s: %w", cfg.Binary, err)
	}
	return &PiperEngine{binary: cfg.Binary, models: cfg.Models, maxLen: cfg.MaxTextLength}, nil
}

// piperArgs 构造命令行参数，GPU 设备时启用 --cuda。
func piperArgs(model string, dev device.Device) []string {
	args := []string{"--model", model, "--output-raw"}
	if dev == device.GPU {
		args = append(args, "--cuda")
	}
	return args
}

// piperSampleRate 读取模型旁边的 <model>.json 中的采样率。
func piperSampleRate(model string) int {
	data, err := os.ReadFile(model + ".json")
	if err != nil {
		return piperDefaultSampleRate
	}
	var meta struct {
		Audio struct {
			SampleRate int `json:"sample_rate"`
		} `json:"audio"`
	}
	if err := json.Unmarshal(data, &meta); err != nil || meta.Audio.SampleRate <= 0 {
		return piperDefaultSampleRate
	}
	return meta.Audio.SampleRate
}

// Synthesize 实现 Engine。piper 输出 signed 16-bit LE 单声道 PCM。
func (p *PiperEngine) Synthesize(ctx context.Context, req Request) (*Result, error) {
	if err := checkText(req.Text, p.maxLen); err != nil {
		return nil, newSynthesisError(p.Name(), req, err)
	}
	model, err := lookupVoice(p.models, req.Voice)
	if err != nil {
		return nil, newSynthesisError(p.Name(), req, err)
	}

	logger.Debugf("[tts] piper: 正在合成 %d 个字符，模型=%s", len([]rune(req.Text)), model)

	cmd := exec.CommandContext(ctx, p.binary, piperArgs(model, req.Device)...)
	cmd.Stdin = bytes.NewReader([]byte(req.Text))

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if s := stderr.String(); s != "" {
			logger.Warnf("[tts] piper stderr: %s", s)
		}
		return nil, newSynthesisError(p.Name(), req, fmt.Errorf("piper 执行失败: %w", err))
	}

	samples := audio.BytesToFloat32(stdout.Bytes())
	if len(samples) == 0 {
		return nil, newSynthesisError(p.Name(), req, ErrEmptyAudio)
	}

	return &Result{Samples: samples, SampleRate: piperSampleRate(model)}, nil
}

// Name 实现 Engine。
func (p *PiperEngine) Name() string { return "piper" }

// Close 实现 Engine，子进程模式没有常驻资源。
func (p *PiperEngine) Close() {}
