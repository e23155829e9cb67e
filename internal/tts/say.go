package tts

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/iabetor/ttsbench/internal/audio"
	"github.com/iabetor/ttsbench/internal/logger"
)

// saySampleRate 是 afconvert 转换后的采样率。
const saySampleRate = 22050

// DefaultSayVoices 是 macOS 自带的对应音色。
func DefaultSayVoices() map[Voice]string {
	return map[Voice]string{
		VoiceEsDora:    "Paulina",
		VoiceEnDefault: "Samantha",
	}
}

// SayEngine 使用 macOS 内置 say 命令实现语音合成，仅在 macOS 上可用。
// 设备参数被忽略，say 由系统语音服务执行。
type SayEngine struct {
	voices map[Voice]string
}

var _ Engine = (*SayEngine)(nil)

// NewSayEngine 创建 macOS say 引擎。voices 为空时使用 DefaultSayVoices。
func NewSayEngine(voices map[Voice]string) (*SayEngine, error) {
	if runtime.GOOS != "darwin" {
		return nil, fmt.Errorf("[tts] say 引擎仅支持 macOS")
	}
	if len(voices) == 0 {
		voices = DefaultSayVoices()
	}
	return &SayEngine{voices: voices}, nil
}

// Synthesize 实现 Engine。say 先输出 AIFF，再用 afconvert 转为 16-bit LE 单声道 WAV。
func (s *SayEngine) Synthesize(ctx context.Context, req Request) (*Result, error) {
	if err := checkText(req.Text, 0); err != nil {
		return nil, newSynthesisError(s.Name(), req, err)
	}
	voice, err := lookupVoice(s.voices, req.Voice)
	if err != nil {
		return nil, newSynthesisError(s.Name(), req, err)
	}

	logger.Debugf("[tts] say: 正在合成 %d 个字符，voice=%s", len([]rune(req.Text)), voice)

	tmpDir, err := os.MkdirTemp("", "ttsbench-say-*")
	if err != nil {
		return nil, newSynthesisError(s.Name(), req, fmt.Errorf("创建临时目录失败: %w", err))
	}
	defer os.RemoveAll(tmpDir)

	aiffPath := tmpDir + "/out.aiff"
	wavPath := tmpDir + "/out.wav"

	args := []string{"-o", aiffPath}
	if voice != "" {
		args = append(args, "-v", voice)
	}
	args = append(args, req.Text)

	if err := runCmd(ctx, "say", args...); err != nil {
		return nil, newSynthesisError(s.Name(), req, err)
	}
	if err := runCmd(ctx, "afconvert", "-f", "WAVE", "-d", fmt.Sprintf("LEI16@%d", saySampleRate), "-c", "1", aiffPath, wavPath); err != nil {
		return nil, newSynthesisError(s.Name(), req, err)
	}

	info, err := audio.ReadWAV(wavPath)
	if err != nil {
		return nil, newSynthesisError(s.Name(), req, err)
	}
	if len(info.Samples) == 0 {
		return nil, newSynthesisError(s.Name(), req, ErrEmptyAudio)
	}

	return &Result{Samples: info.Samples, SampleRate: info.SampleRate}, nil
}

func runCmd(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s 执行失败: %w, stderr: %s", name, err, stderr.String())
	}
	return nil
}

// Name 实现 Engine。
func (s *SayEngine) Name() string { return "say" }

// Close 实现 Engine。
func (s *SayEngine) Close() {}
