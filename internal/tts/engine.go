package tts

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/iabetor/ttsbench/internal/device"
)

// Voice 基准测试支持的音色。具体引擎通过各自的映射表把它翻译成模型内部的音色。
type Voice string

const (
	VoiceEsDora    Voice = "es_dora"    // 西班牙语女声 Dora
	VoiceEnDefault Voice = "en_default" // 英语默认音色
)

// Voices 返回全部已知音色。
func Voices() []Voice {
	return []Voice{VoiceEsDora, VoiceEnDefault}
}

// ParseVoice 校验并返回音色枚举。
func ParseVoice(s string) (Voice, error) {
	v := Voice(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Voices() {
		if v == known {
			return v, nil
		}
	}
	return "", fmt.Errorf("未知的音色: %q", s)
}

// Request 是一次合成请求，构造后不可修改。
type Request struct {
	Text   string
	Voice  Voice
	Device device.Device
}

// Result 是引擎返回的单声道音频。
type Result struct {
	Samples    []float32
	SampleRate int
}

// Validate 检查结果是否可以写入文件：样本非空且采样率为正。
func (r *Result) Validate() error {
	if r == nil || len(r.Samples) == 0 {
		return ErrEmptyAudio
	}
	if r.SampleRate <= 0 {
		return fmt.Errorf("%w: 采样率 %d", ErrInvalidSampleRate, r.SampleRate)
	}
	return nil
}

// Engine 定义语音合成后端接口。
// Synthesize 是阻塞调用，失败时返回 *SynthesisError，不做重试。
type Engine interface {
	Synthesize(ctx context.Context, req Request) (*Result, error)
	// Name 返回引擎名称，用于日志和报告。
	Name() string
	// Close 释放引擎持有的模型等资源。
	Close()
}

// Preparer 是需要预先加载模型的引擎（可选实现）。
// 基准测试在计时之前调用 Prepare，模型加载时间不计入合成耗时。
type Preparer interface {
	Prepare(dev device.Device, voice Voice) error
}

// checkText 校验输入文本：非空，且不超过引擎的上下文长度（maxLen <= 0 表示不限制）。
// 超长文本需要调用方自行切分，引擎不会自动分段。
func checkText(text string, maxLen int) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyText
	}
	if maxLen > 0 {
		if n := utf8.RuneCountInString(text); n > maxLen {
			return fmt.Errorf("%w: %d 个字符，上限 %d", ErrTextTooLong, n, maxLen)
		}
	}
	return nil
}

// lookupVoice 在引擎的音色映射表中查找 v。
func lookupVoice[T any](m map[Voice]T, v Voice) (T, error) {
	val, ok := m[v]
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %s", ErrUnsupportedVoice, v)
	}
	return val, nil
}
