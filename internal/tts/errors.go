package tts

import (
	"errors"
	"fmt"

	"github.com/iabetor/ttsbench/internal/device"
)

var (
	// ErrDeviceUnavailable 请求的加速设备在当前进程不可用，调用方应回退到 CPU。
	ErrDeviceUnavailable = errors.New("设备不可用")
	// ErrTextTooLong 文本超出引擎的上下文长度。
	ErrTextTooLong = errors.New("文本超出引擎上下文长度")
	// ErrEmptyText 输入文本为空。
	ErrEmptyText = errors.New("文本为空")
	// ErrUnsupportedVoice 引擎没有配置该音色。
	ErrUnsupportedVoice = errors.New("引擎不支持该音色")
	// ErrEmptyAudio 引擎没有返回任何样本。
	ErrEmptyAudio = errors.New("未收到音频数据")
	// ErrInvalidSampleRate 引擎返回的采样率不是正数。
	ErrInvalidSampleRate = errors.New("无效的采样率")
)

// SynthesisError 是单次合成失败的错误，携带引擎、音色和设备信息。
type SynthesisError struct {
	Engine string
	Voice  Voice
	Device device.Device
	Err    error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("[tts] %s 合成失败 (voice=%s, device=%s): %v", e.Engine, e.Voice, e.Device, e.Err)
}

func (e *SynthesisError) Unwrap() error { return e.Err }

// newSynthesisError 包装 err；err 已经是 *SynthesisError 时原样返回。
func newSynthesisError(engine string, req Request, err error) error {
	var se *SynthesisError
	if errors.As(err, &se) {
		return err
	}
	return &SynthesisError{Engine: engine, Voice: req.Voice, Device: req.Device, Err: err}
}
