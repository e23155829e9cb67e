package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	wavBitDepth    = 16
	wavPCMFormat   = 1
	wavNumChannels = 1
)

// WAVInfo 描述一个已读取的 WAV 文件。
type WAVInfo struct {
	Samples    []float32
	SampleRate int
	Channels   int
	BitDepth   int
}

// Duration 返回音频时长。
func (w *WAVInfo) Duration() time.Duration {
	return SamplesDuration(len(w.Samples)/max(w.Channels, 1), w.SampleRate)
}

// SamplesDuration 按采样率计算样本数对应的时长。
func SamplesDuration(numSamples, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(numSamples) / float64(sampleRate) * float64(time.Second))
}

// WriteWAV 将单声道 float32 样本以 16-bit PCM 写入 path。
// 先写入同目录下的临时文件再重命名，失败时不会留下半个文件。
func WriteWAV(path string, samples []float32, sampleRate int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("无效的采样率: %d", sampleRate)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("创建 WAV 文件失败: %w", err)
	}

	enc := wav.NewEncoder(f, sampleRate, wavBitDepth, wavNumChannels, wavPCMFormat)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: wavNumChannels, SampleRate: sampleRate},
		Data:           Float32ToInt(samples),
		SourceBitDepth: wavBitDepth,
	}

	if err := enc.Write(buf); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("写入 WAV 数据失败: %w", err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("写入 WAV 头失败: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("关闭 WAV 文件失败: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("重命名 WAV 文件失败: %w", err)
	}
	return nil
}

// ReadWAV 读取 PCM WAV 文件并将样本归一化为 float32。
func ReadWAV(path string) (*WAVInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开 WAV 文件失败: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("不是有效的 WAV 文件: %s", path)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("读取 WAV 数据失败: %w", err)
	}

	return &WAVInfo{
		Samples:    IntToFloat32(buf.Data, int(dec.BitDepth)),
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		BitDepth:   int(dec.BitDepth),
	}, nil
}
