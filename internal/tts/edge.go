package tts

import (
	"bytes"
	"context"

	"github.com/pp-group/edge-tts-go/biz/service/tts/edge"

	"github.com/iabetor/ttsbench/internal/audio"
	"github.com/iabetor/ttsbench/internal/logger"
)

// DefaultEdgeVoices 是 Edge TTS 中对应的神经网络音色。
func DefaultEdgeVoices() map[Voice]string {
	return map[Voice]string{
		VoiceEsDora:    "es-ES-ElviraNeural",
		VoiceEnDefault: "en-US-AriaNeural",
	}
}

// EdgeEngine 使用微软 Edge TTS 实现语音合成，
// 通过 edge-tts-go 获取 MP3 音频，再解码为 PCM。设备参数被忽略。
type EdgeEngine struct {
	voices map[Voice]string
}

var _ Engine = (*EdgeEngine)(nil)

// NewEdgeEngine 创建 Edge TTS 引擎。voices 为空时使用 DefaultEdgeVoices。
func NewEdgeEngine(voices map[Voice]string) *EdgeEngine {
	if len(voices) == 0 {
		voices = DefaultEdgeVoices()
	}
	return &EdgeEngine{voices: voices}
}

// Synthesize 实现 Engine。
func (e *EdgeEngine) Synthesize(ctx context.Context, req Request) (*Result, error) {
	if err := checkText(req.Text, 0); err != nil {
		return nil, newSynthesisError(e.Name(), req, err)
	}
	voice, err := lookupVoice(e.voices, req.Voice)
	if err != nil {
		return nil, newSynthesisError(e.Name(), req, err)
	}

	logger.Debugf("[tts] edge-tts: 正在合成 %d 个字符，语音=%s", len([]rune(req.Text)), voice)

	comm, err := edge.NewCommunicate(req.Text, edge.WithVoice(voice))
	if err != nil {
		return nil, newSynthesisError(e.Name(), req, err)
	}
	ch, err := comm.Stream()
	if err != nil {
		return nil, newSynthesisError(e.Name(), req, err)
	}

	var mp3Buf bytes.Buffer
	for msg := range ch {
		if err := ctx.Err(); err != nil {
			return nil, newSynthesisError(e.Name(), req, err)
		}
		// type=="audio" 的消息携带 MP3 数据
		if msgType, ok := msg["type"].(string); ok && msgType == "audio" {
			if data, ok := msg["data"].([]byte); ok {
				mp3Buf.Write(data)
			}
		}
	}
	if mp3Buf.Len() == 0 {
		return nil, newSynthesisError(e.Name(), req, ErrEmptyAudio)
	}

	samples, sampleRate, err := audio.DecodeMP3(ctx, mp3Buf.Bytes())
	if err != nil {
		return nil, newSynthesisError(e.Name(), req, err)
	}

	logger.Debugf("[tts] edge-tts: 解码得到 %d 个样本，采样率 %d Hz", len(samples), sampleRate)

	return &Result{Samples: samples, SampleRate: sampleRate}, nil
}

// Name 实现 Engine。
func (e *EdgeEngine) Name() string { return "edge" }

// Close 实现 Engine。
func (e *EdgeEngine) Close() {}
