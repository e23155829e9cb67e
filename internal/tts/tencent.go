package tts

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/google/uuid"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/profile"
	tcts "github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/tts/v20190823"

	"github.com/iabetor/ttsbench/internal/audio"
	"github.com/iabetor/ttsbench/internal/logger"
)

// tencentMaxTextLength 是基础语音合成接口单次请求的字符上限。
const tencentMaxTextLength = 150

// DefaultTencentVoices 腾讯云没有西班牙语音色，默认只配置英语。
func DefaultTencentVoices() map[Voice]int64 {
	return map[Voice]int64{
		VoiceEnDefault: 101050, // WeJack，英文男声
	}
}

// TencentConfig 腾讯云 TTS 配置。
type TencentConfig struct {
	SecretID      string
	SecretKey     string
	Region        string
	Speed         float64
	Voices        map[Voice]int64
	MaxTextLength int
}

// TencentEngine 使用腾讯云 TTS 实现语音合成。设备参数被忽略。
type TencentEngine struct {
	client *tcts.Client
	cfg    TencentConfig
}

var _ Engine = (*TencentEngine)(nil)

// NewTencentEngine 创建腾讯云 TTS 引擎。
func NewTencentEngine(cfg TencentConfig) (*TencentEngine, error) {
	if cfg.SecretID == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("[tts] 腾讯云 TTS 需要 SecretID 和 SecretKey")
	}
	if cfg.Region == "" {
		cfg.Region = "ap-guangzhou"
	}
	if len(cfg.Voices) == 0 {
		cfg.Voices = DefaultTencentVoices()
	}
	if cfg.MaxTextLength == 0 {
		cfg.MaxTextLength = tencentMaxTextLength
	}

	credential := common.NewCredential(cfg.SecretID, cfg.SecretKey)
	cpf := profile.NewClientProfile()
	cpf.HttpProfile.Endpoint = "tts.tencentcloudapi.com"

	client, err := tcts.NewClient(credential, cfg.Region, cpf)
	if err != nil {
		return nil, fmt.Errorf("[tts] 创建腾讯云 TTS 客户端失败: %w", err)
	}

	logger.Infof("[tts] 腾讯云 TTS 引擎已初始化 (region=%s)", cfg.Region)

	return &TencentEngine{client: client, cfg: cfg}, nil
}

// Synthesize 实现 Engine。腾讯云返回 Base64 编码的 MP3。
func (e *TencentEngine) Synthesize(ctx context.Context, req Request) (*Result, error) {
	if err := checkText(req.Text, e.cfg.MaxTextLength); err != nil {
		return nil, newSynthesisError(e.Name(), req, err)
	}
	voiceType, err := lookupVoice(e.cfg.Voices, req.Voice)
	if err != nil {
		return nil, newSynthesisError(e.Name(), req, err)
	}

	logger.Debugf("[tts] 腾讯云 TTS: 正在合成 %d 个字符，音色=%d", len([]rune(req.Text)), voiceType)

	request := tcts.NewTextToVoiceRequest()
	request.Text = common.StringPtr(req.Text)
	request.SessionId = common.StringPtr(uuid.NewString())
	request.VoiceType = common.Int64Ptr(voiceType)
	request.Codec = common.StringPtr("mp3")
	request.Speed = common.Float64Ptr(e.cfg.Speed)

	response, err := e.client.TextToVoiceWithContext(ctx, request)
	if err != nil {
		return nil, newSynthesisError(e.Name(), req, err)
	}
	if response.Response == nil || response.Response.Audio == nil {
		return nil, newSynthesisError(e.Name(), req, ErrEmptyAudio)
	}

	mp3Data, err := base64.StdEncoding.DecodeString(*response.Response.Audio)
	if err != nil {
		return nil, newSynthesisError(e.Name(), req, fmt.Errorf("Base64 解码失败: %w", err))
	}

	samples, sampleRate, err := audio.DecodeMP3(ctx, mp3Data)
	if err != nil {
		return nil, newSynthesisError(e.Name(), req, err)
	}

	return &Result{Samples: samples, SampleRate: sampleRate}, nil
}

// Name 实现 Engine。
func (e *TencentEngine) Name() string { return "tencent" }

// Close 实现 Engine。
func (e *TencentEngine) Close() {}
