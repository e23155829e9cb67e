package bench

import (
	"fmt"

	"github.com/iabetor/ttsbench/internal/config"
	"github.com/iabetor/ttsbench/internal/tts"
)

// NewEngine 根据配置创建 TTS 引擎。引擎不可用时返回错误，属于启动阶段的致命错误。
func NewEngine(cfg config.TTSConfig) (tts.Engine, error) {
	switch cfg.Engine {
	case "kokoro":
		speakers, err := config.VoiceMap(cfg.Kokoro.Speakers)
		if err != nil {
			return nil, err
		}
		langs, err := config.VoiceMap(cfg.Kokoro.Langs)
		if err != nil {
			return nil, err
		}
		return tts.NewKokoroEngine(tts.KokoroConfig{
			ModelDir:      cfg.Kokoro.ModelDir,
			Model:         cfg.Kokoro.Model,
			Voices:        cfg.Kokoro.Voices,
			Tokens:        cfg.Kokoro.Tokens,
			DataDir:       cfg.Kokoro.DataDir,
			DictDir:       cfg.Kokoro.DictDir,
			Lexicon:       cfg.Kokoro.Lexicon,
			NumThreads:    cfg.Kokoro.NumThreads,
			Speed:         cfg.Kokoro.Speed,
			MaxTextLength: cfg.Kokoro.MaxTextLength,
			Speakers:      speakers,
			Langs:         langs,
		})
	case "piper":
		models, err := config.VoiceMap(cfg.Piper.Models)
		if err != nil {
			return nil, err
		}
		return tts.NewPiperEngine(tts.PiperConfig{
			Binary:        cfg.Piper.Binary,
			Models:        models,
			MaxTextLength: cfg.Piper.MaxTextLength,
		})
	case "say":
		voices, err := config.VoiceMap(cfg.Say.Voices)
		if err != nil {
			return nil, err
		}
		return tts.NewSayEngine(voices)
	case "edge":
		voices, err := config.VoiceMap(cfg.Edge.Voices)
		if err != nil {
			return nil, err
		}
		return tts.NewEdgeEngine(voices), nil
	case "tencent":
		voices, err := config.VoiceMap(cfg.Tencent.Voices)
		if err != nil {
			return nil, err
		}
		return tts.NewTencentEngine(tts.TencentConfig{
			SecretID:      cfg.Tencent.SecretID,
			SecretKey:     cfg.Tencent.SecretKey,
			Region:        cfg.Tencent.Region,
			Speed:         cfg.Tencent.Speed,
			Voices:        voices,
			MaxTextLength: cfg.Tencent.MaxTextLength,
		})
	default:
		return nil, fmt.Errorf("未知的 TTS 引擎: %s", cfg.Engine)
	}
}
