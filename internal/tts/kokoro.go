package tts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sherpa "github.com/k2-fsa/sherpa-onnx-go/sherpa_onnx"

	"github.com/iabetor/ttsbench/internal/device"
	"github.com/iabetor/ttsbench/internal/logger"
)

// Kokoro 默认参数。
const (
	kokoroMaxTextLength = 500 // 约等于模型 510 个音素 token 的上下文
	kokoroSpeakerDora   = 28  // ef_dora
	kokoroSpeakerHeart  = 3   // af_heart
)

// DefaultKokoroSpeakers 是 kokoro-multi-lang-v1_0 模型中各音色对应的 speaker id。
func DefaultKokoroSpeakers() map[Voice]int {
	return map[Voice]int{
		VoiceEsDora:    kokoroSpeakerDora,
		VoiceEnDefault: kokoroSpeakerHeart,
	}
}

// DefaultKokoroLangs 是各音色使用的 espeak-ng 语言代码。
func DefaultKokoroLangs() map[Voice]string {
	return map[Voice]string{
		VoiceEsDora:    "es",
		VoiceEnDefault: "en-us",
	}
}

// KokoroConfig 本地 Kokoro 模型配置。
// 只设置 ModelDir 时，其余路径按 sherpa-onnx 发布包的默认文件名推导。
type KokoroConfig struct {
	ModelDir      string
	Model         string
	Voices        string
	Tokens        string
	DataDir       string
	DictDir       string
	Lexicon       string
	NumThreads    int
	Speed         float32
	MaxTextLength int
	Speakers      map[Voice]int
	Langs         map[Voice]string // 音色 → espeak-ng 语言，决定音素化方式
}

// kokoroKey 标识一个模型句柄。Lang 属于模型配置，不同语言需要不同句柄。
type kokoroKey struct {
	dev  device.Device
	lang string
}

// KokoroEngine 通过 sherpa-onnx OfflineTts 在本地运行 Kokoro 模型。
// 每个 (设备, 语言) 持有一个独立的模型句柄，由引擎负责创建和释放。
type KokoroEngine struct {
	cfg     KokoroConfig
	handles map[kokoroKey]*sherpa.OfflineTts
}

var (
	_ Engine   = (*KokoroEngine)(nil)
	_ Preparer = (*KokoroEngine)(nil)
)

// NewKokoroEngine 校验模型文件并创建引擎，模型在 Prepare 时才加载。
func NewKokoroEngine(cfg KokoroConfig) (*KokoroEngine, error) {
	cfg = resolveKokoroPaths(cfg)

	for _, p := range []string{cfg.Model, cfg.Voices, cfg.Tokens, cfg.DataDir} {
		if p == "" {
			return nil, fmt.Errorf("[tts] kokoro: 缺少模型文件配置 (model_dir=%q)", cfg.ModelDir)
		}
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("[tts] kokoro: 模型文件不可用: %w", err)
		}
	}

	logger.Infof("[tts] kokoro 引擎已创建 (model=%s, threads=%d)", cfg.Model, cfg.NumThreads)

	return &KokoroEngine{
		cfg:     cfg,
		handles: make(map[kokoroKey]*sherpa.OfflineTts),
	}, nil
}

// resolveKokoroPaths 用 ModelDir 补全未设置的路径和参数。
func resolveKokoroPaths(cfg KokoroConfig) KokoroConfig {
	join := func(cur, name string) string {
		if cur != "" || cfg.ModelDir == "" {
			return cur
		}
		return filepath.Join(cfg.ModelDir, name)
	}
	cfg.Model = join(cfg.Model, "model.onnx")
	cfg.Voices = join(cfg.Voices, "voices.bin")
	cfg.Tokens = join(cfg.Tokens, "tokens.txt")
	cfg.DataDir = join(cfg.DataDir, "espeak-ng-data")

	// 多语言模型附带的可选文件，存在时才使用
	if cfg.DictDir == "" && cfg.ModelDir != "" {
		if dir := filepath.Join(cfg.ModelDir, "dict"); exists(dir) {
			cfg.DictDir = dir
		}
	}
	if cfg.Lexicon == "" && cfg.ModelDir != "" {
		var lexicons []string
		for _, name := range []string{"lexicon-us-en.txt", "lexicon-zh.txt"} {
			if p := filepath.Join(cfg.ModelDir, name); exists(p) {
				lexicons = append(lexicons, p)
			}
		}
		cfg.Lexicon = strings.Join(lexicons, ",")
	}

	if cfg.NumThreads <= 0 {
		cfg.NumThreads = 2
	}
	if cfg.Speed <= 0 {
		cfg.Speed = 1.0
	}
	if cfg.MaxTextLength == 0 {
		cfg.MaxTextLength = kokoroMaxTextLength
	}
	if len(cfg.Speakers) == 0 {
		cfg.Speakers = DefaultKokoroSpeakers()
	}
	langs := DefaultKokoroLangs()
	for v, lang := range cfg.Langs {
		langs[v] = lang
	}
	cfg.Langs = langs
	return cfg
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (k *KokoroEngine) sherpaConfig(dev device.Device, lang string) *sherpa.OfflineTtsConfig {
	c := &sherpa.OfflineTtsConfig{}
	c.Model.Kokoro.Model = k.cfg.Model
	c.Model.Kokoro.Voices = k.cfg.Voices
	c.Model.Kokoro.Tokens = k.cfg.Tokens
	c.Model.Kokoro.DataDir = k.cfg.DataDir
	c.Model.Kokoro.DictDir = k.cfg.DictDir
	c.Model.Kokoro.Lexicon = k.cfg.Lexicon
	c.Model.Kokoro.Lang = lang
	c.Model.Kokoro.LengthScale = 1.0
	c.Model.NumThreads = k.cfg.NumThreads
	c.Model.Provider = device.Provider(dev)
	c.MaxNumSentences = 1
	return c
}

// langFor 返回音色的语言代码，未配置时返回 ErrUnsupportedVoice。
func (k *KokoroEngine) langFor(v Voice) (string, error) {
	return lookupVoice(k.cfg.Langs, v)
}

// Prepare 为 (dev, voice 的语言) 加载模型。GPU 后端创建失败时返回 ErrDeviceUnavailable。
func (k *KokoroEngine) Prepare(dev device.Device, voice Voice) error {
	lang, err := k.langFor(voice)
	if err != nil {
		return err
	}
	_, err = k.handle(dev, lang)
	return err
}

func (k *KokoroEngine) handle(dev device.Device, lang string) (*sherpa.OfflineTts, error) {
	key := kokoroKey{dev: dev, lang: lang}
	if h, ok := k.handles[key]; ok {
		return h, nil
	}

	provider := device.Provider(dev)
	logger.Infof("[tts] kokoro: 正在加载模型 (device=%s, provider=%s, lang=%s)", dev, provider, lang)

	h := sherpa.NewOfflineTts(k.sherpaConfig(dev, lang))
	if h == nil {
		if dev == device.GPU {
			return nil, fmt.Errorf("[tts] kokoro: %w (provider=%s)", ErrDeviceUnavailable, provider)
		}
		return nil, fmt.Errorf("[tts] kokoro: 加载模型失败 (provider=%s)", provider)
	}

	k.handles[key] = h
	return h, nil
}

// Synthesize 实现 Engine。
func (k *KokoroEngine) Synthesize(ctx context.Context, req Request) (*Result, error) {
	if err := checkText(req.Text, k.cfg.MaxTextLength); err != nil {
		return nil, newSynthesisError(k.Name(), req, err)
	}
	sid, err := lookupVoice(k.cfg.Speakers, req.Voice)
	if err != nil {
		return nil, newSynthesisError(k.Name(), req, err)
	}
	lang, err := k.langFor(req.Voice)
	if err != nil {
		return nil, newSynthesisError(k.Name(), req, err)
	}
	h, err := k.handle(req.Device, lang)
	if err != nil {
		return nil, newSynthesisError(k.Name(), req, err)
	}
	// Generate 无法中途取消，只在调用前检查
	if err := ctx.Err(); err != nil {
		return nil, newSynthesisError(k.Name(), req, err)
	}

	logger.Debugf("[tts] kokoro: 正在合成 %d 个字符，speaker=%d，lang=%s，device=%s", len([]rune(req.Text)), sid, lang, req.Device)

	generated := h.Generate(req.Text, sid, k.cfg.Speed)
	if generated == nil || len(generated.Samples) == 0 {
		return nil, newSynthesisError(k.Name(), req, ErrEmptyAudio)
	}

	logger.Debugf("[tts] kokoro: 生成 %d 个样本，采样率 %d Hz", len(generated.Samples), generated.SampleRate)

	return &Result{Samples: generated.Samples, SampleRate: generated.SampleRate}, nil
}

// Name 实现 Engine。
func (k *KokoroEngine) Name() string { return "kokoro" }

// Close 释放所有设备上的模型句柄。
func (k *KokoroEngine) Close() {
	for key, h := range k.handles {
		sherpa.DeleteOfflineTts(h)
		delete(k.handles, key)
	}
	logger.Info("[tts] kokoro 引擎已关闭")
}
