package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/iabetor/ttsbench/internal/device"
	"github.com/iabetor/ttsbench/internal/tts"
)

// Config 是 ttsbench 的顶层配置结构。
type Config struct {
	Bench     BenchConfig      `yaml:"bench"`
	Device    DeviceConfig     `yaml:"device"`
	TTS       TTSConfig        `yaml:"tts"`
	Scenarios []ScenarioConfig `yaml:"scenarios"`
	Weather   WeatherConfig    `yaml:"weather"`
	LLM       LLMConfig        `yaml:"llm"`
	Log       LogConfig        `yaml:"log"`
}

// BenchConfig 基准测试运行配置。
type BenchConfig struct {
	OutputDir  string `yaml:"output_dir"`
	ReportPath string `yaml:"report_path"` // 为空则不写 JSON 报告
	Cleanup    bool   `yaml:"cleanup"`     // 运行结束后删除生成的 WAV
	Play       bool   `yaml:"play"`        // 写入后通过默认输出设备回放

	// MemoryIntervalMs 合成期间采样 RSS 的间隔（毫秒），未设置时为 50，0 表示只在前后采样。
	MemoryIntervalMs *int `yaml:"memory_interval_ms"`
}

// MemoryInterval 返回内存采样间隔。
func (b BenchConfig) MemoryInterval() time.Duration {
	if b.MemoryIntervalMs == nil {
		return defaultMemoryIntervalMs * time.Millisecond
	}
	return time.Duration(*b.MemoryIntervalMs) * time.Millisecond
}

// DeviceConfig 设备选择配置。
type DeviceConfig struct {
	// Prefer 为 auto 时探测 GPU，cpu 时跳过探测，gpu 时仍需探测成功才会使用。
	Prefer string `yaml:"prefer"`
}

// TTSConfig 语音合成配置。
type TTSConfig struct {
	Engine  string        `yaml:"engine"`
	Kokoro  KokoroConfig  `yaml:"kokoro"`
	Piper   PiperConfig   `yaml:"piper"`
	Say     SayConfig     `yaml:"say"`
	Edge    EdgeConfig    `yaml:"edge"`
	Tencent TencentConfig `yaml:"tencent"`
}

// KokoroConfig 本地 Kokoro 模型配置。
type KokoroConfig struct {
	ModelDir      string            `yaml:"model_dir"`
	Model         string            `yaml:"model"`
	Voices        string            `yaml:"voices"`
	Tokens        string            `yaml:"tokens"`
	DataDir       string            `yaml:"data_dir"`
	DictDir       string            `yaml:"dict_dir"`
	Lexicon       string            `yaml:"lexicon"`
	NumThreads    int               `yaml:"num_threads"`
	Speed         float32           `yaml:"speed"`
	MaxTextLength int               `yaml:"max_text_length"`
	Speakers      map[string]int    `yaml:"speakers"` // 音色 → speaker id
	Langs         map[string]string `yaml:"langs"`    // 音色 → espeak-ng 语言代码
}

// PiperConfig Piper TTS 配置。
type PiperConfig struct {
	Binary        string            `yaml:"binary"`
	Models        map[string]string `yaml:"models"` // 音色 → 模型路径
	MaxTextLength int               `yaml:"max_text_length"`
}

// SayConfig macOS say 配置。
type SayConfig struct {
	Voices map[string]string `yaml:"voices"`
}

// EdgeConfig Edge TTS 配置。
type EdgeConfig struct {
	Voices map[string]string `yaml:"voices"`
}

// TencentConfig 腾讯云 TTS 配置。
type TencentConfig struct {
	SecretID      string           `yaml:"secret_id"`
	SecretKey     string           `yaml:"secret_key"`
	Region        string           `yaml:"region"`
	Speed         float64          `yaml:"speed"`
	Voices        map[string]int64 `yaml:"voices"`
	MaxTextLength int              `yaml:"max_text_length"`
}

// ScenarioConfig 一个基准测试场景。
type ScenarioConfig struct {
	Name   string `yaml:"name"`
	Text   string `yaml:"text"`
	Voice  string `yaml:"voice"`
	Device string `yaml:"device"`

	// Source 为 weather 时文本在合成前由天气数据和 LLM 生成，text 可以为空。
	Source string `yaml:"source"`

	// ChunkMaxLength 大于 0 时在调用引擎前按句子切分文本，0 表示原样提交。
	ChunkMaxLength int `yaml:"chunk_max_length"`
}

// WeatherConfig OpenWeatherMap 配置，供 weather 场景使用。
type WeatherConfig struct {
	APIKey     string `yaml:"api_key"`
	City       string `yaml:"city"`
	Units      string `yaml:"units"`
	Lang       string `yaml:"lang"`
	BaseURL    string `yaml:"base_url"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// LLMConfig OpenAI 兼容接口配置（如 Ollama 的 /v1），用于生成天气播报稿。
type LLMConfig struct {
	APIURL     string `yaml:"api_url"`
	APIKey     string `yaml:"api_key"`
	Model      string `yaml:"model"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// LogConfig 日志配置。
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
}

// 支持的引擎名称。
var engines = []string{"kokoro", "piper", "say", "edge", "tencent"}

// SourceWeather 表示场景文本由天气数据和 LLM 在合成前生成。
const SourceWeather = "weather"

const defaultMemoryIntervalMs = 50

// Load 读取 YAML 配置文件并返回经过校验的 Config。
// 支持 ${VAR_NAME} 形式的环境变量展开。
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件 %s 失败: %w", path, err)
	}

	expanded := os.Expand(string(data), os.Getenv)

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件 %s 失败: %w", path, err)
	}

	setDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("配置文件 %s 无效: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault 与 Load 相同，但文件不存在时返回内置默认配置。
func LoadOrDefault(path string) (*Config, bool, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), true, nil
	}
	return cfg, false, err
}

// Default 返回内置默认配置，包含内置基准场景。
func Default() *Config {
	cfg := &Config{}
	setDefaults(cfg)
	return cfg
}

// setDefaults 为未设置的配置项填充默认值。
func setDefaults(cfg *Config) {
	if cfg.Bench.OutputDir == "" {
		cfg.Bench.OutputDir = "output"
	}
	if cfg.Bench.MemoryIntervalMs == nil {
		v := defaultMemoryIntervalMs
		cfg.Bench.MemoryIntervalMs = &v
	}
	if cfg.Device.Prefer == "" {
		cfg.Device.Prefer = string(device.Auto)
	}
	if cfg.TTS.Engine == "" {
		cfg.TTS.Engine = "kokoro"
	}
	if cfg.TTS.Kokoro.ModelDir == "" && cfg.TTS.Kokoro.Model == "" {
		cfg.TTS.Kokoro.ModelDir = "models/kokoro-multi-lang-v1_0"
	}
	if cfg.Weather.City == "" {
		cfg.Weather.City = "Montevideo,UY"
	}
	if cfg.Weather.Units == "" {
		cfg.Weather.Units = "metric"
	}
	if cfg.Weather.Lang == "" {
		cfg.Weather.Lang = "es"
	}
	if cfg.Weather.BaseURL == "" {
		cfg.Weather.BaseURL = "https://api.openweathermap.org/data/2.5"
	}
	if cfg.Weather.TimeoutSec <= 0 {
		cfg.Weather.TimeoutSec = 10
	}
	if cfg.LLM.APIURL == "" {
		cfg.LLM.APIURL = "http://localhost:11434/v1"
	}
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = "ollama"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gemma3:4b"
	}
	if cfg.LLM.TimeoutSec <= 0 {
		cfg.LLM.TimeoutSec = 60
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if len(cfg.Scenarios) == 0 {
		cfg.Scenarios = DefaultScenarios()
	}
	for i := range cfg.Scenarios {
		if cfg.Scenarios[i].Voice == "" {
			cfg.Scenarios[i].Voice = string(tts.VoiceEsDora)
		}
		if cfg.Scenarios[i].Device == "" {
			cfg.Scenarios[i].Device = string(device.Auto)
		}
	}

	// 去除密钥两端可能的空白（环境变量展开后常见）
	cfg.TTS.Tencent.SecretID = strings.TrimSpace(cfg.TTS.Tencent.SecretID)
	cfg.TTS.Tencent.SecretKey = strings.TrimSpace(cfg.TTS.Tencent.SecretKey)
	cfg.Weather.APIKey = strings.TrimSpace(cfg.Weather.APIKey)
}

// Validate 检查枚举值和场景定义，在构造阶段拒绝无效配置。
func (c *Config) Validate() error {
	if !contains(engines, c.TTS.Engine) {
		return fmt.Errorf("未知的 TTS 引擎: %s（可选 %s）", c.TTS.Engine, strings.Join(engines, "、"))
	}
	if _, err := device.Parse(c.Device.Prefer); err != nil {
		return fmt.Errorf("device.prefer: %w", err)
	}
	if c.Bench.MemoryIntervalMs != nil && *c.Bench.MemoryIntervalMs < 0 {
		return fmt.Errorf("bench.memory_interval_ms 不能为负数")
	}

	if len(c.Scenarios) == 0 {
		return fmt.Errorf("至少需要一个场景")
	}
	seen := make(map[string]bool, len(c.Scenarios))
	for i, s := range c.Scenarios {
		if s.Name == "" {
			return fmt.Errorf("场景 #%d 缺少 name", i)
		}
		if strings.ContainsAny(s.Name, `/\`) || s.Name == "." || s.Name == ".." {
			return fmt.Errorf("场景名 %q 不能包含路径分隔符", s.Name)
		}
		if seen[s.Name] {
			return fmt.Errorf("场景名重复: %s", s.Name)
		}
		seen[s.Name] = true

		switch s.Source {
		case "":
			if strings.TrimSpace(s.Text) == "" {
				return fmt.Errorf("场景 %s 的 text 为空", s.Name)
			}
		case SourceWeather:
			if c.Weather.APIKey == "" {
				return fmt.Errorf("场景 %s: weather.api_key 未配置", s.Name)
			}
		default:
			return fmt.Errorf("场景 %s: 未知的文本来源 %q", s.Name, s.Source)
		}
		if _, err := tts.ParseVoice(s.Voice); err != nil {
			return fmt.Errorf("场景 %s: %w", s.Name, err)
		}
		if _, err := device.Parse(s.Device); err != nil {
			return fmt.Errorf("场景 %s: %w", s.Name, err)
		}
		if s.ChunkMaxLength < 0 {
			return fmt.Errorf("场景 %s: chunk_max_length 不能为负数", s.Name)
		}
	}

	// 各引擎音色映射表的键也必须是已知音色
	if _, err := VoiceMap(c.TTS.Kokoro.Speakers); err != nil {
		return fmt.Errorf("tts.kokoro.speakers: %w", err)
	}
	if _, err := VoiceMap(c.TTS.Kokoro.Langs); err != nil {
		return fmt.Errorf("tts.kokoro.langs: %w", err)
	}
	if _, err := VoiceMap(c.TTS.Piper.Models); err != nil {
		return fmt.Errorf("tts.piper.models: %w", err)
	}
	if _, err := VoiceMap(c.TTS.Say.Voices); err != nil {
		return fmt.Errorf("tts.say.voices: %w", err)
	}
	if _, err := VoiceMap(c.TTS.Edge.Voices); err != nil {
		return fmt.Errorf("tts.edge.voices: %w", err)
	}
	if _, err := VoiceMap(c.TTS.Tencent.Voices); err != nil {
		return fmt.Errorf("tts.tencent.voices: %w", err)
	}
	return nil
}

// VoiceMap 把配置中以字符串为键的映射转换为以音色为键的映射。nil 输入返回 nil。
func VoiceMap[T any](m map[string]T) (map[tts.Voice]T, error) {
	if m == nil {
		return nil, nil
	}
	out := make(map[tts.Voice]T, len(m))
	for k, v := range m {
		voice, err := tts.ParseVoice(k)
		if err != nil {
			return nil, err
		}
		out[voice] = v
	}
	return out, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
