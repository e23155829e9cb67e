package bench

import (
	"context"
	"fmt"

	"github.com/iabetor/ttsbench/internal/config"
	"github.com/iabetor/ttsbench/internal/device"
	"github.com/iabetor/ttsbench/internal/tts"
)

// TextSource 在合成前生成场景文本，生成耗时不计入合成测量。
type TextSource interface {
	Text(ctx context.Context) (string, error)
}

// Scenario 是一个已校验的基准场景。
type Scenario struct {
	Name           string
	Text           string
	Source         TextSource // 非空时忽略 Text
	Voice          tts.Voice
	Device         device.Device // cpu、gpu 或 auto
	ChunkMaxLength int           // > 0 时由调用方切分文本
}

// request 构造发往引擎的请求。
func (s Scenario) request(text string, dev device.Device) tts.Request {
	return tts.Request{Text: text, Voice: s.Voice, Device: dev}
}

// ScenariosFromConfig 把配置中的字符串枚举转换为类型化的场景。
// sources 按来源名称提供文本生成器，场景引用了未提供的来源时返回错误。
func ScenariosFromConfig(cfgs []config.ScenarioConfig, sources map[string]TextSource) ([]Scenario, error) {
	out := make([]Scenario, 0, len(cfgs))
	for _, c := range cfgs {
		voice, err := tts.ParseVoice(c.Voice)
		if err != nil {
			return nil, fmt.Errorf("场景 %s: %w", c.Name, err)
		}
		dev, err := device.Parse(c.Device)
		if err != nil {
			return nil, fmt.Errorf("场景 %s: %w", c.Name, err)
		}
		sc := Scenario{
			Name:           c.Name,
			Text:           c.Text,
			Voice:          voice,
			Device:         dev,
			ChunkMaxLength: c.ChunkMaxLength,
		}
		if c.Source != "" {
			src, ok := sources[c.Source]
			if !ok {
				return nil, fmt.Errorf("场景 %s: 文本来源 %s 未启用", c.Name, c.Source)
			}
			sc.Source = src
		}
		out = append(out, sc)
	}
	return out, nil
}
