package bench

import (
	"time"

	"github.com/iabetor/ttsbench/internal/config"
	"github.com/iabetor/ttsbench/internal/llm"
	"github.com/iabetor/ttsbench/internal/weather"
)

// NewTextSources 为配置中用到的文本来源创建生成器，没有场景引用时不创建。
func NewTextSources(cfg *config.Config) map[string]TextSource {
	sources := make(map[string]TextSource)
	for _, sc := range cfg.Scenarios {
		if sc.Source != config.SourceWeather || sources[config.SourceWeather] != nil {
			continue
		}
		client := weather.NewClient(weather.Config{
			APIKey:  cfg.Weather.APIKey,
			City:    cfg.Weather.City,
			Units:   cfg.Weather.Units,
			Lang:    cfg.Weather.Lang,
			BaseURL: cfg.Weather.BaseURL,
			Timeout: time.Duration(cfg.Weather.TimeoutSec) * time.Second,
		})
		provider := llm.NewOpenAIProvider(cfg.LLM.APIURL, cfg.LLM.APIKey, cfg.LLM.Model,
			time.Duration(cfg.LLM.TimeoutSec)*time.Second)
		sources[config.SourceWeather] = weather.NewReporter(client, provider)
	}
	return sources
}
