// Package weather 从 OpenWeatherMap 获取当前天气，并让 LLM 写成可朗读的西班牙语播报稿。
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/iabetor/ttsbench/internal/llm"
	"github.com/iabetor/ttsbench/internal/logger"
)

// Config OpenWeatherMap 查询配置。
type Config struct {
	APIKey  string
	City    string // 例如 Montevideo,UY
	Units   string // metric 或 imperial
	Lang    string
	BaseURL string
	Timeout time.Duration
}

// Observation 是 /weather 接口返回的当前天气。
type Observation struct {
	Name       string `json:"name"`
	Dt         int64  `json:"dt"`
	Timezone   int    `json:"timezone"` // 相对 UTC 的秒数
	Visibility *int   `json:"visibility"`
	Main       struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		TempMin   float64 `json:"temp_min"`
		TempMax   float64 `json:"temp_max"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Clouds struct {
		All int `json:"all"`
	} `json:"clouds"`
	Sys struct {
		Country string `json:"country"`
		Sunrise int64  `json:"sunrise"`
		Sunset  int64  `json:"sunset"`
	} `json:"sys"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
}

// Description 返回第一条天气描述。
func (o *Observation) Description() string {
	if len(o.Weather) == 0 {
		return ""
	}
	return o.Weather[0].Description
}

// Client 查询 OpenWeatherMap。
type Client struct {
	cfg    Config
	client *http.Client
}

// NewClient 创建客户端，未设置的字段使用默认值。
func NewClient(cfg Config) *Client {
	if cfg.City == "" {
		cfg.City = "Montevideo,UY"
	}
	if cfg.Units == "" {
		cfg.Units = "metric"
	}
	if cfg.Lang == "" {
		cfg.Lang = "es"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openweathermap.org/data/2.5"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}
}

// Current 返回配置城市的当前天气。
func (c *Client) Current(ctx context.Context) (*Observation, error) {
	q := url.Values{}
	q.Set("q", c.cfg.City)
	q.Set("appid", c.cfg.APIKey)
	q.Set("units", c.cfg.Units)
	q.Set("lang", c.cfg.Lang)
	u := strings.TrimRight(c.cfg.BaseURL, "/") + "/weather?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("[weather] 创建请求失败: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("[weather] 查询 %s 失败: %w", c.cfg.City, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("[weather] 读取响应失败: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("[weather] API 返回状态码 %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var obs Observation
	if err := json.Unmarshal(body, &obs); err != nil {
		return nil, fmt.Errorf("[weather] 解析天气数据失败: %w", err)
	}
	logger.Infof("[weather] %s: %.1f°, %s", obs.Name, obs.Main.Temp, obs.Description())
	return &obs, nil
}

// FormatDecimal 把小数写成西班牙语读法，小数点读作 punto，整数不带小数部分。
func FormatDecimal(v float64) string {
	s := strings.Replace(fmt.Sprintf("%.2f", v), ".", " punto ", 1)
	return strings.TrimSuffix(s, " punto 00")
}

// FormatTimestamp 按城市的 UTC 偏移格式化 Unix 时间。
func FormatTimestamp(ts int64, offsetSec int) string {
	return time.Unix(ts, 0).UTC().Add(time.Duration(offsetSec) * time.Second).Format("15:04:05 del 02/01/2006")
}

func units(system string) (temp, wind string) {
	if system == "imperial" {
		return "grados Fahrenheit", "millas por hora"
	}
	return "grados Celsius", "metros por segundo"
}

// Prompt 生成让 LLM 写播报稿的提示词，所有数字已预先转成读法。
func Prompt(o *Observation, unitSystem string) string {
	tempUnit, windUnit := units(unitSystem)

	var b strings.Builder
	b.WriteString("Eres una meteoróloga uruguaya joven y simpática. Escribe un informe del tiempo completo pero breve en español, ")
	fmt.Fprintf(&b, "usando exclusivamente los siguientes datos ya preformateados para %s, %s. ", o.Name, o.Sys.Country)
	b.WriteString("Sé clara, fresca, natural y un poco conversacional. ")
	b.WriteString("Cuando menciones números decimales, usa la palabra 'punto' en vez del símbolo. ")
	b.WriteString("Agrega explicaciones o consejos prácticos sobre el clima, pero sin inventar datos. ")
	fmt.Fprintf(&b, "Hora local actual: %s. ", FormatTimestamp(o.Dt, o.Timezone))
	fmt.Fprintf(&b, "Salida del sol: %s. ", FormatTimestamp(o.Sys.Sunrise, o.Timezone))
	fmt.Fprintf(&b, "Puesta del sol: %s. ", FormatTimestamp(o.Sys.Sunset, o.Timezone))
	fmt.Fprintf(&b, "Temperatura actual: %s %s. ", FormatDecimal(o.Main.Temp), tempUnit)
	fmt.Fprintf(&b, "Sensación térmica: %s grados. ", FormatDecimal(o.Main.FeelsLike))
	fmt.Fprintf(&b, "Temperatura mínima: %s grados, máxima: %s grados. ", FormatDecimal(o.Main.TempMin), FormatDecimal(o.Main.TempMax))
	fmt.Fprintf(&b, "Humedad: %d por ciento. ", o.Main.Humidity)
	fmt.Fprintf(&b, "Viento: %s %s. ", FormatDecimal(o.Wind.Speed), windUnit)
	fmt.Fprintf(&b, "Nubosidad: %d por ciento. ", o.Clouds.All)
	fmt.Fprintf(&b, "Condición principal: %s. ", o.Description())
	if o.Visibility != nil {
		fmt.Fprintf(&b, "Visibilidad: %d metros. ", *o.Visibility)
	}
	b.WriteString("No uses ningún tipo de marcado, etiquetas ni formato especial: solo texto plano, ya que el resultado será leído por un sistema TTS. ")
	b.WriteString("No inventes ni asumas datos que no estén explícitamente presentes arriba.")
	return b.String()
}

// Reporter 组合天气查询和 LLM，生成一段播报稿。
type Reporter struct {
	client   *Client
	provider llm.Provider
}

// NewReporter 创建播报稿生成器。
func NewReporter(client *Client, provider llm.Provider) *Reporter {
	return &Reporter{client: client, provider: provider}
}

// Text 查询天气并返回 LLM 写好的播报稿。
func (r *Reporter) Text(ctx context.Context) (string, error) {
	obs, err := r.client.Current(ctx)
	if err != nil {
		return "", err
	}
	prompt := Prompt(obs, r.client.cfg.Units)

	text, err := llm.Complete(ctx, r.provider, []llm.Message{{Role: "user", Content: prompt}})
	if err != nil {
		return "", fmt.Errorf("[weather] 生成播报稿失败: %w", err)
	}
	logger.Infof("[weather] 播报稿 (%d 个字符): %s", len([]rune(text)), text)
	return text, nil
}
