package weather

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/iabetor/ttsbench/internal/llm"
)

const montevideoJSON = `{
  "name": "Montevideo",
  "dt": 1718000000,
  "timezone": -10800,
  "visibility": 10000,
  "main": {"temp": 12.34, "feels_like": 11, "temp_min": 10.5, "temp_max": 14, "humidity": 81},
  "wind": {"speed": 4.63},
  "clouds": {"all": 75},
  "sys": {"country": "UY", "sunrise": 1717990000, "sunset": 1718025000},
  "weather": [{"description": "nubes rotas"}]
}`

func weatherServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/weather" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("q") != "Montevideo,UY" || q.Get("appid") != "key" || q.Get("units") != "metric" || q.Get("lang") != "es" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(server.Close)
	return server
}

// staticProvider 把收到的提示词记下来，返回固定回复。
type staticProvider struct {
	reply  string
	prompt string
}

func (p *staticProvider) ChatStream(ctx context.Context, messages []llm.Message) (<-chan string, error) {
	if len(messages) > 0 {
		p.prompt = messages[len(messages)-1].Content
	}
	ch := make(chan string, 1)
	ch <- p.reply
	close(ch)
	return ch, nil
}

func TestFormatDecimal(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{12.34, "12 punto 34"},
		{14, "14"},
		{10.5, "10 punto 50"},
		{-0.25, "-0 punto 25"},
		{4.999, "5"},
	}
	for _, tt := range tests {
		if got := FormatDecimal(tt.in); got != tt.want {
			t.Errorf("FormatDecimal(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatTimestamp(t *testing.T) {
	// 2024-06-10 06:13:20 UTC，蒙得维的亚为 UTC-3
	if got := FormatTimestamp(1718000000, -10800); got != "03:13:20 del 10/06/2024" {
		t.Errorf("FormatTimestamp = %q", got)
	}
}

func TestClientCurrent(t *testing.T) {
	server := weatherServer(t, http.StatusOK, montevideoJSON)
	c := NewClient(Config{APIKey: "key", BaseURL: server.URL})

	obs, err := c.Current(context.Background())
	if err != nil {
		t.Fatalf("Current failed: %v", err)
	}
	if obs.Name != "Montevideo" || obs.Sys.Country != "UY" || obs.Main.Humidity != 81 {
		t.Errorf("unexpected observation: %+v", obs)
	}
	if obs.Description() != "nubes rotas" {
		t.Errorf("Description = %q", obs.Description())
	}
	if obs.Visibility == nil || *obs.Visibility != 10000 {
		t.Errorf("Visibility = %v", obs.Visibility)
	}
}

func TestClientCurrent_APIError(t *testing.T) {
	server := weatherServer(t, http.StatusUnauthorized, `{"cod":401,"message":"Invalid API key"}`)
	c := NewClient(Config{APIKey: "key", BaseURL: server.URL})

	_, err := c.Current(context.Background())
	if err == nil || !strings.Contains(err.Error(), "401") || !strings.Contains(err.Error(), "Invalid API key") {
		t.Fatalf("expected 401 error, got %v", err)
	}
}

func TestPrompt_UsesSpokenNumbers(t *testing.T) {
	server := weatherServer(t, http.StatusOK, montevideoJSON)
	obs, err := NewClient(Config{APIKey: "key", BaseURL: server.URL}).Current(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	prompt := Prompt(obs, "metric")
	for _, want := range []string{
		"Montevideo, UY",
		"Temperatura actual: 12 punto 34 grados Celsius",
		"máxima: 14 grados",
		"Humedad: 81 por ciento",
		"Viento: 4 punto 63 metros por segundo",
		"Condición principal: nubes rotas",
		"Visibilidad: 10000 metros",
		"03:13:20 del 10/06/2024",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}

	obs.Visibility = nil
	if strings.Contains(Prompt(obs, "imperial"), "Visibilidad") {
		t.Error("visibility should be omitted when absent")
	}
}

func TestReporterText(t *testing.T) {
	server := weatherServer(t, http.StatusOK, montevideoJSON)
	provider := &staticProvider{reply: "<think>datos</think>Hoy en Montevideo está nublado."}
	r := NewReporter(NewClient(Config{APIKey: "key", BaseURL: server.URL}), provider)

	text, err := r.Text(context.Background())
	if err != nil {
		t.Fatalf("Text failed: %v", err)
	}
	if text != "Hoy en Montevideo está nublado." {
		t.Errorf("Text = %q", text)
	}
	if !strings.Contains(provider.prompt, "12 punto 34") {
		t.Errorf("provider did not receive the weather prompt: %q", provider.prompt)
	}
}
