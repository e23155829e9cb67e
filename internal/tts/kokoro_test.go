package tts

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	sherpa "github.com/k2-fsa/sherpa-onnx-go/sherpa_onnx"

	"github.com/iabetor/ttsbench/internal/device"
)

func TestResolveKokoroPaths_FromModelDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "lexicon-us-en.txt"), nil, 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "dict"), 0755); err != nil {
		t.Fatal(err)
	}

	cfg := resolveKokoroPaths(KokoroConfig{ModelDir: dir})

	if cfg.Model != filepath.Join(dir, "model.onnx") {
		t.Errorf("Model = %q", cfg.Model)
	}
	if cfg.Voices != filepath.Join(dir, "voices.bin") {
		t.Errorf("Voices = %q", cfg.Voices)
	}
	if cfg.Tokens != filepath.Join(dir, "tokens.txt") {
		t.Errorf("Tokens = %q", cfg.Tokens)
	}
	if cfg.DataDir != filepath.Join(dir, "espeak-ng-data") {
		t.Errorf("DataDir = %q", cfg.DataDir)
	}
	if cfg.DictDir != filepath.Join(dir, "dict") {
		t.Errorf("DictDir = %q", cfg.DictDir)
	}
	if cfg.Lexicon != filepath.Join(dir, "lexicon-us-en.txt") {
		t.Errorf("Lexicon = %q, only the existing lexicon should be used", cfg.Lexicon)
	}
	if cfg.NumThreads != 2 || cfg.Speed != 1.0 || cfg.MaxTextLength != kokoroMaxTextLength {
		t.Errorf("unexpected defaults: threads=%d speed=%f max=%d", cfg.NumThreads, cfg.Speed, cfg.MaxTextLength)
	}
	if cfg.Speakers[VoiceEsDora] != kokoroSpeakerDora {
		t.Errorf("es_dora speaker = %d, want %d", cfg.Speakers[VoiceEsDora], kokoroSpeakerDora)
	}
}

func TestResolveKokoroPaths_ExplicitPathsWin(t *testing.T) {
	cfg := resolveKokoroPaths(KokoroConfig{ModelDir: "/models", Model: "/other/model.onnx", MaxTextLength: -1})
	if cfg.Model != "/other/model.onnx" {
		t.Errorf("explicit model path overridden: %q", cfg.Model)
	}
	if cfg.MaxTextLength != -1 {
		t.Errorf("negative MaxTextLength (no limit) should be kept, got %d", cfg.MaxTextLength)
	}
}

func TestNewKokoroEngine_MissingFiles(t *testing.T) {
	if _, err := NewKokoroEngine(KokoroConfig{ModelDir: t.TempDir()}); err == nil {
		t.Fatal("expected error when model files are missing")
	}
	if _, err := NewKokoroEngine(KokoroConfig{}); err == nil {
		t.Fatal("expected error when nothing is configured")
	}
}

// newTestKokoro 构造不加载模型的引擎，只用于测试合成前的校验路径。
func newTestKokoro() *KokoroEngine {
	return &KokoroEngine{
		cfg:     resolveKokoroPaths(KokoroConfig{MaxTextLength: 20, Speakers: map[Voice]int{VoiceEsDora: 28}}),
		handles: make(map[kokoroKey]*sherpa.OfflineTts),
	}
}

func TestKokoroSynthesize_TextTooLong(t *testing.T) {
	k := newTestKokoro()
	req := Request{Text: strings.Repeat("hola ", 10), Voice: VoiceEsDora, Device: device.CPU}

	_, err := k.Synthesize(context.Background(), req)
	if !errors.Is(err, ErrTextTooLong) {
		t.Fatalf("expected ErrTextTooLong, got %v", err)
	}
	var se *SynthesisError
	if !errors.As(err, &se) || se.Engine != "kokoro" {
		t.Errorf("expected SynthesisError from kokoro, got %v", err)
	}
	if len(k.handles) != 0 {
		t.Error("model should not be loaded for rejected input")
	}
}

func TestKokoroSynthesize_UnsupportedVoice(t *testing.T) {
	k := newTestKokoro()
	_, err := k.Synthesize(context.Background(), Request{Text: "hello", Voice: VoiceEnDefault, Device: device.CPU})
	if !errors.Is(err, ErrUnsupportedVoice) {
		t.Fatalf("expected ErrUnsupportedVoice, got %v", err)
	}
}

func TestKokoroSynthesize_EmptyText(t *testing.T) {
	k := newTestKokoro()
	_, err := k.Synthesize(context.Background(), Request{Text: "", Voice: VoiceEsDora, Device: device.CPU})
	if !errors.Is(err, ErrEmptyText) {
		t.Fatalf("expected ErrEmptyText, got %v", err)
	}
}

func TestKokoroSherpaConfig_Provider(t *testing.T) {
	k := newTestKokoro()
	if got := k.sherpaConfig(device.CPU, "es").Model.Provider; got != "cpu" {
		t.Errorf("cpu provider = %q", got)
	}
	if got := k.sherpaConfig(device.GPU, "es").Model.Provider; got != device.Provider(device.GPU) {
		t.Errorf("gpu provider = %q, want %q", got, device.Provider(device.GPU))
	}
}

func TestKokoroSherpaConfig_Lang(t *testing.T) {
	k := newTestKokoro()

	tests := []struct {
		voice Voice
		want  string
	}{
		{VoiceEsDora, "es"},
		{VoiceEnDefault, "en-us"},
	}
	for _, tt := range tests {
		lang, err := k.langFor(tt.voice)
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tt.voice, err)
			continue
		}
		if lang != tt.want {
			t.Errorf("%s: lang = %q, want %q", tt.voice, lang, tt.want)
		}
		if got := k.sherpaConfig(device.CPU, lang).Model.Kokoro.Lang; got != tt.want {
			t.Errorf("%s: sherpa Kokoro.Lang = %q, want %q", tt.voice, got, tt.want)
		}
	}
}

func TestResolveKokoroPaths_LangOverride(t *testing.T) {
	cfg := resolveKokoroPaths(KokoroConfig{Langs: map[Voice]string{VoiceEsDora: "es-419"}})
	if cfg.Langs[VoiceEsDora] != "es-419" {
		t.Errorf("es_dora lang = %q, want override es-419", cfg.Langs[VoiceEsDora])
	}
	if cfg.Langs[VoiceEnDefault] != "en-us" {
		t.Errorf("en_default lang = %q, default should be kept", cfg.Langs[VoiceEnDefault])
	}
}

func TestKokoroPrepare_UnknownVoiceLoadsNothing(t *testing.T) {
	k := newTestKokoro()
	k.cfg.Langs = map[Voice]string{VoiceEsDora: "es"}

	if err := k.Prepare(device.CPU, VoiceEnDefault); !errors.Is(err, ErrUnsupportedVoice) {
		t.Fatalf("expected ErrUnsupportedVoice, got %v", err)
	}
	if len(k.handles) != 0 {
		t.Error("no model should be loaded for an unknown voice")
	}
}
