package textsplit

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestExtractSentence_Punctuation(t *testing.T) {
	tests := []struct {
		input     string
		sentence  string
		remainder string
	}{
		{"Hola. Mundo", "Hola.", " Mundo"},
		{"¿Qué tal? Bien", "¿Qué tal?", " Bien"},
		{"Hello! World", "Hello!", " World"},
		{"你好。世界", "你好。", "世界"},
		{"line1\nline2", "line1\n", "line2"},
		{"Fin.", "Fin.", ""},
		{"Son 21.5 grados. Hace calor.", "Son 21.5 grados.", " Hace calor."},
		{"Visite www.ejemplo.com hoy. Adiós", "Visite www.ejemplo.com hoy.", " Adiós"},
		{"¿Listo?¡Vamos!\tYa", "¿Listo?¡Vamos!", "\tYa"},
	}

	for _, tt := range tests {
		sentence, remainder, found := ExtractSentence(tt.input)
		if !found {
			t.Errorf("ExtractSentence(%q): expected found=true", tt.input)
			continue
		}
		if sentence != tt.sentence {
			t.Errorf("ExtractSentence(%q): sentence = %q, want %q", tt.input, sentence, tt.sentence)
		}
		if remainder != tt.remainder {
			t.Errorf("ExtractSentence(%q): remainder = %q, want %q", tt.input, remainder, tt.remainder)
		}
	}
}

func TestExtractSentence_NoPunctuation(t *testing.T) {
	sentence, remainder, found := ExtractSentence("sin final")
	if found {
		t.Fatal("expected found=false")
	}
	if sentence != "" || remainder != "sin final" {
		t.Errorf("got (%q, %q)", sentence, remainder)
	}
}

func TestSplit_MergesShortSentences(t *testing.T) {
	chunks := Split("Uno. Dos. Tres.", 100)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d: %q", len(chunks), chunks)
	}
	if chunks[0] != "Uno. Dos. Tres." {
		t.Errorf("chunk = %q", chunks[0])
	}
}

func TestSplit_RespectsMaxLength(t *testing.T) {
	text := "Hola, mi nombre es Dora. Esta es una prueba de voz en español. " +
		"La inteligencia artificial ha avanzado mucho en los últimos años. Gracias por probar."
	chunks := Split(text, 70)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %q", chunks)
	}
	for i, c := range chunks {
		if n := utf8.RuneCountInString(c); n > 70 {
			t.Errorf("chunk %d has %d runes (> 70): %q", i, n, c)
		}
	}
	if got := strings.Join(chunks, " "); got != text {
		t.Errorf("joined chunks differ from input:\n got %q\nwant %q", got, text)
	}
}

func TestSplit_HardSplitsLongSentence(t *testing.T) {
	long := strings.Repeat("a", 25)
	chunks := Split(long, 10)
	want := []string{"aaaaaaaaaa", "aaaaaaaaaa", "aaaaa"}
	if len(chunks) != len(want) {
		t.Fatalf("expected %d chunks, got %d: %q", len(want), len(chunks), chunks)
	}
	for i := range want {
		if chunks[i] != want[i] {
			t.Errorf("chunk %d = %q, want %q", i, chunks[i], want[i])
		}
	}
}

func TestSplit_MultibyteCountsRunes(t *testing.T) {
	chunks := Split("ñññññ. ááááá.", 6)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %q", chunks)
	}
}

func TestSplit_EmptyAndWhitespace(t *testing.T) {
	if chunks := Split("", 10); len(chunks) != 0 {
		t.Errorf("expected no chunks for empty text, got %q", chunks)
	}
	if chunks := Split("  \n  ", 10); len(chunks) != 0 {
		t.Errorf("expected no chunks for whitespace, got %q", chunks)
	}
}

func TestSplit_DefaultMaxLength(t *testing.T) {
	text := strings.Repeat("palabra ", 60) // 480 字符，无句末标点
	chunks := Split(text, 0)
	for i, c := range chunks {
		if n := utf8.RuneCountInString(c); n > DefaultMaxLength {
			t.Errorf("chunk %d has %d runes, exceeds default %d", i, n, DefaultMaxLength)
		}
	}
}

func TestSplit_KeepsDecimalsAndURLs(t *testing.T) {
	tests := []struct {
		text   string
		maxLen int
		want   []string
	}{
		{
			"La temperatura es 21.5 grados. Hace calor.", 40,
			[]string{"La temperatura es 21.5 grados.", "Hace calor."},
		},
		{
			"Visite www.ejemplo.com hoy.", 150,
			[]string{"Visite www.ejemplo.com hoy."},
		},
		{
			"Versión 1.2.3 publicada. Descargue en https://ejemplo.com/v1.2.3 ya.", 150,
			[]string{"Versión 1.2.3 publicada. Descargue en https://ejemplo.com/v1.2.3 ya."},
		},
	}

	for _, tt := range tests {
		got := Split(tt.text, tt.maxLen)
		if strings.Join(got, "|") != strings.Join(tt.want, "|") {
			t.Errorf("Split(%q, %d) = %q, want %q", tt.text, tt.maxLen, got, tt.want)
		}
	}
}
