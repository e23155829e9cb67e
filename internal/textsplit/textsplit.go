// Package textsplit 把长文本切成适合单次 TTS 调用的片段。
// 切分只在调用方显式要求时发生，引擎本身从不自动分段。
package textsplit

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxLength 是未指定上限时每段的最大字符数。
const DefaultMaxLength = 150

// 全角标点和换行总是结束句子。
var cjkEnders = []rune{'。', '！', '？', '；', '\n'}

// 半角标点只有后面跟空白或位于末尾时才结束句子，避免切开 21.5 或 www.ejemplo.com。
var asciiEnders = []rune{'.', '!', '?'}

func isEnder(r rune, enders []rune) bool {
	for _, e := range enders {
		if r == e {
			return true
		}
	}
	return false
}

// ExtractSentence 从文本中提取第一个完整句子（包含结尾标点）。
// 没有找到句末标点时返回 ("", text, false)。
func ExtractSentence(text string) (string, string, bool) {
	for i, r := range text {
		splitAt := i + utf8.RuneLen(r)
		switch {
		case isEnder(r, cjkEnders):
		case isEnder(r, asciiEnders):
			next, _ := utf8.DecodeRuneInString(text[splitAt:])
			if splitAt < len(text) && !unicode.IsSpace(next) {
				continue
			}
		default:
			continue
		}
		return text[:splitAt], text[splitAt:], true
	}
	return "", text, false
}

// Split 按句子切分文本，并把相邻句子合并为不超过 maxLen 个字符的片段。
// 单个句子超过 maxLen 时按字符硬切。返回的片段都已去除首尾空白且非空。
func Split(text string, maxLen int) []string {
	if maxLen <= 0 {
		maxLen = DefaultMaxLength
	}

	var chunks []string
	var current strings.Builder
	currentLen := 0

	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			chunks = append(chunks, s)
		}
		current.Reset()
		currentLen = 0
	}

	add := func(sentence string) {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			return
		}
		n := utf8.RuneCountInString(sentence)

		if n > maxLen {
			flush()
			chunks = append(chunks, hardSplit(sentence, maxLen)...)
			return
		}

		// 句子之间补一个空格，与原文的分隔保持一致
		sep := 0
		if currentLen > 0 {
			sep = 1
		}
		if currentLen+sep+n > maxLen {
			flush()
			sep = 0
		}
		if sep == 1 {
			current.WriteByte(' ')
		}
		current.WriteString(sentence)
		currentLen += sep + n
	}

	remaining := text
	for {
		sentence, rest, found := ExtractSentence(remaining)
		if !found {
			add(remaining)
			break
		}
		add(sentence)
		remaining = rest
	}
	flush()
	return chunks
}

// hardSplit 按 maxLen 个字符切分，不考虑词边界。
func hardSplit(s string, maxLen int) []string {
	runes := []rune(s)
	var out []string
	for start := 0; start < len(runes); start += maxLen {
		end := min(start+maxLen, len(runes))
		if piece := strings.TrimSpace(string(runes[start:end])); piece != "" {
			out = append(out, piece)
		}
	}
	return out
}
