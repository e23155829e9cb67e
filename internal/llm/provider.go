package llm

import (
	"context"
	"errors"
	"regexp"
	"strings"
)

// Message 表示与 LLM 对话中的一条消息。
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Provider 定义支持流式响应的 LLM 后端接口。
type Provider interface {
	// ChatStream 将对话消息发送给 LLM，返回一个 channel 逐块接收文本响应。
	ChatStream(ctx context.Context, messages []Message) (<-chan string, error)
}

// ErrEmptyResponse 表示模型没有返回可用的文本。
var ErrEmptyResponse = errors.New("[llm] 模型返回为空")

// 推理模型会输出 <think>...</think>，这部分不能送去朗读。
var thinkBlock = regexp.MustCompile(`(?is)<think>.*?</think>`)

// StripThinking 去除推理块和首尾空白。
func StripThinking(s string) string {
	return strings.TrimSpace(thinkBlock.ReplaceAllString(s, ""))
}

// Complete 读完整个流式回复并返回清理后的文本。
func Complete(ctx context.Context, p Provider, messages []Message) (string, error) {
	ch, err := p.ChatStream(ctx, messages)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for chunk := range ch {
		sb.WriteString(chunk)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	text := StripThinking(sb.String())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
