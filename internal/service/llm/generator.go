package llm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/nqu-vtuber/backend/internal/config"
	"github.com/nqu-vtuber/backend/internal/model/chat"
)

// GenerationError 表示大模型调用失败。Retryable 指示调用方是否可以重试；
// 协调器本身从不自动重试。
type GenerationError struct {
	Retryable bool
	Err       error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed (retryable=%t): %v", e.Retryable, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// Generator wraps the chat model behind a persona-aware prompt chain. It is
// stateless across calls; all conversation state lives in the session.
type Generator struct {
	chain     compose.Runnable[map[string]any, *schema.Message]
	character config.CharacterConfig
	cfg       config.AIConfig
}

// NewGenerator 构建生成协调器。chatModel 由调用方注入，便于测试。
func NewGenerator(ctx context.Context, chatModel model.ChatModel, aiCfg config.AIConfig, character config.CharacterConfig) (*Generator, error) {
	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &Generator{chain: runnable, character: character, cfg: aiCfg}, nil
}

// Generate produces the assistant reply for userMessage given the prior
// history. The transcript is trimmed oldest-first to the configured budget;
// the persona preamble is never dropped.
func (g *Generator) Generate(ctx context.Context, history []chat.Turn, userMessage string) (string, error) {
	userMessage = strings.TrimSpace(userMessage)
	if userMessage == "" {
		return "", &GenerationError{Retryable: false, Err: errors.New("empty user message")}
	}

	if g.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()
	}

	system := BuildSystemPrompt(g.character)
	trimmed := TrimTranscript(history, g.cfg.TranscriptBudget-len(system)-len(userMessage))

	input := map[string]any{
		"system":  system,
		"history": toSchemaMessages(trimmed),
		"query":   userMessage,
	}

	response, err := g.chain.Invoke(ctx, input)
	if err != nil {
		return "", &GenerationError{Retryable: isRetryable(err), Err: err}
	}
	if response == nil || strings.TrimSpace(response.Content) == "" {
		return "", &GenerationError{Retryable: true, Err: errors.New("model returned empty content")}
	}

	log.Printf("[llm] generated response length=%d history=%d", len(response.Content), len(trimmed))
	return response.Content, nil
}

// TrimTranscript keeps the newest turns whose contents fit within budget,
// dropping oldest-first. The budget is measured in UTF-8 bytes, not runes, so
// CJK text consumes it roughly three times faster than ASCII. Very old
// context is silently lost, which is the documented behavior.
func TrimTranscript(history []chat.Turn, budget int) []chat.Turn {
	if budget <= 0 {
		return nil
	}

	total := 0
	start := len(history)
	for i := len(history) - 1; i >= 0; i-- {
		total += len(history[i].Content)
		if total > budget {
			break
		}
		start = i
	}

	return history[start:]
}

func toSchemaMessages(history []chat.Turn) []*schema.Message {
	if len(history) == 0 {
		return nil
	}

	messages := make([]*schema.Message, 0, len(history))
	for _, turn := range history {
		switch turn.Role {
		case chat.RoleUser:
			messages = append(messages, schema.UserMessage(turn.Content))
		case chat.RoleAssistant:
			messages = append(messages, schema.AssistantMessage(turn.Content, nil))
		}
	}
	return messages
}

// isRetryable 区分瞬时故障（超时、限流）与确定性故障。
func isRetryable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "rate limit") || strings.Contains(msg, "too many requests")
}
