package llm

import (
	"context"

	"github.com/nqu-vtuber/backend/internal/model/chat"
)

// FallbackGenerator answers with a fixed line when no chat model is
// configured, so the rest of the pipeline stays reachable.
type FallbackGenerator struct {
	Reply string
}

// NewFallbackGenerator 创建一个无模型时的兜底回复器。
func NewFallbackGenerator() FallbackGenerator {
	return FallbackGenerator{Reply: "抱歉，AI 服务暂未配置，我现在无法回答你的问题。"}
}

func (g FallbackGenerator) Generate(_ context.Context, _ []chat.Turn, _ string) (string, error) {
	return g.Reply, nil
}
