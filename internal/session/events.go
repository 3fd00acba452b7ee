package session

import (
	"context"
	"errors"

	"github.com/nqu-vtuber/backend/internal/model/chat"
)

var (
	ErrEmptyInput       = errors.New("empty input")
	ErrSessionClosed    = errors.New("session closed")
	ErrQueueFull        = errors.New("session pipeline queue full")
	ErrDuplicateSession = errors.New("session already registered")
	ErrSessionNotFound  = errors.New("session not found")
)

// Generator 为会话生成回复文本（生成协调器的会话侧接口）。
type Generator interface {
	Generate(ctx context.Context, history []chat.Turn, userMessage string) (string, error)
}

// Synthesizer 将回复文本合成为音频（合成协调器的会话侧接口）。
type Synthesizer interface {
	Synthesize(ctx context.Context, sessionID, text string) ([]byte, error)
}

// EventSink receives pipeline output for delivery to the client. The transport
// layer implements it; tests substitute a recorder.
type EventSink interface {
	SendResponse(text string, audio []byte)
	SendEmotionInteraction(emotion, text string, audio []byte)
	SendError(message string)
}
