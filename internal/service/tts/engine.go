package tts

import (
	"context"
	"errors"
	"fmt"

	"github.com/nqu-vtuber/backend/internal/model/voice"
)

var (
	// ErrEmptyText 空文本不会触发外部合成调用。
	ErrEmptyText = errors.New("empty text input")
	// ErrUnsupportedVoice 语言没有可用的声音配置。
	ErrUnsupportedVoice = errors.New("unsupported voice or language")
)

// SynthesisError 表示外部合成引擎调用失败。失败不会被缓存。
type SynthesisError struct {
	Err error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("synthesis failed: %v", e.Err)
}

func (e *SynthesisError) Unwrap() error {
	return e.Err
}

// Engine is the external speech-synthesis capability. Implementations are
// assumed deterministic per (text, voice, language).
type Engine interface {
	Synthesize(ctx context.Context, req *voice.TTSRequest) (*voice.TTSResponse, error)
}

// Disabled stands in for the synthesizer when no TTS endpoint is
// configured. Replies go out text only, with empty audio.
type Disabled struct{}

func (Disabled) Synthesize(_ context.Context, _ string, _ string) ([]byte, error) {
	return nil, nil
}
