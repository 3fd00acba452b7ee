package tts

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nqu-vtuber/backend/internal/config"
	"github.com/nqu-vtuber/backend/internal/model/voice"
)

// HTTPEngine 通过HTTP调用独立部署的TTS服务（POST {base}/tts）。
type HTTPEngine struct {
	client  *http.Client
	baseURL string
}

// NewHTTPEngine 创建HTTP合成引擎客户端。
func NewHTTPEngine(cfg config.TTSConfig) *HTTPEngine {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPEngine{
		client:  &http.Client{Timeout: timeout},
		baseURL: cfg.BaseURL,
	}
}

type synthesizeRequest struct {
	Text     string `json:"text"`
	Voice    string `json:"voice,omitempty"`
	Language string `json:"language"`
}

type synthesizeResponse struct {
	Audio  string `json:"audio"` // base64-encoded bytes
	Format string `json:"format,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Synthesize implements Engine.
func (e *HTTPEngine) Synthesize(ctx context.Context, req *voice.TTSRequest) (*voice.TTSResponse, error) {
	payload, err := json.Marshal(synthesizeRequest{
		Text:     req.Text,
		Voice:    req.Voice,
		Language: req.Language,
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/tts", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, 32<<20))
	if err != nil {
		return nil, err
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tts engine returned status %d: %s", httpResp.StatusCode, truncate(body, 200))
	}

	var decoded synthesizeResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("invalid tts engine response: %w", err)
	}
	if decoded.Error != "" {
		return nil, errors.New(decoded.Error)
	}

	audio, err := base64.StdEncoding.DecodeString(decoded.Audio)
	if err != nil {
		return nil, fmt.Errorf("invalid audio encoding: %w", err)
	}

	format := decoded.Format
	if format == "" {
		format = "mp3"
	}

	return &voice.TTSResponse{
		SessionID: req.SessionID,
		AudioData: audio,
		Format:    format,
		CreatedAt: time.Now().UTC(),
	}, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
