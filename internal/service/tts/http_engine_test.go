package tts

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nqu-vtuber/backend/internal/config"
	"github.com/nqu-vtuber/backend/internal/model/voice"
)

func TestHTTPEngineSynthesize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tts" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}

		var req synthesizeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request err: %v", err)
		}
		if req.Text != "你好" || req.Language != "zh" {
			t.Errorf("unexpected request payload: %+v", req)
		}

		json.NewEncoder(w).Encode(synthesizeResponse{
			Audio:  base64.StdEncoding.EncodeToString([]byte("fake-mp3")),
			Format: "mp3",
		})
	}))
	defer server.Close()

	engine := NewHTTPEngine(config.TTSConfig{BaseURL: server.URL})
	resp, err := engine.Synthesize(context.Background(), &voice.TTSRequest{
		SessionID: "s1",
		Text:      "你好",
		Voice:     "zh-CN-XiaoxiaoNeural",
		Language:  "zh",
	})
	if err != nil {
		t.Fatalf("Synthesize err: %v", err)
	}
	if string(resp.AudioData) != "fake-mp3" {
		t.Fatalf("unexpected audio: %q", resp.AudioData)
	}
	if resp.Format != "mp3" {
		t.Fatalf("unexpected format: %s", resp.Format)
	}
}

func TestHTTPEngineErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	engine := NewHTTPEngine(config.TTSConfig{BaseURL: server.URL})
	if _, err := engine.Synthesize(context.Background(), &voice.TTSRequest{Text: "hi", Language: "en"}); err == nil {
		t.Fatal("expected error for 500 response")
	}
}

func TestHTTPEngineErrorPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(synthesizeResponse{Error: "voice unavailable"})
	}))
	defer server.Close()

	engine := NewHTTPEngine(config.TTSConfig{BaseURL: server.URL})
	_, err := engine.Synthesize(context.Background(), &voice.TTSRequest{Text: "hi", Language: "en"})
	if err == nil || err.Error() != "voice unavailable" {
		t.Fatalf("expected engine error payload, got %v", err)
	}
}

func TestHTTPEngineInvalidAudioEncoding(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(synthesizeResponse{Audio: "not-base64!!"})
	}))
	defer server.Close()

	engine := NewHTTPEngine(config.TTSConfig{BaseURL: server.URL})
	if _, err := engine.Synthesize(context.Background(), &voice.TTSRequest{Text: "hi", Language: "en"}); err == nil {
		t.Fatal("expected error for invalid base64 audio")
	}
}
