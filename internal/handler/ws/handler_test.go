package ws

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/nqu-vtuber/backend/internal/config"
	"github.com/nqu-vtuber/backend/internal/model/chat"
	"github.com/nqu-vtuber/backend/internal/session"
)

type generatorFunc func(ctx context.Context, history []chat.Turn, userMessage string) (string, error)

func (f generatorFunc) Generate(ctx context.Context, history []chat.Turn, userMessage string) (string, error) {
	return f(ctx, history, userMessage)
}

type synthesizerFunc func(ctx context.Context, sessionID, text string) ([]byte, error)

func (f synthesizerFunc) Synthesize(ctx context.Context, sessionID, text string) ([]byte, error) {
	return f(ctx, sessionID, text)
}

type serverMsg struct {
	Type    string `json:"type"`
	Text    string `json:"text"`
	Audio   string `json:"audio"`
	Emotion string `json:"emotion"`
	Message string `json:"message"`
}

func newTestServer(t *testing.T) (*httptest.Server, *session.Registry) {
	t.Helper()

	generator := generatorFunc(func(_ context.Context, _ []chat.Turn, userMessage string) (string, error) {
		return "re: " + userMessage, nil
	})
	synthesizer := synthesizerFunc(func(_ context.Context, _, text string) ([]byte, error) {
		return []byte("audio:" + text), nil
	})
	registry := session.NewRegistry(generator, synthesizer, config.TriggerConfig{
		Cooldown: time.Minute,
		Emotions: []string{"sad"},
	}, 10)

	r := chi.NewRouter()
	New(registry).RegisterRoutes(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, registry
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) serverMsg {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}

	var msg serverMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	return msg
}

func send(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	if err := conn.WriteJSON(v); err != nil {
		t.Fatalf("write failed: %v", err)
	}
}

func TestTextInputProducesResponse(t *testing.T) {
	srv, _ := newTestServer(t)
	conn := dial(t, srv)

	send(t, conn, map[string]string{"type": "text_input", "content": "hello"})

	msg := readMessage(t, conn)
	if msg.Type != "response" {
		t.Fatalf("expected response, got %s", msg.Type)
	}
	if msg.Text != "re: hello" {
		t.Fatalf("unexpected text %q", msg.Text)
	}

	audio, err := base64.StdEncoding.DecodeString(msg.Audio)
	if err != nil {
		t.Fatalf("audio is not valid base64: %v", err)
	}
	if string(audio) != "audio:re: hello" {
		t.Fatalf("unexpected audio payload %q", audio)
	}
}

func TestEmotionUpdateTriggersInteraction(t *testing.T) {
	srv, _ := newTestServer(t)
	conn := dial(t, srv)

	send(t, conn, map[string]string{"type": "emotion_update", "emotion": "sad"})

	msg := readMessage(t, conn)
	if msg.Type != "emotion_interaction" {
		t.Fatalf("expected emotion_interaction, got %s", msg.Type)
	}
	if msg.Emotion != "sad" {
		t.Fatalf("unexpected emotion %q", msg.Emotion)
	}
	if msg.Text == "" {
		t.Fatalf("expected a generated line")
	}
}

func TestUntrackedEmotionProducesNothing(t *testing.T) {
	srv, _ := newTestServer(t)
	conn := dial(t, srv)

	send(t, conn, map[string]string{"type": "emotion_update", "emotion": "happy"})
	send(t, conn, map[string]string{"type": "text_input", "content": "ping"})

	// The happy update must not emit anything; the first frame back is
	// the reply to the text input.
	msg := readMessage(t, conn)
	if msg.Type != "response" || msg.Text != "re: ping" {
		t.Fatalf("unexpected message %+v", msg)
	}
}

func TestEmptyTextInputReturnsError(t *testing.T) {
	srv, _ := newTestServer(t)
	conn := dial(t, srv)

	send(t, conn, map[string]string{"type": "text_input", "content": "   "})

	msg := readMessage(t, conn)
	if msg.Type != "error" {
		t.Fatalf("expected error, got %s", msg.Type)
	}
	if msg.Message != "content is required" {
		t.Fatalf("unexpected message %q", msg.Message)
	}
}

func TestUnsupportedTypeReturnsError(t *testing.T) {
	srv, _ := newTestServer(t)
	conn := dial(t, srv)

	send(t, conn, map[string]string{"type": "bogus"})

	msg := readMessage(t, conn)
	if msg.Type != "error" {
		t.Fatalf("expected error, got %s", msg.Type)
	}
	if !strings.Contains(msg.Message, "unsupported message type") {
		t.Fatalf("unexpected message %q", msg.Message)
	}
}

func TestInvalidJSONReturnsError(t *testing.T) {
	srv, _ := newTestServer(t)
	conn := dial(t, srv)

	if err := conn.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	msg := readMessage(t, conn)
	if msg.Type != "error" || msg.Message != "invalid message payload" {
		t.Fatalf("unexpected message %+v", msg)
	}
}

func TestDisconnectUnregistersSession(t *testing.T) {
	srv, registry := newTestServer(t)
	conn := dial(t, srv)

	waitFor(t, func() bool { return registry.Len() == 1 })

	conn.Close()

	waitFor(t, func() bool { return registry.Len() == 0 })
}

func TestConcurrentConnectionsGetOwnSessions(t *testing.T) {
	srv, registry := newTestServer(t)

	first := dial(t, srv)
	second := dial(t, srv)

	waitFor(t, func() bool { return registry.Len() == 2 })

	send(t, first, map[string]string{"type": "text_input", "content": "one"})
	send(t, second, map[string]string{"type": "text_input", "content": "two"})

	if msg := readMessage(t, first); msg.Text != "re: one" {
		t.Fatalf("first connection got %q", msg.Text)
	}
	if msg := readMessage(t, second); msg.Text != "re: two" {
		t.Fatalf("second connection got %q", msg.Text)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within deadline")
}
