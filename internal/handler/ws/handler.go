package ws

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/nqu-vtuber/backend/internal/session"
)

const (
	readDeadline = 60 * time.Second
	pingInterval = 54 * time.Second
)

// Handler WebSocket客户端连接处理器
type Handler struct {
	registry *session.Registry
	upgrader websocket.Upgrader
}

// New 创建WebSocket处理器
func New(registry *session.Registry) *Handler {
	return &Handler{
		registry: registry,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes 注册WebSocket路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws", h.handleWebSocket)
}

type inboundMessage struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
	Emotion string `json:"emotion,omitempty"`
}

type responseMessage struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Audio string `json:"audio"`
}

type emotionInteractionMessage struct {
	Type    string `json:"type"`
	Emotion string `json:"emotion"`
	Text    string `json:"text"`
	Audio   string `json:"audio"`
}

type errorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// connSink serializes all writes to one connection. The session worker,
// the read loop, and the ping loop all emit through it.
type connSink struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *connSink) writeJSON(v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.WriteJSON(v); err != nil {
		log.Printf("[websocket] write failed: %v", err)
	}
}

func (s *connSink) ping() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteMessage(websocket.PingMessage, nil)
}

// SendResponse implements session.EventSink.
func (s *connSink) SendResponse(text string, audio []byte) {
	s.writeJSON(responseMessage{
		Type:  "response",
		Text:  text,
		Audio: base64.StdEncoding.EncodeToString(audio),
	})
}

// SendEmotionInteraction implements session.EventSink.
func (s *connSink) SendEmotionInteraction(emotion, text string, audio []byte) {
	s.writeJSON(emotionInteractionMessage{
		Type:    "emotion_interaction",
		Emotion: emotion,
		Text:    text,
		Audio:   base64.StdEncoding.EncodeToString(audio),
	})
}

// SendError implements session.EventSink.
func (s *connSink) SendError(message string) {
	s.writeJSON(errorMessage{Type: "error", Message: message})
}

// handleWebSocket 处理客户端连接的完整生命周期
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[websocket] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	sessionID := uuid.NewString()
	sink := &connSink{conn: conn}

	sess, err := h.registry.Register(sessionID, sink)
	if err != nil {
		log.Printf("[websocket] register failed id=%s: %v", sessionID, err)
		sink.SendError("failed to establish session")
		return
	}
	defer h.registry.Unregister(sessionID)

	log.Printf("[websocket] new connection session=%s", sessionID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadDeadline(time.Now().Add(readDeadline))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readDeadline))
		return nil
	})

	go h.pingLoop(ctx, sink)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				log.Printf("[websocket] read error session=%s: %v", sessionID, err)
			}
			return
		}

		conn.SetReadDeadline(time.Now().Add(readDeadline))

		var msg inboundMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			sink.SendError("invalid message payload")
			continue
		}

		if done := h.dispatch(sess, sink, &msg); done {
			return
		}
	}
}

// dispatch routes one inbound message to the session. Returns true when
// the session is gone and the connection should be torn down.
func (h *Handler) dispatch(sess *session.Session, sink *connSink, msg *inboundMessage) bool {
	var err error
	switch msg.Type {
	case "text_input":
		err = sess.HandleTextInput(msg.Content)
	case "emotion_update":
		err = sess.HandleEmotionUpdate(msg.Emotion)
	default:
		sink.SendError("unsupported message type: " + msg.Type)
		return false
	}

	switch {
	case err == nil:
	case errors.Is(err, session.ErrEmptyInput):
		sink.SendError("content is required")
	case errors.Is(err, session.ErrQueueFull):
		sink.SendError("too many pending messages")
	case errors.Is(err, session.ErrSessionClosed):
		return true
	default:
		log.Printf("[websocket] dispatch failed session=%s type=%s: %v", sess.ID, msg.Type, err)
		sink.SendError("internal error")
	}
	return false
}

// pingLoop 定期发送ping消息保持连接活跃
func (h *Handler) pingLoop(ctx context.Context, sink *connSink) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := sink.ping(); err != nil {
				return
			}
		}
	}
}
