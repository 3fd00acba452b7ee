package session

import (
	"log"
	"sync"

	"github.com/nqu-vtuber/backend/internal/config"
)

// Registry 进程级的活跃会话表，负责会话的创建与销毁。
type Registry struct {
	generator    Generator
	synthesizer  Synthesizer
	triggerCfg   config.TriggerConfig
	historyLimit int

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry 创建会话注册表。Sessions built by Register share the generator
// and synthesizer but each gets its own trigger state.
func NewRegistry(generator Generator, synthesizer Synthesizer, triggerCfg config.TriggerConfig, historyLimit int) *Registry {
	return &Registry{
		generator:    generator,
		synthesizer:  synthesizer,
		triggerCfg:   triggerCfg,
		historyLimit: historyLimit,
		sessions:     make(map[string]*Session),
	}
}

// Register creates and stores the session for a new connection. Registration
// is atomic: a second Register with the same id fails with
// ErrDuplicateSession.
func (r *Registry) Register(id string, sink EventSink) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[id]; exists {
		return nil, ErrDuplicateSession
	}

	s := New(id, r.generator, r.synthesizer, NewTrigger(r.triggerCfg), sink, r.historyLimit)
	r.sessions[id] = s

	log.Printf("[registry] session registered id=%s active=%d", id, len(r.sessions))
	return s, nil
}

// Lookup returns the session for id.
func (r *Registry) Lookup(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Unregister removes and finalizes the session. Idempotent: unknown ids are
// a no-op.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	active := len(r.sessions)
	r.mu.Unlock()

	if !ok {
		return
	}

	s.Close()
	log.Printf("[registry] session unregistered id=%s active=%d", id, active)
}

// Len reports the number of active sessions, the process-wide gauge.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
