package session

import (
	"sync"
	"time"

	"github.com/nqu-vtuber/backend/internal/config"
)

// Trigger decides whether an emotion update should spawn a spontaneous
// interaction. Only configured emotion kinds fire, and the same kind never
// fires twice within the cooldown interval for one session.
type Trigger struct {
	cooldown time.Duration
	emotions map[string]struct{}
	now      func() time.Time

	mu        sync.Mutex
	lastFired map[string]time.Time
}

// NewTrigger 根据策略配置创建触发器。每个会话持有自己的实例。
func NewTrigger(cfg config.TriggerConfig) *Trigger {
	emotions := make(map[string]struct{}, len(cfg.Emotions))
	for _, e := range cfg.Emotions {
		emotions[e] = struct{}{}
	}
	return &Trigger{
		cooldown:  cfg.Cooldown,
		emotions:  emotions,
		now:       time.Now,
		lastFired: make(map[string]time.Time),
	}
}

// ShouldTrigger reports whether an interaction should fire for emotion. The
// cooldown check and the timestamp update happen under one lock, so two
// near-simultaneous updates cannot both pass.
func (t *Trigger) ShouldTrigger(emotion string) bool {
	if _, interesting := t.emotions[emotion]; !interesting {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if last, ok := t.lastFired[emotion]; ok && now.Sub(last) < t.cooldown {
		return false
	}

	t.lastFired[emotion] = now
	return true
}

// Release gives back a cooldown claimed by ShouldTrigger when the interaction
// could not be queued, so the emotion is not suppressed for a window in which
// nothing actually fired.
func (t *Trigger) Release(emotion string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.lastFired, emotion)
}
