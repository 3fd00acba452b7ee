package tts

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/nqu-vtuber/backend/internal/cache"
	"github.com/nqu-vtuber/backend/internal/config"
	"github.com/nqu-vtuber/backend/internal/model/voice"
	"github.com/nqu-vtuber/backend/pkg/utils"
)

// CacheStats 缓存命中统计。
type CacheStats struct {
	Entries int   `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}

// Coordinator 包装外部合成引擎：查询/回填音频缓存，并对相同键的并发请求做
// single-flight 去重——任一键同时最多只有一次外部合成调用在途。
type Coordinator struct {
	engine   Engine
	store    cache.AudioCache
	group    singleflight.Group
	cfg      config.TTSConfig
	language string

	hits   atomic.Int64
	misses atomic.Int64
}

// NewCoordinator 创建合成协调器。language 为角色语言，决定默认声音。
func NewCoordinator(engine Engine, store cache.AudioCache, cfg config.TTSConfig, language string) *Coordinator {
	return &Coordinator{engine: engine, store: store, cfg: cfg, language: language}
}

// Synthesize returns the audio for text, serving from the cache when possible.
// Concurrent calls for the same (text, voice, language) join a single engine
// call and all receive the same bytes or the same error; failures are never
// cached, so the next call retries.
func (c *Coordinator) Synthesize(ctx context.Context, sessionID, text string) ([]byte, error) {
	text = strings.TrimSpace(utils.SanitizeForSpeech(text))
	if text == "" {
		return nil, ErrEmptyText
	}

	voiceID, ok := voice.VoiceFor(c.cfg.Voice, c.language)
	if !ok {
		return nil, ErrUnsupportedVoice
	}

	key := cache.Key(text, voiceID, c.language)

	if entry, found, err := c.store.Get(ctx, key); err == nil && found {
		c.hits.Add(1)
		return entry.Audio, nil
	} else if err != nil {
		log.Printf("[tts] cache lookup failed, falling through to engine: %v", err)
	}
	c.misses.Add(1)

	result, err, shared := c.group.Do(key, func() (any, error) {
		// The engine call outlives the leader's session: a joined caller
		// must not fail because the session that started the call went
		// away. Closing a session discards its result, nothing more. The
		// coordinator's own timeout still bounds the call.
		return c.synthesizeAndStore(context.WithoutCancel(ctx), sessionID, text, voiceID, key)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		log.Printf("[tts] joined in-flight synthesis session=%s key=%.8s", sessionID, key)
	}

	return result.([]byte), nil
}

func (c *Coordinator) synthesizeAndStore(ctx context.Context, sessionID, text, voiceID, key string) ([]byte, error) {
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	resp, err := c.engine.Synthesize(ctx, &voice.TTSRequest{
		SessionID: sessionID,
		Text:      text,
		Voice:     voiceID,
		Language:  c.language,
	})
	if err != nil {
		return nil, &SynthesisError{Err: err}
	}
	if resp == nil || len(resp.AudioData) == 0 {
		return nil, &SynthesisError{Err: errors.New("engine returned empty audio")}
	}

	if err := c.store.Put(ctx, key, cache.NewEntry(resp.AudioData)); err != nil {
		// A cache write failure must not fail the synthesis itself.
		log.Printf("[tts] cache store failed key=%.8s: %v", key, err)
	}

	log.Printf("[tts] synthesized session=%s bytes=%d", sessionID, len(resp.AudioData))
	return resp.AudioData, nil
}

// Stats reports cache performance counters and, when the backing store can
// count its entries, the current entry total.
func (c *Coordinator) Stats() CacheStats {
	stats := CacheStats{Hits: c.hits.Load(), Misses: c.misses.Load()}
	if counter, ok := c.store.(interface{ Len() int }); ok {
		stats.Entries = counter.Len()
	}
	return stats
}
