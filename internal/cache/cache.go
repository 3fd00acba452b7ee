package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"
)

var (
	ErrInvalidDriver = errors.New("invalid cache driver")
	ErrInvalidConfig = errors.New("invalid cache configuration")
)

// Entry 缓存的合成音频及其元数据。Entries are immutable once inserted.
type Entry struct {
	Audio     []byte    `json:"audio"`
	Size      int       `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewEntry builds an entry for freshly synthesized audio.
func NewEntry(audio []byte) Entry {
	return Entry{Audio: audio, Size: len(audio), CreatedAt: time.Now().UTC()}
}

// AudioCache is the bounded audio store shared by all sessions. Get refreshes
// the recency of the entry; Put may evict the least-recently-used entry.
// Keeping it behind an interface lets a networked cache replace the in-process
// one without touching session logic.
type AudioCache interface {
	Get(ctx context.Context, key string) (Entry, bool, error)
	Put(ctx context.Context, key string, entry Entry) error
	Close() error
}

// Key derives the deterministic cache key for a synthesis request.
//
// Normalization: leading/trailing space is trimmed and internal whitespace
// runs collapse to a single space; case is preserved (acronym pronunciation
// depends on it). The key is the hex SHA-256 of the normalized text, voice
// and language joined with NUL separators.
func Key(text, voice, language string) string {
	normalized := strings.Join(strings.Fields(text), " ")

	h := sha256.New()
	h.Write([]byte(normalized))
	h.Write([]byte{0})
	h.Write([]byte(voice))
	h.Write([]byte{0})
	h.Write([]byte(language))
	return hex.EncodeToString(h.Sum(nil))
}
