package voice

import "time"

// TTSRequest 语音合成请求
type TTSRequest struct {
	SessionID string `json:"sessionId"`
	Text      string `json:"text"`
	Voice     string `json:"voice"`
	Language  string `json:"language"` // zh, en, ja, ...
}

// TTSResponse 语音合成响应
type TTSResponse struct {
	SessionID string    `json:"sessionId"`
	AudioData []byte    `json:"-"`
	Format    string    `json:"format"`
	Cached    bool      `json:"cached"`
	CreatedAt time.Time `json:"createdAt"`
}

// DefaultVoices maps language codes to the engine voice used when no voice is
// configured explicitly.
var DefaultVoices = map[string]string{
	"zh": "zh-CN-XiaoxiaoNeural",
	"en": "en-US-AriaNeural",
	"ja": "ja-JP-NanamiNeural",
	"ko": "ko-KR-SunHiNeural",
	"fr": "fr-FR-DeniseNeural",
	"de": "de-DE-KatjaNeural",
	"es": "es-ES-ElviraNeural",
	"it": "it-IT-ElsaNeural",
	"ru": "ru-RU-SvetlanaNeural",
	"pt": "pt-BR-FranciscaNeural",
}

// VoiceFor resolves the voice for a language. An explicitly configured voice
// always wins; otherwise the per-language default is used.
func VoiceFor(configured, language string) (string, bool) {
	if configured != "" {
		return configured, true
	}
	v, ok := DefaultVoices[language]
	return v, ok
}
