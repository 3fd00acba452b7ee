package utils

import (
	"strings"
	"unicode"
)

// SanitizeForSpeech 去除TTS引擎不支持的字符（控制字符与emoji）。
func SanitizeForSpeech(text string) string {
	var builder strings.Builder
	builder.Grow(len(text))

	for _, r := range text {
		if unicode.IsControl(r) {
			continue
		}
		if r >= 0x1F000 && r <= 0x1FAFF {
			continue
		}
		builder.WriteRune(r)
	}

	return builder.String()
}
