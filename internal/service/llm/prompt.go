package llm

import (
	"fmt"
	"strings"

	"github.com/nqu-vtuber/backend/internal/config"
)

// languageNames 用于在系统提示中说明回复语言。
var languageNames = map[string]string{
	"zh": "中文",
	"en": "English",
	"ja": "日本語",
	"ko": "한국어",
}

// BuildSystemPrompt 根据人设构建系统提示。未配置人设时使用默认的 Nana 人设。
func BuildSystemPrompt(character config.CharacterConfig) string {
	name := character.Name
	if name == "" {
		name = "Nana"
	}

	persona := strings.TrimSpace(character.Persona)
	if persona == "" {
		persona = fmt.Sprintf(
			"You are %s, a helpful and friendly AI assistant. "+
				"You are cheerful, supportive, and always ready to help. "+
				"Keep your responses concise and natural, as if speaking in a conversation. "+
				"You can help with information, answer questions, or just chat.",
			name,
		)
	}

	if lang, ok := languageNames[character.Language]; ok {
		persona += fmt.Sprintf(" Always reply in %s.", lang)
	}

	return persona
}

// emotionPrompts 情绪触发互动使用的合成提示。
var emotionPrompts = map[string]string{
	"happy":    "The user looks happy. Respond in a cheerful way, matching their positive mood.",
	"sad":      "The user looks sad. Respond with empathy and ask if they're okay in a caring way.",
	"angry":    "The user looks upset. Respond calmly and ask if something is bothering them.",
	"surprise": "The user looks surprised. Respond with curiosity about what surprised them.",
	"fear":     "The user looks worried or scared. Respond with reassurance and offer support.",
	"disgust":  "The user looks disgusted. Respond with concern and ask what's wrong.",
	"neutral":  "The user has a neutral expression. Respond normally and perhaps ask how they're doing.",
}

// EmotionPrompt returns the system-generated prompt for a spontaneous
// interaction triggered by the detected emotion.
func EmotionPrompt(emotion string) string {
	if prompt, ok := emotionPrompts[emotion]; ok {
		return prompt
	}
	return fmt.Sprintf("Respond to the user naturally, considering they appear %s.", emotion)
}
