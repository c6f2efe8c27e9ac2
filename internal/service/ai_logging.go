package service

import (
	"log"
	"strings"
	"unicode/utf8"
)

const maxAILogRunes = 512

// logAIExchange 输出 AI 请求与响应的摘要，便于排查提示词和模型行为。
func logAIExchange(kind, phase, content string) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		log.Printf("[AI %s] %s: <empty>", kind, phase)
		return
	}

	if utf8.RuneCountInString(trimmed) > maxAILogRunes {
		trimmed = string([]rune(trimmed)[:maxAILogRunes]) + "…"
	}
	log.Printf("[AI %s] %s: %s", kind, phase, trimmed)
}
