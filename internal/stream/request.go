// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"strings"

	"github.com/jeranaias/ata/internal/config"
)

// ChatCompletionsPath is appended to the configured base URL.
const ChatCompletionsPath = "/chat/completions"

// promptMarker is appended to every prompt as the literal characters `\n\n`
// for a more chat-like reply.
const promptMarker = `\n\n`

// ChatMessage is a single message in the request payload.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the chat-completion payload. Temperature is always sent
// because 0 is a meaningful value.
type ChatRequest struct {
	Model            string        `json:"model"`
	Messages         []ChatMessage `json:"messages"`
	MaxTokens        int64         `json:"max_tokens"`
	Temperature      float64       `json:"temperature"`
	TopP             *float64      `json:"top_p,omitempty"`
	PresencePenalty  *float64      `json:"presence_penalty,omitempty"`
	FrequencyPenalty *float64      `json:"frequency_penalty,omitempty"`
	Stream           bool          `json:"stream"`
}

// SanitizePrompt strips one trailing input terminator and escapes embedded
// double quotes.
func SanitizePrompt(prompt string) string {
	prompt = strings.TrimSuffix(prompt, "\n")
	prompt = strings.TrimSuffix(prompt, "\r")
	return strings.ReplaceAll(prompt, `"`, `\"`)
}

// NewChatRequest builds the streaming payload for one prompt.
func NewChatRequest(cfg *config.Config, prompt string) ChatRequest {
	return ChatRequest{
		Model: cfg.Model,
		Messages: []ChatMessage{
			{Role: "user", Content: SanitizePrompt(prompt) + promptMarker},
		},
		MaxTokens:        cfg.MaxTokens,
		Temperature:      cfg.Temperature,
		TopP:             cfg.TopP,
		PresencePenalty:  cfg.PresencePenalty,
		FrequencyPenalty: cfg.FrequencyPenalty,
		Stream:           true,
	}
}
