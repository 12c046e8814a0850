package gateway

import (
	"context"
	"log"
	"strings"
	"unicode/utf8"

	"github.com/rahul/liftoff/internal/agent"
)

// Messenger defines the interface for communication gateways (Telegram, Discord, etc.)
type Messenger interface {
	// Start listens for goals until ctx is done
	Start(ctx context.Context) error
	// Send sends a message to a specific chat
	Send(chatID string, text string) error
	// Stop gracefully shuts down the gateway
	Stop() error
}

const troubleReply = "I'm having trouble running the launch pipeline right now..."

// respond runs one chat message through the brain and returns the reply text.
func respond(ctx context.Context, brain agent.Brain, chatID, text string) string {
	response, err := brain.Think(ctx, chatID, text)
	if err != nil {
		log.Printf("[ FAIL ] chat %s: %v", chatID, err)
		return troubleReply
	}
	if strings.TrimSpace(response) == "" {
		return "Pipeline produced an empty report."
	}
	return response
}

// chunk splits text into pieces of at most limit bytes, preferring line breaks.
func chunk(text string, limit int) []string {
	if limit <= 0 || len(text) <= limit {
		return []string{text}
	}
	var parts []string
	for len(text) > limit {
		cut := strings.LastIndex(text[:limit], "\n")
		if cut <= 0 {
			cut = runeBoundary(text, limit)
		}
		parts = append(parts, text[:cut])
		text = strings.TrimPrefix(text[cut:], "\n")
	}
	if text != "" {
		parts = append(parts, text)
	}
	return parts
}

// runeBoundary backs limit off to the start of the rune it lands in. A limit
// inside the first rune keeps that whole rune.
func runeBoundary(text string, limit int) int {
	cut := limit
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	if cut == 0 {
		_, size := utf8.DecodeRuneInString(text)
		return size
	}
	return cut
}
