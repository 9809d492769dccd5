package domain

import "time"

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// SourceType distinguishes internal corpus evidence from live web evidence.
type SourceType string

const (
	SourceInternal SourceType = "internal"
	SourceWeb      SourceType = "web"
)

// Source is a citation attached to a generated answer.
type Source struct {
	Type    SourceType `json:"type"`
	Title   string     `json:"title"`
	URL     string     `json:"url"`
	Snippet string     `json:"snippet,omitempty"`
}

// ConversationTurn is one stored chat message. Storage returns turns
// newest-first; callers must reverse to chronological order before
// handing them to the assembler or generator.
type ConversationTurn struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Sources   []Source  `json:"sources,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Chronological returns a copy of newest-first turns in chronological order.
func Chronological(newestFirst []ConversationTurn) []ConversationTurn {
	out := make([]ConversationTurn, len(newestFirst))
	for i, t := range newestFirst {
		out[len(newestFirst)-1-i] = t
	}
	return out
}
