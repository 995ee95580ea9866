package model

import "time"

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleAssistant Role = "assistant"
	RoleUser      Role = "user"
)

// ConversationTurn is a single message in a prospect qualification session.
// Turns are ordered and append-only; the sequence is owned by its session.
type ConversationTurn struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// UserText concatenates the text of all user turns, lower-cased by callers
// that need case-insensitive matching. Assistant and system turns carry no
// qualification signal and are excluded.
func UserText(turns []ConversationTurn) string {
	var out string
	for _, t := range turns {
		if t.Role != RoleUser {
			continue
		}
		if out != "" {
			out += "\n"
		}
		out += t.Text
	}
	return out
}
