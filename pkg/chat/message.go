/*
Package chat holds the message types exchanged between the host agent
framework and the context provider.
*/
package chat

import "strings"

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

/*
Message is a single conversation turn. MessageID and AuthorName are optional
and carried through to stored memory records when present.
*/
type Message struct {
	Role       Role           `json:"role"`
	Text       string         `json:"text"`
	MessageID  string         `json:"messageId,omitempty"`
	AuthorName string         `json:"authorName,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

func NewTextMessage(role Role, text string) Message {
	return Message{Role: role, Text: text}
}

// HasText reports whether the message carries non-blank text.
func (msg Message) HasText() bool {
	return strings.TrimSpace(msg.Text) != ""
}

// IsConversational reports whether the message came from the user or the
// assistant. Only conversational messages contribute to search query text.
func (msg Message) IsConversational() bool {
	return msg.Role == RoleUser || msg.Role == RoleAssistant
}
