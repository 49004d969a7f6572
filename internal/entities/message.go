package entities

import "time"

// Author says who wrote a chat message.
type Author string

const (
	AuthorBot  Author = "bot"
	AuthorUser Author = "user"
)

// ChatMessage is one line of the assistant widget conversation.
type ChatMessage struct {
	Author Author    `json:"author"`
	Text   string    `json:"text"`
	SentAt time.Time `json:"sent_at"`
}

// IsBot reports whether the assistant wrote the message.
func (m ChatMessage) IsBot() bool {
	return m.Author == AuthorBot
}
