package chat

import "time"

// Sender identifies who authored a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Message is one entry of the append-only thread.
type Message struct {
	ID        string    `json:"id"`
	Sender    Sender    `json:"sender"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// IsBot reports whether the assistant (or the flow on its behalf) wrote the message.
func (m Message) IsBot() bool {
	return m.Sender == SenderBot
}
