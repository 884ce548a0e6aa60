// Package inbox is the per-session message transport: senders write a
// message to the recipient's inbox directory atomically; the recipient's
// watcher (or polling fallback) picks it up, delivers it, and deletes it.
package inbox

import (
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/google/uuid"
)

// Message is one delivered-or-pending inbox entry.
type Message struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Recipient string    `json:"recipient"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	ReplyTo   string    `json:"replyTo,omitempty"`
}

// New builds a Message with a generated id, the current timestamp, and
// any ANSI escape sequences stripped from the body, so text is plain
// UTF-8 by the time it reaches a recipient.
func New(sender, recipient, text string, replyTo string) Message {
	return Message{
		ID:        uuid.NewString(),
		Sender:    sender,
		Recipient: recipient,
		Text:      ansi.Strip(text),
		Timestamp: time.Now(),
		ReplyTo:   replyTo,
	}
}
