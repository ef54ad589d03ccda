// internal/pubsub/message.go
package pubsub

import (
	"strings"

	"github.com/google/uuid"
)

// Message is the trigger payload published on the sync channel. It only
// wakes the subscriber; the payload carries no business data.
type Message struct {
	ID      string `json:"id"`
	Payload string `json:"payload"`
}

func NewMessage(payload string) Message {
	return Message{
		ID:      strings.ReplaceAll(uuid.NewString(), "-", ""),
		Payload: payload,
	}
}
