package models

import "time"

// Sender identifies who wrote a chat turn.
type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

// ChatTurn is one message in an assistant transcript.
type ChatTurn struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Sender    Sender    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
	Links     []string  `json:"links,omitempty"`
}
