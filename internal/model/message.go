package model

import "time"

// Message is a visitor-submitted contact record. Messages are created by
// anonymous callers and never updated afterwards.
type Message struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
