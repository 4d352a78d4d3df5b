package domain

import (
	"time"
)

type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
	IsRead    bool      `json:"is_read"`
}

type Notifications []Notification

const (
	EventTaskCreated = "task:created"
	EventTaskUpdated = "task:updated"
	EventTaskDeleted = "task:deleted"
)

// Event is a broadcast about a change to a task.
type Event struct {
	Name    string    `json:"event"`
	UserId  string    `json:"userId"`
	Payload any       `json:"payload"`
	At      time.Time `json:"at"`
}

// Mail is an outbound message waiting for delivery.
type Mail struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Html    string `json:"html"`
}
