// Package queue defines message payloads exchanged over the message broker.
package queue

// UserRegisteredEvent is published when an account is successfully created.
// It carries enough information for downstream consumers to log, send a
// welcome notification, or feed analytics without querying the primary
// database.
type UserRegisteredEvent struct {
	UserID       uint64 `json:"user_id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	FullName     string `json:"full_name"`
	Role         string `json:"role"`
	RegisteredAt string `json:"registered_at"`
}
