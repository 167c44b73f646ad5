// Package audit captures security-relevant gateway events (registrations,
// logins, token refreshes, secret access). Emission is best-effort: an audit
// failure is logged but never fails the request that produced it.
package audit

import "time"

// Action identifies what happened. Values are part of the audit contract;
// downstream consumers filter on them.
type Action string

const (
	ActionUserRegistered Action = "user.registered"
	ActionUserLogin      Action = "user.login"
	ActionTokenRefreshed Action = "token.refreshed"
	ActionSecretStored   Action = "secret.stored"
	ActionSecretAccessed Action = "secret.accessed"
	ActionSecretDeleted  Action = "secret.deleted"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so sinks can fan out.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email,omitempty"`
	Action    Action    `json:"action"`
	Resource  string    `json:"resource,omitempty"`
	Outcome   string    `json:"outcome"`
	Reason    string    `json:"reason,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
}
