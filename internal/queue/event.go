// Package queue defines message payloads exchanged over the message broker
// and the publisher/consumer pair that moves them.
package queue

// EmailKind selects the template the mail worker renders for an event.
type EmailKind string

const (
    EmailActivation      EmailKind = "activation"       // account activation link
    EmailPasswordReset   EmailKind = "password_reset"   // password reset link
    EmailPasswordChanged EmailKind = "password_changed" // post-change notice
    EmailModerationAlert EmailKind = "moderation_alert" // guarded catalog event for a moderator
)

// EmailEvent is published to the email.send queue whenever the
// service wants mail delivered. Delivery itself is the mail worker's
// problem; the request path only publishes and moves on. Token
// carries the raw activation or reset secret for link-bearing kinds.
// The movie fields are set only for moderation alerts.
type EmailEvent struct {
    Kind       EmailKind `json:"kind"`
    Email      string    `json:"email"`
    Token      string    `json:"token,omitempty"`
    MovieID    uint64    `json:"movie_id,omitempty"`
    MovieTitle string    `json:"movie_title,omitempty"`
    Note       string    `json:"note,omitempty"`
    QueuedAt   string    `json:"queued_at"`
}
