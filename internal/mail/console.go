package mail

import (
	"context"
	"log"
)

// ConsoleSender logs the envelope instead of delivering. Used in development.
type ConsoleSender struct{}

// NewConsoleSender creates a console transport.
func NewConsoleSender() *ConsoleSender {
	return &ConsoleSender{}
}

// Send implements Sender.
func (ConsoleSender) Send(_ context.Context, msg *Message) error {
	log.Printf("[EMAIL] Would send to %s (reply-to %q): %s", msg.To.Email, msg.ReplyTo.Email, msg.Subject)
	return nil
}
