// Package mail delivers notification emails through a pluggable transport.
package mail

import (
	"context"
	"errors"
	"fmt"
	netmail "net/mail"

	"menumakers/internal/config"
)

//go:generate mockgen -source=mail.go -destination=mock_mail/mock_sender.go -package=mock_mail

// ErrDelivery wraps every transport failure.
var ErrDelivery = errors.New("email delivery failed")

// Sender delivers a single message.
type Sender interface {
	Send(ctx context.Context, msg *Message) error
}

// Address is a mailbox with an optional display name.
type Address struct {
	Name  string
	Email string
}

// String formats the address for a header, RFC 2047 encoding the name when needed.
func (a Address) String() string {
	return (&netmail.Address{Name: a.Name, Address: a.Email}).String()
}

// IsZero reports whether the address is unset.
func (a Address) IsZero() bool {
	return a.Email == ""
}

// Message is one outgoing email with HTML and plain text alternatives.
type Message struct {
	From    Address
	To      Address
	ReplyTo Address
	Subject string
	HTML    string
	Text    string
}

// NewMessage builds a message whose plain text part is derived from htmlBody.
func NewMessage(from, to Address, subject, htmlBody string) *Message {
	return &Message{
		From:    from,
		To:      to,
		Subject: subject,
		HTML:    htmlBody,
		Text:    PlainText(htmlBody),
	}
}

// New returns the transport selected by cfg. A disabled configuration
// always yields the console transport.
func New(cfg *config.EmailConfig) (Sender, error) {
	if !cfg.Enabled {
		return NewConsoleSender(), nil
	}

	switch cfg.Provider {
	case config.EmailProviderConsole:
		return NewConsoleSender(), nil
	case config.EmailProviderSendGrid:
		if cfg.SendGridAPIKey == "" {
			return nil, fmt.Errorf("SENDGRID_API_KEY must be set when EMAIL_PROVIDER=sendgrid")
		}
		return NewSendGridSender(cfg.SendGridAPIKey, cfg.SendGridBaseURL, nil), nil
	case config.EmailProviderSMTP:
		if cfg.SMTPHost == "" || cfg.Username == "" || cfg.Password == "" {
			return nil, fmt.Errorf("email service not properly configured: SMTP_HOST, EMAIL_USER and EMAIL_PASS are required")
		}
		return NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.Username, cfg.Password), nil
	default:
		return nil, fmt.Errorf("unsupported email provider: %s", cfg.Provider)
	}
}
