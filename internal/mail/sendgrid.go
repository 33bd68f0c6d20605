package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const sendGridTimeout = 15 * time.Second

// SendGridSender delivers mail through the SendGrid v3 HTTP API.
type SendGridSender struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewSendGridSender creates a SendGrid transport. A nil client gets a default
// one with a request timeout.
func NewSendGridSender(apiKey, baseURL string, client *http.Client) *SendGridSender {
	if client == nil {
		client = &http.Client{Timeout: sendGridTimeout}
	}
	return &SendGridSender{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

type sendGridAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sendGridContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sendGridPersonalization struct {
	To []sendGridAddress `json:"to"`
}

type sendGridRequest struct {
	Personalizations []sendGridPersonalization `json:"personalizations"`
	From             sendGridAddress           `json:"from"`
	ReplyTo          *sendGridAddress          `json:"reply_to,omitempty"`
	Subject          string                    `json:"subject"`
	Content          []sendGridContent         `json:"content"`
}

func newSendGridRequest(msg *Message) sendGridRequest {
	req := sendGridRequest{
		Personalizations: []sendGridPersonalization{{
			To: []sendGridAddress{{Email: msg.To.Email, Name: msg.To.Name}},
		}},
		From:    sendGridAddress{Email: msg.From.Email, Name: msg.From.Name},
		Subject: msg.Subject,
	}
	if !msg.ReplyTo.IsZero() {
		req.ReplyTo = &sendGridAddress{Email: msg.ReplyTo.Email, Name: msg.ReplyTo.Name}
	}
	// text/plain must precede text/html
	if msg.Text != "" {
		req.Content = append(req.Content, sendGridContent{Type: "text/plain", Value: msg.Text})
	}
	if msg.HTML != "" {
		req.Content = append(req.Content, sendGridContent{Type: "text/html", Value: msg.HTML})
	}
	return req
}

// Send implements Sender.
func (s *SendGridSender) Send(ctx context.Context, msg *Message) error {
	payload, err := json.Marshal(newSendGridRequest(msg))
	if err != nil {
		return fmt.Errorf("%w: encode request: %v", ErrDelivery, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v3/mail/send", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: build request: %v", ErrDelivery, err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: sendgrid: %v", ErrDelivery, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%w: sendgrid returned %d: %s", ErrDelivery, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
