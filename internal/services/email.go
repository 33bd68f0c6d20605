package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"menumakers/internal/config"
	"menumakers/internal/domain"
	"menumakers/internal/mail"
	"menumakers/internal/metrics"
)

// Email kinds, used as the metrics label.
const (
	emailKindStaff          = "staff"
	emailKindAcknowledgment = "acknowledgment"
	emailKindReply          = "reply"
)

// EmailService renders and sends the notification emails
type EmailService struct {
	sender  mail.Sender
	from    mail.Address
	company mail.Address
}

// NewEmailService creates a new email service
func NewEmailService(sender mail.Sender, cfg *config.EmailConfig) *EmailService {
	return &EmailService{
		sender:  sender,
		from:    mail.Address{Name: cfg.FromName, Email: cfg.FromEmail},
		company: mail.Address{Name: cfg.CompanyName, Email: cfg.CompanyEmail},
	}
}

func (s *EmailService) inquiryData(inq *domain.ContactInquiry, to Recipient) inquiryEmailData {
	data := inquiryEmailData{
		ID:           inq.ID,
		Name:         inq.Name,
		Email:        inq.Email,
		Subject:      inq.Subject,
		AssignedTo:   to.Name,
		MessageLines: splitLines(inq.Message),
		Received:     inq.CreatedAt.UTC().Format(timestampLayout),
		CompanyEmail: s.company.Email,
	}
	if inq.Phone != nil {
		data.Phone = *inq.Phone
	}
	return data
}

// SendStaffNotification tells the routing target about a new inquiry. Replies go to the submitter.
func (s *EmailService) SendStaffNotification(ctx context.Context, inq *domain.ContactInquiry, to Recipient) error {
	body, err := render(staffNotificationTmpl, s.inquiryData(inq, to))
	if err != nil {
		return fmt.Errorf("render staff notification: %w", err)
	}

	msg := mail.NewMessage(s.from, to.Address, fmt.Sprintf("[#%d] New Contact: %s", inq.ID, inq.Subject), body)
	msg.ReplyTo = mail.Address{Name: inq.Name, Email: inq.Email}
	return s.send(ctx, emailKindStaff, msg)
}

// SendAcknowledgment confirms receipt to the submitter with the reference id.
func (s *EmailService) SendAcknowledgment(ctx context.Context, inq *domain.ContactInquiry, to Recipient) error {
	body, err := render(acknowledgmentTmpl, s.inquiryData(inq, to))
	if err != nil {
		return fmt.Errorf("render acknowledgment: %w", err)
	}

	msg := mail.NewMessage(
		s.from,
		mail.Address{Name: inq.Name, Email: inq.Email},
		fmt.Sprintf("Thank you for contacting Menu Makers! [Reference: #%d]", inq.ID),
		body,
	)
	msg.ReplyTo = s.company
	return s.send(ctx, emailKindAcknowledgment, msg)
}

// SendReply sends an operator-written message. referenceID is zero when the
// reply is not tied to an inquiry.
func (s *EmailService) SendReply(ctx context.Context, to, replyTo mail.Address, subject, message string, referenceID uint, sentAt time.Time) error {
	body, err := render(replyTmpl, replyEmailData{
		ReferenceID:  referenceID,
		MessageLines: splitLines(message),
		Sent:         sentAt.UTC().Format(timestampLayout),
		CompanyEmail: s.company.Email,
	})
	if err != nil {
		return fmt.Errorf("render reply: %w", err)
	}

	msg := mail.NewMessage(s.from, to, subject, body)
	msg.ReplyTo = replyTo
	if msg.ReplyTo.IsZero() {
		msg.ReplyTo = s.company
	}
	return s.send(ctx, emailKindReply, msg)
}

func (s *EmailService) send(ctx context.Context, kind string, msg *mail.Message) error {
	if err := s.sender.Send(ctx, msg); err != nil {
		metrics.RecordEmailSent(kind, false)
		log.Printf("[EMAIL] Failed to send %s email to %s: %v", kind, msg.To.Email, err)
		return err
	}
	metrics.RecordEmailSent(kind, true)
	log.Printf("[EMAIL] Sent %s email to %s: %s", kind, msg.To.Email, msg.Subject)
	return nil
}
