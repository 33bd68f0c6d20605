package services

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"menumakers/internal/domain"
	"menumakers/internal/metrics"
	"menumakers/internal/store"
	apperrors "menumakers/pkg/errors"
)

const (
	maxNameLength    = 100
	maxSubjectLength = 200
	maxMessageLength = 5000
	followUpWindow   = 48 * time.Hour
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	phoneRegex = regexp.MustCompile(`^[\d\s+\-()]{7,20}$`)
)

// ContactSubmission is a contact form payload plus the caller details
// captured by the transport.
type ContactSubmission struct {
	Name       string
	Email      string
	Phone      string
	Subject    string
	Message    string
	TeamMember string
	IPAddress  string
	UserAgent  string
}

// ContactResult is returned to the submitter.
type ContactResult struct {
	ReferenceID uint
	Message     string
}

// ContactService takes contact form submissions through to notification.
type ContactService struct {
	store store.Store
	email *EmailService
	team  *TeamDirectory
	now   func() time.Time
}

// NewContactService creates a new contact service
func NewContactService(st store.Store, email *EmailService, team *TeamDirectory) *ContactService {
	return &ContactService{
		store: st,
		email: email,
		team:  team,
		now:   time.Now,
	}
}

// Submit validates and stores a submission, emails the routing target and
// the submitter, and logs the interaction. The stored row is kept when
// delivery fails.
func (s *ContactService) Submit(ctx context.Context, p ContactSubmission) (*ContactResult, error) {
	p = trimSubmission(p)
	log.Printf("[CONTACT] Submit request: name=%s, email=%s, team=%s", p.Name, p.Email, p.TeamMember)

	if err := validateSubmission(p); err != nil {
		log.Printf("[CONTACT] Submit rejected: %v", err)
		return nil, err
	}

	if p.Subject == "" {
		p.Subject = domain.DefaultSubject
	}
	recipient := s.team.Resolve(p.TeamMember)
	inquiry := &domain.ContactInquiry{
		Name:       p.Name,
		Email:      strings.ToLower(p.Email),
		Subject:    p.Subject,
		Message:    p.Message,
		TeamMember: recipient.Key,
		Status:     domain.StatusNew,
		IPAddress:  p.IPAddress,
		UserAgent:  p.UserAgent,
	}
	if p.Phone != "" {
		phone := p.Phone
		inquiry.Phone = &phone
	}

	if err := s.store.CreateInquiry(ctx, inquiry); err != nil {
		log.Printf("[CONTACT] Submit failed: database error: %v", err)
		return nil, storeFailure(err)
	}
	log.Printf("[CONTACT] Inquiry stored: id=%d, team=%s", inquiry.ID, inquiry.TeamMember)
	metrics.RecordContactSubmission()

	if err := s.email.SendStaffNotification(ctx, inquiry, recipient); err != nil {
		log.Printf("[CONTACT] Submit failed: inquiry id=%d kept, staff notification not sent: %v", inquiry.ID, err)
		return nil, deliveryError(err)
	}
	if err := s.email.SendAcknowledgment(ctx, inquiry, recipient); err != nil {
		log.Printf("[CONTACT] Submit failed: inquiry id=%d kept, acknowledgment not sent: %v", inquiry.ID, err)
		return nil, deliveryError(err)
	}

	followUp := s.now().UTC().Add(followUpWindow)
	interaction := &domain.Interaction{
		InquiryID:        inquiry.ID,
		Type:             domain.InteractionEmailSent,
		Description:      fmt.Sprintf("Initial contact email sent to %s", recipient.Name),
		FollowUpRequired: true,
		FollowUpDate:     &followUp,
	}
	if err := s.store.CreateInteraction(ctx, interaction); err != nil {
		// Both emails are out; failing here would invite a duplicate resubmission.
		log.Printf("[CONTACT] Warning: failed to log interaction for inquiry id=%d: %v", inquiry.ID, err)
	}

	log.Printf("[CONTACT] Submission #%d processed successfully", inquiry.ID)
	return &ContactResult{
		ReferenceID: inquiry.ID,
		Message: fmt.Sprintf(
			"Thank you for your message! We've assigned reference #%d to your inquiry and will get back to you soon.",
			inquiry.ID,
		),
	}, nil
}

func trimSubmission(p ContactSubmission) ContactSubmission {
	p.Name = strings.TrimSpace(p.Name)
	p.Email = strings.TrimSpace(p.Email)
	p.Phone = strings.TrimSpace(p.Phone)
	p.Subject = strings.TrimSpace(p.Subject)
	p.Message = strings.TrimSpace(p.Message)
	p.TeamMember = strings.TrimSpace(p.TeamMember)
	return p
}

// validateSubmission validates the contact form input
func validateSubmission(p ContactSubmission) *apperrors.AppError {
	if p.Name == "" || p.Email == "" || p.Message == "" {
		return apperrors.Validation("Name, email, and message are required fields.")
	}
	if !emailRegex.MatchString(p.Email) {
		return apperrors.Validation("Please provide a valid email address.")
	}
	if utf8.RuneCountInString(p.Name) > maxNameLength {
		return apperrors.Validation("Name must not exceed %d characters.", maxNameLength)
	}
	if utf8.RuneCountInString(p.Subject) > maxSubjectLength {
		return apperrors.Validation("Subject must not exceed %d characters.", maxSubjectLength)
	}
	if utf8.RuneCountInString(p.Message) > maxMessageLength {
		return apperrors.Validation("Message must not exceed %d characters.", maxMessageLength)
	}
	if p.Phone != "" && !phoneRegex.MatchString(p.Phone) {
		return apperrors.Validation("Please provide a valid phone number.")
	}
	return nil
}
