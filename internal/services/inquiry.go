package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"menumakers/internal/domain"
	"menumakers/internal/mail"
	"menumakers/internal/metrics"
	"menumakers/internal/store"
	apperrors "menumakers/pkg/errors"
)

const (
	// MaxListLimit caps how many inquiries one list call returns.
	MaxListLimit = 50
	recentWindow = 7 * 24 * time.Hour
)

// ReplyRequest is an operator-written email, optionally tied to an inquiry.
type ReplyRequest struct {
	To        string
	Subject   string
	Message   string
	InquiryID *uint
	ReplyTo   string
}

// ReplyResult reports when the reply went out.
type ReplyResult struct {
	SentAt time.Time
}

// InquiryService implements the admin operations on inquiries
type InquiryService struct {
	store store.Store
	email *EmailService
	now   func() time.Time
}

// NewInquiryService creates a new inquiry service
func NewInquiryService(st store.Store, email *EmailService) *InquiryService {
	return &InquiryService{store: st, email: email, now: time.Now}
}

// List returns the most recent inquiries, newest first. Limits outside
// 1..MaxListLimit fall back to MaxListLimit.
func (s *InquiryService) List(ctx context.Context, limit int) ([]domain.ContactInquiry, error) {
	if limit <= 0 || limit > MaxListLimit {
		limit = MaxListLimit
	}
	inquiries, err := s.store.ListInquiries(ctx, limit)
	if err != nil {
		log.Printf("[ADMIN] List failed: database error: %v", err)
		return nil, storeFailure(err)
	}
	return inquiries, nil
}

// Get returns one inquiry with its interaction history.
func (s *InquiryService) Get(ctx context.Context, id uint) (*domain.ContactInquiry, error) {
	inquiry, err := s.store.GetInquiry(ctx, id)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("[ADMIN] Get inquiry #%d failed: %v", id, err)
		}
		return nil, storeError(fmt.Sprintf("Inquiry #%d not found", id), err)
	}
	return inquiry, nil
}

// Stats returns the dashboard aggregates as one consistent snapshot.
func (s *InquiryService) Stats(ctx context.Context) (*store.InquiryStats, error) {
	stats, err := s.store.InquiryStats(ctx, s.now().UTC().Add(-recentWindow))
	if err != nil {
		log.Printf("[ADMIN] Stats failed: database error: %v", err)
		return nil, storeFailure(err)
	}
	return stats, nil
}

// SetStatus moves an inquiry to status and appends a status_update interaction.
// Setting the current status again still appends an interaction.
func (s *InquiryService) SetStatus(ctx context.Context, id uint, status, actor string) error {
	status = strings.TrimSpace(status)
	if !domain.IsValidStatus(status) {
		return apperrors.Validation("Invalid status. Must be \"%s\" or \"%s\".", domain.StatusNew, domain.StatusResponded)
	}

	if err := s.store.UpdateInquiryStatus(ctx, id, status, s.now()); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("[ADMIN] Status update for inquiry #%d failed: %v", id, err)
		}
		return storeError(fmt.Sprintf("Inquiry #%d not found", id), err)
	}
	metrics.RecordStatusUpdate(status)

	interaction := &domain.Interaction{
		InquiryID:   id,
		Type:        domain.InteractionStatusUpdate,
		Description: fmt.Sprintf("Status updated to: %s by %s", status, actor),
	}
	if err := s.store.CreateInteraction(ctx, interaction); err != nil {
		log.Printf("[ADMIN] Failed to log status change for inquiry #%d: %v", id, err)
		return storeError(fmt.Sprintf("Inquiry #%d not found", id), err)
	}

	log.Printf("[ADMIN] Inquiry #%d marked as %s by %s", id, status, actor)
	return nil
}

// Reply emails an operator-written message. When tied to an inquiry the
// subject is prefixed with its reference, an admin_reply interaction is
// appended and the inquiry becomes responded.
func (s *InquiryService) Reply(ctx context.Context, r ReplyRequest) (*ReplyResult, error) {
	to := strings.TrimSpace(r.To)
	subject := strings.TrimSpace(r.Subject)
	message := strings.TrimSpace(r.Message)
	replyTo := strings.TrimSpace(r.ReplyTo)

	if to == "" || subject == "" || message == "" {
		return nil, apperrors.Validation("To, subject, and message are required fields.")
	}
	if !emailRegex.MatchString(to) {
		return nil, apperrors.Validation("Please provide a valid recipient email address.")
	}
	if replyTo != "" && !emailRegex.MatchString(replyTo) {
		return nil, apperrors.Validation("Please provide a valid reply-to email address.")
	}
	if utf8.RuneCountInString(subject) > maxSubjectLength {
		return nil, apperrors.Validation("Subject must not exceed %d characters.", maxSubjectLength)
	}

	var referenceID uint
	if r.InquiryID != nil {
		referenceID = *r.InquiryID
		if _, err := s.store.GetInquiry(ctx, referenceID); err != nil {
			return nil, storeError(fmt.Sprintf("Inquiry #%d not found", referenceID), err)
		}
	}

	sentAt := s.now().UTC()
	fullSubject := subject
	if referenceID != 0 {
		fullSubject = fmt.Sprintf("Re: [#%d] %s", referenceID, subject)
	}

	err := s.email.SendReply(ctx, mail.Address{Email: to}, mail.Address{Email: replyTo}, fullSubject, message, referenceID, sentAt)
	if err != nil {
		return nil, deliveryError(err)
	}
	log.Printf("[ADMIN] Email sent from admin panel to: %s", to)

	if referenceID != 0 {
		interaction := &domain.Interaction{
			InquiryID:   referenceID,
			Type:        domain.InteractionAdminReply,
			Description: fmt.Sprintf("Email sent from admin panel to %s. Subject: %s", to, subject),
		}
		if err := s.store.CreateInteraction(ctx, interaction); err != nil {
			log.Printf("[ADMIN] Email sent but failed to log reply for inquiry #%d: %v", referenceID, err)
			return nil, storeError(fmt.Sprintf("Inquiry #%d not found", referenceID), err)
		}
		if err := s.store.UpdateInquiryStatus(ctx, referenceID, domain.StatusResponded, sentAt); err != nil {
			log.Printf("[ADMIN] Email sent but failed to mark inquiry #%d responded: %v", referenceID, err)
			return nil, storeError(fmt.Sprintf("Inquiry #%d not found", referenceID), err)
		}
		metrics.RecordStatusUpdate(domain.StatusResponded)
	}

	return &ReplyResult{SentAt: sentAt}, nil
}

// Clear removes every inquiry and interaction. Development use only.
func (s *InquiryService) Clear(ctx context.Context) (int64, error) {
	deleted, err := s.store.ClearInquiries(ctx)
	if err != nil {
		log.Printf("[ADMIN] Clear failed: %v", err)
		return 0, storeFailure(err)
	}
	log.Printf("[ADMIN] Cleared %d inquiries", deleted)
	return deleted, nil
}

// SeedSamples inserts a fixed set of sample inquiries, alternating between
// new and responded. Development use only.
func (s *InquiryService) SeedSamples(ctx context.Context) ([]uint, error) {
	now := s.now().UTC()
	ids := make([]uint, 0, len(sampleInquiries))

	for i, sample := range sampleInquiries {
		phone := sample.phone
		inquiry := &domain.ContactInquiry{
			Name:       sample.name,
			Email:      sample.email,
			Phone:      &phone,
			Subject:    sample.subject,
			Message:    sample.message,
			TeamMember: sample.team,
			Status:     domain.StatusNew,
			IPAddress:  "127.0.0.1",
			UserAgent:  "sample-data",
		}
		if i%2 == 1 {
			respondedAt := now
			inquiry.Status = domain.StatusResponded
			inquiry.RespondedAt = &respondedAt
		}
		if err := s.store.CreateInquiry(ctx, inquiry); err != nil {
			log.Printf("[ADMIN] Seeding sample inquiries failed after %d rows: %v", len(ids), err)
			return ids, storeFailure(err)
		}
		ids = append(ids, inquiry.ID)
	}

	log.Printf("[ADMIN] Created %d sample inquiries", len(ids))
	return ids, nil
}

type sampleInquiry struct {
	name, email, phone, subject, message, team string
}

var sampleInquiries = []sampleInquiry{
	{"Alice Johnson", "alice@example.com", "555-0001", "Website Development Inquiry",
		"Hi, I'm interested in getting a new website for my restaurant. Can you help me with modern design and online ordering system?", "jatinder"},
	{"Bob Smith", "bob@example.com", "555-0002", "Mobile App Development",
		"Looking for a mobile app for my food delivery business. Need iOS and Android versions.", "mansi"},
	{"Carol Davis", "carol@example.com", "555-0003", "E-commerce Platform",
		"Need help setting up an online store for my bakery. Want to sell cakes and pastries online.", "madhusudan"},
	{"David Wilson", "david@example.com", "555-0004", "Digital Marketing Help",
		"Need assistance with social media marketing and SEO for my restaurant.", "ramesh"},
	{"Eva Brown", "eva@example.com", "555-0005", domain.DefaultSubject,
		"What services do you offer for food businesses? I have a food truck and want to expand online.", domain.TeamCompany},
}
