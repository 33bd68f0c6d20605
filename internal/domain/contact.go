package domain

import (
	"time"

	"gorm.io/gorm"
)

// Inquiry statuses
const (
	StatusNew       = "new"
	StatusResponded = "responded"
)

// Inquiry types, derived from the requested team member
const (
	InquiryTypeGeneral      = "general"
	InquiryTypeTeamSpecific = "team_specific"
)

const (
	// TeamCompany routes an inquiry to the company inbox.
	TeamCompany = "company"
	// DefaultSubject is used when the submitter leaves the subject empty.
	DefaultSubject = "General Inquiry"
)

// ContactInquiry represents a contact form submission
type ContactInquiry struct {
	ID           uint          `gorm:"primaryKey" json:"id"`
	Name         string        `gorm:"not null" json:"name"`
	Email        string        `gorm:"not null;index" json:"email"`
	Phone        *string       `json:"phone"`
	Subject      string        `json:"subject"`
	Message      string        `gorm:"type:text;not null" json:"message"`
	TeamMember   string        `gorm:"index" json:"team_member"`
	InquiryType  string        `json:"inquiry_type"`
	Status       string        `gorm:"default:'new';index" json:"status"` // new, responded
	CreatedAt    time.Time     `gorm:"index;<-:create" json:"created_at"`
	RespondedAt  *time.Time    `json:"responded_at"`
	Notes        *string       `gorm:"type:text" json:"notes,omitempty"`
	IPAddress    string        `gorm:"<-:create" json:"ip_address"`
	UserAgent    string        `gorm:"<-:create" json:"user_agent"`
	Interactions []Interaction `gorm:"foreignKey:InquiryID;constraint:OnDelete:CASCADE" json:"interactions,omitempty"`
}

// TableName specifies the table name for ContactInquiry
func (ContactInquiry) TableName() string {
	return "client_inquiries"
}

// BeforeCreate hook
func (c *ContactInquiry) BeforeCreate(tx *gorm.DB) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	if c.Status == "" {
		c.Status = StatusNew
	}
	if c.Subject == "" {
		c.Subject = DefaultSubject
	}
	if c.TeamMember == "" {
		c.TeamMember = TeamCompany
	}
	c.InquiryType = InquiryTypeFor(c.TeamMember)
	return nil
}

// InquiryTypeFor derives the inquiry type from a team member key.
func InquiryTypeFor(teamMember string) string {
	if teamMember == "" || teamMember == TeamCompany {
		return InquiryTypeGeneral
	}
	return InquiryTypeTeamSpecific
}

// IsValidStatus reports whether s is a known inquiry status.
func IsValidStatus(s string) bool {
	return s == StatusNew || s == StatusResponded
}
