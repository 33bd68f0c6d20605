package domain

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// ErrInteractionImmutable is returned when an interaction row is updated.
var ErrInteractionImmutable = errors.New("interactions are append-only")

// Interaction types
const (
	InteractionEmailSent    = "email_sent"
	InteractionStatusUpdate = "status_update"
	InteractionAdminReply   = "admin_reply"
)

// Interaction is an append-only record of something that happened to an inquiry
type Interaction struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	InquiryID        uint       `gorm:"not null;index" json:"inquiry_id"`
	Type             string     `gorm:"column:interaction_type;not null" json:"interaction_type"`
	Description      string     `gorm:"type:text" json:"description"`
	CreatedAt        time.Time  `gorm:"column:interaction_date" json:"interaction_date"`
	FollowUpRequired bool       `gorm:"default:false" json:"follow_up_required"`
	FollowUpDate     *time.Time `json:"follow_up_date"`
}

// TableName specifies the table name for Interaction
func (Interaction) TableName() string {
	return "client_interactions"
}

// BeforeCreate hook
func (i *Interaction) BeforeCreate(tx *gorm.DB) error {
	if i.CreatedAt.IsZero() {
		i.CreatedAt = time.Now().UTC()
	}
	return nil
}

// BeforeUpdate hook
func (i *Interaction) BeforeUpdate(tx *gorm.DB) error {
	return ErrInteractionImmutable
}
