package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"menumakers/internal/database"
	"menumakers/internal/domain"

	"gorm.io/gorm"
)

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = errors.New("record not found")

// TeamCount is one row of the per-member distribution.
type TeamCount struct {
	TeamMember string `json:"team_member"`
	Count      int64  `json:"count"`
}

// InquiryStats is a consistent snapshot of the inquiry table.
type InquiryStats struct {
	TotalInquiries   int64       `json:"totalInquiries"`
	PendingInquiries int64       `json:"pendingInquiries"`
	TeamDistribution []TeamCount `json:"teamDistribution"`
	RecentInquiries  int64       `json:"recentInquiries"`
}

// Store is the persistence boundary used by the services.
type Store interface {
	CreateInquiry(ctx context.Context, inq *domain.ContactInquiry) error
	GetInquiry(ctx context.Context, id uint) (*domain.ContactInquiry, error)
	ListInquiries(ctx context.Context, limit int) ([]domain.ContactInquiry, error)
	UpdateInquiryStatus(ctx context.Context, id uint, status string, at time.Time) error
	CreateInteraction(ctx context.Context, in *domain.Interaction) error
	InquiryStats(ctx context.Context, since time.Time) (*InquiryStats, error)
	ClearInquiries(ctx context.Context) (int64, error)

	FindActiveAdmin(ctx context.Context, username string) (*domain.AdminUser, error)
	TouchAdminLogin(ctx context.Context, id uint, at time.Time) error
	EnsureDefaultAdmin(ctx context.Context, username, passwordHash string) (bool, error)
	UpsertAdmin(ctx context.Context, username, passwordHash string) (*domain.AdminUser, error)

	Ping(ctx context.Context) error
}

// GormStore implements Store on top of gorm.
type GormStore struct {
	db *gorm.DB
}

var _ Store = (*GormStore)(nil)

// NewGormStore creates a store over an open, migrated connection.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// CreateInquiry inserts inq and populates its ID.
func (s *GormStore) CreateInquiry(ctx context.Context, inq *domain.ContactInquiry) error {
	if err := s.db.WithContext(ctx).Create(inq).Error; err != nil {
		return fmt.Errorf("create inquiry: %w", err)
	}
	return nil
}

// GetInquiry returns an inquiry with its interactions, oldest first.
func (s *GormStore) GetInquiry(ctx context.Context, id uint) (*domain.ContactInquiry, error) {
	var inq domain.ContactInquiry
	err := s.db.WithContext(ctx).
		Preload("Interactions", func(db *gorm.DB) *gorm.DB {
			return db.Order("interaction_date ASC, id ASC")
		}).
		First(&inq, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get inquiry %d: %w", id, err)
	}
	return &inq, nil
}

// ListInquiries returns up to limit inquiries, newest first.
func (s *GormStore) ListInquiries(ctx context.Context, limit int) ([]domain.ContactInquiry, error) {
	inquiries := make([]domain.ContactInquiry, 0, limit)
	err := s.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&inquiries).Error
	if err != nil {
		return nil, fmt.Errorf("list inquiries: %w", err)
	}
	return inquiries, nil
}

// UpdateInquiryStatus sets status in a single statement. responded_at is set
// to at for responded and cleared otherwise.
func (s *GormStore) UpdateInquiryStatus(ctx context.Context, id uint, status string, at time.Time) error {
	var respondedAt *time.Time
	if status == domain.StatusResponded {
		t := at.UTC()
		respondedAt = &t
	}

	result := s.db.WithContext(ctx).
		Model(&domain.ContactInquiry{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       status,
			"responded_at": respondedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("update inquiry %d status: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateInteraction appends an interaction row.
func (s *GormStore) CreateInteraction(ctx context.Context, in *domain.Interaction) error {
	if err := s.db.WithContext(ctx).Create(in).Error; err != nil {
		return fmt.Errorf("create interaction for inquiry %d: %w", in.InquiryID, err)
	}
	return nil
}

// InquiryStats computes the dashboard aggregates inside one transaction.
func (s *GormStore) InquiryStats(ctx context.Context, since time.Time) (*InquiryStats, error) {
	stats := &InquiryStats{TeamDistribution: []TeamCount{}}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := func() *gorm.DB { return tx.Model(&domain.ContactInquiry{}) }

		if err := model().Count(&stats.TotalInquiries).Error; err != nil {
			return err
		}
		if err := model().Where("status = ?", domain.StatusNew).Count(&stats.PendingInquiries).Error; err != nil {
			return err
		}
		if err := model().
			Select("team_member, COUNT(*) AS count").
			Group("team_member").
			Order("count DESC, team_member ASC").
			Scan(&stats.TeamDistribution).Error; err != nil {
			return err
		}
		return model().Where("created_at > ?", since.UTC()).Count(&stats.RecentInquiries).Error
	})
	if err != nil {
		return nil, fmt.Errorf("inquiry stats: %w", err)
	}
	return stats, nil
}

// ClearInquiries removes every interaction and inquiry and returns the
// number of inquiries deleted.
func (s *GormStore) ClearInquiries(ctx context.Context) (int64, error) {
	var deleted int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&domain.Interaction{}).Error; err != nil {
			return err
		}
		result := tx.Where("1 = 1").Delete(&domain.ContactInquiry{})
		deleted = result.RowsAffected
		return result.Error
	})
	if err != nil {
		return 0, fmt.Errorf("clear inquiries: %w", err)
	}
	return deleted, nil
}

// FindActiveAdmin looks up an enabled admin account by username.
func (s *GormStore) FindActiveAdmin(ctx context.Context, username string) (*domain.AdminUser, error) {
	var user domain.AdminUser
	err := s.db.WithContext(ctx).
		Where("username = ? AND is_active = ?", username, true).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find admin %q: %w", username, err)
	}
	return &user, nil
}

// TouchAdminLogin records a successful login.
func (s *GormStore) TouchAdminLogin(ctx context.Context, id uint, at time.Time) error {
	err := s.db.WithContext(ctx).
		Model(&domain.AdminUser{}).
		Where("id = ?", id).
		Update("last_login", at.UTC()).Error
	if err != nil {
		return fmt.Errorf("update last login for admin %d: %w", id, err)
	}
	return nil
}

// EnsureDefaultAdmin creates the account when no account with that username
// exists. It reports whether a row was created.
func (s *GormStore) EnsureDefaultAdmin(ctx context.Context, username, passwordHash string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&domain.AdminUser{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return false, fmt.Errorf("count admins: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	user := &domain.AdminUser{Username: username, PasswordHash: passwordHash, IsActive: true}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return false, fmt.Errorf("create admin %q: %w", username, err)
	}
	return true, nil
}

// UpsertAdmin creates the account or resets its password and re-enables it.
func (s *GormStore) UpsertAdmin(ctx context.Context, username, passwordHash string) (*domain.AdminUser, error) {
	var user domain.AdminUser
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = domain.AdminUser{Username: username, PasswordHash: passwordHash, IsActive: true}
		if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
			return nil, fmt.Errorf("create admin %q: %w", username, err)
		}
		return &user, nil
	case err != nil:
		return nil, fmt.Errorf("find admin %q: %w", username, err)
	}

	err = s.db.WithContext(ctx).Model(&user).Updates(map[string]interface{}{
		"password_hash": passwordHash,
		"is_active":     true,
	}).Error
	if err != nil {
		return nil, fmt.Errorf("update admin %q: %w", username, err)
	}
	user.PasswordHash = passwordHash
	user.IsActive = true
	return &user, nil
}

// Ping checks the database connection.
func (s *GormStore) Ping(ctx context.Context) error {
	return database.Ping(ctx, s.db)
}
