package services

import (
	"context"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"menumakers/internal/config"
	"menumakers/internal/database"
	"menumakers/internal/domain"
	"menumakers/internal/mail"
	"menumakers/internal/mail/mock_mail"
	"menumakers/internal/store"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"gorm.io/gorm"
)

const (
	testCompanyEmail = "hello@menumakers.test"
	testJatinder     = "jatinder@menumakers.test"
)

var testNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

type fixture struct {
	db     *gorm.DB
	store  *store.GormStore
	sender *mock_mail.MockSender
	email  *EmailService
	team   *TeamDirectory
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := &config.DatabaseConfig{URL: "sqlite:///" + filepath.Join(t.TempDir(), "inquiries.db")}
	db, err := database.Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	ctrl := gomock.NewController(t)
	sender := mock_mail.NewMockSender(ctrl)
	emailCfg := &config.EmailConfig{
		FromEmail:    "noreply@menumakers.test",
		FromName:     "Menu Makers",
		CompanyEmail: testCompanyEmail,
		CompanyName:  "Menu Makers Company",
	}

	return &fixture{
		db:     db,
		store:  store.NewGormStore(db),
		sender: sender,
		email:  NewEmailService(sender, emailCfg),
		team: NewTeamDirectory(map[string]config.TeamMember{
			"jatinder": {Name: "Jatinder Kaur", Email: testJatinder},
			"mansi":    {Name: "Mansi Keer"},
		}, emailCfg.CompanyName, emailCfg.CompanyEmail),
	}
}

func (f *fixture) contactService() *ContactService {
	svc := NewContactService(f.store, f.email, f.team)
	svc.now = func() time.Time { return testNow }
	return svc
}

func (f *fixture) inquiryService() *InquiryService {
	return NewInquiryService(f.store, f.email)
}

func (f *fixture) countInteractions(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&domain.Interaction{}).Count(&n).Error)
	return n
}

func (f *fixture) countInquiries(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&domain.ContactInquiry{}).Count(&n).Error)
	return n
}

// capture records every message handed to the sender.
func capture(msgs *[]*mail.Message) func(context.Context, *mail.Message) error {
	return func(_ context.Context, msg *mail.Message) error {
		*msgs = append(*msgs, msg)
		return nil
	}
}

func seedInquiry(t *testing.T, f *fixture, name string) *domain.ContactInquiry {
	t.Helper()
	inq := &domain.ContactInquiry{
		Name:      name,
		Email:     name + "@example.com",
		Subject:   "Quote",
		Message:   "Need a menu",
		IPAddress: "10.0.0.1",
		UserAgent: "test",
	}
	require.NoError(t, f.store.CreateInquiry(context.Background(), inq))
	return inq
}

func uintString(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}
