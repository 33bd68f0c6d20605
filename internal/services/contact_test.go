package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"menumakers/internal/database"
	"menumakers/internal/domain"
	"menumakers/internal/mail"
	apperrors "menumakers/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestSubmit_RoutesToTeamMember(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var sent []*mail.Message
	f.sender.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(capture(&sent)).Times(2)

	res, err := f.contactService().Submit(ctx, ContactSubmission{
		Name:       "Alice",
		Email:      "alice@x.com",
		Message:    "Hi",
		TeamMember: "jatinder",
		IPAddress:  "203.0.113.7",
		UserAgent:  "Mozilla/5.0",
	})
	require.NoError(t, err)
	require.NotZero(t, res.ReferenceID)
	ref := fmt.Sprintf("#%d", res.ReferenceID)
	assert.Contains(t, res.Message, ref)

	require.Len(t, sent, 2)
	staff, ack := sent[0], sent[1]
	assert.Equal(t, testJatinder, staff.To.Email)
	assert.Equal(t, "alice@x.com", staff.ReplyTo.Email)
	assert.Equal(t, "["+ref+"] New Contact: General Inquiry", staff.Subject)
	assert.Contains(t, staff.HTML, "Jatinder Kaur")
	assert.NotEmpty(t, staff.Text)

	assert.Equal(t, "alice@x.com", ack.To.Email)
	assert.Equal(t, testCompanyEmail, ack.ReplyTo.Email)
	assert.Contains(t, ack.Subject, "[Reference: "+ref+"]")
	assert.Contains(t, ack.HTML, ref)

	inq, err := f.store.GetInquiry(ctx, res.ReferenceID)
	require.NoError(t, err)
	assert.Equal(t, "jatinder", inq.TeamMember)
	assert.Equal(t, domain.InquiryTypeTeamSpecific, inq.InquiryType)
	assert.Equal(t, domain.StatusNew, inq.Status)
	assert.Equal(t, domain.DefaultSubject, inq.Subject)
	assert.Equal(t, "203.0.113.7", inq.IPAddress)
	assert.Equal(t, "Mozilla/5.0", inq.UserAgent)
	assert.Nil(t, inq.Phone)

	require.Len(t, inq.Interactions, 1)
	in := inq.Interactions[0]
	assert.Equal(t, domain.InteractionEmailSent, in.Type)
	assert.Equal(t, "Initial contact email sent to Jatinder Kaur", in.Description)
	assert.True(t, in.FollowUpRequired)
	require.NotNil(t, in.FollowUpDate)
	assert.WithinDuration(t, testNow.Add(followUpWindow), in.FollowUpDate.UTC(), time.Second)
}

func TestSubmit_MemberWithoutMailboxUsesCompanyInbox(t *testing.T) {
	f := newFixture(t)

	var sent []*mail.Message
	f.sender.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(capture(&sent)).Times(2)

	res, err := f.contactService().Submit(context.Background(), ContactSubmission{
		Name: "Bob", Email: "bob@example.com", Message: "Hello", TeamMember: "Mansi",
	})
	require.NoError(t, err)

	assert.Equal(t, testCompanyEmail, sent[0].To.Email)
	assert.Equal(t, "Mansi Keer", sent[0].To.Name)

	inq, err := f.store.GetInquiry(context.Background(), res.ReferenceID)
	require.NoError(t, err)
	assert.Equal(t, "mansi", inq.TeamMember)
	assert.Equal(t, "Initial contact email sent to Mansi Keer", inq.Interactions[0].Description)
}

func TestSubmit_UnknownTeamMemberFallsBackToCompany(t *testing.T) {
	f := newFixture(t)

	var sent []*mail.Message
	f.sender.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(capture(&sent)).Times(2)

	res, err := f.contactService().Submit(context.Background(), ContactSubmission{
		Name: "Carol", Email: "carol@example.com", Message: "Hello", TeamMember: "nobody",
		Phone: "+1 (555) 010-0003", Subject: "  Menus  ",
	})
	require.NoError(t, err)
	assert.Equal(t, testCompanyEmail, sent[0].To.Email)

	inq, err := f.store.GetInquiry(context.Background(), res.ReferenceID)
	require.NoError(t, err)
	assert.Equal(t, domain.TeamCompany, inq.TeamMember)
	assert.Equal(t, domain.InquiryTypeGeneral, inq.InquiryType)
	assert.Equal(t, "Menus", inq.Subject)
	require.NotNil(t, inq.Phone)
	assert.Equal(t, "+1 (555) 010-0003", *inq.Phone)
	assert.Equal(t, "Initial contact email sent to Menu Makers Company", inq.Interactions[0].Description)
}

func TestSubmit_ValidationHasNoSideEffects(t *testing.T) {
	cases := map[string]ContactSubmission{
		"missing name":    {Email: "a@example.com", Message: "hi"},
		"missing email":   {Name: "A", Message: "hi"},
		"missing message": {Name: "A", Email: "a@example.com", Message: "   "},
		"malformed email": {Name: "A", Email: "not-an-email", Message: "hi"},
		"no tld":          {Name: "A", Email: "a@example", Message: "hi"},
		"long name":       {Name: strings.Repeat("n", maxNameLength+1), Email: "a@example.com", Message: "hi"},
		"long message":    {Name: "A", Email: "a@example.com", Message: strings.Repeat("m", maxMessageLength+1)},
		"long subject":    {Name: "A", Email: "a@example.com", Message: "hi", Subject: strings.Repeat("s", maxSubjectLength+1)},
		"bad phone":       {Name: "A", Email: "a@example.com", Message: "hi", Phone: "call me"},
	}

	for name, sub := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)

			res, err := f.contactService().Submit(context.Background(), sub)
			assert.Nil(t, res)
			assert.True(t, apperrors.IsValidation(err), "got %v", err)
			assert.Zero(t, f.countInquiries(t))
			assert.Zero(t, f.countInteractions(t))
		})
	}
}

func TestSubmit_IdenticalSubmissionsGetDistinctIDs(t *testing.T) {
	f := newFixture(t)
	f.sender.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil).Times(4)

	svc := f.contactService()
	sub := ContactSubmission{Name: "Dup", Email: "dup@example.com", Message: "same"}

	first, err := svc.Submit(context.Background(), sub)
	require.NoError(t, err)
	second, err := svc.Submit(context.Background(), sub)
	require.NoError(t, err)

	assert.NotEqual(t, first.ReferenceID, second.ReferenceID)
	assert.EqualValues(t, 2, f.countInquiries(t))
}

func TestSubmit_StaffDeliveryFailureKeepsRow(t *testing.T) {
	f := newFixture(t)
	f.sender.EXPECT().Send(gomock.Any(), gomock.Any()).Return(errors.New("connection refused")).Times(1)

	res, err := f.contactService().Submit(context.Background(), ContactSubmission{
		Name: "Eve", Email: "eve@example.com", Message: "hi",
	})
	assert.Nil(t, res)
	assert.True(t, apperrors.IsDeliveryFailed(err))
	assert.ErrorIs(t, err, mail.ErrDelivery)

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, msgDeliveryFailure, appErr.Message)

	assert.EqualValues(t, 1, f.countInquiries(t))
	assert.Zero(t, f.countInteractions(t))
}

func TestSubmit_AcknowledgmentFailureKeepsRow(t *testing.T) {
	f := newFixture(t)
	gomock.InOrder(
		f.sender.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil),
		f.sender.EXPECT().Send(gomock.Any(), gomock.Any()).Return(errors.Join(mail.ErrDelivery, errors.New("550 mailbox unavailable"))),
	)

	_, err := f.contactService().Submit(context.Background(), ContactSubmission{
		Name: "Eve", Email: "eve@example.com", Message: "hi",
	})
	assert.True(t, apperrors.IsDeliveryFailed(err))
	assert.EqualValues(t, 1, f.countInquiries(t))
	assert.Zero(t, f.countInteractions(t))
}

func TestSubmit_StoreFailureSendsNothing(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, database.Close(f.db))

	_, err := f.contactService().Submit(context.Background(), ContactSubmission{
		Name: "Frank", Email: "frank@example.com", Message: "hi",
	})
	assert.Equal(t, apperrors.ErrCodeStore, apperrors.CodeOf(err))
}
