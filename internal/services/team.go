package services

import (
	"strings"

	"menumakers/internal/config"
	"menumakers/internal/domain"
	"menumakers/internal/mail"
)

// Recipient is the resolved routing target of an inquiry.
type Recipient struct {
	// Key is the normalized team member key, "company" for the shared inbox.
	Key string
	// Name is displayed as "Assigned to" in both emails.
	Name    string
	Address mail.Address
}

// TeamDirectory maps team member keys to mailboxes. Members without a
// configured address are routed to the company inbox under their own name.
type TeamDirectory struct {
	members map[string]config.TeamMember
	company mail.Address
}

// NewTeamDirectory creates a directory over members with the company inbox as fallback.
func NewTeamDirectory(members map[string]config.TeamMember, companyName, companyEmail string) *TeamDirectory {
	return &TeamDirectory{
		members: members,
		company: mail.Address{Name: companyName, Email: companyEmail},
	}
}

// Normalize lowercases key and maps empty or unknown keys to "company".
func (d *TeamDirectory) Normalize(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	if _, ok := d.members[key]; ok {
		return key
	}
	return domain.TeamCompany
}

// Resolve returns the routing target for key.
func (d *TeamDirectory) Resolve(key string) Recipient {
	key = d.Normalize(key)
	member, ok := d.members[key]
	if !ok {
		return Recipient{Key: domain.TeamCompany, Name: d.company.Name, Address: d.company}
	}

	addr := mail.Address{Name: member.Name, Email: member.Email}
	if addr.Email == "" {
		addr.Email = d.company.Email
	}
	return Recipient{Key: key, Name: member.Name, Address: addr}
}

// Company returns the shared inbox address.
func (d *TeamDirectory) Company() mail.Address {
	return d.company
}
