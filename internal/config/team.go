package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

type teamFile struct {
	Members map[string]TeamMember `toml:"members"`
}

// LoadTeamFile reads a TOML team directory of the form
//
//	[members.jatinder]
//	name = "Jatinder Kaur"
//	email = "jatinder@example.com"
//
// Keys are lowercased. "company" is reserved for the company inbox.
func LoadTeamFile(path string) (map[string]TeamMember, error) {
	var tf teamFile
	if _, err := toml.DecodeFile(path, &tf); err != nil {
		return nil, fmt.Errorf("failed to read team file %s: %w", path, err)
	}
	if len(tf.Members) == 0 {
		return nil, fmt.Errorf("team file %s defines no members", path)
	}

	members := make(map[string]TeamMember, len(tf.Members))
	for key, m := range tf.Members {
		key = strings.ToLower(strings.TrimSpace(key))
		if key == "" || key == "company" {
			return nil, fmt.Errorf("team file %s: invalid member key %q", path, key)
		}
		if strings.TrimSpace(m.Name) == "" {
			return nil, fmt.Errorf("team file %s: member %q has no name", path, key)
		}
		members[key] = TeamMember{Name: strings.TrimSpace(m.Name), Email: strings.TrimSpace(m.Email)}
	}
	return members, nil
}
