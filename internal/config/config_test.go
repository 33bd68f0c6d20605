package config

import (
	"net/netip"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SECRET_KEY", "0123456789abcdef0123456789abcdef")
	t.Setenv("JATINDER_EMAIL", "jatinder@example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.App.Port)
	assert.Equal(t, 5, cfg.RateLimit.ContactMax)
	assert.Equal(t, 15*time.Minute, cfg.RateLimit.ContactWindow)
	assert.Equal(t, "memory", cfg.Session.Backend)
	assert.Equal(t, 24*time.Hour, cfg.Auth.SessionTTL())
	assert.Equal(t, EmailProviderSMTP, cfg.Email.Provider)
	assert.Equal(t, "jatinder@example.com", cfg.Team.Members["jatinder"].Email)
	assert.Empty(t, cfg.Team.Members["mansi"].Email)
	assert.Equal(t, "./client_inquiries.db", cfg.Database.GetSQLitePath())
}

func TestLoad_RejectsUnknownProvider(t *testing.T) {
	t.Setenv("EMAIL_PROVIDER", "pigeon")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EMAIL_PROVIDER")
}

func TestLoad_RedisBackendRequiresAddress(t *testing.T) {
	t.Setenv("SESSION_BACKEND", "redis")
	t.Setenv("REDIS_ADDR", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REDIS_ADDR")
}

func TestLoad_RejectsNonPositiveRateLimit(t *testing.T) {
	t.Setenv("CONTACT_RATE_LIMIT_MAX", "0")

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_TeamFileOverridesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "team.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[members.Priya]
name = "Priya Shah"
email = "priya@example.com"
`), 0o600))
	t.Setenv("TEAM_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)

	require.Len(t, cfg.Team.Members, 1)
	assert.Equal(t, TeamMember{Name: "Priya Shah", Email: "priya@example.com"}, cfg.Team.Members["priya"])
}

func TestLoadTeamFile_RejectsReservedKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "team.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[members.company]
name = "Everyone"
`), 0o600))

	_, err := LoadTeamFile(path)
	require.Error(t, err)
}

func TestDatabaseConfig_IsPostgres(t *testing.T) {
	assert.True(t, (&DatabaseConfig{URL: "postgres://u:p@localhost/db"}).IsPostgres())
	assert.True(t, (&DatabaseConfig{URL: "postgresql://u:p@localhost/db"}).IsPostgres())
	assert.False(t, (&DatabaseConfig{URL: "sqlite:///./x.db"}).IsPostgres())
	assert.Equal(t, "./x.db", (&DatabaseConfig{URL: "sqlite:///./x.db"}).GetSQLitePath())
}

func TestLoad_TrustedProxies(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.App.TrustedProxies)

	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 127.0.0.1")
	cfg, err = Load()
	require.NoError(t, err)

	prefixes, err := cfg.App.TrustedProxyPrefixes()
	require.NoError(t, err)
	require.Len(t, prefixes, 2)
	assert.True(t, prefixes[0].Contains(netip.MustParseAddr("10.1.2.3")))
	assert.True(t, prefixes[1].Contains(netip.MustParseAddr("127.0.0.1")))
	assert.False(t, prefixes[1].Contains(netip.MustParseAddr("127.0.0.2")))

	t.Setenv("TRUSTED_PROXIES", "not-an-ip")
	_, err = Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TRUSTED_PROXIES")
}
