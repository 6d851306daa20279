package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"condobot/internal/domain"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const validConfig = `
telegram:
  token: "123:abc"
  run_mode: longpoll
database:
  host: localhost
  port: "5432"
  user: bot
  name: bot
  sslmode: disable
access:
  admins:
    - telegram_id: 111
      name: Chair
  staff:
    - telegram_id: 222
      name: Caretaker
wizard:
  session_ttl_minutes: 15
`

func TestLoadConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	require.NoError(t, err)

	assert.Equal(t, "123:abc", cfg.Core.Telegram.Token)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 15, cfg.Wizard.SessionTTLMinutes)
	require.NotNil(t, cfg.CoreConfig())

	staff := cfg.StaffList()
	require.Len(t, staff, 2)
	assert.Equal(t, domain.RoleAdmin, staff[0].Role)
	assert.EqualValues(t, 111, staff[0].TelegramID)
	assert.Equal(t, domain.RoleStaff, staff[1].Role)
	assert.EqualValues(t, 222, staff[1].TelegramID)
}

func TestLoadConfigRequiresAdmins(t *testing.T) {
	body := `
telegram:
  token: "123:abc"
access:
  staff:
    - telegram_id: 222
      name: Caretaker
`
	_, err := Load(writeConfig(t, body))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "admins")
}

func TestLoadConfigRejectsZeroTelegramID(t *testing.T) {
	body := `
telegram:
  token: "123:abc"
access:
  admins:
    - name: Nameless
`
	_, err := Load(writeConfig(t, body))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "telegram_id")
}

func TestLoadConfigRejectsNegativeTTL(t *testing.T) {
	body := `
telegram:
  token: "123:abc"
access:
  admins:
    - telegram_id: 111
wizard:
  session_ttl_minutes: -1
`
	_, err := Load(writeConfig(t, body))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session_ttl_minutes")
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
