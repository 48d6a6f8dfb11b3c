package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"jobharvest/internal/config"
)

const key = `{"type":"service_account","client_email":"bot@example.iam.gserviceaccount.com"}`

func sheetsConfig(id, file string) config.Config {
	var cfg config.Config
	cfg.Sinks.Sheets.SpreadsheetID = id
	cfg.Sinks.Sheets.CredentialsFile = file
	return cfg
}

func TestSheetsCredentialsKeyringRoundTrip(t *testing.T) {
	keyring.MockInit()
	cfg := sheetsConfig("sheet-1", "")
	acct := SheetsKeyringAccount(cfg)
	assert.Equal(t, "jobharvest:sheets:sheet-1", acct)

	_, err := SheetsCredentials(cfg)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, SetSheetsCredentials(acct, []byte(key)))
	got, err := SheetsCredentials(cfg)
	require.NoError(t, err)
	assert.JSONEq(t, key, string(got))

	require.NoError(t, DeleteSheetsCredentials(acct))
	_, err = GetSheetsCredentials(acct)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, DeleteSheetsCredentials(acct), ErrNotFound)
}

func TestSheetsCredentialsFileFallback(t *testing.T) {
	keyring.MockInit()
	path := filepath.Join(t.TempDir(), "sa.json")
	require.NoError(t, os.WriteFile(path, []byte(key), 0o600))

	got, err := SheetsCredentials(sheetsConfig("sheet-2", path))
	require.NoError(t, err)
	assert.Equal(t, key, string(got))

	_, err = SheetsCredentials(sheetsConfig("sheet-2", filepath.Join(t.TempDir(), "missing.json")))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetSheetsCredentialsRejectsBadInput(t *testing.T) {
	keyring.MockInit()
	assert.Error(t, SetSheetsCredentials("", []byte(key)))
	assert.Error(t, SetSheetsCredentials("a", nil))
	assert.Error(t, SetSheetsCredentials("a", []byte("not json")))
}
