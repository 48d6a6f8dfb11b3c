package secrets

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"

	"jobharvest/internal/config"
)

const (
	// Service groups the app's secrets in the OS keychain.
	KeyringService = "jobharvest"
)

var ErrNotFound = errors.New("sheets credentials not found (store them in the keychain or set sinks.sheets.credentials_file)")

// SheetsKeyringAccount names the keychain entry holding the service-account
// key for the configured spreadsheet.
func SheetsKeyringAccount(cfg config.Config) string {
	return fmt.Sprintf("jobharvest:sheets:%s", cfg.Sinks.Sheets.SpreadsheetID)
}

// SheetsCredentials returns the service-account JSON for cfg. The keychain
// wins; the credentials file is the fallback.
func SheetsCredentials(cfg config.Config) ([]byte, error) {
	if creds, err := GetSheetsCredentials(SheetsKeyringAccount(cfg)); err == nil {
		return creds, nil
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	path := strings.TrimSpace(cfg.Sinks.Sheets.CredentialsFile)
	if path == "" {
		return nil, ErrNotFound
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read sheets credentials: %w", err)
	}
	return b, nil
}

func GetSheetsCredentials(account string) ([]byte, error) {
	if strings.TrimSpace(account) == "" {
		return nil, ErrNotFound
	}
	v, err := keyring.Get(KeyringService, account)
	if errors.Is(err, keyring.ErrNotFound) || (err == nil && strings.TrimSpace(v) == "") {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("keyring get: %w", err)
	}
	return []byte(v), nil
}

func SetSheetsCredentials(account string, creds []byte) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("keyring account name is empty")
	}
	if len(strings.TrimSpace(string(creds))) == 0 {
		return errors.New("credentials are empty")
	}
	if !json.Valid(creds) {
		return errors.New("credentials are not valid JSON")
	}
	return keyring.Set(KeyringService, account, string(creds))
}

func DeleteSheetsCredentials(account string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("keyring account name is empty")
	}
	err := keyring.Delete(KeyringService, account)
	if errors.Is(err, keyring.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
