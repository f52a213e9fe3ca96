package credential

import (
	"fmt"
	"os"
	"strings"

	"github.com/99designs/keyring"
)

const serviceName = "maildigest"

// Well-known credential keys.
const (
	KeyMailPassword = "mail-password"
	KeyGenAIAPIKey  = "genai-api-key"
)

// openKeyring returns a configured keyring instance.
func openKeyring() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/maildigest/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("maildigest-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// Get retrieves a credential value by key. An environment variable of the
// form MAILDIGEST_MAIL_PASSWORD or MAILDIGEST_GENAI_API_KEY takes
// precedence over the system keyring, which keeps headless scheduled runs
// working without an unlocked keyring.
func Get(key string) (string, error) {
	if value := os.Getenv(envVarName(key)); value != "" {
		return value, nil
	}

	ring, err := openKeyring()
	if err != nil {
		return "", err
	}

	item, err := ring.Get(key)
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}

	return string(item.Data), nil
}

// Set stores a credential value by key in the system keyring.
func Set(key string, value string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Set(keyring.Item{
		Key:  key,
		Data: []byte(value),
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}

	return nil
}

// Delete removes a credential by key from the system keyring.
func Delete(key string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Remove(key)
	if err != nil {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}

	return nil
}

// envVarName maps a credential key to its environment variable override.
func envVarName(key string) string {
	upper := strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
	return "MAILDIGEST_" + upper
}
