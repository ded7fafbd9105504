// Package credentials stores and retrieves the Feishu bot secret using the
// OS-native keyring with fallback to an environment variable.
package credentials

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	zkeyring "github.com/zalando/go-keyring"
	"golang.org/x/term"
)

const (
	// Service is the keyring service name credentials are filed under.
	Service = "tuido"

	// EnvBotSecret overrides the keyring when set.
	EnvBotSecret = "TUIDO_FEISHU_BOT_SECRET"
)

// Source indicates where a credential was retrieved from.
type Source string

const (
	SourceKeyring     Source = "keyring"
	SourceEnvironment Source = "environment"
	SourceNone        Source = "none"
)

// Keyring abstracts the OS keyring so tests can substitute a mock.
type Keyring interface {
	Set(service, account, password string) error
	Get(service, account string) (string, error)
	Delete(service, account string) error
}

// systemKeyring backs the Keyring interface with the OS keyring.
type systemKeyring struct{}

func (systemKeyring) Set(service, account, password string) error {
	return zkeyring.Set(service, account, password)
}

func (systemKeyring) Get(service, account string) (string, error) {
	return zkeyring.Get(service, account)
}

func (systemKeyring) Delete(service, account string) error {
	return zkeyring.Delete(service, account)
}

// SystemKeyring returns the OS keyring implementation.
func SystemKeyring() Keyring {
	return systemKeyring{}
}

// Manager resolves the bot secret for an app id.
type Manager struct {
	keyring Keyring
}

// NewManager creates a credential manager. A nil keyring selects the OS
// keyring.
func NewManager(kr Keyring) *Manager {
	if kr == nil {
		kr = SystemKeyring()
	}
	return &Manager{keyring: kr}
}

// BotSecret returns the secret for the given bot app id, preferring the
// environment variable over the keyring. Source reports where it came from.
func (m *Manager) BotSecret(appID string) (secret string, source Source, err error) {
	if env := os.Getenv(EnvBotSecret); env != "" {
		return env, SourceEnvironment, nil
	}

	secret, err = m.keyring.Get(Service, appID)
	if err != nil {
		return "", SourceNone, fmt.Errorf("bot secret not found for %q: %w", appID, err)
	}
	return secret, SourceKeyring, nil
}

// StoreBotSecret saves the secret in the keyring.
func (m *Manager) StoreBotSecret(appID, secret string) error {
	if appID == "" {
		return fmt.Errorf("bot app id is required")
	}
	if secret == "" {
		return fmt.Errorf("refusing to store an empty secret")
	}
	return m.keyring.Set(Service, appID, secret)
}

// DeleteBotSecret removes the secret from the keyring.
func (m *Manager) DeleteBotSecret(appID string) error {
	return m.keyring.Delete(Service, appID)
}

// PromptSecret reads a secret from in, masking the input when in is a
// terminal. out receives the prompt text.
func PromptSecret(prompt string, in io.Reader, out io.Writer) (string, error) {
	_, _ = fmt.Fprint(out, prompt)

	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		data, err := term.ReadPassword(int(f.Fd()))
		_, _ = fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("failed to read secret: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}

	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", err
		}
		return "", fmt.Errorf("no input")
	}
	return strings.TrimSpace(scanner.Text()), nil
}
