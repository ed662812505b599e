// Package keyring stores third-party task service tokens in the OS keyring.
// Tokens are entered by the user and never written to the kv store.
package keyring

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

const service = "focuskit"

// Integrations that accept a user token.
const (
	Notion      = "notion"
	GoogleTasks = "google-tasks"
)

var Integrations = []string{Notion, GoogleTasks}

var (
	ErrNotFound           = errors.New("credentials not found in keyring")
	ErrKeyringUnavailable = errors.New("OS keyring is not available")
	ErrUnknownIntegration = errors.New("unknown integration")
)

func validate(integration string) error {
	for _, name := range Integrations {
		if name == integration {
			return nil
		}
	}
	return fmt.Errorf("%w %q (want %s)", ErrUnknownIntegration, integration, strings.Join(Integrations, " or "))
}

func Set(integration, token string) error {
	if err := validate(integration); err != nil {
		return err
	}
	if strings.TrimSpace(token) == "" {
		return errors.New("token cannot be empty")
	}
	if err := keyring.Set(service, integration, token); err != nil {
		return fmt.Errorf("failed to store token in keyring: %w", err)
	}
	return nil
}

func Get(integration string) (string, error) {
	if err := validate(integration); err != nil {
		return "", err
	}
	token, err := keyring.Get(service, integration)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return token, nil
}

func Delete(integration string) error {
	if err := validate(integration); err != nil {
		return err
	}
	if err := keyring.Delete(service, integration); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete token from keyring: %w", err)
	}
	return nil
}

// Configured reports which integrations have a stored token.
func Configured() map[string]bool {
	out := make(map[string]bool, len(Integrations))
	for _, name := range Integrations {
		_, err := Get(name)
		out[name] = err == nil
	}
	return out
}

// Mask hides all but the last four characters of a token.
func Mask(token string) string {
	if len(token) <= 4 {
		return strings.Repeat("*", len(token))
	}
	return strings.Repeat("*", len(token)-4) + token[len(token)-4:]
}
