package config

import (
	"errors"
	"fmt"
	"strings"
)

// MissingError reports required secrets that are not configured.
// It is fatal at startup and never retried.
type MissingError struct {
	Keys []string
}

func (e *MissingError) Error() string {
	hints := make([]string, 0, len(e.Keys))
	for _, key := range e.Keys {
		hint := key + " (" + envName(key)
		if legacy, ok := legacyEnv[key]; ok {
			hint += " or " + legacy
		}
		hints = append(hints, hint+")")
	}
	return fmt.Sprintf("missing required configuration: %s", strings.Join(hints, ", "))
}

// IsMissingError checks if an error is a MissingError.
func IsMissingError(err error) bool {
	var me *MissingError
	return errors.As(err, &me)
}

// RequireSecrets returns *MissingError listing every empty secret: the review
// API token, the bot token and the destination chat.
func (c *Config) RequireSecrets() error {
	var missing []string

	if strings.TrimSpace(c.Practicum.Token) == "" {
		missing = append(missing, "practicum.token")
	}
	if strings.TrimSpace(c.Telegram.Token) == "" {
		missing = append(missing, "telegram.token")
	}
	if strings.TrimSpace(c.Telegram.ChatID) == "" {
		missing = append(missing, "telegram.chat_id")
	}

	if len(missing) > 0 {
		return &MissingError{Keys: missing}
	}
	return nil
}
