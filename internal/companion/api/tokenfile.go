package api

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// The bearer token is the only piece of session state that survives a
// process restart. Everything else is rebuilt from /auth/context.

// LoadToken reads a saved bearer token. A missing file means signed out
// and is not an error.
func LoadToken(path string) (string, error) {
	p, err := expandPath(path)
	if err != nil {
		return "", err
	}
	raw, err := os.ReadFile(p)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read token file: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}

// SaveToken persists the bearer token, creating the directory if needed.
func SaveToken(path, token string) error {
	p, err := expandPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	if err := os.WriteFile(p, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// ClearToken removes the saved token. Missing files are fine.
func ClearToken(path string) error {
	p, err := expandPath(path)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove token file: %w", err)
	}
	return nil
}

func expandPath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to resolve home directory: %w", err)
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
	}
	return path, nil
}
