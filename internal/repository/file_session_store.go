package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/yourorg/feedbackflow/internal/domain"
)

// FileSessionStore persists the session as a JSON file, mirroring the
// single-key browser storage the web client uses. A missing file is "no
// prior session"; an unreadable one is reported as an error so the session
// service can wipe it.
type FileSessionStore struct {
	path   string
	logger *slog.Logger
}

// NewFileSessionStore creates a store writing to path. An empty path falls
// back to DefaultSessionFilePath.
func NewFileSessionStore(path string, logger *slog.Logger) *FileSessionStore {
	if logger == nil {
		logger = slog.Default()
	}
	if path == "" {
		path = DefaultSessionFilePath()
	}
	return &FileSessionStore{path: path, logger: logger}
}

// DefaultSessionFilePath is ~/.feedbackflow/session.json, or a relative
// fallback when the home directory cannot be resolved.
func DefaultSessionFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".feedbackflow", "session.json")
	}
	return filepath.Join(home, ".feedbackflow", "session.json")
}

// Save writes the serialized user to disk.
func (s *FileSessionStore) Save(ctx context.Context, user *domain.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}

// Load reads the persisted user. Returns ErrNoSession when no file exists.
func (s *FileSessionStore) Load(ctx context.Context) (*domain.User, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrNoSession
		}
		return nil, fmt.Errorf("read session file: %w", err)
	}

	var user domain.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("decode session file: %w", err)
	}
	if user.ID == "" {
		return nil, fmt.Errorf("decode session file: missing user id")
	}
	return &user, nil
}

// Clear removes the session file. A missing file is not an error.
func (s *FileSessionStore) Clear(ctx context.Context) error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}
