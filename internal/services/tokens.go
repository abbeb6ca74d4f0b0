package services

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/desertthunder/xbr/internal/models"
)

// TokenStore persists the [models.TokenArtifact] between process invocations.
type TokenStore interface {
	Load() (*models.TokenArtifact, error)
	Save(artifact *models.TokenArtifact) error
	Exists() bool
}

// FileTokenStore stores the token artifact as a JSON file on disk.
//
// The file is written with 0600 permissions since it contains live
// credentials. Reads happen once at process start, writes once after a
// successful authentication chain.
type FileTokenStore struct {
	path string
}

// NewFileTokenStore creates a store rooted at dir, using the conventional
// tokens.json filename.
func NewFileTokenStore(dir string) *FileTokenStore {
	return &FileTokenStore{path: filepath.Join(dir, "tokens.json")}
}

// Path returns the full path of the token file.
func (s *FileTokenStore) Path() string {
	return s.path
}

// Exists reports whether a token file is present on disk.
func (s *FileTokenStore) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Load reads and parses the persisted artifact.
func (s *FileTokenStore) Load() (*models.TokenArtifact, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var artifact models.TokenArtifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("failed to parse token file: %w", err)
	}

	return &artifact, nil
}

// Save writes the artifact to disk, creating the parent directory if needed.
func (s *FileTokenStore) Save(artifact *models.TokenArtifact) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	data, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal tokens: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}

	return nil
}
