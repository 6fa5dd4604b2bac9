package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrStateNotFound is returned when no auth state exists for a platform.
// A missing state is a precondition failure for that platform's
// extractor, not a crash.
var ErrStateNotFound = errors.New("authentication state not found")

// Store is the interface for persisting and retrieving platform-scoped
// authentication state
type Store interface {
	// Save persists the state for its platform
	Save(state *State) error

	// Load retrieves the state for a platform
	Load(platform string) (*State, error)

	// Exists checks whether state is present for a platform
	Exists(platform string) bool

	// Path returns the on-disk location backing a platform's state
	Path(platform string) string
}

// FileStore persists auth state as plain JSON files, one per platform
type FileStore struct {
	dir string
}

// NewFileStore creates a file-based auth state store
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create auth state directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Path returns the state file location for a platform
func (f *FileStore) Path(platform string) string {
	return filepath.Join(f.dir, fmt.Sprintf("%s_auth_state.json", platform))
}

// Exists checks whether a state file is present for a platform
func (f *FileStore) Exists(platform string) bool {
	_, err := os.Stat(f.Path(platform))
	return err == nil
}

// Save writes the state file for the state's platform
func (f *FileStore) Save(state *State) error {
	if state == nil || state.Platform == "" {
		return errors.New("auth state requires a platform")
	}
	data, err := state.Marshal()
	if err != nil {
		return err
	}
	return os.WriteFile(f.Path(state.Platform), data, 0600)
}

// Load reads and parses the state file for a platform
func (f *FileStore) Load(platform string) (*State, error) {
	data, err := os.ReadFile(f.Path(platform))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w for platform %q", ErrStateNotFound, platform)
		}
		return nil, fmt.Errorf("failed to read auth state: %w", err)
	}
	return UnmarshalState(data)
}

// NewStore returns the configured store implementation: an encrypted
// file store when encryption is enabled, a plain file store otherwise.
func NewStore(dir string, encrypt bool) (Store, error) {
	if encrypt {
		return NewEncryptedFileStore(dir)
	}
	return NewFileStore(dir)
}
