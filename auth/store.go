// Package auth is the credential collaborator: a flat file mapping user names
// to salted bcrypt hashes.
package auth

import (
	"os"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/YuminosukeSato/automl/core/model"
	"github.com/YuminosukeSato/automl/pkg/errors"
)

// bcrypt only looks at the first 72 bytes.
const maxPasswordBytes = 72

// Credentials registers and verifies users.
type Credentials interface {
	Register(username, password string) (bool, error)
	Verify(username, password string) (bool, error)
}

// FileStore persists credentials as a gob-encoded map at a fixed path. The
// file is read on every call so that edits by a previous process are seen.
type FileStore struct {
	mu   sync.Mutex
	path string
	cost int
}

// NewFileStore returns a store at path. cost <= 0 uses bcrypt.DefaultCost.
func NewFileStore(path string, cost int) *FileStore {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &FileStore{path: path, cost: cost}
}

// Path returns the credential file path.
func (s *FileStore) Path() string { return s.path }

// Register adds a user. It returns false without error when the name is taken.
func (s *FileStore) Register(username, password string) (bool, error) {
	if err := checkInput(username, password); err != nil {
		return false, err
	}
	if len(password) > maxPasswordBytes {
		return false, errors.NewValidationError("password", "must be at most 72 bytes", len(password))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.load()
	if err != nil {
		return false, err
	}
	if _, exists := users[username]; exists {
		return false, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return false, errors.Wrap(err, "automl: failed to hash password")
	}
	users[username] = hash
	if err := model.SaveModel(users, s.path); err != nil {
		return false, errors.Wrapf(err, "automl: failed to save credentials to %s", s.path)
	}
	return true, nil
}

// Verify reports whether password matches the stored hash of username.
// Unknown users verify as false.
func (s *FileStore) Verify(username, password string) (bool, error) {
	if err := checkInput(username, password); err != nil {
		return false, err
	}

	s.mu.Lock()
	users, err := s.load()
	s.mu.Unlock()
	if err != nil {
		return false, err
	}

	hash, ok := users[username]
	if !ok {
		return false, nil
	}
	switch err := bcrypt.CompareHashAndPassword(hash, []byte(password)); {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, errors.Wrap(err, "automl: failed to compare password hash")
	}
}

func (s *FileStore) load() (map[string][]byte, error) {
	users := make(map[string][]byte)
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return users, nil
	}
	if err := model.LoadModel(&users, s.path); err != nil {
		return nil, errors.Wrapf(err, "automl: failed to read credentials from %s", s.path)
	}
	return users, nil
}

func checkInput(username, password string) error {
	if strings.TrimSpace(username) == "" || password == "" {
		return errors.NewValidationError("credentials", "please enter a username and password", username)
	}
	return nil
}
