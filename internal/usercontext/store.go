// Package usercontext persists the per-user context aggregate: profile,
// goals, readiness, market snapshot, the active path and its history.
package usercontext

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/lucasnoah/careerpath/internal/apperr"
)

// Store loads and saves user contexts. Load returns a value owned by the
// caller; mutating it has no effect until Save.
type Store interface {
	Load(ctx context.Context, userID string) (*UserContext, error)
	Save(ctx context.Context, c *UserContext) error
	List(ctx context.Context) ([]string, error)
}

var validUserID = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._@-]{0,127}$`)

// ValidateUserID rejects ids that cannot be used as a storage key.
func ValidateUserID(userID string) error {
	if !validUserID.MatchString(userID) {
		return apperr.Validation("invalid user id %q", userID)
	}
	return nil
}

// FileStore keeps one JSON document per user in a directory.
type FileStore struct {
	baseDir string
}

// NewFileStore creates a FileStore rooted at baseDir.
func NewFileStore(baseDir string) *FileStore {
	return &FileStore{baseDir: baseDir}
}

// DefaultFileStore returns a FileStore at ~/.careerpath/contexts.
func DefaultFileStore() (*FileStore, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("get home dir: %w", err)
	}
	return NewFileStore(filepath.Join(home, ".careerpath", "contexts")), nil
}

// BaseDir returns the store's root directory.
func (s *FileStore) BaseDir() string {
	return s.baseDir
}

func (s *FileStore) contextPath(userID string) string {
	return filepath.Join(s.baseDir, userID+"_context.json")
}

// Load reads the context for userID.
func (s *FileStore) Load(_ context.Context, userID string) (*UserContext, error) {
	if err := ValidateUserID(userID); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.contextPath(userID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperr.NotFound("user %s not found", userID)
		}
		return nil, apperr.IO(err, "read context %s", userID)
	}
	c, err := unmarshalDocument(data)
	if err != nil {
		return nil, apperr.IO(err, "decode context %s", userID)
	}
	return c, nil
}

// Save writes the context atomically.
func (s *FileStore) Save(_ context.Context, c *UserContext) error {
	if err := ValidateUserID(c.UserID); err != nil {
		return err
	}
	data, err := marshalDocument(c)
	if err != nil {
		return apperr.IO(err, "encode context %s", c.UserID)
	}
	if err := writeAtomic(s.contextPath(c.UserID), data); err != nil {
		return apperr.IO(err, "write context %s", c.UserID)
	}
	return nil
}

// List returns the ids of all stored users, sorted.
func (s *FileStore) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, apperr.IO(err, "read dir %s", s.baseDir)
	}

	ids := []string{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		id, ok := strings.CutSuffix(entry.Name(), "_context.json")
		if !ok || ValidateUserID(id) != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
