package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"launchpad/internal/types"
)

// ErrProfileNotFound reports a lookup for an address with no profile.
var ErrProfileNotFound = errors.New("profile not found")

// ProfileStore persists user profiles keyed by wallet address.
type ProfileStore interface {
	UpsertProfile(ctx context.Context, profile types.Profile) error
	GetProfile(ctx context.Context, address string) (types.Profile, error)
	Close()
}

// FileProfileStore keeps profiles in a single JSON file. Suitable for
// single-user CLI runs; the Postgres store covers everything else.
type FileProfileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileProfileStore builds a file-backed profile store.
func NewFileProfileStore(path string) *FileProfileStore {
	return &FileProfileStore{path: path}
}

// UpsertProfile creates or updates a profile, stamping timestamps.
func (s *FileProfileStore) UpsertProfile(_ context.Context, profile types.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	profiles, err := s.load()
	if err != nil {
		return err
	}

	key := normalizeAddress(profile.Address)
	now := time.Now().UTC()
	if existing, ok := profiles[key]; ok {
		profile.CreatedAt = existing.CreatedAt
	} else {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now
	profiles[key] = profile

	return s.save(profiles)
}

// GetProfile returns the profile for an address.
func (s *FileProfileStore) GetProfile(_ context.Context, address string) (types.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	profiles, err := s.load()
	if err != nil {
		return types.Profile{}, err
	}
	profile, ok := profiles[normalizeAddress(address)]
	if !ok {
		return types.Profile{}, fmt.Errorf("%w: %s", ErrProfileNotFound, address)
	}
	return profile, nil
}

// Close is a no-op for the file store.
func (s *FileProfileStore) Close() {}

func (s *FileProfileStore) load() (map[string]types.Profile, error) {
	blob, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return make(map[string]types.Profile), nil
		}
		return nil, fmt.Errorf("read profiles: %w", err)
	}
	profiles := make(map[string]types.Profile)
	if err := json.Unmarshal(blob, &profiles); err != nil {
		return nil, fmt.Errorf("parse profiles: %w", err)
	}
	return profiles, nil
}

func (s *FileProfileStore) save(profiles map[string]types.Profile) error {
	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create profile dir: %w", err)
		}
	}
	blob, err := json.MarshalIndent(profiles, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal profiles: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, blob, 0o644); err != nil {
		return fmt.Errorf("write profiles: %w", err)
	}
	return os.Rename(tmp, s.path)
}

func normalizeAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}
