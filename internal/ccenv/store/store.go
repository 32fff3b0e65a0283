// Package store implements durable CRUD over provider profiles plus the
// active marker, one file per profile under the store root.
package store

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/ccenv/ccenv/internal/ccenv/codec"
	"github.com/ccenv/ccenv/internal/ccenv/domain"
	"github.com/ccenv/ccenv/internal/ccenv/paths"
	"github.com/ccenv/ccenv/internal/ccenv/storage"
	"github.com/ccenv/ccenv/internal/ccenv/validator"
)

// Store coordinates profile persistence. All mutations are single atomic
// file operations; there is no cross-operation transaction and no
// cross-process locking.
type Store struct {
	storage   *storage.Storage
	paths     *paths.PathBuilder
	validator *validator.Validator
	logger    *slog.Logger
}

// New creates a Store. A nil logger discards diagnostics.
func New(st *storage.Storage, pb *paths.PathBuilder, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Store{
		storage:   st,
		paths:     pb,
		validator: validator.New(),
		logger:    logger,
	}
}

// Init ensures the store root exists. Failure here is fatal to the
// invocation: nothing works without a writable root.
func (s *Store) Init() error {
	if err := s.storage.MkdirAll(s.paths.ProvidersDir()); err != nil {
		return fmt.Errorf("failed to create provider store directory: %w", err)
	}
	return nil
}

// Paths exposes the store's path builder.
func (s *Store) Paths() *paths.PathBuilder {
	return s.paths
}

// Storage exposes the underlying file layer.
func (s *Store) Storage() *storage.Storage {
	return s.storage
}

// Exists reports whether a named profile is stored.
func (s *Store) Exists(name string) (bool, error) {
	return s.storage.Exists(s.paths.ProfilePath(name))
}

// Read decodes the named profile.
func (s *Store) Read(name string) (*domain.ProviderProfile, error) {
	raw, err := s.storage.ReadFile(s.paths.ProfilePath(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: profile %q", domain.ErrNotFound, name)
		}
		return nil, fmt.Errorf("failed to read profile %q: %w", name, err)
	}
	profile, err := codec.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode profile %q: %w", name, err)
	}
	profile.Name = name
	return profile, nil
}

// Write validates and persists a profile under the given name, overwriting
// any previous version atomically.
func (s *Store) Write(name string, profile *domain.ProviderProfile) error {
	profile.Name = name
	if err := s.validator.ValidateProfile(profile); err != nil {
		return err
	}
	raw, err := codec.Encode(profile)
	if err != nil {
		return err
	}
	if err := s.storage.WriteFile(s.paths.ProfilePath(name), raw); err != nil {
		return fmt.Errorf("failed to write profile %q: %w", name, err)
	}
	s.logger.Debug("profile written", "name", name)
	return nil
}

// Create persists a new profile and fails when the name is taken. Callers
// wanting keep-or-replace semantics confirm first and use Write.
func (s *Store) Create(name string, profile *domain.ProviderProfile) error {
	exists, err := s.Exists(name)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: profile %q", domain.ErrAlreadyExists, name)
	}
	return s.Write(name, profile)
}

// Rename moves a profile to a new name. Without overwrite it fails when the
// target name is taken. When the renamed profile is active, the marker is
// re-pointed as part of the same logical operation.
func (s *Store) Rename(oldName, newName string, overwrite bool) error {
	if err := s.validator.ValidateProfileName(newName); err != nil {
		return err
	}
	exists, err := s.Exists(oldName)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: profile %q", domain.ErrNotFound, oldName)
	}
	targetExists, err := s.Exists(newName)
	if err != nil {
		return err
	}
	if targetExists && !overwrite {
		return fmt.Errorf("%w: profile %q already exists", domain.ErrConflict, newName)
	}

	active, err := s.GetActive()
	if err != nil {
		return err
	}

	if err := s.storage.Rename(s.paths.ProfilePath(oldName), s.paths.ProfilePath(newName)); err != nil {
		return fmt.Errorf("failed to rename profile %q: %w", oldName, err)
	}
	if active == oldName {
		if err := s.writeActiveMarker(newName); err != nil {
			return err
		}
	}
	s.logger.Info("profile renamed", "from", oldName, "to", newName)
	return nil
}

// Remove deletes a profile. When it was active, the marker is cleared.
func (s *Store) Remove(name string) error {
	exists, err := s.Exists(name)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: profile %q", domain.ErrNotFound, name)
	}

	active, err := s.GetActive()
	if err != nil {
		return err
	}

	if err := s.storage.Remove(s.paths.ProfilePath(name)); err != nil {
		return fmt.Errorf("failed to remove profile %q: %w", name, err)
	}
	if active == name {
		if err := s.ClearActive(); err != nil {
			return err
		}
	}
	s.logger.Info("profile removed", "name", name)
	return nil
}

// Entry is one stored profile name annotated with its active state.
type Entry struct {
	Name   string
	Active bool
}

// List returns all stored profile names in lexicographic order. The scan is
// re-run on every call, so the sequence restarts from current on-disk state.
func (s *Store) List() ([]Entry, error) {
	files, err := s.storage.ReadDir(s.paths.ProvidersDir())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read provider store: %w", err)
	}

	active, err := s.GetActive()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(files))
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		name := file.Name()
		if !strings.HasSuffix(name, paths.ProfileExt) {
			continue
		}
		names = append(names, strings.TrimSuffix(name, paths.ProfileExt))
	}
	sort.Strings(names)

	entries := make([]Entry, 0, len(names))
	for _, name := range names {
		entries = append(entries, Entry{Name: name, Active: name == active})
	}
	return entries, nil
}

// GetActive returns the active profile name, or "" when no profile is
// active. An absent marker file is not an error.
func (s *Store) GetActive() (string, error) {
	raw, err := s.storage.ReadFile(s.paths.ActiveMarkerPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read active marker: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}

// SetActive points the marker at an existing profile.
func (s *Store) SetActive(name string) error {
	exists, err := s.Exists(name)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: profile %q", domain.ErrNotFound, name)
	}
	return s.writeActiveMarker(name)
}

// ClearActive removes the marker. Clearing an already-clear marker is a
// no-op.
func (s *Store) ClearActive() error {
	if err := s.storage.Remove(s.paths.ActiveMarkerPath()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to clear active marker: %w", err)
	}
	return nil
}

// ReadActive resolves the marker to its profile. Returns (nil, nil) when no
// profile is active, and ErrMarkerInconsistent when the marker points at a
// profile that no longer exists.
func (s *Store) ReadActive() (*domain.ProviderProfile, error) {
	name, err := s.GetActive()
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, nil
	}
	profile, err := s.Read(name)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: marker names %q", domain.ErrMarkerInconsistent, name)
		}
		return nil, err
	}
	return profile, nil
}

// SetCustomVar adds or updates one custom variable on a stored profile via a
// targeted rewrite that leaves all other bytes of the file untouched.
func (s *Store) SetCustomVar(name, varName, value string) error {
	if err := s.validator.ValidateCustomVarName(varName); err != nil {
		return err
	}
	return s.rewriteProfile(name, func(raw []byte) ([]byte, error) {
		return codec.SetCustomVar(raw, varName, value)
	})
}

// RemoveCustomVar deletes one custom variable from a stored profile.
func (s *Store) RemoveCustomVar(name, varName string) error {
	return s.rewriteProfile(name, func(raw []byte) ([]byte, error) {
		return codec.RemoveCustomVar(raw, varName)
	})
}

// CustomVars lists the custom variables of a stored profile in file order.
func (s *Store) CustomVars(name string) ([]domain.EnvVar, error) {
	raw, err := s.readRaw(name)
	if err != nil {
		return nil, err
	}
	return codec.CustomVars(raw)
}

func (s *Store) rewriteProfile(name string, edit func([]byte) ([]byte, error)) error {
	raw, err := s.readRaw(name)
	if err != nil {
		return err
	}
	updated, err := edit(raw)
	if err != nil {
		return err
	}
	if err := s.storage.WriteFile(s.paths.ProfilePath(name), updated); err != nil {
		return fmt.Errorf("failed to write profile %q: %w", name, err)
	}
	return nil
}

func (s *Store) readRaw(name string) ([]byte, error) {
	raw, err := s.storage.ReadFile(s.paths.ProfilePath(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: profile %q", domain.ErrNotFound, name)
		}
		return nil, fmt.Errorf("failed to read profile %q: %w", name, err)
	}
	return raw, nil
}

func (s *Store) writeActiveMarker(name string) error {
	if err := s.storage.WriteFile(s.paths.ActiveMarkerPath(), []byte(name+"\n")); err != nil {
		return fmt.Errorf("failed to write active marker: %w", err)
	}
	return nil
}
