package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"github.com/pfrederiksen/draw-sync/internal/dataset"
)

// DefaultPath is the local store file used when none is configured
const DefaultPath = "data.csv"

var (
	// ErrNotFound is returned by Load when the store file does not exist
	ErrNotFound = errors.New("local store not found")
	// ErrLocked is returned by Lock when another run holds the store lock
	ErrLocked = errors.New("local store is locked by another run")
)

// Storage handles persistence of the local dataset
type Storage struct {
	path string
	lock *flock.Flock
}

// New creates a new Storage instance for the file at path
func New(path string) (*Storage, error) {
	// Expand ~ to home directory
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}
	if path == "" {
		return nil, fmt.Errorf("empty store path")
	}

	return &Storage{
		path: path,
		lock: flock.New(path + ".lock"),
	}, nil
}

// Path returns the path of the store file
func (s *Storage) Path() string {
	return s.path
}

// Exists reports whether the store file exists
func (s *Storage) Exists() (bool, error) {
	_, err := os.Stat(s.path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("checking store: %w", err)
}

// Load reads the dataset from disk. A missing file yields ErrNotFound.
func (s *Storage) Load() (*dataset.Dataset, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, s.path)
		}
		return nil, fmt.Errorf("opening store: %w", err)
	}
	defer f.Close()

	ds, err := dataset.ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("parsing store: %w", err)
	}

	return ds, nil
}

// Save overwrites the store file with the dataset. The file is truncated and rewritten in
// place, not replaced by rename.
func (s *Storage) Save(ds *dataset.Dataset) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating store directory: %w", err)
		}
	}

	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("opening store for writing: %w", err)
	}

	if err := dataset.WriteCSV(f, ds); err != nil {
		f.Close() // nolint:errcheck
		return fmt.Errorf("writing store: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("closing store: %w", err)
	}

	return nil
}

// Lock takes the advisory run lock without blocking
func (s *Storage) Lock() error {
	locked, err := s.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquiring store lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("%w: %s", ErrLocked, s.lock.Path())
	}
	return nil
}

// Unlock releases the run lock
func (s *Storage) Unlock() error {
	if err := s.lock.Unlock(); err != nil {
		return fmt.Errorf("releasing store lock: %w", err)
	}
	return nil
}
