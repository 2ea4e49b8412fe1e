// Package jsonfile persists the users/sessions document as a single
// indented JSON file, the format the storefront has always shipped with.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/3d-marketplace/auth-api/internal/core/domain"
	"github.com/3d-marketplace/auth-api/internal/pkg/metrics"
)

const driver = "file"

// Runner executes a job exclusively; queue.Serializer satisfies it.
type Runner interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// Store reads and rewrites the whole document on every call. Update runs
// through the Runner so read-modify-write cycles never interleave.
type Store struct {
	path   string
	runner Runner
	log    zerolog.Logger
}

func NewStore(path string, runner Runner, log zerolog.Logger) *Store {
	return &Store{path: path, runner: runner, log: log}
}

// Path returns the backing file location.
func (s *Store) Path() string { return s.path }

// EnsureExists creates the parent directory and an empty document if the
// file is missing. An existing file is left untouched.
func (s *Store) EnsureExists(ctx context.Context) error {
	if _, err := os.Stat(s.path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", s.path, err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(s.path), err)
	}
	s.log.Info().Str("path", s.path).Msg("creating empty database file")
	return s.Write(ctx, domain.NewDocument())
}

// Read parses the file. Any failure is reported as ErrStorageUnavailable;
// the underlying cause is logged, not returned to clients.
func (s *Store) Read(_ context.Context) (*domain.Document, error) {
	start := time.Now()
	doc, err := s.read()
	observe("read", start, err)
	return doc, err
}

func (s *Store) read() (*domain.Document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		s.log.Error().Err(err).Str("path", s.path).Msg("error reading database")
		return nil, fmt.Errorf("%w: read: %v", domain.ErrStorageUnavailable, err)
	}

	var doc domain.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		s.log.Error().Err(err).Str("path", s.path).Msg("error parsing database")
		return nil, fmt.Errorf("%w: parse: %v", domain.ErrStorageUnavailable, err)
	}
	doc.Normalize()
	return &doc, nil
}

// Write replaces the file via a temp file and rename, so readers never see
// a half-written document.
func (s *Store) Write(_ context.Context, doc *domain.Document) error {
	start := time.Now()
	err := s.write(doc)
	observe("write", start, err)
	return err
}

func (s *Store) write(doc *domain.Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode: %v", domain.ErrStorageUnavailable, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".users-*.json")
	if err != nil {
		s.log.Error().Err(err).Str("path", s.path).Msg("error writing database")
		return fmt.Errorf("%w: create temp: %v", domain.ErrStorageUnavailable, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		s.log.Error().Err(err).Str("path", s.path).Msg("error writing database")
		return fmt.Errorf("%w: write: %v", domain.ErrStorageUnavailable, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close: %v", domain.ErrStorageUnavailable, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		s.log.Error().Err(err).Str("path", s.path).Msg("error writing database")
		return fmt.Errorf("%w: rename: %v", domain.ErrStorageUnavailable, err)
	}
	return nil
}

// Update performs read, fn, write as one job on the runner.
func (s *Store) Update(ctx context.Context, fn func(doc *domain.Document) error) error {
	start := time.Now()
	err := s.runner.Do(ctx, func(context.Context) error {
		doc, err := s.read()
		if err != nil {
			return err
		}
		if err := fn(doc); err != nil {
			return err
		}
		return s.write(doc)
	})
	observe("update", start, storageErr(err))
	return err
}

// storageErr filters out business errors returned by an update callback so
// they are not counted as store failures.
func storageErr(err error) error {
	if errors.Is(err, domain.ErrStorageUnavailable) {
		return err
	}
	return nil
}

func observe(op string, start time.Time, err error) {
	metrics.StoreOperationDuration.WithLabelValues(driver, op).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.StoreErrorsTotal.WithLabelValues(driver, op).Inc()
	}
}
