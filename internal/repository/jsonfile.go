package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/selfie-proxy/server-go/internal/model"
)

const (
	consentsFile  = "consents.json"
	sessionsFile  = "sessions.json"
	callbacksFile = "results.json"
)

// jsonCollection is a file holding one JSON array. Every write rewrites the
// whole file; concurrent writers are not coordinated, so two interleaved
// read-modify-write cycles can lose one of the updates.
type jsonCollection[T any] struct {
	path string
}

func (c *jsonCollection[T]) ensure() error {
	if _, err := os.Stat(c.path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(c.path, []byte("[]"), 0o600)
}

func (c *jsonCollection[T]) load() ([]T, error) {
	data, err := os.ReadFile(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []T{}, nil
	}
	if err != nil {
		return nil, err
	}

	items := []T{}
	if len(data) == 0 {
		return items, nil
	}
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(c.path), err)
	}
	return items, nil
}

// write replaces the file through a rename so readers never see a torn array.
func (c *jsonCollection[T]) write(items []T) error {
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(c.path), filepath.Base(c.path)+".*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), c.path)
}

func (c *jsonCollection[T]) append(item T) error {
	items, err := c.load()
	if err != nil {
		return err
	}
	return c.write(append(items, item))
}

// FileStore keeps consents, sessions and callbacks as JSON arrays under one
// directory.
type FileStore struct {
	consents  *jsonCollection[model.ConsentRecord]
	sessions  *jsonCollection[model.VerificationSession]
	callbacks *jsonCollection[model.CallbackRecord]
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{
		consents:  &jsonCollection[model.ConsentRecord]{path: filepath.Join(dir, consentsFile)},
		sessions:  &jsonCollection[model.VerificationSession]{path: filepath.Join(dir, sessionsFile)},
		callbacks: &jsonCollection[model.CallbackRecord]{path: filepath.Join(dir, callbacksFile)},
	}
}

// EnsureFiles creates the data directory and seeds each missing file with
// an empty array. Existing files are left untouched.
func (s *FileStore) EnsureFiles() error {
	if err := os.MkdirAll(filepath.Dir(s.consents.path), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	for _, ensure := range []func() error{s.consents.ensure, s.sessions.ensure, s.callbacks.ensure} {
		if err := ensure(); err != nil {
			return err
		}
	}
	return nil
}

func (s *FileStore) Consents() ConsentRepository {
	return &fileConsentRepo{col: s.consents}
}

func (s *FileStore) Sessions() SessionRepository {
	return &fileSessionRepo{col: s.sessions}
}

func (s *FileStore) Callbacks() CallbackRepository {
	return &fileCallbackRepo{col: s.callbacks}
}

type fileConsentRepo struct {
	col *jsonCollection[model.ConsentRecord]
}

func (r *fileConsentRepo) Create(_ context.Context, record *model.ConsentRecord) error {
	return r.col.append(*record)
}

func (r *fileConsentRepo) FindByID(_ context.Context, id string) (*model.ConsentRecord, error) {
	items, err := r.col.load()
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].ID == id {
			return &items[i], nil
		}
	}
	return nil, nil
}

func (r *fileConsentRepo) List(_ context.Context) ([]model.ConsentRecord, error) {
	return r.col.load()
}

type fileSessionRepo struct {
	col *jsonCollection[model.VerificationSession]
}

func (r *fileSessionRepo) Create(_ context.Context, session *model.VerificationSession) error {
	return r.col.append(*session)
}

func (r *fileSessionRepo) FindByID(_ context.Context, id string) (*model.VerificationSession, error) {
	items, err := r.col.load()
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].ID == id {
			return &items[i], nil
		}
	}
	return nil, nil
}

func (r *fileSessionRepo) Update(_ context.Context, session *model.VerificationSession) error {
	items, err := r.col.load()
	if err != nil {
		return err
	}
	for i := range items {
		if items[i].ID == session.ID {
			items[i] = *session
			return r.col.write(items)
		}
	}
	return ErrNotFound
}

type fileCallbackRepo struct {
	col *jsonCollection[model.CallbackRecord]
}

func (r *fileCallbackRepo) Create(_ context.Context, record *model.CallbackRecord) error {
	return r.col.append(*record)
}

func (r *fileCallbackRepo) List(_ context.Context) ([]model.CallbackRecord, error) {
	return r.col.load()
}
