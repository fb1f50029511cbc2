package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	logger "github.com/sirupsen/logrus"
)

var (
	// ErrNotFound is returned by Get when no record file exists for the id.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateID is returned by Create when an explicit id collides
	// with a record already on disk.
	ErrDuplicateID = errors.New("duplicate record id")
)

// Store is a write-through persistent record store. Each record is one
// JSON file named <id>.json inside the collection directory. An optional
// in-process cache maps ids to the last loaded or written instance.
//
// The store is single-process by design: there is no locking, and the
// cache never notices writes made by another process.
type Store struct {
	dir      string
	useCache bool
	cache    map[string]*Record
	log      *logger.Entry
}

// ForDirectory binds a store to a collection directory, creating the
// directory if needed. Creation is idempotent and tolerates a concurrent
// creator.
func ForDirectory(dir string, useCache bool) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure directory %s: %w", dir, err)
	}

	return &Store{
		dir:      dir,
		useCache: useCache,
		cache:    make(map[string]*Record),
		log:      logger.WithField("component", "Store"),
	}, nil
}

// NewID generates a fresh record id: a 32-character lowercase hex string.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Dir returns the collection directory the store is bound to.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) filename(id string) string {
	return filepath.Join(s.dir, id+FileExt)
}

// Create persists a new record seeded with the given document. When id is
// empty, the document's own id field is used if set, otherwise a fresh id
// is generated. An explicit id that collides with an existing record file
// is rejected with ErrDuplicateID.
func (s *Store) Create(document map[string]any, id string) (*Record, error) {
	data := make(map[string]any, len(document)+1)
	for k, v := range document {
		data[k] = v
	}

	explicit := id != ""
	if id == "" {
		if v, ok := data[IDField].(string); ok && v != "" {
			id = v
			explicit = true
		} else {
			id = NewID()
		}
	}

	if explicit {
		if _, err := os.Stat(s.filename(id)); err == nil {
			return nil, fmt.Errorf("create %s: %w", id, ErrDuplicateID)
		}
	}

	data[IDField] = id
	rec := &Record{data: data}

	if err := s.write(rec); err != nil {
		return nil, err
	}

	s.log.WithField("id", id).Debug("Record created")
	return rec, nil
}

// Get returns the record for the given storage id. With caching enabled a
// previously loaded instance is returned without touching disk. A missing
// file yields ErrNotFound.
func (s *Store) Get(id string) (*Record, error) {
	if s.useCache {
		if rec, ok := s.cache[id]; ok {
			return rec, nil
		}
	}

	raw, err := os.ReadFile(s.filename(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("get %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get %s: %w", id, err)
	}

	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode %s: %w", id, err)
	}

	rec := &Record{data: data}
	s.cache[id] = rec
	return rec, nil
}

// GetOrCreate returns the existing record for id, or creates one seeded
// with the given defaults merged with the id.
func (s *Store) GetOrCreate(id string, defaults map[string]any) (*Record, error) {
	rec, err := s.Get(id)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	data := make(map[string]any, len(defaults)+1)
	for k, v := range defaults {
		data[k] = v
	}
	data[IDField] = id

	rec = &Record{data: data}
	if err := s.write(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Set assigns a single field and immediately rewrites the whole document
// to storage.
func (s *Store) Set(rec *Record, field string, value any) error {
	rec.data[field] = value
	return s.write(rec)
}

// Update assigns several fields and rewrites the document once.
func (s *Store) Update(rec *Record, fields map[string]any) error {
	for k, v := range fields {
		rec.data[k] = v
	}
	return s.write(rec)
}

// Delete removes the record file and purges the cache entry. A missing
// file is a no-op.
func (s *Store) Delete(id string) error {
	if err := os.Remove(s.filename(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete %s: %w", id, err)
	}
	delete(s.cache, id)
	return nil
}

// Archive moves the record file into the named sub-area of the collection
// directory, unmodified, and purges the cache entry. A missing source file
// is a no-op.
func (s *Store) Archive(rec *Record, area string) error {
	id := rec.ID()
	dest := filepath.Join(s.dir, area)
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return fmt.Errorf("ensure directory %s: %w", dest, err)
	}

	err := os.Rename(s.filename(id), filepath.Join(dest, id+FileExt))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("archive %s: %w", id, err)
	}
	delete(s.cache, id)

	s.log.WithFields(map[string]any{"id": id, "area": area}).Debug("Record archived")
	return nil
}

// ListIDs enumerates the ids of all record files currently in the
// collection directory, in filesystem-enumeration order.
func (s *Store) ListIDs() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.dir, err)
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, FileExt) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, FileExt))
	}
	return ids, nil
}

// Evict drops the cached instance for id without touching storage.
func (s *Store) Evict(id string) {
	delete(s.cache, id)
}

// write serializes the full document and flushes it to the record file.
func (s *Store) write(rec *Record) error {
	id := rec.ID()

	raw, err := json.Marshal(renderValue(rec.data))
	if err != nil {
		return fmt.Errorf("encode %s: %w", id, err)
	}

	if err := os.WriteFile(s.filename(id), raw, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", id, err)
	}

	if s.useCache {
		s.cache[id] = rec
	}
	return nil
}
