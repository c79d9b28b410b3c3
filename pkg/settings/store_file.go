package settings

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/fxamacker/cbor/v2"
)

// DefaultMaxRecords is the record count above which the file is compacted.
const DefaultMaxRecords = 256

// record is one entry of the append log.
// CBOR encoding uses integer keys for compactness.
type record struct {
	Key     string `cbor:"1,keyasint"`
	Value   []byte `cbor:"2,keyasint,omitempty"`
	Deleted bool   `cbor:"3,keyasint,omitempty"`
}

var (
	recordEncMode cbor.EncMode
	recordDecMode cbor.DecMode
)

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:        cbor.SortCanonical,
		IndefLength: cbor.IndefLengthForbidden,
	}
	recordEncMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create settings CBOR encoder mode: %v", err))
	}

	decOpts := cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyQuiet,
		IndefLength: cbor.IndefLengthAllowed,
	}
	recordDecMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create settings CBOR decoder mode: %v", err))
	}
}

// FileStore is a file-based implementation of the Store interface.
//
// Every SaveOne and Delete appends one CBOR record. Init replays the file
// and the last record for a key wins. A torn trailing record, left by a
// crash mid-write, is discarded. When the record count grows past
// MaxRecords and is more than twice the live key count, the file is
// rewritten with only the live values. A failed automatic compaction does
// not fail the write that triggered it; the next write retries.
type FileStore struct {
	mu   sync.Mutex
	path string

	// MaxRecords triggers compaction. Zero disables automatic compaction.
	MaxRecords int

	// Logger receives compaction warnings. If nil, logging is disabled.
	Logger *slog.Logger

	initialized bool
	file        *os.File
	enc         *cbor.Encoder
	records     int
	values      map[string][]byte
	handlers    map[string]Handler
}

// NewFileStore creates a new file-based settings store at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{
		path:       path,
		MaxRecords: DefaultMaxRecords,
		values:     make(map[string][]byte),
		handlers:   make(map[string]Handler),
	}
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// Init opens the backing file and replays its records.
func (s *FileStore) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}

	values, records, good, err := readRecords(s.path)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if err := f.Truncate(good); err != nil {
		_ = f.Close()
		return err
	}
	if _, err := f.Seek(good, io.SeekStart); err != nil {
		_ = f.Close()
		return err
	}

	s.file = f
	s.enc = recordEncMode.NewEncoder(f)
	s.values = values
	s.records = records
	s.initialized = true
	return nil
}

// readRecords replays the log at path. It returns the live values, the
// number of intact records and the byte offset just past the last intact one.
func readRecords(path string) (map[string][]byte, int, int64, error) {
	values := make(map[string][]byte)

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return values, 0, 0, nil
	}
	if err != nil {
		return nil, 0, 0, err
	}
	defer f.Close()

	dec := recordDecMode.NewDecoder(f)
	var (
		records int
		good    int64
	)
	for {
		var rec record
		if err := dec.Decode(&rec); err != nil {
			if err == io.EOF || errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			return nil, 0, 0, fmt.Errorf("read %s: %w", path, err)
		}
		good = int64(dec.NumBytesRead())
		records++

		if rec.Deleted {
			delete(values, rec.Key)
			continue
		}
		if rec.Value == nil {
			rec.Value = []byte{}
		}
		values[rec.Key] = rec.Value
	}
	return values, records, good, nil
}

// Register adds a namespace handler.
func (s *FileStore) Register(h Handler) error {
	if err := ValidateKey(h.Name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.handlers[h.Name]; exists {
		return ErrHandlerExists
	}
	s.handlers[h.Name] = h
	return nil
}

// Load replays all live values to their handlers.
func (s *FileStore) Load() error {
	s.mu.Lock()
	if !s.initialized {
		s.mu.Unlock()
		return ErrNotInitialized
	}
	values := make(map[string][]byte, len(s.values))
	for k, v := range s.values {
		values[k] = v
	}
	handlers := make(map[string]Handler, len(s.handlers))
	for k, h := range s.handlers {
		handlers[k] = h
	}
	s.mu.Unlock()

	return replay(values, handlers)
}

// SaveOne appends a record for key and syncs the file.
func (s *FileStore) SaveOne(key string, value []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}

	v := append([]byte{}, value...)
	if err := s.appendLocked(record{Key: key, Value: v}); err != nil {
		return err
	}
	s.values[key] = v
	s.maybeCompactLocked()
	return nil
}

// Delete appends a tombstone for key. Missing keys are ignored.
func (s *FileStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	if _, ok := s.values[key]; !ok {
		return nil
	}

	if err := s.appendLocked(record{Key: key, Deleted: true}); err != nil {
		return err
	}
	delete(s.values, key)
	s.maybeCompactLocked()
	return nil
}

func (s *FileStore) appendLocked(rec record) error {
	if err := s.enc.Encode(rec); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	if err := s.file.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", s.path, err)
	}
	s.records++
	return nil
}

// maybeCompactLocked compacts when the log has grown past MaxRecords. The
// triggering record is already durable, so a failure is only logged.
func (s *FileStore) maybeCompactLocked() {
	if s.MaxRecords <= 0 || s.records <= s.MaxRecords || s.records <= 2*len(s.values) {
		return
	}
	if err := s.compactLocked(); err != nil && s.Logger != nil {
		s.Logger.Warn("settings compaction failed", "path", s.path, "records", s.records, "error", err)
	}
}

// Compact rewrites the file with one record per live key.
func (s *FileStore) Compact() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	return s.compactLocked()
}

func (s *FileStore) compactLocked() error {
	tmpPath := s.path + ".tmp"
	tmp, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	enc := recordEncMode.NewEncoder(tmp)
	for _, k := range keys {
		if err := enc.Encode(record{Key: k, Value: s.values[k]}); err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
			return fmt.Errorf("compact %s: %w", s.path, err)
		}
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	// The old file stays open for appends until the rename succeeds.
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("compact %s: %w", s.path, err)
	}
	_ = s.file.Close()

	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		s.initialized = false
		return err
	}
	s.file = f
	s.enc = recordEncMode.NewEncoder(f)
	s.records = len(keys)
	return nil
}

// Records returns the number of records currently in the file.
func (s *FileStore) Records() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records
}

// Get returns a copy of the live value for key.
func (s *FileStore) Get(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.values[key]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), v...), true
}

// Close closes the backing file. Init may be called again afterwards.
func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return nil
	}
	s.initialized = false
	return s.file.Close()
}

// Compile-time interface satisfaction check.
var _ Store = (*FileStore)(nil)
