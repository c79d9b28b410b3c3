package settings

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Separator splits key segments.
const Separator = "/"

// Store errors.
var (
	ErrNotInitialized = errors.New("settings store not initialized")
	ErrHandlerExists  = errors.New("settings handler already registered")
	ErrInvalidKey     = errors.New("invalid settings key")
	ErrKeyNotFound    = errors.New("settings key not found")
)

// ValueReader gives a handler access to one stored value during Load.
type ValueReader interface {
	// Len returns the stored value length in bytes.
	Len() int

	// Read copies up to len(dst) bytes of the stored value into dst and
	// returns the number of bytes copied.
	Read(dst []byte) (int, error)
}

// Handler receives persisted values for one namespace.
type Handler struct {
	// Name is the namespace, the first key segment.
	Name string

	// Set is called once per persisted key under Name during Load. The key
	// passed in has the namespace and separator stripped. Returning an error
	// aborts the Load.
	Set func(key string, r ValueReader) error
}

// Store defines the interface for settings storage.
// Implementations must be safe for concurrent access.
type Store interface {
	// Init prepares the backing storage. It is safe to call more than once.
	Init() error

	// Register adds a handler for a namespace.
	// Returns ErrHandlerExists if the namespace already has one.
	Register(h Handler) error

	// Load replays every persisted key to the handler of its namespace.
	// Keys without a registered handler are skipped.
	Load() error

	// SaveOne persists a single value under a fully-qualified key.
	SaveOne(key string, value []byte) error

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(key string) error
}

// Key joins segments into a fully-qualified key.
func Key(segments ...string) string {
	return strings.Join(segments, Separator)
}

// SplitKey returns the namespace and the remainder of a key.
// The remainder is empty when the key has a single segment.
func SplitKey(key string) (namespace, rest string) {
	namespace, rest, _ = strings.Cut(key, Separator)
	return namespace, rest
}

// ValidateKey checks that a key is non-empty and has no empty segments.
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: empty key", ErrInvalidKey)
	}
	for _, seg := range strings.Split(key, Separator) {
		if seg == "" {
			return fmt.Errorf("%w: %q has an empty segment", ErrInvalidKey, key)
		}
	}
	return nil
}

// bytesReader is the ValueReader for values already held in memory.
type bytesReader struct {
	b []byte
}

func (r bytesReader) Len() int { return len(r.b) }

func (r bytesReader) Read(dst []byte) (int, error) {
	return copy(dst, r.b), nil
}

// NewValueReader returns a ValueReader over b. Useful when driving a
// Handler directly from tests or migration code.
func NewValueReader(b []byte) ValueReader {
	return bytesReader{b: b}
}

// replay dispatches values to handlers in key order.
// Callers pass snapshots so handlers run without the store lock held.
func replay(values map[string][]byte, handlers map[string]Handler) error {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		ns, rest := SplitKey(key)
		h, ok := handlers[ns]
		if !ok || h.Set == nil {
			continue
		}
		if err := h.Set(rest, bytesReader{b: values[key]}); err != nil {
			return fmt.Errorf("load %q: %w", key, err)
		}
	}
	return nil
}
