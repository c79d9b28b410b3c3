package otsettings

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/otsetup/otsetup-go/pkg/log"
	"github.com/otsetup/otsetup-go/pkg/settings"
)

// Registry errors.
var (
	ErrNotFound           = errors.New("setting not loaded")
	ErrUnsupported        = errors.New("unsupported field")
	ErrInvalidOffset      = errors.New("value exceeds field capacity")
	ErrInvalidLength      = errors.New("invalid value length")
	ErrPersistence        = errors.New("persistence failure")
	ErrNotInitialized     = errors.New("registry not initialized")
	ErrAlreadyInitialized = errors.New("registry already initialized")
)

// Config holds registry configuration.
type Config struct {
	// Logger for debug output. If nil, logging is disabled.
	Logger *slog.Logger

	// EventLogger receives a trace event per settings change. If nil,
	// tracing is disabled.
	EventLogger log.Logger

	// StrictRestore aborts Init when the store holds a key under the
	// namespace that does not name a field. By default such keys are
	// logged and skipped.
	StrictRestore bool
}

// DefaultConfig returns the default registry configuration.
func DefaultConfig() Config {
	return Config{}
}

// maxCapacity is the largest field capacity.
const maxCapacity = 48

type slot struct {
	buf    [maxCapacity]byte
	n      int
	loaded bool
}

// Registry owns the in-memory copy of each field and keeps it in step with
// the persistent store.
type Registry struct {
	mu     sync.Mutex
	store  settings.Store
	config Config
	logger *slog.Logger

	initialized bool
	registered  bool
	slots       [fieldCount]slot

	onUpdated func()
}

// NewRegistry creates a registry over store with default configuration.
func NewRegistry(store settings.Store) *Registry {
	return NewRegistryWithConfig(store, DefaultConfig())
}

// NewRegistryWithConfig creates a registry over store with custom configuration.
func NewRegistryWithConfig(store settings.Store, config Config) *Registry {
	return &Registry{
		store:  store,
		config: config,
		logger: config.Logger,
	}
}

// Init initializes the store, registers the namespace handler and restores
// the persisted values. On failure no field is left loaded.
func (r *Registry) Init() error {
	r.mu.Lock()
	if r.initialized {
		r.mu.Unlock()
		return ErrAlreadyInitialized
	}
	r.clearLocked()
	r.mu.Unlock()

	r.debugLog("initializing settings store")
	if err := r.store.Init(); err != nil {
		return fmt.Errorf("%w: init store: %w", ErrPersistence, err)
	}

	r.mu.Lock()
	needsRegister := !r.registered
	r.mu.Unlock()
	if needsRegister {
		r.debugLog("registering settings handler", "namespace", Namespace)
		err := r.store.Register(settings.Handler{Name: Namespace, Set: r.restore})
		if err != nil && !errors.Is(err, settings.ErrHandlerExists) {
			return fmt.Errorf("%w: register %s: %w", ErrPersistence, Namespace, err)
		}
		r.mu.Lock()
		r.registered = true
		r.mu.Unlock()
	}

	r.debugLog("loading settings")
	if err := r.store.Load(); err != nil {
		r.mu.Lock()
		r.clearLocked()
		r.mu.Unlock()
		return fmt.Errorf("%w: load: %w", ErrPersistence, err)
	}

	r.mu.Lock()
	r.initialized = true
	r.mu.Unlock()
	return nil
}

// restore is the store handler for the namespace. It is called once per
// persisted key during Load.
func (r *Registry) restore(key string, v settings.ValueReader) error {
	f, ok := fieldForKey(key)
	if !ok || strings.Contains(key, settings.Separator) {
		if r.config.StrictRestore {
			return fmt.Errorf("%w: %s", ErrUnsupported, settings.Key(Namespace, key))
		}
		if r.logger != nil {
			r.logger.Warn("skipping unknown setting", "key", settings.Key(Namespace, key))
		}
		return nil
	}

	n := v.Len()
	if f.IsInteger() && n != f.Capacity() {
		return fmt.Errorf("%w: %s has %d bytes, want %d", ErrInvalidLength, f.Path(), n, f.Capacity())
	}
	if n > f.Capacity() {
		n = f.Capacity()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	s := &r.slots[f]
	s.buf = [maxCapacity]byte{}
	got, err := v.Read(s.buf[:n])
	if err != nil {
		s.buf = [maxCapacity]byte{}
		return fmt.Errorf("read %s: %w", f.Path(), err)
	}
	s.n = got
	s.loaded = true
	r.debugLog("restored setting", "field", f.String(), "len", got)
	r.traceSetting(log.SettingRestore, f, got)
	return nil
}

// Write persists v for f and, once the store accepts it, updates the
// in-memory copy. It returns the number of bytes written.
func (r *Registry) Write(f Field, v []byte) (int, error) {
	if !f.Valid() {
		return 0, ErrUnsupported
	}
	if len(v) > f.Capacity() {
		return 0, fmt.Errorf("%w: %s takes at most %d bytes, got %d", ErrInvalidOffset, f, f.Capacity(), len(v))
	}
	if f.IsInteger() && len(v) != f.Capacity() {
		return 0, fmt.Errorf("%w: %s takes %d bytes, got %d", ErrInvalidLength, f, f.Capacity(), len(v))
	}

	r.mu.Lock()
	if !r.initialized {
		r.mu.Unlock()
		return 0, ErrNotInitialized
	}

	r.debugLog("saving setting", "field", f.String(), "len", len(v))
	if err := r.store.SaveOne(f.Path(), v); err != nil {
		r.mu.Unlock()
		if r.logger != nil {
			r.logger.Error("setting save failed", "field", f.String(), "error", err)
		}
		r.traceError("save "+f.Path(), err)
		return 0, fmt.Errorf("%w: save %s: %w", ErrPersistence, f.Path(), err)
	}

	s := &r.slots[f]
	s.buf = [maxCapacity]byte{}
	copy(s.buf[:], v)
	s.n = len(v)
	s.loaded = true
	cb := r.onUpdated
	r.mu.Unlock()

	r.traceSetting(log.SettingSave, f, len(v))
	if cb != nil {
		cb()
	}
	return len(v), nil
}

// Read copies the cached value of f into dst and returns its length.
// It never touches the store.
func (r *Registry) Read(f Field, dst []byte) (int, error) {
	if !f.Valid() {
		return 0, ErrUnsupported
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	s := &r.slots[f]
	if !s.loaded {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, f)
	}
	if len(dst) < s.n {
		return 0, io.ErrShortBuffer
	}
	return copy(dst, s.buf[:s.n]), nil
}

// Value returns a copy of the cached value of f.
func (r *Registry) Value(f Field) ([]byte, error) {
	buf := make([]byte, f.Capacity())
	n, err := r.Read(f, buf)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

// Loaded reports whether f holds a value.
func (r *Registry) Loaded(f Field) bool {
	if !f.Valid() {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.slots[f].loaded
}

// Initialized reports whether Init has completed.
func (r *Registry) Initialized() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.initialized
}

// Reset clears every buffer and loaded flag. The store is not modified.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clearLocked()
	r.debugLog("settings reset")
	r.traceSetting(log.SettingReset, fieldCount, 0)
}

// Erase deletes every field from the store and then resets the registry.
// Fields deleted before a failure stay deleted.
func (r *Registry) Erase() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.initialized {
		return ErrNotInitialized
	}
	for _, f := range Fields() {
		if err := r.store.Delete(f.Path()); err != nil {
			r.traceError("delete "+f.Path(), err)
			return fmt.Errorf("%w: delete %s: %w", ErrPersistence, f.Path(), err)
		}
		r.slots[f] = slot{}
	}
	r.clearLocked()
	r.debugLog("settings erased")
	r.traceSetting(log.SettingErase, fieldCount, 0)
	return nil
}

// NeedsReset reports whether the stored PAN ID is the unprovisioned sentinel.
func (r *Registry) NeedsReset() bool {
	id, err := r.PANID()
	return err == nil && id == InvalidPANID
}

// OnUpdated sets the callback invoked after every successful Write.
// Only one callback is kept; nil clears it. The callback runs on the
// writer's goroutine after the registry lock is released.
func (r *Registry) OnUpdated(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onUpdated = fn
}

func (r *Registry) clearLocked() {
	for i := range r.slots {
		r.slots[i] = slot{}
	}
}

// traceSetting emits a settings event. Pass fieldCount for operations
// covering every field.
func (r *Registry) traceSetting(op log.SettingOp, f Field, n int) {
	if r.config.EventLogger == nil {
		return
	}
	ev := &log.SettingEvent{Op: op}
	if f.Valid() {
		ev.Field = f.String()
		ev.Length = n
	}
	log.Emit(r.config.EventLogger, log.Event{
		Layer:    log.LayerSettings,
		Category: log.CategorySetting,
		Setting:  ev,
	})
}

func (r *Registry) traceError(context string, err error) {
	if r.config.EventLogger == nil {
		return
	}
	log.Emit(r.config.EventLogger, log.Event{
		Layer:    log.LayerSettings,
		Category: log.CategoryError,
		Error: &log.ErrorEventData{
			Layer:   log.LayerSettings,
			Message: err.Error(),
			Context: context,
		},
	})
}

// debugLog logs a debug message if logging is enabled.
func (r *Registry) debugLog(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Debug(msg, args...)
	}
}
