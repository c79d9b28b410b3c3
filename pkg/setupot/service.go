package setupot

import (
	"encoding/binary"
	"log/slog"
	"slices"
	"sync"

	"github.com/otsetup/otsetup-go/pkg/log"
	"github.com/otsetup/otsetup-go/pkg/otsettings"
)

// WriteFlag modifies a write request.
type WriteFlag uint8

const (
	// FlagPrepare marks a queued write fragment that must not commit.
	FlagPrepare WriteFlag = 1 << iota
)

// Config holds service configuration.
type Config struct {
	// Logger for debug output. If nil, logging is disabled.
	Logger *slog.Logger

	// EventLogger receives a trace event per access. If nil, tracing is disabled.
	EventLogger log.Logger

	// DeviceID is stamped on trace events.
	DeviceID string
}

// assembly is a write in progress for one characteristic.
type assembly struct {
	buf [48]byte
	n   int
}

// Service bridges GATT accesses to an otsettings.Registry.
type Service struct {
	reg    *otsettings.Registry
	config Config
	logger *slog.Logger
	trace  log.Logger

	mu       sync.Mutex
	pending  map[string]map[otsettings.Field]*assembly
	onChange []func(otsettings.Field)
	onReset  []func()
}

// NewService creates a service over reg with default configuration.
func NewService(reg *otsettings.Registry) *Service {
	return NewServiceWithConfig(reg, Config{})
}

// NewServiceWithConfig creates a service over reg with custom configuration.
func NewServiceWithConfig(reg *otsettings.Registry, config Config) *Service {
	return &Service{
		reg:     reg,
		config:  config,
		logger:  config.Logger,
		trace:   config.EventLogger,
		pending: make(map[string]map[otsettings.Field]*assembly),
	}
}

// Registry returns the registry served by the service.
func (s *Service) Registry() *otsettings.Registry {
	return s.reg
}

// OnUpdated sets the callback invoked after every successful committed
// write. Only one callback is kept; nil clears it.
func (s *Service) OnUpdated(cb func()) {
	s.reg.OnUpdated(cb)
}

// OnCommit registers a callback invoked with the field after each write
// committed through the service. Used by transports that push values.
func (s *Service) OnCommit(fn func(otsettings.Field)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = append(s.onChange, fn)
}

// OnReset registers a callback invoked after every Reset or Erase
// through the service.
func (s *Service) OnReset(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onReset = append(s.onReset, fn)
}

// Reset clears the in-memory settings and notifies reset observers.
func (s *Service) Reset() {
	s.reg.Reset()
	s.notifyReset()
}

// Erase deletes the persisted settings and notifies reset observers. On
// failure the fields deleted so far are gone, so observers are notified too.
func (s *Service) Erase() error {
	err := s.reg.Erase()
	s.notifyReset()
	return err
}

func (s *Service) notifyReset() {
	s.mu.Lock()
	observers := slices.Clone(s.onReset)
	s.mu.Unlock()
	for _, fn := range observers {
		fn()
	}
}

// Read serves a read of f for conn. It returns at most maxLen bytes of the
// wire value starting at offset. A maxLen of zero or less means no limit.
func (s *Service) Read(conn string, f otsettings.Field, offset, maxLen int) ([]byte, error) {
	c, ok := Lookup(f)
	if !ok {
		return nil, ErrRequestNotSupported
	}
	if !c.Properties.CanRead() {
		s.traceAccess(conn, c, log.AccessRead, offset, 0, nil, ErrReadNotPermitted, false)
		return nil, ErrReadNotPermitted
	}

	value, err := s.WireValue(f)
	if err != nil {
		s.debugLog("read failed", "conn", conn, "field", f.String(), "error", err)
		s.traceAccess(conn, c, log.AccessRead, offset, 0, nil, ErrRequestNotSupported, false)
		return nil, ErrRequestNotSupported
	}
	if offset < 0 || offset > len(value) {
		s.traceAccess(conn, c, log.AccessRead, offset, 0, nil, ErrInvalidOffset, false)
		return nil, ErrInvalidOffset
	}

	end := len(value)
	if maxLen > 0 && offset+maxLen < end {
		end = offset + maxLen
	}
	out := value[offset:end]
	s.traceAccess(conn, c, log.AccessRead, offset, len(out), out, 0, false)
	return out, nil
}

// WireValue returns the full wire encoding of the current value of f.
func (s *Service) WireValue(f otsettings.Field) ([]byte, error) {
	v, err := s.reg.Value(f)
	if err != nil {
		return nil, err
	}

	switch f.Kind() {
	case otsettings.KindUint16:
		out := make([]byte, 2)
		binary.LittleEndian.PutUint16(out, binary.NativeEndian.Uint16(v))
		return out, nil
	case otsettings.KindText:
		return otsettings.TrimNUL(v), nil
	default:
		return v, nil
	}
}

// Write handles a write of data at offset for conn. A prepare write is
// buffered and returns 0. A final write commits the assembled value to the
// registry and returns len(data). A write at a non-zero offset with nothing
// pending starts from the committed value, so bytes before offset are kept.
func (s *Service) Write(conn string, f otsettings.Field, data []byte, offset int, flags WriteFlag) (int, error) {
	c, ok := Lookup(f)
	if !ok {
		return 0, ErrRequestNotSupported
	}

	prepare := flags&FlagPrepare != 0
	op := log.AccessWrite
	if prepare {
		op = log.AccessPrepareWrite
	}

	if !c.Properties.CanWrite() || (prepare && !c.Permissions.Has(PermPrepareWrite)) {
		s.traceAccess(conn, c, op, offset, len(data), data, ErrWriteNotPermitted, false)
		return 0, ErrWriteNotPermitted
	}
	if offset < 0 || offset+len(data) > c.MaxLen {
		s.traceAccess(conn, c, op, offset, len(data), data, ErrInvalidOffset, false)
		return 0, ErrInvalidOffset
	}

	var committed []byte
	if offset > 0 {
		committed, _ = s.WireValue(f)
	}

	s.mu.Lock()
	a, created := s.assemblyLocked(conn, f)
	switch {
	case offset == 0:
		*a = assembly{}
	case created:
		a.n = copy(a.buf[:], committed)
	}
	copy(a.buf[offset:], data)
	if end := offset + len(data); end > a.n {
		a.n = end
	}

	if prepare {
		s.mu.Unlock()
		s.traceAccess(conn, c, op, offset, len(data), data, 0, false)
		return 0, nil
	}

	value := s.commitValue(f, a)
	delete(s.pending[conn], f)
	if len(s.pending[conn]) == 0 {
		delete(s.pending, conn)
	}
	s.mu.Unlock()

	if _, err := s.reg.Write(f, value); err != nil {
		att := ATTErrorFor(err)
		if s.logger != nil {
			s.logger.Warn("write rejected", "conn", conn, "field", f.String(), "status", att.String(), "error", err)
		}
		s.traceAccess(conn, c, op, offset, len(data), data, att, false)
		return 0, att
	}

	s.debugLog("setting committed", "conn", conn, "field", f.String(), "len", len(value))
	s.traceAccess(conn, c, op, offset, len(data), data, 0, true)

	s.mu.Lock()
	observers := slices.Clone(s.onChange)
	s.mu.Unlock()
	for _, fn := range observers {
		fn(f)
	}
	return len(data), nil
}

// commitValue converts an assembled wire value into its registry form.
func (s *Service) commitValue(f otsettings.Field, a *assembly) []byte {
	switch f.Kind() {
	case otsettings.KindUint16:
		v := make([]byte, 2)
		binary.NativeEndian.PutUint16(v, binary.LittleEndian.Uint16(a.buf[:2]))
		return v
	case otsettings.KindUint8:
		return []byte{a.buf[0]}
	default:
		text := otsettings.TrimNUL(a.buf[:a.n])
		v := make([]byte, len(text)+1)
		copy(v, text)
		return v
	}
}

// assemblyLocked returns the assembly for conn and f, reporting whether it
// was just created.
func (s *Service) assemblyLocked(conn string, f otsettings.Field) (*assembly, bool) {
	byField, ok := s.pending[conn]
	if !ok {
		byField = make(map[otsettings.Field]*assembly)
		s.pending[conn] = byField
	}
	a, ok := byField[f]
	if !ok {
		a = &assembly{}
		byField[f] = a
	}
	return a, !ok
}

// Connected records a new client connection.
func (s *Service) Connected(conn, remoteAddr string) {
	s.debugLog("client connected", "conn", conn, "addr", remoteAddr)
	log.Emit(s.trace, log.Event{
		ConnectionID: conn,
		RemoteAddr:   remoteAddr,
		DeviceID:     s.config.DeviceID,
		Layer:        log.LayerTransport,
		Category:     log.CategoryState,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityConnection,
			NewState: "CONNECTED",
		},
	})
}

// Disconnected drops every write in progress for conn.
func (s *Service) Disconnected(conn string) {
	s.mu.Lock()
	dropped := len(s.pending[conn])
	delete(s.pending, conn)
	s.mu.Unlock()

	s.debugLog("client disconnected", "conn", conn, "droppedWrites", dropped)
	reason := ""
	if dropped > 0 {
		reason = "pending write discarded"
	}
	log.Emit(s.trace, log.Event{
		ConnectionID: conn,
		DeviceID:     s.config.DeviceID,
		Layer:        log.LayerTransport,
		Category:     log.CategoryState,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityConnection,
			OldState: "CONNECTED",
			NewState: "DISCONNECTED",
			Reason:   reason,
		},
	})
}

// Pending reports whether conn has a write in progress for f.
func (s *Service) Pending(conn string, f otsettings.Field) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[conn][f]
	return ok
}

// traceAccess emits an access event. Master key bytes are never traced.
func (s *Service) traceAccess(conn string, c Characteristic, op log.AccessOp, offset, length int, data []byte, status ATTError, committed bool) {
	if s.trace == nil {
		return
	}

	dir := log.DirectionIn
	if op == log.AccessRead {
		dir = log.DirectionOut
	}
	access := &log.AccessEvent{
		Op:        op,
		Field:     c.Field.String(),
		UUID:      c.UUID.String(),
		Offset:    offset,
		Length:    length,
		Status:    uint8(status),
		Committed: committed,
	}
	if c.Field == otsettings.MasterKey {
		access.Redacted = len(data) > 0
	} else if len(data) > 0 {
		access.Data = append([]byte(nil), data...)
	}

	log.Emit(s.trace, log.Event{
		ConnectionID: conn,
		Direction:    dir,
		DeviceID:     s.config.DeviceID,
		Layer:        log.LayerGATT,
		Category:     log.CategoryAccess,
		Access:       access,
	})
}

// debugLog logs a debug message if logging is enabled.
func (s *Service) debugLog(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
