package gattserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/otsetup/otsetup-go/pkg/log"
	"github.com/otsetup/otsetup-go/pkg/otsettings"
	"github.com/otsetup/otsetup-go/pkg/setupot"
	"tinygo.org/x/bluetooth"
)

// DefaultLocalName is advertised when Config.LocalName is empty.
const DefaultLocalName = "OT Setup"

// ErrAlreadyRunning is returned when Run is called twice.
var ErrAlreadyRunning = errors.New("gatt server already running")

// Config holds server configuration.
type Config struct {
	// LocalName is the advertised device name.
	LocalName string

	// Logger for debug output. If nil, logging is disabled.
	Logger *slog.Logger

	// EventLogger receives advertising state events. If nil, tracing is disabled.
	EventLogger log.Logger
}

// Server registers the setup service with a BLE adapter and advertises it.
type Server struct {
	adapter *bluetooth.Adapter
	svc     *setupot.Service
	config  Config
	logger  *slog.Logger

	mu      sync.Mutex
	running bool
	session string
	handles map[otsettings.Field]*bluetooth.Characteristic
}

// New creates a server for svc on adapter.
func New(adapter *bluetooth.Adapter, svc *setupot.Service, config Config) *Server {
	if config.LocalName == "" {
		config.LocalName = DefaultLocalName
	}
	return &Server{
		adapter: adapter,
		svc:     svc,
		config:  config,
		logger:  config.Logger,
		handles: make(map[otsettings.Field]*bluetooth.Characteristic),
	}
}

// Run enables the adapter, registers the service and advertises until ctx
// is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	if err := s.adapter.Enable(); err != nil {
		return fmt.Errorf("enable adapter: %w", err)
	}

	s.adapter.SetConnectHandler(func(device bluetooth.Device, connected bool) {
		s.handleConnect(device.Address.String(), connected)
	})

	service, err := s.buildService()
	if err != nil {
		return err
	}
	if err := s.adapter.AddService(service); err != nil {
		return fmt.Errorf("add service: %w", err)
	}

	s.svc.OnCommit(s.refresh)
	s.svc.OnReset(s.refreshAll)
	s.refreshAll()

	serviceUUID, err := toBluetoothUUID(setupot.ServiceUUID)
	if err != nil {
		return err
	}
	adv := s.adapter.DefaultAdvertisement()
	if err := adv.Configure(bluetooth.AdvertisementOptions{
		LocalName:    s.config.LocalName,
		ServiceUUIDs: []bluetooth.UUID{serviceUUID},
	}); err != nil {
		return fmt.Errorf("configure advertisement: %w", err)
	}
	if err := adv.Start(); err != nil {
		return fmt.Errorf("start advertising: %w", err)
	}
	s.debugLog("advertising started", "localName", s.config.LocalName)
	s.traceAdvertising("", "ADVERTISING", "")

	<-ctx.Done()

	if err := adv.Stop(); err != nil && s.logger != nil {
		s.logger.Warn("stop advertising failed", "error", err)
	}
	s.traceAdvertising("ADVERTISING", "STOPPED", ctx.Err().Error())
	return nil
}

// buildService converts the characteristic table into a bluetooth.Service.
func (s *Server) buildService() (*bluetooth.Service, error) {
	serviceUUID, err := toBluetoothUUID(setupot.ServiceUUID)
	if err != nil {
		return nil, err
	}

	service := &bluetooth.Service{UUID: serviceUUID}
	for _, c := range setupot.Characteristics() {
		charUUID, err := toBluetoothUUID(c.UUID)
		if err != nil {
			return nil, err
		}

		handle := &bluetooth.Characteristic{}
		s.handles[c.Field] = handle

		field := c.Field
		service.Characteristics = append(service.Characteristics, bluetooth.CharacteristicConfig{
			Handle: handle,
			UUID:   charUUID,
			Value:  make([]byte, 0, c.MaxLen),
			Flags:  characteristicFlags(c),
			WriteEvent: func(client bluetooth.Connection, offset int, value []byte) {
				s.handleWrite(fmt.Sprint(client), field, offset, value)
			},
		})
	}
	return service, nil
}

func (s *Server) handleWrite(client string, f otsettings.Field, offset int, value []byte) {
	conn := s.connectionID(client)
	if _, err := s.svc.Write(conn, f, value, offset, 0); err != nil && s.logger != nil {
		s.logger.Warn("characteristic write rejected",
			"conn", conn,
			"field", f.String(),
			"offset", offset,
			"error", err)
	}
}

func (s *Server) handleConnect(addr string, connected bool) {
	s.mu.Lock()
	var session string
	if connected {
		s.session = uuid.NewString()
		session = s.session
	} else {
		session = s.session
		s.session = ""
	}
	s.mu.Unlock()

	if connected {
		s.svc.Connected(session, addr)
		return
	}
	if session != "" {
		s.svc.Disconnected(session)
	}
}

// connectionID returns the current session, falling back to the stack's
// connection handle when no connect event was seen.
func (s *Server) connectionID(client string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session != "" {
		return s.session
	}
	return "conn-" + client
}

// refreshAll pushes the current value of every readable characteristic.
func (s *Server) refreshAll() {
	for _, c := range setupot.Characteristics() {
		s.refresh(c.Field)
	}
}

// refresh pushes the current wire value of f to the stack. The stack serves
// reads from the pushed value, so an unloaded field reads as empty.
func (s *Server) refresh(f otsettings.Field) {
	c, ok := setupot.Lookup(f)
	if !ok || !c.Properties.CanRead() {
		return
	}

	s.mu.Lock()
	handle := s.handles[f]
	s.mu.Unlock()
	if handle == nil {
		return
	}

	value, err := s.svc.WireValue(f)
	if err != nil {
		value = []byte{}
	}
	if _, err := handle.Write(value); err != nil && s.logger != nil {
		s.logger.Warn("characteristic update failed", "field", f.String(), "error", err)
	}
}

func (s *Server) traceAdvertising(oldState, newState, reason string) {
	log.Emit(s.config.EventLogger, log.Event{
		Layer:    log.LayerTransport,
		Category: log.CategoryState,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityAdvertising,
			OldState: oldState,
			NewState: newState,
			Reason:   reason,
		},
	})
}

// debugLog logs a debug message if logging is enabled.
func (s *Server) debugLog(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
