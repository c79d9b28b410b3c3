package log

import (
	"time"
)

// Event represents a GATT access or settings event.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// ConnectionID identifies the BLE connection. Empty for local events.
	ConnectionID string `cbor:"2,keyasint,omitempty"`

	// Direction indicates data flow relative to the device.
	Direction Direction `cbor:"3,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"4,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// RemoteAddr is the peer BLE address, when the stack reports one.
	RemoteAddr string `cbor:"6,keyasint,omitempty"`

	// DeviceID identifies the device that wrote the trace.
	DeviceID string `cbor:"7,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Access      *AccessEvent      `cbor:"8,keyasint,omitempty"`  // Characteristic read/write
	Setting     *SettingEvent     `cbor:"9,keyasint,omitempty"`  // Registry mutation
	StateChange *StateChangeEvent `cbor:"10,keyasint,omitempty"` // Connection/advertising state
	Error       *ErrorEventData   `cbor:"11,keyasint,omitempty"` // Errors at any layer
}

// Direction indicates the direction of data flow.
type Direction uint8

const (
	// DirectionIn indicates data arriving from a client.
	DirectionIn Direction = 0
	// DirectionOut indicates data sent to a client.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates which layer captured the event.
type Layer uint8

const (
	// LayerTransport is the BLE stack adapter.
	LayerTransport Layer = 0
	// LayerGATT is the characteristic bridge.
	LayerGATT Layer = 1
	// LayerSettings is the settings registry and store.
	LayerSettings Layer = 2
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerTransport:
		return "TRANSPORT"
	case LayerGATT:
		return "GATT"
	case LayerSettings:
		return "SETTINGS"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryAccess indicates a characteristic read or write.
	CategoryAccess Category = 0
	// CategorySetting indicates a settings mutation.
	CategorySetting Category = 1
	// CategoryState indicates a state change.
	CategoryState Category = 2
	// CategoryError indicates an error event.
	CategoryError Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryAccess:
		return "ACCESS"
	case CategorySetting:
		return "SETTING"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// AccessEvent captures one characteristic access.
type AccessEvent struct {
	// Op is the kind of access.
	Op AccessOp `cbor:"1,keyasint"`

	// Field is the settings field name, for example "PAN_ID".
	Field string `cbor:"2,keyasint"`

	// UUID of the characteristic.
	UUID string `cbor:"3,keyasint,omitempty"`

	// Offset of the access within the value.
	Offset int `cbor:"4,keyasint,omitempty"`

	// Length is the number of bytes requested or carried.
	Length int `cbor:"5,keyasint"`

	// Data carried by the access. Empty when Redacted is set.
	Data []byte `cbor:"6,keyasint,omitempty"`

	// Redacted marks accesses whose data was withheld from the trace.
	Redacted bool `cbor:"7,keyasint,omitempty"`

	// Status is the ATT status returned to the client (0 on success).
	Status uint8 `cbor:"8,keyasint,omitempty"`

	// Committed marks a write that reached the registry.
	Committed bool `cbor:"9,keyasint,omitempty"`
}

// AccessOp is the kind of characteristic access.
type AccessOp uint8

const (
	// AccessRead is a read request.
	AccessRead AccessOp = 0
	// AccessWrite is a write that commits.
	AccessWrite AccessOp = 1
	// AccessPrepareWrite is a queued write that does not commit.
	AccessPrepareWrite AccessOp = 2
)

// String returns the access op name.
func (o AccessOp) String() string {
	switch o {
	case AccessRead:
		return "READ"
	case AccessWrite:
		return "WRITE"
	case AccessPrepareWrite:
		return "PREPARE_WRITE"
	default:
		return "UNKNOWN"
	}
}

// SettingEvent captures a change to the settings registry.
type SettingEvent struct {
	// Op is the mutation performed.
	Op SettingOp `cbor:"1,keyasint"`

	// Field is the settings field name. Empty for whole-registry operations.
	Field string `cbor:"2,keyasint,omitempty"`

	// Length of the stored value.
	Length int `cbor:"3,keyasint,omitempty"`
}

// SettingOp is the kind of settings mutation.
type SettingOp uint8

const (
	// SettingSave is a persisted write of one field.
	SettingSave SettingOp = 0
	// SettingRestore is the boot time restore pass.
	SettingRestore SettingOp = 1
	// SettingReset clears the in-memory values.
	SettingReset SettingOp = 2
	// SettingErase deletes the persisted values.
	SettingErase SettingOp = 3
)

// String returns the settings op name.
func (o SettingOp) String() string {
	switch o {
	case SettingSave:
		return "SAVE"
	case SettingRestore:
		return "RESTORE"
	case SettingReset:
		return "RESET"
	case SettingErase:
		return "ERASE"
	default:
		return "UNKNOWN"
	}
}

// StateChangeEvent captures connection and advertising lifecycle events.
type StateChangeEvent struct {
	// Entity being changed.
	Entity StateEntity `cbor:"1,keyasint"`

	// OldState is the previous state (may be empty).
	OldState string `cbor:"2,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"3,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"4,keyasint,omitempty"`
}

// StateEntity indicates what entity changed state.
type StateEntity uint8

const (
	// StateEntityConnection indicates a connection state change.
	StateEntityConnection StateEntity = 0
	// StateEntityAdvertising indicates an advertising state change.
	StateEntityAdvertising StateEntity = 1
	// StateEntityDevice indicates a device lifecycle change.
	StateEntityDevice StateEntity = 2
)

// String returns the state entity name.
func (s StateEntity) String() string {
	switch s {
	case StateEntityConnection:
		return "CONNECTION"
	case StateEntityAdvertising:
		return "ADVERTISING"
	case StateEntityDevice:
		return "DEVICE"
	default:
		return "UNKNOWN"
	}
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	// Layer where the error occurred.
	Layer Layer `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Code is the error code (if applicable).
	Code *int `cbor:"3,keyasint,omitempty"`

	// Context describes what operation was being performed.
	Context string `cbor:"4,keyasint,omitempty"`
}

// FieldName returns the settings field the event refers to, if any.
func (e Event) FieldName() string {
	switch {
	case e.Access != nil:
		return e.Access.Field
	case e.Setting != nil:
		return e.Setting.Field
	default:
		return ""
	}
}
