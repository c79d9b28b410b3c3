package otsettings

import (
	"fmt"
	"strings"

	"github.com/otsetup/otsetup-go/pkg/settings"
)

// Namespace is the store namespace holding all fields.
const Namespace = "ot"

// InvalidPANID marks an unprovisioned network. A device booting with this
// PAN ID resets its settings.
const InvalidPANID uint16 = 0xFFFF

// Field identifies one persisted network setting.
type Field uint8

// Fields.
const (
	PANID Field = iota
	Channel
	NetName
	XPANID
	MasterKey

	fieldCount
)

// Kind describes how a field's bytes are interpreted.
type Kind uint8

const (
	// KindUint16 is a two byte integer.
	KindUint16 Kind = iota
	// KindUint8 is a single byte integer.
	KindUint8
	// KindText is a NUL padded string.
	KindText
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindUint16:
		return "UINT16"
	case KindUint8:
		return "UINT8"
	case KindText:
		return "TEXT"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", k)
	}
}

type fieldInfo struct {
	name     string
	key      string
	capacity int
	kind     Kind
}

var fieldTable = [fieldCount]fieldInfo{
	PANID:     {name: "PAN_ID", key: "panid", capacity: 2, kind: KindUint16},
	Channel:   {name: "CHANNEL", key: "channel", capacity: 1, kind: KindUint8},
	NetName:   {name: "NET_NAME", key: "net_name", capacity: 17, kind: KindText},
	XPANID:    {name: "XPANID", key: "xpanid", capacity: 24, kind: KindText},
	MasterKey: {name: "MASTERKEY", key: "masterkey", capacity: 48, kind: KindText},
}

// Fields returns all fields in declaration order.
func Fields() []Field {
	out := make([]Field, 0, fieldCount)
	for f := Field(0); f < fieldCount; f++ {
		out = append(out, f)
	}
	return out
}

// Valid reports whether f is one of the known fields.
func (f Field) Valid() bool {
	return f < fieldCount
}

// String returns the field name.
func (f Field) String() string {
	if !f.Valid() {
		return fmt.Sprintf("UNKNOWN(%d)", uint8(f))
	}
	return fieldTable[f].name
}

// Key returns the key of the field inside the namespace.
func (f Field) Key() string {
	if !f.Valid() {
		return ""
	}
	return fieldTable[f].key
}

// Path returns the full store key, for example "ot/panid".
func (f Field) Path() string {
	if !f.Valid() {
		return ""
	}
	return settings.Key(Namespace, fieldTable[f].key)
}

// Capacity returns the buffer size of the field in bytes.
// Text capacities include room for a terminating NUL.
func (f Field) Capacity() int {
	if !f.Valid() {
		return 0
	}
	return fieldTable[f].capacity
}

// Kind returns how the field's bytes are interpreted.
func (f Field) Kind() Kind {
	if !f.Valid() {
		return KindText
	}
	return fieldTable[f].kind
}

// IsInteger reports whether the field holds a fixed width integer.
func (f Field) IsInteger() bool {
	k := f.Kind()
	return f.Valid() && (k == KindUint16 || k == KindUint8)
}

// ParseField resolves a field from its store key ("panid") or its name
// ("PAN_ID"), case-insensitively.
func ParseField(s string) (Field, error) {
	for f := Field(0); f < fieldCount; f++ {
		info := fieldTable[f]
		if strings.EqualFold(s, info.key) || strings.EqualFold(s, info.name) {
			return f, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupported, s)
}

// fieldForKey maps a short store key to its field.
func fieldForKey(key string) (Field, bool) {
	for f := Field(0); f < fieldCount; f++ {
		if fieldTable[f].key == key {
			return f, true
		}
	}
	return 0, false
}
