package setupot

import (
	"strings"

	"github.com/google/uuid"
	"github.com/otsetup/otsetup-go/pkg/otsettings"
)

// ServiceUUID is the OpenThread Setup primary service.
var ServiceUUID = uuid.MustParse("a8a9e49c-aa9a-d441-9bec-817bb4900d30")

// Property is the set of characteristic properties advertised to clients.
type Property uint8

const (
	// PropRead allows reading the characteristic.
	PropRead Property = 1 << iota

	// PropWrite allows writing the characteristic.
	PropWrite
)

// CanRead returns true if reading is advertised.
func (p Property) CanRead() bool { return p&PropRead != 0 }

// CanWrite returns true if writing is advertised.
func (p Property) CanWrite() bool { return p&PropWrite != 0 }

// String returns a string representation of the properties.
func (p Property) String() string {
	var parts []string
	if p.CanRead() {
		parts = append(parts, "READ")
	}
	if p.CanWrite() {
		parts = append(parts, "WRITE")
	}
	if len(parts) == 0 {
		return "NONE"
	}
	return strings.Join(parts, "|")
}

// Permission is the set of attribute permissions enforced by the stack.
type Permission uint8

const (
	// PermReadEncrypt requires an encrypted link for reads.
	PermReadEncrypt Permission = 1 << iota

	// PermWriteEncrypt requires an encrypted link for writes.
	PermWriteEncrypt

	// PermPrepareWrite allows queued (long) writes.
	PermPrepareWrite
)

// Has returns true if all of perm are set.
func (p Permission) Has(perm Permission) bool { return p&perm == perm }

// String returns a string representation of the permissions.
func (p Permission) String() string {
	var parts []string
	if p.Has(PermReadEncrypt) {
		parts = append(parts, "READ_ENCRYPT")
	}
	if p.Has(PermWriteEncrypt) {
		parts = append(parts, "WRITE_ENCRYPT")
	}
	if p.Has(PermPrepareWrite) {
		parts = append(parts, "PREPARE_WRITE")
	}
	if len(parts) == 0 {
		return "NONE"
	}
	return strings.Join(parts, "|")
}

// Characteristic describes one setting exposed over GATT.
type Characteristic struct {
	Field       otsettings.Field
	UUID        uuid.UUID
	Properties  Property
	Permissions Permission

	// MaxLen is the largest value accepted on the wire.
	MaxLen int
}

// characteristicUUID derives a characteristic UUID from the service UUID.
// The UUIDs differ only in their last byte.
func characteristicUUID(last byte) uuid.UUID {
	u := ServiceUUID
	u[15] = last
	return u
}

// wireMax returns the largest wire value for f. Text fields keep one byte of
// their capacity for the terminating NUL.
func wireMax(f otsettings.Field) int {
	if f.Kind() == otsettings.KindText {
		return f.Capacity() - 1
	}
	return f.Capacity()
}

var characteristics = []Characteristic{
	{
		Field:       otsettings.Channel,
		UUID:        characteristicUUID(0x31),
		Properties:  PropRead | PropWrite,
		Permissions: PermReadEncrypt | PermWriteEncrypt,
		MaxLen:      wireMax(otsettings.Channel),
	},
	{
		Field:       otsettings.NetName,
		UUID:        characteristicUUID(0x32),
		Properties:  PropRead | PropWrite,
		Permissions: PermReadEncrypt | PermWriteEncrypt,
		MaxLen:      wireMax(otsettings.NetName),
	},
	{
		Field:       otsettings.PANID,
		UUID:        characteristicUUID(0x33),
		Properties:  PropRead | PropWrite,
		Permissions: PermReadEncrypt | PermWriteEncrypt,
		MaxLen:      wireMax(otsettings.PANID),
	},
	{
		Field:       otsettings.XPANID,
		UUID:        characteristicUUID(0x34),
		Properties:  PropRead | PropWrite,
		Permissions: PermReadEncrypt | PermWriteEncrypt | PermPrepareWrite,
		MaxLen:      wireMax(otsettings.XPANID),
	},
	{
		Field:       otsettings.MasterKey,
		UUID:        characteristicUUID(0x35),
		Properties:  PropWrite,
		Permissions: PermWriteEncrypt | PermPrepareWrite,
		MaxLen:      wireMax(otsettings.MasterKey),
	},
}

// Characteristics returns the characteristic table in declaration order.
func Characteristics() []Characteristic {
	return append([]Characteristic(nil), characteristics...)
}

// Lookup returns the characteristic for f.
func Lookup(f otsettings.Field) (Characteristic, bool) {
	for _, c := range characteristics {
		if c.Field == f {
			return c, true
		}
	}
	return Characteristic{}, false
}

// LookupUUID returns the characteristic with the given UUID.
func LookupUUID(u uuid.UUID) (Characteristic, bool) {
	for _, c := range characteristics {
		if c.UUID == u {
			return c, true
		}
	}
	return Characteristic{}, false
}
