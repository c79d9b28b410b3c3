package otsettings

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// PANID returns the PAN ID in host byte order.
func (r *Registry) PANID() (uint16, error) {
	var b [2]byte
	if _, err := r.Read(PANID, b[:]); err != nil {
		return 0, err
	}
	return binary.NativeEndian.Uint16(b[:]), nil
}

// SetPANID stores the PAN ID.
func (r *Registry) SetPANID(id uint16) error {
	var b [2]byte
	binary.NativeEndian.PutUint16(b[:], id)
	_, err := r.Write(PANID, b[:])
	return err
}

// Channel returns the radio channel.
func (r *Registry) Channel() (uint8, error) {
	var b [1]byte
	if _, err := r.Read(Channel, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// SetChannel stores the radio channel.
func (r *Registry) SetChannel(ch uint8) error {
	_, err := r.Write(Channel, []byte{ch})
	return err
}

// NetName returns the network name.
func (r *Registry) NetName() (string, error) {
	return r.text(NetName)
}

// SetNetName stores the network name.
func (r *Registry) SetNetName(name string) error {
	return r.setText(NetName, name)
}

// XPANID returns the extended PAN ID.
func (r *Registry) XPANID() (string, error) {
	return r.text(XPANID)
}

// SetXPANID stores the extended PAN ID.
func (r *Registry) SetXPANID(xpanid string) error {
	return r.setText(XPANID, xpanid)
}

// MasterKey returns the network master key.
func (r *Registry) MasterKey() (string, error) {
	return r.text(MasterKey)
}

// SetMasterKey stores the network master key.
func (r *Registry) SetMasterKey(key string) error {
	return r.setText(MasterKey, key)
}

// text returns a text field up to its first NUL.
func (r *Registry) text(f Field) (string, error) {
	v, err := r.Value(f)
	if err != nil {
		return "", err
	}
	return string(TrimNUL(v)), nil
}

// setText stores s NUL terminated. One byte of the capacity is always
// kept for the terminator.
func (r *Registry) setText(f Field, s string) error {
	if len(s) >= f.Capacity() {
		return fmt.Errorf("%w: %s takes at most %d bytes, got %d", ErrInvalidOffset, f, f.Capacity()-1, len(s))
	}
	v := make([]byte, len(s)+1)
	copy(v, s)
	_, err := r.Write(f, v)
	return err
}

// TrimNUL returns b up to, not including, its first NUL byte.
func TrimNUL(b []byte) []byte {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return b[:i]
	}
	return b
}
