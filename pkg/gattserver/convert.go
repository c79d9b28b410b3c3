package gattserver

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/otsetup/otsetup-go/pkg/setupot"
	"tinygo.org/x/bluetooth"
)

// characteristicFlags maps characteristic properties to stack permissions.
// Link encryption is negotiated by the host stack and has no flag here.
func characteristicFlags(c setupot.Characteristic) bluetooth.CharacteristicPermissions {
	var flags bluetooth.CharacteristicPermissions
	if c.Properties.CanRead() {
		flags |= bluetooth.CharacteristicReadPermission
	}
	if c.Properties.CanWrite() {
		flags |= bluetooth.CharacteristicWritePermission
	}
	return flags
}

func toBluetoothUUID(u uuid.UUID) (bluetooth.UUID, error) {
	bu, err := bluetooth.ParseUUID(u.String())
	if err != nil {
		return bluetooth.UUID{}, fmt.Errorf("parse uuid %s: %w", u, err)
	}
	return bu, nil
}
