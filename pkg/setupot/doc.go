// Package setupot implements the OpenThread Setup GATT service.
//
// The service exposes the five otsettings fields as characteristics of one
// primary service. Each BLE access is handed to Service.Read or
// Service.Write, which translate between the wire encoding and the
// registry:
//
//   - PAN ID is little-endian on the wire and host order in the registry.
//   - Channel is a single raw byte.
//   - Text fields are sent up to their first NUL and stored NUL terminated.
//
// # Long Writes
//
// Values larger than one ATT PDU arrive as a series of prepare writes
// followed by an execute. Prepared fragments are assembled in a buffer owned
// by the connection. A write at offset 0 restarts assembly. Nothing reaches
// the registry until the final (non-prepare) write, so a read in between
// returns the previously committed value. Disconnected drops any half
// assembled value.
//
// # Errors
//
// Failures are reported as ATTError values ready to be returned to the
// client, for example ErrInvalidOffset when a fragment would overflow the
// characteristic.
//
// # Example
//
//	svc := setupot.NewService(reg)
//	svc.OnUpdated(func() { log.Println("network settings changed") })
//
//	// From the BLE stack's write callback:
//	n, err := svc.Write(connID, otsettings.Channel, []byte{15}, 0, 0)
package setupot
