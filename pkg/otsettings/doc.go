// Package otsettings implements the OpenThread network settings registry.
//
// The registry owns five persisted fields: PAN ID, channel, network name,
// extended PAN ID and master key. Each field has a fixed capacity, an
// in-memory buffer and a loaded flag. Values live under the "ot" namespace
// of a settings.Store, one key per field:
//
//	ot/panid      2 bytes, uint16 in host byte order
//	ot/channel    1 byte
//	ot/net_name   up to 17 bytes
//	ot/xpanid     up to 24 bytes
//	ot/masterkey  up to 48 bytes
//
// # Lifecycle
//
// A Registry starts with every field unloaded. Init registers the namespace
// handler with the store and replays the persisted values. Afterwards the
// registry only changes through Write, Reset or Erase.
//
// A write is persisted first. The buffer and loaded flag change only when
// the store accepts the value, so a failed write leaves the previous value
// in place.
//
// # Restore
//
// During restore an unknown key under the namespace is logged and skipped.
// Config.StrictRestore makes it abort the restore instead.
//
// # Example
//
//	reg := otsettings.NewRegistry(settings.NewFileStore("/var/lib/otsetup/settings.cbor"))
//	if err := reg.Init(); err != nil {
//	    return err
//	}
//	panID, err := reg.PANID()
package otsettings
