// Package settings provides a small persistent key-value store with the
// semantics of the Zephyr settings subsystem.
//
// Keys are hierarchical strings separated by "/". The first segment is the
// namespace. Subsystems register a Handler for their namespace and the store
// replays every persisted key of that namespace to the handler during Load:
//
//	store := settings.NewFileStore("/var/lib/otsetup/settings.cbor")
//	if err := store.Init(); err != nil {
//	    return err
//	}
//	_ = store.Register(settings.Handler{
//	    Name: "ot",
//	    Set: func(key string, r settings.ValueReader) error {
//	        // key is "panid" for the stored key "ot/panid"
//	        return nil
//	    },
//	})
//	err := store.Load()
//
// Two backends are provided. MemoryStore keeps everything in a map and is
// useful for tests and volatile devices. FileStore appends CBOR records to a
// single file and replays them on Init, keeping the last record per key, in
// the manner of the settings file backend used on flash.
package settings
