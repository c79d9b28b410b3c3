package commands

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/otsetup/otsetup-go/pkg/log"
)

var testBase = time.Date(2026, 1, 28, 10, 15, 32, 123456000, time.UTC)

// createTestLogFile writes events to a new trace file and returns its path.
func createTestLogFile(t *testing.T, events []log.Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.otlog")
	logger, err := log.NewFileLogger(path)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	for _, e := range events {
		logger.Log(e)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("failed to close logger: %v", err)
	}
	return path
}

// sessionEvents is a short BLE session: connect, a rejected read, a
// prepared XPANID write and its commit, then disconnect.
func sessionEvents() []log.Event {
	conn := "3f2a9c1e-0000-4000-8000-000000000001"
	at := func(ms int) time.Time { return testBase.Add(time.Duration(ms) * time.Millisecond) }
	return []log.Event{
		{
			Timestamp: at(0), ConnectionID: conn, RemoteAddr: "AA:BB:CC:DD:EE:FF",
			Layer: log.LayerTransport, Category: log.CategoryState,
			StateChange: &log.StateChangeEvent{Entity: log.StateEntityConnection, NewState: "CONNECTED"},
		},
		{
			Timestamp: at(10), ConnectionID: conn, Direction: log.DirectionOut,
			Layer: log.LayerGATT, Category: log.CategoryAccess,
			Access: &log.AccessEvent{Op: log.AccessRead, Field: "MASTERKEY", Status: 0x02},
		},
		{
			Timestamp: at(20), ConnectionID: conn, Direction: log.DirectionIn,
			Layer: log.LayerGATT, Category: log.CategoryAccess,
			Access: &log.AccessEvent{Op: log.AccessPrepareWrite, Field: "XPANID", Length: 8, Data: []byte("dead00be")},
		},
		{
			Timestamp: at(30), Layer: log.LayerSettings, Category: log.CategorySetting,
			Setting: &log.SettingEvent{Op: log.SettingSave, Field: "XPANID", Length: 17},
		},
		{
			Timestamp: at(31), ConnectionID: conn, Direction: log.DirectionIn,
			Layer: log.LayerGATT, Category: log.CategoryAccess,
			Access: &log.AccessEvent{Op: log.AccessWrite, Field: "XPANID", Offset: 8, Length: 8, Data: []byte("ef00cafe"), Committed: true},
		},
		{
			Timestamp: at(40), ConnectionID: conn, Direction: log.DirectionIn,
			Layer: log.LayerGATT, Category: log.CategoryAccess,
			Access: &log.AccessEvent{Op: log.AccessWrite, Field: "MASTERKEY", Length: 16, Redacted: true, Committed: true},
		},
		{
			Timestamp: at(2000), ConnectionID: conn,
			Layer: log.LayerTransport, Category: log.CategoryState,
			StateChange: &log.StateChangeEvent{Entity: log.StateEntityConnection, OldState: "CONNECTED", NewState: "DISCONNECTED"},
		},
	}
}
