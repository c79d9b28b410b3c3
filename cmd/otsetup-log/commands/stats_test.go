package commands

import (
	"bytes"
	"strings"
	"testing"

	"github.com/otsetup/otsetup-go/pkg/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsAggregate(t *testing.T) {
	stats := newStats()
	for _, e := range sessionEvents() {
		stats.add(e)
	}

	assert.Equal(t, 7, stats.TotalEvents)
	assert.Equal(t, 4, stats.EventsByLayer[log.LayerGATT])
	assert.Equal(t, 1, stats.EventsByCategory[log.CategorySetting])
	assert.Len(t, stats.Connections, 1)

	xpanid := stats.Fields["XPANID"]
	require.NotNil(t, xpanid)
	assert.Equal(t, FieldStats{Writes: 1, Prepares: 1, Commits: 1}, *xpanid)

	key := stats.Fields["MASTERKEY"]
	require.NotNil(t, key)
	assert.Equal(t, FieldStats{Reads: 1, Writes: 1, Commits: 1, Rejected: 1}, *key)

	for _, c := range stats.Connections {
		assert.Equal(t, 6, c.Events)
		assert.Equal(t, 2, c.Commits)
		assert.Equal(t, "AA:BB:CC:DD:EE:FF", c.RemoteAddr)
	}
}

func TestRunStats(t *testing.T) {
	events := sessionEvents()
	events = append(events, log.Event{
		Timestamp: testBase, Category: log.CategoryError,
		Error: &log.ErrorEventData{Layer: log.LayerSettings, Message: "flash busy"},
	})
	path := createTestLogFile(t, events)

	var buf bytes.Buffer
	if err := RunStats(path, &buf); err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"Total Events: 8",
		"GATT:        4",
		"XPANID:      reads=0 writes=1 prepares=1 commits=1 rejected=0",
		"Connections: 1",
		"[3f2a9c1e] 6 events, 2 commits, duration 2s",
		"Peer: AA:BB:CC:DD:EE:FF",
		"Errors: 1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output, got:\n%s", want, out)
		}
	}
}

func TestRunStatsEmpty(t *testing.T) {
	path := createTestLogFile(t, nil)

	var buf bytes.Buffer
	require.NoError(t, RunStats(path, &buf))
	assert.Contains(t, buf.String(), "Total Events: 0")
	assert.NotContains(t, buf.String(), "Time Range")
}
