package commands

import (
	"bytes"
	"strings"
	"testing"

	"github.com/otsetup/otsetup-go/pkg/log"
)

func TestFormatAccessEvent(t *testing.T) {
	event := log.Event{
		Timestamp:    testBase,
		ConnectionID: "abc12345-6789-0123-4567-890abcdef012",
		Direction:    log.DirectionIn,
		Layer:        log.LayerGATT,
		Category:     log.CategoryAccess,
		Access: &log.AccessEvent{
			Op:        log.AccessWrite,
			Field:     "PAN_ID",
			UUID:      "a8a9e49c-aa9a-d441-9bec-817bb4900d33",
			Length:    2,
			Data:      []byte{0xcd, 0xab},
			Committed: true,
		},
	}

	var buf bytes.Buffer
	formatEvent(&buf, event)
	output := buf.String()

	for _, want := range []string{
		"2026-01-28T10:15:32.123456Z",
		"[conn:abc12345]",
		"IN  GATT WRITE",
		"Field: PAN_ID (a8a9e49c-aa9a-d441-9bec-817bb4900d33)",
		"Offset: 0  Length: 2",
		"Data: cdab",
		"Committed",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got:\n%s", want, output)
		}
	}
}

func TestFormatRejectedAndRedacted(t *testing.T) {
	var buf bytes.Buffer
	formatEvent(&buf, log.Event{
		Access: &log.AccessEvent{Op: log.AccessRead, Field: "MASTERKEY", Status: 0x02},
	})
	if !strings.Contains(buf.String(), "Status: 0x02") {
		t.Errorf("expected status, got:\n%s", buf.String())
	}
	if !strings.Contains(buf.String(), "[conn:-]") {
		t.Errorf("expected placeholder connection, got:\n%s", buf.String())
	}

	buf.Reset()
	formatEvent(&buf, log.Event{
		Access: &log.AccessEvent{Op: log.AccessWrite, Field: "MASTERKEY", Length: 16, Redacted: true},
	})
	if !strings.Contains(buf.String(), "Data: <redacted>") {
		t.Errorf("expected redacted data, got:\n%s", buf.String())
	}
}

func TestFormatSettingAndState(t *testing.T) {
	var buf bytes.Buffer
	formatEvent(&buf, log.Event{
		Layer:   log.LayerSettings,
		Setting: &log.SettingEvent{Op: log.SettingErase},
	})
	if out := buf.String(); !strings.Contains(out, "SETTINGS ERASE") || !strings.Contains(out, "Field: <all>") {
		t.Errorf("unexpected setting output:\n%s", out)
	}

	buf.Reset()
	formatEvent(&buf, log.Event{
		RemoteAddr: "AA:BB:CC:DD:EE:FF",
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityConnection,
			OldState: "CONNECTED",
			NewState: "DISCONNECTED",
			Reason:   "pending write discarded",
		},
	})
	out := buf.String()
	for _, want := range []string{"State", "Entity: CONNECTION", "CONNECTED -> DISCONNECTED", "Reason: pending write discarded", "Peer: AA:BB:CC:DD:EE:FF"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output, got:\n%s", want, out)
		}
	}
}

func TestFormatErrorEvent(t *testing.T) {
	code := 5
	var buf bytes.Buffer
	formatEvent(&buf, log.Event{
		Category: log.CategoryError,
		Error:    &log.ErrorEventData{Layer: log.LayerSettings, Message: "flash busy", Code: &code, Context: "save ot/channel"},
	})
	out := buf.String()
	for _, want := range []string{"Error", "Layer: SETTINGS", "Message: flash busy", "Code: 5", "Context: save ot/channel"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output, got:\n%s", want, out)
		}
	}
}

func TestParseFlags(t *testing.T) {
	if l, err := ParseLayerFlag("GATT"); err != nil || l != log.LayerGATT {
		t.Errorf("ParseLayerFlag(GATT) = %v, %v", l, err)
	}
	if _, err := ParseLayerFlag("wire"); err == nil {
		t.Error("ParseLayerFlag(wire) should fail")
	}
	if d, err := ParseDirectionFlag("Out"); err != nil || d != log.DirectionOut {
		t.Errorf("ParseDirectionFlag(Out) = %v, %v", d, err)
	}
	if _, err := ParseDirectionFlag("sideways"); err == nil {
		t.Error("ParseDirectionFlag(sideways) should fail")
	}
	if c, err := ParseCategoryFlag("setting"); err != nil || c != log.CategorySetting {
		t.Errorf("ParseCategoryFlag(setting) = %v, %v", c, err)
	}
	if _, err := ParseCategoryFlag("message"); err == nil {
		t.Error("ParseCategoryFlag(message) should fail")
	}
}

func TestRunViewFilters(t *testing.T) {
	path := createTestLogFile(t, sessionEvents())

	var buf bytes.Buffer
	if err := RunView(path, ViewFilter{}, &buf); err != nil {
		t.Fatalf("RunView failed: %v", err)
	}
	if got := strings.Count(buf.String(), "[conn:"); got != 7 {
		t.Errorf("expected 7 events, got %d", got)
	}

	buf.Reset()
	if err := RunView(path, ViewFilter{Field: "xpanid"}, &buf); err != nil {
		t.Fatalf("RunView failed: %v", err)
	}
	if got := strings.Count(buf.String(), "Field: XPANID"); got != 3 {
		t.Errorf("expected 3 XPANID events, got %d:\n%s", got, buf.String())
	}

	buf.Reset()
	if err := RunView(path, ViewFilter{FailedOnly: true}, &buf); err != nil {
		t.Fatalf("RunView failed: %v", err)
	}
	if out := buf.String(); strings.Count(out, "[conn:") != 1 || !strings.Contains(out, "READ") {
		t.Errorf("expected only the rejected read, got:\n%s", out)
	}

	layer := log.LayerTransport
	buf.Reset()
	if err := RunView(path, ViewFilter{Layer: &layer}, &buf); err != nil {
		t.Fatalf("RunView failed: %v", err)
	}
	if got := strings.Count(buf.String(), "State"); got != 2 {
		t.Errorf("expected 2 transport events, got %d", got)
	}
}

func TestRunViewMissingFile(t *testing.T) {
	if err := RunView(t.TempDir()+"/missing.otlog", ViewFilter{}, &bytes.Buffer{}); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestFieldName(t *testing.T) {
	for in, want := range map[string]string{"panid": "PAN_ID", "NET_NAME": "NET_NAME", "masterkey": "MASTERKEY"} {
		got, err := FieldName(in)
		if err != nil || got != want {
			t.Errorf("FieldName(%q) = %q, %v, want %q", in, got, err, want)
		}
	}
	if _, err := FieldName("rssi"); err == nil {
		t.Error("FieldName(rssi) should fail")
	}
}
