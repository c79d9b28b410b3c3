package gattserver

import (
	"strings"
	"testing"

	"github.com/otsetup/otsetup-go/pkg/otsettings"
	"github.com/otsetup/otsetup-go/pkg/setupot"
	"tinygo.org/x/bluetooth"
)

func TestCharacteristicFlags(t *testing.T) {
	for _, c := range setupot.Characteristics() {
		flags := characteristicFlags(c)
		if !flags.Write() {
			t.Errorf("%s: write permission missing", c.Field)
		}
		wantRead := c.Field != otsettings.MasterKey
		if flags.Read() != wantRead {
			t.Errorf("%s: Read() = %v, want %v", c.Field, flags.Read(), wantRead)
		}
		if flags&bluetooth.CharacteristicNotifyPermission != 0 {
			t.Errorf("%s: unexpected notify permission", c.Field)
		}
	}
}

func TestToBluetoothUUID(t *testing.T) {
	for _, c := range setupot.Characteristics() {
		bu, err := toBluetoothUUID(c.UUID)
		if err != nil {
			t.Fatalf("toBluetoothUUID(%s) error = %v", c.UUID, err)
		}
		if !strings.EqualFold(bu.String(), c.UUID.String()) {
			t.Errorf("toBluetoothUUID(%s) = %s", c.UUID, bu)
		}
	}
}

func TestNewDefaultsLocalName(t *testing.T) {
	srv := New(bluetooth.DefaultAdapter, nil, Config{})
	if srv.config.LocalName != DefaultLocalName {
		t.Errorf("LocalName = %q, want %q", srv.config.LocalName, DefaultLocalName)
	}
}

func TestConnectionSessions(t *testing.T) {
	reg := otsettings.NewRegistry(nil)
	svc := setupot.NewService(reg)
	srv := New(bluetooth.DefaultAdapter, svc, Config{})

	if got := srv.connectionID("7"); got != "conn-7" {
		t.Errorf("connectionID without session = %q", got)
	}

	srv.handleConnect("C0:FF:EE:00:11:22", true)
	first := srv.connectionID("7")
	if first == "conn-7" || first == "" {
		t.Fatalf("connectionID after connect = %q, want session id", first)
	}

	srv.handleConnect("C0:FF:EE:00:11:22", false)
	srv.handleConnect("C0:FF:EE:00:11:22", true)
	if second := srv.connectionID("7"); second == first {
		t.Error("reconnect reused the previous session id")
	}
}
