package otsettings

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/otsetup/otsetup-go/pkg/settings"
)

// newTestRegistry returns an initialized registry over a fresh memory store.
func newTestRegistry(t *testing.T) (*Registry, *settings.MemoryStore) {
	t.Helper()
	store := settings.NewMemoryStore()
	reg := NewRegistry(store)
	if err := reg.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	return reg, store
}

func TestReadBeforeWriteNotFound(t *testing.T) {
	reg, _ := newTestRegistry(t)

	for _, f := range Fields() {
		buf := make([]byte, f.Capacity())
		if _, err := reg.Read(f, buf); !errors.Is(err, ErrNotFound) {
			t.Errorf("Read(%s) error = %v, want ErrNotFound", f, err)
		}
		if reg.Loaded(f) {
			t.Errorf("Loaded(%s) = true, want false", f)
		}
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	reg, store := newTestRegistry(t)

	tests := []struct {
		field Field
		value []byte
	}{
		{PANID, []byte{0x34, 0x12}},
		{Channel, []byte{0x0B}},
		{NetName, []byte("OpenThread\x00")},
		{NetName, bytes.Repeat([]byte{'n'}, 17)},
		{XPANID, []byte("dead00beef00cafe")},
		{MasterKey, []byte("00112233445566778899aabbccddeeff")},
		{MasterKey, []byte{}},
	}

	for _, tt := range tests {
		n, err := reg.Write(tt.field, tt.value)
		if err != nil {
			t.Fatalf("Write(%s) error = %v", tt.field, err)
		}
		if n != len(tt.value) {
			t.Errorf("Write(%s) = %d, want %d", tt.field, n, len(tt.value))
		}

		got, err := reg.Value(tt.field)
		if err != nil {
			t.Fatalf("Value(%s) error = %v", tt.field, err)
		}
		if !bytes.Equal(got, tt.value) {
			t.Errorf("Value(%s) = %q, want %q", tt.field, got, tt.value)
		}
		if !reg.Loaded(tt.field) {
			t.Errorf("Loaded(%s) = false after write", tt.field)
		}

		stored, ok := store.Get(tt.field.Path())
		if !ok || !bytes.Equal(stored, tt.value) {
			t.Errorf("store[%s] = %q, want %q", tt.field.Path(), stored, tt.value)
		}
	}
}

func TestChannelScenario(t *testing.T) {
	reg, _ := newTestRegistry(t)

	if _, err := reg.Write(Channel, []byte{0x0B}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	ch, err := reg.Channel()
	if err != nil {
		t.Fatalf("Channel() error = %v", err)
	}
	if ch != 0x0B {
		t.Errorf("Channel() = %#x, want 0x0b", ch)
	}
	if !reg.Loaded(Channel) {
		t.Error("Loaded(CHANNEL) = false, want true")
	}
}

func TestWriteOverCapacity(t *testing.T) {
	reg, _ := newTestRegistry(t)

	if _, err := reg.Write(NetName, []byte("thread")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	_, err := reg.Write(NetName, bytes.Repeat([]byte{'x'}, NetName.Capacity()+1))
	if !errors.Is(err, ErrInvalidOffset) {
		t.Fatalf("Write(oversized) error = %v, want ErrInvalidOffset", err)
	}

	got, err := reg.Value(NetName)
	if err != nil {
		t.Fatalf("Value() error = %v", err)
	}
	if string(got) != "thread" {
		t.Errorf("Value() = %q, want prior value %q", got, "thread")
	}
	if !reg.Loaded(NetName) {
		t.Error("prior value should stay loaded")
	}
}

func TestWriteIntegerWidth(t *testing.T) {
	reg, _ := newTestRegistry(t)

	if _, err := reg.Write(PANID, []byte{0x01}); !errors.Is(err, ErrInvalidLength) {
		t.Errorf("Write(PANID, 1 byte) error = %v, want ErrInvalidLength", err)
	}
	if _, err := reg.Write(Channel, []byte{}); !errors.Is(err, ErrInvalidLength) {
		t.Errorf("Write(CHANNEL, empty) error = %v, want ErrInvalidLength", err)
	}
	if _, err := reg.Write(Channel, []byte{1, 2}); !errors.Is(err, ErrInvalidOffset) {
		t.Errorf("Write(CHANNEL, 2 bytes) error = %v, want ErrInvalidOffset", err)
	}
}

func TestUnsupportedField(t *testing.T) {
	reg, _ := newTestRegistry(t)
	bogus := Field(42)

	if _, err := reg.Write(bogus, []byte{1}); !errors.Is(err, ErrUnsupported) {
		t.Errorf("Write() error = %v, want ErrUnsupported", err)
	}
	if _, err := reg.Read(bogus, make([]byte, 4)); !errors.Is(err, ErrUnsupported) {
		t.Errorf("Read() error = %v, want ErrUnsupported", err)
	}
	if reg.Loaded(bogus) {
		t.Error("Loaded() = true for unknown field")
	}
	if bogus.String() != "UNKNOWN(42)" {
		t.Errorf("String() = %q", bogus.String())
	}
}

func TestReadShortBuffer(t *testing.T) {
	reg, _ := newTestRegistry(t)
	_ = reg.SetNetName("OpenThread")

	if _, err := reg.Read(NetName, make([]byte, 4)); !errors.Is(err, io.ErrShortBuffer) {
		t.Errorf("Read() error = %v, want io.ErrShortBuffer", err)
	}
}

func TestWriteBeforeInit(t *testing.T) {
	reg := NewRegistry(settings.NewMemoryStore())

	if _, err := reg.Write(Channel, []byte{11}); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Write() error = %v, want ErrNotInitialized", err)
	}
	if err := reg.Erase(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Erase() error = %v, want ErrNotInitialized", err)
	}
	if reg.Initialized() {
		t.Error("Initialized() = true before Init")
	}
}

func TestInitTwice(t *testing.T) {
	reg, _ := newTestRegistry(t)
	if err := reg.Init(); !errors.Is(err, ErrAlreadyInitialized) {
		t.Errorf("second Init() error = %v, want ErrAlreadyInitialized", err)
	}
}

func TestRestore(t *testing.T) {
	store := settings.NewMemoryStore()
	_ = store.Init()
	_ = store.SaveOne("ot/panid", []byte{0x34, 0x12})
	_ = store.SaveOne("ot/channel", []byte{15})
	_ = store.SaveOne("ot/net_name", []byte("OpenThread\x00"))
	_ = store.SaveOne("ot/xpanid", []byte("dead00beef00cafe\x00"))
	_ = store.SaveOne("other/net_name", []byte("ignored"))

	reg := NewRegistry(store)
	if err := reg.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	panID, err := reg.PANID()
	if err != nil {
		t.Fatalf("PANID() error = %v", err)
	}
	var want [2]byte
	copy(want[:], []byte{0x34, 0x12})
	if got := nativeBytes(panID); got != want {
		t.Errorf("PANID() bytes = %v, want %v", got, want)
	}

	if ch, _ := reg.Channel(); ch != 15 {
		t.Errorf("Channel() = %d, want 15", ch)
	}
	if name, _ := reg.NetName(); name != "OpenThread" {
		t.Errorf("NetName() = %q, want %q", name, "OpenThread")
	}
	if x, _ := reg.XPANID(); x != "dead00beef00cafe" {
		t.Errorf("XPANID() = %q", x)
	}
	if reg.Loaded(MasterKey) {
		t.Error("MASTERKEY loaded without a stored value")
	}
}

func TestRestoreTruncatesToCapacity(t *testing.T) {
	store := settings.NewMemoryStore()
	_ = store.Init()
	_ = store.SaveOne("ot/net_name", bytes.Repeat([]byte{'a'}, 40))

	reg := NewRegistry(store)
	if err := reg.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	v, _ := reg.Value(NetName)
	if len(v) != NetName.Capacity() {
		t.Errorf("restored len = %d, want %d", len(v), NetName.Capacity())
	}
}

func TestRestoreUnknownKey(t *testing.T) {
	seed := func() *settings.MemoryStore {
		store := settings.NewMemoryStore()
		_ = store.Init()
		_ = store.SaveOne("ot/channel", []byte{20})
		_ = store.SaveOne("ot/commissioner", []byte{1})
		_ = store.SaveOne("ot/net_name/extra", []byte{1})
		_ = store.SaveOne("ot/xpanid", []byte("abc"))
		return store
	}

	t.Run("Lenient", func(t *testing.T) {
		reg := NewRegistry(seed())
		if err := reg.Init(); err != nil {
			t.Fatalf("Init() error = %v", err)
		}
		if !reg.Loaded(Channel) || !reg.Loaded(XPANID) {
			t.Error("known keys should be restored around unknown ones")
		}
		if reg.Loaded(NetName) {
			t.Error("nested key should not restore NET_NAME")
		}
	})

	t.Run("Strict", func(t *testing.T) {
		reg := NewRegistryWithConfig(seed(), Config{StrictRestore: true})
		err := reg.Init()
		if !errors.Is(err, ErrUnsupported) || !errors.Is(err, ErrPersistence) {
			t.Fatalf("Init() error = %v, want ErrUnsupported and ErrPersistence", err)
		}
		for _, f := range Fields() {
			if reg.Loaded(f) {
				t.Errorf("Loaded(%s) = true after failed Init", f)
			}
		}
		if reg.Initialized() {
			t.Error("Initialized() = true after failed Init")
		}
	})
}

func TestRestoreBadIntegerWidth(t *testing.T) {
	store := settings.NewMemoryStore()
	_ = store.Init()
	_ = store.SaveOne("ot/panid", []byte{1, 2, 3})

	reg := NewRegistry(store)
	if err := reg.Init(); !errors.Is(err, ErrInvalidLength) {
		t.Fatalf("Init() error = %v, want ErrInvalidLength", err)
	}
	if reg.Loaded(PANID) {
		t.Error("PANID loaded after failed restore")
	}
}

func TestResetSentinelPANID(t *testing.T) {
	reg, store := newTestRegistry(t)

	_ = reg.SetChannel(11)
	_ = reg.SetNetName("OpenThread")
	if reg.NeedsReset() {
		t.Fatal("NeedsReset() = true without PAN ID")
	}
	if err := reg.SetPANID(InvalidPANID); err != nil {
		t.Fatalf("SetPANID() error = %v", err)
	}
	if !reg.NeedsReset() {
		t.Fatal("NeedsReset() = false with sentinel PAN ID")
	}

	reg.Reset()

	for _, f := range Fields() {
		if reg.Loaded(f) {
			t.Errorf("Loaded(%s) = true after Reset", f)
		}
	}
	if reg.NeedsReset() {
		t.Error("NeedsReset() = true after Reset")
	}
	// Reset leaves the store alone.
	if _, ok := store.Get("ot/channel"); !ok {
		t.Error("Reset removed a stored value")
	}
}

func TestErase(t *testing.T) {
	reg, store := newTestRegistry(t)
	_ = reg.SetChannel(11)
	_ = reg.SetMasterKey("00112233445566778899aabbccddeeff")

	if err := reg.Erase(); err != nil {
		t.Fatalf("Erase() error = %v", err)
	}
	if store.Keys() != 0 {
		t.Errorf("store has %d keys after Erase, want 0", store.Keys())
	}
	if reg.Loaded(Channel) || reg.Loaded(MasterKey) {
		t.Error("fields still loaded after Erase")
	}

	// The registry stays usable.
	if err := reg.SetChannel(12); err != nil {
		t.Errorf("SetChannel() after Erase error = %v", err)
	}
}

func TestOnUpdated(t *testing.T) {
	reg, _ := newTestRegistry(t)

	calls := 0
	reg.OnUpdated(func() { calls++ })

	_ = reg.SetChannel(11)
	if calls != 1 {
		t.Fatalf("callback called %d times, want 1", calls)
	}

	if _, err := reg.Write(NetName, make([]byte, 64)); err == nil {
		t.Fatal("oversized Write() succeeded")
	}
	if calls != 1 {
		t.Errorf("callback fired on failed write")
	}

	// Last registration wins.
	second := 0
	reg.OnUpdated(func() { second++ })
	_ = reg.SetChannel(12)
	if calls != 1 || second != 1 {
		t.Errorf("calls = %d, second = %d, want 1, 1", calls, second)
	}

	reg.OnUpdated(nil)
	_ = reg.SetChannel(13)
	if second != 1 {
		t.Error("cleared callback still fired")
	}
}

func TestCallbackMayReadRegistry(t *testing.T) {
	reg, _ := newTestRegistry(t)

	var seen uint8
	reg.OnUpdated(func() {
		seen, _ = reg.Channel()
	})
	_ = reg.SetChannel(25)
	if seen != 25 {
		t.Errorf("callback saw channel %d, want 25", seen)
	}
}

func TestTextSetters(t *testing.T) {
	reg, _ := newTestRegistry(t)

	if err := reg.SetNetName("0123456789abcdef"); err != nil {
		t.Fatalf("SetNetName(16 chars) error = %v", err)
	}
	if err := reg.SetNetName("0123456789abcdefg"); !errors.Is(err, ErrInvalidOffset) {
		t.Errorf("SetNetName(17 chars) error = %v, want ErrInvalidOffset", err)
	}
	name, _ := reg.NetName()
	if name != "0123456789abcdef" {
		t.Errorf("NetName() = %q", name)
	}

	if _, err := reg.MasterKey(); !errors.Is(err, ErrNotFound) {
		t.Errorf("MasterKey() error = %v, want ErrNotFound", err)
	}
}

func TestParseField(t *testing.T) {
	tests := []struct {
		in   string
		want Field
	}{
		{"panid", PANID},
		{"PAN_ID", PANID},
		{"channel", Channel},
		{"net_name", NetName},
		{"XPANID", XPANID},
		{"masterkey", MasterKey},
	}
	for _, tt := range tests {
		got, err := ParseField(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseField(%q) = %v, %v, want %v", tt.in, got, err, tt.want)
		}
	}
	if _, err := ParseField("pskc"); !errors.Is(err, ErrUnsupported) {
		t.Errorf("ParseField(pskc) error = %v, want ErrUnsupported", err)
	}
	if MasterKey.Path() != "ot/masterkey" {
		t.Errorf("Path() = %q", MasterKey.Path())
	}
}
