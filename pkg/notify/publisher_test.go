package notify

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/otsetup/otsetup-go/pkg/otsettings"
	"github.com/otsetup/otsetup-go/pkg/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

// stubToken is a completed paho token carrying err.
type stubToken struct {
	err     error
	pending bool
}

func (t *stubToken) Wait() bool                     { return !t.pending }
func (t *stubToken) WaitTimeout(time.Duration) bool { return !t.pending }
func (t *stubToken) Error() error                   { return t.err }

func (t *stubToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	if !t.pending {
		close(ch)
	}
	return ch
}

type fakeClient struct {
	sent         []published
	token        *stubToken
	disconnected bool
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	c.sent = append(c.sent, published{topic, qos, retained, payload.([]byte)})
	if c.token != nil {
		return c.token
	}
	return &paho.DummyToken{}
}

func (c *fakeClient) Disconnect(uint) { c.disconnected = true }

func newRegistry(t *testing.T) *otsettings.Registry {
	t.Helper()
	reg := otsettings.NewRegistry(settings.NewMemoryStore())
	require.NoError(t, reg.Init())
	return reg
}

func TestClientOptionsFromURL(t *testing.T) {
	tests := []struct {
		url    string
		server string
		prefix string
		user   string
		pass   string
		client string
	}{
		{url: "mqtt://broker:1883", server: "tcp://broker:1883"},
		{url: "//broker:1883/site/a", server: "tcp://broker:1883", prefix: "site/a"},
		{url: "ssl://broker:8883/", server: "ssl://broker:8883"},
		{url: "ws://u:p@broker:9001/x?client-id=dev1", server: "ws://broker:9001", prefix: "x", user: "u", pass: "p", client: "dev1"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			opts, prefix, err := ClientOptionsFromURL(tt.url)
			require.NoError(t, err)
			require.Len(t, opts.Servers, 1)
			assert.Equal(t, tt.server, opts.Servers[0].String())
			assert.Equal(t, tt.prefix, prefix)
			assert.Equal(t, tt.user, opts.Username)
			assert.Equal(t, tt.pass, opts.Password)
			assert.Equal(t, tt.client, opts.ClientID)
			assert.True(t, opts.AutoReconnect)
			assert.True(t, opts.CleanSession)
		})
	}
}

func TestClientOptionsFromURLInvalid(t *testing.T) {
	_, _, err := ClientOptionsFromURL("broker-without-scheme")
	assert.Error(t, err)

	_, _, err = ClientOptionsFromURL("mqtt://%zz")
	assert.Error(t, err)
}

func TestJoinTopic(t *testing.T) {
	assert.Equal(t, DefaultTopic, joinTopic("", ""))
	assert.Equal(t, "site/"+DefaultTopic, joinTopic("site", ""))
	assert.Equal(t, "site/net", joinTopic("site", "/net"))
	assert.Equal(t, "net", joinTopic("", "net"))
}

func TestSnapshotOmitsUnloadedAndSecret(t *testing.T) {
	reg := newRegistry(t)
	require.NoError(t, reg.SetChannel(15))
	require.NoError(t, reg.SetMasterKey("00112233445566778899aabbccddeeff"))

	pub := NewPublisher(&fakeClient{}, Config{DeviceID: "dev-1"})
	pub.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	payload, err := json.Marshal(pub.Snapshot(reg))
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(payload, &got))
	assert.Equal(t, map[string]any{
		"device_id":     "dev-1",
		"channel":       float64(15),
		"masterkey_set": true,
		"updated_at":    "2026-01-02T03:04:05Z",
	}, got)
	assert.NotContains(t, string(payload), "00112233")
}

func TestPublish(t *testing.T) {
	reg := newRegistry(t)
	require.NoError(t, reg.SetPANID(0xABCD))
	require.NoError(t, reg.SetNetName("OpenThread"))
	require.NoError(t, reg.SetXPANID("dead00beef00cafe"))

	client := &fakeClient{}
	pub := NewPublisher(client, Config{Topic: "home/ot", QoS: 1})
	require.NoError(t, pub.Publish(reg))

	require.Len(t, client.sent, 1)
	msg := client.sent[0]
	assert.Equal(t, "home/ot", msg.topic)
	assert.Equal(t, byte(1), msg.qos)
	assert.True(t, msg.retained)

	var snap Snapshot
	require.NoError(t, json.Unmarshal(msg.payload, &snap))
	require.NotNil(t, snap.PANID)
	assert.Equal(t, uint16(0xABCD), *snap.PANID)
	assert.Nil(t, snap.Channel)
	require.NotNil(t, snap.NetName)
	assert.Equal(t, "OpenThread", *snap.NetName)
	require.NotNil(t, snap.XPANID)
	assert.Equal(t, "dead00beef00cafe", *snap.XPANID)
	assert.False(t, snap.MasterKeySet)
}

func TestPublishErrors(t *testing.T) {
	reg := newRegistry(t)
	broker := errors.New("not authorized")

	pub := NewPublisher(&fakeClient{token: &stubToken{err: broker}}, Config{})
	assert.ErrorIs(t, pub.Publish(reg), broker)

	pub = NewPublisher(&fakeClient{token: &stubToken{pending: true}}, Config{Timeout: time.Millisecond})
	assert.ErrorIs(t, pub.Publish(reg), ErrTimeout)
	assert.Equal(t, DefaultTopic, pub.Topic())
}

func TestHookPublishesOnUpdate(t *testing.T) {
	reg := newRegistry(t)
	client := &fakeClient{}
	pub := NewPublisher(client, Config{})
	reg.OnUpdated(pub.Hook(reg))

	require.NoError(t, reg.SetChannel(20))
	require.NoError(t, reg.SetChannel(21))
	require.Len(t, client.sent, 2)

	var snap Snapshot
	require.NoError(t, json.Unmarshal(client.sent[1].payload, &snap))
	require.NotNil(t, snap.Channel)
	assert.Equal(t, uint8(21), *snap.Channel)

	require.NoError(t, pub.Close())
	assert.True(t, client.disconnected)
}
