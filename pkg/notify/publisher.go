package notify

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/otsetup/otsetup-go/pkg/otsettings"
)

// DefaultTopic is the settings topic used when the broker URL has no path.
const DefaultTopic = "otsetup/settings"

// DefaultTimeout bounds how long a publish or connect may take.
const DefaultTimeout = 5 * time.Second

// ErrTimeout is returned when the broker does not acknowledge in time.
var ErrTimeout = errors.New("mqtt operation timed out")

// Client is the subset of paho.Client used by the publisher.
type Client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Disconnect(quiesce uint)
}

// Config holds publisher configuration.
type Config struct {
	// BrokerURL is the broker address, for example "mqtt://host:1883/prefix".
	// The path, if any, becomes the topic prefix.
	BrokerURL string

	// Topic is appended to the prefix. Defaults to DefaultTopic.
	Topic string

	// QoS is the MQTT quality of service level for publishes.
	QoS byte

	// DeviceID identifies the device in snapshots and is the default client ID.
	DeviceID string

	// Timeout bounds connect and publish. Defaults to DefaultTimeout.
	Timeout time.Duration

	// Logger for debug output. If nil, logging is disabled.
	Logger *slog.Logger
}

// Snapshot is the published view of the registry.
type Snapshot struct {
	DeviceID     string    `json:"device_id,omitempty"`
	PANID        *uint16   `json:"panid,omitempty"`
	Channel      *uint8    `json:"channel,omitempty"`
	NetName      *string   `json:"net_name,omitempty"`
	XPANID       *string   `json:"xpanid,omitempty"`
	MasterKeySet bool      `json:"masterkey_set"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Publisher sends settings snapshots to an MQTT topic.
type Publisher struct {
	client Client
	topic  string
	config Config
	logger *slog.Logger
	now    func() time.Time
}

// ClientOptionsFromURL creates paho client options from a broker URL and
// returns the topic prefix taken from its path.
func ClientOptionsFromURL(brokerURL string) (*paho.ClientOptions, string, error) {
	u, err := url.Parse(brokerURL)
	if err != nil {
		return nil, "", err
	}
	if u.Host == "" {
		return nil, "", fmt.Errorf("broker url %q has no host", brokerURL)
	}

	var server string
	if u.Scheme == "" || u.Scheme == "mqtt" {
		server = "tcp"
	} else {
		server = u.Scheme
	}
	server += "://" + u.Host

	prefix := strings.Trim(u.Path, "/")

	opts := paho.NewClientOptions()
	opts.AddBroker(server).
		SetAutoReconnect(true).
		SetCleanSession(true)
	if u.User != nil {
		opts.SetUsername(u.User.Username())
		if pwd, ok := u.User.Password(); ok {
			opts.SetPassword(pwd)
		}
	}
	if clientID := u.Query().Get("client-id"); clientID != "" {
		opts.SetClientID(clientID)
	}

	return opts, prefix, nil
}

// Dial connects to the broker in config.BrokerURL.
func Dial(config Config) (*Publisher, error) {
	opts, prefix, err := ClientOptionsFromURL(config.BrokerURL)
	if err != nil {
		return nil, err
	}
	if opts.ClientID == "" && config.DeviceID != "" {
		opts.SetClientID("otsetup-" + config.DeviceID)
	}

	client := paho.NewClient(opts)
	if err := wait(client.Connect(), timeoutOf(config)); err != nil {
		return nil, fmt.Errorf("connect %s: %w", config.BrokerURL, err)
	}

	config.Topic = joinTopic(prefix, config.Topic)
	return NewPublisher(client, config), nil
}

// NewPublisher creates a publisher over a connected client. config.Topic is
// used as is.
func NewPublisher(client Client, config Config) *Publisher {
	topic := config.Topic
	if topic == "" {
		topic = DefaultTopic
	}
	return &Publisher{
		client: client,
		topic:  topic,
		config: config,
		logger: config.Logger,
		now:    time.Now,
	}
}

// Topic returns the full topic snapshots are published to.
func (p *Publisher) Topic() string {
	return p.topic
}

// Snapshot builds a snapshot of reg. Unloaded fields are omitted.
func (p *Publisher) Snapshot(reg *otsettings.Registry) Snapshot {
	snap := Snapshot{
		DeviceID:     p.config.DeviceID,
		MasterKeySet: reg.Loaded(otsettings.MasterKey),
		UpdatedAt:    p.now().UTC(),
	}
	if v, err := reg.PANID(); err == nil {
		snap.PANID = &v
	}
	if v, err := reg.Channel(); err == nil {
		snap.Channel = &v
	}
	if v, err := reg.NetName(); err == nil {
		snap.NetName = &v
	}
	if v, err := reg.XPANID(); err == nil {
		snap.XPANID = &v
	}
	return snap
}

// Publish sends a retained snapshot of reg.
func (p *Publisher) Publish(reg *otsettings.Registry) error {
	payload, err := json.Marshal(p.Snapshot(reg))
	if err != nil {
		return err
	}
	if err := wait(p.client.Publish(p.topic, p.config.QoS, true, payload), timeoutOf(p.config)); err != nil {
		return fmt.Errorf("publish %s: %w", p.topic, err)
	}
	if p.logger != nil {
		p.logger.Debug("settings published", "topic", p.topic, "bytes", len(payload))
	}
	return nil
}

// Hook returns a callback for setupot.Service.OnUpdated that publishes reg.
// Failures are logged.
func (p *Publisher) Hook(reg *otsettings.Registry) func() {
	return func() {
		if err := p.Publish(reg); err != nil && p.logger != nil {
			p.logger.Warn("settings publish failed", "topic", p.topic, "error", err)
		}
	}
}

// Close disconnects from the broker.
func (p *Publisher) Close() error {
	p.client.Disconnect(250)
	return nil
}

func wait(token paho.Token, timeout time.Duration) error {
	if !token.WaitTimeout(timeout) {
		return ErrTimeout
	}
	return token.Error()
}

func timeoutOf(config Config) time.Duration {
	if config.Timeout > 0 {
		return config.Timeout
	}
	return DefaultTimeout
}

func joinTopic(prefix, topic string) string {
	if topic == "" {
		topic = DefaultTopic
	}
	if prefix == "" {
		return topic
	}
	return prefix + "/" + strings.TrimPrefix(topic, "/")
}
