// Package mqtt uploads journal captures as JSON batches published to an
// MQTT topic.
package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/andrasq/kstats/internal/domain"
	"github.com/andrasq/kstats/internal/journal"
	"github.com/andrasq/kstats/internal/ports"
)

// Domain-specific errors. Configuration errors surface from New; the rest
// come out of Upload and leave the capture file in place for retry.
var (
	ErrNoBroker         = errors.New("mqtt: broker url required")
	ErrNoTopic          = errors.New("mqtt: topic required")
	ErrConnectionFailed = errors.New("mqtt: connection failed")
	ErrNotConnected     = errors.New("mqtt: client not connected")
	ErrPublishFailed    = errors.New("mqtt: publish failed")
)

const (
	defaultConnectTimeout = 10 * time.Second
	defaultPublishTimeout = 10 * time.Second
	defaultClientID       = "kstatsd"
)

// Config describes the broker, topic, and credentials for one uploader.
type Config struct {
	Broker     string
	Topic      string
	ClientID   string
	Username   string
	Password   string
	QoS        byte
	Instance   string
	StaleAfter time.Duration
	Rejects    ports.RejectSink
}

// Client implements ports.Uploader over a paho MQTT connection.
type Client struct {
	client pahomqtt.Client
	cfg    Config
	parser journal.Parser
}

var _ ports.Uploader = (*Client)(nil)

// New validates the configuration, connects to the broker, and returns a
// ready Client. The paho auto-reconnect handles broker restarts afterwards.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Broker) == "" {
		return nil, ErrNoBroker
	}
	if strings.TrimSpace(cfg.Topic) == "" {
		return nil, ErrNoTopic
	}
	if cfg.ClientID == "" {
		cfg.ClientID = defaultClientID
	}

	opts := pahomqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(defaultConnectTimeout)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	client := pahomqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(defaultConnectTimeout) {
		return nil, fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, defaultConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	return &Client{
		client: client,
		cfg:    cfg,
		parser: journal.Parser{
			Instance:   cfg.Instance,
			StaleAfter: cfg.StaleAfter,
			Rejects:    cfg.Rejects,
		},
	}, nil
}

// Upload parses the capture contents and publishes the valid samples as one
// JSON batch. The publish waits for broker acknowledgement at the configured
// QoS before the capture may be deleted.
func (c *Client) Upload(_ context.Context, contents []byte) error {
	samples := c.parser.Parse(string(contents))
	if len(samples) == 0 {
		return nil
	}
	if !c.client.IsConnected() {
		return ErrNotConnected
	}

	payload, err := json.Marshal(domain.Batch{
		Timestamp:    time.Now().Unix(),
		ProtoVersion: domain.ProtoVersion,
		Data:         samples,
	})
	if err != nil {
		return fmt.Errorf("marshal batch: %w", err)
	}

	token := c.client.Publish(c.cfg.Topic, c.cfg.QoS, false, payload)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	return nil
}

// Close disconnects from the broker, letting in-flight work drain briefly.
func (c *Client) Close() {
	c.client.Disconnect(250)
}
