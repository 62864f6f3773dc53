package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

// ErrNotConnected is returned when publishing while the broker is unreachable.
var ErrNotConnected = errors.New("mqtt not connected")

// MQTTConfig configures an MQTTPublisher.
type MQTTConfig struct {
	// Broker is a URL such as tcp://localhost:1883.
	Broker string
	// ClientID defaults to formcoach-<uuid>.
	ClientID    string
	TopicPrefix string
	QoS         byte
	// PublishTimeout defaults to 2s.
	PublishTimeout time.Duration
}

// client is the part of mqtt.Client the publisher needs.
type client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	IsConnectionOpen() bool
	Disconnect(quiesce uint)
}

// MQTTPublisher publishes JSON events under <prefix>/workouts/<id>/.
type MQTTPublisher struct {
	cfg    MQTTConfig
	client client

	mu        sync.RWMutex
	published map[string]uint64
	errors    uint64
}

// Stats contains publisher statistics.
type Stats struct {
	Published map[string]uint64
	Errors    uint64
}

// NewMQTTPublisher connects to the broker. The client reconnects on its own
// after the first successful connection.
func NewMQTTPublisher(ctx context.Context, cfg MQTTConfig) (*MQTTPublisher, error) {
	cfg = withDefaults(cfg)

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Printf("mqtt connection lost, reconnecting: %v", err)
	}

	c := mqtt.NewClient(opts)
	token := c.Connect()

	select {
	case <-token.Done():
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connection failed: %w", err)
	}

	log.Printf("connected to mqtt broker %s as %s", cfg.Broker, cfg.ClientID)
	return newMQTTPublisher(cfg, c), nil
}

func newMQTTPublisher(cfg MQTTConfig, c client) *MQTTPublisher {
	return &MQTTPublisher{
		cfg:       withDefaults(cfg),
		client:    c,
		published: make(map[string]uint64),
	}
}

func withDefaults(cfg MQTTConfig) MQTTConfig {
	if cfg.ClientID == "" {
		cfg.ClientID = "formcoach-" + uuid.NewString()
	}
	if cfg.TopicPrefix == "" {
		cfg.TopicPrefix = "formcoach"
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = 2 * time.Second
	}
	return cfg
}

// RepTopic returns the topic rep events of a workout are published on.
func (p *MQTTPublisher) RepTopic(workoutID string) string {
	return fmt.Sprintf("%s/workouts/%s/reps", p.cfg.TopicPrefix, workoutID)
}

// StatusTopic returns the topic workout status events are published on.
func (p *MQTTPublisher) StatusTopic(workoutID string) string {
	return fmt.Sprintf("%s/workouts/%s/status", p.cfg.TopicPrefix, workoutID)
}

// PublishRep implements Publisher.
func (p *MQTTPublisher) PublishRep(ctx context.Context, msg RepMessage) error {
	return p.publish(ctx, p.RepTopic(msg.WorkoutID), false, msg)
}

// PublishWorkout implements Publisher. Status messages are retained so late
// subscribers see the current state.
func (p *MQTTPublisher) PublishWorkout(ctx context.Context, msg WorkoutMessage) error {
	return p.publish(ctx, p.StatusTopic(msg.WorkoutID), true, msg)
}

func (p *MQTTPublisher) publish(ctx context.Context, topic string, retained bool, v any) error {
	if !p.client.IsConnectionOpen() {
		p.countError()
		return ErrNotConnected
	}

	payload, err := json.Marshal(v)
	if err != nil {
		p.countError()
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.PublishTimeout)
	defer cancel()

	token := p.client.Publish(topic, p.cfg.QoS, retained, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		p.countError()
		return fmt.Errorf("publish to %s: %w", topic, ctx.Err())
	}
	if err := token.Error(); err != nil {
		p.countError()
		return fmt.Errorf("publish to %s: %w", topic, err)
	}

	p.mu.Lock()
	p.published[topic]++
	p.mu.Unlock()
	return nil
}

func (p *MQTTPublisher) countError() {
	p.mu.Lock()
	p.errors++
	p.mu.Unlock()
}

// Stats returns publisher statistics.
func (p *MQTTPublisher) Stats() Stats {
	p.mu.RLock()
	defer p.mu.RUnlock()

	published := make(map[string]uint64, len(p.published))
	for k, v := range p.published {
		published[k] = v
	}
	return Stats{Published: published, Errors: p.errors}
}

// Close disconnects from the broker.
func (p *MQTTPublisher) Close() error {
	p.client.Disconnect(250)
	return nil
}
