package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/okian/spraycam/internal/domain/model"
	"github.com/okian/spraycam/internal/domain/types"
	"github.com/okian/spraycam/pkg/logger"
)

const (
	mqttConnectTimeout = 5 * time.Second
	mqttPublishTimeout = 2 * time.Second
	mqttQuiesceMillis  = 250
)

// MQTTConfig describes the broker events are announced on.
type MQTTConfig struct {
	Broker   string
	Topic    string
	ClientID string
	Username string
	Password string
}

// MQTTPublisher publishes every recorded event as JSON on one topic.
type MQTTPublisher struct {
	client mqtt.Client
	topic  string
	log    logger.Logger
}

// NewMQTTPublisher connects to the broker. The client reconnects on its own
// after the first successful connection.
func NewMQTTPublisher(ctx context.Context, cfg MQTTConfig) (*MQTTPublisher, error) {
	log := logger.Get().Named("mqtt")

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)
	opts.SetOnConnectHandler(func(mqtt.Client) {
		log.Info(context.Background(), "mqtt connected", logger.String("broker", cfg.Broker))
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Warn(context.Background(), "mqtt connection lost", logger.Error(err))
	})

	client := mqtt.NewClient(opts)
	if err := wait(ctx, client.Connect(), mqttConnectTimeout); err != nil {
		client.Disconnect(0)
		return nil, fmt.Errorf("mqtt: connect %s: %w", cfg.Broker, err)
	}
	return newMQTTPublisher(client, cfg.Topic, log), nil
}

func newMQTTPublisher(client mqtt.Client, topic string, log logger.Logger) *MQTTPublisher {
	return &MQTTPublisher{client: client, topic: topic, log: log}
}

// Publish sends rec to the configured topic.
func (p *MQTTPublisher) Publish(ctx context.Context, rec model.EventRecord) error {
	if !p.client.IsConnectionOpen() {
		return ErrNotConnected
	}
	payload, err := json.Marshal(types.NewEventEntry(rec))
	if err != nil {
		return fmt.Errorf("mqtt: encode event: %w", err)
	}
	if err := wait(ctx, p.client.Publish(p.topic, 1, false, payload), mqttPublishTimeout); err != nil {
		return fmt.Errorf("mqtt: publish: %w", err)
	}
	p.log.Debug(ctx, "event published", logger.String("topic", p.topic), logger.String("event_id", rec.EventID))
	return nil
}

// Close disconnects from the broker.
func (p *MQTTPublisher) Close() error {
	p.client.Disconnect(mqttQuiesceMillis)
	return nil
}

func wait(ctx context.Context, token mqtt.Token, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-token.Done():
		return token.Error()
	case <-timer.C:
		return ErrMQTTTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}
