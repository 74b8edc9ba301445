package teenastro

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"teenastro/pkg/alpaca"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
)

const mqttPublishTimeout = 2 * time.Second

// createMQTTClient initializes and connects a new MQTT client.
func createMQTTClient(cfg MQTTConfig, clientID string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions()
	opts.SetClientID(clientID)
	opts.AddBroker(cfg.Host)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetAutoReconnect(true)

	mqttClient := mqtt.NewClient(opts)
	if token := mqttClient.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %v", token.Error())
	}
	return mqttClient, nil
}

// mqttPublisher mirrors published fields to <root>/fields/<id> and accepts
// updates on <root>/set/<id>.
type mqttPublisher struct {
	client mqtt.Client
	root   string
	logger log.FieldLogger
}

func newMQTTPublisher(client mqtt.Client, root string, logger log.FieldLogger) *mqttPublisher {
	return &mqttPublisher{
		client: client,
		root:   strings.TrimSuffix(root, "/"),
		logger: logger.WithField("component", "mqtt"),
	}
}

func (p *mqttPublisher) fieldTopic(id string) string {
	return p.root + "/fields/" + id
}

func (p *mqttPublisher) setTopic() string {
	return p.root + "/set/+"
}

// Publish implements alpaca.Publisher. It does not wait for the broker.
func (p *mqttPublisher) Publish(f alpaca.Field) {
	payload, err := json.Marshal(f)
	if err != nil {
		p.logger.Errorf("Failed to encode field %s: %v", f.ID, err)
		return
	}

	token := p.client.Publish(p.fieldTopic(f.ID), 0, true, payload)
	go func() {
		if token.WaitTimeout(mqttPublishTimeout) && token.Error() != nil {
			p.logger.Warnf("Failed to publish field %s: %v", f.ID, token.Error())
		}
	}()
}

// Run forwards set messages to updater until ctx is cancelled.
func (p *mqttPublisher) Run(ctx context.Context, updater alpaca.FieldUpdater) error {
	if !p.client.IsConnected() {
		return fmt.Errorf("MQTT client is not connected")
	}

	topic := p.setTopic()
	handler := func(_ mqtt.Client, msg mqtt.Message) {
		p.handleSet(updater, msg.Topic(), msg.Payload())
	}
	if token := p.client.Subscribe(topic, 0, handler); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to subscribe to %s: %v", topic, token.Error())
	}
	defer p.client.Unsubscribe(topic)

	<-ctx.Done()
	return nil
}

func (p *mqttPublisher) handleSet(updater alpaca.FieldUpdater, topic string, payload []byte) {
	id := topic[strings.LastIndexByte(topic, '/')+1:]

	var values map[string]string
	if err := json.Unmarshal(payload, &values); err != nil {
		p.logger.Warnf("Invalid update for %s: %v", id, err)
		return
	}

	handled, err := updater.UpdateField(id, values)
	switch {
	case !handled:
		p.logger.Warnf("Update for unknown field %s", id)
	case err != nil:
		p.logger.Warnf("Update of %s failed: %v", id, err)
	default:
		p.logger.Debugf("Updated %s from %s", id, topic)
	}
}
