package frustum

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Publisher sends solutions to MQTT.
type Publisher struct {
	client        mqtt.Client
	publishPrefix string
	qos           byte
	retain        bool
}

// NewPublisher creates a solution publisher. An empty prefix falls back to
// "frustumfit". If client is nil, publishing is disabled.
func NewPublisher(client mqtt.Client, prefix string) *Publisher {
	if prefix == "" {
		prefix = "frustumfit"
	}
	return &Publisher{
		client:        client,
		publishPrefix: prefix,
		qos:           1,
		retain:        true, // keep the latest solution for late subscribers
	}
}

// SetQoS sets the Quality of Service level for publishing (0, 1, or 2)
func (p *Publisher) SetQoS(qos byte) {
	if qos <= 2 {
		p.qos = qos
	}
}

// SetRetain sets whether published messages should be retained by the broker
func (p *Publisher) SetRetain(retain bool) {
	p.retain = retain
}

// PublishSolution publishes sol to <prefix>/solution and to
// <prefix>/solution/<convention>.
func (p *Publisher) PublishSolution(sol Solution) error {
	if p.client == nil || !p.client.IsConnected() {
		return fmt.Errorf("MQTT client not connected")
	}

	payload, err := json.Marshal(sol)
	if err != nil {
		return fmt.Errorf("marshaling solution: %w", err)
	}

	topics := []string{
		fmt.Sprintf("%s/solution", p.publishPrefix),
		fmt.Sprintf("%s/solution/%s", p.publishPrefix, sol.Convention),
	}
	for _, topic := range topics {
		token := p.client.Publish(topic, p.qos, p.retain, payload)
		if token.WaitTimeout(2*time.Second) && token.Error() != nil {
			return fmt.Errorf("publishing to %s: %w", topic, token.Error())
		}
	}

	log.Printf("[MQTT] Published %s solution: %s err=%.12f",
		sol.Convention, sol.Refined.Params, sol.Refined.Error)
	return nil
}
