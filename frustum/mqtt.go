package frustum

import (
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// ConnectTimeout bounds the initial broker connection.
const ConnectTimeout = 10 * time.Second

// NewMQTTClient builds a client for cfg and connects it. It returns
// (nil, nil) when no broker is configured, which disables publishing.
func NewMQTTClient(cfg MQTTConfig) (mqtt.Client, error) {
	if cfg.Broker == "" {
		log.Println("[MQTT] disabled: no broker configured")
		return nil, nil
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)

	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "frustumfit"
	}
	opts.SetClientID(clientID)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	opts.SetAutoReconnect(false)
	opts.SetConnectTimeout(ConnectTimeout)
	opts.SetCleanSession(true)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Printf("[MQTT] connection lost: %v", err)
	})

	client := mqtt.NewClient(opts)
	if err := connectClient(client, ConnectTimeout); err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", cfg.Broker, err)
	}
	log.Printf("[MQTT] connected to %s as %s", cfg.Broker, clientID)
	return client, nil
}

// connectClient connects and waits up to timeout for the broker to answer.
func connectClient(client mqtt.Client, timeout time.Duration) error {
	token := client.Connect()
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("connection timeout after %s", timeout)
	}
	return token.Error()
}
