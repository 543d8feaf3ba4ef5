package telemetry

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Event is the JSON payload published to the configured MQTT topic on
// every resolved position or pitch reading.
type Event struct {
	Timestamp        int64    `json:"timestamp"`
	PositionSamples  *int64   `json:"position_samples,omitempty"`
	SecondsSinceRead *float32 `json:"seconds_since_read,omitempty"`
	Pitch            *float32 `json:"pitch,omitempty"`
	Alive            bool     `json:"alive"`
}

// Publisher publishes Events to a broker over MQTT.
type Publisher struct {
	client mqtt.Client
	topic  string
}

func generateClientID() string {
	buf := make([]byte, 8)
	rand.Read(buf)
	return "timecoder_" + hex.EncodeToString(buf)
}

// NewPublisher connects to broker and returns a Publisher that will post
// to topic. The connection uses automatic reconnect, matching the
// always-on expectation of a live decode session.
func NewPublisher(broker, topic string) (*Publisher, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(generateClientID())
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(10 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		fmt.Fprintf(os.Stderr, "telemetry: mqtt connection lost: %v\n", err)
	})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("telemetry: connecting to %s: %w", broker, token.Error())
	}

	return &Publisher{client: client, topic: topic}, nil
}

// Publish marshals ev and sends it at QoS 0; a publish failure is logged
// rather than returned, since a dropped telemetry sample must never stall
// the decode loop that feeds it.
func (p *Publisher) Publish(ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		fmt.Fprintf(os.Stderr, "telemetry: marshaling event: %v\n", err)
		return
	}
	token := p.client.Publish(p.topic, 0, false, payload)
	go func() {
		token.Wait()
		if err := token.Error(); err != nil {
			fmt.Fprintf(os.Stderr, "telemetry: publish failed: %v\n", err)
		}
	}()
}

// Close disconnects from the broker, waiting up to 250ms for in-flight
// publishes to drain.
func (p *Publisher) Close() {
	p.client.Disconnect(250)
}
