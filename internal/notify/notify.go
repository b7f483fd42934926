package notify

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
)

// Publisher pushes scheduler-change events so calendar clients can re-fetch
// instead of polling.
type Publisher interface {
	SchedulerChanged(schedulerID int, event string)
}

// change event names
const (
	EventCreated          = "created"
	EventUpdated          = "updated"
	EventDeleted          = "deleted"
	EventOccurrenceEdited = "occurrence-edited"
)

type changePayload struct {
	SchedulerID int    `json:"scheduler_id"`
	Event       string `json:"event"`
	At          string `json:"at"`
}

type mqttPublisher struct {
	client mqtt.Client
}

// NewPublisher connects to the MQTT broker and returns a live publisher.
// An empty broker URL yields a no-op publisher, so callers never branch.
func NewPublisher(brokerURL, clientID string) (Publisher, error) {
	if brokerURL == "" {
		return noopPublisher{}, nil
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(brokerURL)
	opts.SetClientID(clientID)
	opts.OnConnect = func(mqtt.Client) {
		log.Info().Str("broker", brokerURL).Msg("connected to MQTT broker")
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Error().Err(err).Msg("MQTT connection lost")
	}

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	return &mqttPublisher{client: client}, nil
}

func (p *mqttPublisher) SchedulerChanged(schedulerID int, event string) {
	payload, err := json.Marshal(changePayload{
		SchedulerID: schedulerID,
		Event:       event,
		At:          time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return
	}
	topic := fmt.Sprintf("schedulers/%d/events", schedulerID)
	token := p.client.Publish(topic, 1, false, payload)
	token.Wait()
	if token.Error() != nil {
		log.Error().Err(token.Error()).Str("topic", topic).Msg("failed to publish scheduler change")
	}
}

type noopPublisher struct{}

func (noopPublisher) SchedulerChanged(int, string) {}
