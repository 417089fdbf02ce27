// Package events publishes archived delivery records to downstream
// consumers (analytics, adherence dashboards) over Kafka.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/tbourn/survey-scheduler/internal/domain"
)

// DefaultTopic is used when no topic is configured.
const DefaultTopic = "survey.archived-events"

// ErrNoBrokers is returned when a Kafka publisher is built without brokers.
var ErrNoBrokers = errors.New("no kafka brokers configured")

// ArchivedEventMessage is the wire shape of one ledger row.
type ArchivedEventMessage struct {
	ID                string    `json:"id"`
	SurveyArchiveID   string    `json:"survey_archive_id"`
	ParticipantID     string    `json:"participant_id"`
	ScheduleType      string    `json:"schedule_type"`
	ScheduledTime     time.Time `json:"scheduled_time"`
	Status            string    `json:"status"`
	UUID              *string   `json:"uuid,omitempty"`
	WasResend         bool      `json:"was_resend"`
	ConfirmedReceived bool      `json:"confirmed_received"`
	CreatedAt         time.Time `json:"created_at"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes archived events to a single topic, keyed by
// participant so one participant's history stays ordered in a partition.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
}

// NewKafkaPublisher builds a publisher for brokers and topic.
func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, ErrNoBrokers
	}
	if topic == "" {
		topic = DefaultTopic
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		WriteTimeout:           5 * time.Second,
		MaxAttempts:            3,
	}
	return &KafkaPublisher{writer: w, topic: topic}, nil
}

// Topic returns the destination topic.
func (p *KafkaPublisher) Topic() string { return p.topic }

// PublishArchived writes one archived event.
func (p *KafkaPublisher) PublishArchived(ctx context.Context, ae *domain.ArchivedEvent) error {
	msg, err := Message(ae)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

// Close flushes pending writes and releases connections.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Message encodes an archived event as a Kafka message.
func Message(ae *domain.ArchivedEvent) (kafka.Message, error) {
	body, err := json.Marshal(ArchivedEventMessage{
		ID:                ae.ID,
		SurveyArchiveID:   ae.SurveyArchiveID,
		ParticipantID:     ae.ParticipantID,
		ScheduleType:      string(ae.ScheduleType),
		ScheduledTime:     ae.ScheduledTime.UTC(),
		Status:            string(ae.Status),
		UUID:              ae.UUID,
		WasResend:         ae.WasResend,
		ConfirmedReceived: ae.ConfirmedReceived,
		CreatedAt:         ae.CreatedAt.UTC(),
	})
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(ae.ParticipantID),
		Value: body,
		Headers: []kafka.Header{
			{Key: "schedule_type", Value: []byte(ae.ScheduleType)},
			{Key: "status", Value: []byte(ae.Status)},
		},
	}, nil
}

// Nop discards every event. It is used when no brokers are configured.
type Nop struct{}

// PublishArchived implements the publisher contract.
func (Nop) PublishArchived(context.Context, *domain.ArchivedEvent) error { return nil }
