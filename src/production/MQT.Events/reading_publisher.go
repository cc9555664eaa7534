// Package events streams stored readings to Kafka for downstream consumers.
package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"
	logger "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Logger"
	metrics "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Metrics"
	hardware_models "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Models/hardware"
)

// ReadingEvent is the message value written for each stored reading
type ReadingEvent struct {
	ReadingID string    `json:"reading_id"`
	SensorID  string    `json:"sensor_id"`
	BoardID   string    `json:"board_id"`
	Topic     string    `json:"topic"`
	Value     float64   `json:"value"`
	Unit      string    `json:"unit"`
	CreatedAt time.Time `json:"created_at"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ReadingPublisher is a reading listener that forwards readings to a Kafka topic keyed by sensor
type ReadingPublisher struct {
	writer  messageWriter
	timeout time.Duration
	log     *logger.Logger
}

func NewReadingPublisher(brokers []string, topic string, log *logger.Logger) (*ReadingPublisher, error) {
	if len(brokers) == 0 {
		return nil, errors.New("at least one broker is required")
	}
	if topic == "" {
		return nil, errors.New("topic is required")
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{}, // keeps a sensor's readings on one partition
		BatchTimeout:           10 * time.Millisecond,
		WriteTimeout:           5 * time.Second,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return newReadingPublisher(w, log), nil
}

func newReadingPublisher(w messageWriter, log *logger.Logger) *ReadingPublisher {
	return &ReadingPublisher{writer: w, timeout: 5 * time.Second, log: log.WithComponent("reading-publisher")}
}

// OnReadingPersisted publishes the reading; failures are logged and counted only
func (p *ReadingPublisher) OnReadingPersisted(ctx context.Context, sensor hardware_models.Sensor, reading hardware_models.Reading) {
	if err := p.Publish(ctx, sensor, reading); err != nil {
		metrics.EventsPublished.WithLabelValues("failed").Inc()
		p.log.Warn().Err(err).Str("sensor_id", reading.SensorID).Msg("failed to publish reading")
		return
	}
	metrics.EventsPublished.WithLabelValues("sent").Inc()
}

func (p *ReadingPublisher) Publish(ctx context.Context, sensor hardware_models.Sensor, reading hardware_models.Reading) error {
	msg, err := encodeReading(sensor, reading)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.writer.WriteMessages(ctx, msg)
}

func (p *ReadingPublisher) Close() error {
	return p.writer.Close()
}

func encodeReading(sensor hardware_models.Sensor, reading hardware_models.Reading) (kafka.Message, error) {
	value, err := json.Marshal(ReadingEvent{
		ReadingID: reading.ReadingID,
		SensorID:  reading.SensorID,
		BoardID:   sensor.BoardID,
		Topic:     sensor.Topic,
		Value:     reading.Value,
		Unit:      reading.Unit,
		CreatedAt: reading.CreatedAt,
	})
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to serialize reading: %w", err)
	}
	return kafka.Message{
		Key:   []byte(reading.SensorID),
		Value: value,
		Time:  reading.CreatedAt,
		Headers: []kafka.Header{
			{Key: "content-type", Value: []byte("application/json")},
		},
	}, nil
}
