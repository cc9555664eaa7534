// Package ingestion persists sensor readings and notifies the components that react to them.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	logger "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Logger"
	metrics "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Metrics"
	hardware_models "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Models/hardware"
	interfaces "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Repository/Interfaces"
)

var (
	// ErrUnknownTopic is returned when no sensor is registered for a topic
	ErrUnknownTopic = errors.New("no sensor registered for topic")
	// ErrInvalidValue is returned for NaN or infinite readings
	ErrInvalidValue = errors.New("reading value must be a finite number")
)

// Sample is one value of a batch upload
type Sample struct {
	Value float64
	Unit  string
}

// ReadingListener is told about every reading after it has been stored.
// Implementations handle their own failures.
type ReadingListener interface {
	OnReadingPersisted(ctx context.Context, sensor hardware_models.Sensor, reading hardware_models.Reading)
}

// ListenerFunc adapts a function to ReadingListener
type ListenerFunc func(ctx context.Context, sensor hardware_models.Sensor, reading hardware_models.Reading)

func (f ListenerFunc) OnReadingPersisted(ctx context.Context, sensor hardware_models.Sensor, reading hardware_models.Reading) {
	f(ctx, sensor, reading)
}

// Writer resolves sensors by topic and appends readings
type Writer struct {
	sensors   interfaces.SensorLookup
	readings  interfaces.ReadingWriter
	listeners []ReadingListener
	log       *logger.Logger
	clock     func() time.Time
}

// NewWriter creates a writer; listeners run in the given order after each insert
func NewWriter(sensors interfaces.SensorLookup, readings interfaces.ReadingWriter, log *logger.Logger, listeners ...ReadingListener) *Writer {
	return &Writer{
		sensors:   sensors,
		readings:  readings,
		listeners: listeners,
		log:       log.WithComponent("ingestion-writer"),
		clock:     func() time.Time { return time.Now().UTC() },
	}
}

// AddListener registers another listener; it is not safe to call concurrently with Ingest
func (w *Writer) AddListener(l ReadingListener) {
	w.listeners = append(w.listeners, l)
}

// Ingest stores a reading for the sensor that owns topic. The topic must match exactly.
func (w *Writer) Ingest(ctx context.Context, topic string, value float64, unit string) (*hardware_models.Reading, error) {
	sensor, err := w.sensors.GetSensorByTopic(ctx, topic)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			metrics.UnknownTopics.Inc()
			return nil, fmt.Errorf("%w: %s", ErrUnknownTopic, topic)
		}
		return nil, fmt.Errorf("failed to resolve sensor for %s: %w", topic, err)
	}
	return w.Record(ctx, *sensor, value, unit)
}

// Record stores a reading for an already resolved sensor and notifies listeners
func (w *Writer) Record(ctx context.Context, sensor hardware_models.Sensor, value float64, unit string) (*hardware_models.Reading, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return nil, ErrInvalidValue
	}

	reading := hardware_models.Reading{
		SensorID:  sensor.SensorID,
		Value:     value,
		Unit:      unit,
		CreatedAt: w.clock(),
	}
	if err := w.readings.CreateReading(ctx, &reading); err != nil {
		return nil, fmt.Errorf("failed to store reading for sensor %s: %w", sensor.SensorID, err)
	}
	metrics.ReadingsPersisted.Inc()

	w.log.Debug().
		Str("sensor_id", sensor.SensorID).
		Str("topic", sensor.Topic).
		Float64("value", value).
		Str("unit", unit).
		Msg("reading stored")

	for _, l := range w.listeners {
		l.OnReadingPersisted(ctx, sensor, reading)
	}
	return &reading, nil
}

// RecordBatch stores samples for one sensor in a single transaction, then notifies listeners
// once per reading in sample order. Nothing is stored if any value is invalid.
func (w *Writer) RecordBatch(ctx context.Context, sensor hardware_models.Sensor, samples []Sample) ([]hardware_models.Reading, error) {
	now := w.clock()
	readings := make([]hardware_models.Reading, 0, len(samples))
	for i, sm := range samples {
		if math.IsNaN(sm.Value) || math.IsInf(sm.Value, 0) {
			return nil, fmt.Errorf("%w: sample %d", ErrInvalidValue, i)
		}
		readings = append(readings, hardware_models.Reading{
			SensorID:  sensor.SensorID,
			Value:     sm.Value,
			Unit:      sm.Unit,
			CreatedAt: now,
		})
	}
	if len(readings) == 0 {
		return readings, nil
	}

	if err := w.readings.CreateReadings(ctx, readings); err != nil {
		return nil, fmt.Errorf("failed to store %d readings for sensor %s: %w", len(readings), sensor.SensorID, err)
	}
	metrics.ReadingsPersisted.Add(float64(len(readings)))
	w.log.WithSensor(sensor.SensorID).Debug().Int("count", len(readings)).Msg("reading batch stored")

	for _, reading := range readings {
		for _, l := range w.listeners {
			l.OnReadingPersisted(ctx, sensor, reading)
		}
	}
	return readings, nil
}
