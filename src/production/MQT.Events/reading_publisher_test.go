package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	logger "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Logger"
	metrics "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Metrics"
	hardware_models "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Models/hardware"
)

type captureWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (c *captureWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if c.err != nil {
		return c.err
	}
	c.msgs = append(c.msgs, msgs...)
	return nil
}

func (c *captureWriter) Close() error {
	c.closed = true
	return nil
}

func TestPublishEncodesReadingKeyedBySensor(t *testing.T) {
	w := &captureWriter{}
	p := newReadingPublisher(w, logger.NewNopLogger())
	at := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

	p.OnReadingPersisted(context.Background(),
		hardware_models.Sensor{SensorID: "s1", BoardID: "b1", Topic: "temp/1"},
		hardware_models.Reading{ReadingID: "r1", SensorID: "s1", Value: 21.5, Unit: "C", CreatedAt: at})

	require.Len(t, w.msgs, 1)
	assert.Equal(t, "s1", string(w.msgs[0].Key))

	var ev ReadingEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &ev))
	assert.Equal(t, "temp/1", ev.Topic)
	assert.Equal(t, "b1", ev.BoardID)
	assert.Equal(t, 21.5, ev.Value)
	assert.True(t, at.Equal(ev.CreatedAt))

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPublishFailureIsSwallowed(t *testing.T) {
	p := newReadingPublisher(&captureWriter{err: errors.New("broker down")}, logger.NewNopLogger())
	failed := metrics.EventsPublished.WithLabelValues("failed")
	before := testutil.ToFloat64(failed)

	assert.NotPanics(t, func() {
		p.OnReadingPersisted(context.Background(), hardware_models.Sensor{}, hardware_models.Reading{SensorID: "s1"})
	})
	assert.Equal(t, before+1, testutil.ToFloat64(failed))
}

func TestNewReadingPublisherValidates(t *testing.T) {
	_, err := NewReadingPublisher(nil, "t", logger.NewNopLogger())
	assert.Error(t, err)
	_, err = NewReadingPublisher([]string{"localhost:9092"}, "", logger.NewNopLogger())
	assert.Error(t, err)
}
