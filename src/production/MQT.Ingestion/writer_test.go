package ingestion

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	logger "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Logger"
	metrics "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Metrics"
	hardware_models "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Models/hardware"
	interfaces "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Repository/Interfaces"
)

type fakeSensors map[string]hardware_models.Sensor

func (f fakeSensors) GetSensorByTopic(_ context.Context, topic string) (*hardware_models.Sensor, error) {
	s, ok := f[topic]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	return &s, nil
}

type fakeReadings struct {
	stored []hardware_models.Reading
	err    error
}

func (f *fakeReadings) CreateReading(_ context.Context, r *hardware_models.Reading) error {
	if f.err != nil {
		return f.err
	}
	r.ReadingID = "reading-1"
	f.stored = append(f.stored, *r)
	return nil
}

func (f *fakeReadings) CreateReadings(_ context.Context, rs []hardware_models.Reading) error {
	if f.err != nil {
		return f.err
	}
	for i := range rs {
		rs[i].ReadingID = fmt.Sprintf("batch-%d", i)
	}
	f.stored = append(f.stored, rs...)
	return nil
}

func newTestWriter(readings *fakeReadings, listeners ...ReadingListener) *Writer {
	sensors := fakeSensors{"temp/1": {SensorID: "sensor-1", Topic: "temp/1"}}
	w := NewWriter(sensors, readings, logger.NewNopLogger(), listeners...)
	w.clock = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }
	return w
}

func TestIngestKnownTopicStoresOneReading(t *testing.T) {
	readings := &fakeReadings{}
	var notified []hardware_models.Reading
	w := newTestWriter(readings, ListenerFunc(func(_ context.Context, s hardware_models.Sensor, r hardware_models.Reading) {
		assert.Equal(t, "temp/1", s.Topic)
		notified = append(notified, r)
	}))

	reading, err := w.Ingest(context.Background(), "temp/1", 21.5, "C")
	require.NoError(t, err)

	require.Len(t, readings.stored, 1)
	assert.Equal(t, "sensor-1", readings.stored[0].SensorID)
	assert.Equal(t, 21.5, readings.stored[0].Value)
	assert.Equal(t, "C", readings.stored[0].Unit)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), readings.stored[0].CreatedAt)
	assert.Equal(t, "reading-1", reading.ReadingID)

	require.Len(t, notified, 1)
	assert.Equal(t, "reading-1", notified[0].ReadingID)
}

func TestIngestUnknownTopicStoresNothing(t *testing.T) {
	readings := &fakeReadings{}
	called := false
	w := newTestWriter(readings, ListenerFunc(func(context.Context, hardware_models.Sensor, hardware_models.Reading) {
		called = true
	}))
	before := testutil.ToFloat64(metrics.UnknownTopics)

	_, err := w.Ingest(context.Background(), "temp/2", 1, "C")

	assert.ErrorIs(t, err, ErrUnknownTopic)
	assert.Empty(t, readings.stored)
	assert.False(t, called)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.UnknownTopics))
}

func TestIngestTopicMatchIsExact(t *testing.T) {
	w := newTestWriter(&fakeReadings{})
	_, err := w.Ingest(context.Background(), "temp/1/", 1, "C")
	assert.ErrorIs(t, err, ErrUnknownTopic)
}

func TestStoreFailureSkipsListeners(t *testing.T) {
	called := false
	w := newTestWriter(&fakeReadings{err: errors.New("disk full")}, ListenerFunc(func(context.Context, hardware_models.Sensor, hardware_models.Reading) {
		called = true
	}))

	_, err := w.Ingest(context.Background(), "temp/1", 1, "C")
	assert.Error(t, err)
	assert.False(t, called)
}

func TestRecordRejectsNonFiniteValues(t *testing.T) {
	readings := &fakeReadings{}
	w := newTestWriter(readings)

	_, err := w.Record(context.Background(), hardware_models.Sensor{SensorID: "s"}, math.NaN(), "")
	assert.ErrorIs(t, err, ErrInvalidValue)
	_, err = w.Record(context.Background(), hardware_models.Sensor{SensorID: "s"}, math.Inf(1), "")
	assert.ErrorIs(t, err, ErrInvalidValue)
	assert.Empty(t, readings.stored)
}

func TestListenersRunInOrder(t *testing.T) {
	var order []string
	w := newTestWriter(&fakeReadings{},
		ListenerFunc(func(context.Context, hardware_models.Sensor, hardware_models.Reading) { order = append(order, "first") }),
	)
	w.AddListener(ListenerFunc(func(context.Context, hardware_models.Sensor, hardware_models.Reading) {
		order = append(order, "second")
	}))

	_, err := w.Ingest(context.Background(), "temp/1", 1, "C")
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestRecordBatchNotifiesEachReadingInOrder(t *testing.T) {
	readings := &fakeReadings{}
	var notified []string
	w := newTestWriter(readings, ListenerFunc(func(_ context.Context, _ hardware_models.Sensor, r hardware_models.Reading) {
		notified = append(notified, r.ReadingID)
	}))
	before := testutil.ToFloat64(metrics.ReadingsPersisted)

	sensor := hardware_models.Sensor{SensorID: "sensor-1", Topic: "temp/1"}
	stored, err := w.RecordBatch(context.Background(), sensor, []Sample{{Value: 1, Unit: "C"}, {Value: 2, Unit: "C"}, {Value: 3}})
	require.NoError(t, err)

	require.Len(t, stored, 3)
	assert.Equal(t, 3.0, stored[2].Value)
	assert.Equal(t, "sensor-1", stored[0].SensorID)
	assert.Equal(t, []string{"batch-0", "batch-1", "batch-2"}, notified)
	assert.Equal(t, before+3, testutil.ToFloat64(metrics.ReadingsPersisted))
}

func TestRecordBatchRejectsInvalidValueBeforeStoring(t *testing.T) {
	readings := &fakeReadings{}
	w := newTestWriter(readings)

	_, err := w.RecordBatch(context.Background(), hardware_models.Sensor{SensorID: "sensor-1"},
		[]Sample{{Value: 1}, {Value: math.Inf(1)}})
	assert.ErrorIs(t, err, ErrInvalidValue)
	assert.Empty(t, readings.stored)
}

func TestRecordBatchStoreFailureSkipsListeners(t *testing.T) {
	readings := &fakeReadings{err: errors.New("copy failed")}
	called := false
	w := newTestWriter(readings, ListenerFunc(func(context.Context, hardware_models.Sensor, hardware_models.Reading) {
		called = true
	}))

	_, err := w.RecordBatch(context.Background(), hardware_models.Sensor{SensorID: "sensor-1"}, []Sample{{Value: 1}})
	assert.Error(t, err)
	assert.False(t, called)
}
