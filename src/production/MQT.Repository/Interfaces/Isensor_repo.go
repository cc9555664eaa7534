package interfaces

import (
	"context"

	hardware_models "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Models/hardware"
)

// SensorLookup resolves the sensor owning a topic
type SensorLookup interface {
	GetSensorByTopic(ctx context.Context, topic string) (*hardware_models.Sensor, error)
}

type SensorRepository interface {
	SensorLookup

	// CreateSensor returns ErrConflict when the topic is already used
	CreateSensor(ctx context.Context, sensor *hardware_models.Sensor) (*hardware_models.Sensor, error)

	GetSensor(ctx context.Context, sensorID string) (*hardware_models.Sensor, error)
	ListSensorsByBoard(ctx context.Context, boardID string) ([]hardware_models.Sensor, error)

	UpdateSensor(ctx context.Context, sensor *hardware_models.Sensor) error
	DeleteSensor(ctx context.Context, sensorID string) error
}
