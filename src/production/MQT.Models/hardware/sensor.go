package hardware_models

import (
	"fmt"
	"strings"
	"time"
)

// SensorType is the electrical role of a sensor pin
type SensorType string

const (
	DigitalInput  SensorType = "digital-input"
	DigitalOutput SensorType = "digital-output"
	AnalogInput   SensorType = "analog-input"
	AnalogOutput  SensorType = "analog-output"
)

// ParseSensorType accepts the canonical names case-insensitively
func ParseSensorType(s string) (SensorType, error) {
	switch t := SensorType(strings.ToLower(strings.TrimSpace(s))); t {
	case DigitalInput, DigitalOutput, AnalogInput, AnalogOutput:
		return t, nil
	default:
		return "", fmt.Errorf("unknown sensor type %q", s)
	}
}

// Sensor is a single pin on a board. Topic is the routing key used by the broker
// and is unique across all sensors.
type Sensor struct {
	SensorID  string     `json:"sensor_id" db:"sensor_id"`
	BoardID   string     `json:"board_id" db:"board_id"`
	Name      string     `json:"name" db:"name"`
	Pin       int        `json:"pin" db:"pin"`
	Type      SensorType `json:"type" db:"sensor_type"`
	Topic     string     `json:"topic" db:"topic"`
	Image     string     `json:"image" db:"image"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}
