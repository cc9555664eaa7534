package hardware_models

import "time"

// Reading is an immutable measurement produced by a sensor
type Reading struct {
	ReadingID string    `json:"reading_id" db:"reading_id"`
	SensorID  string    `json:"sensor_id" db:"sensor_id"`
	Value     float64   `json:"value" db:"value"`
	Unit      string    `json:"unit" db:"unit"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
