package interfaces

import (
	"context"
	"time"

	hardware_models "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Models/hardware"
)

// ReadingQueryParams represents parameters for reading queries
type ReadingQueryParams struct {
	SensorID string
	From     *time.Time
	To       *time.Time
	Limit    int
	Page     int
}

// ReadingQueryResult represents the result of a reading query with pagination
type ReadingQueryResult struct {
	Items    []hardware_models.Reading `json:"items"`
	NextPage *int                      `json:"next_page,omitempty"`
	Total    int                       `json:"total"`
}

// SummaryStats represents aggregate statistics over a sensor's readings
type SummaryStats struct {
	SensorID string     `json:"sensor_id"`
	Count    int64      `json:"count"`
	Min      *float64   `json:"min,omitempty"`
	Max      *float64   `json:"max,omitempty"`
	Avg      *float64   `json:"avg,omitempty"`
	FirstTS  *time.Time `json:"first_ts,omitempty"`
	LastTS   *time.Time `json:"last_ts,omitempty"`
}

// ReadingWriter appends readings. CreateReadings stores all or none.
type ReadingWriter interface {
	CreateReading(ctx context.Context, reading *hardware_models.Reading) error
	CreateReadings(ctx context.Context, readings []hardware_models.Reading) error
}

type ReadingRepository interface {
	ReadingWriter

	GetLatestReadings(ctx context.Context, sensorID string, limit int) ([]hardware_models.Reading, error)
	GetReadings(ctx context.Context, params ReadingQueryParams) (*ReadingQueryResult, error)

	GetSummaryStats(ctx context.Context, params ReadingQueryParams) (*SummaryStats, error)

	// DeleteReadingsByTimeRange removes readings in [start, end]; an empty sensorID spans all sensors
	DeleteReadingsByTimeRange(ctx context.Context, sensorID string, start, end time.Time) (int64, error)
}
