package implementation

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	hardware_models "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Models/hardware"
)

const sensorColumns = `sensor_id, board_id, name, pin, sensor_type, topic, image, created_at, updated_at`

type SensorRepository struct {
	db *sql.DB
}

func NewSensorRepository(db *sql.DB) *SensorRepository {
	return &SensorRepository{db: db}
}

func scanSensor(s rowScanner) (*hardware_models.Sensor, error) {
	var sensor hardware_models.Sensor
	var sensorType string
	if err := s.Scan(&sensor.SensorID, &sensor.BoardID, &sensor.Name, &sensor.Pin, &sensorType,
		&sensor.Topic, &sensor.Image, &sensor.CreatedAt, &sensor.UpdatedAt); err != nil {
		return nil, err
	}
	sensor.Type = hardware_models.SensorType(sensorType)
	return &sensor, nil
}

// CreateSensor returns ErrConflict when another sensor already owns the topic
func (r *SensorRepository) CreateSensor(ctx context.Context, sensor *hardware_models.Sensor) (*hardware_models.Sensor, error) {
	if sensor.SensorID == "" {
		sensor.SensorID = uuid.New().String()
	}
	sensor.CreatedAt = now()
	sensor.UpdatedAt = sensor.CreatedAt

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sensors (`+sensorColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		sensor.SensorID, sensor.BoardID, sensor.Name, sensor.Pin, string(sensor.Type),
		sensor.Topic, sensor.Image, sensor.CreatedAt, sensor.UpdatedAt)
	if err != nil {
		return nil, translateError(err)
	}
	return sensor, nil
}

func (r *SensorRepository) GetSensor(ctx context.Context, sensorID string) (*hardware_models.Sensor, error) {
	sensor, err := scanSensor(r.db.QueryRowContext(ctx, `SELECT `+sensorColumns+` FROM sensors WHERE sensor_id = $1`, sensorID))
	if err != nil {
		return nil, translateError(err)
	}
	return sensor, nil
}

// GetSensorByTopic matches the topic exactly
func (r *SensorRepository) GetSensorByTopic(ctx context.Context, topic string) (*hardware_models.Sensor, error) {
	sensor, err := scanSensor(r.db.QueryRowContext(ctx, `SELECT `+sensorColumns+` FROM sensors WHERE topic = $1`, topic))
	if err != nil {
		return nil, translateError(err)
	}
	return sensor, nil
}

func (r *SensorRepository) ListSensorsByBoard(ctx context.Context, boardID string) ([]hardware_models.Sensor, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+sensorColumns+` FROM sensors WHERE board_id = $1 ORDER BY pin, created_at`, boardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sensors := make([]hardware_models.Sensor, 0)
	for rows.Next() {
		sensor, err := scanSensor(rows)
		if err != nil {
			return nil, err
		}
		sensors = append(sensors, *sensor)
	}
	return sensors, rows.Err()
}

func (r *SensorRepository) UpdateSensor(ctx context.Context, sensor *hardware_models.Sensor) error {
	sensor.UpdatedAt = now()
	return expectOne(r.db.ExecContext(ctx, `
		UPDATE sensors
		SET name = $1, pin = $2, sensor_type = $3, topic = $4, image = $5, updated_at = $6
		WHERE sensor_id = $7`,
		sensor.Name, sensor.Pin, string(sensor.Type), sensor.Topic, sensor.Image, sensor.UpdatedAt, sensor.SensorID))
}

func (r *SensorRepository) DeleteSensor(ctx context.Context, sensorID string) error {
	return expectOne(r.db.ExecContext(ctx, `DELETE FROM sensors WHERE sensor_id = $1`, sensorID))
}
