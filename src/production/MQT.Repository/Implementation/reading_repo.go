package implementation

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	config "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Config"
	hardware_models "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Models/hardware"
	interfaces "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Repository/Interfaces"
)

const readingColumns = `reading_id, sensor_id, value, unit, created_at`

type ReadingRepository struct {
	db     *sql.DB
	driver string
}

func NewReadingRepository(db *sql.DB, driver string) *ReadingRepository {
	return &ReadingRepository{db: db, driver: driver}
}

func scanReading(s rowScanner) (hardware_models.Reading, error) {
	var rd hardware_models.Reading
	err := s.Scan(&rd.ReadingID, &rd.SensorID, &rd.Value, &rd.Unit, &rd.CreatedAt)
	return rd, err
}

func prepareReading(rd *hardware_models.Reading) {
	if rd.ReadingID == "" {
		rd.ReadingID = uuid.New().String()
	}
	if rd.CreatedAt.IsZero() {
		rd.CreatedAt = now()
	} else {
		rd.CreatedAt = rd.CreatedAt.UTC()
	}
}

// CreateReading appends one reading. The id and timestamp are assigned when empty.
func (r *ReadingRepository) CreateReading(ctx context.Context, reading *hardware_models.Reading) error {
	prepareReading(reading)
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO readings (`+readingColumns+`) VALUES ($1, $2, $3, $4, $5)`,
		reading.ReadingID, reading.SensorID, reading.Value, reading.Unit, reading.CreatedAt)
	return translateError(err)
}

// CreateReadings bulk inserts in one transaction, using COPY on PostgreSQL
func (r *ReadingRepository) CreateReadings(ctx context.Context, readings []hardware_models.Reading) error {
	if len(readings) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var stmt *sql.Stmt
	if r.driver == config.DriverPostgres {
		stmt, err = tx.PrepareContext(ctx, pq.CopyIn("readings", "reading_id", "sensor_id", "value", "unit", "created_at"))
	} else {
		stmt, err = tx.PrepareContext(ctx, `INSERT INTO readings (`+readingColumns+`) VALUES ($1, $2, $3, $4, $5)`)
	}
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for i := range readings {
		prepareReading(&readings[i])
		rd := readings[i]
		if _, err := stmt.ExecContext(ctx, rd.ReadingID, rd.SensorID, rd.Value, rd.Unit, rd.CreatedAt); err != nil {
			return translateError(err)
		}
	}

	if r.driver == config.DriverPostgres {
		// flush the COPY buffer
		if _, err := stmt.ExecContext(ctx); err != nil {
			return translateError(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return translateError(err)
	}
	return nil
}

// GetLatestReadings returns the newest readings of a sensor, newest first
func (r *ReadingRepository) GetLatestReadings(ctx context.Context, sensorID string, limit int) ([]hardware_models.Reading, error) {
	if limit <= 0 {
		limit = 1
	}
	return r.query(ctx,
		`SELECT `+readingColumns+` FROM readings WHERE sensor_id = $1 ORDER BY created_at DESC LIMIT $2`,
		sensorID, limit)
}

// GetReadings pages through a sensor's readings inside an optional time window, newest first
func (r *ReadingRepository) GetReadings(ctx context.Context, params interfaces.ReadingQueryParams) (*interfaces.ReadingQueryResult, error) {
	page, limit, offset := normalizePage(params.Page, params.Limit)
	where, args := readingFilter(params)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM readings`+where, args...).Scan(&total); err != nil {
		return nil, err
	}

	n := len(args)
	query := fmt.Sprintf(`SELECT %s FROM readings%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		readingColumns, where, n+1, n+2)
	items, err := r.query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, err
	}

	return &interfaces.ReadingQueryResult{
		Items:    items,
		NextPage: nextPage(page, limit, len(items), total),
		Total:    total,
	}, nil
}

// GetSummaryStats aggregates count, min, max, avg and the time span of matching readings
func (r *ReadingRepository) GetSummaryStats(ctx context.Context, params interfaces.ReadingQueryParams) (*interfaces.SummaryStats, error) {
	where, args := readingFilter(params)
	stats := &interfaces.SummaryStats{SensorID: params.SensorID}

	var minV, maxV, avgV sql.NullFloat64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*), MIN(value), MAX(value), AVG(value) FROM readings`+where, args...).
		Scan(&stats.Count, &minV, &maxV, &avgV)
	if err != nil {
		return nil, err
	}
	if stats.Count == 0 {
		return stats, nil
	}
	stats.Min, stats.Max, stats.Avg = &minV.Float64, &maxV.Float64, &avgV.Float64

	// selected as plain columns so both drivers return a time value
	var first, last time.Time
	if err := r.db.QueryRowContext(ctx,
		`SELECT created_at FROM readings`+where+` ORDER BY created_at ASC LIMIT 1`, args...).Scan(&first); err != nil {
		return nil, err
	}
	if err := r.db.QueryRowContext(ctx,
		`SELECT created_at FROM readings`+where+` ORDER BY created_at DESC LIMIT 1`, args...).Scan(&last); err != nil {
		return nil, err
	}
	stats.FirstTS, stats.LastTS = &first, &last
	return stats, nil
}

// DeleteReadingsByTimeRange removes readings in [start, end]
func (r *ReadingRepository) DeleteReadingsByTimeRange(ctx context.Context, sensorID string, start, end time.Time) (int64, error) {
	var (
		result sql.Result
		err    error
	)
	if sensorID != "" {
		result, err = r.db.ExecContext(ctx,
			`DELETE FROM readings WHERE sensor_id = $1 AND created_at >= $2 AND created_at <= $3`,
			sensorID, start.UTC(), end.UTC())
	} else {
		result, err = r.db.ExecContext(ctx,
			`DELETE FROM readings WHERE created_at >= $1 AND created_at <= $2`, start.UTC(), end.UTC())
	}
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *ReadingRepository) query(ctx context.Context, query string, args ...any) ([]hardware_models.Reading, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]hardware_models.Reading, 0)
	for rows.Next() {
		rd, err := scanReading(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, rd)
	}
	return items, rows.Err()
}

func readingFilter(params interfaces.ReadingQueryParams) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if params.SensorID != "" {
		args = append(args, params.SensorID)
		clauses = append(clauses, fmt.Sprintf("sensor_id = $%d", len(args)))
	}
	if params.From != nil {
		args = append(args, params.From.UTC())
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if params.To != nil {
		args = append(args, params.To.UTC())
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}
