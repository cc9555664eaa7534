package implementation

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	dashboard_models "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Models/dashboard"
)

const dashboardColumns = `dashboard_id, user_id, name, description, sensor_ids, created_at, updated_at`

type DashboardRepository struct {
	db *sql.DB
}

func NewDashboardRepository(db *sql.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

func scanDashboard(s rowScanner) (*dashboard_models.Dashboard, error) {
	var d dashboard_models.Dashboard
	var sensorIDs string
	if err := s.Scan(&d.DashboardID, &d.UserID, &d.Name, &d.Description, &sensorIDs,
		&d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(sensorIDs), &d.SensorIDs); err != nil {
		return nil, fmt.Errorf("failed to decode sensor ids: %w", err)
	}
	if d.SensorIDs == nil {
		d.SensorIDs = []string{}
	}
	return &d, nil
}

func encodeSensorIDs(ids []string) (string, error) {
	if ids == nil {
		ids = []string{}
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return "", fmt.Errorf("failed to encode sensor ids: %w", err)
	}
	return string(b), nil
}

func (r *DashboardRepository) CreateDashboard(ctx context.Context, d *dashboard_models.Dashboard) (*dashboard_models.Dashboard, error) {
	ids, err := encodeSensorIDs(d.SensorIDs)
	if err != nil {
		return nil, err
	}
	if d.DashboardID == "" {
		d.DashboardID = uuid.New().String()
	}
	d.CreatedAt = now()
	d.UpdatedAt = d.CreatedAt

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO dashboards (`+dashboardColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		d.DashboardID, d.UserID, d.Name, d.Description, ids, d.CreatedAt, d.UpdatedAt)
	if err != nil {
		return nil, translateError(err)
	}
	return d, nil
}

func (r *DashboardRepository) GetDashboard(ctx context.Context, dashboardID string) (*dashboard_models.Dashboard, error) {
	d, err := scanDashboard(r.db.QueryRowContext(ctx,
		`SELECT `+dashboardColumns+` FROM dashboards WHERE dashboard_id = $1`, dashboardID))
	if err != nil {
		return nil, translateError(err)
	}
	return d, nil
}

func (r *DashboardRepository) ListDashboards(ctx context.Context, userID string) ([]dashboard_models.Dashboard, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+dashboardColumns+` FROM dashboards WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]dashboard_models.Dashboard, 0)
	for rows.Next() {
		d, err := scanDashboard(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

func (r *DashboardRepository) UpdateDashboard(ctx context.Context, d *dashboard_models.Dashboard) error {
	ids, err := encodeSensorIDs(d.SensorIDs)
	if err != nil {
		return err
	}
	d.UpdatedAt = now()
	return expectOne(r.db.ExecContext(ctx, `
		UPDATE dashboards SET name = $1, description = $2, sensor_ids = $3, updated_at = $4
		WHERE dashboard_id = $5`,
		d.Name, d.Description, ids, d.UpdatedAt, d.DashboardID))
}

func (r *DashboardRepository) DeleteDashboard(ctx context.Context, dashboardID string) error {
	return expectOne(r.db.ExecContext(ctx, `DELETE FROM dashboards WHERE dashboard_id = $1`, dashboardID))
}
