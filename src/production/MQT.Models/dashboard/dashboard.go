package dashboard_models

import "time"

// Dashboard is a user-owned, ordered collection of sensors shown together
type Dashboard struct {
	DashboardID string    `json:"dashboard_id" db:"dashboard_id"`
	UserID      string    `json:"user_id" db:"user_id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	SensorIDs   []string  `json:"sensor_ids" db:"sensor_ids"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
