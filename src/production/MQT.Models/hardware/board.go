package hardware_models

import "time"

// Board is a microcontroller or gateway that owns a set of sensors
type Board struct {
	BoardID     string    `json:"board_id" db:"board_id"`
	UserID      string    `json:"user_id" db:"user_id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Model       string    `json:"model" db:"model"`
	Image       string    `json:"image" db:"image"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
