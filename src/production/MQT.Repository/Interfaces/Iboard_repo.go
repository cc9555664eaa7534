package interfaces

import (
	"context"

	hardware_models "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Models/hardware"
)

type BoardRepository interface {
	CreateBoard(ctx context.Context, board *hardware_models.Board) (*hardware_models.Board, error)

	GetBoard(ctx context.Context, boardID string) (*hardware_models.Board, error)
	// ListBoards lists boards of userID, or every board when userID is empty
	ListBoards(ctx context.Context, userID string, page, pageSize int) (*PaginationResult, error)

	UpdateBoard(ctx context.Context, board *hardware_models.Board) error

	// DeleteBoard removes the board with its sensors, readings and alert rules
	DeleteBoard(ctx context.Context, boardID string) error
}
