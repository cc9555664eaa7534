package implementation

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	hardware_models "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Models/hardware"
	interfaces "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Repository/Interfaces"
)

const boardColumns = `board_id, user_id, name, description, model, image, created_at, updated_at`

type BoardRepository struct {
	db *sql.DB
}

func NewBoardRepository(db *sql.DB) *BoardRepository {
	return &BoardRepository{db: db}
}

func scanBoard(s rowScanner) (*hardware_models.Board, error) {
	var b hardware_models.Board
	if err := s.Scan(&b.BoardID, &b.UserID, &b.Name, &b.Description, &b.Model, &b.Image,
		&b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BoardRepository) CreateBoard(ctx context.Context, board *hardware_models.Board) (*hardware_models.Board, error) {
	if board.BoardID == "" {
		board.BoardID = uuid.New().String()
	}
	board.CreatedAt = now()
	board.UpdatedAt = board.CreatedAt

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO boards (`+boardColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		board.BoardID, board.UserID, board.Name, board.Description, board.Model, board.Image,
		board.CreatedAt, board.UpdatedAt)
	if err != nil {
		return nil, translateError(err)
	}
	return board, nil
}

func (r *BoardRepository) GetBoard(ctx context.Context, boardID string) (*hardware_models.Board, error) {
	board, err := scanBoard(r.db.QueryRowContext(ctx, `SELECT `+boardColumns+` FROM boards WHERE board_id = $1`, boardID))
	if err != nil {
		return nil, translateError(err)
	}
	return board, nil
}

func (r *BoardRepository) ListBoards(ctx context.Context, userID string, page, pageSize int) (*interfaces.PaginationResult, error) {
	page, pageSize, offset := normalizePage(page, pageSize)

	var (
		countQuery = `SELECT COUNT(*) FROM boards`
		listQuery  = `SELECT ` + boardColumns + ` FROM boards ORDER BY created_at DESC LIMIT $1 OFFSET $2`
		countArgs  []any
		listArgs   = []any{pageSize, offset}
	)
	if userID != "" {
		countQuery = `SELECT COUNT(*) FROM boards WHERE user_id = $1`
		listQuery = `SELECT ` + boardColumns + ` FROM boards WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
		countArgs = []any{userID}
		listArgs = []any{userID, pageSize, offset}
	}

	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, listQuery, listArgs...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	boards := make([]hardware_models.Board, 0)
	for rows.Next() {
		b, err := scanBoard(rows)
		if err != nil {
			return nil, err
		}
		boards = append(boards, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &interfaces.PaginationResult{
		Items:    boards,
		NextPage: nextPage(page, pageSize, len(boards), total),
		Total:    total,
	}, nil
}

func (r *BoardRepository) UpdateBoard(ctx context.Context, board *hardware_models.Board) error {
	board.UpdatedAt = now()
	return expectOne(r.db.ExecContext(ctx, `
		UPDATE boards
		SET name = $1, description = $2, model = $3, image = $4, updated_at = $5
		WHERE board_id = $6`,
		board.Name, board.Description, board.Model, board.Image, board.UpdatedAt, board.BoardID))
}

// DeleteBoard relies on ON DELETE CASCADE for sensors and everything below them
func (r *BoardRepository) DeleteBoard(ctx context.Context, boardID string) error {
	return expectOne(r.db.ExecContext(ctx, `DELETE FROM boards WHERE board_id = $1`, boardID))
}
