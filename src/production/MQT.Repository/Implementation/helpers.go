package implementation

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	interfaces "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Repository/Interfaces"
)

const (
	defaultPageSize = 50
	maxPageSize     = 1000
)

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

// translateError maps driver specific constraint violations onto repository sentinels
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return interfaces.ErrNotFound
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			return fmt.Errorf("%w: %s", interfaces.ErrConflict, pqErr.Constraint)
		case "23503":
			return fmt.Errorf("%w: %s", interfaces.ErrInvalidReference, pqErr.Constraint)
		}
		return err
	}

	// modernc.org/sqlite reports constraint failures through the message text
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return fmt.Errorf("%w: %s", interfaces.ErrConflict, msg)
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return fmt.Errorf("%w: %s", interfaces.ErrInvalidReference, msg)
	}
	return err
}

// expectOne turns a zero-row update or delete into ErrNotFound
func expectOne(result sql.Result, err error) error {
	if err != nil {
		return translateError(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}

// normalizePage clamps page and pageSize to sane bounds and returns the offset
func normalizePage(page, pageSize int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize, (page - 1) * pageSize
}

func nextPage(page, pageSize, got, total int) *int {
	if got == pageSize && page*pageSize < total {
		n := page + 1
		return &n
	}
	return nil
}

func now() time.Time {
	return time.Now().UTC()
}
