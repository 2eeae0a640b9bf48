package repository

import (
	"database/sql"
	"fmt"
)

// requireRowsAffected converts zero-row writes into sql.ErrNoRows so services
// can surface NotFound consistently.
func requireRowsAffected(result sql.Result, op string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows: %w", op, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
