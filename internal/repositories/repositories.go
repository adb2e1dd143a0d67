package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"regexp"

	"github.com/desertthunder/genrefy/internal/shared"
)

var tableName = regexp.MustCompile(`^[a-z][a-z_]*$`)

// NextSequence increments the counter kept in "<table>_sequence" and returns the new value.
//
// Sequences number rows for display (job #42); primary keys stay uuids.
func NextSequence(db *sql.DB, table string) (int, error) {
	if !tableName.MatchString(table) {
		return 0, fmt.Errorf("%w: table name %q", shared.ErrInvalidInput, table)
	}

	var sequence int
	err := db.QueryRow("UPDATE " + table + "_sequence SET value = value + 1 WHERE id = 1 RETURNING value").Scan(&sequence)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: %s_sequence has no counter row", shared.ErrNotFound, table)
	} else if err != nil {
		return 0, fmt.Errorf("failed to increment %s sequence: %w", table, err)
	}

	return sequence, nil
}
