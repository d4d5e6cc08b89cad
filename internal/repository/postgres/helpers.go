package postgres

import (
	"database/sql"
	"errors"

	ierr "github.com/flexprice/payments/internal/errors"
)

// wrapGetErr maps driver errors of single-row lookups onto domain sentinels.
func wrapGetErr(err error, entity string, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ierr.NewError(entity + " not found").
			WithHintf("No %s with id %s", entity, id).
			WithReportableDetails(map[string]any{"id": id}).
			Mark(ierr.ErrNotFound)
	}
	return ierr.WithError(err).
		WithHintf("Failed to load %s", entity).
		Mark(ierr.ErrDatabase)
}

// requireRow turns a zero-row write into ErrNotFound.
func requireRow(result sql.Result, entity string, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return ierr.WithError(err).
			WithHintf("Failed to update %s", entity).
			Mark(ierr.ErrDatabase)
	}
	if affected == 0 {
		return ierr.NewError(entity + " not found").
			WithHintf("No %s with id %s", entity, id).
			Mark(ierr.ErrNotFound)
	}
	return nil
}
