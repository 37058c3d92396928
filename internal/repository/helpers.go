package repository

import (
	"database/sql"
	"errors"
	"time"
)

// notFound turns a missing row into (nil, nil) so callers can tell "absent"
// from "failed".
func notFound[T any](v *T, err error) (*T, error) {
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

func now() time.Time {
	return time.Now().UTC()
}

func stamp(created, updated *time.Time) {
	t := now()
	if created != nil && created.IsZero() {
		*created = t
	}
	if updated != nil {
		*updated = t
	}
}
