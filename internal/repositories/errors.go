package repositories

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates the attempted write would violate a uniqueness constraint.
	ErrConflict = errors.New("record conflict")
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgInvalidText         = "22P02"
)

// classify maps constraint violations onto the package sentinels and
// reports whether it did.
func classify(err error) (error, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err, false
	}
	switch pgErr.Code {
	case pgUniqueViolation:
		return ErrConflict, true
	case pgForeignKeyViolation, pgInvalidText:
		return ErrNotFound, true
	}
	return err, false
}
