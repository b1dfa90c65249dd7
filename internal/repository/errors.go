// Package repository holds the MySQL access layer. Lookups that may find
// nothing return an explicit found flag instead of sql.ErrNoRows; the
// sentinel values below cover the failures handlers need to tell apart.
package repository

import (
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrUsernameTaken is returned when registering a username that already
// exists. Handlers translate it into 409.
var ErrUsernameTaken = errors.New("username already taken")

// ErrUnknownPerformer is returned when a concert references a performer
// id that does not exist.
var ErrUnknownPerformer = errors.New("unknown performer")

const (
	mysqlDuplicateEntry  = 1062
	mysqlNoReferencedRow = 1452
	mysqlLockWaitTimeout = 1205
	mysqlDeadlock        = 1213
)

func mysqlErrorIs(err error, number uint16) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == number
}

func isDuplicate(err error) bool { return mysqlErrorIs(err, mysqlDuplicateEntry) }

// found folds sql.ErrNoRows into a boolean.
func found(err error) (bool, error) {
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	default:
		return false, err
	}
}
