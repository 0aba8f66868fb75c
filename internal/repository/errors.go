// Package repository defines the MySQL data access layer and the sentinel
// errors shared by its repositories.  Handlers translate these values into
// HTTP responses; a row that exists but belongs to another user is reported
// with the same NotFound sentinel as a missing row.
package repository

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
)

var (
	ErrUserNotFound              = errors.New("user not found")
	ErrEmailExists               = errors.New("email already exists")
	ErrVerificationTokenNotFound = errors.New("verification token not found")
	ErrGoalNotFound              = errors.New("goal not found")
	ErrLogNotFound               = errors.New("exercise log not found")
	ErrProjectNotFound           = errors.New("project not found")
	ErrCustomerLinked            = errors.New("billing customer already linked to another user")
)

// MySQL server error numbers the repositories react to.
const (
	mysqlDuplicateEntry  = 1062
	mysqlNoReferencedRow = 1452
)

func isMySQLError(err error, number uint16) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == number
	}
	// some proxies rewrap driver errors as plain strings
	return err != nil && strings.Contains(err.Error(), "Error "+strconv.Itoa(int(number)))
}

// setList accumulates "col = ?" fragments for sparse UPDATE statements.
type setList struct {
	cols []string
	args []any
}

func (s *setList) add(col string, v any) {
	s.cols = append(s.cols, col+" = ?")
	s.args = append(s.args, v)
}

func (s *setList) empty() bool { return len(s.cols) == 0 }

func (s *setList) sql() string { return strings.Join(s.cols, ", ") }
