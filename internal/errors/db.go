package errors

import (
	"context"
	"database/sql/driver"
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// MySQL server error numbers that point at configuration rather than transient trouble.
const (
	mysqlAccessDenied   = 1045
	mysqlUnknownDB      = 1049
	mysqlTableMissing   = 1146
	mysqlUnknownColumn  = 1054
	mysqlTooManyConns   = 1040
	mysqlServerShutdown = 1053
)

// MapDBError maps measurement store errors to AppError instances.
// It handles:
// - Context timeouts/cancellations → Timeout/Canceled
// - Postgres connection and server errors → DataSource
// - MySQL server errors and broken connections → DataSource
//
// Anything else coming out of the store is reported as a DataSource error as well.
func MapDBError(err error) error {
	if err == nil {
		return nil
	}

	// Check for context errors first
	if errors.Is(err, context.DeadlineExceeded) {
		return &AppError{
			Code:    ErrCodeTimeout,
			Message: "measurement store timed out",
			Cause:   err,
		}
	}
	if errors.Is(err, context.Canceled) {
		return &AppError{
			Code:    ErrCodeCanceled,
			Message: "measurement store request was canceled",
			Cause:   err,
		}
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return err
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return DataSource("could not connect to measurement store", err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return DataSource(pgErrorMessage(pgErr), err)
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return DataSource(mysqlErrorMessage(myErr), err)
	}

	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) {
		return DataSource("lost connection to measurement store", err)
	}

	return DataSource("measurement store query failed", err)
}

func pgErrorMessage(pgErr *pgconn.PgError) string {
	switch {
	case pgerrcode.IsConnectionException(pgErr.Code):
		return "could not connect to measurement store"
	case pgerrcode.IsInvalidAuthorizationSpecification(pgErr.Code), pgErr.Code == pgerrcode.InsufficientPrivilege:
		return "measurement store rejected the credentials"
	case pgErr.Code == pgerrcode.InvalidCatalogName:
		return "measurement database does not exist"
	case pgErr.Code == pgerrcode.UndefinedTable, pgErr.Code == pgerrcode.UndefinedColumn:
		return "measurement table is missing or has an unexpected shape"
	case pgErr.Code == pgerrcode.AdminShutdown, pgErr.Code == pgerrcode.CannotConnectNow:
		return "measurement store is shutting down"
	default:
		return "measurement store query failed"
	}
}

func mysqlErrorMessage(myErr *mysql.MySQLError) string {
	switch myErr.Number {
	case mysqlAccessDenied:
		return "measurement store rejected the credentials"
	case mysqlUnknownDB:
		return "measurement database does not exist"
	case mysqlTableMissing, mysqlUnknownColumn:
		return "measurement table is missing or has an unexpected shape"
	case mysqlTooManyConns, mysqlServerShutdown:
		return "could not connect to measurement store"
	default:
		return "measurement store query failed"
	}
}
