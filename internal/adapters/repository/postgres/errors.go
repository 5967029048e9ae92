package postgres

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/lib/pq"

	"github.com/flencrypto/cfs-platform/internal/adapters/repository"
)

// PostgreSQL SQLSTATE codes the adapter reacts to.
const (
	codeForeignKeyViolation = pq.ErrorCode("23503")
	codeUniqueViolation     = pq.ErrorCode("23505")
	classConnection         = pq.ErrorClass("08")
	codeAdminShutdown       = pq.ErrorCode("57P01")
	codeCrashShutdown       = pq.ErrorCode("57P02")
	codeCannotConnectNow    = pq.ErrorCode("57P03")
)

// classify attaches a repository sentinel to driver errors so the facade
// can tell connection failures apart from query failures.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}
	if isConnectionError(err) {
		return fmt.Errorf("%s: %w: %w", op, repository.ErrStoreUnavailable, err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case codeForeignKeyViolation:
			return fmt.Errorf("%s: %w: %s", op, repository.ErrInvalidReference, pqErr.Constraint)
		case codeUniqueViolation:
			return fmt.Errorf("%s: %w: %s", op, repository.ErrDuplicate, pqErr.Constraint)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isConnectionError(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Code.Class() == classConnection {
			return true
		}
		switch pqErr.Code {
		case codeAdminShutdown, codeCrashShutdown, codeCannotConnectNow:
			return true
		}
	}
	return false
}
