package postgres

import (
	"errors"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/midas-vault/midas-vault/internal/domain/exchange"
)

var (
	ErrDuplicate = errors.New("duplicate key")
	ErrMissing   = errors.New("record does not exist")
)

const (
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

// translate maps driver errors onto the domain taxonomy. The losing side of a
// race is rejected, not retried.
func translate(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case codeUniqueViolation:
		switch pgErr.ConstraintName {
		case "barters_active_pair_idx", "trade_ins_active_pair_idx":
			return exchange.ErrActiveExchangeExists
		case "purchases_active_product_idx":
			return exchange.ErrNotAvailable
		}
		return errors.Join(ErrDuplicate, err)
	case codeSerializationFailure, codeDeadlockDetected:
		return exchange.ErrConcurrentUpdate
	}
	return err
}

// translateDelete reports a row still referenced elsewhere as blocked. It
// backs up HasHistory when an exchange commits between the check and the delete.
func translateDelete(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == codeForeignKeyViolation {
		return errors.Join(exchange.ErrDeleteBlocked, err)
	}
	return translate(err)
}

// noRows reports the pgx "no rows" sentinel.
func noRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func addWhere(query string) string {
	if strings.Contains(query, " WHERE ") {
		return " AND"
	}
	return " WHERE"
}

func itoa(i int) string {
	return strconv.Itoa(i)
}
