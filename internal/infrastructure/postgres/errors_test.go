package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/midas-vault/midas-vault/internal/domain/exchange"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"barter pair", &pgconn.PgError{Code: "23505", ConstraintName: "barters_active_pair_idx"}, exchange.ErrActiveExchangeExists},
		{"trade-in pair", &pgconn.PgError{Code: "23505", ConstraintName: "trade_ins_active_pair_idx"}, exchange.ErrActiveExchangeExists},
		{"second purchase", &pgconn.PgError{Code: "23505", ConstraintName: "purchases_active_product_idx"}, exchange.ErrNotAvailable},
		{"other unique key", &pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"}, ErrDuplicate},
		{"serialization failure", &pgconn.PgError{Code: "40001"}, exchange.ErrConcurrentUpdate},
		{"deadlock", fmt.Errorf("commit: %w", &pgconn.PgError{Code: "40P01"}), exchange.ErrConcurrentUpdate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, translate(tt.err), tt.want)
		})
	}
}

func TestTranslate_PassThrough(t *testing.T) {
	plain := errors.New("connection refused")
	assert.Same(t, plain, translate(plain))

	check := &pgconn.PgError{Code: "23514"}
	assert.Equal(t, error(check), translate(check))

	assert.True(t, noRows(fmt.Errorf("get: %w", pgx.ErrNoRows)))
}

func TestTranslateDelete(t *testing.T) {
	referenced := &pgconn.PgError{Code: "23503", TableName: "purchases", ConstraintName: "purchases_product_id_fkey"}
	err := translateDelete(referenced)
	assert.ErrorIs(t, err, exchange.ErrDeleteBlocked)
	assert.ErrorIs(t, err, referenced)

	assert.ErrorIs(t, translateDelete(&pgconn.PgError{Code: "40001"}), exchange.ErrConcurrentUpdate)
	assert.NoError(t, translateDelete(nil))
}

func TestAddWhere(t *testing.T) {
	assert.Equal(t, " WHERE", addWhere("SELECT 1 FROM users"))
	assert.Equal(t, " AND", addWhere("SELECT 1 FROM users WHERE role=$1"))
}
