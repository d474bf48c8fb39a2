package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/midas-vault/midas-vault/internal/domain/stats"
)

// StatsRepository implements stats.Repository with GROUP BY rollups.
type StatsRepository struct {
	q querier
}

func (r *StatsRepository) Collect(ctx context.Context) (*stats.Snapshot, error) {
	snap := stats.NewSnapshot(time.Now().UTC())
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&snap.Users); err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	groups := []struct {
		query string
		into  map[string]int
	}{
		{`SELECT verification_state, COUNT(*) FROM products GROUP BY verification_state`, snap.ProductsByVerification},
		{`SELECT availability, COUNT(*) FROM products GROUP BY availability`, snap.ProductsByAvailability},
		{`SELECT status, COUNT(*) FROM purchases GROUP BY status`, snap.PurchasesByStatus},
		{`SELECT status, COUNT(*) FROM barters GROUP BY status`, snap.BartersByStatus},
		{`SELECT status, COUNT(*) FROM trade_ins GROUP BY status`, snap.TradeInsByStatus},
	}
	for _, g := range groups {
		if err := r.countInto(ctx, g.query, g.into); err != nil {
			return nil, err
		}
	}
	return snap, nil
}

func (r *StatsRepository) countInto(ctx context.Context, query string, into map[string]int) error {
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return err
		}
		into[key] = n
	}
	return rows.Err()
}
