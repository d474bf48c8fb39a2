package memory

import (
	"context"
	"time"

	"github.com/midas-vault/midas-vault/internal/domain/stats"
)

// StatsRepository implements stats.Repository.
type StatsRepository struct {
	v view
}

func (r *StatsRepository) Collect(ctx context.Context) (*stats.Snapshot, error) {
	snap := stats.NewSnapshot(time.Now().UTC())
	err := r.v.read(func(st *state) error {
		snap.Users = len(st.users)
		for _, p := range st.products {
			snap.ProductsByVerification[string(p.Verification)]++
			snap.ProductsByAvailability[string(p.Availability)]++
		}
		for _, p := range st.purchases {
			snap.PurchasesByStatus[string(p.Status)]++
		}
		for _, b := range st.barters {
			snap.BartersByStatus[string(b.Status)]++
		}
		for _, t := range st.tradeIns {
			snap.TradeInsByStatus[string(t.Status)]++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}
