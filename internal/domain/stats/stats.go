package stats

import (
	"context"
	"time"
)

// Snapshot is a read-only rollup of marketplace activity.
type Snapshot struct {
	Users                  int            `json:"users"`
	ProductsByVerification map[string]int `json:"products_by_verification"`
	ProductsByAvailability map[string]int `json:"products_by_availability"`
	PurchasesByStatus      map[string]int `json:"purchases_by_status"`
	BartersByStatus        map[string]int `json:"barters_by_status"`
	TradeInsByStatus       map[string]int `json:"trade_ins_by_status"`
	GeneratedAt            time.Time      `json:"generated_at"`
}

// NewSnapshot returns a snapshot with every map initialised.
func NewSnapshot(now time.Time) *Snapshot {
	return &Snapshot{
		ProductsByVerification: map[string]int{},
		ProductsByAvailability: map[string]int{},
		PurchasesByStatus:      map[string]int{},
		BartersByStatus:        map[string]int{},
		TradeInsByStatus:       map[string]int{},
		GeneratedAt:            now,
	}
}

// Repository computes rollups from the store.
type Repository interface {
	Collect(ctx context.Context) (*Snapshot, error)
}
