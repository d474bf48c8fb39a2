package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/midas-vault/midas-vault/internal/domain/barter"
)

const barterColumns = `barter_id, requester_id, receiver_id, requester_product_id, receiver_product_id, note, status,
	requester_confirmed, receiver_confirmed, created_at, updated_at, completed_at`

// BarterRepository implements barter.Repository.
type BarterRepository struct {
	q querier
}

func (r *BarterRepository) Create(ctx context.Context, b *barter.Barter) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO barters (`+barterColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`, b.ID, b.RequesterID, b.ReceiverID, b.RequesterProductID, b.ReceiverProductID, b.Note, b.Status,
		b.RequesterConfirmed, b.ReceiverConfirmed, b.CreatedAt, b.UpdatedAt, b.CompletedAt)
	return translate(err)
}

func (r *BarterRepository) Update(ctx context.Context, b *barter.Barter) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE barters
		SET status=$1, requester_confirmed=$2, receiver_confirmed=$3, updated_at=$4, completed_at=$5
		WHERE barter_id=$6
	`, b.Status, b.RequesterConfirmed, b.ReceiverConfirmed, b.UpdatedAt, b.CompletedAt, b.ID)
	return affected(tag.RowsAffected(), err)
}

func (r *BarterRepository) GetByID(ctx context.Context, barterID uuid.UUID) (*barter.Barter, error) {
	return scanBarter(r.q.QueryRow(ctx, `SELECT `+barterColumns+` FROM barters WHERE barter_id=$1`, barterID))
}

func (r *BarterRepository) GetForUpdate(ctx context.Context, barterID uuid.UUID) (*barter.Barter, error) {
	return scanBarter(r.q.QueryRow(ctx, `SELECT `+barterColumns+` FROM barters WHERE barter_id=$1 FOR UPDATE`, barterID))
}

func (r *BarterRepository) List(ctx context.Context, filter barter.Filter, limit, offset int) ([]*barter.Barter, error) {
	query := `SELECT ` + barterColumns + ` FROM barters`
	args := []any{}
	idx := 1
	if filter.ParticipantID != nil {
		query += addWhere(query) + " (requester_id=$" + itoa(idx) + " OR receiver_id=$" + itoa(idx) + ")"
		args = append(args, *filter.ParticipantID)
		idx++
	}
	if filter.Status != nil {
		query += addWhere(query) + " status=$" + itoa(idx)
		args = append(args, *filter.Status)
		idx++
	}
	query += " ORDER BY created_at DESC LIMIT $" + itoa(idx) + " OFFSET $" + itoa(idx+1)
	args = append(args, limit, offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanBarter)
}

// HasActiveForPair matches the unordered pair, mirroring barters_active_pair_idx.
func (r *BarterRepository) HasActiveForPair(ctx context.Context, a, b uuid.UUID) (bool, error) {
	var found bool
	err := r.q.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM barters
			WHERE status IN ('pending', 'accepted')
			AND LEAST(requester_product_id, receiver_product_id) = LEAST($1::uuid, $2::uuid)
			AND GREATEST(requester_product_id, receiver_product_id) = GREATEST($1::uuid, $2::uuid)
		)
	`, a, b).Scan(&found)
	return found, err
}

func (r *BarterRepository) DeleteRejectedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM barters WHERE status='rejected' AND updated_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanBarter(row pgx.Row) (*barter.Barter, error) {
	var b barter.Barter
	if err := row.Scan(&b.ID, &b.RequesterID, &b.ReceiverID, &b.RequesterProductID, &b.ReceiverProductID, &b.Note, &b.Status,
		&b.RequesterConfirmed, &b.ReceiverConfirmed, &b.CreatedAt, &b.UpdatedAt, &b.CompletedAt); err != nil {
		if noRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}
