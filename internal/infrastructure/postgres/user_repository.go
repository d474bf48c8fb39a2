package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/midas-vault/midas-vault/internal/domain/user"
)

const userColumns = `user_id, username, email, full_name, password_hash, role, status, created_at, updated_at`

// UserRepository implements user.Repository.
type UserRepository struct {
	q querier
}

func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, u.ID, u.Username, u.Email, u.FullName, u.PasswordHash, u.Role, u.Status, u.CreatedAt, u.UpdatedAt)
	return translate(err)
}

func (r *UserRepository) Update(ctx context.Context, u *user.User) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE users
		SET email=$1, full_name=$2, password_hash=$3, role=$4, status=$5, updated_at=$6
		WHERE user_id=$7
	`, u.Email, u.FullName, u.PasswordHash, u.Role, u.Status, u.UpdatedAt, u.ID)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrMissing
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, userID uuid.UUID) (*user.User, error) {
	return scanUser(r.q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE user_id=$1`, userID))
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	return scanUser(r.q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username=$1`, username))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return scanUser(r.q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email=$1`, email))
}

func (r *UserRepository) List(ctx context.Context, filter user.Filter, limit, offset int) ([]*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users`
	args := []any{}
	idx := 1
	if filter.Role != nil {
		query += addWhere(query) + " role=$" + itoa(idx)
		args = append(args, *filter.Role)
		idx++
	}
	if filter.Status != nil {
		query += addWhere(query) + " status=$" + itoa(idx)
		args = append(args, *filter.Status)
		idx++
	}
	if filter.Username != nil {
		query += addWhere(query) + " username=$" + itoa(idx)
		args = append(args, *filter.Username)
		idx++
	}
	query += " ORDER BY created_at DESC LIMIT $" + itoa(idx) + " OFFSET $" + itoa(idx+1)
	args = append(args, limit, offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanUser)
}

func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	return count, err
}

func (r *UserRepository) CountByRole(ctx context.Context, role user.Role) (int, error) {
	var count int
	err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE role=$1`, role).Scan(&count)
	return count, err
}

func scanUser(row pgx.Row) (*user.User, error) {
	var u user.User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FullName, &u.PasswordHash, &u.Role, &u.Status, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if noRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}
