package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/midas-vault/midas-vault/internal/domain/user"
)

// UserRepository implements user.Repository.
type UserRepository struct {
	v view
}

func copyUser(u *user.User) *user.User {
	c := *u
	return &c
}

func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	return r.v.write(func(st *state) error {
		for _, existing := range st.users {
			if existing.ID == u.ID || existing.Username == u.Username || existing.Email == u.Email {
				return ErrDuplicate
			}
		}
		st.users[u.ID] = copyUser(u)
		return nil
	})
}

func (r *UserRepository) Update(ctx context.Context, u *user.User) error {
	return r.v.write(func(st *state) error {
		if _, ok := st.users[u.ID]; !ok {
			return ErrMissing
		}
		st.users[u.ID] = copyUser(u)
		return nil
	})
}

func (r *UserRepository) GetByID(ctx context.Context, userID uuid.UUID) (*user.User, error) {
	return r.find(func(u *user.User) bool { return u.ID == userID })
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	return r.find(func(u *user.User) bool { return u.Username == username })
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.find(func(u *user.User) bool { return u.Email == email })
}

func (r *UserRepository) find(match func(*user.User) bool) (*user.User, error) {
	var out *user.User
	err := r.v.read(func(st *state) error {
		for _, u := range st.users {
			if match(u) {
				out = copyUser(u)
				break
			}
		}
		return nil
	})
	return out, err
}

func (r *UserRepository) List(ctx context.Context, filter user.Filter, limit, offset int) ([]*user.User, error) {
	var out []*user.User
	err := r.v.read(func(st *state) error {
		for _, u := range st.users {
			if filter.Role != nil && u.Role != *filter.Role {
				continue
			}
			if filter.Status != nil && u.Status != *filter.Status {
				continue
			}
			if filter.Username != nil && u.Username != *filter.Username {
				continue
			}
			out = append(out, copyUser(u))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	newestFirst(out, func(u *user.User) time.Time { return u.CreatedAt })
	return paginate(out, limit, offset), nil
}

func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.v.read(func(st *state) error {
		n = len(st.users)
		return nil
	})
	return n, err
}

func (r *UserRepository) CountByRole(ctx context.Context, role user.Role) (int, error) {
	var n int
	err := r.v.read(func(st *state) error {
		for _, u := range st.users {
			if u.Role == role {
				n++
			}
		}
		return nil
	})
	return n, err
}
