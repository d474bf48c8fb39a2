package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/midas-vault/midas-vault/internal/domain/review"
)

// MockRepository is a mock implementation of review.Repository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, r *review.Review) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockRepository) Exists(ctx context.Context, reviewerID uuid.UUID, ref review.Ref) (bool, error) {
	args := m.Called(ctx, reviewerID, ref)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) ListByReviewee(ctx context.Context, revieweeID uuid.UUID, limit, offset int) ([]*review.Review, error) {
	args := m.Called(ctx, revieweeID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*review.Review), args.Error(1)
}
