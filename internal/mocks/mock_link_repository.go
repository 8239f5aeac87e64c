package mocks

import (
	"context"
	"time"

	"github.com/notas4int/url-cutter/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockLinkRepository struct {
	mock.Mock
}

func (m *MockLinkRepository) Create(ctx context.Context, link *domain.Link) error {
	args := m.Called(ctx, link)
	return args.Error(0)
}

func (m *MockLinkRepository) ExistsByAlias(ctx context.Context, alias string, now time.Time) (bool, error) {
	args := m.Called(ctx, alias, now)
	return args.Bool(0), args.Error(1)
}

func (m *MockLinkRepository) GetByAlias(ctx context.Context, alias string) (*domain.Link, error) {
	args := m.Called(ctx, alias)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Link), args.Error(1)
}

func (m *MockLinkRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
