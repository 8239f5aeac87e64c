package mocks

import (
	"context"
	"time"

	"github.com/notas4int/url-cutter/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockCacheRepository struct {
	mock.Mock
}

func (m *MockCacheRepository) GetLink(ctx context.Context, alias string) (*domain.Link, error) {
	args := m.Called(ctx, alias)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Link), args.Error(1)
}

func (m *MockCacheRepository) SetLink(ctx context.Context, link *domain.Link, ttl time.Duration) error {
	args := m.Called(ctx, link, ttl)
	return args.Error(0)
}

func (m *MockCacheRepository) DeleteLink(ctx context.Context, alias string) error {
	args := m.Called(ctx, alias)
	return args.Error(0)
}
