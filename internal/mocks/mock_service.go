package mocks

import (
	"context"

	"github.com/notas4int/url-cutter/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockShortenerService struct {
	mock.Mock
}

var _ interface {
	Shorten(ctx context.Context, req *domain.CreateLinkRequest) (*domain.Link, error)
	Resolve(ctx context.Context, alias string) (*domain.Link, error)
} = (*MockShortenerService)(nil)

func (m *MockShortenerService) Shorten(ctx context.Context, req *domain.CreateLinkRequest) (*domain.Link, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Link), args.Error(1)
}

func (m *MockShortenerService) Resolve(ctx context.Context, alias string) (*domain.Link, error) {
	args := m.Called(ctx, alias)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Link), args.Error(1)
}
