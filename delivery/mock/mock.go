package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sambitsargam/SafeDocs-sub000/delivery"
)

type MockOriginStore struct {
	mock.Mock
}

//nolint:all
func (m *MockOriginStore) Retrieve(ctx context.Context, contentID string) ([]byte, error) {
	args := m.Called(ctx, contentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type MockContentDirectory struct {
	mock.Mock
}

//nolint:all
func (m *MockContentDirectory) IsEncrypted(ctx context.Context, contentID string) (bool, error) {
	args := m.Called(ctx, contentID)
	return args.Bool(0), args.Error(1)
}

type MockEdgeFetcher struct {
	mock.Mock
}

//nolint:all
func (m *MockEdgeFetcher) Fetch(ctx context.Context, node *delivery.Node, contentID string) ([]byte, error) {
	args := m.Called(ctx, node, contentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
