package rag

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockIndex struct {
	mock.Mock
}

func (m *MockIndex) UpsertBatch(ctx context.Context, entries []IndexEntry) error {
	args := m.Called(ctx, entries)
	return args.Error(0)
}

func (m *MockIndex) Query(ctx context.Context, vector []float32, ownerID int64, topK int, documentIDs []int64) ([]Match, error) {
	args := m.Called(ctx, vector, ownerID, topK, documentIDs)
	matches, _ := args.Get(0).([]Match)
	return matches, args.Error(1)
}

func (m *MockIndex) DeleteByDocument(ctx context.Context, documentID, ownerID int64) error {
	args := m.Called(ctx, documentID, ownerID)
	return args.Error(0)
}

func (m *MockIndex) Available() bool {
	return m.Called().Bool(0)
}

func (m *MockIndex) Close() error {
	return m.Called().Error(0)
}
