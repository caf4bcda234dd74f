package service_test

import (
	"context"
	"time"

	"stockledger-backend/internal/domain"

	"github.com/stretchr/testify/mock"
)

// MockThresholdNotifier
type MockThresholdNotifier struct {
	mock.Mock
}

func (m *MockThresholdNotifier) NotifyIfBelowThreshold(ctx context.Context, item domain.Item, reason string) error {
	args := m.Called(ctx, item, reason)
	return args.Error(0)
}

// MockAllocationRepo
type MockAllocationRepo struct {
	mock.Mock
}

func (m *MockAllocationRepo) Create(ctx context.Context, a *domain.Allocation) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}
func (m *MockAllocationRepo) GetByID(ctx context.Context, id int32) (*domain.Allocation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Allocation), args.Error(1)
}
func (m *MockAllocationRepo) GetForUpdate(ctx context.Context, id int32) (*domain.Allocation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Allocation), args.Error(1)
}
func (m *MockAllocationRepo) Update(ctx context.Context, a *domain.Allocation) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}
func (m *MockAllocationRepo) Delete(ctx context.Context, id int32) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockAllocationRepo) GetView(ctx context.Context, id int32) (*domain.AllocationView, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AllocationView), args.Error(1)
}
func (m *MockAllocationRepo) List(ctx context.Context, filter domain.AllocationFilter) ([]domain.AllocationView, int32, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.AllocationView), args.Get(1).(int32), args.Error(2)
}

// MockStockAlertRepo
type MockStockAlertRepo struct {
	mock.Mock
}

func (m *MockStockAlertRepo) Create(ctx context.Context, alert *domain.StockAlert) error {
	args := m.Called(ctx, alert)
	return args.Error(0)
}
func (m *MockStockAlertRepo) List(ctx context.Context, limit, offset int32) ([]domain.StockAlert, int32, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]domain.StockAlert), args.Get(1).(int32), args.Error(2)
}
func (m *MockStockAlertRepo) Acknowledge(ctx context.Context, id int32) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockStockAlertRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}
