package domain_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"stockledger-backend/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestStockDelta(t *testing.T) {
	t.Run("ActiveToActive", func(t *testing.T) {
		assert.Equal(t, int32(6), domain.StockDelta(true, 10, true, 4))
		assert.Equal(t, int32(-5), domain.StockDelta(true, 10, true, 15))
		assert.Equal(t, int32(0), domain.StockDelta(true, 10, true, 10))
	})

	t.Run("InactiveToActive", func(t *testing.T) {
		assert.Equal(t, int32(-7), domain.StockDelta(false, 10, true, 7))
	})

	t.Run("ActiveToInactive", func(t *testing.T) {
		assert.Equal(t, int32(10), domain.StockDelta(true, 10, false, 3))
	})

	t.Run("InactiveToInactive", func(t *testing.T) {
		assert.Equal(t, int32(0), domain.StockDelta(false, 10, false, 3))
	})
}

func TestAllocation_Exhaustion(t *testing.T) {
	a := &domain.Allocation{Quantity: 3, IsActive: true}
	reason := "used up"
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	a.MarkExhausted(&reason, at)
	assert.True(t, a.IsExhausted)
	assert.Equal(t, "used up", *a.ExhaustionReason)
	assert.Equal(t, at, *a.ExhaustedAt)

	a.ClearExhaustion()
	assert.False(t, a.IsExhausted)
	assert.Nil(t, a.ExhaustionReason)
	assert.Nil(t, a.ExhaustedAt)
	assert.Equal(t, int32(3), a.ActiveQuantity())

	a.IsActive = false
	assert.Equal(t, int32(0), a.ActiveQuantity())
}

func TestAllocationFilter_Normalize(t *testing.T) {
	f := domain.AllocationFilter{PageSize: 1000}
	f.Normalize()
	assert.Equal(t, int32(1), f.Page)
	assert.Equal(t, domain.MaxPageSize, f.PageSize)

	f = domain.AllocationFilter{}
	f.Normalize()
	assert.Equal(t, domain.DefaultPageSize, f.PageSize)
}

func TestAllocationFilter_Paging(t *testing.T) {
	f := domain.AllocationFilter{Page: 3, PageSize: 20}
	assert.Equal(t, int64(40), f.Offset())
	assert.NoError(t, f.CheckPaging())

	f = domain.AllocationFilter{Page: math.MaxInt32}
	f.Normalize()
	assert.Equal(t, int64(math.MaxInt32-1)*int64(domain.DefaultPageSize), f.Offset())
	assert.ErrorIs(t, f.CheckPaging(), domain.ErrValidation)
}

func TestItem_Allocatable(t *testing.T) {
	item := &domain.Item{IsActive: true, UsageType: domain.UsageTypeInternal}
	assert.NoError(t, item.Allocatable())

	item.UsageType = domain.UsageTypeDirectSale
	assert.ErrorIs(t, item.Allocatable(), domain.ErrValidation)

	item.UsageType = domain.UsageTypeInternal
	item.IsActive = false
	assert.ErrorIs(t, item.Allocatable(), domain.ErrValidation)
}

func TestErrorKinds(t *testing.T) {
	assert.ErrorIs(t, domain.ErrItemNotFound, domain.ErrNotFound)
	assert.ErrorIs(t, domain.ErrAllocationNotFound, domain.ErrNotFound)
	assert.ErrorIs(t, domain.ErrAlreadyExhausted, domain.ErrConflict)

	var err error = &domain.InsufficientStockError{ItemID: 4, ItemName: "Gloves", Available: 2, Requested: 5}
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Contains(t, err.Error(), "Gloves")
	assert.Contains(t, err.Error(), "short by 3")

	var stockErr *domain.InsufficientStockError
	assert.True(t, errors.As(err, &stockErr))
	assert.Equal(t, int32(3), stockErr.Shortfall())
}
