package domain

import (
	"math"
	"time"
)

// Allocation is one issuance of an item for internal consumption. While
// IsActive is true its Quantity is charged against the item's stock level.
type Allocation struct {
	ID               int32      `json:"id"`
	ItemID           int32      `json:"item_id"`
	Quantity         int32      `json:"quantity"`
	IssuedAt         time.Time  `json:"issued_at"`
	IsActive         bool       `json:"is_active"`
	IsExhausted      bool       `json:"is_exhausted"`
	ExhaustionReason *string    `json:"exhaustion_reason,omitempty"`
	ExhaustedAt      *time.Time `json:"exhausted_at,omitempty"`
	Note             *string    `json:"note,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// ActiveQuantity is the quantity currently charged against stock.
func (a *Allocation) ActiveQuantity() int32 {
	if !a.IsActive {
		return 0
	}
	return a.Quantity
}

// MarkExhausted sets the exhaustion annotation.
func (a *Allocation) MarkExhausted(reason *string, at time.Time) {
	a.IsExhausted = true
	a.ExhaustionReason = reason
	a.ExhaustedAt = &at
}

// ClearExhaustion resets the exhaustion annotation and its companions.
func (a *Allocation) ClearExhaustion() {
	a.IsExhausted = false
	a.ExhaustionReason = nil
	a.ExhaustedAt = nil
}

// IssueRequest carries the inputs of a new issuance. Nil pointers take the
// defaults: IssuedAt now, IsActive true.
type IssueRequest struct {
	ItemID   int32      `json:"item_id"`
	Quantity int32      `json:"quantity"`
	IssuedAt *time.Time `json:"issued_at,omitempty"`
	IsActive *bool      `json:"is_active,omitempty"`
	Note     *string    `json:"note,omitempty"`
}

// AllocationChanges is a partial update. Only non-nil fields are applied.
type AllocationChanges struct {
	Quantity         *int32     `json:"quantity,omitempty"`
	IsActive         *bool      `json:"is_active,omitempty"`
	IsExhausted      *bool      `json:"is_exhausted,omitempty"`
	ExhaustionReason *string    `json:"exhaustion_reason,omitempty"`
	ExhaustedAt      *time.Time `json:"exhausted_at,omitempty"`
	Note             *string    `json:"note,omitempty"`
}

// IsEmpty reports whether the changes carry nothing to apply.
func (c AllocationChanges) IsEmpty() bool {
	return c.Quantity == nil && c.IsActive == nil && c.IsExhausted == nil &&
		c.ExhaustionReason == nil && c.ExhaustedAt == nil && c.Note == nil
}

// StockDelta returns the change to apply to an item's stock level when an
// allocation moves from (wasActive, oldQty) to (nowActive, newQty). A
// positive value returns stock, a negative value consumes it.
func StockDelta(wasActive bool, oldQty int32, nowActive bool, newQty int32) int32 {
	switch {
	case wasActive && nowActive:
		return oldQty - newQty
	case !wasActive && nowActive:
		return -newQty
	case wasActive && !nowActive:
		return oldQty
	default:
		return 0
	}
}

// AllocationView is an allocation joined with its item projection.
type AllocationView struct {
	Allocation
	Item ItemSummary `json:"item"`
}

// AllocationFilter narrows allocation listings. Zero values mean "any".
type AllocationFilter struct {
	ItemIDs     []int32
	IsActive    *bool
	IsExhausted *bool
	IssuedFrom  *time.Time
	IssuedTo    *time.Time
	Page        int32
	PageSize    int32
}

const (
	DefaultPageSize int32 = 50
	MaxPageSize     int32 = 200
)

// Normalize clamps paging to sane values.
func (f *AllocationFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = DefaultPageSize
	}
	if f.PageSize > MaxPageSize {
		f.PageSize = MaxPageSize
	}
}

// Offset is the number of rows skipped before Page. Call after Normalize.
func (f *AllocationFilter) Offset() int64 {
	return int64(f.Page-1) * int64(f.PageSize)
}

// CheckPaging rejects a page that starts beyond the largest countable row.
func (f *AllocationFilter) CheckPaging() error {
	if f.Offset() > math.MaxInt32 {
		return &ValidationError{Field: "page", Reason: "is out of range"}
	}
	return nil
}
