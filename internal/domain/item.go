package domain

import "time"

type UsageType string

const (
	UsageTypeInternal   UsageType = "INTERNAL"
	UsageTypeDirectSale UsageType = "DIRECT_SALE"
	UsageTypeOther      UsageType = "OTHER"
)

// Item is a stock-tracked catalog entry. The catalog owns every field; the
// ledger only moves StockLevel through ItemRepository.ApplyStockDelta.
type Item struct {
	ID               int32     `json:"id"`
	Name             string    `json:"name"`
	UsageType        UsageType `json:"usage_type"`
	IsActive         bool      `json:"is_active"`
	StockLevel       int32     `json:"stock_level"`
	MinimumThreshold int32     `json:"minimum_threshold"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// AtOrBelowThreshold reports whether the item needs a low-stock alert.
func (i *Item) AtOrBelowThreshold() bool {
	return i.StockLevel <= i.MinimumThreshold
}

// Allocatable checks that the item may be issued through the ledger.
func (i *Item) Allocatable() error {
	if !i.IsActive {
		return &ValidationError{Field: "item_id", Reason: "item is inactive"}
	}
	if i.UsageType != UsageTypeInternal {
		return &ValidationError{Field: "item_id", Reason: "item usage type is " + string(i.UsageType) + ", only INTERNAL items can be allocated"}
	}
	return nil
}

// ItemSummary is the item projection joined into allocation reads.
type ItemSummary struct {
	ID               int32  `json:"id"`
	Name             string `json:"name"`
	MinimumThreshold int32  `json:"minimum_threshold"`
	StockLevel       int32  `json:"stock_level"`
}
