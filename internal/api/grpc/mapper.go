package grpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"stockledger-backend/internal/domain"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// decodeStruct reads a request document into v using v's JSON tags. Unknown
// keys are rejected.
func decodeStruct(in *structpb.Struct, v any) error {
	raw, err := protojson.Marshal(in)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request: %v", err)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func MapDomainAllocationToStruct(a *domain.Allocation) (*structpb.Struct, error) {
	if a == nil {
		return nil, nil
	}
	return structpb.NewStruct(allocationFields(a))
}

func allocationFields(a *domain.Allocation) map[string]any {
	m := map[string]any{
		"id":           a.ID,
		"item_id":      a.ItemID,
		"quantity":     a.Quantity,
		"issued_at":    formatTime(a.IssuedAt),
		"is_active":    a.IsActive,
		"is_exhausted": a.IsExhausted,
		"created_at":   formatTime(a.CreatedAt),
		"updated_at":   formatTime(a.UpdatedAt),
	}
	if a.ExhaustionReason != nil {
		m["exhaustion_reason"] = *a.ExhaustionReason
	}
	if a.ExhaustedAt != nil {
		m["exhausted_at"] = formatTime(*a.ExhaustedAt)
	}
	if a.Note != nil {
		m["note"] = *a.Note
	}
	return m
}

func allocationViewFields(v *domain.AllocationView) map[string]any {
	m := allocationFields(&v.Allocation)
	m["item"] = map[string]any{
		"id":                v.Item.ID,
		"name":              v.Item.Name,
		"minimum_threshold": v.Item.MinimumThreshold,
		"stock_level":       v.Item.StockLevel,
	}
	return m
}

func MapDomainAllocationViewToStruct(v *domain.AllocationView) (*structpb.Struct, error) {
	if v == nil {
		return nil, nil
	}
	return structpb.NewStruct(allocationViewFields(v))
}

func MapDomainAllocationViewsToStruct(views []domain.AllocationView, total, page, pageSize int32) (*structpb.Struct, error) {
	list := make([]any, len(views))
	for i := range views {
		list[i] = allocationViewFields(&views[i])
	}
	return structpb.NewStruct(map[string]any{
		"allocations": list,
		"total_count": total,
		"page":        page,
		"page_size":   pageSize,
	})
}
