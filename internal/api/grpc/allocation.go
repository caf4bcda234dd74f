package grpc

import (
	"context"
	"errors"
	"time"

	"stockledger-backend/internal/domain"
	"stockledger-backend/internal/logger"
	"stockledger-backend/internal/service"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

type AllocationHandler struct {
	UnimplementedAllocationServiceServer
	ledger service.AllocationService
	query  service.AllocationQueryService
}

func NewAllocationHandler(ledger service.AllocationService, query service.AllocationQueryService) *AllocationHandler {
	return &AllocationHandler{ledger: ledger, query: query}
}

type idRequest struct {
	ID int32 `json:"id"`
}

type amendRequest struct {
	ID int32 `json:"id"`
	domain.AllocationChanges
}

type markExhaustedRequest struct {
	ID     int32   `json:"id"`
	Reason *string `json:"reason,omitempty"`
}

type listRequest struct {
	ItemIDs     []int32    `json:"item_ids,omitempty"`
	IsActive    *bool      `json:"is_active,omitempty"`
	IsExhausted *bool      `json:"is_exhausted,omitempty"`
	IssuedFrom  *time.Time `json:"issued_from,omitempty"`
	IssuedTo    *time.Time `json:"issued_to,omitempty"`
	Page        int32      `json:"page,omitempty"`
	PageSize    int32      `json:"page_size,omitempty"`
}

func (h *AllocationHandler) Issue(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in domain.IssueRequest
	if err := decodeStruct(req, &in); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	a, err := h.ledger.Issue(ctx, in)
	if err != nil {
		return nil, toStatus(err)
	}
	h.audit(ctx, "Issue", a.ID)
	return mapped(MapDomainAllocationToStruct(a))
}

func (h *AllocationHandler) Amend(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in amendRequest
	if err := decodeStruct(req, &in); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	a, err := h.ledger.Amend(ctx, in.ID, in.AllocationChanges)
	if err != nil {
		return nil, toStatus(err)
	}
	h.audit(ctx, "Amend", a.ID)
	return mapped(MapDomainAllocationToStruct(a))
}

func (h *AllocationHandler) Delete(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in idRequest
	if err := decodeStruct(req, &in); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	n, err := h.ledger.Delete(ctx, in.ID)
	if err != nil {
		return nil, toStatus(err)
	}
	if n == 0 {
		return nil, toStatus(domain.ErrAllocationNotFound)
	}
	h.audit(ctx, "Delete", in.ID)
	return mapped(structpb.NewStruct(map[string]any{"removed": n}))
}

func (h *AllocationHandler) MarkExhausted(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in markExhaustedRequest
	if err := decodeStruct(req, &in); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	a, err := h.ledger.MarkExhausted(ctx, in.ID, in.Reason)
	if err != nil {
		return nil, toStatus(err)
	}
	h.audit(ctx, "MarkExhausted", a.ID)
	return mapped(MapDomainAllocationToStruct(a))
}

func (h *AllocationHandler) Get(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in idRequest
	if err := decodeStruct(req, &in); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	v, err := h.query.Get(ctx, in.ID)
	if err != nil {
		return nil, toStatus(err)
	}
	return mapped(MapDomainAllocationViewToStruct(v))
}

func (h *AllocationHandler) List(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in listRequest
	if err := decodeStruct(req, &in); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	filter := domain.AllocationFilter{
		ItemIDs:     in.ItemIDs,
		IsActive:    in.IsActive,
		IsExhausted: in.IsExhausted,
		IssuedFrom:  in.IssuedFrom,
		IssuedTo:    in.IssuedTo,
		Page:        in.Page,
		PageSize:    in.PageSize,
	}
	views, total, err := h.query.List(ctx, filter)
	if err != nil {
		return nil, toStatus(err)
	}
	filter.Normalize()
	return mapped(MapDomainAllocationViewsToStruct(views, total, filter.Page, filter.PageSize))
}

func (h *AllocationHandler) audit(ctx context.Context, op string, allocationID int32) {
	userID, err := GetUserIDFromContext(ctx)
	if err != nil {
		return
	}
	logger.InfoContext(ctx, "Ledger mutation", "operation", op, "allocationID", allocationID, "userID", userID)
}

func mapped(s *structpb.Struct, err error) (*structpb.Struct, error) {
	if err != nil {
		logger.Error("Failed to map response", "error", err)
		return nil, status.Error(codes.Internal, "internal error")
	}
	return s, nil
}

// toStatus maps ledger error kinds onto gRPC codes. Anything unclassified is
// logged and reported as Internal without detail.
func toStatus(err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, domain.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, domain.ErrConflict):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		logger.Error("Ledger operation failed", "error", err)
		return status.Error(codes.Internal, "internal error")
	}
}
