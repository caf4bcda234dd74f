package service

import (
	"context"

	"stockledger-backend/internal/domain"
	"stockledger-backend/internal/logger"
	"stockledger-backend/internal/repository"
)

type allocationQueryService struct {
	allocationRepo repository.AllocationRepository
}

func NewAllocationQueryService(allocationRepo repository.AllocationRepository) AllocationQueryService {
	return &allocationQueryService{allocationRepo: allocationRepo}
}

func (s *allocationQueryService) List(ctx context.Context, filter domain.AllocationFilter) ([]domain.AllocationView, int32, error) {
	logger.EnterMethod("allocationQueryService.List", "page", filter.Page, "pageSize", filter.PageSize)

	if filter.IssuedFrom != nil && filter.IssuedTo != nil && filter.IssuedTo.Before(*filter.IssuedFrom) {
		err := &domain.ValidationError{Field: "to", Reason: "must not be before from"}
		logger.ExitMethodWithError("allocationQueryService.List", err)
		return nil, 0, err
	}
	for _, id := range filter.ItemIDs {
		if id <= 0 {
			err := &domain.ValidationError{Field: "item_id", Reason: "must be a positive integer"}
			logger.ExitMethodWithError("allocationQueryService.List", err)
			return nil, 0, err
		}
	}
	filter.Normalize()
	if err := filter.CheckPaging(); err != nil {
		logger.ExitMethodWithError("allocationQueryService.List", err)
		return nil, 0, err
	}

	views, total, err := s.allocationRepo.List(ctx, filter)
	if err != nil {
		logger.ExitMethodWithError("allocationQueryService.List", err)
		return nil, 0, err
	}
	logger.ExitMethod("allocationQueryService.List", "count", len(views), "total", total)
	return views, total, nil
}

func (s *allocationQueryService) Get(ctx context.Context, allocationID int32) (*domain.AllocationView, error) {
	return s.allocationRepo.GetView(ctx, allocationID)
}
