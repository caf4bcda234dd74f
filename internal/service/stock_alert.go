package service

import (
	"context"
	"time"

	"stockledger-backend/internal/domain"
	"stockledger-backend/internal/logger"
	"stockledger-backend/internal/repository"
)

type stockAlertService struct {
	alertRepo repository.StockAlertRepository
}

func NewStockAlertService(alertRepo repository.StockAlertRepository) StockAlertService {
	return &stockAlertService{alertRepo: alertRepo}
}

func (s *stockAlertService) ListAlerts(ctx context.Context, page, pageSize int32) ([]domain.StockAlert, int32, error) {
	paging := domain.AllocationFilter{Page: page, PageSize: pageSize}
	paging.Normalize()
	if err := paging.CheckPaging(); err != nil {
		return nil, 0, err
	}
	return s.alertRepo.List(ctx, paging.PageSize, int32(paging.Offset()))
}

func (s *stockAlertService) Acknowledge(ctx context.Context, alertID int32) error {
	logger.EnterMethod("stockAlertService.Acknowledge", "alertID", alertID)
	if err := s.alertRepo.Acknowledge(ctx, alertID); err != nil {
		logger.ExitMethodWithError("stockAlertService.Acknowledge", err, "alertID", alertID)
		return err
	}
	logger.ExitMethod("stockAlertService.Acknowledge", "alertID", alertID)
	return nil
}

func (s *stockAlertService) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return s.alertRepo.DeleteOlderThan(ctx, cutoff)
}
