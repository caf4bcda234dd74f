package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stockledger-backend/internal/domain"
	"stockledger-backend/internal/logger"
	"stockledger-backend/internal/repository"
)

// AllocationOption configures the allocation service.
type AllocationOption func(*allocationService)

// WithDispatcher replaces the goroutine dispatcher used for threshold checks.
func WithDispatcher(d Dispatcher) AllocationOption {
	return func(s *allocationService) {
		s.dispatcher = d
	}
}

// WithClock overrides the time source for issued_at and exhausted_at defaults.
func WithClock(now func() time.Time) AllocationOption {
	return func(s *allocationService) {
		s.now = now
	}
}

type allocationService struct {
	tx         repository.Transactor
	itemRepo   repository.ItemRepository
	notifier   ThresholdNotifier
	dispatcher Dispatcher
	now        func() time.Time
}

func NewAllocationService(
	tx repository.Transactor,
	itemRepo repository.ItemRepository,
	notifier ThresholdNotifier,
	opts ...AllocationOption,
) AllocationService {
	s := &allocationService{
		tx:         tx,
		itemRepo:   itemRepo,
		notifier:   notifier,
		dispatcher: NewAsyncDispatcher(0),
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *allocationService) Issue(ctx context.Context, req domain.IssueRequest) (*domain.Allocation, error) {
	logger.EnterMethod("allocationService.Issue", "itemID", req.ItemID, "quantity", req.Quantity)

	if req.Quantity <= 0 {
		err := &domain.ValidationError{Field: "quantity", Reason: "must be a positive integer"}
		logger.ExitMethodWithError("allocationService.Issue", err)
		return nil, err
	}

	item, err := s.itemRepo.GetByID(ctx, req.ItemID)
	if err != nil {
		logger.ExitMethodWithError("allocationService.Issue", err, "itemID", req.ItemID)
		return nil, err
	}
	if err := item.Allocatable(); err != nil {
		logger.ExitMethodWithError("allocationService.Issue", err, "itemID", req.ItemID)
		return nil, err
	}

	a := &domain.Allocation{
		ItemID:   req.ItemID,
		Quantity: req.Quantity,
		IssuedAt: s.now(),
		IsActive: true,
		Note:     req.Note,
	}
	if req.IssuedAt != nil {
		a.IssuedAt = req.IssuedAt.UTC()
	}
	if req.IsActive != nil {
		a.IsActive = *req.IsActive
	}

	// Fast rejection against the last read level. The guarded update inside
	// the transaction is what actually enforces it.
	if a.IsActive && req.Quantity > item.StockLevel {
		err := &domain.InsufficientStockError{ItemID: item.ID, ItemName: item.Name, Available: item.StockLevel, Requested: req.Quantity}
		logger.ExitMethodWithError("allocationService.Issue", err, "itemID", req.ItemID)
		return nil, err
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		if err := repos.Allocations.Create(ctx, a); err != nil {
			return err
		}
		if !a.IsActive {
			return nil
		}
		_, err := repos.Items.ApplyStockDelta(ctx, a.ItemID, -a.Quantity)
		return err
	})
	if err != nil {
		logger.ExitMethodWithError("allocationService.Issue", err, "itemID", req.ItemID)
		return nil, err
	}

	s.checkThreshold(ctx, a.ItemID, domain.ReasonPostIssuance)

	logger.ExitMethod("allocationService.Issue", "allocationID", a.ID)
	return a, nil
}

func (s *allocationService) Amend(ctx context.Context, allocationID int32, changes domain.AllocationChanges) (*domain.Allocation, error) {
	logger.EnterMethod("allocationService.Amend", "allocationID", allocationID)

	if changes.IsEmpty() {
		err := &domain.ValidationError{Field: "changes", Reason: "at least one field must be set"}
		logger.ExitMethodWithError("allocationService.Amend", err)
		return nil, err
	}
	if changes.Quantity != nil && *changes.Quantity <= 0 {
		err := &domain.ValidationError{Field: "quantity", Reason: "must be a positive integer"}
		logger.ExitMethodWithError("allocationService.Amend", err)
		return nil, err
	}

	var amended *domain.Allocation
	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		a, err := repos.Allocations.GetForUpdate(ctx, allocationID)
		if err != nil {
			return err
		}

		wasActive, oldQty := a.IsActive, a.Quantity
		if err := s.applyChanges(a, changes); err != nil {
			return err
		}
		delta := domain.StockDelta(wasActive, oldQty, a.IsActive, a.Quantity)

		if err := repos.Allocations.Update(ctx, a); err != nil {
			return err
		}
		if delta != 0 {
			if _, err := repos.Items.ApplyStockDelta(ctx, a.ItemID, delta); err != nil {
				return err
			}
		}
		logger.Debug("Allocation amended", "allocationID", a.ID, "itemID", a.ItemID, "stockDelta", delta)
		amended = a
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("allocationService.Amend", err, "allocationID", allocationID)
		return nil, err
	}

	s.checkThreshold(ctx, amended.ItemID, domain.ReasonPostAmendment)

	logger.ExitMethod("allocationService.Amend", "allocationID", allocationID)
	return amended, nil
}

// applyChanges mutates a in memory. Exhaustion fields only move together.
func (s *allocationService) applyChanges(a *domain.Allocation, c domain.AllocationChanges) error {
	if c.Quantity != nil {
		a.Quantity = *c.Quantity
	}
	if c.IsActive != nil {
		a.IsActive = *c.IsActive
	}
	if c.Note != nil {
		a.Note = c.Note
	}

	switch {
	case c.IsExhausted != nil && *c.IsExhausted:
		at := s.now()
		if c.ExhaustedAt != nil {
			at = c.ExhaustedAt.UTC()
		}
		reason := c.ExhaustionReason
		if reason == nil && a.IsExhausted {
			reason = a.ExhaustionReason
		}
		a.MarkExhausted(reason, at)
	case c.IsExhausted != nil:
		a.ClearExhaustion()
	case c.ExhaustionReason != nil || c.ExhaustedAt != nil:
		if !a.IsExhausted {
			return &domain.ValidationError{Field: "exhaustion_reason", Reason: "allocation is not exhausted"}
		}
		if c.ExhaustionReason != nil {
			a.ExhaustionReason = c.ExhaustionReason
		}
		if c.ExhaustedAt != nil {
			at := c.ExhaustedAt.UTC()
			a.ExhaustedAt = &at
		}
	}
	return nil
}

func (s *allocationService) Delete(ctx context.Context, allocationID int32) (int64, error) {
	logger.EnterMethod("allocationService.Delete", "allocationID", allocationID)

	var (
		removed  int64
		itemID   int32
		reverted bool
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		a, err := repos.Allocations.GetForUpdate(ctx, allocationID)
		if errors.Is(err, domain.ErrAllocationNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		itemID = a.ItemID

		if a.IsActive {
			_, err := repos.Items.ApplyStockDelta(ctx, a.ItemID, a.Quantity)
			switch {
			case errors.Is(err, domain.ErrItemNotFound):
				logger.Warn("Item missing while deleting allocation, skipping stock reversion",
					"allocationID", a.ID, "itemID", a.ItemID, "quantity", a.Quantity)
			case err != nil:
				return err
			default:
				reverted = true
			}
		}

		removed, err = repos.Allocations.Delete(ctx, a.ID)
		return err
	})
	if err != nil {
		logger.ExitMethodWithError("allocationService.Delete", err, "allocationID", allocationID)
		return 0, err
	}

	if reverted {
		s.checkThreshold(ctx, itemID, domain.ReasonPostDeletion)
	}

	logger.ExitMethod("allocationService.Delete", "allocationID", allocationID, "removed", removed)
	return removed, nil
}

func (s *allocationService) MarkExhausted(ctx context.Context, allocationID int32, reason *string) (*domain.Allocation, error) {
	logger.EnterMethod("allocationService.MarkExhausted", "allocationID", allocationID)

	var exhausted *domain.Allocation
	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		a, err := repos.Allocations.GetForUpdate(ctx, allocationID)
		if err != nil {
			return err
		}
		if a.IsExhausted {
			return domain.ErrAlreadyExhausted
		}
		a.MarkExhausted(reason, s.now())
		if err := repos.Allocations.Update(ctx, a); err != nil {
			return err
		}
		exhausted = a
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("allocationService.MarkExhausted", err, "allocationID", allocationID)
		return nil, err
	}

	logger.ExitMethod("allocationService.MarkExhausted", "allocationID", allocationID)
	return exhausted, nil
}

// checkThreshold re-reads the committed item and hands it to the notifier
// when it sits at or below its minimum. Nothing here can fail the caller.
func (s *allocationService) checkThreshold(ctx context.Context, itemID int32, reason string) {
	item, err := s.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		logger.Warn("Skipping threshold check, item re-read failed", "itemID", itemID, "reason", reason, "error", err)
		return
	}
	if !item.AtOrBelowThreshold() {
		return
	}

	snapshot := *item
	s.dispatcher.Dispatch(fmt.Sprintf("threshold-check:%d", itemID), func(ctx context.Context) {
		logger.ExternalServiceCall("ThresholdNotifier", "NotifyIfBelowThreshold", "itemID", snapshot.ID, "reason", reason)
		err := s.notifier.NotifyIfBelowThreshold(ctx, snapshot, reason)
		logger.ExternalServiceResult("ThresholdNotifier", "NotifyIfBelowThreshold", err, "itemID", snapshot.ID, "reason", reason)
	})
}
