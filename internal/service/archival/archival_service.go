// internal/service/archival/archival_service.go
package archival

import (
	"context"
	"fmt"
	"time"

	"membership-service/internal/docstore"
	"membership-service/internal/domain/order"
	"membership-service/internal/repository"

	"go.uber.org/zap"
)

// ArchivalService marks completed orders as archived in one chunked atomic
// batch. It shares the batched-write discipline of the renewal sweep but
// runs over its own collection. Result messages stay German for the admin
// back-office; consumers use the count.
type ArchivalService struct {
	orderRepo *repository.OrderRepository
	store     docstore.Store
	logger    *zap.Logger
}

func NewArchivalService(orderRepo *repository.OrderRepository, store docstore.Store, logger *zap.Logger) *ArchivalService {
	return &ArchivalService{
		orderRepo: orderRepo,
		store:     store,
		logger:    logger,
	}
}

// ArchiveCompletedOrders archives every completed, not-yet-archived order.
// Zero matches is success with a distinct message, not an error.
func (s *ArchivalService) ArchiveCompletedOrders(ctx context.Context) (*order.ArchiveResult, error) {
	orders, err := s.orderRepo.FindCompletedUnarchived(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query completed orders: %w", err)
	}

	if len(orders) == 0 {
		s.logger.Info("order archival found nothing to archive")
		return &order.ArchiveResult{
			ArchivedCount: 0,
			Message:       "Keine abgeschlossenen Bestellungen zum Archivieren gefunden",
		}, nil
	}

	now := time.Now().UTC()
	batch := s.store.Batch()
	for _, o := range orders {
		s.orderRepo.MarkArchivedInBatch(batch, o.ID, now)
	}

	if err := batch.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit order archival: %w", err)
	}

	s.logger.Info("orders archived", zap.Int("archived_count", len(orders)))

	return &order.ArchiveResult{
		ArchivedCount: len(orders),
		Message:       fmt.Sprintf("%d Bestellungen wurden archiviert", len(orders)),
	}, nil
}
