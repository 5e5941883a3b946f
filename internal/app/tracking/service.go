package tracking

import (
	"context"
	"errors"
	"fmt"

	"github.com/YelzhanWeb/cafe/internal/adapter/logger"
	"github.com/YelzhanWeb/cafe/internal/domain"
	"github.com/YelzhanWeb/cafe/internal/interfaces"
)

var (
	ErrCustomerNotFound = errors.New("no open order for customer")
	ErrHistoryDisabled  = errors.New("activity history is not persisted")
)

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 1000
)

// Source is the read side of the engine.
type Source interface {
	Snapshot() domain.Snapshot
	CustomerStatus(customerID int64) (domain.OrderStatus, bool)
	Workers() []domain.WorkerInfo
}

type Service struct {
	source  Source
	history interfaces.ActivityRepository
	logger  logger.Logger
}

// NewService builds the tracking service. history may be nil when no database is configured.
func NewService(source Source, history interfaces.ActivityRepository, logger logger.Logger) *Service {
	return &Service{
		source:  source,
		history: history,
		logger:  logger,
	}
}

func (s *Service) GetSnapshot(ctx context.Context) domain.Snapshot {
	return s.source.Snapshot()
}

func (s *Service) GetCustomerStatus(ctx context.Context, customerID int64) (*domain.OrderStatus, error) {
	status, ok := s.source.CustomerStatus(customerID)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrCustomerNotFound, customerID)
	}
	return &status, nil
}

func (s *Service) GetWorkersStatus(ctx context.Context) []domain.WorkerInfo {
	return s.source.Workers()
}

func (s *Service) GetActivityHistory(ctx context.Context, limit int) ([]*domain.ActivityRecord, error) {
	if s.history == nil {
		return nil, ErrHistoryDisabled
	}
	switch {
	case limit <= 0:
		limit = DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		limit = MaxHistoryLimit
	}

	records, err := s.history.ListRecent(ctx, limit)
	if err != nil {
		s.logger.Error("db_query_failed", "Failed to load activity history", "", map[string]interface{}{"limit": limit}, err)
		return nil, err
	}
	return records, nil
}
