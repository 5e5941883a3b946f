package kitchen

import (
	"context"
	"time"

	"go.uber.org/multierr"

	"github.com/YelzhanWeb/cafe/internal/adapter/logger"
	"github.com/YelzhanWeb/cafe/internal/domain"
	"github.com/YelzhanWeb/cafe/internal/interfaces"
)

// Roster is where the worker states come from.
type Roster interface {
	Workers() []domain.WorkerInfo
}

// Service persists the brewing workers' state on a heartbeat so the
// kitchen can be inspected from outside the process.
type Service struct {
	roster            Roster
	workerRepo        interfaces.WorkerRepository
	logger            logger.Logger
	heartbeatInterval time.Duration
}

func NewService(
	roster Roster,
	workerRepo interfaces.WorkerRepository,
	logger logger.Logger,
	heartbeatInterval time.Duration,
) *Service {
	if heartbeatInterval <= 0 {
		heartbeatInterval = 10 * time.Second
	}
	return &Service{
		roster:            roster,
		workerRepo:        workerRepo,
		logger:            logger,
		heartbeatInterval: heartbeatInterval,
	}
}

// Run writes the roster once, then on every tick until ctx is done.
// On exit every worker is stored as offline.
func (s *Service) Run(ctx context.Context) error {
	if err := s.sync(ctx); err != nil {
		s.logger.Error("heartbeat_failed", "Failed to register workers", "", nil, err)
	}

	ticker := time.NewTicker(s.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return s.shutdown()
		case <-ticker.C:
			if err := s.sync(ctx); err != nil {
				s.logger.Error("heartbeat_failed", "Failed to update heartbeat", "", nil, err)
			} else {
				s.logger.Debug("heartbeat_sent", "Heartbeat sent", "", nil)
			}
		}
	}
}

func (s *Service) sync(ctx context.Context) error {
	var errs error
	for _, w := range s.roster.Workers() {
		errs = multierr.Append(errs, s.workerRepo.Upsert(ctx, w))
	}
	return errs
}

func (s *Service) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var errs error
	for _, w := range s.roster.Workers() {
		w.Status = domain.WorkerStatusOffline
		w.CurrentItem = 0
		errs = multierr.Append(errs, s.workerRepo.Upsert(ctx, w))
	}
	if errs != nil {
		s.logger.Error("worker_shutdown_failed", "Failed to mark workers offline", "", nil, errs)
	}
	return errs
}
