package interfaces

import (
	"context"

	"github.com/YelzhanWeb/cafe/internal/domain"
)

type ActivityRepository interface {
	Append(ctx context.Context, rec *domain.ActivityRecord) error
	ListRecent(ctx context.Context, limit int) ([]*domain.ActivityRecord, error)
}

// ActivitySink persists activity records somewhere. Failures are logged and ignored by the caller.
type ActivitySink interface {
	Name() string
	Write(ctx context.Context, rec *domain.ActivityRecord) error
	Close() error
}

type WorkerRepository interface {
	Upsert(ctx context.Context, w domain.WorkerInfo) error
}
