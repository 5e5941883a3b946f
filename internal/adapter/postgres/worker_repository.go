package postgres

import (
	"context"
	"fmt"

	"github.com/YelzhanWeb/cafe/internal/domain"
	"github.com/YelzhanWeb/cafe/internal/interfaces"
)

type workerRepository struct {
	db DB
}

func NewWorkerRepository(db DB) interfaces.WorkerRepository {
	return &workerRepository{db: db}
}

func (r *workerRepository) Upsert(ctx context.Context, w domain.WorkerInfo) error {
	query := `
		INSERT INTO cafe_workers (name, kind, status, items_brewed, items_dropped, last_seen)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (name) DO UPDATE
		SET kind = EXCLUDED.kind,
			status = EXCLUDED.status,
			items_brewed = EXCLUDED.items_brewed,
			items_dropped = EXCLUDED.items_dropped,
			last_seen = EXCLUDED.last_seen
	`
	_, err := r.db.Exec(ctx, query,
		w.Name, w.Kind, string(w.Status), w.ItemsBrewed, w.ItemsDropped, w.LastSeen,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert worker %s: %w", w.Name, err)
	}
	return nil
}
