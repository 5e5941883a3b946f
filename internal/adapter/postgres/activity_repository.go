package postgres

import (
	"context"
	"fmt"

	"github.com/YelzhanWeb/cafe/internal/domain"
	"github.com/YelzhanWeb/cafe/internal/interfaces"
)

type activityRepository struct {
	db DB
}

func NewActivityRepository(db DB) interfaces.ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) Append(ctx context.Context, rec *domain.ActivityRecord) error {
	query := `
		INSERT INTO cafe_activity_log (
			recorded_at, total_customers, waiting_customers,
			waiting_teas, waiting_coffees, brewing_teas, brewing_coffees, tray_teas, tray_coffees
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	s := rec.State
	err := r.db.QueryRow(ctx, query,
		rec.Timestamp, s.TotalCustomers, s.WaitingCustomers,
		s.Waiting.Teas, s.Waiting.Coffees, s.Brewing.Teas, s.Brewing.Coffees, s.Tray.Teas, s.Tray.Coffees,
	).Scan(&rec.ID)
	if err != nil {
		return fmt.Errorf("failed to append activity record: %w", err)
	}
	return nil
}

// ListRecent returns up to limit records, newest first.
func (r *activityRepository) ListRecent(ctx context.Context, limit int) ([]*domain.ActivityRecord, error) {
	query := `
		SELECT id, recorded_at, total_customers, waiting_customers,
			waiting_teas, waiting_coffees, brewing_teas, brewing_coffees, tray_teas, tray_coffees
		FROM cafe_activity_log
		ORDER BY id DESC
		LIMIT $1
	`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity log: %w", err)
	}
	defer rows.Close()

	var records []*domain.ActivityRecord
	for rows.Next() {
		var rec domain.ActivityRecord
		s := &rec.State
		if err := rows.Scan(
			&rec.ID, &rec.Timestamp, &s.TotalCustomers, &s.WaitingCustomers,
			&s.Waiting.Teas, &s.Waiting.Coffees, &s.Brewing.Teas, &s.Brewing.Coffees, &s.Tray.Teas, &s.Tray.Coffees,
		); err != nil {
			return nil, fmt.Errorf("failed to scan activity record: %w", err)
		}
		records = append(records, &rec)
	}

	return records, nil
}
