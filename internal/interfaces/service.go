package interfaces

import (
	"context"

	"github.com/YelzhanWeb/cafe/internal/domain"
)

// CafeService is what a customer session drives.
type CafeService interface {
	Join(name string) (*domain.Customer, error)
	Register(c *domain.Customer, l Listener)
	PlaceOrder(c *domain.Customer, teas, coffees int) (*domain.Order, error)
	ExtendOrder(o *domain.Order, teas, coffees int) ([]*domain.Item, error)
	OrderStatus(o *domain.Order) domain.OrderStatus
	Collect(o *domain.Order) error
	Disconnect(ctx context.Context, c *domain.Customer, o *domain.Order) error
	Leave(c *domain.Customer)
}

type TrackingService interface {
	GetSnapshot(ctx context.Context) domain.Snapshot
	GetCustomerStatus(ctx context.Context, customerID int64) (*domain.OrderStatus, error)
	GetWorkersStatus(ctx context.Context) []domain.WorkerInfo
	GetActivityHistory(ctx context.Context, limit int) ([]*domain.ActivityRecord, error)
}
