package order

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/YelzhanWeb/cafe/internal/adapter/logger"
	"github.com/YelzhanWeb/cafe/internal/domain"
	"github.com/YelzhanWeb/cafe/internal/interfaces"
)

// Push delivers an unsolicited line to the customer's connection.
type Push func(line string)

// Session is one connected customer's view of the café: their current order and
// the lines they see in reply to each command.
type Session struct {
	cafe       interfaces.CafeService
	logger     logger.Logger
	push       Push
	retries    int
	retryDelay time.Duration
	requestID  string

	mu       sync.Mutex
	customer *domain.Customer
	current  *domain.Order
	closed   bool
}

// NewSession creates a session that is not yet joined. retries bounds how many extra
// disconnect attempts follow a lock timeout.
func NewSession(cafe interfaces.CafeService, log logger.Logger, push Push, retries int, retryDelay time.Duration) *Session {
	if push == nil {
		push = func(string) {}
	}
	return &Session{
		cafe:       cafe,
		logger:     log,
		push:       push,
		retries:    max(retries, 0),
		retryDelay: retryDelay,
		requestID:  uuid.NewString(),
	}
}

func (s *Session) RequestID() string { return s.requestID }

// Join registers the customer and hooks their push notifications.
func (s *Session) Join(name string) (string, error) {
	c, err := s.cafe.Join(name)
	if err != nil {
		return MsgEmptyName, err
	}

	s.mu.Lock()
	s.customer = c
	s.mu.Unlock()

	s.cafe.Register(c, interfaces.Listener{
		OnCompleted: func(o *domain.Order) {
			s.push(domain.CompletionMessage(o))
		},
		OnRepurposed: func(r domain.Repurposal) {
			s.push(r.Message())
		},
	})
	s.logger.Info("session_joined", fmt.Sprintf("Customer %s joined", c), s.requestID, map[string]interface{}{"customer_id": c.ID})
	return greeting(c.Name), nil
}

func (s *Session) Customer() *domain.Customer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.customer
}

// CurrentOrder returns the open order, or nil.
func (s *Session) CurrentOrder() *domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Order opens a new order or extends the open one.
func (s *Session) Order(teas, coffees int) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		o, err := s.cafe.PlaceOrder(s.customer, teas, coffees)
		if err != nil {
			return s.orderFailed(err)
		}
		s.current = o
		return fmt.Sprintf("✓ order received for %s", o)
	}

	if s.current.ReadyForCollection() {
		return MsgCollectFirst
	}
	if _, err := s.cafe.ExtendOrder(s.current, teas, coffees); err != nil {
		return s.orderFailed(err)
	}
	return fmt.Sprintf("✓ updated order for %s", s.current)
}

func (s *Session) orderFailed(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidState):
		return MsgCollectFirst
	case errors.Is(err, domain.ErrInvalidQuantity):
		return MsgInvalidOrder
	}
	s.logger.Error("order_failed", "Order could not be placed", s.requestID, nil, err)
	return "✗ error: " + err.Error()
}

func (s *Session) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return fmt.Sprintf("✗ no order found for %s", s.customer.Name)
	}
	return s.cafe.OrderStatus(s.current).String()
}

// Collect takes the finished order off the tray.
func (s *Session) Collect() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return fmt.Sprintf("✗ no order for %s to collect", s.customer.Name)
	}
	if !s.current.ReadyForCollection() {
		return fmt.Sprintf("✗ order not ready for %s yet", s.customer.Name)
	}
	if err := s.cafe.Collect(s.current); err != nil {
		s.logger.Debug("collect_refused", err.Error(), s.requestID, nil)
		return fmt.Sprintf("✗ order not ready for %s yet", s.customer.Name)
	}
	s.current = nil
	return fmt.Sprintf("✓ order collected for %s", s.customer.Name)
}

// Close ends the session. An open order goes through disconnect cleanup, retried on
// lock timeouts; the customer always leaves the café.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.customer == nil {
		return nil
	}
	s.closed = true
	defer s.cafe.Leave(s.customer)

	if s.current == nil {
		return nil
	}

	var err error
	for attempt := 0; attempt <= s.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.retryDelay):
			}
		}
		err = s.cafe.Disconnect(ctx, s.customer, s.current)
		if err == nil {
			s.current = nil
			return nil
		}
		if !errors.Is(err, domain.ErrLockTimeout) {
			break
		}
		s.logger.Warn("disconnect_retry", "Disconnect cleanup timed out", s.requestID, map[string]interface{}{
			"customer_id": s.customer.ID,
			"attempt":     attempt + 1,
		})
	}

	s.logger.Error("disconnect_abandoned", fmt.Sprintf("Items of %s may be orphaned", s.customer), s.requestID, map[string]interface{}{
		"customer_id": s.customer.ID,
		"order":       s.current.String(),
	}, err)
	return err
}
