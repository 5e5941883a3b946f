package cafe

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/YelzhanWeb/cafe/internal/adapter/logger"
	"github.com/YelzhanWeb/cafe/internal/domain"
	"github.com/YelzhanWeb/cafe/internal/interfaces"
	"github.com/YelzhanWeb/cafe/internal/metrics"
)

type Config struct {
	TeaCapacity           int
	CoffeeCapacity        int
	TeaWorkers            int
	CoffeeWorkers         int
	TeaBrewTime           time.Duration
	CoffeeBrewTime        time.Duration
	IdlePollInterval      time.Duration
	DisconnectLockTimeout time.Duration
	AreaLockTimeout       time.Duration
}

func DefaultConfig() Config {
	return Config{
		TeaCapacity:           2,
		CoffeeCapacity:        2,
		TeaWorkers:            2,
		CoffeeWorkers:         2,
		TeaBrewTime:           30 * time.Second,
		CoffeeBrewTime:        45 * time.Second,
		IdlePollInterval:      250 * time.Millisecond,
		DisconnectLockTimeout: 2 * time.Second,
		AreaLockTimeout:       time.Second,
	}
}

// Engine owns the three staging areas, the brewing kitchen and the listener hub.
//
// Lock order is disconnect, waiting, brewing, tray. Order and item mutexes are
// leaves and never held while taking an area lock.
type Engine struct {
	cfg      Config
	logger   logger.Logger
	metrics  *metrics.Metrics
	recorder interfaces.ActivityRecorder

	disconnectMu *areaLock
	waiting      *waitingArea
	brewing      *brewingArea
	tray         *trayArea
	kitchen      *kitchen
	hub          *hub

	totalCustomers   atomic.Int64
	waitingCustomers atomic.Int64

	ordersMu   sync.Mutex
	openOrders map[int64]*domain.Order

	runMu   sync.Mutex
	cancel  context.CancelFunc
	stopped atomic.Bool
	wg      sync.WaitGroup
}

// NewEngine builds a stopped engine. m and recorder may be nil.
func NewEngine(cfg Config, log logger.Logger, m *metrics.Metrics, recorder interfaces.ActivityRecorder) *Engine {
	if log == nil {
		log = logger.Nop()
	}
	return &Engine{
		cfg:          cfg,
		logger:       log,
		metrics:      m,
		recorder:     recorder,
		disconnectMu: newAreaLock(),
		waiting:      newWaitingArea(),
		brewing:      newBrewingArea(),
		tray:         newTrayArea(),
		kitchen:      newKitchen(cfg),
		hub:          newHub(),
		openOrders:   make(map[int64]*domain.Order),
	}
}

// Start launches the brewing workers. They run until ctx ends or Stop is called.
func (e *Engine) Start(ctx context.Context) {
	e.runMu.Lock()
	defer e.runMu.Unlock()
	if e.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	for _, w := range e.kitchen.workers {
		e.wg.Add(1)
		go func(w *domain.Worker) {
			defer e.wg.Done()
			e.runWorker(ctx, w)
		}(w)
	}
	e.logger.Info("engine_started", "Brewing workers started", "", map[string]interface{}{
		"workers":         len(e.kitchen.workers),
		"tea_capacity":    e.cfg.TeaCapacity,
		"coffee_capacity": e.cfg.CoffeeCapacity,
	})
}

// Stop interrupts every brew in progress and waits for the workers to exit.
func (e *Engine) Stop() {
	e.runMu.Lock()
	cancel := e.cancel
	e.runMu.Unlock()
	if cancel == nil {
		return
	}
	e.stopped.Store(true)
	cancel()
	e.wg.Wait()
	e.logger.Info("engine_stopped", "Brewing workers stopped", "", nil)
}

// Run starts the engine and blocks until ctx ends.
func (e *Engine) Run(ctx context.Context) error {
	e.Start(ctx)
	<-ctx.Done()
	e.Stop()
	return nil
}

// Join admits a new customer into the café.
func (e *Engine) Join(name string) (*domain.Customer, error) {
	c, err := domain.NewCustomer(name)
	if err != nil {
		return nil, err
	}
	e.totalCustomers.Add(1)
	e.logger.Info("customer_joined", fmt.Sprintf("Customer %s joined", c), "", map[string]interface{}{"customer_id": c.ID})
	e.recordState()
	return c, nil
}

func (e *Engine) Register(c *domain.Customer, l interfaces.Listener) {
	e.hub.register(c, l)
}

// Leave drops the customer's registration and counts them out of the café.
func (e *Engine) Leave(c *domain.Customer) {
	e.hub.unregister(c)
	e.totalCustomers.Add(-1)
	e.logger.Info("customer_left", fmt.Sprintf("Customer %s left", c), "", map[string]interface{}{"customer_id": c.ID})
	e.recordState()
}

// PlaceOrder opens a new order for c and queues its items. A customer holds at
// most one open order at a time.
func (e *Engine) PlaceOrder(c *domain.Customer, teas, coffees int) (*domain.Order, error) {
	if e.stopped.Load() {
		return nil, domain.ErrEngineStopped
	}
	e.ordersMu.Lock()
	if existing, ok := e.openOrders[c.ID]; ok {
		e.ordersMu.Unlock()
		if existing.ReadyForCollection() {
			return nil, fmt.Errorf("%w: collect the completed order first", domain.ErrInvalidState)
		}
		return nil, fmt.Errorf("%w: %s already has an open order", domain.ErrInvalidState, c.Name)
	}
	o, err := domain.NewOrder(c, teas, coffees)
	if err != nil {
		e.ordersMu.Unlock()
		return nil, err
	}
	e.openOrders[c.ID] = o
	e.ordersMu.Unlock()

	items := o.Items()
	e.waiting.mu.Lock()
	e.waiting.addLocked(items...)
	e.waiting.mu.Unlock()

	e.waitingCustomers.Add(1)
	e.kitchen.wakeFor(items)
	e.metrics.OrderPlaced()
	e.logger.Info("order_placed", fmt.Sprintf("Order placed for %s", o), "", map[string]interface{}{
		"customer_id": c.ID,
		"teas":        teas,
		"coffees":     coffees,
	})
	e.recordState()
	return o, nil
}

// ExtendOrder appends items to an open order. The waiting lock is held across the
// append so a concurrent disconnect sees either none or all of the new items.
func (e *Engine) ExtendOrder(o *domain.Order, teas, coffees int) ([]*domain.Item, error) {
	if e.stopped.Load() {
		return nil, domain.ErrEngineStopped
	}
	e.waiting.mu.Lock()
	added, err := o.AddItems(teas, coffees)
	if err != nil {
		e.waiting.mu.Unlock()
		return nil, err
	}
	e.waiting.addLocked(added...)
	e.waiting.mu.Unlock()

	e.kitchen.wakeFor(added)
	e.metrics.OrderExtended()
	e.logger.Info("order_extended", fmt.Sprintf("Order updated for %s", o), "", map[string]interface{}{
		"customer_id": o.Customer().ID,
		"teas":        teas,
		"coffees":     coffees,
	})
	e.recordState()
	return added, nil
}

// OrderStatus reports where the order's live items are.
func (e *Engine) OrderStatus(o *domain.Order) domain.OrderStatus {
	c := o.Customer()
	owned := func(it *domain.Item) bool { return it.Order() == o && !it.Cancelled() }

	unlock := e.lockAreas()
	waiting := e.waiting.filterLocked(owned)
	brewing := e.brewing.filterLocked(owned)
	tray := e.tray.filterLocked(c, owned)
	unlock()

	return domain.OrderStatus{
		CustomerID:   c.ID,
		CustomerName: c.Name,
		Waiting:      tally(waiting),
		Brewing:      tally(brewing),
		Tray:         tally(tray),
		Ready:        o.ReadyForCollection(),
	}
}

// Collect hands the finished order to the customer. It is all or nothing:
// ErrNotReady leaves the tray untouched.
func (e *Engine) Collect(o *domain.Order) error {
	e.tray.mu.Lock()
	items, err := e.tray.collectLocked(o)
	e.tray.mu.Unlock()
	if err != nil {
		return fmt.Errorf("collect order for %s: %w", o.Customer().Name, err)
	}

	o.MarkReadyForCollection(false)
	e.forgetOrder(o)
	e.waitingCustomers.Add(-1)
	e.metrics.OrderCollected()
	e.logger.Info("order_collected", fmt.Sprintf("Order collected by %s", o.Customer()), "", map[string]interface{}{
		"customer_id": o.Customer().ID,
		"items":       len(items),
	})
	e.recordState()
	return nil
}

func (e *Engine) forgetOrder(o *domain.Order) {
	e.ordersMu.Lock()
	defer e.ordersMu.Unlock()
	if e.openOrders[o.Customer().ID] == o {
		delete(e.openOrders, o.Customer().ID)
	}
}

// CustomerStatus looks up the open order of a connected customer.
func (e *Engine) CustomerStatus(customerID int64) (domain.OrderStatus, bool) {
	e.ordersMu.Lock()
	o, ok := e.openOrders[customerID]
	e.ordersMu.Unlock()
	if !ok {
		return domain.OrderStatus{}, false
	}
	return e.OrderStatus(o), true
}

// Snapshot reads the aggregate counters. The areas are read under one hold so an
// item moving between them is counted exactly once.
func (e *Engine) Snapshot() domain.Snapshot {
	s := domain.Snapshot{
		TotalCustomers:   int(e.totalCustomers.Load()),
		WaitingCustomers: int(e.waitingCustomers.Load()),
	}

	unlock := e.lockAreas()
	s.Waiting = e.waiting.counts
	s.Brewing = e.brewing.counts
	s.Tray = e.tray.counts
	unlock()

	return s
}

// lockAreas takes the waiting, brewing and tray locks in the engine's lock order
// and returns the matching release.
func (e *Engine) lockAreas() func() {
	e.waiting.mu.Lock()
	e.brewing.mu.Lock()
	e.tray.mu.Lock()
	return func() {
		e.tray.mu.Unlock()
		e.brewing.mu.Unlock()
		e.waiting.mu.Unlock()
	}
}

func (e *Engine) Workers() []domain.WorkerInfo {
	out := make([]domain.WorkerInfo, 0, len(e.kitchen.workers))
	for _, w := range e.kitchen.workers {
		out = append(out, w.Info())
	}
	return out
}

// recordState pushes a fresh snapshot downstream. Callers must hold no area lock.
func (e *Engine) recordState() {
	s := e.Snapshot()
	e.metrics.ObserveSnapshot(s)
	if e.recorder != nil {
		e.recorder.RecordSnapshot(s)
	}
}

func (e *Engine) notifyCompleted(o *domain.Order) {
	c := o.Customer()
	e.metrics.OrderCompleted()
	e.logger.Info("order_completed", fmt.Sprintf("Order for %s is ready", c), "", map[string]interface{}{
		"customer_id": c.ID,
		"items":       o.Len(),
	})
	delivered := e.hub.fireCompleted(o)
	if !delivered {
		e.logger.Debug("listener_missing", fmt.Sprintf("No listener for %s", c), "", nil)
	}
	if e.recorder != nil {
		e.recorder.RecordNotification(interfaces.NotificationMessage{
			Type:         interfaces.NotificationOrderCompleted,
			CustomerID:   c.ID,
			CustomerName: c.Name,
			Message:      domain.CompletionMessage(o),
			Timestamp:    time.Now().UTC(),
		})
	}
}

func (e *Engine) notifyRepurposed(r domain.Repurposal) {
	e.metrics.ItemRepurposed(r.Kind)
	e.logger.Info("item_repurposed", r.Message(), "", map[string]interface{}{
		"kind":          r.Kind.String(),
		"from_customer": r.From.ID,
		"to_customer":   r.To.ID,
		"from_location": r.FromLocation,
	})
	e.hub.fireRepurposed(r)
	if e.recorder != nil {
		e.recorder.RecordNotification(interfaces.NotificationMessage{
			Type:         interfaces.NotificationItemRepurposed,
			CustomerID:   r.To.ID,
			CustomerName: r.To.Name,
			Kind:         r.Kind.String(),
			FromCustomer: r.From.Name,
			Message:      r.Message(),
			Timestamp:    time.Now().UTC(),
		})
	}
}
