package domain

import (
	"fmt"
	"sync"
	"sync/atomic"
)

var itemSeq atomic.Uint64

// Item is a single drink moving through Waiting -> Brewing -> Tray.
// Cancelled and repurposed are terminal markers and exclude each other.
type Item struct {
	seq  uint64
	kind Kind

	mu         sync.Mutex
	status     ItemStatus
	cancelled  bool
	repurposed bool
	order      *Order
}

func newItem(kind Kind, order *Order) *Item {
	return &Item{
		seq:    itemSeq.Add(1),
		kind:   kind,
		status: StatusWaiting,
		order:  order,
	}
}

// NewPlaceholder builds a detached waiting item used only for counting.
func NewPlaceholder(kind Kind, order *Order) *Item {
	return newItem(kind, order)
}

// Seq is the process-wide creation sequence; lower values were enqueued earlier.
func (it *Item) Seq() uint64 { return it.seq }

func (it *Item) Kind() Kind { return it.kind }

func (it *Item) Status() ItemStatus {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.status
}

func (it *Item) Cancelled() bool {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.cancelled
}

func (it *Item) Repurposed() bool {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.repurposed
}

// Order returns the order currently owning the item.
func (it *Item) Order() *Order {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.order
}

// Owner returns the customer of the owning order.
func (it *Item) Owner() *Customer {
	o := it.Order()
	if o == nil {
		return nil
	}
	return o.customer
}

// MoveTo advances the item status. Moving backwards or sideways fails.
func (it *Item) MoveTo(status ItemStatus) error {
	it.mu.Lock()
	defer it.mu.Unlock()
	if status <= it.status {
		return fmt.Errorf("%w: item cannot move from %s to %s", ErrInvalidState, it.status, status)
	}
	it.status = status
	return nil
}

// Cancel flags the item as cancelled. It fails if the item was repurposed.
func (it *Item) Cancel() bool {
	it.mu.Lock()
	defer it.mu.Unlock()
	if it.repurposed {
		return false
	}
	it.cancelled = true
	return true
}

// Discard cancels an item even if it was repurposed into its current order, dropping
// the repurposed flag so the two states stay exclusive. It is for owners that are
// leaving; it reports whether the item was still live.
func (it *Item) Discard() bool {
	it.mu.Lock()
	defer it.mu.Unlock()
	if it.cancelled {
		return false
	}
	it.cancelled = true
	it.repurposed = false
	return true
}

func (it *Item) reassign(o *Order) bool {
	it.mu.Lock()
	defer it.mu.Unlock()
	if it.cancelled {
		return false
	}
	it.order = o
	it.repurposed = true
	return true
}

func (it *Item) String() string {
	return fmt.Sprintf("%s (%s)", it.kind, it.Status())
}

// Equivalent matches items by kind and owning customer rather than identity.
func Equivalent(a, b *Item) bool {
	if a == nil || b == nil {
		return false
	}
	return a.kind == b.kind && a.Owner().Is(b.Owner())
}

// Order is a customer's running tab of items, open until collected.
type Order struct {
	customer *Customer

	mu    sync.Mutex
	items []*Item
	ready bool
}

// NewOrder creates an order holding the requested number of fresh waiting items.
func NewOrder(customer *Customer, teas, coffees int) (*Order, error) {
	if err := validateQuantities(teas, coffees); err != nil {
		return nil, err
	}
	o := &Order{customer: customer}
	o.items = o.makeItems(teas, coffees)
	return o, nil
}

func validateQuantities(teas, coffees int) error {
	if teas < 0 || coffees < 0 || teas+coffees == 0 {
		return fmt.Errorf("%w: got %d teas, %d coffees", ErrInvalidQuantity, teas, coffees)
	}
	return nil
}

func (o *Order) makeItems(teas, coffees int) []*Item {
	items := make([]*Item, 0, teas+coffees)
	for i := 0; i < teas; i++ {
		items = append(items, newItem(Tea, o))
	}
	for i := 0; i < coffees; i++ {
		items = append(items, newItem(Coffee, o))
	}
	return items
}

func (o *Order) Customer() *Customer { return o.customer }

// AddItems appends fresh waiting items and returns them. It fails with
// ErrInvalidState while the order is ready for collection.
func (o *Order) AddItems(teas, coffees int) ([]*Item, error) {
	if err := validateQuantities(teas, coffees); err != nil {
		return nil, err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.ready {
		return nil, fmt.Errorf("%w: collect the completed order first", ErrInvalidState)
	}
	added := o.makeItems(teas, coffees)
	o.items = append(o.items, added...)
	return added, nil
}

// Items returns a copy of the item list.
func (o *Order) Items() []*Item {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]*Item, len(o.items))
	copy(out, o.items)
	return out
}

func (o *Order) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.items)
}

func (o *Order) IsEmpty() bool { return o.Len() == 0 }

// Counts tallies every item in the order, cancelled or not.
func (o *Order) Counts() DrinkCount {
	var c DrinkCount
	for _, it := range o.Items() {
		c.Add(it.kind, 1)
	}
	return c
}

func (o *Order) ReadyForCollection() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.ready
}

func (o *Order) MarkReadyForCollection(ready bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ready = ready
}

// MarkReadyIfComplete flips the order ready when onTray covers every item.
// It reports whether this call made the order ready.
func (o *Order) MarkReadyIfComplete(onTray int) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.ready || len(o.items) == 0 || onTray != len(o.items) {
		return false
	}
	o.ready = true
	return true
}

// CanAccept reports whether the order still waits on an uncancelled item of the same kind.
func (o *Order) CanAccept(it *Item) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.placeholderIndex(it.kind) >= 0
}

func (o *Order) placeholderIndex(kind Kind) int {
	for i, candidate := range o.items {
		if candidate.kind != kind {
			continue
		}
		candidate.mu.Lock()
		ok := candidate.status == StatusWaiting && !candidate.cancelled
		candidate.mu.Unlock()
		if ok {
			return i
		}
	}
	return -1
}

// RepurposeItem folds a foreign item into the order. The first uncancelled waiting
// item of the same kind is dropped from the order and returned; the foreign item
// is appended, owned by this order and flagged repurposed.
func (o *Order) RepurposeItem(it *Item) (*Item, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	idx := o.placeholderIndex(it.kind)
	if idx < 0 {
		return nil, fmt.Errorf("%w: order for %s has no waiting %s", ErrInvalidState, o.customer.Name, it.kind)
	}
	if !it.reassign(o) {
		return nil, fmt.Errorf("%w: %s is cancelled", ErrInvalidState, it.kind)
	}

	superseded := o.items[idx]
	o.items = append(o.items[:idx], o.items[idx+1:]...)
	o.items = append(o.items, it)
	return superseded, nil
}

func (o *Order) String() string {
	if o.IsEmpty() {
		return o.customer.Name + ": empty order"
	}
	return o.customer.Name + ": " + o.Counts().String()
}
