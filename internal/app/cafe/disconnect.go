package cafe

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/YelzhanWeb/cafe/internal/domain"
)

// receiver is another waiting customer's order and what it still needs.
type receiver struct {
	order *domain.Order
	need  domain.DrinkCount
	items []*domain.Item
}

// cleanupResult carries what must be announced once every lock is released.
type cleanupResult struct {
	repurposals []domain.Repurposal
	completed   []*domain.Order
	cancelled   int
	freed       int
}

// Disconnect salvages what it can of a leaving customer's order and clears the rest
// out of every area. Brewing and tray items still owned by c go to other customers
// who wait on the same kind; everything else is cancelled and removed.
//
// If any staging lock cannot be taken in time nothing changes and the returned error
// wraps domain.ErrLockTimeout; the caller may retry.
func (e *Engine) Disconnect(ctx context.Context, c *domain.Customer, o *domain.Order) error {
	if o == nil {
		return nil
	}

	unlock, err := e.lockForDisconnect(ctx)
	if err != nil {
		e.metrics.DisconnectLockTimeout()
		e.logger.Warn("disconnect_lock_timeout", fmt.Sprintf("Cleanup for %s abandoned", c), "", map[string]interface{}{
			"customer_id": c.ID,
			"error":       err.Error(),
		})
		return err
	}
	res := e.cleanupLocked(c, o)
	unlock()

	e.forgetOrder(o)
	e.waitingCustomers.Add(-1)
	e.logger.Info("customer_disconnected", fmt.Sprintf("Order for %s cleared", c), "", map[string]interface{}{
		"customer_id": c.ID,
		"repurposed":  len(res.repurposals),
		"cancelled":   res.cancelled,
		"slots_freed": res.freed,
	})
	e.recordState()

	for _, r := range res.repurposals {
		e.notifyRepurposed(r)
	}
	for _, done := range res.completed {
		e.notifyCompleted(done)
	}
	return nil
}

// lockForDisconnect takes the disconnect, waiting, brewing and tray locks in order.
// On timeout everything already held is released.
func (e *Engine) lockForDisconnect(ctx context.Context) (func(), error) {
	steps := []struct {
		name    string
		lock    *areaLock
		timeout time.Duration
	}{
		{"disconnect", e.disconnectMu, e.cfg.DisconnectLockTimeout},
		{"waiting", e.waiting.mu, e.cfg.AreaLockTimeout},
		{"brewing", e.brewing.mu, e.cfg.AreaLockTimeout},
		{"tray", e.tray.mu, e.cfg.AreaLockTimeout},
	}

	held := make([]*areaLock, 0, len(steps))
	unlock := func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}

	for _, step := range steps {
		if !step.lock.LockWithin(ctx, step.timeout) {
			unlock()
			return nil, fmt.Errorf("%w: %s lock not acquired within %s", domain.ErrLockTimeout, step.name, step.timeout)
		}
		held = append(held, step.lock)
	}
	return unlock, nil
}

// cleanupLocked runs with all four locks held.
func (e *Engine) cleanupLocked(c *domain.Customer, o *domain.Order) cleanupResult {
	var res cleanupResult
	ownedByLeaver := func(it *domain.Item) bool { return it.Owner().Is(c) }

	candidates := append(
		e.brewing.filterLocked(ownedByLeaver),
		e.tray.filterLocked(c, ownedByLeaver)...,
	)
	slices.SortFunc(candidates, func(a, b *domain.Item) int {
		return cmp.Compare(a.Seq(), b.Seq())
	})

	if len(candidates) > 0 {
		for _, r := range e.matchLocked(c, candidates) {
			for _, it := range r.items {
				if rp, ok := e.transferLocked(c, r.order, it, &res); ok {
					res.repurposals = append(res.repurposals, rp)
				}
			}
		}
	}

	// Items still owned by o include ones repurposed into it that found no new home.
	for _, it := range o.Items() {
		if it.Order() != o {
			continue
		}
		if it.Discard() {
			res.cancelled++
			e.metrics.ItemCancelled(it.Kind())
		}
	}

	e.waiting.removeMatchingLocked(ownedByLeaver)
	for _, entry := range e.brewing.removeMatchingLocked(ownedByLeaver) {
		entry.item.Discard()
		entry.slot.release()
		res.freed++
	}
	for _, it := range e.tray.removeMatchingLocked(c, ownedByLeaver) {
		it.Discard()
	}
	return res
}

// matchLocked assigns candidates to other customers' outstanding waiting needs.
// Receivers are served in ascending customer id, each taking the earliest matching
// candidates first. A candidate goes to at most one receiver.
func (e *Engine) matchLocked(leaver *domain.Customer, candidates []*domain.Item) []*receiver {
	byCustomer := make(map[int64]*receiver)
	for _, it := range e.waiting.items {
		if it.Cancelled() {
			continue
		}
		o := it.Order()
		owner := o.Customer()
		if owner.Is(leaver) {
			continue
		}
		r, ok := byCustomer[owner.ID]
		if !ok {
			r = &receiver{order: o}
			byCustomer[owner.ID] = r
		}
		r.need.Add(it.Kind(), 1)
	}

	receivers := make([]*receiver, 0, len(byCustomer))
	for _, r := range byCustomer {
		receivers = append(receivers, r)
	}
	slices.SortFunc(receivers, func(a, b *receiver) int {
		return cmp.Compare(a.order.Customer().ID, b.order.Customer().ID)
	})

	taken := make(map[*domain.Item]bool, len(candidates))
	for _, r := range receivers {
		for _, it := range candidates {
			if taken[it] || r.need.Of(it.Kind()) == 0 {
				continue
			}
			taken[it] = true
			r.need.Add(it.Kind(), -1)
			r.items = append(r.items, it)
		}
	}

	matched := receivers[:0]
	for _, r := range receivers {
		if len(r.items) > 0 {
			matched = append(matched, r)
		}
	}
	return matched
}

// transferLocked moves one matched item into the receiving order. A receiver that can
// no longer take the item leaves it with the leaver, to be cancelled.
func (e *Engine) transferLocked(leaver *domain.Customer, to *domain.Order, it *domain.Item, res *cleanupResult) (domain.Repurposal, bool) {
	if !to.CanAccept(it) {
		return domain.Repurposal{}, false
	}

	onTray := it.Status() == domain.StatusTray
	placeholder, err := to.RepurposeItem(it)
	if err != nil {
		e.logger.Debug("repurpose_skipped", "Item could not be transferred", "", map[string]interface{}{
			"item":  it.Seq(),
			"error": err.Error(),
		})
		return domain.Repurposal{}, false
	}
	e.waiting.removeLocked(placeholder)

	rp := domain.Repurposal{
		Kind:         it.Kind(),
		From:         leaver,
		FromLocation: domain.LocationBrewing,
		To:           to.Customer(),
		ToLocation:   domain.DestinationOrder,
	}
	if onTray {
		rp.FromLocation = domain.LocationTray
		rp.ToLocation = domain.DestinationTray
		e.tray.moveLocked(leaver, to.Customer(), it)
		if to.MarkReadyIfComplete(e.tray.countForLocked(to)) {
			res.completed = append(res.completed, to)
		}
	}
	return rp, true
}
