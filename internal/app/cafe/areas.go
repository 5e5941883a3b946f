package cafe

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/YelzhanWeb/cafe/internal/domain"
)

// areaLock is a mutex whose acquisition can be bounded in time.
type areaLock struct {
	sem *semaphore.Weighted
}

func newAreaLock() *areaLock {
	return &areaLock{sem: semaphore.NewWeighted(1)}
}

// Lock blocks until the lock is free.
func (l *areaLock) Lock() {
	// Acquire only fails once its context is done, and Background never is.
	if err := l.sem.Acquire(context.Background(), 1); err != nil {
		panic("cafe: area lock: " + err.Error())
	}
}

func (l *areaLock) Unlock() {
	l.sem.Release(1)
}

// LockWithin reports whether the lock was taken before timeout elapsed or ctx ended.
func (l *areaLock) LockWithin(ctx context.Context, timeout time.Duration) bool {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return l.sem.Acquire(ctx, 1) == nil
}

// slot is one capacity unit held by a brew. Release is idempotent so the worker
// and disconnect cleanup can both call it.
type slot struct {
	once sync.Once
	sem  *semaphore.Weighted
}

func newSlot(sem *semaphore.Weighted) *slot {
	return &slot{sem: sem}
}

func (s *slot) release() {
	s.once.Do(func() { s.sem.Release(1) })
}

func removeWhere[T any](list []T, match func(T) bool) (kept, removed []T) {
	kept = list[:0]
	for _, v := range list {
		if match(v) {
			removed = append(removed, v)
			continue
		}
		kept = append(kept, v)
	}
	clear(list[len(kept):])
	return kept, removed
}

func tally(items []*domain.Item) domain.DrinkCount {
	var c domain.DrinkCount
	for _, it := range items {
		c.Add(it.Kind(), 1)
	}
	return c
}

// All *Locked methods below require the area's mu to be held.

type waitingArea struct {
	mu     *areaLock
	items  []*domain.Item
	counts domain.DrinkCount
}

func newWaitingArea() *waitingArea {
	return &waitingArea{mu: newAreaLock()}
}

func (a *waitingArea) addLocked(items ...*domain.Item) {
	for _, it := range items {
		a.items = append(a.items, it)
		a.counts.Add(it.Kind(), 1)
	}
}

// popOldestLocked removes the earliest enqueued uncancelled item of kind.
func (a *waitingArea) popOldestLocked(kind domain.Kind) *domain.Item {
	for i, it := range a.items {
		if it.Kind() != kind || it.Cancelled() {
			continue
		}
		a.items = append(a.items[:i], a.items[i+1:]...)
		a.counts.Add(kind, -1)
		return it
	}
	return nil
}

func (a *waitingArea) removeLocked(target *domain.Item) bool {
	removed := a.removeMatchingLocked(func(it *domain.Item) bool { return it == target })
	return len(removed) > 0
}

func (a *waitingArea) removeMatchingLocked(match func(*domain.Item) bool) []*domain.Item {
	var removed []*domain.Item
	a.items, removed = removeWhere(a.items, match)
	for _, it := range removed {
		a.counts.Add(it.Kind(), -1)
	}
	return removed
}

func (a *waitingArea) filterLocked(match func(*domain.Item) bool) []*domain.Item {
	var out []*domain.Item
	for _, it := range a.items {
		if match(it) {
			out = append(out, it)
		}
	}
	return out
}

// brewEntry is an item on the brewing bench together with the capacity unit it holds.
type brewEntry struct {
	item *domain.Item
	slot *slot
}

type brewingArea struct {
	mu      *areaLock
	entries []*brewEntry
	counts  domain.DrinkCount
}

func newBrewingArea() *brewingArea {
	return &brewingArea{mu: newAreaLock()}
}

func (a *brewingArea) addLocked(it *domain.Item, s *slot) {
	a.entries = append(a.entries, &brewEntry{item: it, slot: s})
	a.counts.Add(it.Kind(), 1)
}

func (a *brewingArea) removeLocked(target *domain.Item) bool {
	removed := a.removeMatchingLocked(func(it *domain.Item) bool { return it == target })
	return len(removed) > 0
}

func (a *brewingArea) removeMatchingLocked(match func(*domain.Item) bool) []*brewEntry {
	var removed []*brewEntry
	a.entries, removed = removeWhere(a.entries, func(e *brewEntry) bool { return match(e.item) })
	for _, e := range removed {
		a.counts.Add(e.item.Kind(), -1)
	}
	return removed
}

func (a *brewingArea) filterLocked(match func(*domain.Item) bool) []*domain.Item {
	var out []*domain.Item
	for _, e := range a.entries {
		if match(e.item) {
			out = append(out, e.item)
		}
	}
	return out
}

func (a *brewingArea) countLocked(kind domain.Kind) int {
	return a.counts.Of(kind)
}

// trayArea holds finished items per customer until they are collected.
type trayArea struct {
	mu      *areaLock
	entries map[int64][]*domain.Item
	counts  domain.DrinkCount
}

func newTrayArea() *trayArea {
	return &trayArea{
		mu:      newAreaLock(),
		entries: make(map[int64][]*domain.Item),
	}
}

func (a *trayArea) addLocked(owner *domain.Customer, it *domain.Item) {
	a.entries[owner.ID] = append(a.entries[owner.ID], it)
	a.counts.Add(it.Kind(), 1)
}

func (a *trayArea) removeMatchingLocked(owner *domain.Customer, match func(*domain.Item) bool) []*domain.Item {
	entry, ok := a.entries[owner.ID]
	if !ok {
		return nil
	}
	kept, removed := removeWhere(entry, match)
	if len(kept) == 0 {
		delete(a.entries, owner.ID)
	} else {
		a.entries[owner.ID] = kept
	}
	for _, it := range removed {
		a.counts.Add(it.Kind(), -1)
	}
	return removed
}

// moveLocked hands one item from one customer's entry to another's. Counters are unchanged.
func (a *trayArea) moveLocked(from, to *domain.Customer, it *domain.Item) {
	entry := a.entries[from.ID]
	kept, removed := removeWhere(entry, func(candidate *domain.Item) bool { return candidate == it })
	if len(removed) == 0 {
		return
	}
	if len(kept) == 0 {
		delete(a.entries, from.ID)
	} else {
		a.entries[from.ID] = kept
	}
	a.entries[to.ID] = append(a.entries[to.ID], it)
}

func (a *trayArea) filterLocked(owner *domain.Customer, match func(*domain.Item) bool) []*domain.Item {
	var out []*domain.Item
	for _, it := range a.entries[owner.ID] {
		if match(it) {
			out = append(out, it)
		}
	}
	return out
}

// countForLocked counts the uncancelled tray items currently owned by o.
func (a *trayArea) countForLocked(o *domain.Order) int {
	n := 0
	for _, it := range a.entries[o.Customer().ID] {
		if it.Order() == o && !it.Cancelled() {
			n++
		}
	}
	return n
}

// collectLocked empties the customer's entry if it holds the whole order and nothing
// cancelled. Otherwise nothing changes.
func (a *trayArea) collectLocked(o *domain.Order) ([]*domain.Item, error) {
	owner := o.Customer()
	entry, ok := a.entries[owner.ID]
	if !ok {
		return nil, domain.ErrNotReady
	}
	for _, it := range entry {
		if it.Cancelled() || it.Order() != o {
			return nil, domain.ErrNotReady
		}
	}
	if len(entry) != o.Len() {
		return nil, domain.ErrNotReady
	}

	delete(a.entries, owner.ID)
	for _, it := range entry {
		a.counts.Add(it.Kind(), -1)
	}
	return entry, nil
}
