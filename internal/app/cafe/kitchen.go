package cafe

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/YelzhanWeb/cafe/internal/domain"
)

// kitchen holds the per-kind capacity guards and the long-lived brewing workers.
type kitchen struct {
	capacity map[domain.Kind]*semaphore.Weighted
	brewTime map[domain.Kind]time.Duration
	wake     map[domain.Kind]chan struct{}
	workers  []*domain.Worker
	idlePoll time.Duration
}

func newKitchen(cfg Config) *kitchen {
	k := &kitchen{
		capacity: map[domain.Kind]*semaphore.Weighted{
			domain.Tea:    semaphore.NewWeighted(int64(cfg.TeaCapacity)),
			domain.Coffee: semaphore.NewWeighted(int64(cfg.CoffeeCapacity)),
		},
		brewTime: map[domain.Kind]time.Duration{
			domain.Tea:    cfg.TeaBrewTime,
			domain.Coffee: cfg.CoffeeBrewTime,
		},
		wake:     make(map[domain.Kind]chan struct{}),
		idlePoll: cfg.IdlePollInterval,
	}
	if k.idlePoll <= 0 {
		k.idlePoll = DefaultConfig().IdlePollInterval
	}

	counts := map[domain.Kind]int{domain.Tea: cfg.TeaWorkers, domain.Coffee: cfg.CoffeeWorkers}
	for _, kind := range domain.Kinds {
		n := counts[kind]
		k.wake[kind] = make(chan struct{}, max(n, 1))
		for i := 1; i <= n; i++ {
			k.workers = append(k.workers, domain.NewWorker(fmt.Sprintf("%s-%d", kind, i), kind))
		}
	}
	return k
}

// wakeFor nudges idle workers of each kind present in items.
func (k *kitchen) wakeFor(items []*domain.Item) {
	for _, it := range items {
		select {
		case k.wake[it.Kind()] <- struct{}{}:
		default:
		}
	}
}

// runWorker repeats acquire, pop, brew until ctx ends.
func (e *Engine) runWorker(ctx context.Context, w *domain.Worker) {
	defer w.SetOffline()

	sem := e.kitchen.capacity[w.Kind]
	idle := time.NewTimer(e.kitchen.idlePoll)
	defer idle.Stop()

	for {
		if err := sem.Acquire(ctx, 1); err != nil {
			return
		}
		s := newSlot(sem)

		it := e.takeNext(w.Kind, s)
		if it == nil {
			s.release()
			idle.Reset(e.kitchen.idlePoll)
			select {
			case <-ctx.Done():
				return
			case <-e.kitchen.wake[w.Kind]:
			case <-idle.C:
				w.Heartbeat()
			}
			continue
		}

		e.brew(ctx, w, it, s)
		if ctx.Err() != nil {
			return
		}
	}
}

// takeNext moves the oldest uncancelled waiting item of kind onto the brewing bench.
// Waiting and brewing are held together so the item is never in neither area.
func (e *Engine) takeNext(kind domain.Kind, s *slot) *domain.Item {
	e.waiting.mu.Lock()
	e.brewing.mu.Lock()
	it := e.waiting.popOldestLocked(kind)
	if it != nil {
		if err := it.MoveTo(domain.StatusBrewing); err != nil {
			e.logger.Error("brew_state_invalid", "Popped item is not waiting", "", nil, err)
		}
		e.brewing.addLocked(it, s)
	}
	e.brewing.mu.Unlock()
	e.waiting.mu.Unlock()

	if it != nil {
		e.recordState()
	}
	return it
}

func (e *Engine) brew(ctx context.Context, w *domain.Worker, it *domain.Item, s *slot) {
	start := time.Now()
	w.StartBrewing(it)
	e.logger.Debug("brew_started", fmt.Sprintf("%s started brewing %s", w.Name, it.Kind()), "", map[string]interface{}{
		"worker":      w.Name,
		"item":        it.Seq(),
		"customer_id": it.Owner().ID,
	})

	timer := time.NewTimer(e.kitchen.brewTime[it.Kind()])
	defer timer.Stop()

	select {
	case <-ctx.Done():
		e.retire(it)
		s.release()
		w.FinishBrewing(false)
		e.metrics.BrewFinished(it.Kind(), false, time.Since(start))
		e.logger.Info("brew_interrupted", fmt.Sprintf("%s stopped brewing %s", w.Name, it.Kind()), "", map[string]interface{}{
			"worker": w.Name,
			"item":   it.Seq(),
		})
		return
	case <-timer.C:
	}

	delivered, completed := e.finishBrew(it)
	s.release()
	w.FinishBrewing(delivered)
	e.metrics.BrewFinished(it.Kind(), delivered, time.Since(start))

	if !delivered {
		e.logger.Info("brew_discarded", fmt.Sprintf("%s discarded %s", w.Name, it.Kind()), "", map[string]interface{}{
			"worker": w.Name,
			"item":   it.Seq(),
		})
		return
	}

	e.logger.Debug("brew_finished", fmt.Sprintf("%s finished %s", w.Name, it.Kind()), "", map[string]interface{}{
		"worker":      w.Name,
		"item":        it.Seq(),
		"customer_id": it.Owner().ID,
	})
	e.recordState()
	if completed != nil {
		e.notifyCompleted(completed)
	}
}

// finishBrew promotes a brewed item to the tray of its current owner. Items that were
// cancelled or already cleared out of brewing are dropped.
func (e *Engine) finishBrew(it *domain.Item) (bool, *domain.Order) {
	e.brewing.mu.Lock()
	defer e.brewing.mu.Unlock()
	e.tray.mu.Lock()
	defer e.tray.mu.Unlock()

	if !e.brewing.removeLocked(it) || it.Cancelled() {
		return false, nil
	}
	if err := it.MoveTo(domain.StatusTray); err != nil {
		e.logger.Error("brew_state_invalid", "Brewed item cannot move to tray", "", nil, err)
		return false, nil
	}

	o := it.Order()
	e.tray.addLocked(o.Customer(), it)
	if o.MarkReadyIfComplete(e.tray.countForLocked(o)) {
		return true, o
	}
	return true, nil
}

// retire takes an interrupted item off the bench and cancels it.
func (e *Engine) retire(it *domain.Item) {
	e.brewing.mu.Lock()
	removed := e.brewing.removeLocked(it)
	e.brewing.mu.Unlock()

	if removed {
		it.Cancel()
		e.recordState()
	}
}
