package domain

import (
	"sync"
	"time"
)

type WorkerStatus string

const (
	WorkerStatusIdle    WorkerStatus = "idle"
	WorkerStatusBrewing WorkerStatus = "brewing"
	WorkerStatusOffline WorkerStatus = "offline"
)

// Worker tracks one long-lived brewing worker.
type Worker struct {
	Name string
	Kind Kind

	mu            sync.Mutex
	status        WorkerStatus
	lastSeen      time.Time
	itemsBrewed   int
	itemsDropped  int
	currentItemID uint64
}

// WorkerInfo is a point-in-time copy of a worker's state.
type WorkerInfo struct {
	Name         string       `json:"worker_name"`
	Kind         string       `json:"kind"`
	Status       WorkerStatus `json:"status"`
	ItemsBrewed  int          `json:"items_brewed"`
	ItemsDropped int          `json:"items_dropped"`
	CurrentItem  uint64       `json:"current_item,omitempty"`
	LastSeen     time.Time    `json:"last_seen"`
}

func NewWorker(name string, kind Kind) *Worker {
	return &Worker{
		Name:     name,
		Kind:     kind,
		status:   WorkerStatusIdle,
		lastSeen: time.Now(),
	}
}

// StartBrewing records the item the worker holds.
func (w *Worker) StartBrewing(it *Item) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.status = WorkerStatusBrewing
	w.currentItemID = it.Seq()
	w.lastSeen = time.Now()
}

// FinishBrewing returns the worker to idle; delivered tells whether the item reached the tray.
func (w *Worker) FinishBrewing(delivered bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if delivered {
		w.itemsBrewed++
	} else {
		w.itemsDropped++
	}
	w.status = WorkerStatusIdle
	w.currentItemID = 0
	w.lastSeen = time.Now()
}

// Heartbeat refreshes the last-seen timestamp while idle.
func (w *Worker) Heartbeat() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lastSeen = time.Now()
}

func (w *Worker) SetOffline() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.status = WorkerStatusOffline
	w.currentItemID = 0
}

func (w *Worker) Info() WorkerInfo {
	w.mu.Lock()
	defer w.mu.Unlock()
	return WorkerInfo{
		Name:         w.Name,
		Kind:         w.Kind.String(),
		Status:       w.status,
		ItemsBrewed:  w.itemsBrewed,
		ItemsDropped: w.itemsDropped,
		CurrentItem:  w.currentItemID,
		LastSeen:     w.lastSeen,
	}
}
