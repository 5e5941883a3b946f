package domain

import (
	"strings"
	"time"
)

// ActivityRecord is one persisted snapshot of the café's aggregate state.
type ActivityRecord struct {
	ID        int64     `json:"id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	State     Snapshot  `json:"state"`
}

// OrderStatus is where one customer's items currently are.
type OrderStatus struct {
	CustomerID   int64      `json:"customer_id"`
	CustomerName string     `json:"customer_name"`
	Waiting      DrinkCount `json:"waiting"`
	Brewing      DrinkCount `json:"brewing"`
	Tray         DrinkCount `json:"tray"`
	Ready        bool       `json:"ready_for_collection"`
}

func (s OrderStatus) String() string {
	var b strings.Builder
	b.WriteString("order status for ")
	b.WriteString(s.CustomerName)
	b.WriteString(":")
	if !s.Waiting.IsZero() {
		b.WriteString("\n- " + s.Waiting.String() + " in waiting area")
	}
	if !s.Brewing.IsZero() {
		b.WriteString("\n- " + s.Brewing.String() + " currently brewing")
	}
	if !s.Tray.IsZero() {
		b.WriteString("\n- " + s.Tray.String() + " on the tray")
	}
	return b.String()
}
