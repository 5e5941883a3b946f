package domain

import (
	"fmt"
	"strings"
	"sync/atomic"
)

var customerSeq atomic.Int64

// Customer is a registered café visitor. Identity is the numeric ID, never the name.
type Customer struct {
	ID   int64
	Name string
}

// NewCustomer assigns the next process-unique ID.
func NewCustomer(name string) (*Customer, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	return &Customer{ID: customerSeq.Add(1), Name: name}, nil
}

// Is reports whether both values refer to the same customer.
func (c *Customer) Is(other *Customer) bool {
	if c == nil || other == nil {
		return c == other
	}
	return c.ID == other.ID
}

func (c *Customer) String() string {
	return fmt.Sprintf("%s (id: %d)", c.Name, c.ID)
}
