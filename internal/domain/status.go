package domain

import (
	"fmt"
	"strings"
)

// Kind is the drink an item is brewed as.
type Kind int

const (
	Tea Kind = iota
	Coffee
)

// Kinds lists every drink kind in a stable order.
var Kinds = []Kind{Tea, Coffee}

func (k Kind) String() string {
	switch k {
	case Tea:
		return "tea"
	case Coffee:
		return "coffee"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind accepts the singular or plural drink name.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tea", "teas":
		return Tea, nil
	case "coffee", "coffees":
		return Coffee, nil
	}
	return 0, fmt.Errorf("unknown drink %q", s)
}

// ItemStatus is the lifecycle stage of an item. It only moves forward.
type ItemStatus int

const (
	StatusWaiting ItemStatus = iota
	StatusBrewing
	StatusTray
)

func (s ItemStatus) String() string {
	switch s {
	case StatusWaiting:
		return "waiting"
	case StatusBrewing:
		return "brewing"
	case StatusTray:
		return "tray"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// DrinkCount is a tea/coffee tally.
type DrinkCount struct {
	Teas    int `json:"teas"`
	Coffees int `json:"coffees"`
}

// Add adjusts the tally for one kind by delta.
func (c *DrinkCount) Add(kind Kind, delta int) {
	if kind == Tea {
		c.Teas += delta
		return
	}
	c.Coffees += delta
}

// Of returns the count for a single kind.
func (c DrinkCount) Of(kind Kind) int {
	if kind == Tea {
		return c.Teas
	}
	return c.Coffees
}

func (c DrinkCount) Total() int { return c.Teas + c.Coffees }

func (c DrinkCount) IsZero() bool { return c.Teas == 0 && c.Coffees == 0 }

// String renders the tally the way customers read it: "2 teas and 1 coffee".
func (c DrinkCount) String() string {
	if c.IsZero() {
		return "no items"
	}
	var parts []string
	if c.Teas > 0 {
		parts = append(parts, plural(c.Teas, "tea"))
	}
	if c.Coffees > 0 {
		parts = append(parts, plural(c.Coffees, "coffee"))
	}
	return strings.Join(parts, " and ")
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

// Snapshot is the aggregate state handed to the activity logger.
type Snapshot struct {
	TotalCustomers   int        `json:"totalCustomers"`
	WaitingCustomers int        `json:"waitingCustomers"`
	Waiting          DrinkCount `json:"waitingArea"`
	Brewing          DrinkCount `json:"brewingArea"`
	Tray             DrinkCount `json:"trayArea"`
}
