package domain

import "fmt"

const (
	LocationBrewing = "currently brewing"
	LocationTray    = "in tray"

	DestinationOrder = "order"
	DestinationTray  = "tray"
)

// Repurposal describes one item handed from a leaving customer to a waiting one.
type Repurposal struct {
	Kind         Kind
	From         *Customer
	FromLocation string
	To           *Customer
	ToLocation   string
}

// Message renders the customer-facing transfer line.
func (r Repurposal) Message() string {
	return fmt.Sprintf("1 %s %s for %s has been transferred to %s's %s",
		r.Kind, r.FromLocation, r.From.Name, r.To.Name, r.ToLocation)
}

// CompletionMessage renders the customer-facing ready line for an order.
func CompletionMessage(o *Order) string {
	return fmt.Sprintf("order for %s (%s) completed. please collect by typing 'collect'!",
		o.Customer().Name, o.Counts())
}
