package tcp

import (
	"regexp"
	"strconv"

	"github.com/YelzhanWeb/cafe/internal/domain"
)

type CommandKind int

const (
	CommandInvalid CommandKind = iota
	CommandOrder
	CommandStatus
	CommandCollect
	CommandExit
)

// Command is one parsed customer line. Teas and Coffees are only set for CommandOrder.
type Command struct {
	Kind    CommandKind
	Teas    int
	Coffees int
}

// orderPattern accepts "order N item" optionally followed by "and M item".
var orderPattern = regexp.MustCompile(`^order\s+(\d+)\s+(tea|coffee)(s)?(?:\s+and\s+(\d+)\s+(tea|coffee)(s)?)?$`)

// ParseCommand recognises the line protocol. Orders whose quantities are zero or whose
// plural does not agree with the quantity ("1 teas", "2 coffee") come back as
// CommandOrder with both counts zero so the caller can report a bad order format.
func ParseCommand(line string) Command {
	switch line {
	case "collect":
		return Command{Kind: CommandCollect}
	case "exit":
		return Command{Kind: CommandExit}
	case "order status":
		return Command{Kind: CommandStatus}
	}

	m := orderPattern.FindStringSubmatch(line)
	if m == nil {
		return Command{Kind: CommandInvalid}
	}

	cmd := Command{Kind: CommandOrder}
	parts := [][3]string{{m[1], m[2], m[3]}}
	if m[4] != "" {
		parts = append(parts, [3]string{m[4], m[5], m[6]})
	}
	for _, p := range parts {
		n, err := strconv.Atoi(p[0])
		plural := p[2] != ""
		if err != nil || n <= 0 || (n == 1) == plural {
			return Command{Kind: CommandOrder}
		}
		kind, err := domain.ParseKind(p[1])
		if err != nil {
			return Command{Kind: CommandInvalid}
		}
		switch kind {
		case domain.Tea:
			cmd.Teas += n
		case domain.Coffee:
			cmd.Coffees += n
		}
	}
	return cmd
}

// Valid reports whether an order command carries at least one drink.
func (c Command) Valid() bool {
	return c.Kind != CommandOrder || c.Teas > 0 || c.Coffees > 0
}
