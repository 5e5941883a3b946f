package tcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line string
		want Command
	}{
		{"collect", Command{Kind: CommandCollect}},
		{"exit", Command{Kind: CommandExit}},
		{"order status", Command{Kind: CommandStatus}},
		{"order 1 tea", Command{Kind: CommandOrder, Teas: 1}},
		{"order 2 coffees", Command{Kind: CommandOrder, Coffees: 2}},
		{"order 2 teas and 1 coffee", Command{Kind: CommandOrder, Teas: 2, Coffees: 1}},
		{"order 1 coffee and 3 teas", Command{Kind: CommandOrder, Teas: 3, Coffees: 1}},
		{"order 1 tea and 1 tea", Command{Kind: CommandOrder, Teas: 2}},
		{"order   3   teas   and   2   coffees", Command{Kind: CommandOrder, Teas: 3, Coffees: 2}},

		// grammar and quantity failures parse as an empty order
		{"order 1 teas", Command{Kind: CommandOrder}},
		{"order 2 coffee", Command{Kind: CommandOrder}},
		{"order 0 teas", Command{Kind: CommandOrder}},
		{"order 2 teas and 0 coffees", Command{Kind: CommandOrder}},
		{"order 99999999999999999999 teas", Command{Kind: CommandOrder}},

		{"", Command{Kind: CommandInvalid}},
		{"Collect", Command{Kind: CommandInvalid}},
		{" exit", Command{Kind: CommandInvalid}},
		{"order", Command{Kind: CommandInvalid}},
		{"order two teas", Command{Kind: CommandInvalid}},
		{"order 2 lattes", Command{Kind: CommandInvalid}},
		{"order 1 tea and", Command{Kind: CommandInvalid}},
		{"order 1 tea, 1 coffee", Command{Kind: CommandInvalid}},
		{"order -1 tea", Command{Kind: CommandInvalid}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got := ParseCommand(tt.line)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCommand_Valid(t *testing.T) {
	assert.True(t, Command{Kind: CommandOrder, Teas: 1}.Valid())
	assert.False(t, Command{Kind: CommandOrder}.Valid())
	assert.True(t, Command{Kind: CommandCollect}.Valid())
}
