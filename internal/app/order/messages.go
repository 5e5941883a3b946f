package order

import "fmt"

const (
	MsgWelcome      = "welcome to the virtual café ☕\n"
	MsgAskName      = "please enter your name to begin:"
	MsgEmptyName    = "✗ name cannot be empty"
	MsgCollectFirst = "✗ please collect your completed order before placing a new one"
	MsgInvalidOrder = "✗ invalid order format"
	MsgInvalid      = "✗ invalid command"
	MsgExit         = "exit"
)

func greeting(name string) string {
	return fmt.Sprintf("\nhello %s! you can\n"+
		"- place an order (e.g., 'order 2 teas and 1 coffee')\n"+
		"- check status ('order status')\n"+
		"- collect your order ('collect')\n"+
		"- leave the café ('exit')", name)
}
