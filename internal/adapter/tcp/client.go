package tcp

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/YelzhanWeb/cafe/internal/app/order"
)

// Client is the terminal front end for one customer.
type Client struct {
	Addr string
	In   io.Reader
	Out  io.Writer
	Err  io.Writer
}

// Run connects, prints every server line as it arrives and forwards input lines.
// The first input line is the customer's name. Cancelling ctx sends "exit" so
// the café can hand the customer's drinks to others.
func (c *Client) Run(ctx context.Context) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", c.Addr)
	if err != nil {
		return fmt.Errorf("failed to connect to café at %s: %w", c.Addr, err)
	}
	defer conn.Close()

	var name string
	serverDone := make(chan struct{})
	go func() {
		defer close(serverDone)
		sc := bufio.NewScanner(conn)
		for sc.Scan() {
			line := sc.Text()
			if line == order.MsgExit {
				return
			}
			fmt.Fprintln(c.Out, line)
		}
		if ctx.Err() == nil {
			fmt.Fprintln(c.Err, "error: lost connection to café server")
		}
	}()

	inputs := make(chan string)
	go func() {
		defer close(inputs)
		sc := bufio.NewScanner(c.In)
		for sc.Scan() {
			select {
			case inputs <- sc.Text():
			case <-serverDone:
				return
			}
		}
	}()

	send := func(line string) error {
		_, err := io.WriteString(conn, line+"\n")
		return err
	}

	first := true
	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(c.Out, "\nreceived interrupt signal - exiting café...")
			send(order.MsgExit)
			c.waitForServer(serverDone)
			c.goodbye(name)
			return nil
		case <-serverDone:
			c.goodbye(name)
			return nil
		case line, ok := <-inputs:
			if !ok {
				send(order.MsgExit)
				c.waitForServer(serverDone)
				c.goodbye(name)
				return nil
			}
			if first {
				name = strings.TrimSpace(line)
				first = false
			}
			if err := send(line); err != nil {
				return fmt.Errorf("failed to send to café: %w", err)
			}
			if line == order.MsgExit {
				c.waitForServer(serverDone)
				c.goodbye(name)
				return nil
			}
		}
	}
}

func (c *Client) waitForServer(done <-chan struct{}) {
	select {
	case <-done:
	case <-time.After(time.Second):
	}
}

func (c *Client) goodbye(name string) {
	if name == "" {
		return
	}
	fmt.Fprintf(c.Out, "thank you for visiting our café %s! ☕\n", name)
}
