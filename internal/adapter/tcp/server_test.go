package tcp

import (
	"bufio"
	"bytes"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YelzhanWeb/cafe/internal/adapter/logger"
	"github.com/YelzhanWeb/cafe/internal/app/cafe"
)

func newTestServer(t *testing.T, opts ...func(*cafe.Config)) (*Server, *cafe.Engine) {
	t.Helper()
	cfg := cafe.Config{
		TeaCapacity:           1,
		CoffeeCapacity:        1,
		TeaWorkers:            1,
		CoffeeWorkers:         1,
		TeaBrewTime:           30 * time.Millisecond,
		CoffeeBrewTime:        30 * time.Millisecond,
		IdlePollInterval:      2 * time.Millisecond,
		DisconnectLockTimeout: 100 * time.Millisecond,
		AreaLockTimeout:       50 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	e := cafe.NewEngine(cfg, logger.Nop(), nil, nil)
	e.Start(context.Background())
	t.Cleanup(e.Stop)
	return NewServer(ServerConfig{DisconnectRetries: 1}, e, logger.Nop()), e
}

type pipeClient struct {
	t    *testing.T
	conn net.Conn
	r    *bufio.Reader
}

func dialPipe(t *testing.T, s *Server) *pipeClient {
	t.Helper()
	client, server := net.Pipe()
	go s.handleConn(server)
	t.Cleanup(func() { client.Close() })
	return &pipeClient{t: t, conn: client, r: bufio.NewReader(client)}
}

func (c *pipeClient) send(line string) {
	c.t.Helper()
	require.NoError(c.t, c.conn.SetWriteDeadline(time.Now().Add(time.Second)))
	_, err := c.conn.Write([]byte(line + "\n"))
	require.NoError(c.t, err)
}

func (c *pipeClient) expect(want string) {
	c.t.Helper()
	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	got, err := c.r.ReadString('\n')
	require.NoError(c.t, err)
	assert.Equal(c.t, want, strings.TrimSuffix(got, "\n"))
}

func (c *pipeClient) join(name string) {
	c.t.Helper()
	c.expect("welcome to the virtual café ☕")
	c.expect("")
	c.expect("please enter your name to begin:")
	c.send(name)
	c.expect("")
	c.expect("hello " + name + "! you can")
	c.expect("- place an order (e.g., 'order 2 teas and 1 coffee')")
	c.expect("- check status ('order status')")
	c.expect("- collect your order ('collect')")
	c.expect("- leave the café ('exit')")
}

func TestServer_SessionFlow(t *testing.T) {
	s, e := newTestServer(t)
	c := dialPipe(t, s)
	c.join("alice")

	c.send("order status")
	c.expect("✗ no order found for alice")
	c.send("collect")
	c.expect("✗ no order for alice to collect")
	c.send("order 1 teas")
	c.expect("✗ invalid order format")
	c.send("make me a latte")
	c.expect("✗ invalid command")

	c.send("order 1 tea")
	c.expect("✓ order received for alice: 1 tea")
	c.expect("order for alice (1 tea) completed. please collect by typing 'collect'!")

	c.send("order 1 coffee")
	c.expect("✗ please collect your completed order before placing a new one")
	c.send("collect")
	c.expect("✓ order collected for alice")

	c.send("exit")
	c.expect("exit")

	require.NoError(t, c.conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, err := c.r.ReadString('\n')
	assert.Error(t, err, "server closes the connection after exit")
	assert.Eventually(t, func() bool { return e.Snapshot().TotalCustomers == 0 }, time.Second, 5*time.Millisecond)
}

func TestServer_EmptyNameClosesConnection(t *testing.T) {
	s, e := newTestServer(t)
	c := dialPipe(t, s)

	c.expect("welcome to the virtual café ☕")
	c.expect("")
	c.expect("please enter your name to begin:")
	c.send("   ")
	c.expect("✗ name cannot be empty")

	require.NoError(t, c.conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, err := c.r.ReadString('\n')
	assert.Error(t, err)
	assert.Equal(t, 0, e.Snapshot().TotalCustomers)
}

func TestServer_DroppedConnectionRepurposesDrinks(t *testing.T) {
	s, e := newTestServer(t, func(cfg *cafe.Config) {
		cfg.CoffeeBrewTime = 300 * time.Millisecond
	})

	a := dialPipe(t, s)
	a.join("alice")
	a.send("order 1 coffee")
	a.expect("✓ order received for alice: 1 coffee")
	require.Eventually(t, func() bool { return e.Snapshot().Brewing.Coffees == 1 }, time.Second, 2*time.Millisecond)

	b := dialPipe(t, s)
	b.join("bob")
	b.send("order 1 coffee")
	b.expect("✓ order received for bob: 1 coffee")

	// alice hangs up without typing exit while her coffee is on the bench
	require.NoError(t, a.conn.Close())

	b.expect("1 coffee currently brewing for alice has been transferred to bob's order")
	b.expect("order for bob (1 coffee) completed. please collect by typing 'collect'!")
	b.send("collect")
	b.expect("✓ order collected for bob")

	assert.Eventually(t, func() bool {
		snap := e.Snapshot()
		return snap.TotalCustomers == 1 && snap.Brewing.IsZero() && snap.Waiting.IsZero()
	}, time.Second, 5*time.Millisecond)
}

func TestServer_ServeAndClient(t *testing.T) {
	s, _ := newTestServer(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() { served <- s.Serve(ctx, ln) }()

	var out, errOut bytes.Buffer
	client := &Client{
		Addr: ln.Addr().String(),
		In:   strings.NewReader("bob\norder status\nexit\n"),
		Out:  &out,
		Err:  &errOut,
	}
	require.NoError(t, client.Run(context.Background()))

	assert.Contains(t, out.String(), "please enter your name to begin:")
	assert.Contains(t, out.String(), "✗ no order found for bob")
	assert.True(t, strings.HasSuffix(out.String(), "thank you for visiting our café bob! ☕\n"))
	assert.Empty(t, errOut.String())

	cancel()
	select {
	case err := <-served:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}
