package protocol

import (
	"context"
	"fmt"
	"net"
	"time"
)

// CommandFrame assembles the outer array every opcode shares: the opcode
// string, the tenant id, and one bulk payload, matching what Dispatch's
// Cursor expects to read back off.
func CommandFrame(opcode string, tenantID int64, payload []byte) Frame {
	return Array(Simple(opcode), Integer(uint64(tenantID)), BulkBytes(payload))
}

// Client is a pooled TCP client to a dispatcher Server, the gateway's only
// way to reach L8. A new connection is dialed whenever no idle one is
// pooled, so the number of open connections is not capped; after a request
// succeeds the connection is kept for reuse if fewer than size are idle,
// and closed otherwise. A connection that errors is dropped rather than
// returned to the pool.
type Client struct {
	addr    string
	dial    func(ctx context.Context, addr string) (net.Conn, error)
	pool    chan *Connection
	timeout time.Duration
}

// NewClient builds a pool dialing addr, holding up to size idle connections.
func NewClient(addr string, size int, timeout time.Duration) *Client {
	if size <= 0 {
		size = 8
	}
	return &Client{
		addr: addr,
		dial: func(ctx context.Context, addr string) (net.Conn, error) {
			d := net.Dialer{}
			return d.DialContext(ctx, "tcp", addr)
		},
		pool:    make(chan *Connection, size),
		timeout: timeout,
	}
}

// Do sends one command frame and returns the dispatcher's response frame,
// translating a wire Error frame into a Go error so callers don't need to
// inspect Kind themselves.
func (c *Client) Do(ctx context.Context, frame Frame) (Frame, error) {
	conn, err := c.acquire(ctx)
	if err != nil {
		return Frame{}, fmt.Errorf("protocol: dialing dispatcher: %w", err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		conn.conn.SetDeadline(deadline)
	} else if c.timeout > 0 {
		conn.conn.SetDeadline(time.Now().Add(c.timeout))
	}

	if err := conn.WriteFrame(frame); err != nil {
		conn.Close()
		return Frame{}, fmt.Errorf("protocol: writing to dispatcher: %w", err)
	}
	resp, err := conn.ReadFrame()
	if err != nil {
		conn.Close()
		return Frame{}, fmt.Errorf("protocol: reading from dispatcher: %w", err)
	}
	if resp == nil {
		conn.Close()
		return Frame{}, fmt.Errorf("protocol: dispatcher closed the connection")
	}

	conn.conn.SetDeadline(time.Time{})
	c.release(conn)

	if resp.Kind == KindError {
		return Frame{}, fmt.Errorf("%s", resp.Str)
	}
	return *resp, nil
}

func (c *Client) acquire(ctx context.Context) (*Connection, error) {
	select {
	case conn := <-c.pool:
		return conn, nil
	default:
	}
	raw, err := c.dial(ctx, c.addr)
	if err != nil {
		return nil, err
	}
	return NewConnection(raw), nil
}

func (c *Client) release(conn *Connection) {
	select {
	case c.pool <- conn:
	default:
		conn.Close()
	}
}

// Close drains and closes every pooled connection.
func (c *Client) Close() {
	for {
		select {
		case conn := <-c.pool:
			conn.Close()
		default:
			return
		}
	}
}
