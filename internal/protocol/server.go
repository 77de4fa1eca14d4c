package protocol

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/zenGate-Global/cardano-tx-platform/internal/platformlog"
)

// Server accepts TCP connections and runs each one's frames through a
// Dispatcher, one goroutine per connection, bounded by a fixed connection
// limit so a burst of clients can't exhaust file descriptors.
type Server struct {
	Dispatcher *Dispatcher
	Log        *platformlog.Logger

	// MaxConnections is the number of connections served concurrently;
	// the (MaxConnections+1)'th concurrent dialer blocks until one frees
	// up. Zero means 1000, the same default the wire protocol's original
	// implementation used.
	MaxConnections int
}

// Serve accepts on ln until ctx is cancelled or ln.Accept fails terminally.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	limit := s.MaxConnections
	if limit <= 0 {
		limit = 1000
	}
	sem := make(chan struct{}, limit)

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	var backoff time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				if backoff == 0 {
					backoff = 5 * time.Millisecond
				} else {
					backoff *= 2
				}
				if backoff > time.Second {
					backoff = time.Second
				}
				time.Sleep(backoff)
				continue
			}
			return err
		}
		backoff = 0

		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			conn.Close()
			return nil
		}

		go func() {
			defer func() { <-sem }()
			s.handleConn(ctx, conn)
		}()
	}
}

// handleConn reads frames off one connection until it closes, dispatching
// each to completion before reading the next; the wire protocol has no
// request pipelining.
func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	peer := conn.RemoteAddr().String()
	c := NewConnection(conn)

	for {
		frame, err := c.ReadFrame()
		if err != nil {
			s.Log.Error(peer, err, "reading frame")
			return
		}
		if frame == nil {
			return
		}

		resp := s.Dispatcher.Dispatch(ctx, *frame)
		if err := c.WriteFrame(resp); err != nil {
			s.Log.Error(peer, err, "writing frame")
			return
		}
	}
}
