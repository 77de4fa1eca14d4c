package protocol

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"net"
)

// readChunk is how much a Connection pulls off the socket per underfull
// read; buffer starts at 64 KiB, matching the largest unsigned-tx bulk
// frames this protocol carries without needing to grow often.
const readChunk = 4096

// Connection wraps one dispatcher socket with the buffering a frame-at-a-
// time protocol needs: bytes accumulate until Check reports a complete
// frame is present, at which point it is parsed and sliced off the front.
type Connection struct {
	conn   net.Conn
	reader *bufio.Reader
	buf    bytes.Buffer
}

// NewConnection wraps an accepted TCP connection.
func NewConnection(conn net.Conn) *Connection {
	return &Connection{
		conn:   conn,
		reader: bufio.NewReaderSize(conn, 64*1024),
	}
}

// ReadFrame blocks until one complete frame is available, the peer closes
// the connection cleanly (returns nil, nil), or an error occurs.
func (c *Connection) ReadFrame() (*Frame, error) {
	for {
		frame, ok, err := c.tryParse()
		if err != nil {
			return nil, err
		}
		if ok {
			return frame, nil
		}

		chunk := make([]byte, readChunk)
		n, err := c.reader.Read(chunk)
		if n > 0 {
			c.buf.Write(chunk[:n])
		}
		if err != nil {
			if err == io.EOF {
				if c.buf.Len() == 0 {
					return nil, nil
				}
				return nil, fmt.Errorf("protocol: connection reset with a partial frame buffered")
			}
			return nil, err
		}
	}
}

// tryParse attempts to peel one frame off the front of the buffer without
// blocking, reporting ok=false if more bytes are needed.
func (c *Connection) tryParse() (*Frame, bool, error) {
	if c.buf.Len() == 0 {
		return nil, false, nil
	}
	cursor := bytes.NewReader(c.buf.Bytes())
	if err := Check(cursor); err != nil {
		if err == ErrIncomplete {
			return nil, false, nil
		}
		return nil, false, err
	}
	consumed := int(cursor.Size()) - cursor.Len()

	frameCursor := bytes.NewReader(c.buf.Bytes()[:consumed])
	frame, err := Parse(frameCursor)
	if err != nil {
		return nil, false, err
	}
	c.buf.Next(consumed)
	return &frame, true, nil
}

// WriteFrame serializes and flushes frame to the peer.
func (c *Connection) WriteFrame(frame Frame) error {
	_, err := c.conn.Write(Encode(frame))
	return err
}

// Close closes the underlying socket.
func (c *Connection) Close() error {
	return c.conn.Close()
}
