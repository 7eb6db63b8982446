// Package tlvconn frames tlv.Message values over a net.Conn: a length-
// prefixed send/receive loop with auto-error-response and an
// invalid-message threshold. Grounded on TSDuck's
// tstlvConnectionTemplate.h.
package tlvconn

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/headend/simulcrypt/tlv"
)

var (
	// ErrAborted is returned by Receive when its context is canceled
	// while a read is outstanding.
	ErrAborted = errors.New("tlvconn: receive aborted")
	// ErrTooManyInvalidMessages is returned once the invalid-message
	// counter reaches the configured threshold; the connection is closed
	// before this error is returned.
	ErrTooManyInvalidMessages = errors.New("tlvconn: too many invalid messages, connection closed")
	// ErrClosed is returned by Send/Receive after Close.
	ErrClosed = errors.New("tlvconn: connection closed")
)

// pollInterval bounds how long a Receive's internal read can block before
// it re-checks ctx, so cancellation is observed promptly without requiring
// the peer to send anything.
const pollInterval = 200 * time.Millisecond

// Conn frames tlv.Message values over an underlying net.Conn for one
// Protocol. Send and Receive may run concurrently from different
// goroutines; each guards its own half of the connection with its own
// mutex. Only one goroutine may sit inside Receive at a time.
type Conn struct {
	nc       net.Conn
	protocol *tlv.Protocol

	autoErrorResponse bool
	maxInvalidMsg     int

	sendMu sync.Mutex

	receiveMu        sync.Mutex
	invalidMsgCount  int
	closed           bool
	closeMu          sync.Mutex
}

// New wraps nc for framing against p. When autoErrorResponse is true, a
// structurally invalid incoming message gets the protocol's canonical
// error reply sent back automatically. The connection is closed once the
// count of consecutive invalid messages reaches maxInvalidMsg; 0 disables
// the threshold.
func New(nc net.Conn, p *tlv.Protocol, autoErrorResponse bool, maxInvalidMsg int) *Conn {
	return &Conn{nc: nc, protocol: p, autoErrorResponse: autoErrorResponse, maxInvalidMsg: maxInvalidMsg}
}

// Close closes the underlying connection. Safe to call more than once.
func (c *Conn) Close() error {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.nc.Close()
}

func (c *Conn) isClosed() bool {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	return c.closed
}

// Send serializes msg and writes it atomically with respect to other
// Send callers.
func (c *Conn) Send(msg tlv.Message) error {
	if c.isClosed() {
		return ErrClosed
	}
	s := tlv.NewSerializer()
	tlv.Serialize(c.protocol, msg, s)

	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	_, err := c.nc.Write(s.Bytes())
	return err
}

func (c *Conn) headerSize() int {
	if c.protocol.HasVersion() {
		return 5
	}
	return 4
}

func (c *Conn) lengthOffset() int {
	if c.protocol.HasVersion() {
		return 3
	}
	return 2
}

// Receive reads one complete frame, validates it against the protocol,
// and returns the concrete message. On structural validation failure it
// optionally auto-replies with the protocol's error response and retries
// until a valid message arrives, the invalid-message threshold is
// reached, or a transport/context error occurs. ctx is polled around each
// blocking read; canceling it unblocks a pending Receive with ErrAborted.
func (c *Conn) Receive(ctx context.Context) (tlv.Message, error) {
	if c.isClosed() {
		return nil, ErrClosed
	}

	c.receiveMu.Lock()
	defer c.receiveMu.Unlock()

	headerSize := c.headerSize()
	lengthOffset := c.lengthOffset()

	for {
		select {
		case <-ctx.Done():
			return nil, ErrAborted
		default:
		}

		header := make([]byte, headerSize)
		if err := c.readFull(ctx, header); err != nil {
			return nil, err
		}
		length := binary.BigEndian.Uint16(header[lengthOffset : lengthOffset+2])

		buf := make([]byte, headerSize+int(length))
		copy(buf, header)
		if length > 0 {
			if err := c.readFull(ctx, buf[headerSize:]); err != nil {
				return nil, err
			}
		}

		f := tlv.NewMessageFactory(buf, c.protocol)
		if f.Err() == nil {
			c.invalidMsgCount = 0
			msg, err := f.BuildMessage()
			if err != nil {
				return nil, err
			}
			return msg, nil
		}

		c.invalidMsgCount++

		if c.autoErrorResponse {
			if resp := f.BuildErrorResponse(); resp != nil {
				if err := c.Send(resp); err != nil {
					return nil, err
				}
			}
		}

		if c.maxInvalidMsg > 0 && c.invalidMsgCount >= c.maxInvalidMsg {
			c.Close()
			return nil, ErrTooManyInvalidMessages
		}
	}
}

// readFull fills buf completely, polling ctx between short read
// deadlines so cancellation is observed without a peer write.
func (c *Conn) readFull(ctx context.Context, buf []byte) error {
	read := 0
	for read < len(buf) {
		select {
		case <-ctx.Done():
			return ErrAborted
		default:
		}
		if err := c.nc.SetReadDeadline(time.Now().Add(pollInterval)); err != nil {
			return err
		}
		n, err := c.nc.Read(buf[read:])
		read += n
		if err != nil {
			if isTimeout(err) {
				continue
			}
			if errors.Is(err, io.EOF) {
				return io.ErrUnexpectedEOF
			}
			return err
		}
	}
	return nil
}

func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	if nerr, ok := err.(net.Error); ok {
		return nerr.Timeout()
	}
	return false
}
