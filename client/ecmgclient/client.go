// Package ecmgclient drives one TCP association with an ECMG, per the
// client state machine of spec section 4.8. Synchronous request/response
// is implemented as message passing between application goroutines and a
// single receiver goroutine, per the redesign note in spec section 9,
// rather than the recursive-mutex-plus-condition-variable the original
// TSDuck client uses.
package ecmgclient

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/headend/simulcrypt/client"
	"github.com/headend/simulcrypt/internal/xlog"
	"github.com/headend/simulcrypt/tlv"
	"github.com/headend/simulcrypt/tlv/ecmg"
	"github.com/headend/simulcrypt/tlv/tlvconn"
)

// Config describes the channel and stream this Client sets up on Connect.
type Config struct {
	SuperCASID          uint32
	ChannelID           uint16
	StreamID            uint16
	ECMID               uint16
	NominalCPDuration   uint16
	AutoErrorResponse   bool
	MaxInvalidMessages  int
	Logger              *xlog.Logger
}

// ErrRequestInFlight is returned when a second synchronous request is
// attempted while one is already outstanding; the client has only one
// response slot at a time.
var ErrRequestInFlight = fmt.Errorf("ecmgclient: a request is already in flight")

type response struct {
	msg tlv.Message
	err error
}

type pendingSlot struct {
	ch chan response
}

// Client is one ECMG<=>SCS session.
type Client struct {
	cfg  Config
	log  *xlog.Logger
	conn *tlvconn.Conn

	mu            sync.Mutex
	state         client.State
	channelStatus *ecmg.ChannelStatus
	streamStatus  *ecmg.StreamStatus
	lastError     tlv.Message

	pendingMu sync.Mutex
	pending   *pendingSlot

	channelCache client.ChannelCache
	streamCache  client.StreamCache

	recvDone chan struct{}
}

// New constructs a Client in state INITIAL. Connect dials no socket of
// its own; it wraps the net.Conn the caller already established, which is
// the idiomatic-Go analogue of the table's "open TCP" action.
func New(cfg Config) *Client {
	if cfg.Logger == nil {
		cfg.Logger = xlog.Discard()
	}
	return &Client{cfg: cfg, log: cfg.Logger, state: client.Initial}
}

// State returns the client's current state.
func (c *Client) State() client.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Client) setState(s client.State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// LastErrorResponse returns the last channel_error/stream_error received,
// or nil if none has arrived yet.
func (c *Client) LastErrorResponse() tlv.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastError
}

// Connect wraps nc, spawns the receiver goroutine, and runs the
// channel_setup/stream_setup handshake of spec section 4.8's CONNECTING
// transitions. On any failure the client returns to DISCONNECTED and nc
// is left for the caller to close.
func (c *Client) Connect(ctx context.Context, nc net.Conn) error {
	if s := c.State(); s != client.Initial && s != client.Disconnected {
		return client.ErrWrongState
	}
	c.conn = tlvconn.New(nc, ecmg.NewProtocol(), c.cfg.AutoErrorResponse, c.cfg.MaxInvalidMessages)
	c.setState(client.Connecting)
	c.recvDone = make(chan struct{})
	go c.receiveLoop(ctx)

	setup := &ecmg.ChannelSetup{
		ChannelHeader: tlv.ChannelHeader{ChannelID: c.cfg.ChannelID},
		SuperCASID:    c.cfg.SuperCASID,
	}
	resp, err := c.sendRequest(ctx, setup)
	if err != nil {
		c.setState(client.Disconnected)
		return fmt.Errorf("ecmgclient: channel_setup: %w", err)
	}
	if _, ok := resp.(*ecmg.ChannelStatus); !ok {
		c.setState(client.Disconnected)
		return fmt.Errorf("ecmgclient: unexpected reply to channel_setup: %T", resp)
	}

	ss := &ecmg.StreamSetup{
		StreamHeader: tlv.StreamHeader{
			ChannelHeader: tlv.ChannelHeader{ChannelID: c.cfg.ChannelID},
			StreamID:      c.cfg.StreamID,
		},
		ECMID:             c.cfg.ECMID,
		NominalCPDuration: c.cfg.NominalCPDuration,
	}
	resp, err = c.sendRequest(ctx, ss)
	if err != nil {
		c.setState(client.Disconnected)
		return fmt.Errorf("ecmgclient: stream_setup: %w", err)
	}
	if _, ok := resp.(*ecmg.StreamStatus); !ok {
		c.setState(client.Disconnected)
		return fmt.Errorf("ecmgclient: unexpected reply to stream_setup: %T", resp)
	}

	c.setState(client.Connected)
	return nil
}

// Disconnect runs the DISCONNECTING sequence: stream_close_request then
// channel_close, waiting for stream_close_response.
func (c *Client) Disconnect(ctx context.Context) error {
	if c.State() != client.Connected {
		return client.ErrWrongState
	}
	c.setState(client.Disconnecting)

	req := &ecmg.StreamCloseRequest{StreamHeader: tlv.StreamHeader{
		ChannelHeader: tlv.ChannelHeader{ChannelID: c.cfg.ChannelID},
		StreamID:      c.cfg.StreamID,
	}}
	if _, err := c.sendRequest(ctx, req); err != nil {
		c.setState(client.Disconnected)
		return err
	}

	if err := c.conn.Send(&ecmg.ChannelClose{ChannelHeader: tlv.ChannelHeader{ChannelID: c.cfg.ChannelID}}); err != nil {
		c.setState(client.Disconnected)
		return err
	}

	c.setState(client.Disconnected)
	return nil
}

// Close tears the connection down unconditionally and waits for the
// receiver goroutine to exit (the DESTRUCTING transition).
func (c *Client) Close() error {
	c.setState(client.Destructing)
	var err error
	if c.conn != nil {
		err = c.conn.Close()
	}
	if c.recvDone != nil {
		<-c.recvDone
	}
	return err
}

// SetupStream brings up an additional stream on the already-CONNECTED
// channel, beyond the one Connect set up, for the multi-stream
// multiplexing spec section 4.8 describes.
func (c *Client) SetupStream(ctx context.Context, streamID, ecmID, nominalCPDuration uint16) (*ecmg.StreamStatus, error) {
	if c.State() != client.Connected {
		return nil, client.ErrNotConnected
	}
	ss := &ecmg.StreamSetup{
		StreamHeader: tlv.StreamHeader{
			ChannelHeader: tlv.ChannelHeader{ChannelID: c.cfg.ChannelID},
			StreamID:      streamID,
		},
		ECMID:             ecmID,
		NominalCPDuration: nominalCPDuration,
	}
	resp, err := c.sendRequest(ctx, ss)
	if err != nil {
		return nil, err
	}
	status, ok := resp.(*ecmg.StreamStatus)
	if !ok {
		return nil, fmt.Errorf("ecmgclient: unexpected reply to stream_setup: %T", resp)
	}
	return status, nil
}

// CloseStream closes one stream without tearing down the whole channel.
func (c *Client) CloseStream(ctx context.Context, streamID uint16) error {
	if c.State() != client.Connected {
		return client.ErrNotConnected
	}
	req := &ecmg.StreamCloseRequest{StreamHeader: tlv.StreamHeader{
		ChannelHeader: tlv.ChannelHeader{ChannelID: c.cfg.ChannelID},
		StreamID:      streamID,
	}}
	_, err := c.sendRequest(ctx, req)
	c.streamCache.Delete(streamID)
	return err
}

// SendCWProvision issues a CW_provision request and waits for its
// ECM_response (or *_error). CPNumber is left to the caller, who is
// expected to drive it from a monotonically increasing, 16-bit wrapping
// counter per spec section 4.8.
func (c *Client) SendCWProvision(ctx context.Context, cw *ecmg.CWProvision) (*ecmg.ECMResponse, error) {
	if c.State() != client.Connected {
		return nil, client.ErrNotConnected
	}
	resp, err := c.sendRequest(ctx, cw)
	if err != nil {
		return nil, err
	}
	ecmResp, ok := resp.(*ecmg.ECMResponse)
	if !ok {
		return nil, fmt.Errorf("ecmgclient: unexpected reply to CW_provision: %T", resp)
	}
	return ecmResp, nil
}

func (c *Client) sendRequest(ctx context.Context, msg tlv.Message) (tlv.Message, error) {
	respCh := make(chan response, 1)

	c.pendingMu.Lock()
	if c.pending != nil {
		c.pendingMu.Unlock()
		return nil, ErrRequestInFlight
	}
	c.pending = &pendingSlot{ch: respCh}
	c.pendingMu.Unlock()

	if err := c.conn.Send(msg); err != nil {
		c.clearPending()
		return nil, err
	}

	select {
	case r := <-respCh:
		return r.msg, r.err
	case <-time.After(client.ResponseTimeout):
		c.clearPending()
		return nil, client.ErrTimeout
	case <-ctx.Done():
		c.clearPending()
		return nil, ctx.Err()
	}
}

func (c *Client) clearPending() {
	c.pendingMu.Lock()
	c.pending = nil
	c.pendingMu.Unlock()
}

func (c *Client) completePending(msg tlv.Message, err error) {
	c.pendingMu.Lock()
	p := c.pending
	c.pending = nil
	c.pendingMu.Unlock()
	if p == nil {
		c.log.Warn(fmt.Sprintf("ecmgclient: unsolicited %T, no pending request", msg))
		return
	}
	p.ch <- response{msg: msg, err: err}
}

func (c *Client) failPending(err error) {
	c.pendingMu.Lock()
	p := c.pending
	c.pending = nil
	c.pendingMu.Unlock()
	if p != nil {
		p.ch <- response{err: err}
	}
}

// receiveLoop is the client's single receiver goroutine: it owns every
// read off the wire and is the only writer of channelStatus/streamStatus/
// lastError.
func (c *Client) receiveLoop(ctx context.Context) {
	defer close(c.recvDone)
	for {
		msg, err := c.conn.Receive(ctx)
		if err != nil {
			if c.State() != client.Destructing {
				c.setState(client.Disconnected)
			}
			c.failPending(err)
			return
		}
		c.dispatch(msg)
	}
}

func (c *Client) dispatch(msg tlv.Message) {
	switch m := msg.(type) {
	case *ecmg.ChannelStatus:
		c.mu.Lock()
		c.channelStatus = m
		c.mu.Unlock()
		status := m
		c.channelCache.Set(func() interface{} { return status })
		c.completePending(m, nil)
	case *ecmg.StreamStatus:
		c.mu.Lock()
		c.streamStatus = m
		c.mu.Unlock()
		status := m
		c.streamCache.Set(m.StreamID, func() interface{} { return status })
		c.completePending(m, nil)
	case *ecmg.ChannelTest:
		c.replyChannelTest(m)
	case *ecmg.StreamTest:
		c.replyStreamTest(m)
	case *ecmg.ECMResponse:
		c.completePending(m, nil)
	case *ecmg.StreamCloseResponse:
		c.completePending(m, nil)
	case *ecmg.ChannelError:
		c.mu.Lock()
		c.lastError = m
		c.mu.Unlock()
		c.completePending(m, fmt.Errorf("ecmgclient: channel_error %v", m.ErrorStatus))
	case *ecmg.StreamError:
		c.mu.Lock()
		c.lastError = m
		c.mu.Unlock()
		c.completePending(m, fmt.Errorf("ecmgclient: stream_error %v", m.ErrorStatus))
	default:
		c.log.Warn(fmt.Sprintf("ecmgclient: unexpected message type %T", msg))
	}
}

// replyChannelTest auto-answers a server-initiated keep-alive with the
// cached channel_status, per testable property #6 of spec section 9.
func (c *Client) replyChannelTest(m *ecmg.ChannelTest) {
	cached := c.channelCache.Get()
	status, ok := cached.(*ecmg.ChannelStatus)
	if !ok {
		return
	}
	if err := c.conn.Send(status); err != nil {
		c.log.Warn(fmt.Sprintf("ecmgclient: channel_test auto-reply: %v", err))
	}
}

func (c *Client) replyStreamTest(m *ecmg.StreamTest) {
	cached := c.streamCache.Get(m.StreamID)
	status, ok := cached.(*ecmg.StreamStatus)
	if !ok {
		return
	}
	if err := c.conn.Send(status); err != nil {
		c.log.Warn(fmt.Sprintf("ecmgclient: stream_test auto-reply: %v", err))
	}
}

// NextCPNumber advances cur by one, wrapping at 16 bits, per spec section
// 4.8's per-stream CP state.
func NextCPNumber(cur uint16) uint16 {
	return cur + 1
}
