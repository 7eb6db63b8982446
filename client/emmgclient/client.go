// Package emmgclient drives one TCP association with an EMMG/PDG, per
// the client state machine of spec section 4.8, with the EMM/data flow's
// extra UDP data_provision path.
package emmgclient

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/headend/simulcrypt/client"
	"github.com/headend/simulcrypt/internal/xlog"
	"github.com/headend/simulcrypt/tlv"
	"github.com/headend/simulcrypt/tlv/emmg"
	"github.com/headend/simulcrypt/tlv/tlvconn"
)

// Config describes the channel and stream this Client sets up on Connect,
// and the optional UDP path for data_provision.
type Config struct {
	ClientID           uint32
	ChannelID          uint16
	StreamID           uint16
	DataID             uint16
	DataType           uint8
	SectionTSpktFlag   bool
	AutoErrorResponse  bool
	MaxInvalidMessages int

	// UDPConn, if non-nil, routes DataProvision over this PacketConn to
	// UDPAddr instead of the TCP association. The TCP association is still
	// required to be CONNECTED for every send, per spec section 4.8.
	UDPConn net.PacketConn
	UDPAddr net.Addr

	// Packetizer turns a section into the wire blocks DataProvision
	// carries, applied only when SectionTSpktFlag requests TS-packet
	// mode. The default is a pass-through (section bytes unmodified).
	Packetizer client.Packetizer

	Logger *xlog.Logger
}

var ErrRequestInFlight = fmt.Errorf("emmgclient: a request is already in flight")

type response struct {
	msg tlv.Message
	err error
}

type pendingSlot struct {
	ch chan response
}

// Client is one EMMG/PDG<=>MUX session.
type Client struct {
	cfg  Config
	log  *xlog.Logger
	conn *tlvconn.Conn

	mu            sync.Mutex
	state         client.State
	channelStatus *emmg.ChannelStatus
	streamStatus  *emmg.StreamStatus
	lastError     tlv.Message
	lastBandwidth *emmg.StreamBWAllocation

	pendingMu sync.Mutex
	pending   *pendingSlot

	channelCache client.ChannelCache
	streamCache  client.StreamCache

	recvDone chan struct{}
}

// New constructs a Client in state INITIAL.
func New(cfg Config) *Client {
	if cfg.Logger == nil {
		cfg.Logger = xlog.Discard()
	}
	if cfg.Packetizer == nil {
		cfg.Packetizer = client.PassthroughPacketizer{}
	}
	return &Client{cfg: cfg, log: cfg.Logger, state: client.Initial}
}

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

// LastErrorResponse returns the last channel_error/stream_error received.
func (c *Client) LastErrorResponse() tlv.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastError
}

// AllocatedBandwidth returns the last stream_BW_allocation received, or
// nil if none has arrived yet.
func (c *Client) AllocatedBandwidth() *emmg.StreamBWAllocation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastBandwidth
}

// Connect wraps nc, spawns the receiver goroutine, and runs the
// channel_setup/stream_setup handshake.
func (c *Client) Connect(ctx context.Context, nc net.Conn) error {
	if s := c.State(); s != client.Initial && s != client.Disconnected {
		return client.ErrWrongState
	}
	c.conn = tlvconn.New(nc, emmg.NewProtocol(), c.cfg.AutoErrorResponse, c.cfg.MaxInvalidMessages)
	c.setState(client.Connecting)
	c.recvDone = make(chan struct{})
	go c.receiveLoop(ctx)

	setup := &emmg.ChannelSetup{
		ChannelHeader:    tlv.ChannelHeader{ChannelID: c.cfg.ChannelID},
		ClientID:         c.cfg.ClientID,
		SectionTSpktFlag: c.cfg.SectionTSpktFlag,
	}
	resp, err := c.sendRequest(ctx, setup)
	if err != nil {
		c.setState(client.Disconnected)
		return fmt.Errorf("emmgclient: channel_setup: %w", err)
	}
	if _, ok := resp.(*emmg.ChannelStatus); !ok {
		c.setState(client.Disconnected)
		return fmt.Errorf("emmgclient: unexpected reply to channel_setup: %T", resp)
	}

	ss := &emmg.StreamSetup{
		StreamHeader: tlv.StreamHeader{
			ChannelHeader: tlv.ChannelHeader{ChannelID: c.cfg.ChannelID},
			StreamID:      c.cfg.StreamID,
		},
		ClientID: c.cfg.ClientID,
		DataID:   c.cfg.DataID,
		DataType: c.cfg.DataType,
	}
	resp, err = c.sendRequest(ctx, ss)
	if err != nil {
		c.setState(client.Disconnected)
		return fmt.Errorf("emmgclient: stream_setup: %w", err)
	}
	if _, ok := resp.(*emmg.StreamStatus); !ok {
		c.setState(client.Disconnected)
		return fmt.Errorf("emmgclient: unexpected reply to stream_setup: %T", resp)
	}

	c.setState(client.Connected)
	return nil
}

// Disconnect runs stream_close_request then channel_close.
func (c *Client) Disconnect(ctx context.Context) error {
	if c.State() != client.Connected {
		return client.ErrWrongState
	}
	c.setState(client.Disconnecting)

	req := &emmg.StreamCloseRequest{
		StreamHeader: tlv.StreamHeader{
			ChannelHeader: tlv.ChannelHeader{ChannelID: c.cfg.ChannelID},
			StreamID:      c.cfg.StreamID,
		},
		ClientID: c.cfg.ClientID,
	}
	if _, err := c.sendRequest(ctx, req); err != nil {
		c.setState(client.Disconnected)
		return err
	}

	chanClose := &emmg.ChannelClose{ChannelHeader: tlv.ChannelHeader{ChannelID: c.cfg.ChannelID}, ClientID: c.cfg.ClientID}
	if err := c.conn.Send(chanClose); err != nil {
		c.setState(client.Disconnected)
		return err
	}

	c.setState(client.Disconnected)
	return nil
}

// Close tears the connection down and waits for the receiver to exit.
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

// RequestBandwidth issues a stream_BW_request and waits for the
// resulting stream_BW_allocation.
func (c *Client) RequestBandwidth(ctx context.Context, bandwidth int16) (*emmg.StreamBWAllocation, error) {
	if c.State() != client.Connected {
		return nil, client.ErrNotConnected
	}
	req := &emmg.StreamBWRequest{
		StreamHeader: tlv.StreamHeader{
			ChannelHeader: tlv.ChannelHeader{ChannelID: c.cfg.ChannelID},
			StreamID:      c.cfg.StreamID,
		},
		ClientID:     c.cfg.ClientID,
		HasBandwidth: true,
		Bandwidth:    bandwidth,
	}
	resp, err := c.sendRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	alloc, ok := resp.(*emmg.StreamBWAllocation)
	if !ok {
		return nil, fmt.Errorf("emmgclient: unexpected reply to stream_BW_request: %T", resp)
	}
	return alloc, nil
}

// DataProvision ships one or more sections. In TS-packet mode each
// section is first expanded by the configured Packetizer. When UDPConn
// is configured the datagram is sent there instead of over TCP, but the
// TCP association must still be CONNECTED (spec section 4.8).
func (c *Client) DataProvision(ctx context.Context, sections [][]byte) error {
	if c.State() != client.Connected {
		return client.ErrNotConnected
	}

	var datagrams [][]byte
	if c.cfg.SectionTSpktFlag {
		for _, sec := range sections {
			datagrams = append(datagrams, c.cfg.Packetizer.Packetize(sec)...)
		}
	} else {
		datagrams = sections
	}

	if c.cfg.UDPConn != nil {
		msg := &emmg.DataProvision{
			StreamHeader: tlv.StreamHeader{
				ChannelHeader: tlv.ChannelHeader{ChannelID: emmg.UnboundID},
				StreamID:      emmg.UnboundID,
			},
			ClientID: c.cfg.ClientID,
			DataID:   c.cfg.DataID,
			Datagram: datagrams,
		}
		s := tlv.NewSerializer()
		tlv.Serialize(emmg.NewProtocol(), msg, s)
		_, err := c.cfg.UDPConn.WriteTo(s.Bytes(), c.cfg.UDPAddr)
		return err
	}

	msg := &emmg.DataProvision{
		StreamHeader: tlv.StreamHeader{
			ChannelHeader: tlv.ChannelHeader{ChannelID: c.cfg.ChannelID},
			StreamID:      c.cfg.StreamID,
		},
		ClientID: c.cfg.ClientID,
		DataID:   c.cfg.DataID,
		Datagram: datagrams,
	}
	return c.conn.Send(msg)
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
		c.log.Warn(fmt.Sprintf("emmgclient: unsolicited %T, no pending request", msg))
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
	case *emmg.ChannelStatus:
		c.mu.Lock()
		c.channelStatus = m
		c.mu.Unlock()
		status := m
		c.channelCache.Set(func() interface{} { return status })
		c.completePending(m, nil)
	case *emmg.StreamStatus:
		c.mu.Lock()
		c.streamStatus = m
		c.mu.Unlock()
		status := m
		c.streamCache.Set(m.StreamID, func() interface{} { return status })
		c.completePending(m, nil)
	case *emmg.ChannelTest:
		c.replyChannelTest(m)
	case *emmg.StreamTest:
		c.replyStreamTest(m)
	case *emmg.StreamBWAllocation:
		c.mu.Lock()
		c.lastBandwidth = m
		c.mu.Unlock()
		c.completePending(m, nil)
	case *emmg.StreamCloseResponse:
		c.completePending(m, nil)
	case *emmg.ChannelError:
		c.mu.Lock()
		c.lastError = m
		c.mu.Unlock()
		c.completePending(m, fmt.Errorf("emmgclient: channel_error %v", m.ErrorStatus))
	case *emmg.StreamError:
		c.mu.Lock()
		c.lastError = m
		c.mu.Unlock()
		c.completePending(m, fmt.Errorf("emmgclient: stream_error %v", m.ErrorStatus))
	default:
		c.log.Warn(fmt.Sprintf("emmgclient: unexpected message type %T", msg))
	}
}

func (c *Client) replyChannelTest(m *emmg.ChannelTest) {
	cached := c.channelCache.Get()
	status, ok := cached.(*emmg.ChannelStatus)
	if !ok {
		return
	}
	if err := c.conn.Send(status); err != nil {
		c.log.Warn(fmt.Sprintf("emmgclient: channel_test auto-reply: %v", err))
	}
}

func (c *Client) replyStreamTest(m *emmg.StreamTest) {
	cached := c.streamCache.Get(m.StreamID)
	status, ok := cached.(*emmg.StreamStatus)
	if !ok {
		return
	}
	if err := c.conn.Send(status); err != nil {
		c.log.Warn(fmt.Sprintf("emmgclient: stream_test auto-reply: %v", err))
	}
}
