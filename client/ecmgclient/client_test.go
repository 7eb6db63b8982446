package ecmgclient

import (
	"context"
	"net"
	"testing"
	"time"

	clientpkg "github.com/headend/simulcrypt/client"
	"github.com/headend/simulcrypt/tlv"
	"github.com/headend/simulcrypt/tlv/ecmg"
	"github.com/headend/simulcrypt/tlv/tlvconn"
)

// fakeServer answers a single ECMG session the way a conformant ECMG
// would for the handshake, each CW_provision/ECM_response round trip and
// the stream_close exchange; other messages are ignored.
func fakeServer(t *testing.T, conn *tlvconn.Conn, channelID, streamID uint16, done chan<- struct{}) {
	ctx := context.Background()
	for {
		msg, err := conn.Receive(ctx)
		if err != nil {
			return
		}
		switch m := msg.(type) {
		case *ecmg.ChannelSetup:
			conn.Send(&ecmg.ChannelStatus{
				ChannelHeader: tlv.ChannelHeader{ChannelID: m.ChannelID},
				ECMRepPeriod:  100,
				MaxStreams:    10,
				MinCPDuration: 100,
				LeadCW:        1,
				CWPerMsg:      2,
				MaxCompTime:   100,
			})
		case *ecmg.StreamSetup:
			conn.Send(&ecmg.StreamStatus{
				StreamHeader: tlv.StreamHeader{ChannelHeader: tlv.ChannelHeader{ChannelID: m.ChannelID}, StreamID: m.StreamID},
				ECMID:        m.ECMID,
			})
		case *ecmg.CWProvision:
			conn.Send(&ecmg.ECMResponse{
				StreamHeader: m.StreamHeader,
				CPNumber:     m.CPNumber,
				ECMDatagram:  []byte{0xDE, 0xAD, 0xBE, 0xEF},
			})
		case *ecmg.StreamCloseRequest:
			conn.Send(&ecmg.StreamCloseResponse{StreamHeader: m.StreamHeader})
		default:
		}
	}
}

func TestConnectAndCWProvisionRoundTrip(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	serverConn := tlvconn.New(b, ecmg.NewProtocol(), false, 0)
	go fakeServer(t, serverConn, 5, 7, nil)

	c := New(Config{SuperCASID: 0x12345678, ChannelID: 5, StreamID: 7, ECMID: 1, NominalCPDuration: 1000})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := c.Connect(ctx, a); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if c.State() != clientpkg.Connected {
		t.Fatalf("got state %v, want Connected", c.State())
	}

	cw := &ecmg.CWProvision{
		StreamHeader: tlv.StreamHeader{ChannelHeader: tlv.ChannelHeader{ChannelID: 5}, StreamID: 7},
		CPNumber:     42,
		CPCWCombination: []ecmg.CPCWCombination{
			{CP: 42, CW: []byte{1, 2, 3, 4, 5, 6, 7, 8}},
		},
	}
	resp, err := c.SendCWProvision(ctx, cw)
	if err != nil {
		t.Fatalf("SendCWProvision: %v", err)
	}
	if resp.CPNumber != 42 {
		t.Fatalf("got CP_number %d, want 42", resp.CPNumber)
	}

	if err := c.Disconnect(ctx); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}
	if c.State() != clientpkg.Disconnected {
		t.Fatalf("got state %v, want Disconnected", c.State())
	}
	c.Close()
}

func TestNextCPNumberWraps(t *testing.T) {
	if got := NextCPNumber(0xFFFF); got != 0 {
		t.Fatalf("got %d, want wraparound to 0", got)
	}
}
