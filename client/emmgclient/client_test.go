package emmgclient

import (
	"context"
	"net"
	"testing"
	"time"

	clientpkg "github.com/headend/simulcrypt/client"
	"github.com/headend/simulcrypt/tlv"
	"github.com/headend/simulcrypt/tlv/emmg"
	"github.com/headend/simulcrypt/tlv/tlvconn"
)

func fakeMux(conn *tlvconn.Conn) {
	ctx := context.Background()
	for {
		msg, err := conn.Receive(ctx)
		if err != nil {
			return
		}
		switch m := msg.(type) {
		case *emmg.ChannelSetup:
			conn.Send(&emmg.ChannelStatus{
				ChannelHeader:    tlv.ChannelHeader{ChannelID: m.ChannelID},
				ClientID:         m.ClientID,
				SectionTSpktFlag: m.SectionTSpktFlag,
			})
		case *emmg.StreamSetup:
			conn.Send(&emmg.StreamStatus{
				StreamHeader: tlv.StreamHeader{ChannelHeader: tlv.ChannelHeader{ChannelID: m.ChannelID}, StreamID: m.StreamID},
				ClientID:     m.ClientID,
				DataID:       m.DataID,
				DataType:     m.DataType,
			})
		case *emmg.StreamBWRequest:
			conn.Send(&emmg.StreamBWAllocation{
				StreamHeader: m.StreamHeader,
				ClientID:     m.ClientID,
				HasBandwidth: true,
				Bandwidth:    200,
			})
		case *emmg.StreamCloseRequest:
			conn.Send(&emmg.StreamCloseResponse{StreamHeader: m.StreamHeader, ClientID: m.ClientID})
		default:
		}
	}
}

func TestConnectAndBandwidthRoundTrip(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	serverConn := tlvconn.New(b, emmg.NewProtocol(), false, 0)
	go fakeMux(serverConn)

	c := New(Config{ClientID: 0x98765432, ChannelID: 0x1234, StreamID: 0x5678, DataID: 1, DataType: uint8(emmg.DataTypeEMM)})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := c.Connect(ctx, a); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if c.State() != clientpkg.Connected {
		t.Fatalf("got state %v, want Connected", c.State())
	}

	alloc, err := c.RequestBandwidth(ctx, 200)
	if err != nil {
		t.Fatalf("RequestBandwidth: %v", err)
	}
	if alloc.Bandwidth != 200 {
		t.Fatalf("got bandwidth %d, want 200", alloc.Bandwidth)
	}

	if err := c.DataProvision(ctx, [][]byte{{0xAA, 0xBB}}); err != nil {
		t.Fatalf("DataProvision: %v", err)
	}

	if err := c.Disconnect(ctx); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}
	c.Close()
}

func TestDataProvisionRequiresConnected(t *testing.T) {
	c := New(Config{})
	err := c.DataProvision(context.Background(), [][]byte{{0x01}})
	if err != clientpkg.ErrNotConnected {
		t.Fatalf("got %v, want ErrNotConnected", err)
	}
}
