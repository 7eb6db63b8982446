package emmg

import (
	"bytes"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/headend/simulcrypt/tlv"
)

func hexBytes(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(strings.Join(strings.Fields(s), ""))
	if err != nil {
		t.Fatalf("bad hex fixture: %v", err)
	}
	return b
}

// E2 — stream_BW_allocation round-trip.
func TestStreamBWAllocationRoundTrip(t *testing.T) {
	want := hexBytes(t, `03 01 18 00 1A
		00 03 00 02 12 34
		00 04 00 02 56 78
		00 01 00 04 98 76 54 32
		00 06 00 02 00 C8`)

	msg := &StreamBWAllocation{
		StreamHeader: tlv.StreamHeader{ChannelHeader: tlv.ChannelHeader{ChannelID: 0x1234}, StreamID: 0x5678},
		ClientID:     0x98765432,
		HasBandwidth: true,
		Bandwidth:    200,
	}

	p := NewProtocol()
	s := tlv.NewSerializer()
	tlv.Serialize(p, msg, s)
	got := s.Bytes()
	if !bytes.Equal(got, want) {
		t.Fatalf("serialize mismatch:\n got  %X\n want %X", got, want)
	}

	f := tlv.NewMessageFactory(got, p)
	if f.Err() != nil {
		t.Fatalf("unexpected validation error: %v", f.Err())
	}
	out, err := f.BuildMessage()
	if err != nil {
		t.Fatalf("BuildMessage: %v", err)
	}
	back, ok := out.(*StreamBWAllocation)
	if !ok {
		t.Fatalf("wrong type: %T", out)
	}
	if *back != *msg {
		t.Fatalf("round-trip mismatch:\n got  %+v\n want %+v", back, msg)
	}
}

// E4 — stream_error round-trip.
func TestStreamErrorRoundTrip(t *testing.T) {
	want := hexBytes(t, `03 01 16 00 26
		00 03 00 02 00 02
		00 04 00 02 00 03
		00 01 00 04 00 00 00 04
		70 00 00 02 00 0F
		70 00 00 02 00 14
		70 01 00 02 12 34`)

	msg := &StreamError{
		StreamHeader:     tlv.StreamHeader{ChannelHeader: tlv.ChannelHeader{ChannelID: 2}, StreamID: 3},
		ClientID:         4,
		ErrorStatus:      []uint16{0x000F, 0x0014},
		ErrorInformation: []uint16{0x1234},
	}

	p := NewProtocol()
	s := tlv.NewSerializer()
	tlv.Serialize(p, msg, s)
	got := s.Bytes()
	if !bytes.Equal(got, want) {
		t.Fatalf("serialize mismatch:\n got  %X\n want %X", got, want)
	}
}

// data_provision sent over UDP omits data_channel_id/data_stream_id; the
// decoded message must substitute UnboundID for both.
func TestDataProvisionUDPUnbound(t *testing.T) {
	p := NewProtocol()

	// Build data_provision manually: client_id, data_id, datagram — no
	// channel/stream id, as required over UDP.
	s2 := tlv.NewSerializer()
	s2.PutUint8(uint8(CurrentVersion))
	h2 := s2.OpenTLV(DataProvisionTag)
	s2.PutUint32Param(ParamClientID, 0x11223344)
	s2.PutUint16Param(ParamDataID, 7)
	s2.PutBytesParam(ParamDatagram, []byte{0xDE, 0xAD, 0xBE, 0xEF})
	h2.Close()
	buf := s2.Bytes()

	f := tlv.NewMessageFactory(buf, p)
	if f.Err() != nil {
		t.Fatalf("unexpected validation error: %v", f.Err())
	}
	out, err := f.BuildMessage()
	if err != nil {
		t.Fatalf("BuildMessage: %v", err)
	}
	dp := out.(*DataProvision)
	if dp.ChannelID != UnboundID || dp.StreamID != UnboundID {
		t.Fatalf("got channel=%04X stream=%04X, want both UnboundID", dp.ChannelID, dp.StreamID)
	}
	if dp.ClientID != 0x11223344 || dp.DataID != 7 {
		t.Fatalf("got client=%08X data_id=%04X", dp.ClientID, dp.DataID)
	}
	if len(dp.Datagram) != 1 || !bytes.Equal(dp.Datagram[0], []byte{0xDE, 0xAD, 0xBE, 0xEF}) {
		t.Fatalf("got datagrams %v", dp.Datagram)
	}

	// Re-serializing must omit the channel/stream id fields, round-tripping
	// the UDP wire form exactly.
	out2 := tlv.NewSerializer()
	tlv.Serialize(p, dp, out2)
	if !bytes.Equal(out2.Bytes(), buf) {
		t.Fatalf("re-serialize mismatch:\n got  %X\n want %X", out2.Bytes(), buf)
	}
}
