package ecmg

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

// E1 — channel_status round-trip.
func TestChannelStatusRoundTrip(t *testing.T) {
	want := hexBytes(t, `03 00 03 00 51
		00 0E 00 02 00 02
		00 02 00 01 01
		00 16 00 02 FF 38
		00 17 00 02 FF 38
		00 03 00 02 FE D4
		00 04 00 02 00 64
		00 05 00 02 FE 0C
		00 06 00 02 00 64
		00 07 00 02 00 64
		00 08 00 02 00 02
		00 09 00 02 00 0A
		00 0A 00 01 01
		00 0B 00 01 02
		00 0C 00 02 01 F4`)

	msg := &ChannelStatus{
		ChannelHeader:           tlv.ChannelHeader{ChannelID: 2},
		SectionTSpktFlag:        true,
		HasACDelayStart:         true,
		ACDelayStart:            -200,
		HasACDelayStop:          true,
		ACDelayStop:             -200,
		DelayStart:              -300,
		DelayStop:               100,
		HasTransitionDelayStart: true,
		TransitionDelayStart:    -500,
		HasTransitionDelayStop:  true,
		TransitionDelayStop:     100,
		ECMRepPeriod:            100,
		MaxStreams:              2,
		MinCPDuration:           10,
		LeadCW:                  1,
		CWPerMsg:                2,
		MaxCompTime:             500,
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
	back, ok := out.(*ChannelStatus)
	if !ok {
		t.Fatalf("wrong type: %T", out)
	}
	if *back != *msg {
		t.Fatalf("round-trip mismatch:\n got  %+v\n want %+v", back, msg)
	}
}

// E3 — stream_error round-trip.
func TestStreamErrorRoundTrip(t *testing.T) {
	want := hexBytes(t, `03 01 06 00 1E
		00 0E 00 02 00 02
		00 0F 00 02 00 03
		70 00 00 02 00 12
		70 00 00 02 00 0D
		70 01 00 02 12 34`)

	msg := &StreamError{
		StreamHeader:     tlv.StreamHeader{ChannelHeader: tlv.ChannelHeader{ChannelID: 2}, StreamID: 3},
		ErrorStatus:      []uint16{0x0012, 0x000D},
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

// E5 — error mapping: an unsupported version must build a channel_error
// carrying inv_proto_version and zero error_information.
func TestUnsupportedVersionErrorMapping(t *testing.T) {
	p := NewProtocol()
	buf := hexBytes(t, `02 00 01 00 00`) // version 0x02, tag channel_setup, zero-length body
	f := tlv.NewMessageFactory(buf, p)
	if f.Err() == nil {
		t.Fatal("expected validation error")
	}
	if f.Err().Kind != tlv.UnsupportedVersion {
		t.Fatalf("got kind %v, want UnsupportedVersion", f.Err().Kind)
	}
	if f.Err().Info != 0 {
		t.Fatalf("got error_info %d, want 0", f.Err().Info)
	}

	resp := f.BuildErrorResponse()
	errmsg, ok := resp.(*ChannelError)
	if !ok {
		t.Fatalf("wrong error response type: %T", resp)
	}
	if len(errmsg.ErrorStatus) != 1 || errmsg.ErrorStatus[0] != uint16(ErrInvProtoVersion) {
		t.Fatalf("got error_status %v, want [0x0002]", errmsg.ErrorStatus)
	}
	if len(errmsg.ErrorInformation) != 1 || errmsg.ErrorInformation[0] != 0 {
		t.Fatalf("got error_information %v, want [0]", errmsg.ErrorInformation)
	}
}

// CW_provision packs CP_CW_combination as a flat [2-byte CP][CW] blob, not
// a nested TLV; this exercises the manual split/repack.
func TestCWProvisionCombinations(t *testing.T) {
	msg := &CWProvision{
		StreamHeader: tlv.StreamHeader{ChannelHeader: tlv.ChannelHeader{ChannelID: 1}, StreamID: 1},
		CPNumber:     7,
		CPCWCombination: []CPCWCombination{
			{CP: 1, CW: []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}},
			{CP: 2, CW: []byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF, 0x00, 0x11}},
		},
	}

	p := NewProtocol()
	s := tlv.NewSerializer()
	tlv.Serialize(p, msg, s)

	f := tlv.NewMessageFactory(s.Bytes(), p)
	if f.Err() != nil {
		t.Fatalf("unexpected validation error: %v", f.Err())
	}
	out, err := f.BuildMessage()
	if err != nil {
		t.Fatalf("BuildMessage: %v", err)
	}
	back := out.(*CWProvision)
	if len(back.CPCWCombination) != 2 {
		t.Fatalf("got %d combinations, want 2", len(back.CPCWCombination))
	}
	for i, c := range back.CPCWCombination {
		want := msg.CPCWCombination[i]
		if c.CP != want.CP || !bytes.Equal(c.CW, want.CW) {
			t.Fatalf("combination %d mismatch: got %+v, want %+v", i, c, want)
		}
	}
}
