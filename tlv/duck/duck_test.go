package duck

import (
	"bytes"
	"testing"

	"github.com/headend/simulcrypt/tlv"
)

func TestLogSectionRoundTrip(t *testing.T) {
	msg := &LogSection{
		HasPID:       true,
		PID:          0x0100,
		HasTimestamp: true,
		Timestamp:    tlv.Timestamp{Year: 2026, Month: 8, Day: 1, Hour: 12, Minute: 0, Second: 0, Hundredths: 0},
		Section:      []byte{0x00, 0x01, 0x02, 0x03},
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
	back := out.(*LogSection)
	if back.PID != msg.PID || !bytes.Equal(back.Section, msg.Section) {
		t.Fatalf("round-trip mismatch: got %+v", back)
	}
	if back.Timestamp.Compare(msg.Timestamp) != 0 {
		t.Fatalf("timestamp mismatch: got %+v want %+v", back.Timestamp, msg.Timestamp)
	}
}

func TestLogTableMultipleSections(t *testing.T) {
	msg := &LogTable{
		Sections: [][]byte{{0x01}, {0x02, 0x02}, {0x03, 0x03, 0x03}},
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
	back := out.(*LogTable)
	if len(back.Sections) != 3 {
		t.Fatalf("got %d sections, want 3", len(back.Sections))
	}
}

func TestErrorMapping(t *testing.T) {
	p := NewProtocol()
	buf := []byte{0x81, 0xAA, 0x01, 0x00, 0x00} // wrong version
	f := tlv.NewMessageFactory(buf, p)
	if f.Err() == nil || f.Err().Kind != tlv.UnsupportedVersion {
		t.Fatalf("got %v, want UnsupportedVersion", f.Err())
	}
	resp := f.BuildErrorResponse().(*Error)
	if resp.ErrorStatus != ErrInvProtoVersion {
		t.Fatalf("got %v, want ErrInvProtoVersion", resp.ErrorStatus)
	}
}
