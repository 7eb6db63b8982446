// Package tlv implements the generic DVB SimulCrypt TLV (tag/length/value)
// protocol framework: wire primitives, a forward-only analyzer, a
// declarative protocol descriptor, a validating message factory and a
// back-patching serializer. Concrete protocols (see tlv/ecmg, tlv/emmg,
// tlv/duck) bind these pieces to a real command/parameter catalog.
package tlv

import (
	"encoding/binary"
	"time"
)

// Tag identifies a command or parameter on the wire.
type Tag uint16

// NoTag is reserved and never assigned to a real command or parameter.
const NoTag Tag = 0x0000

// Version is the single-byte protocol version prefix used by protocols
// that declare one.
type Version uint8

// Length is the 16-bit byte count of a TLV value field.
type Length uint16

// MaxTLVLength is the largest value a Length field can hold.
const MaxTLVLength = 0xFFFF

func getUint8(b []byte) uint8   { return b[0] }
func getUint16(b []byte) uint16 { return binary.BigEndian.Uint16(b) }
func getUint32(b []byte) uint32 { return binary.BigEndian.Uint32(b) }
func getUint64(b []byte) uint64 { return binary.BigEndian.Uint64(b) }

func putUint8(b []byte, v uint8)   { b[0] = v }
func putUint16(b []byte, v uint16) { binary.BigEndian.PutUint16(b, v) }
func putUint32(b []byte, v uint32) { binary.BigEndian.PutUint32(b, v) }
func putUint64(b []byte, v uint64) { binary.BigEndian.PutUint64(b, v) }

// TimestampSize is the fixed encoded size of a Timestamp.
const TimestampSize = 8

// Timestamp is the 8-byte SimulCrypt date/time: year, month, day, hour,
// minute, second, hundredth-of-second, each one byte except year.
// Byte-wise (memcmp) ordering of the encoded form equals chronological
// ordering, which is why Compare just compares the two encodings byte by
// byte.
type Timestamp struct {
	Year       uint16
	Month      uint8
	Day        uint8
	Hour       uint8
	Minute     uint8
	Second     uint8
	Hundredths uint8
}

// NewTimestamp converts a time.Time to its SimulCrypt encoding, in UTC.
func NewTimestamp(t time.Time) Timestamp {
	t = t.UTC()
	return Timestamp{
		Year:       uint16(t.Year()),
		Month:      uint8(t.Month()),
		Day:        uint8(t.Day()),
		Hour:       uint8(t.Hour()),
		Minute:     uint8(t.Minute()),
		Second:     uint8(t.Second()),
		Hundredths: uint8(t.Nanosecond() / 10000000),
	}
}

// Encode writes the timestamp into buf[0:8].
func (t Timestamp) Encode(buf []byte) {
	_ = buf[7]
	putUint16(buf[0:2], t.Year)
	buf[2] = t.Month
	buf[3] = t.Day
	buf[4] = t.Hour
	buf[5] = t.Minute
	buf[6] = t.Second
	buf[7] = t.Hundredths
}

// Decode reads a timestamp from buf[0:8].
func (t *Timestamp) Decode(buf []byte) {
	_ = buf[7]
	t.Year = getUint16(buf[0:2])
	t.Month = buf[2]
	t.Day = buf[3]
	t.Hour = buf[4]
	t.Minute = buf[5]
	t.Second = buf[6]
	t.Hundredths = buf[7]
}

// Bytes returns the 8-byte wire encoding.
func (t Timestamp) Bytes() []byte {
	buf := make([]byte, TimestampSize)
	t.Encode(buf)
	return buf
}

// Compare returns -1, 0 or 1 following chronological order, which for this
// layout is identical to ordering the encoded bytes.
func (t Timestamp) Compare(o Timestamp) int {
	a, b := t.Bytes(), o.Bytes()
	for i := range a {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}
