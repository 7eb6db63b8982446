package tlv

import "fmt"

// Message is implemented by every concrete command type of every binding.
// Per the redesign note in spec section 9, there is no Message<-
// ChannelMessage<-StreamMessage inheritance chain; concrete types instead
// embed ChannelHeader or StreamHeader directly.
type Message interface {
	// Tag returns the command tag this message serializes as.
	Tag() Tag
	// SerializeParameters appends this message's parameters to s. The
	// caller (via Serialize) has already opened the outer TLV.
	SerializeParameters(s *Serializer)
	// Dump renders the message for diagnostics, indented by indent.
	Dump(indent string) string
}

// Serialize writes the version byte (if versioned), opens the outer TLV
// for msg's tag, dispatches to SerializeParameters, and closes the TLV.
// This is the inverse of MessageFactory's validation pipeline.
func Serialize(p *Protocol, msg Message, s *Serializer) {
	if p.HasVersion() {
		s.PutUint8(uint8(p.Version()))
	}
	h := s.OpenTLV(msg.Tag())
	msg.SerializeParameters(s)
	h.Close()
}

// ChannelHeader carries the channel_id field shared by every
// channel-scoped message.
type ChannelHeader struct {
	ChannelID uint16
}

// DumpLine renders "name = 0xXXXX" for use inside a Dump implementation.
func (h ChannelHeader) DumpLine(indent string) string {
	return fmt.Sprintf("%schannel_id = 0x%04X\n", indent, h.ChannelID)
}

// StreamHeader extends ChannelHeader with a stream_id field shared by
// every stream-scoped message.
type StreamHeader struct {
	ChannelHeader
	StreamID uint16
}

// DumpLine renders both the channel_id and stream_id lines.
func (h StreamHeader) DumpLine(indent string) string {
	return h.ChannelHeader.DumpLine(indent) + fmt.Sprintf("%sstream_id = 0x%04X\n", indent, h.StreamID)
}
