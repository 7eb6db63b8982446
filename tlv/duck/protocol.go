package duck

import "github.com/headend/simulcrypt/tlv"

// NewProtocol builds the TSDuck duck-log syntax table: MSG_LOG_SECTION
// carries exactly one section, MSG_LOG_TABLE one to MaxTableSections,
// both with an optional PID and timestamp. Grounded on TSDuck's tsTLV.h
// message catalog comment block.
func NewProtocol() *tlv.Protocol {
	p := tlv.NewVersionedProtocol("TSDuck-log", ProtocolVersion)

	p.AddParameter(LogSectionTag, ParamPID, 2, 2, 0, 1)
	p.AddParameter(LogSectionTag, ParamTimestamp, tlv.TimestampSize, tlv.TimestampSize, 0, 1)
	p.AddParameter(LogSectionTag, ParamSection, 0, 0xFFFF, 1, 1)

	p.AddParameter(LogTableTag, ParamPID, 2, 2, 0, 1)
	p.AddParameter(LogTableTag, ParamTimestamp, tlv.TimestampSize, tlv.TimestampSize, 0, 1)
	p.AddParameter(LogTableTag, ParamSection, 0, 0xFFFF, 1, MaxTableSections)

	p.AddParameter(ErrorTag, ParamErrorStatus, 2, 2, 1, 1)

	p.Binding = binding{}
	return p
}
