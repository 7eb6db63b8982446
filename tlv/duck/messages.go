package duck

import (
	"fmt"

	"github.com/headend/simulcrypt/tlv"
)

// LogSection is the MSG_LOG_SECTION command: one section with an optional
// originating PID and capture timestamp.
type LogSection struct {
	HasPID       bool
	PID          uint16
	HasTimestamp bool
	Timestamp    tlv.Timestamp
	Section      []byte
}

func newLogSection(f *tlv.MessageFactory) *LogSection {
	m := &LogSection{
		HasPID:       f.Count(ParamPID) == 1,
		HasTimestamp: f.Count(ParamTimestamp) == 1,
		Section:      f.Bytes(ParamSection),
	}
	if m.HasPID {
		m.PID = f.Uint16(ParamPID)
	}
	if m.HasTimestamp {
		m.Timestamp.Decode(f.Bytes(ParamTimestamp))
	}
	return m
}

func (m *LogSection) Tag() tlv.Tag { return LogSectionTag }

func (m *LogSection) SerializeParameters(s *tlv.Serializer) {
	if m.HasPID {
		s.PutUint16Param(ParamPID, m.PID)
	}
	if m.HasTimestamp {
		s.PutBytesParam(ParamTimestamp, m.Timestamp.Bytes())
	}
	s.PutBytesParam(ParamSection, m.Section)
}

func (m *LogSection) Dump(indent string) string {
	out := fmt.Sprintf("%slog_section (TSDuck)\n", indent)
	if m.HasPID {
		out += fmt.Sprintf("%spid = 0x%04X\n", indent, m.PID)
	}
	out += fmt.Sprintf("%ssection = %d bytes\n", indent, len(m.Section))
	return out
}

// LogTable is the MSG_LOG_TABLE command: a complete table, one to
// MaxTableSections sections, no missing section.
type LogTable struct {
	HasPID       bool
	PID          uint16
	HasTimestamp bool
	Timestamp    tlv.Timestamp
	Sections     [][]byte
}

func newLogTable(f *tlv.MessageFactory) *LogTable {
	m := &LogTable{
		HasPID:       f.Count(ParamPID) == 1,
		HasTimestamp: f.Count(ParamTimestamp) == 1,
		Sections:     f.BytesSlice(ParamSection),
	}
	if m.HasPID {
		m.PID = f.Uint16(ParamPID)
	}
	if m.HasTimestamp {
		m.Timestamp.Decode(f.Bytes(ParamTimestamp))
	}
	return m
}

func (m *LogTable) Tag() tlv.Tag { return LogTableTag }

func (m *LogTable) SerializeParameters(s *tlv.Serializer) {
	if m.HasPID {
		s.PutUint16Param(ParamPID, m.PID)
	}
	if m.HasTimestamp {
		s.PutBytesParam(ParamTimestamp, m.Timestamp.Bytes())
	}
	for _, sec := range m.Sections {
		s.PutBytesParam(ParamSection, sec)
	}
}

func (m *LogTable) Dump(indent string) string {
	out := fmt.Sprintf("%slog_table (TSDuck)\n", indent)
	if m.HasPID {
		out += fmt.Sprintf("%spid = 0x%04X\n", indent, m.PID)
	}
	out += fmt.Sprintf("%s%d section(s)\n", indent, len(m.Sections))
	return out
}

// Error is the protocol's generic error response.
type Error struct {
	ErrorStatus ErrorStatus
}

func newError(f *tlv.MessageFactory) *Error {
	return &Error{ErrorStatus: ErrorStatus(f.Uint16(ParamErrorStatus))}
}

func (m *Error) Tag() tlv.Tag { return ErrorTag }

func (m *Error) SerializeParameters(s *tlv.Serializer) {
	s.PutUint16Param(ParamErrorStatus, uint16(m.ErrorStatus))
}

func (m *Error) Dump(indent string) string {
	return fmt.Sprintf("%serror (TSDuck)\n%serror_status = 0x%04X (%s)\n",
		indent, indent, uint16(m.ErrorStatus), m.ErrorStatus.Name())
}
