// Package duck implements TSDuck's internal duck-log TLV variant, used to
// ship logged sections and tables over the same tlv framing DVB
// SimulCrypt uses. Grounded on TSDuck's tsTLV.h message catalog.
package duck

import "github.com/headend/simulcrypt/tlv"

// ProtocolVersion is the TSDuck-reserved version byte; it never collides
// with a DVB SimulCrypt protocol version since TSDuck allocates its
// command tags from the "user defined" range.
const ProtocolVersion tlv.Version = 0x80

// Command tags.
const (
	LogSectionTag tlv.Tag = 0xAA01
	LogTableTag   tlv.Tag = 0xAA02
	ErrorTag      tlv.Tag = 0xAAFF
)

// Parameter tags.
const (
	ParamPID         tlv.Tag = 0x0000
	ParamTimestamp   tlv.Tag = 0x0001
	ParamSection     tlv.Tag = 0x0002
	ParamErrorStatus tlv.Tag = 0x00FF
)

// MaxTableSections is the largest number of sections a single
// MSG_LOG_TABLE may carry.
const MaxTableSections = 256

// ErrorStatus enumerates the error_status parameter values of the
// Error message.
type ErrorStatus uint16

const (
	ErrInvMessage      ErrorStatus = 0x0001
	ErrInvProtoVersion ErrorStatus = 0x0002
	ErrInvMessageType  ErrorStatus = 0x0003
	ErrInvParamType    ErrorStatus = 0x0004
	ErrInvParamLength  ErrorStatus = 0x0005
	ErrMissingParam    ErrorStatus = 0x0006
	ErrUnknownError    ErrorStatus = 0x7000
)

var errorNames = map[ErrorStatus]string{
	ErrInvMessage:      "invalid_message",
	ErrInvProtoVersion: "invalid_protocol_version",
	ErrInvMessageType:  "invalid_message_type",
	ErrInvParamType:    "invalid_parameter_type",
	ErrInvParamLength:  "invalid_parameter_length",
	ErrMissingParam:    "missing_parameter",
	ErrUnknownError:    "unknown_error",
}

// Name renders a diagnostic label for status, falling back to "unknown".
func (s ErrorStatus) Name() string {
	if n, ok := errorNames[s]; ok {
		return n
	}
	return "unknown"
}
