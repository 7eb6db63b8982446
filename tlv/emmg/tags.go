// Package emmg implements the DVB SimulCrypt EMMG/PDG<=>MUX protocol
// (ETSI TS 103 197) on top of the generic tlv framework.
package emmg

import "github.com/headend/simulcrypt/tlv"

// CurrentVersion is the protocol version carried in every message's
// leading version byte.
const CurrentVersion tlv.Version = 0x03

// UnboundID is the data_channel_id/data_stream_id sentinel a data_provision
// message carries when sent over UDP, where those fields are forbidden.
const UnboundID uint16 = 0xFFFF

// Command tags.
const (
	ChannelSetupTag        tlv.Tag = 0x0011
	ChannelTestTag         tlv.Tag = 0x0012
	ChannelStatusTag       tlv.Tag = 0x0013
	ChannelCloseTag        tlv.Tag = 0x0014
	ChannelErrorTag        tlv.Tag = 0x0015
	StreamSetupTag         tlv.Tag = 0x0111
	StreamTestTag          tlv.Tag = 0x0112
	StreamStatusTag        tlv.Tag = 0x0113
	StreamCloseRequestTag  tlv.Tag = 0x0114
	StreamCloseResponseTag tlv.Tag = 0x0115
	StreamErrorTag         tlv.Tag = 0x0116
	StreamBWRequestTag     tlv.Tag = 0x0117
	StreamBWAllocationTag  tlv.Tag = 0x0118
	DataProvisionTag       tlv.Tag = 0x0211
)

// Parameter tags.
const (
	ParamClientID         tlv.Tag = 0x0001
	ParamSectionTSpktFlag tlv.Tag = 0x0002
	ParamDataChannelID    tlv.Tag = 0x0003
	ParamDataStreamID     tlv.Tag = 0x0004
	ParamDatagram         tlv.Tag = 0x0005
	ParamBandwidth        tlv.Tag = 0x0006
	ParamDataType         tlv.Tag = 0x0007
	ParamDataID           tlv.Tag = 0x0008
	ParamErrorStatus      tlv.Tag = 0x7000
	ParamErrorInformation tlv.Tag = 0x7001
)

// DataType enumerates the data_type parameter values.
type DataType uint8

const (
	DataTypeEMM     DataType = 0x00
	DataTypePrivate DataType = 0x01
	DataTypeECM     DataType = 0x02
)

// ErrorStatus enumerates the error_status parameter values.
type ErrorStatus uint16

const (
	ErrInvMessage        ErrorStatus = 0x0001
	ErrInvProtoVersion   ErrorStatus = 0x0002
	ErrInvMessageType    ErrorStatus = 0x0003
	ErrMessageTooLong    ErrorStatus = 0x0004
	ErrInvDataStreamID   ErrorStatus = 0x0005
	ErrInvDataChannelID  ErrorStatus = 0x0006
	ErrTooManyChannels   ErrorStatus = 0x0007
	ErrTooManyStmChan    ErrorStatus = 0x0008
	ErrTooManyStmMux     ErrorStatus = 0x0009
	ErrInvParamType      ErrorStatus = 0x000A
	ErrInvParamLength    ErrorStatus = 0x000B
	ErrMissingParam      ErrorStatus = 0x000C
	ErrInvParamValue     ErrorStatus = 0x000D
	ErrInvClientID       ErrorStatus = 0x000E
	ErrExceededBW        ErrorStatus = 0x000F
	ErrInvDataID         ErrorStatus = 0x0010
	ErrChannelIDInUse    ErrorStatus = 0x0011
	ErrStreamIDInUse     ErrorStatus = 0x0012
	ErrDataIDInUse       ErrorStatus = 0x0013
	ErrClientIDInUse     ErrorStatus = 0x0014
	ErrUnknownError       ErrorStatus = 0x7000
	ErrUnrecoverableError ErrorStatus = 0x7001
)

var errorNames = map[ErrorStatus]string{
	ErrInvMessage:         "invalid_message",
	ErrInvProtoVersion:    "invalid_protocol_version",
	ErrInvMessageType:     "invalid_message_type",
	ErrMessageTooLong:     "message_too_long",
	ErrInvDataStreamID:    "invalid_data_stream_id",
	ErrInvDataChannelID:   "invalid_data_channel_id",
	ErrTooManyChannels:    "too_many_channels",
	ErrTooManyStmChan:     "too_many_streams_per_channel",
	ErrTooManyStmMux:      "too_many_streams_per_mux",
	ErrInvParamType:       "invalid_parameter_type",
	ErrInvParamLength:     "invalid_parameter_length",
	ErrMissingParam:       "missing_parameter",
	ErrInvParamValue:      "invalid_parameter_value",
	ErrInvClientID:        "invalid_client_id",
	ErrExceededBW:         "exceeded_bandwidth",
	ErrInvDataID:          "invalid_data_id",
	ErrChannelIDInUse:     "channel_id_in_use",
	ErrStreamIDInUse:      "stream_id_in_use",
	ErrDataIDInUse:        "data_id_in_use",
	ErrClientIDInUse:      "client_id_in_use",
	ErrUnknownError:       "unknown_error",
	ErrUnrecoverableError: "unrecoverable_error",
}

// Name renders a diagnostic label for status, falling back to "unknown".
func (s ErrorStatus) Name() string {
	if n, ok := errorNames[s]; ok {
		return n
	}
	return "unknown"
}
