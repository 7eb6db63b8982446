// Package ecmg implements the DVB SimulCrypt ECMG<=>SCS protocol
// (ETSI TS 103 197) on top of the generic tlv framework.
package ecmg

import "github.com/headend/simulcrypt/tlv"

// CurrentVersion is the protocol version carried in every message's leading
// version byte.
const CurrentVersion tlv.Version = 0x03

// Command tags.
const (
	ChannelSetupTag        tlv.Tag = 0x0001
	ChannelTestTag         tlv.Tag = 0x0002
	ChannelStatusTag       tlv.Tag = 0x0003
	ChannelCloseTag        tlv.Tag = 0x0004
	ChannelErrorTag        tlv.Tag = 0x0005
	StreamSetupTag         tlv.Tag = 0x0101
	StreamTestTag          tlv.Tag = 0x0102
	StreamStatusTag        tlv.Tag = 0x0103
	StreamCloseRequestTag  tlv.Tag = 0x0104
	StreamCloseResponseTag tlv.Tag = 0x0105
	StreamErrorTag         tlv.Tag = 0x0106
	CWProvisionTag         tlv.Tag = 0x0201
	ECMResponseTag         tlv.Tag = 0x0202
)

// Parameter tags.
const (
	ParamSuperCASID                tlv.Tag = 0x0001
	ParamSectionTSpktFlag          tlv.Tag = 0x0002
	ParamDelayStart                tlv.Tag = 0x0003
	ParamDelayStop                 tlv.Tag = 0x0004
	ParamTransitionDelayStart      tlv.Tag = 0x0005
	ParamTransitionDelayStop       tlv.Tag = 0x0006
	ParamECMRepPeriod              tlv.Tag = 0x0007
	ParamMaxStreams                tlv.Tag = 0x0008
	ParamMinCPDuration             tlv.Tag = 0x0009
	ParamLeadCW                    tlv.Tag = 0x000A
	ParamCWPerMsg                  tlv.Tag = 0x000B
	ParamMaxCompTime               tlv.Tag = 0x000C
	ParamAccessCriteria            tlv.Tag = 0x000D
	ParamECMChannelID              tlv.Tag = 0x000E
	ParamECMStreamID               tlv.Tag = 0x000F
	ParamNominalCPDuration         tlv.Tag = 0x0010
	ParamAccessCriteriaTransferMode tlv.Tag = 0x0011
	ParamCPNumber                  tlv.Tag = 0x0012
	ParamCPDuration                tlv.Tag = 0x0013
	ParamCPCWCombination           tlv.Tag = 0x0014
	ParamECMDatagram               tlv.Tag = 0x0015
	ParamACDelayStart              tlv.Tag = 0x0016
	ParamACDelayStop               tlv.Tag = 0x0017
	ParamCWEncryption              tlv.Tag = 0x0018
	ParamECMID                     tlv.Tag = 0x0019
	ParamErrorStatus               tlv.Tag = 0x7000
	ParamErrorInformation          tlv.Tag = 0x7001
)

// ErrorStatus enumerates the error_status parameter values.
type ErrorStatus uint16

const (
	ErrInvMessage         ErrorStatus = 0x0001
	ErrInvProtoVersion    ErrorStatus = 0x0002
	ErrInvMessageType     ErrorStatus = 0x0003
	ErrMessageTooLong     ErrorStatus = 0x0004
	ErrInvSuperCASID      ErrorStatus = 0x0005
	ErrInvChannelID       ErrorStatus = 0x0006
	ErrInvStreamID        ErrorStatus = 0x0007
	ErrTooManyChannels    ErrorStatus = 0x0008
	ErrTooManyStmChan     ErrorStatus = 0x0009
	ErrTooManyStmEcmg     ErrorStatus = 0x000A
	ErrNotEnoughCW        ErrorStatus = 0x000B
	ErrOutOfStorage       ErrorStatus = 0x000C
	ErrOutOfCompute       ErrorStatus = 0x000D
	ErrInvParamType       ErrorStatus = 0x000E
	ErrInvParamLength     ErrorStatus = 0x000F
	ErrMissingParam       ErrorStatus = 0x0010
	ErrInvParamValue      ErrorStatus = 0x0011
	ErrInvECMID           ErrorStatus = 0x0012
	ErrChannelIDInUse     ErrorStatus = 0x0013
	ErrStreamIDInUse      ErrorStatus = 0x0014
	ErrECMIDInUse         ErrorStatus = 0x0015
	ErrUnknownError       ErrorStatus = 0x7000
	ErrUnrecoverableError ErrorStatus = 0x7001
)

var errorNames = map[ErrorStatus]string{
	ErrInvMessage:         "invalid_message",
	ErrInvProtoVersion:    "invalid_protocol_version",
	ErrInvMessageType:     "invalid_message_type",
	ErrMessageTooLong:     "message_too_long",
	ErrInvSuperCASID:      "invalid_Super_CAS_id",
	ErrInvChannelID:       "invalid_channel_id",
	ErrInvStreamID:        "invalid_stream_id",
	ErrTooManyChannels:    "too_many_channels",
	ErrTooManyStmChan:     "too_many_streams_per_channel",
	ErrTooManyStmEcmg:     "too_many_streams_per_ECMG",
	ErrNotEnoughCW:        "not_enough_control_words",
	ErrOutOfStorage:       "out_of_storage",
	ErrOutOfCompute:       "out_of_compute_power",
	ErrInvParamType:       "invalid_parameter_type",
	ErrInvParamLength:     "invalid_parameter_length",
	ErrMissingParam:       "missing_parameter",
	ErrInvParamValue:      "invalid_parameter_value",
	ErrInvECMID:           "invalid_ECM_id",
	ErrChannelIDInUse:     "channel_id_in_use",
	ErrStreamIDInUse:      "stream_id_in_use",
	ErrECMIDInUse:         "ECM_id_in_use",
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
