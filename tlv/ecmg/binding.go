package ecmg

import (
	"fmt"

	"github.com/headend/simulcrypt/tlv"
)

// binding implements tlv.Binding for the ECMG<=>SCS protocol. Grounded on
// TSDuck's ts::ecmgscs::Protocol::factory/buildErrorResponse.
type binding struct{}

func (binding) Factory(f *tlv.MessageFactory) (tlv.Message, error) {
	switch f.CommandTag() {
	case ChannelSetupTag:
		return newChannelSetup(f), nil
	case ChannelTestTag:
		return newChannelTest(f), nil
	case ChannelStatusTag:
		return newChannelStatus(f), nil
	case ChannelCloseTag:
		return newChannelClose(f), nil
	case ChannelErrorTag:
		return newChannelError(f), nil
	case StreamSetupTag:
		return newStreamSetup(f), nil
	case StreamTestTag:
		return newStreamTest(f), nil
	case StreamStatusTag:
		return newStreamStatus(f), nil
	case StreamCloseRequestTag:
		return newStreamCloseRequest(f), nil
	case StreamCloseResponseTag:
		return newStreamCloseResponse(f), nil
	case StreamErrorTag:
		return newStreamError(f), nil
	case CWProvisionTag:
		return newCWProvision(f), nil
	case ECMResponseTag:
		return newECMResponse(f), nil
	default:
		return nil, &tlv.InternalError{Msg: fmt.Sprintf("ecmg: unimplemented command tag 0x%04X", f.CommandTag())}
	}
}

// mapError translates a generic tlv.ErrorKind into the protocol's
// error_status enumeration.
func mapError(kind tlv.ErrorKind) ErrorStatus {
	switch kind {
	case tlv.InvalidMessage:
		return ErrInvMessage
	case tlv.UnsupportedVersion:
		return ErrInvProtoVersion
	case tlv.UnknownCommandTag:
		return ErrInvMessageType
	case tlv.UnknownParameterTag:
		return ErrInvParamType
	case tlv.InvalidParameterLength:
		return ErrInvParamLength
	case tlv.InvalidParameterCount, tlv.MissingParameter:
		return ErrMissingParam
	default:
		return ErrUnknownError
	}
}

func (binding) BuildErrorResponse(f *tlv.MessageFactory) tlv.Message {
	errmsg := &ChannelError{}

	// Best-effort recovery of the ECM_channel_id from the faulty message;
	// a missing or unparsable channel id falls back to zero.
	func() {
		defer func() { recover() }()
		if f.Count(ParamECMChannelID) > 0 {
			errmsg.ChannelID = f.Uint16(ParamECMChannelID)
		}
	}()

	status := mapError(f.Err().Kind)
	errmsg.ErrorStatus = []uint16{uint16(status)}
	errmsg.ErrorInformation = []uint16{f.Err().Info}
	return errmsg
}
