package duck

import (
	"fmt"

	"github.com/headend/simulcrypt/tlv"
)

// binding implements tlv.Binding for the TSDuck duck-log protocol.
type binding struct{}

func (binding) Factory(f *tlv.MessageFactory) (tlv.Message, error) {
	switch f.CommandTag() {
	case LogSectionTag:
		return newLogSection(f), nil
	case LogTableTag:
		return newLogTable(f), nil
	case ErrorTag:
		return newError(f), nil
	default:
		return nil, &tlv.InternalError{Msg: fmt.Sprintf("duck: unimplemented command tag 0x%04X", f.CommandTag())}
	}
}

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
	return &Error{ErrorStatus: mapError(f.Err().Kind)}
}
