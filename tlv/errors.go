package tlv

import "fmt"

// ErrorKind enumerates the structural error taxonomy of spec section 7.
// The zero value OK means no error.
type ErrorKind int

const (
	OK ErrorKind = iota
	UnsupportedVersion
	InvalidMessage
	UnknownCommandTag
	UnknownParameterTag
	InvalidParameterLength
	InvalidParameterCount
	MissingParameter
)

func (k ErrorKind) String() string {
	switch k {
	case OK:
		return "OK"
	case UnsupportedVersion:
		return "UnsupportedVersion"
	case InvalidMessage:
		return "InvalidMessage"
	case UnknownCommandTag:
		return "UnknownCommandTag"
	case UnknownParameterTag:
		return "UnknownParameterTag"
	case InvalidParameterLength:
		return "InvalidParameterLength"
	case InvalidParameterCount:
		return "InvalidParameterCount"
	case MissingParameter:
		return "MissingParameter"
	default:
		return "Unknown"
	}
}

// Error is a structural TLV deserialization failure. Info is either a byte
// offset into the outermost buffer (when IsOffset is true) or a raw 16-bit
// tag, per the error-info encoding discipline in spec section 4.3.
type Error struct {
	Kind     ErrorKind
	Info     uint16
	IsOffset bool
}

func (e *Error) Error() string {
	if e.IsOffset {
		return fmt.Sprintf("%s at offset %d", e.Kind, e.Info)
	}
	return fmt.Sprintf("%s for tag 0x%04X", e.Kind, e.Info)
}

func offsetErr(kind ErrorKind, offset int) *Error {
	return &Error{Kind: kind, Info: uint16(offset), IsOffset: true}
}

func tagErr(kind ErrorKind, tag Tag) *Error {
	return &Error{Kind: kind, Info: uint16(tag), IsOffset: false}
}

// InternalError signals a mismatch between a protocol binding's declared
// syntax and the code that reads it back out of a validated message: a
// command tag with no concrete constructor, or a typed getter called
// against a parameter whose declared size does not match. This is always
// an implementer bug, never a peer fault.
type InternalError struct {
	Msg string
}

func (e *InternalError) Error() string { return e.Msg }

func internalErrf(format string, args ...interface{}) error {
	return &InternalError{Msg: fmt.Sprintf(format, args...)}
}
