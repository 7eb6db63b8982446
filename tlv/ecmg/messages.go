package ecmg

import (
	"fmt"

	"github.com/headend/simulcrypt/tlv"
)

// CPCWCombination pairs a crypto-period number with its control word, the
// CW_provision message's repeated CP_CW_combination parameter.
type CPCWCombination struct {
	CP uint16
	CW []byte
}

// ChannelSetup is the channel_setup command.
type ChannelSetup struct {
	tlv.ChannelHeader
	SuperCASID uint32
}

func newChannelSetup(f *tlv.MessageFactory) *ChannelSetup {
	return &ChannelSetup{
		ChannelHeader: tlv.ChannelHeader{ChannelID: f.Uint16(ParamECMChannelID)},
		SuperCASID:    f.Uint32(ParamSuperCASID),
	}
}

func (m *ChannelSetup) Tag() tlv.Tag { return ChannelSetupTag }

func (m *ChannelSetup) SerializeParameters(s *tlv.Serializer) {
	s.PutUint16Param(ParamECMChannelID, m.ChannelID)
	s.PutUint32Param(ParamSuperCASID, m.SuperCASID)
}

func (m *ChannelSetup) Dump(indent string) string {
	return fmt.Sprintf("%schannel_setup (ECMG<=>SCS)\n", indent) +
		m.DumpLine(indent) +
		fmt.Sprintf("%sSuper_CAS_id = 0x%08X\n", indent, m.SuperCASID)
}

// ChannelTest is the channel_test command.
type ChannelTest struct {
	tlv.ChannelHeader
}

func newChannelTest(f *tlv.MessageFactory) *ChannelTest {
	return &ChannelTest{ChannelHeader: tlv.ChannelHeader{ChannelID: f.Uint16(ParamECMChannelID)}}
}

func (m *ChannelTest) Tag() tlv.Tag { return ChannelTestTag }

func (m *ChannelTest) SerializeParameters(s *tlv.Serializer) {
	s.PutUint16Param(ParamECMChannelID, m.ChannelID)
}

func (m *ChannelTest) Dump(indent string) string {
	return fmt.Sprintf("%schannel_test (ECMG<=>SCS)\n", indent) + m.DumpLine(indent)
}

// ChannelStatus is the channel_status command.
type ChannelStatus struct {
	tlv.ChannelHeader
	SectionTSpktFlag         bool
	HasACDelayStart          bool
	ACDelayStart             int16
	HasACDelayStop           bool
	ACDelayStop              int16
	DelayStart               int16
	DelayStop                int16
	HasTransitionDelayStart  bool
	TransitionDelayStart     int16
	HasTransitionDelayStop   bool
	TransitionDelayStop      int16
	ECMRepPeriod             uint16
	MaxStreams               uint16
	MinCPDuration            uint16
	LeadCW                   uint8
	CWPerMsg                 uint8
	MaxCompTime              uint16
}

func newChannelStatus(f *tlv.MessageFactory) *ChannelStatus {
	m := &ChannelStatus{
		ChannelHeader:       tlv.ChannelHeader{ChannelID: f.Uint16(ParamECMChannelID)},
		SectionTSpktFlag:    f.Bool(ParamSectionTSpktFlag),
		HasACDelayStart:     f.Count(ParamACDelayStart) == 1,
		HasACDelayStop:      f.Count(ParamACDelayStop) == 1,
		DelayStart:          f.Int16(ParamDelayStart),
		DelayStop:           f.Int16(ParamDelayStop),
		HasTransitionDelayStart: f.Count(ParamTransitionDelayStart) == 1,
		HasTransitionDelayStop:  f.Count(ParamTransitionDelayStop) == 1,
		ECMRepPeriod:        f.Uint16(ParamECMRepPeriod),
		MaxStreams:          f.Uint16(ParamMaxStreams),
		MinCPDuration:       f.Uint16(ParamMinCPDuration),
		LeadCW:              f.Uint8(ParamLeadCW),
		CWPerMsg:            f.Uint8(ParamCWPerMsg),
		MaxCompTime:         f.Uint16(ParamMaxCompTime),
	}
	if m.HasACDelayStart {
		m.ACDelayStart = f.Int16(ParamACDelayStart)
	}
	if m.HasACDelayStop {
		m.ACDelayStop = f.Int16(ParamACDelayStop)
	}
	if m.HasTransitionDelayStart {
		m.TransitionDelayStart = f.Int16(ParamTransitionDelayStart)
	}
	if m.HasTransitionDelayStop {
		m.TransitionDelayStop = f.Int16(ParamTransitionDelayStop)
	}
	return m
}

func (m *ChannelStatus) Tag() tlv.Tag { return ChannelStatusTag }

func (m *ChannelStatus) SerializeParameters(s *tlv.Serializer) {
	s.PutUint16Param(ParamECMChannelID, m.ChannelID)
	s.PutBoolParam(ParamSectionTSpktFlag, m.SectionTSpktFlag)
	if m.HasACDelayStart {
		s.PutInt16Param(ParamACDelayStart, m.ACDelayStart)
	}
	if m.HasACDelayStop {
		s.PutInt16Param(ParamACDelayStop, m.ACDelayStop)
	}
	s.PutInt16Param(ParamDelayStart, m.DelayStart)
	s.PutInt16Param(ParamDelayStop, m.DelayStop)
	if m.HasTransitionDelayStart {
		s.PutInt16Param(ParamTransitionDelayStart, m.TransitionDelayStart)
	}
	if m.HasTransitionDelayStop {
		s.PutInt16Param(ParamTransitionDelayStop, m.TransitionDelayStop)
	}
	s.PutUint16Param(ParamECMRepPeriod, m.ECMRepPeriod)
	s.PutUint16Param(ParamMaxStreams, m.MaxStreams)
	s.PutUint16Param(ParamMinCPDuration, m.MinCPDuration)
	s.PutUint8Param(ParamLeadCW, m.LeadCW)
	s.PutUint8Param(ParamCWPerMsg, m.CWPerMsg)
	s.PutUint16Param(ParamMaxCompTime, m.MaxCompTime)
}

func (m *ChannelStatus) Dump(indent string) string {
	return fmt.Sprintf("%schannel_status (ECMG<=>SCS)\n", indent) + m.DumpLine(indent)
}

// ChannelClose is the channel_close command.
type ChannelClose struct {
	tlv.ChannelHeader
}

func newChannelClose(f *tlv.MessageFactory) *ChannelClose {
	return &ChannelClose{ChannelHeader: tlv.ChannelHeader{ChannelID: f.Uint16(ParamECMChannelID)}}
}

func (m *ChannelClose) Tag() tlv.Tag { return ChannelCloseTag }

func (m *ChannelClose) SerializeParameters(s *tlv.Serializer) {
	s.PutUint16Param(ParamECMChannelID, m.ChannelID)
}

func (m *ChannelClose) Dump(indent string) string {
	return fmt.Sprintf("%schannel_close (ECMG<=>SCS)\n", indent) + m.DumpLine(indent)
}

// ChannelError is the channel_error command, also used as the protocol's
// generic error response.
type ChannelError struct {
	tlv.ChannelHeader
	ErrorStatus      []uint16
	ErrorInformation []uint16
}

func newChannelError(f *tlv.MessageFactory) *ChannelError {
	return &ChannelError{
		ChannelHeader:    tlv.ChannelHeader{ChannelID: f.Uint16(ParamECMChannelID)},
		ErrorStatus:      f.Uint16Slice(ParamErrorStatus),
		ErrorInformation: f.Uint16Slice(ParamErrorInformation),
	}
}

func (m *ChannelError) Tag() tlv.Tag { return ChannelErrorTag }

func (m *ChannelError) SerializeParameters(s *tlv.Serializer) {
	s.PutUint16Param(ParamECMChannelID, m.ChannelID)
	for _, v := range m.ErrorStatus {
		s.PutUint16Param(ParamErrorStatus, v)
	}
	for _, v := range m.ErrorInformation {
		s.PutUint16Param(ParamErrorInformation, v)
	}
}

func (m *ChannelError) Dump(indent string) string {
	out := fmt.Sprintf("%schannel_error (ECMG<=>SCS)\n", indent) + m.DumpLine(indent)
	for _, v := range m.ErrorStatus {
		out += fmt.Sprintf("%serror_status = 0x%04X (%s)\n", indent, v, ErrorStatus(v).Name())
	}
	for _, v := range m.ErrorInformation {
		out += fmt.Sprintf("%serror_information = 0x%04X\n", indent, v)
	}
	return out
}

// StreamSetup is the stream_setup command.
type StreamSetup struct {
	tlv.StreamHeader
	ECMID             uint16
	NominalCPDuration uint16
}

func newStreamSetup(f *tlv.MessageFactory) *StreamSetup {
	return &StreamSetup{
		StreamHeader:      tlv.StreamHeader{ChannelHeader: tlv.ChannelHeader{ChannelID: f.Uint16(ParamECMChannelID)}, StreamID: f.Uint16(ParamECMStreamID)},
		ECMID:             f.Uint16(ParamECMID),
		NominalCPDuration: f.Uint16(ParamNominalCPDuration),
	}
}

func (m *StreamSetup) Tag() tlv.Tag { return StreamSetupTag }

func (m *StreamSetup) SerializeParameters(s *tlv.Serializer) {
	s.PutUint16Param(ParamECMChannelID, m.ChannelID)
	s.PutUint16Param(ParamECMStreamID, m.StreamID)
	s.PutUint16Param(ParamECMID, m.ECMID)
	s.PutUint16Param(ParamNominalCPDuration, m.NominalCPDuration)
}

func (m *StreamSetup) Dump(indent string) string {
	return fmt.Sprintf("%sstream_setup (ECMG<=>SCS)\n", indent) + m.DumpLine(indent)
}

// StreamTest is the stream_test command.
type StreamTest struct {
	tlv.StreamHeader
}

func newStreamTest(f *tlv.MessageFactory) *StreamTest {
	return &StreamTest{StreamHeader: tlv.StreamHeader{ChannelHeader: tlv.ChannelHeader{ChannelID: f.Uint16(ParamECMChannelID)}, StreamID: f.Uint16(ParamECMStreamID)}}
}

func (m *StreamTest) Tag() tlv.Tag { return StreamTestTag }

func (m *StreamTest) SerializeParameters(s *tlv.Serializer) {
	s.PutUint16Param(ParamECMChannelID, m.ChannelID)
	s.PutUint16Param(ParamECMStreamID, m.StreamID)
}

func (m *StreamTest) Dump(indent string) string {
	return fmt.Sprintf("%sstream_test (ECMG<=>SCS)\n", indent) + m.DumpLine(indent)
}

// StreamStatus is the stream_status command.
type StreamStatus struct {
	tlv.StreamHeader
	ECMID                      uint16
	AccessCriteriaTransferMode bool
}

func newStreamStatus(f *tlv.MessageFactory) *StreamStatus {
	return &StreamStatus{
		StreamHeader:               tlv.StreamHeader{ChannelHeader: tlv.ChannelHeader{ChannelID: f.Uint16(ParamECMChannelID)}, StreamID: f.Uint16(ParamECMStreamID)},
		ECMID:                      f.Uint16(ParamECMID),
		AccessCriteriaTransferMode: f.Bool(ParamAccessCriteriaTransferMode),
	}
}

func (m *StreamStatus) Tag() tlv.Tag { return StreamStatusTag }

func (m *StreamStatus) SerializeParameters(s *tlv.Serializer) {
	s.PutUint16Param(ParamECMChannelID, m.ChannelID)
	s.PutUint16Param(ParamECMStreamID, m.StreamID)
	s.PutUint16Param(ParamECMID, m.ECMID)
	s.PutBoolParam(ParamAccessCriteriaTransferMode, m.AccessCriteriaTransferMode)
}

func (m *StreamStatus) Dump(indent string) string {
	return fmt.Sprintf("%sstream_status (ECMG<=>SCS)\n", indent) + m.DumpLine(indent)
}

// StreamCloseRequest is the stream_close_request command.
type StreamCloseRequest struct {
	tlv.StreamHeader
}

func newStreamCloseRequest(f *tlv.MessageFactory) *StreamCloseRequest {
	return &StreamCloseRequest{StreamHeader: tlv.StreamHeader{ChannelHeader: tlv.ChannelHeader{ChannelID: f.Uint16(ParamECMChannelID)}, StreamID: f.Uint16(ParamECMStreamID)}}
}

func (m *StreamCloseRequest) Tag() tlv.Tag { return StreamCloseRequestTag }

func (m *StreamCloseRequest) SerializeParameters(s *tlv.Serializer) {
	s.PutUint16Param(ParamECMChannelID, m.ChannelID)
	s.PutUint16Param(ParamECMStreamID, m.StreamID)
}

func (m *StreamCloseRequest) Dump(indent string) string {
	return fmt.Sprintf("%sstream_close_request (ECMG<=>SCS)\n", indent) + m.DumpLine(indent)
}

// StreamCloseResponse is the stream_close_response command.
type StreamCloseResponse struct {
	tlv.StreamHeader
}

func newStreamCloseResponse(f *tlv.MessageFactory) *StreamCloseResponse {
	return &StreamCloseResponse{StreamHeader: tlv.StreamHeader{ChannelHeader: tlv.ChannelHeader{ChannelID: f.Uint16(ParamECMChannelID)}, StreamID: f.Uint16(ParamECMStreamID)}}
}

func (m *StreamCloseResponse) Tag() tlv.Tag { return StreamCloseResponseTag }

func (m *StreamCloseResponse) SerializeParameters(s *tlv.Serializer) {
	s.PutUint16Param(ParamECMChannelID, m.ChannelID)
	s.PutUint16Param(ParamECMStreamID, m.StreamID)
}

func (m *StreamCloseResponse) Dump(indent string) string {
	return fmt.Sprintf("%sstream_close_response (ECMG<=>SCS)\n", indent) + m.DumpLine(indent)
}

// StreamError is the stream_error command.
type StreamError struct {
	tlv.StreamHeader
	ErrorStatus      []uint16
	ErrorInformation []uint16
}

func newStreamError(f *tlv.MessageFactory) *StreamError {
	return &StreamError{
		StreamHeader:     tlv.StreamHeader{ChannelHeader: tlv.ChannelHeader{ChannelID: f.Uint16(ParamECMChannelID)}, StreamID: f.Uint16(ParamECMStreamID)},
		ErrorStatus:      f.Uint16Slice(ParamErrorStatus),
		ErrorInformation: f.Uint16Slice(ParamErrorInformation),
	}
}

func (m *StreamError) Tag() tlv.Tag { return StreamErrorTag }

func (m *StreamError) SerializeParameters(s *tlv.Serializer) {
	s.PutUint16Param(ParamECMChannelID, m.ChannelID)
	s.PutUint16Param(ParamECMStreamID, m.StreamID)
	for _, v := range m.ErrorStatus {
		s.PutUint16Param(ParamErrorStatus, v)
	}
	for _, v := range m.ErrorInformation {
		s.PutUint16Param(ParamErrorInformation, v)
	}
}

func (m *StreamError) Dump(indent string) string {
	out := fmt.Sprintf("%sstream_error (ECMG<=>SCS)\n", indent) + m.DumpLine(indent)
	for _, v := range m.ErrorStatus {
		out += fmt.Sprintf("%serror_status = 0x%04X (%s)\n", indent, v, ErrorStatus(v).Name())
	}
	return out
}

// CWProvision is the CW_provision command. CPCWCombination entries are a
// flat [2-byte CP][variable CW] blob packed directly in the parameter
// value, not a nested TLV, matching the wire format TSDuck's tsECMGSCS.cpp
// manually splits in its constructor.
type CWProvision struct {
	tlv.StreamHeader
	CPNumber         uint16
	HasCWEncryption  bool
	CWEncryption     []byte
	CPCWCombination  []CPCWCombination
	HasCPDuration    bool
	CPDuration       uint16
	HasAccessCriteria bool
	AccessCriteria   []byte
}

func newCWProvision(f *tlv.MessageFactory) *CWProvision {
	m := &CWProvision{
		StreamHeader:      tlv.StreamHeader{ChannelHeader: tlv.ChannelHeader{ChannelID: f.Uint16(ParamECMChannelID)}, StreamID: f.Uint16(ParamECMStreamID)},
		CPNumber:          f.Uint16(ParamCPNumber),
		HasCWEncryption:   f.Count(ParamCWEncryption) == 1,
		HasCPDuration:     f.Count(ParamCPDuration) == 1,
		HasAccessCriteria: f.Count(ParamAccessCriteria) == 1,
	}
	if m.HasCWEncryption {
		m.CWEncryption = f.Bytes(ParamCWEncryption)
	}
	if m.HasCPDuration {
		m.CPDuration = f.Uint16(ParamCPDuration)
	}
	if m.HasAccessCriteria {
		m.AccessCriteria = f.Bytes(ParamAccessCriteria)
	}
	raw := f.BytesSlice(ParamCPCWCombination)
	m.CPCWCombination = make([]CPCWCombination, len(raw))
	for i, b := range raw {
		m.CPCWCombination[i] = CPCWCombination{CP: uint16(b[0])<<8 | uint16(b[1]), CW: b[2:]}
	}
	return m
}

func (m *CWProvision) Tag() tlv.Tag { return CWProvisionTag }

func (m *CWProvision) SerializeParameters(s *tlv.Serializer) {
	s.PutUint16Param(ParamECMChannelID, m.ChannelID)
	s.PutUint16Param(ParamECMStreamID, m.StreamID)
	s.PutUint16Param(ParamCPNumber, m.CPNumber)
	if m.HasCWEncryption {
		s.PutBytesParam(ParamCWEncryption, m.CWEncryption)
	}
	if m.HasCPDuration {
		s.PutUint16Param(ParamCPDuration, m.CPDuration)
	}
	if m.HasAccessCriteria {
		s.PutBytesParam(ParamAccessCriteria, m.AccessCriteria)
	}
	for _, c := range m.CPCWCombination {
		blob := make([]byte, 2+len(c.CW))
		blob[0] = byte(c.CP >> 8)
		blob[1] = byte(c.CP)
		copy(blob[2:], c.CW)
		s.PutBytesParam(ParamCPCWCombination, blob)
	}
}

func (m *CWProvision) Dump(indent string) string {
	out := fmt.Sprintf("%sCW_provision (ECMG<=>SCS)\n", indent) + m.DumpLine(indent) +
		fmt.Sprintf("%sCP_number = %d\n", indent, m.CPNumber)
	for _, c := range m.CPCWCombination {
		out += fmt.Sprintf("%sCP = %d, CW = % X\n", indent, c.CP, c.CW)
	}
	return out
}

// ECMResponse is the ECM_response command.
type ECMResponse struct {
	tlv.StreamHeader
	CPNumber    uint16
	ECMDatagram []byte
}

func newECMResponse(f *tlv.MessageFactory) *ECMResponse {
	return &ECMResponse{
		StreamHeader: tlv.StreamHeader{ChannelHeader: tlv.ChannelHeader{ChannelID: f.Uint16(ParamECMChannelID)}, StreamID: f.Uint16(ParamECMStreamID)},
		CPNumber:     f.Uint16(ParamCPNumber),
		ECMDatagram:  f.Bytes(ParamECMDatagram),
	}
}

func (m *ECMResponse) Tag() tlv.Tag { return ECMResponseTag }

func (m *ECMResponse) SerializeParameters(s *tlv.Serializer) {
	s.PutUint16Param(ParamECMChannelID, m.ChannelID)
	s.PutUint16Param(ParamECMStreamID, m.StreamID)
	s.PutUint16Param(ParamCPNumber, m.CPNumber)
	s.PutBytesParam(ParamECMDatagram, m.ECMDatagram)
}

func (m *ECMResponse) Dump(indent string) string {
	return fmt.Sprintf("%sECM_response (ECMG<=>SCS)\n", indent) + m.DumpLine(indent) +
		fmt.Sprintf("%sCP_number = %d\n", indent, m.CPNumber)
}
