package emmg

import (
	"fmt"

	"github.com/headend/simulcrypt/tlv"
)

// ChannelSetup is the channel_setup command.
type ChannelSetup struct {
	tlv.ChannelHeader
	ClientID         uint32
	SectionTSpktFlag bool
}

func newChannelSetup(f *tlv.MessageFactory) *ChannelSetup {
	return &ChannelSetup{
		ChannelHeader:    tlv.ChannelHeader{ChannelID: f.Uint16(ParamDataChannelID)},
		ClientID:         f.Uint32(ParamClientID),
		SectionTSpktFlag: f.Bool(ParamSectionTSpktFlag),
	}
}

func (m *ChannelSetup) Tag() tlv.Tag { return ChannelSetupTag }

func (m *ChannelSetup) SerializeParameters(s *tlv.Serializer) {
	s.PutUint16Param(ParamDataChannelID, m.ChannelID)
	s.PutUint32Param(ParamClientID, m.ClientID)
	s.PutBoolParam(ParamSectionTSpktFlag, m.SectionTSpktFlag)
}

func (m *ChannelSetup) Dump(indent string) string {
	return fmt.Sprintf("%schannel_setup (EMMG/PDG<=>MUX)\n", indent) + m.DumpLine(indent) +
		fmt.Sprintf("%sclient_id = 0x%08X\n", indent, m.ClientID)
}

// ChannelTest is the channel_test command.
type ChannelTest struct {
	tlv.ChannelHeader
	ClientID uint32
}

func newChannelTest(f *tlv.MessageFactory) *ChannelTest {
	return &ChannelTest{
		ChannelHeader: tlv.ChannelHeader{ChannelID: f.Uint16(ParamDataChannelID)},
		ClientID:      f.Uint32(ParamClientID),
	}
}

func (m *ChannelTest) Tag() tlv.Tag { return ChannelTestTag }

func (m *ChannelTest) SerializeParameters(s *tlv.Serializer) {
	s.PutUint16Param(ParamDataChannelID, m.ChannelID)
	s.PutUint32Param(ParamClientID, m.ClientID)
}

func (m *ChannelTest) Dump(indent string) string {
	return fmt.Sprintf("%schannel_test (EMMG/PDG<=>MUX)\n", indent) + m.DumpLine(indent)
}

// ChannelStatus is the channel_status command.
type ChannelStatus struct {
	tlv.ChannelHeader
	ClientID         uint32
	SectionTSpktFlag bool
}

func newChannelStatus(f *tlv.MessageFactory) *ChannelStatus {
	return &ChannelStatus{
		ChannelHeader:    tlv.ChannelHeader{ChannelID: f.Uint16(ParamDataChannelID)},
		ClientID:         f.Uint32(ParamClientID),
		SectionTSpktFlag: f.Bool(ParamSectionTSpktFlag),
	}
}

func (m *ChannelStatus) Tag() tlv.Tag { return ChannelStatusTag }

func (m *ChannelStatus) SerializeParameters(s *tlv.Serializer) {
	s.PutUint16Param(ParamDataChannelID, m.ChannelID)
	s.PutUint32Param(ParamClientID, m.ClientID)
	s.PutBoolParam(ParamSectionTSpktFlag, m.SectionTSpktFlag)
}

func (m *ChannelStatus) Dump(indent string) string {
	return fmt.Sprintf("%schannel_status (EMMG/PDG<=>MUX)\n", indent) + m.DumpLine(indent)
}

// ChannelClose is the channel_close command.
type ChannelClose struct {
	tlv.ChannelHeader
	ClientID uint32
}

func newChannelClose(f *tlv.MessageFactory) *ChannelClose {
	return &ChannelClose{
		ChannelHeader: tlv.ChannelHeader{ChannelID: f.Uint16(ParamDataChannelID)},
		ClientID:      f.Uint32(ParamClientID),
	}
}

func (m *ChannelClose) Tag() tlv.Tag { return ChannelCloseTag }

func (m *ChannelClose) SerializeParameters(s *tlv.Serializer) {
	s.PutUint16Param(ParamDataChannelID, m.ChannelID)
	s.PutUint32Param(ParamClientID, m.ClientID)
}

func (m *ChannelClose) Dump(indent string) string {
	return fmt.Sprintf("%schannel_close (EMMG/PDG<=>MUX)\n", indent) + m.DumpLine(indent)
}

// ChannelError is the channel_error command, also used as the protocol's
// generic error response.
type ChannelError struct {
	tlv.ChannelHeader
	ClientID         uint32
	ErrorStatus      []uint16
	ErrorInformation []uint16
}

func newChannelError(f *tlv.MessageFactory) *ChannelError {
	return &ChannelError{
		ChannelHeader:    tlv.ChannelHeader{ChannelID: f.Uint16(ParamDataChannelID)},
		ClientID:         f.Uint32(ParamClientID),
		ErrorStatus:      f.Uint16Slice(ParamErrorStatus),
		ErrorInformation: f.Uint16Slice(ParamErrorInformation),
	}
}

func (m *ChannelError) Tag() tlv.Tag { return ChannelErrorTag }

func (m *ChannelError) SerializeParameters(s *tlv.Serializer) {
	s.PutUint16Param(ParamDataChannelID, m.ChannelID)
	s.PutUint32Param(ParamClientID, m.ClientID)
	for _, v := range m.ErrorStatus {
		s.PutUint16Param(ParamErrorStatus, v)
	}
	for _, v := range m.ErrorInformation {
		s.PutUint16Param(ParamErrorInformation, v)
	}
}

func (m *ChannelError) Dump(indent string) string {
	out := fmt.Sprintf("%schannel_error (EMMG/PDG<=>MUX)\n", indent) + m.DumpLine(indent)
	for _, v := range m.ErrorStatus {
		out += fmt.Sprintf("%serror_status = 0x%04X (%s)\n", indent, v, ErrorStatus(v).Name())
	}
	return out
}

// StreamSetup is the stream_setup command.
type StreamSetup struct {
	tlv.StreamHeader
	ClientID uint32
	DataID   uint16
	DataType uint8
}

func newStreamSetup(f *tlv.MessageFactory) *StreamSetup {
	return &StreamSetup{
		StreamHeader: tlv.StreamHeader{ChannelHeader: tlv.ChannelHeader{ChannelID: f.Uint16(ParamDataChannelID)}, StreamID: f.Uint16(ParamDataStreamID)},
		ClientID:     f.Uint32(ParamClientID),
		DataID:       f.Uint16(ParamDataID),
		DataType:     f.Uint8(ParamDataType),
	}
}

func (m *StreamSetup) Tag() tlv.Tag { return StreamSetupTag }

func (m *StreamSetup) SerializeParameters(s *tlv.Serializer) {
	s.PutUint16Param(ParamDataChannelID, m.ChannelID)
	s.PutUint16Param(ParamDataStreamID, m.StreamID)
	s.PutUint32Param(ParamClientID, m.ClientID)
	s.PutUint16Param(ParamDataID, m.DataID)
	s.PutUint8Param(ParamDataType, m.DataType)
}

func (m *StreamSetup) Dump(indent string) string {
	return fmt.Sprintf("%sstream_setup (EMMG/PDG<=>MUX)\n", indent) + m.DumpLine(indent)
}

// StreamTest is the stream_test command.
type StreamTest struct {
	tlv.StreamHeader
	ClientID uint32
}

func newStreamTest(f *tlv.MessageFactory) *StreamTest {
	return &StreamTest{
		StreamHeader: tlv.StreamHeader{ChannelHeader: tlv.ChannelHeader{ChannelID: f.Uint16(ParamDataChannelID)}, StreamID: f.Uint16(ParamDataStreamID)},
		ClientID:     f.Uint32(ParamClientID),
	}
}

func (m *StreamTest) Tag() tlv.Tag { return StreamTestTag }

func (m *StreamTest) SerializeParameters(s *tlv.Serializer) {
	s.PutUint16Param(ParamDataChannelID, m.ChannelID)
	s.PutUint16Param(ParamDataStreamID, m.StreamID)
	s.PutUint32Param(ParamClientID, m.ClientID)
}

func (m *StreamTest) Dump(indent string) string {
	return fmt.Sprintf("%sstream_test (EMMG/PDG<=>MUX)\n", indent) + m.DumpLine(indent)
}

// StreamStatus is the stream_status command.
type StreamStatus struct {
	tlv.StreamHeader
	ClientID uint32
	DataID   uint16
	DataType uint8
}

func newStreamStatus(f *tlv.MessageFactory) *StreamStatus {
	return &StreamStatus{
		StreamHeader: tlv.StreamHeader{ChannelHeader: tlv.ChannelHeader{ChannelID: f.Uint16(ParamDataChannelID)}, StreamID: f.Uint16(ParamDataStreamID)},
		ClientID:     f.Uint32(ParamClientID),
		DataID:       f.Uint16(ParamDataID),
		DataType:     f.Uint8(ParamDataType),
	}
}

func (m *StreamStatus) Tag() tlv.Tag { return StreamStatusTag }

func (m *StreamStatus) SerializeParameters(s *tlv.Serializer) {
	s.PutUint16Param(ParamDataChannelID, m.ChannelID)
	s.PutUint16Param(ParamDataStreamID, m.StreamID)
	s.PutUint32Param(ParamClientID, m.ClientID)
	s.PutUint16Param(ParamDataID, m.DataID)
	s.PutUint8Param(ParamDataType, m.DataType)
}

func (m *StreamStatus) Dump(indent string) string {
	return fmt.Sprintf("%sstream_status (EMMG/PDG<=>MUX)\n", indent) + m.DumpLine(indent)
}

// StreamCloseRequest is the stream_close_request command.
type StreamCloseRequest struct {
	tlv.StreamHeader
	ClientID uint32
}

func newStreamCloseRequest(f *tlv.MessageFactory) *StreamCloseRequest {
	return &StreamCloseRequest{
		StreamHeader: tlv.StreamHeader{ChannelHeader: tlv.ChannelHeader{ChannelID: f.Uint16(ParamDataChannelID)}, StreamID: f.Uint16(ParamDataStreamID)},
		ClientID:     f.Uint32(ParamClientID),
	}
}

func (m *StreamCloseRequest) Tag() tlv.Tag { return StreamCloseRequestTag }

func (m *StreamCloseRequest) SerializeParameters(s *tlv.Serializer) {
	s.PutUint16Param(ParamDataChannelID, m.ChannelID)
	s.PutUint16Param(ParamDataStreamID, m.StreamID)
	s.PutUint32Param(ParamClientID, m.ClientID)
}

func (m *StreamCloseRequest) Dump(indent string) string {
	return fmt.Sprintf("%sstream_close_request (EMMG/PDG<=>MUX)\n", indent) + m.DumpLine(indent)
}

// StreamCloseResponse is the stream_close_response command.
type StreamCloseResponse struct {
	tlv.StreamHeader
	ClientID uint32
}

func newStreamCloseResponse(f *tlv.MessageFactory) *StreamCloseResponse {
	return &StreamCloseResponse{
		StreamHeader: tlv.StreamHeader{ChannelHeader: tlv.ChannelHeader{ChannelID: f.Uint16(ParamDataChannelID)}, StreamID: f.Uint16(ParamDataStreamID)},
		ClientID:     f.Uint32(ParamClientID),
	}
}

func (m *StreamCloseResponse) Tag() tlv.Tag { return StreamCloseResponseTag }

func (m *StreamCloseResponse) SerializeParameters(s *tlv.Serializer) {
	s.PutUint16Param(ParamDataChannelID, m.ChannelID)
	s.PutUint16Param(ParamDataStreamID, m.StreamID)
	s.PutUint32Param(ParamClientID, m.ClientID)
}

func (m *StreamCloseResponse) Dump(indent string) string {
	return fmt.Sprintf("%sstream_close_response (EMMG/PDG<=>MUX)\n", indent) + m.DumpLine(indent)
}

// StreamError is the stream_error command.
type StreamError struct {
	tlv.StreamHeader
	ClientID         uint32
	ErrorStatus      []uint16
	ErrorInformation []uint16
}

func newStreamError(f *tlv.MessageFactory) *StreamError {
	return &StreamError{
		StreamHeader:     tlv.StreamHeader{ChannelHeader: tlv.ChannelHeader{ChannelID: f.Uint16(ParamDataChannelID)}, StreamID: f.Uint16(ParamDataStreamID)},
		ClientID:         f.Uint32(ParamClientID),
		ErrorStatus:      f.Uint16Slice(ParamErrorStatus),
		ErrorInformation: f.Uint16Slice(ParamErrorInformation),
	}
}

func (m *StreamError) Tag() tlv.Tag { return StreamErrorTag }

func (m *StreamError) SerializeParameters(s *tlv.Serializer) {
	s.PutUint16Param(ParamDataChannelID, m.ChannelID)
	s.PutUint16Param(ParamDataStreamID, m.StreamID)
	s.PutUint32Param(ParamClientID, m.ClientID)
	for _, v := range m.ErrorStatus {
		s.PutUint16Param(ParamErrorStatus, v)
	}
	for _, v := range m.ErrorInformation {
		s.PutUint16Param(ParamErrorInformation, v)
	}
}

func (m *StreamError) Dump(indent string) string {
	out := fmt.Sprintf("%sstream_error (EMMG/PDG<=>MUX)\n", indent) + m.DumpLine(indent)
	for _, v := range m.ErrorStatus {
		out += fmt.Sprintf("%serror_status = 0x%04X (%s)\n", indent, v, ErrorStatus(v).Name())
	}
	return out
}

// StreamBWRequest is the stream_BW_request command.
type StreamBWRequest struct {
	tlv.StreamHeader
	ClientID     uint32
	HasBandwidth bool
	Bandwidth    int16
}

func newStreamBWRequest(f *tlv.MessageFactory) *StreamBWRequest {
	m := &StreamBWRequest{
		StreamHeader: tlv.StreamHeader{ChannelHeader: tlv.ChannelHeader{ChannelID: f.Uint16(ParamDataChannelID)}, StreamID: f.Uint16(ParamDataStreamID)},
		ClientID:     f.Uint32(ParamClientID),
		HasBandwidth: f.Count(ParamBandwidth) == 1,
	}
	if m.HasBandwidth {
		m.Bandwidth = f.Int16(ParamBandwidth)
	}
	return m
}

func (m *StreamBWRequest) Tag() tlv.Tag { return StreamBWRequestTag }

func (m *StreamBWRequest) SerializeParameters(s *tlv.Serializer) {
	s.PutUint16Param(ParamDataChannelID, m.ChannelID)
	s.PutUint16Param(ParamDataStreamID, m.StreamID)
	s.PutUint32Param(ParamClientID, m.ClientID)
	if m.HasBandwidth {
		s.PutInt16Param(ParamBandwidth, m.Bandwidth)
	}
}

func (m *StreamBWRequest) Dump(indent string) string {
	return fmt.Sprintf("%sstream_BW_request (EMMG/PDG<=>MUX)\n", indent) + m.DumpLine(indent)
}

// StreamBWAllocation is the stream_BW_allocation command.
type StreamBWAllocation struct {
	tlv.StreamHeader
	ClientID     uint32
	HasBandwidth bool
	Bandwidth    int16
}

func newStreamBWAllocation(f *tlv.MessageFactory) *StreamBWAllocation {
	m := &StreamBWAllocation{
		StreamHeader: tlv.StreamHeader{ChannelHeader: tlv.ChannelHeader{ChannelID: f.Uint16(ParamDataChannelID)}, StreamID: f.Uint16(ParamDataStreamID)},
		ClientID:     f.Uint32(ParamClientID),
		HasBandwidth: f.Count(ParamBandwidth) == 1,
	}
	if m.HasBandwidth {
		m.Bandwidth = f.Int16(ParamBandwidth)
	}
	return m
}

func (m *StreamBWAllocation) Tag() tlv.Tag { return StreamBWAllocationTag }

func (m *StreamBWAllocation) SerializeParameters(s *tlv.Serializer) {
	s.PutUint16Param(ParamDataChannelID, m.ChannelID)
	s.PutUint16Param(ParamDataStreamID, m.StreamID)
	s.PutUint32Param(ParamClientID, m.ClientID)
	if m.HasBandwidth {
		s.PutInt16Param(ParamBandwidth, m.Bandwidth)
	}
}

func (m *StreamBWAllocation) Dump(indent string) string {
	return fmt.Sprintf("%sstream_BW_allocation (EMMG/PDG<=>MUX)\n", indent) + m.DumpLine(indent)
}

// DataProvision is the data_provision command. Over TCP, ChannelID and
// StreamID carry the real data_channel_id/data_stream_id; over UDP those
// fields are absent on the wire and decode here as UnboundID, mirroring
// TSDuck's tsEMMGMUX.cpp DataProvision constructor.
type DataProvision struct {
	tlv.StreamHeader
	ClientID uint32
	DataID   uint16
	Datagram [][]byte
}

func newDataProvision(f *tlv.MessageFactory) *DataProvision {
	chanID := UnboundID
	if f.Count(ParamDataChannelID) > 0 {
		chanID = f.Uint16(ParamDataChannelID)
	}
	streamID := UnboundID
	if f.Count(ParamDataStreamID) > 0 {
		streamID = f.Uint16(ParamDataStreamID)
	}
	return &DataProvision{
		StreamHeader: tlv.StreamHeader{ChannelHeader: tlv.ChannelHeader{ChannelID: chanID}, StreamID: streamID},
		ClientID:     f.Uint32(ParamClientID),
		DataID:       f.Uint16(ParamDataID),
		Datagram:     f.BytesSlice(ParamDatagram),
	}
}

func (m *DataProvision) Tag() tlv.Tag { return DataProvisionTag }

// SerializeParameters omits data_channel_id/data_stream_id when they carry
// UnboundID, reproducing the UDP wire form; a TCP sender must set real
// channel and stream IDs before calling this.
func (m *DataProvision) SerializeParameters(s *tlv.Serializer) {
	if m.ChannelID != UnboundID {
		s.PutUint16Param(ParamDataChannelID, m.ChannelID)
	}
	if m.StreamID != UnboundID {
		s.PutUint16Param(ParamDataStreamID, m.StreamID)
	}
	s.PutUint32Param(ParamClientID, m.ClientID)
	s.PutUint16Param(ParamDataID, m.DataID)
	for _, d := range m.Datagram {
		s.PutBytesParam(ParamDatagram, d)
	}
}

func (m *DataProvision) Dump(indent string) string {
	return fmt.Sprintf("%sdata_provision (EMMG/PDG<=>MUX)\n", indent) + m.DumpLine(indent) +
		fmt.Sprintf("%sdata_id = 0x%04X, %d datagram(s)\n", indent, m.DataID, len(m.Datagram))
}
