package emmg

import "github.com/headend/simulcrypt/tlv"

// NewProtocol builds the EMMG/PDG<=>MUX syntax table. Grounded on
// TSDuck's tsEMMGMUX.cpp Protocol constructor. The data_provision
// command uniquely declares data_channel_id/data_stream_id with a
// min_count of 0: those fields are required over a TCP-carried
// data_provision and forbidden over UDP, a distinction this generic
// descriptor cannot express. The binding does not check it either: an
// absent id decodes as UnboundID, and serialization omits an id whose
// value is UnboundID.
func NewProtocol() *tlv.Protocol {
	p := tlv.NewVersionedProtocol("EMMG/PDG<=>MUX", CurrentVersion)

	p.AddParameter(ChannelSetupTag, ParamClientID, 4, 4, 1, 1)
	p.AddParameter(ChannelSetupTag, ParamDataChannelID, 2, 2, 1, 1)
	p.AddParameter(ChannelSetupTag, ParamSectionTSpktFlag, 1, 1, 1, 1)

	p.AddParameter(ChannelTestTag, ParamClientID, 4, 4, 1, 1)
	p.AddParameter(ChannelTestTag, ParamDataChannelID, 2, 2, 1, 1)

	p.AddParameter(ChannelStatusTag, ParamClientID, 4, 4, 1, 1)
	p.AddParameter(ChannelStatusTag, ParamDataChannelID, 2, 2, 1, 1)
	p.AddParameter(ChannelStatusTag, ParamSectionTSpktFlag, 1, 1, 1, 1)

	p.AddParameter(ChannelCloseTag, ParamClientID, 4, 4, 1, 1)
	p.AddParameter(ChannelCloseTag, ParamDataChannelID, 2, 2, 1, 1)

	p.AddParameter(ChannelErrorTag, ParamClientID, 4, 4, 1, 1)
	p.AddParameter(ChannelErrorTag, ParamDataChannelID, 2, 2, 1, 1)
	p.AddParameter(ChannelErrorTag, ParamErrorStatus, 2, 2, 1, 0xFFFF)
	p.AddParameter(ChannelErrorTag, ParamErrorInformation, 2, 2, 0, 0xFFFF)

	p.AddParameter(StreamSetupTag, ParamClientID, 4, 4, 1, 1)
	p.AddParameter(StreamSetupTag, ParamDataChannelID, 2, 2, 1, 1)
	p.AddParameter(StreamSetupTag, ParamDataStreamID, 2, 2, 1, 1)
	p.AddParameter(StreamSetupTag, ParamDataID, 2, 2, 1, 1)
	p.AddParameter(StreamSetupTag, ParamDataType, 1, 1, 1, 1)

	p.AddParameter(StreamTestTag, ParamClientID, 4, 4, 1, 1)
	p.AddParameter(StreamTestTag, ParamDataChannelID, 2, 2, 1, 1)
	p.AddParameter(StreamTestTag, ParamDataStreamID, 2, 2, 1, 1)

	p.AddParameter(StreamStatusTag, ParamClientID, 4, 4, 1, 1)
	p.AddParameter(StreamStatusTag, ParamDataChannelID, 2, 2, 1, 1)
	p.AddParameter(StreamStatusTag, ParamDataStreamID, 2, 2, 1, 1)
	p.AddParameter(StreamStatusTag, ParamDataID, 2, 2, 1, 1)
	p.AddParameter(StreamStatusTag, ParamDataType, 1, 1, 1, 1)

	p.AddParameter(StreamCloseRequestTag, ParamClientID, 4, 4, 1, 1)
	p.AddParameter(StreamCloseRequestTag, ParamDataChannelID, 2, 2, 1, 1)
	p.AddParameter(StreamCloseRequestTag, ParamDataStreamID, 2, 2, 1, 1)

	p.AddParameter(StreamCloseResponseTag, ParamClientID, 4, 4, 1, 1)
	p.AddParameter(StreamCloseResponseTag, ParamDataChannelID, 2, 2, 1, 1)
	p.AddParameter(StreamCloseResponseTag, ParamDataStreamID, 2, 2, 1, 1)

	p.AddParameter(StreamErrorTag, ParamClientID, 4, 4, 1, 1)
	p.AddParameter(StreamErrorTag, ParamDataChannelID, 2, 2, 1, 1)
	p.AddParameter(StreamErrorTag, ParamDataStreamID, 2, 2, 1, 1)
	p.AddParameter(StreamErrorTag, ParamErrorStatus, 2, 2, 1, 0xFFFF)
	p.AddParameter(StreamErrorTag, ParamErrorInformation, 2, 2, 0, 0xFFFF)

	p.AddParameter(StreamBWRequestTag, ParamClientID, 4, 4, 1, 1)
	p.AddParameter(StreamBWRequestTag, ParamDataChannelID, 2, 2, 1, 1)
	p.AddParameter(StreamBWRequestTag, ParamDataStreamID, 2, 2, 1, 1)
	p.AddParameter(StreamBWRequestTag, ParamBandwidth, 2, 2, 0, 1)

	p.AddParameter(StreamBWAllocationTag, ParamClientID, 4, 4, 1, 1)
	p.AddParameter(StreamBWAllocationTag, ParamDataChannelID, 2, 2, 1, 1)
	p.AddParameter(StreamBWAllocationTag, ParamDataStreamID, 2, 2, 1, 1)
	p.AddParameter(StreamBWAllocationTag, ParamBandwidth, 2, 2, 0, 1)

	p.AddParameter(DataProvisionTag, ParamClientID, 4, 4, 1, 1)
	p.AddParameter(DataProvisionTag, ParamDataChannelID, 2, 2, 0, 1)
	p.AddParameter(DataProvisionTag, ParamDataStreamID, 2, 2, 0, 1)
	p.AddParameter(DataProvisionTag, ParamDataID, 2, 2, 1, 1)
	p.AddParameter(DataProvisionTag, ParamDatagram, 0, 0xFFFF, 1, 0xFFFF)

	p.Binding = binding{}
	return p
}
