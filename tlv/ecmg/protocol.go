package ecmg

import "github.com/headend/simulcrypt/tlv"

// NewProtocol builds the ECMG<=>SCS syntax table: every command tag with
// its declared parameters' size and occurrence ranges. Grounded on
// TSDuck's tsECMGSCS.cpp Protocol constructor.
func NewProtocol() *tlv.Protocol {
	p := tlv.NewVersionedProtocol("ECMG<=>SCS", CurrentVersion)

	p.AddParameter(ChannelSetupTag, ParamSuperCASID, 4, 4, 1, 1)
	p.AddParameter(ChannelSetupTag, ParamECMChannelID, 2, 2, 1, 1)

	p.AddParameter(ChannelTestTag, ParamECMChannelID, 2, 2, 1, 1)

	p.AddParameter(ChannelStatusTag, ParamECMChannelID, 2, 2, 1, 1)
	p.AddParameter(ChannelStatusTag, ParamSectionTSpktFlag, 1, 1, 1, 1)
	p.AddParameter(ChannelStatusTag, ParamACDelayStart, 2, 2, 0, 1)
	p.AddParameter(ChannelStatusTag, ParamACDelayStop, 2, 2, 0, 1)
	p.AddParameter(ChannelStatusTag, ParamDelayStart, 2, 2, 1, 1)
	p.AddParameter(ChannelStatusTag, ParamDelayStop, 2, 2, 1, 1)
	p.AddParameter(ChannelStatusTag, ParamTransitionDelayStart, 2, 2, 0, 1)
	p.AddParameter(ChannelStatusTag, ParamTransitionDelayStop, 2, 2, 0, 1)
	p.AddParameter(ChannelStatusTag, ParamECMRepPeriod, 2, 2, 1, 1)
	p.AddParameter(ChannelStatusTag, ParamMaxStreams, 2, 2, 1, 1)
	p.AddParameter(ChannelStatusTag, ParamMinCPDuration, 2, 2, 1, 1)
	p.AddParameter(ChannelStatusTag, ParamLeadCW, 1, 1, 1, 1)
	p.AddParameter(ChannelStatusTag, ParamCWPerMsg, 1, 1, 1, 1)
	p.AddParameter(ChannelStatusTag, ParamMaxCompTime, 2, 2, 1, 1)

	p.AddParameter(ChannelCloseTag, ParamECMChannelID, 2, 2, 1, 1)

	p.AddParameter(ChannelErrorTag, ParamECMChannelID, 2, 2, 1, 1)
	p.AddParameter(ChannelErrorTag, ParamErrorStatus, 2, 2, 1, 0xFFFF)
	p.AddParameter(ChannelErrorTag, ParamErrorInformation, 2, 2, 0, 0xFFFF)

	p.AddParameter(StreamSetupTag, ParamECMChannelID, 2, 2, 1, 1)
	p.AddParameter(StreamSetupTag, ParamECMStreamID, 2, 2, 1, 1)
	p.AddParameter(StreamSetupTag, ParamECMID, 2, 2, 1, 1)
	p.AddParameter(StreamSetupTag, ParamNominalCPDuration, 2, 2, 1, 1)

	p.AddParameter(StreamTestTag, ParamECMChannelID, 2, 2, 1, 1)
	p.AddParameter(StreamTestTag, ParamECMStreamID, 2, 2, 1, 1)

	p.AddParameter(StreamStatusTag, ParamECMChannelID, 2, 2, 1, 1)
	p.AddParameter(StreamStatusTag, ParamECMStreamID, 2, 2, 1, 1)
	p.AddParameter(StreamStatusTag, ParamECMID, 2, 2, 1, 1)
	p.AddParameter(StreamStatusTag, ParamAccessCriteriaTransferMode, 1, 1, 1, 1)

	p.AddParameter(StreamCloseRequestTag, ParamECMChannelID, 2, 2, 1, 1)
	p.AddParameter(StreamCloseRequestTag, ParamECMStreamID, 2, 2, 1, 1)

	p.AddParameter(StreamCloseResponseTag, ParamECMChannelID, 2, 2, 1, 1)
	p.AddParameter(StreamCloseResponseTag, ParamECMStreamID, 2, 2, 1, 1)

	p.AddParameter(StreamErrorTag, ParamECMChannelID, 2, 2, 1, 1)
	p.AddParameter(StreamErrorTag, ParamECMStreamID, 2, 2, 1, 1)
	p.AddParameter(StreamErrorTag, ParamErrorStatus, 2, 2, 1, 0xFFFF)
	p.AddParameter(StreamErrorTag, ParamErrorInformation, 2, 2, 0, 0xFFFF)

	p.AddParameter(CWProvisionTag, ParamECMChannelID, 2, 2, 1, 1)
	p.AddParameter(CWProvisionTag, ParamECMStreamID, 2, 2, 1, 1)
	p.AddParameter(CWProvisionTag, ParamCPNumber, 2, 2, 1, 1)
	p.AddParameter(CWProvisionTag, ParamCWEncryption, 0, 0xFFFF, 0, 1)
	p.AddParameter(CWProvisionTag, ParamCPCWCombination, 2, 0xFFFF, 0, 0xFFFF)
	p.AddParameter(CWProvisionTag, ParamCPDuration, 2, 2, 0, 1)
	p.AddParameter(CWProvisionTag, ParamAccessCriteria, 0, 0xFFFF, 0, 1)

	p.AddParameter(ECMResponseTag, ParamECMChannelID, 2, 2, 1, 1)
	p.AddParameter(ECMResponseTag, ParamECMStreamID, 2, 2, 1, 1)
	p.AddParameter(ECMResponseTag, ParamCPNumber, 2, 2, 1, 1)
	p.AddParameter(ECMResponseTag, ParamECMDatagram, 0, 0xFFFF, 1, 1)

	p.Binding = binding{}
	return p
}
