package tlv

// ParameterDescriptor declares the allowed shape of one parameter inside
// one command: its value size range (ignored for compound parameters) and
// how many times it may occur. Compound points at the child Protocol a
// compound TLV's value must itself parse against.
type ParameterDescriptor struct {
	MinSize  int
	MaxSize  int
	MinCount int
	MaxCount int
	Compound *Protocol
}

// IsCompound reports whether this parameter is itself a nested TLV message.
func (p ParameterDescriptor) IsCompound() bool { return p.Compound != nil }

// CommandDescriptor maps a command's declared parameter tags to their
// descriptors. A command with an empty Params map is still legal.
type CommandDescriptor struct {
	Params map[Tag]ParameterDescriptor
}

// Binding is implemented by each concrete protocol (ECMG<->SCS,
// EMMG<->MUX, TSDuck duck-log) on top of a Protocol descriptor. It
// supplies the pieces the generic framework cannot know: which concrete
// Go type a validated command becomes, and how a structural error turns
// into that protocol's wire-level error reply.
type Binding interface {
	// Factory constructs the concrete Message for a successfully
	// validated MessageFactory. It must return an *InternalError if the
	// descriptor declares a command tag with no corresponding case here.
	Factory(fact *MessageFactory) (Message, error)

	// BuildErrorResponse produces the protocol's canonical error reply
	// for a MessageFactory that failed validation.
	BuildErrorResponse(fact *MessageFactory) Message
}

// Protocol is a declarative command/parameter syntax table: identity name,
// optional version byte, and a map from command tag to its descriptor.
// Grounded on TSDuck's tstlvProtocol.{h,cpp}.
type Protocol struct {
	ProtocolName string
	version      Version
	hasVersion   bool
	commands     map[Tag]CommandDescriptor
	Binding      Binding
}

// NewProtocol creates an unversioned protocol.
func NewProtocol(name string) *Protocol {
	return &Protocol{ProtocolName: name, commands: map[Tag]CommandDescriptor{}}
}

// NewVersionedProtocol creates a protocol that expects a version byte
// prefix on every message.
func NewVersionedProtocol(name string, version Version) *Protocol {
	return &Protocol{ProtocolName: name, version: version, hasVersion: true, commands: map[Tag]CommandDescriptor{}}
}

// Name returns the protocol's diagnostic identity.
func (p *Protocol) Name() string { return p.ProtocolName }

// HasVersion reports whether messages of this protocol carry a version byte.
func (p *Protocol) HasVersion() bool { return p.hasVersion }

// Version returns the protocol's expected version byte.
func (p *Protocol) Version() Version { return p.version }

// AddCommand declares a command with no parameters.
func (p *Protocol) AddCommand(cmd Tag) {
	p.commands[cmd] = CommandDescriptor{Params: map[Tag]ParameterDescriptor{}}
}

// AddParameter declares a leaf (non-compound) parameter inside cmd.
func (p *Protocol) AddParameter(cmd, param Tag, minSize, maxSize, minCount, maxCount int) {
	p.ensureCommand(cmd).Params[param] = ParameterDescriptor{
		MinSize: minSize, MaxSize: maxSize, MinCount: minCount, MaxCount: maxCount,
	}
}

// AddCompoundParameter declares a parameter whose value must itself parse
// as a message of child.
func (p *Protocol) AddCompoundParameter(cmd, param Tag, child *Protocol, minCount, maxCount int) {
	p.ensureCommand(cmd).Params[param] = ParameterDescriptor{
		MinCount: minCount, MaxCount: maxCount, Compound: child,
	}
}

func (p *Protocol) ensureCommand(cmd Tag) CommandDescriptor {
	cd, ok := p.commands[cmd]
	if !ok {
		cd = CommandDescriptor{Params: map[Tag]ParameterDescriptor{}}
		p.commands[cmd] = cd
	}
	return cd
}

// command looks up a command descriptor by tag.
func (p *Protocol) command(cmd Tag) (CommandDescriptor, bool) {
	cd, ok := p.commands[cmd]
	return cd, ok
}

// Commands returns the set of declared command tags, for diagnostics.
func (p *Protocol) Commands() []Tag {
	out := make([]Tag, 0, len(p.commands))
	for t := range p.commands {
		out = append(out, t)
	}
	return out
}
