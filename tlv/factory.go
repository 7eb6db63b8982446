package tlv

// Parameter is a zero-copy view into the buffer a MessageFactory borrowed:
// an offset (for error-offset translation) and the value bytes. Child is
// set when the parameter was declared compound, and is itself a validated
// MessageFactory over the parameter's value.
type Parameter struct {
	Offset int
	Value  []byte
	Child  *MessageFactory
}

// MessageFactory deserializes and validates one TLV-encoded buffer against
// a Protocol, following the pipeline in spec section 4.3. It never panics
// outward from New: a structural problem is recorded in Err() instead.
// Typed accessors (Uint16, Bytes, Sub, ...) panic with *InternalError when
// asked for a parameter the descriptor did not guarantee — that indicates
// a bug in the calling binding, not a peer fault, and is recovered by
// MessageFactory.BuildMessage at the package boundary.
//
// Grounded on TSDuck's tstlvMessageFactory.{h,cpp}.
type MessageFactory struct {
	buf        []byte
	protocol   *Protocol
	err        *Error
	version    Version
	commandTag Tag
	params     map[Tag][]Parameter
}

// NewMessageFactory borrows buf for the lifetime of the returned factory
// and validates it against p.
func NewMessageFactory(buf []byte, p *Protocol) *MessageFactory {
	f := &MessageFactory{buf: buf, protocol: p, params: map[Tag][]Parameter{}}
	f.analyze()
	return f
}

// Err returns the structural validation error, or nil if buf validated
// cleanly.
func (f *MessageFactory) Err() *Error { return f.err }

// CommandTag returns the outer command tag (valid even when a later
// validation step failed, as long as the outer TLV itself parsed).
func (f *MessageFactory) CommandTag() Tag { return f.commandTag }

// ProtocolVersion returns the version byte, if the protocol has one.
func (f *MessageFactory) ProtocolVersion() Version { return f.version }

// Protocol returns the protocol this factory validated against.
func (f *MessageFactory) Protocol() *Protocol { return f.protocol }

func (f *MessageFactory) analyze() {
	headerSize := 0
	if f.protocol.HasVersion() {
		headerSize = 1
		if len(f.buf) < 1 {
			f.err = offsetErr(InvalidMessage, 0)
			return
		}
		f.version = Version(f.buf[0])
		if f.version != f.protocol.Version() {
			f.err = offsetErr(UnsupportedVersion, 0)
			return
		}
	}

	cmdAnl := NewAnalyzer(f.buf[headerSize:])
	if cmdAnl.EOM() || !cmdAnl.Valid() {
		f.err = offsetErr(InvalidMessage, headerSize)
		return
	}

	f.commandTag = cmdAnl.Tag()
	paramsValue := cmdAnl.Value()

	cmd, ok := f.protocol.command(f.commandTag)
	if !ok {
		f.err = offsetErr(UnknownCommandTag, headerSize)
		return
	}

	// offset of the parameter list within f.buf, for translating
	// parameter-level offsets back into the outermost coordinate system.
	paramsBase := headerSize + 4

	parmAnl := NewAnalyzer(paramsValue)
	for !parmAnl.EOM() {
		parmTag := parmAnl.Tag()
		fieldOffset := paramsBase + parmAnl.FieldOffset()
		value := parmAnl.Value()

		desc, ok := cmd.Params[parmTag]
		if !ok {
			f.err = offsetErr(UnknownParameterTag, fieldOffset)
			return
		}

		if desc.IsCompound() {
			child := NewMessageFactory(value, desc.Compound)
			if child.err != nil {
				childErr := *child.err
				if childErr.IsOffset {
					childErr.Info += uint16(fieldOffset + 4)
				}
				f.err = &childErr
				return
			}
			f.params[parmTag] = append(f.params[parmTag], Parameter{Offset: fieldOffset, Value: value, Child: child})
		} else if len(value) < desc.MinSize || len(value) > desc.MaxSize {
			f.err = offsetErr(InvalidParameterLength, fieldOffset)
			return
		} else {
			f.params[parmTag] = append(f.params[parmTag], Parameter{Offset: fieldOffset, Value: value})
		}

		parmAnl.Next()
	}

	if !parmAnl.Valid() {
		f.err = offsetErr(InvalidMessage, paramsBase+parmAnl.FieldOffset())
		return
	}

	for tag, desc := range cmd.Params {
		count := len(f.params[tag])
		if count < desc.MinCount || count > desc.MaxCount {
			if count == 0 && desc.MinCount > 0 {
				f.err = tagErr(MissingParameter, tag)
			} else {
				f.err = tagErr(InvalidParameterCount, tag)
			}
			return
		}
	}
}

// Count returns how many times tag occurred in the validated command.
func (f *MessageFactory) Count(tag Tag) int { return len(f.params[tag]) }

// Params returns every occurrence of tag, in wire order.
func (f *MessageFactory) Params(tag Tag) []Parameter { return f.params[tag] }

func (f *MessageFactory) first(tag Tag) Parameter {
	ps := f.params[tag]
	if len(ps) == 0 {
		panic(internalErrf("no parameter 0x%04X in message", tag))
	}
	return ps[0]
}

func (f *MessageFactory) checkSize(tag Tag, want int, got int) {
	if got != want {
		panic(internalErrf("parameter 0x%04X has size %d, expected %d", tag, got, want))
	}
}

// Uint8 returns the first occurrence of tag as a 1-byte unsigned integer.
func (f *MessageFactory) Uint8(tag Tag) uint8 {
	p := f.first(tag)
	f.checkSize(tag, 1, len(p.Value))
	return getUint8(p.Value)
}

// Uint16 returns the first occurrence of tag as a 2-byte big-endian
// unsigned integer.
func (f *MessageFactory) Uint16(tag Tag) uint16 {
	p := f.first(tag)
	f.checkSize(tag, 2, len(p.Value))
	return getUint16(p.Value)
}

// Uint32 returns the first occurrence of tag as a 4-byte big-endian
// unsigned integer.
func (f *MessageFactory) Uint32(tag Tag) uint32 {
	p := f.first(tag)
	f.checkSize(tag, 4, len(p.Value))
	return getUint32(p.Value)
}

// Uint64 returns the first occurrence of tag as an 8-byte big-endian
// unsigned integer.
func (f *MessageFactory) Uint64(tag Tag) uint64 {
	p := f.first(tag)
	f.checkSize(tag, 8, len(p.Value))
	return getUint64(p.Value)
}

func (f *MessageFactory) Int8(tag Tag) int8   { return int8(f.Uint8(tag)) }
func (f *MessageFactory) Int16(tag Tag) int16 { return int16(f.Uint16(tag)) }
func (f *MessageFactory) Int32(tag Tag) int32 { return int32(f.Uint32(tag)) }
func (f *MessageFactory) Int64(tag Tag) int64 { return int64(f.Uint64(tag)) }

// Bool returns the first occurrence of tag, true for any non-zero byte.
func (f *MessageFactory) Bool(tag Tag) bool {
	p := f.first(tag)
	f.checkSize(tag, 1, len(p.Value))
	return p.Value[0] != 0
}

// Bytes returns a copy of the first occurrence of tag's raw value.
func (f *MessageFactory) Bytes(tag Tag) []byte {
	p := f.first(tag)
	out := make([]byte, len(p.Value))
	copy(out, p.Value)
	return out
}

// BytesSlice returns a copy of every occurrence of tag's raw value, in
// wire order.
func (f *MessageFactory) BytesSlice(tag Tag) [][]byte {
	ps := f.params[tag]
	out := make([][]byte, len(ps))
	for i, p := range ps {
		out[i] = append([]byte(nil), p.Value...)
	}
	return out
}

// Uint16Slice returns every occurrence of tag as a 2-byte unsigned integer,
// in wire order.
func (f *MessageFactory) Uint16Slice(tag Tag) []uint16 {
	ps := f.params[tag]
	out := make([]uint16, len(ps))
	for i, p := range ps {
		f.checkSize(tag, 2, len(p.Value))
		out[i] = getUint16(p.Value)
	}
	return out
}

// String returns the first occurrence of tag decoded as a UTF-8 string.
func (f *MessageFactory) String(tag Tag) string {
	p := f.first(tag)
	return string(p.Value)
}

// Sub returns the validated child MessageFactory for the first occurrence
// of a compound parameter tag.
func (f *MessageFactory) Sub(tag Tag) *MessageFactory {
	p := f.first(tag)
	if p.Child == nil {
		panic(internalErrf("parameter 0x%04X is not a compound TLV", tag))
	}
	return p.Child
}

// SubAll returns the validated child MessageFactory for every occurrence
// of a compound parameter tag, in wire order.
func (f *MessageFactory) SubAll(tag Tag) []*MessageFactory {
	ps := f.params[tag]
	out := make([]*MessageFactory, len(ps))
	for i, p := range ps {
		if p.Child == nil {
			panic(internalErrf("occurrence %d of parameter 0x%04X is not a compound TLV", i, tag))
		}
		out[i] = p.Child
	}
	return out
}

// BuildMessage runs the protocol's Binding.Factory against f, recovering
// any *InternalError panic raised by a typed accessor into a returned
// error so that a descriptor/binding bug never escapes as a Go panic.
func (f *MessageFactory) BuildMessage() (msg Message, err error) {
	if f.err != nil {
		return nil, f.err
	}
	defer func() {
		if r := recover(); r != nil {
			if ie, ok := r.(*InternalError); ok {
				err = ie
				return
			}
			panic(r)
		}
	}()
	return f.protocol.Binding.Factory(f)
}

// BuildErrorResponse produces the protocol's canonical error reply for a
// MessageFactory that failed validation, or nil if it validated cleanly.
func (f *MessageFactory) BuildErrorResponse() Message {
	if f.err == nil {
		return nil
	}
	return f.protocol.Binding.BuildErrorResponse(f)
}
