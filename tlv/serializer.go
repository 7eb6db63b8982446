package tlv

// Serializer appends TLV-encoded data to a growable buffer. OpenTLV and
// the TLVHandle it returns implement the back-patching length field
// described in spec section 4.4: the 2-byte length placeholder is
// reserved up front and filled in once the caller knows how many bytes
// it wrote. Grounded on TSDuck's tstlvSerializer.{h,cpp}.
type Serializer struct {
	buf  []byte
	open *TLVHandle // non-nil while a TLV is open on this serializer
}

// NewSerializer returns an empty serializer.
func NewSerializer() *Serializer {
	return &Serializer{}
}

// Bytes returns the accumulated buffer, force-closing any TLV left open
// by the caller — the Go equivalent of the C++ destructor's implicit
// closeTLV described in spec section 4.4 and the section 9 redesign note.
func (s *Serializer) Bytes() []byte {
	for s.open != nil {
		s.open.Close()
	}
	return s.buf
}

// PutUint8 appends a single byte.
func (s *Serializer) PutUint8(v uint8) { s.buf = append(s.buf, v) }

// PutUint16 appends a big-endian uint16.
func (s *Serializer) PutUint16(v uint16) {
	s.buf = append(s.buf, byte(v>>8), byte(v))
}

// PutUint32 appends a big-endian uint32.
func (s *Serializer) PutUint32(v uint32) {
	s.buf = append(s.buf, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

// PutUint64 appends a big-endian uint64.
func (s *Serializer) PutUint64(v uint64) {
	s.buf = append(s.buf,
		byte(v>>56), byte(v>>48), byte(v>>40), byte(v>>32),
		byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

func (s *Serializer) PutInt8(v int8)   { s.PutUint8(uint8(v)) }
func (s *Serializer) PutInt16(v int16) { s.PutUint16(uint16(v)) }
func (s *Serializer) PutInt32(v int32) { s.PutUint32(uint32(v)) }
func (s *Serializer) PutInt64(v int64) { s.PutUint64(uint64(v)) }

// PutBytes appends an opaque byte range verbatim.
func (s *Serializer) PutBytes(v []byte) { s.buf = append(s.buf, v...) }

// PutString appends the raw bytes of a string.
func (s *Serializer) PutString(v string) { s.buf = append(s.buf, v...) }

// PutBool appends a single byte, 1 for true and 0 for false.
func (s *Serializer) PutBool(v bool) {
	if v {
		s.PutUint8(1)
	} else {
		s.PutUint8(0)
	}
}

func (s *Serializer) putTLVHeader(tag Tag) (lenOffset int) {
	s.PutUint16(uint16(tag))
	lenOffset = len(s.buf)
	s.PutUint16(0) // placeholder, back-patched by closeAt
	return
}

// PutUint8Param writes tag, a length of 1, and v.
func (s *Serializer) PutUint8Param(tag Tag, v uint8) {
	off := s.putTLVHeader(tag)
	s.PutUint8(v)
	s.closeAt(off)
}

// PutUint16Param writes tag, a length of 2, and v.
func (s *Serializer) PutUint16Param(tag Tag, v uint16) {
	off := s.putTLVHeader(tag)
	s.PutUint16(v)
	s.closeAt(off)
}

// PutUint32Param writes tag, a length of 4, and v.
func (s *Serializer) PutUint32Param(tag Tag, v uint32) {
	off := s.putTLVHeader(tag)
	s.PutUint32(v)
	s.closeAt(off)
}

// PutInt16Param writes tag, a length of 2, and the two's-complement of v.
func (s *Serializer) PutInt16Param(tag Tag, v int16) {
	off := s.putTLVHeader(tag)
	s.PutInt16(v)
	s.closeAt(off)
}

// PutBoolParam writes tag, a length of 1, and 0/1 for v.
func (s *Serializer) PutBoolParam(tag Tag, v bool) {
	off := s.putTLVHeader(tag)
	s.PutBool(v)
	s.closeAt(off)
}

// PutBytesParam writes tag, len(v), and v verbatim.
func (s *Serializer) PutBytesParam(tag Tag, v []byte) {
	off := s.putTLVHeader(tag)
	s.PutBytes(v)
	s.closeAt(off)
}

func (s *Serializer) closeAt(lenOffset int) {
	n := len(s.buf) - (lenOffset + 2)
	putUint16(s.buf[lenOffset:lenOffset+2], uint16(n))
}

// TLVHandle represents one opened, not-yet-closed TLV field.
type TLVHandle struct {
	s         *Serializer
	lenOffset int
	closed    bool
}

// OpenTLV writes tag and a length placeholder, and marks this serializer
// as having an open TLV. It is an implementation error (it panics) to
// call OpenTLV again before the returned handle is closed, matching the
// C++ "open while already open" contract in spec section 4.4.
func (s *Serializer) OpenTLV(tag Tag) *TLVHandle {
	if s.open != nil {
		panic("tlv: OpenTLV called while a TLV is already open on this serializer")
	}
	off := s.putTLVHeader(tag)
	h := &TLVHandle{s: s, lenOffset: off}
	s.open = h
	return h
}

// Close back-patches the length field with the number of bytes written
// since OpenTLV. Closing an already-closed handle is a no-op.
func (h *TLVHandle) Close() {
	if h.closed {
		return
	}
	h.s.closeAt(h.lenOffset)
	h.closed = true
	if h.s.open == h {
		h.s.open = nil
	}
}

// Sub returns the serializer this handle was opened on, not a separate
// nested one; that serializer still has this TLV open, so calling OpenTLV
// on it panics. Writes through it with the Put*Param helpers land inside
// this TLV's value.
func (h *TLVHandle) Sub() *Serializer {
	return h.s
}
