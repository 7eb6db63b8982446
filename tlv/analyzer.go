package tlv

// Analyzer is a forward-only cursor over a flat sequence of TLV fields
// packed into base[0:size]. It never panics: a truncated header or value
// flips Valid() to false and EOM() to true, and subsequent Next() calls
// become no-ops. Grounded on TSDuck's tstlvAnalyzer.{h,cpp}.
type Analyzer struct {
	base    []byte
	eom     bool
	valid   bool
	tlvAddr int // offset of current TLV header within base
	tlvSize int
	tag     Tag
	valAddr int // offset of current value within base
	length  Length
}

// NewAnalyzer positions the cursor at the first TLV in base. An empty
// buffer yields EOM()==true, Valid()==true.
func NewAnalyzer(base []byte) *Analyzer {
	a := &Analyzer{
		base:  base,
		eom:   len(base) == 0,
		valid: true,
	}
	a.next()
	return a
}

// Next advances to the following TLV field.
func (a *Analyzer) Next() { a.next() }

func (a *Analyzer) next() {
	if a.eom || !a.valid {
		return
	}

	nextAddr := a.valAddr + int(a.length)
	if nextAddr == len(a.base) {
		a.eom = true
		a.tlvAddr = nextAddr
		return
	}

	if nextAddr+4 > len(a.base) {
		a.eom = true
		a.valid = false
		return
	}

	a.tlvAddr = nextAddr
	a.tag = Tag(getUint16(a.base[nextAddr : nextAddr+2]))
	a.length = Length(getUint16(a.base[nextAddr+2 : nextAddr+4]))
	a.valAddr = nextAddr + 4
	a.tlvSize = a.valAddr + int(a.length) - a.tlvAddr

	if a.valAddr+int(a.length) > len(a.base) {
		a.eom = true
		a.valid = false
	}
}

// EOM reports whether the end of the message has been reached.
func (a *Analyzer) EOM() bool { return a.eom }

// Valid reports whether the structure scanned so far is intact.
func (a *Analyzer) Valid() bool { return a.valid }

// Tag returns the tag of the current TLV field.
func (a *Analyzer) Tag() Tag { return a.tag }

// Length returns the value length of the current TLV field.
func (a *Analyzer) Length() Length { return a.length }

// Value returns the value bytes of the current TLV field.
func (a *Analyzer) Value() []byte { return a.base[a.valAddr : a.valAddr+int(a.length)] }

// FieldOffset returns the offset of the current TLV header within base.
func (a *Analyzer) FieldOffset() int { return a.tlvAddr }

// FieldSize returns the total size (header + value) of the current field.
func (a *Analyzer) FieldSize() int { return a.tlvSize }
