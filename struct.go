package capnp

import (
	"math"
)

// structFlags holds out-of-band bits about a Struct that do not fit in
// its ObjectSize, encoded in the low 6 bits shared with listFlags inside
// a ptrFlags/Ptr.
type structFlags uint8

// isListMember marks a Struct that was synthesized from a primitive
// list element promoted to struct shape: only field index 0 is
// addressable, and the struct has zero pointer words regardless of its
// nominal size.
const isListMember structFlags = 1 << 0

// A Struct is a non-owning handle to a struct laid out in a segment.
// It is cheap to copy and carries no ownership.
type Struct struct {
	seg        *Segment
	off        address
	size       ObjectSize
	flags      structFlags
	depthLimit uint
}

// NewStruct allocates sz worth of data and pointer words in msg, at the
// segment chosen by the message's allocator, and returns a handle to
// it.
func NewStruct(msg *Message, sz ObjectSize) (Struct, error) {
	return newStructIn(msg, sz)
}

func newStructIn(a segmentAllocator, sz ObjectSize) (Struct, error) {
	if !sz.isValid() {
		return Struct{}, annotatef(ErrOversizedList, "new struct: data size %d out of range", sz.DataSize)
	}
	sz.DataSize = sz.DataSize.padToWord()
	seg, addr, err := a.Allocate(sz.totalSize())
	if err != nil {
		return Struct{}, annotatef(err, "new struct")
	}
	return Struct{
		seg:        seg,
		off:        addr,
		size:       sz,
		depthLimit: maxDepth,
	}, nil
}

// ToPtr returns a Ptr that references s.  The zero Struct converts to
// the null pointer.
func (s Struct) ToPtr() Ptr {
	if s.seg == nil {
		return Ptr{}
	}
	return Ptr{
		seg:        s.seg,
		off:        s.off,
		size:       s.size,
		depthLimit: s.depthLimit,
		flags:      structPtrFlag(s.flags),
	}
}

// Segment returns the segment s is stored in, or nil if s is the zero
// Struct.
func (s Struct) Segment() *Segment {
	return s.seg
}

// Size returns s's data and pointer word counts.  For a struct
// synthesized from an upgraded list element, PointerCount always reads
// 0 regardless of the underlying tag.
func (s Struct) Size() ObjectSize {
	if s.flags&isListMember != 0 {
		return ObjectSize{DataSize: s.size.DataSize}
	}
	return s.size
}

// IsValid reports whether s refers to an actual struct (as opposed to
// the zero value returned for a null or defaulted pointer).
func (s Struct) IsValid() bool {
	return s.seg != nil
}

// readSize returns the number of bytes to charge against the read
// traversal budget for having reached s.
func (s Struct) readSize() Size {
	return s.size.totalSize()
}

// dataSlice returns the slice backing s's data section, or nil for the
// zero Struct.
func (s Struct) dataSlice() []byte {
	if s.seg == nil {
		return nil
	}
	return s.seg.slice(s.off, s.size.DataSize)
}

// --- primitive accessors -------------------------------------------------

// Bool reads the bit at off within s's data section, returning def if s
// is the zero Struct or off is beyond s's data section (the
// short-struct default rule), XORed as Cap'n Proto's default encoding
// requires.
func (s Struct) Bool(off BitOffset, def bool) bool {
	if s.seg == nil {
		return def
	}
	byteOff := off.offset()
	if Size(byteOff) >= s.size.DataSize {
		return def
	}
	v := s.seg.readUint8(s.off.addOffset(byteOff))&off.mask() != 0
	return v != def
}

// SetBool sets the bit at off within s's data section to v, storing the
// XOR with def so that writing def leaves the underlying bit zero.
func (s Struct) SetBool(off BitOffset, v, def bool) error {
	byteOff := off.offset()
	if Size(byteOff) >= s.size.DataSize {
		if v == def {
			return nil // silently discarded: matches the all-default value
		}
		return annotatef(ErrShortStruct, "set bit %v", off)
	}
	addr := s.off.addOffset(byteOff)
	bit := v != def
	cur := s.seg.readUint8(addr)
	if bit {
		cur |= off.mask()
	} else {
		cur &^= off.mask()
	}
	s.seg.writeUint8(addr, cur)
	return nil
}

func (s Struct) uint64At(off DataOffset, def uint64) uint64 {
	if s.seg == nil || Size(off)+8 > s.size.DataSize {
		return def
	}
	return s.seg.readUint64(s.off.addOffset(off)) ^ def
}

func (s Struct) setUint64At(off DataOffset, v, def uint64) error {
	if Size(off)+8 > s.size.DataSize {
		if v == def {
			return nil
		}
		return annotatef(ErrShortStruct, "set field at %v", off)
	}
	s.seg.writeUint64(s.off.addOffset(off), v^def)
	return nil
}

// Uint8 reads an 8-bit unsigned field at byte offset off, XORed with def.
func (s Struct) Uint8(off DataOffset, def uint8) uint8 {
	if s.seg == nil || Size(off)+1 > s.size.DataSize {
		return def
	}
	return s.seg.readUint8(s.off.addOffset(off)) ^ def
}

// SetUint8 writes v XOR def as an 8-bit unsigned field at byte offset off.
func (s Struct) SetUint8(off DataOffset, v, def uint8) error {
	if Size(off)+1 > s.size.DataSize {
		if v == def {
			return nil
		}
		return annotatef(ErrShortStruct, "set field at %v", off)
	}
	s.seg.writeUint8(s.off.addOffset(off), v^def)
	return nil
}

// Uint16 reads a 16-bit unsigned field at byte offset off, XORed with def.
func (s Struct) Uint16(off DataOffset, def uint16) uint16 {
	if s.seg == nil || Size(off)+2 > s.size.DataSize {
		return def
	}
	return s.seg.readUint16(s.off.addOffset(off)) ^ def
}

// SetUint16 writes v XOR def as a 16-bit unsigned field at byte offset off.
func (s Struct) SetUint16(off DataOffset, v, def uint16) error {
	if Size(off)+2 > s.size.DataSize {
		if v == def {
			return nil
		}
		return annotatef(ErrShortStruct, "set field at %v", off)
	}
	s.seg.writeUint16(s.off.addOffset(off), v^def)
	return nil
}

// Uint32 reads a 32-bit unsigned field at byte offset off, XORed with def.
func (s Struct) Uint32(off DataOffset, def uint32) uint32 {
	if s.seg == nil || Size(off)+4 > s.size.DataSize {
		return def
	}
	return s.seg.readUint32(s.off.addOffset(off)) ^ def
}

// SetUint32 writes v XOR def as a 32-bit unsigned field at byte offset off.
func (s Struct) SetUint32(off DataOffset, v, def uint32) error {
	if Size(off)+4 > s.size.DataSize {
		if v == def {
			return nil
		}
		return annotatef(ErrShortStruct, "set field at %v", off)
	}
	s.seg.writeUint32(s.off.addOffset(off), v^def)
	return nil
}

// Uint64 reads a 64-bit unsigned field at byte offset off, XORed with def.
func (s Struct) Uint64(off DataOffset, def uint64) uint64 {
	return s.uint64At(off, def)
}

// SetUint64 writes v XOR def as a 64-bit unsigned field at byte offset off.
func (s Struct) SetUint64(off DataOffset, v, def uint64) error {
	return s.setUint64At(off, v, def)
}

// Int8 reads an 8-bit signed field at byte offset off, XORed with def.
func (s Struct) Int8(off DataOffset, def int8) int8 {
	return int8(s.Uint8(off, uint8(def)))
}

// SetInt8 writes v XOR def as an 8-bit signed field at byte offset off.
func (s Struct) SetInt8(off DataOffset, v, def int8) error {
	return s.SetUint8(off, uint8(v), uint8(def))
}

// Int16 reads a 16-bit signed field at byte offset off, XORed with def.
func (s Struct) Int16(off DataOffset, def int16) int16 {
	return int16(s.Uint16(off, uint16(def)))
}

// SetInt16 writes v XOR def as a 16-bit signed field at byte offset off.
func (s Struct) SetInt16(off DataOffset, v, def int16) error {
	return s.SetUint16(off, uint16(v), uint16(def))
}

// Int32 reads a 32-bit signed field at byte offset off, XORed with def.
func (s Struct) Int32(off DataOffset, def int32) int32 {
	return int32(s.Uint32(off, uint32(def)))
}

// SetInt32 writes v XOR def as a 32-bit signed field at byte offset off.
func (s Struct) SetInt32(off DataOffset, v, def int32) error {
	return s.SetUint32(off, uint32(v), uint32(def))
}

// Int64 reads a 64-bit signed field at byte offset off, XORed with def.
func (s Struct) Int64(off DataOffset, def int64) int64 {
	return int64(s.Uint64(off, uint64(def)))
}

// SetInt64 writes v XOR def as a 64-bit signed field at byte offset off.
func (s Struct) SetInt64(off DataOffset, v, def int64) error {
	return s.SetUint64(off, uint64(v), uint64(def))
}

// Float32 reads a 32-bit float field at byte offset off, XORed (as raw
// bits) with def.
func (s Struct) Float32(off DataOffset, def float32) float32 {
	bits := s.Uint32(off, math.Float32bits(def))
	return math.Float32frombits(bits)
}

// SetFloat32 writes v XOR def (as raw bits) as a 32-bit float field at
// byte offset off.
func (s Struct) SetFloat32(off DataOffset, v, def float32) error {
	return s.SetUint32(off, math.Float32bits(v), math.Float32bits(def))
}

// Float64 reads a 64-bit float field at byte offset off, XORed (as raw
// bits) with def.
func (s Struct) Float64(off DataOffset, def float64) float64 {
	bits := s.Uint64(off, math.Float64bits(def))
	return math.Float64frombits(bits)
}

// SetFloat64 writes v XOR def (as raw bits) as a 64-bit float field at
// byte offset off.
func (s Struct) SetFloat64(off DataOffset, v, def float64) error {
	return s.SetUint64(off, math.Float64bits(v), math.Float64bits(def))
}

// --- pointer accessors ----------------------------------------------------

// pointerWords reports how many pointer-word slots s actually exposes:
// zero for an upgraded list element, otherwise its declared
// PointerCount.
func (s Struct) pointerWords() uint16 {
	if s.flags&isListMember != 0 {
		return 0
	}
	return s.size.PointerCount
}

func (s Struct) pointerAddr(i uint16) address {
	return s.off.addOffset(DataOffset(s.size.DataSize)).addOffset(DataOffset(i) * DataOffset(wordSize))
}

// pointer returns the raw pointer word at pointer-word index i, or the
// null pointer if i is beyond s's declared pointer words.
func (s Struct) pointer(i uint16) rawPointer {
	if s.seg == nil || i >= s.pointerWords() {
		return 0
	}
	return s.seg.readRawPointer(s.pointerAddr(i))
}

// HasPtr reports whether pointer-word slot i holds a non-null pointer.
func (s Struct) HasPtr(i uint16) bool {
	return s.pointer(i) != 0
}

// Ptr dereferences pointer-word slot i, returning the zero Ptr (the
// "default value") if the slot is out of range or null.
func (s Struct) Ptr(i uint16) (Ptr, error) {
	if s.seg == nil || i >= s.pointerWords() {
		return Ptr{}, nil
	}
	return s.seg.readPtr(s.pointerAddr(i), s.depthLimit)
}

// SetPtr writes src into pointer-word slot i, using a near pointer when
// possible and falling back to far/double-far encoding otherwise.
// Writing to a slot at or beyond s's declared pointer words fails with
// ErrPointerIndexOutOfRange; writing to any slot of an upgraded list
// element fails with ErrUpgradedListElement.
func (s Struct) SetPtr(i uint16, src Ptr) error {
	if s.flags&isListMember != 0 {
		// Upgraded list elements have zero pointer words regardless of
		// index; only field 0's data is addressable.
		return annotatef(ErrUpgradedListElement, "set pointer %d", i)
	}
	if i >= s.size.PointerCount {
		return annotatef(ErrPointerIndexOutOfRange, "set pointer %d: struct has %d pointer words", i, s.size.PointerCount)
	}
	if src.IsValid() && src.seg.msg != s.seg.msg {
		return annotatef(ErrCrossMessagePointer, "set pointer %d", i)
	}
	return s.seg.writePtr(s.pointerAddr(i), src, false)
}

// SetCapability locates client in the message's capability table
// (interning it if absent) and writes an "other" pointer referencing it
// into pointer-word slot i.
func (s Struct) SetCapability(i uint16, client Client) error {
	id := s.seg.msg.AddCap(client)
	return s.SetPtr(i, NewInterface(s.seg, id).ToPtr())
}
