package capnp

import "bytes"

// Ptr is a handle to a struct, list, or interface pointer somewhere in
// a message. The zero value is the null pointer.
type Ptr struct {
	seg        *Segment
	off        address
	lenOrCap   uint32
	size       ObjectSize
	depthLimit uint
	flags      ptrFlags
}

// Struct views p as a Struct, or the zero Struct if p does not hold a
// struct pointer.
func (p Ptr) Struct() Struct {
	if p.flags.ptrType() != structPtrType {
		return Struct{}
	}
	return Struct{
		seg:        p.seg,
		off:        p.off,
		size:       p.size,
		flags:      p.flags.structFlags(),
		depthLimit: p.depthLimit,
	}
}

// StructDefault is like Struct, but falls back to unmarshaling def
// when p does not already hold a struct.
func (p Ptr) StructDefault(def []byte) (Struct, error) {
	if s := p.Struct(); s.seg != nil {
		return s, nil
	}
	if def == nil {
		return Struct{}, nil
	}
	defPtr, err := unmarshalDefault(def)
	if err != nil {
		return Struct{}, err
	}
	return defPtr.Struct(), nil
}

// List views p as a List, or the zero List if p does not hold a list
// pointer.
func (p Ptr) List() List {
	if p.flags.ptrType() != listPtrType {
		return List{}
	}
	return List{
		seg:        p.seg,
		off:        p.off,
		length:     int32(p.lenOrCap),
		size:       p.size,
		flags:      p.flags.listFlags(),
		depthLimit: p.depthLimit,
	}
}

// ListDefault is like List, but falls back to unmarshaling def when p
// does not already hold a list.
func (p Ptr) ListDefault(def []byte) (List, error) {
	if l := p.List(); l.seg != nil {
		return l, nil
	}
	if def == nil {
		return List{}, nil
	}
	defPtr, err := unmarshalDefault(def)
	if err != nil {
		return List{}, err
	}
	return defPtr.List(), nil
}

// Interface views p as an Interface, or the zero Interface if p does
// not hold an interface pointer.
func (p Ptr) Interface() Interface {
	if p.flags.ptrType() != interfacePtrType {
		return Interface{}
	}
	return Interface{
		seg: p.seg,
		cap: CapabilityID(p.lenOrCap),
	}
}

// oneByteListBytes returns the raw bytes backing p when it is a valid
// list of one-byte elements (the shape Text and Data both use), and
// false otherwise. The slice aliases the underlying segment.
func (p Ptr) oneByteListBytes() ([]byte, bool) {
	if !isOneByteList(p) {
		return nil, false
	}
	l := p.List()
	return l.seg.slice(l.off, Size(l.length)), true
}

func (p Ptr) text() ([]byte, bool) {
	b, ok := p.oneByteListBytes()
	if !ok || len(b) == 0 || b[len(b)-1] != 0 {
		// A Text list is always NUL-terminated; without that, this
		// is not really text even though it has the right shape.
		return nil, false
	}
	return b[:len(b)-1 : len(b)], true
}

// Text reads p as a NUL-terminated one-byte list, returning "" if p is
// not one.
func (p Ptr) Text() string {
	return p.TextDefault("")
}

// TextDefault is like Text but returns def when p is not text.
func (p Ptr) TextDefault(def string) string {
	b, ok := p.text()
	if !ok {
		return def
	}
	return string(b)
}

// TextBytes is like Text but returns the underlying bytes without a
// string copy. Callers must not retain the slice past the segment's
// lifetime.
func (p Ptr) TextBytes() []byte {
	b, _ := p.text()
	return b
}

// Data reads p as a byte list, returning nil if p is not one.
func (p Ptr) Data() []byte {
	return p.DataDefault(nil)
}

// DataDefault is like Data but returns def when p is not a byte list.
func (p Ptr) DataDefault(def []byte) []byte {
	b, ok := p.oneByteListBytes()
	if !ok || b == nil {
		return def
	}
	return b
}

// IsValid reports whether p is anything other than the null pointer.
func (p Ptr) IsValid() bool {
	return p.seg != nil
}

// Segment returns the segment p's referent lives in, or nil for a
// null pointer.
func (p Ptr) Segment() *Segment {
	return p.seg
}

// Message returns the message p belongs to, or nil for a null
// pointer.
func (p Ptr) Message() *Message {
	if p.seg == nil {
		return nil
	}
	return p.seg.msg
}

// Default returns p unless it is null, in which case it unmarshals
// and returns def.
func (p Ptr) Default(def []byte) (Ptr, error) {
	if p.IsValid() {
		return p, nil
	}
	return unmarshalDefault(def)
}

// SamePtr reports whether p and q reference the same location.
func SamePtr(p, q Ptr) bool {
	return p.seg == q.seg && p.off == q.off
}

func unmarshalDefault(def []byte) (Ptr, error) {
	if len(def) == 0 {
		return Ptr{}, nil
	}
	msg, err := Unmarshal(def)
	if err != nil {
		return Ptr{}, annotatef(err, "read default")
	}
	root, err := msg.Root()
	if err != nil {
		return Ptr{}, annotatef(err, "read default")
	}
	return root, nil
}

// ptrFlags packs a pointer's dynamic type into its top two bits and a
// type-specific flag set (structFlags or listFlags) into the rest.
type ptrFlags uint8

const (
	structPtrType = iota
	listPtrType
	interfacePtrType
)

const ptrLowerMask ptrFlags = 0x3f

const interfacePtrFlag ptrFlags = interfacePtrType << 6

func structPtrFlag(f structFlags) ptrFlags {
	return structPtrType<<6 | ptrFlags(f)&ptrLowerMask
}

func listPtrFlag(f listFlags) ptrFlags {
	return listPtrType<<6 | ptrFlags(f)&ptrLowerMask
}

func (f ptrFlags) ptrType() int {
	return int(f >> 6)
}

func (f ptrFlags) listFlags() listFlags {
	return listFlags(f & ptrLowerMask)
}

func (f ptrFlags) structFlags() structFlags {
	return structFlags(f & ptrLowerMask)
}

func isZeroFilled(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}

// Equal reports whether p1 and p2 describe the same value:
//
//   - Structs are equal when every field they share is equal and any
//     field present in only the wider struct is zero.
//   - Lists are equal when they have the same length and equal
//     elements pairwise.
//   - Interfaces are equal when they name the same capability, either
//     by table slot identity or by client identity.
//   - Two null pointers are equal; a null and a non-null are not.
func Equal(p1, p2 Ptr) (bool, error) {
	if !p1.IsValid() && !p2.IsValid() {
		return true, nil
	}
	if !p1.IsValid() || !p2.IsValid() {
		return false, nil
	}
	kind := p1.flags.ptrType()
	if kind != p2.flags.ptrType() {
		return false, nil
	}
	switch kind {
	case structPtrType:
		return equalStructs(p1.Struct(), p2.Struct())
	case listPtrType:
		return equalLists(p1.List(), p2.List())
	case interfacePtrType:
		return equalInterfaces(p1.Interface(), p2.Interface()), nil
	default:
		panic("unreachable")
	}
}

// equalDataSections compares two structs' data sections, treating any
// suffix present only in the longer one as needing to be all zero.
func equalDataSections(d1, d2 []byte) bool {
	short, long := d1, d2
	if len(long) < len(short) {
		short, long = long, short
	}
	return bytes.Equal(short, long[:len(short)]) && isZeroFilled(long[len(short):])
}

func equalStructs(s1, s2 Struct) (bool, error) {
	data1 := s1.seg.slice(s1.off, s1.size.DataSize)
	data2 := s2.seg.slice(s2.off, s2.size.DataSize)
	if !equalDataSections(data1, data2) {
		return false, nil
	}

	shared := int(s1.size.PointerCount)
	if n2 := int(s2.size.PointerCount); n2 < shared {
		shared = n2
	}
	for i := 0; i < shared; i++ {
		sp1, err := s1.Ptr(uint16(i))
		if err != nil {
			return false, annotatef(err, "equal")
		}
		sp2, err := s2.Ptr(uint16(i))
		if err != nil {
			return false, annotatef(err, "equal")
		}
		if ok, err := Equal(sp1, sp2); !ok || err != nil {
			return false, err
		}
	}
	for i := shared; i < int(s1.size.PointerCount); i++ {
		if s1.HasPtr(uint16(i)) {
			return false, nil
		}
	}
	for i := shared; i < int(s2.size.PointerCount); i++ {
		if s2.HasPtr(uint16(i)) {
			return false, nil
		}
	}
	return true, nil
}

func equalLists(l1, l2 List) (bool, error) {
	if l1.Len() != l2.Len() {
		return false, nil
	}
	if l1.flags&isCompositeList == 0 && l2.flags&isCompositeList == 0 && l1.size != l2.size {
		return false, nil
	}
	if l1.size.PointerCount == 0 && l2.size.PointerCount == 0 && l1.size.DataSize == l2.size.DataSize {
		byteLen, _ := l1.size.totalSize().times(l1.length)
		return bytes.Equal(l1.seg.slice(l1.off, byteLen), l2.seg.slice(l2.off, byteLen)), nil
	}
	for i := 0; i < l1.Len(); i++ {
		e1, e2 := l1.Struct(i), l2.Struct(i)
		ok, err := Equal(e1.ToPtr(), e2.ToPtr())
		if err != nil {
			return false, annotatef(err, "equal: list element %d", i)
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func equalInterfaces(i1, i2 Interface) bool {
	if i1.Message() == i2.Message() {
		tableLen := len(i1.Message().CapTable())
		if int64(i1.cap) >= int64(tableLen) || int64(i2.cap) >= int64(tableLen) {
			return i1.cap == i2.cap
		}
	}
	c1, c2 := i1.Client(), i2.Client()
	if c1 == nil || c2 == nil {
		return c1 == nil && c2 == nil
	}
	return c1.IsSame(c2)
}
