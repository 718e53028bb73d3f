package capnp

// listFlags holds out-of-band bits about a List, mirroring structFlags,
// stored in the low bits of a ptrFlags/Ptr alongside the pointer kind.
type listFlags uint8

const (
	// isBitList marks a 1-bit-per-element list.
	isBitList listFlags = 1 << 0

	// isCompositeList marks a list whose elements are structs, backed
	// by a tag word followed by flat struct payloads.
	isCompositeList listFlags = 1 << 1
)

// A List is a non-owning handle to a Cap'n Proto list. It backs every
// list variant: bit lists, the fixed-width primitives, pointer lists,
// and composite (struct) lists. Text and Data are thin wrappers over a
// one-byte-element List.
type List struct {
	seg        *Segment
	off        address // address of first element, or of the tag word for composite lists
	length     int32
	size       ObjectSize // per-element size; for composite lists, the per-element shape
	flags      listFlags
	depthLimit uint
}

// ToPtr returns a Ptr that references l.
func (l List) ToPtr() Ptr {
	if l.seg == nil {
		return Ptr{}
	}
	return Ptr{
		seg:        l.seg,
		off:        l.off,
		lenOrCap:   uint32(l.length),
		size:       l.size,
		depthLimit: l.depthLimit,
		flags:      listPtrFlag(l.flags),
	}
}

// Segment returns the segment l is stored in, or nil if l is the zero List.
func (l List) Segment() *Segment {
	return l.seg
}

// Len returns the number of elements in l.
func (l List) Len() int {
	return int(l.length)
}

// IsValid reports whether l refers to an actual list.
func (l List) IsValid() bool {
	return l.seg != nil
}

// readSize returns the number of bytes to charge against the read
// traversal budget for having reached l.
func (l List) readSize() Size {
	if l.flags&isCompositeList != 0 {
		sz, _ := l.size.totalSize().times(l.length)
		return sz + wordSize // tag word
	}
	if l.flags&isBitList != 0 {
		return bitListSize(l.length)
	}
	return l.size.totalSize().timesUnchecked(l.length)
}

// allocSize returns the number of bytes l's encoding occupies,
// including its composite-list tag word if any.
func (l List) allocSize() Size {
	sz := l.readSize()
	return sz
}

// raw returns the rawPointer describing l's shape, suitable for writing
// once an offset has been applied via withOffset.
func (l List) raw() rawPointer {
	if l.flags&isCompositeList != 0 {
		return rawListPointer(0, compositeList, l.size.totalWordCount()*l.length)
	}
	if l.flags&isBitList != 0 {
		return rawListPointer(0, bit1List, l.length)
	}
	var lt listType
	switch {
	case l.size.PointerCount == 1 && l.size.DataSize == 0:
		lt = pointerList
	case l.size.DataSize == 1:
		lt = byte1List
	case l.size.DataSize == 2:
		lt = byte2List
	case l.size.DataSize == 4:
		lt = byte4List
	case l.size.DataSize == 8:
		lt = byte8List
	default:
		lt = voidList
	}
	return rawListPointer(0, lt, l.length)
}

// elementAddr returns the address of element i, given its size szElem.
func (l List) elementAddr(i int, szElem Size) address {
	addr, ok := l.off.element(int32(i), szElem)
	if !ok {
		panic("capnp: list element address overflow")
	}
	return addr
}

// Struct returns element i as a Struct.  For a composite list this is
// the element's own shape, taken from the list's tag.  For a plain
// pointer list (no tag, size.PointerCount > 0) it's the one-word
// pointer slot itself, fully writable.  For a primitive list
// (size.PointerCount == 0, no tag) there is no pointer storage behind
// the element at all: the returned Struct only exposes field 0's data
// and carries isListMember so pointer writes are rejected rather than
// silently corrupting a neighboring element.
func (l List) Struct(i int) Struct {
	if i < 0 || i >= int(l.length) {
		return Struct{}
	}
	addr := l.elementAddr(i, l.size.totalSize())
	if l.flags&isCompositeList != 0 || l.size.PointerCount > 0 {
		return Struct{
			seg:        l.seg,
			off:        addr,
			size:       l.size,
			depthLimit: l.depthLimit,
		}
	}
	return Struct{
		seg:        l.seg,
		off:        addr,
		size:       ObjectSize{DataSize: l.size.totalSize()},
		flags:      isListMember,
		depthLimit: l.depthLimit,
	}
}

// setElement overwrites element i's data and pointer words with src's,
// for a composite list whose tag matches src's shape.  Callers reach it
// via CompositeList.Set.
func (l List) setElement(i int, src Struct) error {
	dst := l.Struct(i)
	return copyStruct(dst, src)
}

// PointerList is a list of pointers.
type PointerList List

// NewPointerList allocates a list of n pointers in msg.
func NewPointerList(msg *Message, n int32) (PointerList, error) {
	l, err := newList(msg, ObjectSize{PointerCount: 1}, n, 0)
	if err != nil {
		return PointerList{}, annotatef(err, "new pointer list")
	}
	return PointerList(l), nil
}

// Len returns the number of pointers in pl.
func (pl PointerList) Len() int { return List(pl).Len() }

// ToPtr returns a Ptr referencing pl.
func (pl PointerList) ToPtr() Ptr { return List(pl).ToPtr() }

// At dereferences pointer i, returning the zero Ptr if i is out of
// range or the pointer is null.
func (pl PointerList) At(i int) (Ptr, error) {
	if i < 0 || i >= int(pl.length) {
		return Ptr{}, annotatef(ErrIndexOutOfRange, "pointer list index %d", i)
	}
	addr := List(pl).elementAddr(i, wordSize)
	return pl.seg.readPtr(addr, pl.depthLimit)
}

// setPointer writes src into pointer slot i.
func (pl PointerList) setPointer(i int, src Ptr) error {
	if i < 0 || i >= int(pl.length) {
		return annotatef(ErrIndexOutOfRange, "pointer list index %d", i)
	}
	addr := List(pl).elementAddr(i, wordSize)
	return pl.seg.writePtr(addr, src, false)
}

// Set writes src into pointer slot i; an alias of setPointer for
// clients outside this package.
func (pl PointerList) Set(i int, src Ptr) error { return pl.setPointer(i, src) }

// CompositeList is a list of structs of identical shape, stored as a
// tag word followed by flat struct payloads.
type CompositeList List

// NewCompositeList allocates a list of n structs of shape sz in msg,
// writing the tag word that records sz for every element.
func NewCompositeList(msg *Message, sz ObjectSize, n int32) (CompositeList, error) {
	sz.DataSize = sz.DataSize.padToWord()
	l, err := newList(msg, sz, n, wordSize)
	if err != nil {
		return CompositeList{}, annotatef(err, "new composite list")
	}
	l.flags |= isCompositeList
	tagAddr := l.off - address(wordSize)
	l.seg.writeRawPointer(tagAddr, rawStructPointer(pointerOffset(n), sz))
	return CompositeList(l), nil
}

// Len returns the number of elements in cl.
func (cl CompositeList) Len() int { return List(cl).Len() }

// ToPtr returns a Ptr referencing cl.
func (cl CompositeList) ToPtr() Ptr { return List(cl).ToPtr() }

// At returns element i as a Struct.
func (cl CompositeList) At(i int) Struct { return List(cl).Struct(i) }

// Set overwrites element i's fields with src's (same shape required).
func (cl CompositeList) Set(i int, src Struct) error { return List(cl).setElement(i, src) }

// BitList is a list whose elements are individual bits.
type BitList List

// NewBitList allocates a list of n bits in msg.
func NewBitList(msg *Message, n int32) (BitList, error) {
	if n < 0 {
		return BitList{}, annotatef(ErrOversizedList, "new bit list: negative length %d", n)
	}
	// Bits are packed eight to a byte: reserve bitListSize(n) bytes.
	l, err := newList(msg, ObjectSize{DataSize: 1}, int32(bitListSize(n)), 0)
	if err != nil {
		return BitList{}, annotatef(err, "new bit list")
	}
	l.length, l.size = n, ObjectSize{}
	l.flags |= isBitList
	return BitList(l), nil
}

// Len returns the number of bits in bl.
func (bl BitList) Len() int { return List(bl).Len() }

// ToPtr returns a Ptr referencing bl.
func (bl BitList) ToPtr() Ptr { return List(bl).ToPtr() }

// At returns the bit at index i.
func (bl BitList) At(i int) bool {
	if i < 0 || i >= int(bl.length) {
		return false
	}
	addr, _ := bl.off.element(int32(i/8), 1)
	return bl.seg.readUint8(addr)&(1<<uint(i%8)) != 0
}

// Set writes the bit at index i.
func (bl BitList) Set(i int, v bool) error {
	if i < 0 || i >= int(bl.length) {
		return annotatef(ErrIndexOutOfRange, "bit list index %d", i)
	}
	addr, _ := bl.off.element(int32(i/8), 1)
	cur := bl.seg.readUint8(addr)
	mask := byte(1 << uint(i%8))
	if v {
		cur |= mask
	} else {
		cur &^= mask
	}
	bl.seg.writeUint8(addr, cur)
	return nil
}

// newList allocates a list of n elements of shape elemSize through a,
// reserving extraLeading bytes (a composite list's tag word) before the
// first element and returning a List whose off already points past
// them.  a is ordinarily a *Message but may be an *AllocContext when
// the caller wants the allocation to land in a pinned segment.
func newList(a segmentAllocator, elemSize ObjectSize, n int32, extraLeading Size) (List, error) {
	if n < 0 {
		return List{}, annotatef(ErrOversizedList, "new list: negative length %d", n)
	}
	var total Size
	var ok bool
	if extraLeading != 0 {
		// Composite list: n elements of payload plus the tag word, bounded
		// the same way totalListSize checks a composite pointer.
		total, ok = elemSize.totalSize().times(n)
		if ok {
			total, ok = addSize(total, extraLeading)
		}
	} else {
		total, ok = elemSize.totalSize().times(n)
	}
	if !ok {
		return List{}, annotatef(ErrOversizedList, "new list: %d elements of %v", n, elemSize)
	}
	seg, addr, err := a.Allocate(total)
	if err != nil {
		return List{}, annotatef(err, "new list")
	}
	return List{
		seg:        seg,
		off:        addr.addOffset(DataOffset(extraLeading)),
		length:     n,
		size:       elemSize,
		depthLimit: maxDepth,
	}, nil
}
