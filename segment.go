package capnp

import "encoding/binary"

// SegmentID identifies one segment within a Message.
type SegmentID uint32

// Segment is a contiguous byte arena holding part of a message. A
// multi-segment message links segments together with far pointers.
type Segment struct {
	msg  *Message
	id   SegmentID
	data []byte
}

// Message returns the message s belongs to.
func (s *Segment) Message() *Message {
	return s.msg
}

// ID returns s's segment number.
func (s *Segment) ID() SegmentID {
	return s.id
}

// Data returns the bytes allocated so far in s. Anything beyond
// len(Data()) up to cap is free capacity the arena has already
// reserved but not handed out.
func (s *Segment) Data() []byte {
	return s.data
}

func (s *Segment) inBounds(addr address) bool {
	return addr < address(len(s.data))
}

// regionInBounds reports whether the byte range [base, base+sz) lies
// entirely within s's allocated data.
func (s *Segment) regionInBounds(base address, sz Size) bool {
	end, ok := base.addSize(sz)
	return ok && end <= address(len(s.data))
}

// slice returns s's bytes in [base, base+sz). The caller is
// responsible for having checked the range; an out-of-bounds request
// panics via the underlying slice operation.
func (s *Segment) slice(base address, sz Size) []byte {
	return s.data[base:base.addSizeUnchecked(sz)]
}

func (s *Segment) readUint8(addr address) uint8 {
	return s.slice(addr, 1)[0]
}

func (s *Segment) readUint16(addr address) uint16 {
	return binary.LittleEndian.Uint16(s.slice(addr, 2))
}

func (s *Segment) readUint32(addr address) uint32 {
	return binary.LittleEndian.Uint32(s.slice(addr, 4))
}

func (s *Segment) readUint64(addr address) uint64 {
	return binary.LittleEndian.Uint64(s.slice(addr, 8))
}

func (s *Segment) readRawPointer(addr address) rawPointer {
	return rawPointer(s.readUint64(addr))
}

func (s *Segment) writeUint8(addr address, val uint8) {
	s.slice(addr, 1)[0] = val
}

func (s *Segment) writeUint16(addr address, val uint16) {
	binary.LittleEndian.PutUint16(s.slice(addr, 2), val)
}

func (s *Segment) writeUint32(addr address, val uint32) {
	binary.LittleEndian.PutUint32(s.slice(addr, 4), val)
}

func (s *Segment) writeUint64(addr address, val uint64) {
	binary.LittleEndian.PutUint64(s.slice(addr, 8), val)
}

func (s *Segment) writeRawPointer(addr address, val rawPointer) {
	s.writeUint64(addr, uint64(val))
}

// hasCapacity reports whether b could grow by sz bytes in place,
// without a new backing array.
func hasCapacity(b []byte, sz Size) bool {
	return Size(cap(b)-len(b)) >= sz
}

// tryAllocate bumps s's high-water mark by sz bytes, zeroing the new
// region, and reports the address it starts at. It fails rather than
// growing the backing array; callers that need more room go through
// the message's Arena instead.
func (s *Segment) tryAllocate(sz Size) (address, bool) {
	if !hasCapacity(s.data, sz) {
		return 0, false
	}
	start := address(len(s.data))
	grown := s.data[:len(s.data)+int(sz)]
	for i := start; i < start.addSizeUnchecked(sz); i++ {
		grown[i] = 0
	}
	s.data = grown
	return start, true
}

// tryReclaim undoes an allocation of sz bytes ending at end, provided
// end is still the segment's high-water mark (nothing was allocated
// after it). It zeroes the reclaimed bytes on success.
func (s *Segment) tryReclaim(end address, sz Size) bool {
	if end != address(len(s.data)) || Size(len(s.data)) < sz {
		return false
	}
	keep := len(s.data) - int(sz)
	for i := keep; i < len(s.data); i++ {
		s.data[i] = 0
	}
	s.data = s.data[:keep]
	return true
}

// root returns the single-element pointer list occupying the first
// word of s, which holds the message's root pointer. Only meaningful
// for a message's first segment.
func (s *Segment) root() PointerList {
	rootSize := ObjectSize{PointerCount: 1}
	if !s.regionInBounds(0, rootSize.totalSize()) {
		return PointerList{}
	}
	return PointerList{
		seg:        s,
		length:     1,
		size:       rootSize,
		depthLimit: s.msg.depthLimit(),
	}
}

func (s *Segment) lookupSegment(id SegmentID) (*Segment, error) {
	if id == s.id {
		return s, nil
	}
	return s.msg.Segment(id)
}

// readPtr decodes the pointer word at paddr in s, chasing any far or
// double-far indirection and checking it against the message's depth
// and traversal budgets.
func (s *Segment) readPtr(paddr address, depthLimit uint) (Ptr, error) {
	target, base, word, err := s.resolveFarPointer(paddr)
	if err != nil {
		return Ptr{}, annotatef(err, "read pointer")
	}
	if word == 0 {
		return Ptr{}, nil
	}
	if depthLimit == 0 {
		return Ptr{}, annotatef(ErrDepthLimitExceeded, "read pointer")
	}

	switch word.pointerType() {
	case structPointer:
		st, err := target.readStructPtr(base, word)
		if err != nil {
			return Ptr{}, annotatef(err, "read pointer")
		}
		if !target.msg.canRead(st.readSize()) {
			return Ptr{}, annotatef(ErrTraversalLimitExceeded, "read pointer")
		}
		st.depthLimit = depthLimit - 1
		return st.ToPtr(), nil
	case listPointer:
		lst, err := target.readListPtr(base, word)
		if err != nil {
			return Ptr{}, annotatef(err, "read pointer")
		}
		if !target.msg.canRead(lst.readSize()) {
			return Ptr{}, annotatef(ErrTraversalLimitExceeded, "read pointer")
		}
		lst.depthLimit = depthLimit - 1
		return lst.ToPtr(), nil
	case otherPointer:
		if word.otherPointerType() != 0 {
			return Ptr{}, annotatef(ErrUnsupportedOtherPointer, "read pointer")
		}
		return Interface{seg: target, cap: word.capabilityIndex()}.ToPtr(), nil
	default:
		// resolveFarPointer already stripped every far pointer type;
		// nothing else should reach here.
		return Ptr{}, annotatef(ErrMalformedPointer, "read pointer: far pointer landing pad is a far pointer")
	}
}

func (s *Segment) readStructPtr(base address, word rawPointer) (Struct, error) {
	addr, ok := word.offset().resolve(base)
	if !ok {
		return Struct{}, annotatef(ErrMalformedPointer, "struct pointer: invalid address")
	}
	sz := word.structSize()
	if !s.regionInBounds(addr, sz.totalSize()) {
		return Struct{}, annotatef(ErrSegmentOutOfRange, "struct pointer: invalid address")
	}
	return Struct{seg: s, off: addr, size: sz}, nil
}

// readCompositeTag reads a composite list's leading tag word, which
// doubles as a struct pointer describing every element's layout, and
// returns the element size, element count, and address just past the
// tag word.
func (s *Segment) readCompositeTag(addr address) (sz ObjectSize, n int32, contentAddr address, err error) {
	tag := s.readRawPointer(addr)
	contentAddr, ok := addr.addSize(wordSize)
	if !ok {
		return ObjectSize{}, 0, 0, annotatef(ErrOversizedList, "composite list pointer: content address overflow")
	}
	if tag.pointerType() != structPointer {
		return ObjectSize{}, 0, 0, annotatef(ErrMalformedPointer, "composite list pointer: tag word is not a struct")
	}
	return tag.structSize(), int32(tag.offset()), contentAddr, nil
}

func (s *Segment) readListPtr(base address, word rawPointer) (List, error) {
	addr, ok := word.offset().resolve(base)
	if !ok {
		return List{}, annotatef(ErrMalformedPointer, "list pointer: invalid address")
	}
	listBytes, ok := word.totalListSize()
	if !ok {
		return List{}, annotatef(ErrOversizedList, "list pointer: size overflow")
	}
	if !s.regionInBounds(addr, listBytes) {
		return List{}, annotatef(ErrSegmentOutOfRange, "list pointer: address out of bounds")
	}

	switch word.listType() {
	case compositeList:
		sz, n, contentAddr, err := s.readCompositeTag(addr)
		if err != nil {
			return List{}, err
		}
		total, ok := sz.totalSize().times(n)
		if !ok {
			return List{}, annotatef(ErrOversizedList, "composite list pointer: size overflow")
		}
		if !s.regionInBounds(contentAddr, total) {
			return List{}, annotatef(ErrSegmentOutOfRange, "composite list pointer: address out of bounds")
		}
		return List{seg: s, size: sz, off: contentAddr, length: n, flags: isCompositeList}, nil
	case bit1List:
		return List{seg: s, off: addr, length: word.numListElements(), flags: isBitList}, nil
	default:
		return List{seg: s, size: word.elementSize(), off: addr, length: word.numListElements()}, nil
	}
}

// resolveFarPointer chases the far and double-far indirection chain
// starting from the pointer word at paddr, returning the segment,
// base address, and near-pointer word the chain ultimately lands on.
// See https://capnproto.org/encoding.html#inter-segment-pointers.
func (s *Segment) resolveFarPointer(paddr address) (dst *Segment, base address, resolved rawPointer, err error) {
	word := s.readRawPointer(paddr)
	switch word.pointerType() {
	case doubleFarPointer:
		return s.resolveDoubleFar(word)
	case farPointer:
		return s.resolveSingleFar(word)
	default:
		base, ok := paddr.addSize(wordSize)
		if !ok {
			return nil, 0, 0, annotatef(ErrSegmentOutOfRange, "pointer base address overflow")
		}
		return s, base, word, nil
	}
}

func (s *Segment) resolveSingleFar(word rawPointer) (*Segment, address, rawPointer, error) {
	dst, err := s.lookupSegment(word.farSegment())
	if err != nil {
		return nil, 0, 0, annotatef(err, "far pointer")
	}
	padAddr := word.farAddress()
	if !dst.regionInBounds(padAddr, wordSize) {
		return nil, 0, 0, annotatef(ErrSegmentOutOfRange, "far pointer: address out of bounds")
	}
	base, ok := padAddr.addSize(wordSize)
	if !ok {
		return nil, 0, 0, annotatef(ErrMalformedPointer, "far pointer: landing pad address overflow")
	}
	return dst, base, dst.readRawPointer(padAddr), nil
}

func (s *Segment) resolveDoubleFar(word rawPointer) (*Segment, address, rawPointer, error) {
	padSeg, err := s.lookupSegment(word.farSegment())
	if err != nil {
		return nil, 0, 0, annotatef(err, "double-far pointer")
	}
	padAddr := word.farAddress()
	if !padSeg.regionInBounds(padAddr, wordSize*2) {
		return nil, 0, 0, annotatef(ErrSegmentOutOfRange, "double-far pointer: address out of bounds")
	}

	far := padSeg.readRawPointer(padAddr)
	if far.pointerType() != farPointer {
		return nil, 0, 0, annotatef(ErrMalformedPointer, "double-far pointer: first word in landing pad is not a far pointer")
	}
	tagAddr, ok := padAddr.addSize(wordSize)
	if !ok {
		return nil, 0, 0, annotatef(ErrMalformedPointer, "double-far pointer: landing pad address overflow")
	}
	tag := padSeg.readRawPointer(tagAddr)
	if pt := tag.pointerType(); (pt != structPointer && pt != listPointer) || tag.offset() != 0 {
		return nil, 0, 0, annotatef(ErrMalformedPointer, "double-far pointer: second word is not a struct or list with zero offset")
	}

	dst, err := s.lookupSegment(far.farSegment())
	if err != nil {
		return nil, 0, 0, annotatef(err, "double-far pointer")
	}
	return dst, 0, landingPadNearPointer(far, tag), nil
}

// srcLayout is what writePtr needs to know about the value it is
// encoding, once any copy-on-write has already happened: where it
// lives and the raw pointer word describing its shape (offset still
// unset).
type srcLayout struct {
	seg *Segment
	off address
	raw rawPointer
}

// prepareStructSrc ensures st can be referenced from s (copying it in
// if it crosses messages, is list-owned, or a copy was requested
// outright), then reports the layout of the value that ends up
// written.
func (s *Segment) prepareStructSrc(st Struct, forceCopy bool) (srcLayout, error) {
	if forceCopy || st.seg.msg != s.msg || st.flags&isListMember != 0 {
		newSeg, newAddr, err := alloc(s, st.size.totalSize())
		if err != nil {
			return srcLayout{}, annotatef(err, "write pointer: copy")
		}
		dstSize := ObjectSize{DataSize: st.size.DataSize.padToWord(), PointerCount: st.size.PointerCount}
		dst := Struct{seg: newSeg, off: newAddr, size: dstSize, depthLimit: maxDepth}
		if err := copyStruct(dst, st); err != nil {
			return srcLayout{}, annotatef(err, "write pointer")
		}
		st = dst
	}
	return srcLayout{seg: st.seg, off: st.off, raw: rawStructPointer(0, st.size)}, nil
}

func (s *Segment) prepareListSrc(l List, forceCopy bool) (srcLayout, error) {
	if forceCopy || l.seg.msg != s.msg {
		dst, err := copyList(s, l)
		if err != nil {
			return srcLayout{}, annotatef(err, "write pointer: copy")
		}
		l = dst
	}
	off := l.off
	if l.flags&isCompositeList != 0 {
		off -= address(wordSize)
	}
	return srcLayout{seg: l.seg, off: off, raw: l.raw()}, nil
}

// writePtr implements the pointer-write algorithm: a near pointer
// when the target shares off's segment, a single far pointer when a
// one-word landing pad fits next to the target, and otherwise a
// double-far pointer whose two-word pad can be placed anywhere with
// room.
func (s *Segment) writePtr(off address, src Ptr, forceCopy bool) error {
	if !src.IsValid() {
		s.writeRawPointer(off, 0)
		return nil
	}

	switch src.flags.ptrType() {
	case structPtrType:
		st := src.Struct()
		if st.size.isZero() {
			// Zero-sized structs always encode with offset -1, so they
			// are never mistaken for null; no allocation is needed.
			s.writeRawPointer(off, rawStructPointer(-1, ObjectSize{}))
			return nil
		}
		layout, err := s.prepareStructSrc(st, forceCopy)
		if err != nil {
			return err
		}
		return s.writeResolvedPtr(off, layout)
	case listPtrType:
		layout, err := s.prepareListSrc(src.List(), forceCopy)
		if err != nil {
			return err
		}
		return s.writeResolvedPtr(off, layout)
	case interfacePtrType:
		return s.writeInterfacePtr(off, src.Interface())
	default:
		panic("unreachable")
	}
}

func (s *Segment) writeInterfacePtr(off address, i Interface) error {
	if i.seg.msg != s.msg {
		i = NewInterface(s, s.msg.AddCap(i.Client()))
	}
	s.writeRawPointer(off, i.value(off))
	return nil
}

// writeResolvedPtr places a near, far, or double-far pointer at off
// that reaches layout, choosing the cheapest form that fits.
func (s *Segment) writeResolvedPtr(off address, layout srcLayout) error {
	switch {
	case layout.seg == s:
		s.writeRawPointer(off, layout.raw.withOffset(nearPointerOffset(off, layout.off)))
		return nil
	case hasCapacity(layout.seg.data, wordSize):
		_, padAddr, err := alloc(layout.seg, wordSize)
		if err != nil {
			return annotatef(err, "write pointer: make landing pad")
		}
		layout.seg.writeRawPointer(padAddr, layout.raw.withOffset(nearPointerOffset(padAddr, layout.off)))
		s.writeRawPointer(off, rawFarPointer(layout.seg.id, padAddr))
		return nil
	default:
		padSeg, padAddr, err := alloc(s, wordSize*2)
		if err != nil {
			return annotatef(err, "write pointer: make landing pad")
		}
		padSeg.writeRawPointer(padAddr, rawFarPointer(layout.seg.id, layout.off))
		padSeg.writeRawPointer(padAddr.addSizeUnchecked(wordSize), layout.raw)
		s.writeRawPointer(off, rawDoubleFarPointer(padSeg.id, padAddr))
		return nil
	}
}
