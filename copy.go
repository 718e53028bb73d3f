package capnp

// copyStruct overwrites dst's data and pointer words with src's,
// recursing into pointer fields so that any objects src points to are
// copied too rather than aliased.  Fields present in one shape but not
// the other are handled by the caller having sized dst appropriately;
// copyStruct itself only ever touches the words both structs declare.
func copyStruct(dst, src Struct) error {
	if src.seg == nil {
		return nil
	}
	n := src.size.DataSize
	if dst.size.DataSize < n {
		n = dst.size.DataSize
	}
	if n > 0 {
		copy(dst.seg.slice(dst.off, n), src.seg.slice(src.off, n))
	}
	np := src.pointerWords()
	if dst.pointerWords() < np {
		np = dst.pointerWords()
	}
	for i := uint16(0); i < np; i++ {
		p, err := src.Ptr(i)
		if err != nil {
			return annotatef(err, "copy struct: pointer %d", i)
		}
		if !p.IsValid() {
			continue
		}
		if err := dst.seg.writePtr(dst.pointerAddr(i), p, true); err != nil {
			return annotatef(err, "copy struct: pointer %d", i)
		}
	}
	return nil
}

// copyList allocates a fresh copy of l in s's message, recursing into
// element pointers the same way copyStruct does for struct fields.
// Composite lists keep their tag word; plain data lists are copied
// byte-for-byte; pointer and composite-with-pointers lists are copied
// element by element so nested objects are copied rather than aliased.
func copyList(s *Segment, l List) (List, error) {
	sz := l.allocSize()
	newSeg, newAddr, err := alloc(s, sz)
	if err != nil {
		return List{}, annotatef(err, "copy list")
	}
	dst := List{
		seg:        newSeg,
		off:        newAddr,
		length:     l.length,
		size:       l.size,
		flags:      l.flags,
		depthLimit: maxDepth,
	}
	if dst.flags&isCompositeList != 0 {
		newSeg.writeRawPointer(newAddr, l.seg.readRawPointer(l.off-address(wordSize)))
		dst.off = dst.off.addOffset(DataOffset(wordSize))
		sz -= wordSize
	}
	if dst.flags&isBitList != 0 || dst.size.PointerCount == 0 {
		end, ok := l.off.addSize(sz)
		if !ok {
			return List{}, annotatef(ErrOversizedList, "copy list")
		}
		copy(newSeg.data[dst.off:], l.seg.data[l.off:end])
		return dst, nil
	}
	for i := 0; i < l.Len(); i++ {
		if err := copyStruct(dst.Struct(i), l.Struct(i)); err != nil {
			return List{}, annotatef(err, "copy list: element %d", i)
		}
	}
	return dst, nil
}

// CopyTo returns a copy of s allocated in dest, recursively copying
// everything s points to.  If s is already part of dest, it is
// returned unchanged: there is nothing to copy.
func (s Struct) CopyTo(dest *Message) (Struct, error) {
	if !s.IsValid() {
		return Struct{}, nil
	}
	if s.seg.msg == dest {
		return s, nil
	}
	sz := s.Size()
	sz.DataSize = sz.DataSize.padToWord()
	newSeg, newAddr, err := dest.Allocate(sz.totalSize())
	if err != nil {
		return Struct{}, annotatef(err, "copy struct")
	}
	dst := Struct{seg: newSeg, off: newAddr, size: sz, depthLimit: maxDepth}
	if err := copyStruct(dst, s); err != nil {
		return Struct{}, annotatef(err, "copy struct")
	}
	return dst, nil
}

// CopyTo returns a copy of l allocated in dest, recursively copying
// every element.  If l is already part of dest, it is returned
// unchanged.
func (l List) CopyTo(dest *Message) (List, error) {
	if !l.IsValid() {
		return List{}, nil
	}
	if l.seg.msg == dest {
		return l, nil
	}
	seg, err := dest.Segment(0)
	if err != nil {
		return List{}, annotatef(err, "copy list")
	}
	return copyList(seg, l)
}

// CopyTo returns a copy of p allocated in dest: a Struct or List are
// deep-copied recursively, an Interface is re-added to dest's
// capability table (interning by identity), and the null pointer
// copies to itself.
func (p Ptr) CopyTo(dest *Message) (Ptr, error) {
	if !p.IsValid() {
		return Ptr{}, nil
	}
	switch p.flags.ptrType() {
	case structPtrType:
		dst, err := p.Struct().CopyTo(dest)
		if err != nil {
			return Ptr{}, err
		}
		return dst.ToPtr(), nil
	case listPtrType:
		dst, err := p.List().CopyTo(dest)
		if err != nil {
			return Ptr{}, err
		}
		return dst.ToPtr(), nil
	case interfacePtrType:
		i := p.Interface()
		if i.Message() == dest {
			return p, nil
		}
		id := dest.AddCap(i.Client())
		seg, err := dest.Segment(0)
		if err != nil {
			return Ptr{}, annotatef(err, "copy interface")
		}
		return NewInterface(seg, id).ToPtr(), nil
	default:
		panic("unreachable")
	}
}
