package capnp

// Compact returns a Struct covering the same data as s but with
// trailing all-zero words trimmed from its declared shape: trailing
// null pointer words are dropped first (unless dataOnly is set), then
// trailing all-zero data words.  If dropping data words leaves some
// pointer words in use, those pointer words are shifted down so they
// stay immediately adjacent to the shrunk data section.  Bytes past
// the new shape are zeroed, and if s was the most recent allocation in
// its segment the freed space is reclaimed so later allocations can
// reuse it.
//
// Compact does not change s's address or move it to another segment,
// so any pointer elsewhere that already references s continues to
// resolve correctly; callers that want the shrunk shape reflected in a
// containing pointer must write the returned Struct back themselves.
func (s Struct) Compact(dataOnly bool) (Struct, error) {
	if !s.IsValid() || s.flags&isListMember != 0 {
		return s, nil
	}

	newPtrCount := s.size.PointerCount
	if !dataOnly {
		for newPtrCount > 0 && s.pointer(newPtrCount-1) == 0 {
			newPtrCount--
		}
	}

	newDataWords := s.size.DataSize / wordSize
	data := s.dataSlice()
	for newDataWords > 0 {
		wordStart := (newDataWords - 1) * wordSize
		if !isZeroFilled(data[wordStart : wordStart+wordSize]) {
			break
		}
		newDataWords--
	}
	newDataSize := newDataWords * wordSize

	if newDataSize < s.size.DataSize && newPtrCount > 0 {
		// Near struct and list pointers count from their own slot, so a
		// slot moved down by shift words needs shift added to its offset.
		// Far and capability pointers do not depend on the slot.
		shift := pointerOffset((s.size.DataSize - newDataSize) / wordSize)
		newPtrBase := s.off.addOffset(DataOffset(newDataSize))
		for i := uint16(0); i < newPtrCount; i++ {
			p := s.pointer(i)
			if t := p.pointerType(); p != 0 && (t == structPointer || t == listPointer) {
				p = p.withOffset(p.offset() + shift)
			}
			s.seg.writeRawPointer(newPtrBase.addSizeUnchecked(Size(i)*wordSize), p)
		}
	}

	newSize := ObjectSize{DataSize: newDataSize, PointerCount: newPtrCount}
	oldTotal := s.size.totalSize()
	newTotal := newSize.totalSize()
	if freed := oldTotal - newTotal; freed > 0 {
		tailStart, _ := s.off.addSize(newTotal)
		end, _ := s.off.addSize(oldTotal)
		for i := tailStart; i < end; i++ {
			s.seg.data[i] = 0
		}
		s.seg.tryReclaim(end, freed)
	}

	return Struct{seg: s.seg, off: s.off, size: newSize, depthLimit: s.depthLimit}, nil
}
