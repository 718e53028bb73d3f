package capnp

// isOneByteList reports whether p holds a list pointer whose elements
// are single bytes — the shape both Text and Data are stored as.
func isOneByteList(p Ptr) bool {
	if p.flags.ptrType() != listPtrType {
		return false
	}
	return p.flags.listFlags()&(isBitList|isCompositeList) == 0 && p.size.isOneByte()
}

// NewText allocates a NUL-terminated byte list in msg holding s, and
// returns a Ptr to it.  Text is modeled as a one-byte-element List
// whose final byte is always zero.
func NewText(msg *Message, s string) (Ptr, error) {
	data := make([]byte, len(s)+1)
	copy(data, s)
	l, err := newList(msg, ObjectSize{DataSize: 1}, int32(len(data)), 0)
	if err != nil {
		return Ptr{}, annotatef(err, "new text")
	}
	copy(l.seg.slice(l.off, Size(len(data))), data)
	return l.ToPtr(), nil
}

// NewData allocates a byte list in msg holding a copy of b, and returns
// a Ptr to it.
func NewData(msg *Message, b []byte) (Ptr, error) {
	l, err := newList(msg, ObjectSize{DataSize: 1}, int32(len(b)), 0)
	if err != nil {
		return Ptr{}, annotatef(err, "new data")
	}
	if len(b) > 0 {
		copy(l.seg.slice(l.off, Size(len(b))), b)
	}
	return l.ToPtr(), nil
}
