package capnp

// segmentAllocator is satisfied by both *Message and *AllocContext.
// Object constructors (newStructIn, newList) take a segmentAllocator
// rather than a concrete *Message so a caller can route a whole scope
// of construction through a pinned segment instead of the message's
// default last-segment-written locality.
type segmentAllocator interface {
	Allocate(sz Size) (*Segment, address, error)
}

// An AllocContext pins subsequent allocations to a single segment for
// as long as it has room, rather than following the message's default
// "prefer the last segment written to" policy.  It is useful when
// building several independent object graphs in one message and
// wanting each to stay contiguous instead of interleaving through
// whichever segment happened to be written to last.
//
// The zero value is not usable; construct one with NewAllocContext.
type AllocContext struct {
	msg    *Message
	prefer SegmentID
	pinned bool
}

// NewAllocContext returns an AllocContext scoped to msg.  It starts
// with no pinned segment: its first allocation follows msg's normal
// policy and pins to whatever segment that lands in.
func NewAllocContext(msg *Message) *AllocContext {
	return &AllocContext{msg: msg}
}

// Pin fixes the context's preferred segment to seg's, so that
// subsequent allocations through the context try seg first regardless
// of what the message last wrote to.
func (ctx *AllocContext) Pin(seg *Segment) {
	ctx.prefer = seg.id
	ctx.pinned = true
}

// Allocate reserves sz bytes, preferring the pinned segment (or, before
// the first allocation, the message's default policy), and remembers
// whichever segment satisfied the request as the new preference.
func (ctx *AllocContext) Allocate(sz Size) (*Segment, address, error) {
	var seg *Segment
	var addr address
	var err error
	if ctx.pinned {
		seg, addr, err = ctx.msg.allocateIn(ctx.prefer, true, sz)
	} else {
		seg, addr, err = ctx.msg.Allocate(sz)
	}
	if err != nil {
		return nil, 0, err
	}
	ctx.prefer, ctx.pinned = seg.id, true
	return seg, addr, nil
}

// NewStruct allocates a struct of the given shape through ctx.
func (ctx *AllocContext) NewStruct(sz ObjectSize) (Struct, error) {
	return newStructIn(ctx, sz)
}

// NewCompositeList allocates a composite list of n elements of shape sz
// through ctx.
func (ctx *AllocContext) NewCompositeList(sz ObjectSize, n int32) (CompositeList, error) {
	sz.DataSize = sz.DataSize.padToWord()
	l, err := newList(ctx, sz, n, wordSize)
	if err != nil {
		return CompositeList{}, annotatef(err, "new composite list")
	}
	l.flags |= isCompositeList
	tagAddr := l.off - address(wordSize)
	l.seg.writeRawPointer(tagAddr, rawStructPointer(pointerOffset(n), sz))
	return CompositeList(l), nil
}

// NewPointerList allocates a list of n pointers through ctx.
func (ctx *AllocContext) NewPointerList(n int32) (PointerList, error) {
	l, err := newList(ctx, ObjectSize{PointerCount: 1}, n, 0)
	if err != nil {
		return PointerList{}, annotatef(err, "new pointer list")
	}
	return PointerList(l), nil
}

// NewText allocates a NUL-terminated byte list through ctx holding s.
func (ctx *AllocContext) NewText(s string) (Ptr, error) {
	data := make([]byte, len(s)+1)
	copy(data, s)
	l, err := newList(ctx, ObjectSize{DataSize: 1}, int32(len(data)), 0)
	if err != nil {
		return Ptr{}, annotatef(err, "new text")
	}
	copy(l.seg.slice(l.off, Size(len(data))), data)
	return l.ToPtr(), nil
}
