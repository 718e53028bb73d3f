package capnp

// An Arena loads and allocates segments for a Message.  Allocate first
// tries a preferred segment, then any existing segment, then asks the
// arena to create a new one sized to at least the request (growing
// geometrically from there on).
type Arena interface {
	// NumSegments returns the number of segments the arena currently
	// holds.  Segment IDs are always in [0, NumSegments()).
	NumSegments() int64

	// Data returns the data for the segment with the given ID.  The
	// segment must have been previously returned by Allocate; a
	// SingleSegmentArena also returns segment zero before any
	// allocation, while a fresh MultiSegmentArena has no segments yet.
	Data(id SegmentID) ([]byte, error)

	// Allocate selects a segment to place minsz further bytes into: it
	// returns the segment's ID and its (possibly grown) backing slice,
	// sized so that the caller can reslice-and-grow via Segment.tryAllocate.
	// segs holds already-constructed *Segment values so Allocate can
	// prefer reusing one without the caller needing to rebuild it.
	Allocate(minsz Size, segs map[SegmentID]*Segment) (SegmentID, []byte, error)
}

// initialArenaSize is the floor for a newly created segment's capacity;
// MultiSegmentArena doubles from here on each subsequent growth.
const initialArenaSize Size = 4096

// SingleSegmentArena is an Arena that stores a message in a single
// segment, growing its one backing slice (by doubling) instead of ever
// creating a second segment.  Suited to small, one-shot messages where
// the simplicity of a single contiguous buffer outweighs the locality
// value of clustering into several segments.
type SingleSegmentArena []byte

// NewSingleSegmentArena returns a new, empty SingleSegmentArena, reusing
// b's backing array if it has zero length.
func NewSingleSegmentArena(b []byte) *SingleSegmentArena {
	if len(b) != 0 {
		panic("NewSingleSegmentArena must be given a zero-length slice")
	}
	a := SingleSegmentArena(b)
	return &a
}

func (ssa *SingleSegmentArena) NumSegments() int64 {
	return 1
}

func (ssa *SingleSegmentArena) Data(id SegmentID) ([]byte, error) {
	if id != 0 {
		return nil, errorf("single-segment arena: segment %d requested, only segment 0 exists", id)
	}
	return []byte(*ssa), nil
}

func (ssa *SingleSegmentArena) Allocate(minsz Size, segs map[SegmentID]*Segment) (SegmentID, []byte, error) {
	data := []byte(*ssa)
	if seg := segs[0]; seg != nil {
		data = seg.data
	}
	if hasCapacity(data, minsz) {
		return 0, data, nil
	}
	total, ok := addSize(Size(len(data)), minsz)
	if !ok {
		return 0, nil, annotatef(ErrOversizedList, "single-segment arena: grow by %d", minsz)
	}
	grown := grow(total)
	buf := make([]byte, len(data), int(grown))
	copy(buf, data)
	*ssa = buf
	return 0, buf, nil
}

// MultiSegmentArena is an Arena that may place new objects in any
// number of segments, creating a new one (sized to at least the
// requested allocation, else the geometrically-grown floor) whenever no
// existing segment has room.
type MultiSegmentArena struct {
	segs     []*[]byte
	nextSize Size
}

// NewMultiSegmentArena returns a new, empty MultiSegmentArena.
func NewMultiSegmentArena() *MultiSegmentArena {
	return &MultiSegmentArena{}
}

func (msa *MultiSegmentArena) NumSegments() int64 {
	return int64(len(msa.segs))
}

func (msa *MultiSegmentArena) Data(id SegmentID) ([]byte, error) {
	if int64(id) >= int64(len(msa.segs)) {
		return nil, annotatef(ErrSegmentOutOfRange, "multi-segment arena: segment %d", id)
	}
	return *msa.segs[id], nil
}

func (msa *MultiSegmentArena) Allocate(minsz Size, segs map[SegmentID]*Segment) (SegmentID, []byte, error) {
	var preferred SegmentID
	havePreferred := false
	if len(segs) > 0 {
		// Prefer the highest-numbered (most recently created) segment:
		// callers route the actual "last written to" preference through
		// Message.Allocate; this is only the arena-level fallback scan.
		for id := range segs {
			if !havePreferred || id > preferred {
				preferred, havePreferred = id, true
			}
		}
	}
	// A loaded segment's own slice carries its current length; the
	// arena's copy still has the length it was created with.
	current := func(id SegmentID) []byte {
		if seg := segs[id]; seg != nil {
			return seg.data
		}
		return *msa.segs[id]
	}
	if havePreferred {
		if data := current(preferred); hasCapacity(data, minsz) {
			return preferred, data, nil
		}
	}
	for id := range msa.segs {
		data := current(SegmentID(id))
		if hasCapacity(data, minsz) {
			return SegmentID(id), data, nil
		}
	}
	size := grow(minsz)
	if size < msa.nextSize {
		size = msa.nextSize
	}
	if size < minsz {
		size = minsz
	}
	if doubled, ok := size.times(2); ok {
		msa.nextSize = doubled
	}
	buf := make([]byte, 0, int(size))
	msa.segs = append(msa.segs, &buf)
	id := SegmentID(len(msa.segs) - 1)
	return id, buf, nil
}

// grow returns the smallest power-of-two-ish doubling of
// initialArenaSize that is >= n.
func grow(n Size) Size {
	size := initialArenaSize
	for size < n {
		doubled, ok := size.times(2)
		if !ok {
			return n
		}
		size = doubled
	}
	return size
}

func addSize(a, b Size) (Size, bool) {
	x := uint64(a) + uint64(b)
	if x > uint64(maxSegmentSize) {
		return 0, false
	}
	return Size(x), true
}
