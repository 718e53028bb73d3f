package capnp

// maxDepth is the default nesting depth budget: the number of
// successive pointer dereferences permitted before ErrDepthLimitExceeded
// is returned.  It bounds cyclic or absurdly deep malformed input the
// way ReadLimit bounds oversized input.
const maxDepth = 64

// defaultTraverseLimit is the default read traversal budget, in bytes:
// 64 MiB, matching the upstream Cap'n Proto implementations' default.
const defaultTraverseLimit = 64 << 20

// A Message is an ordered collection of segments sharing one allocation
// policy and one capability table.  Segment zero holds the root pointer
// at word 0.
type Message struct {
	// Arena backs the message's segments.  If nil, NewMessage installs
	// a SingleSegmentArena.
	Arena Arena

	// DepthLimit overrides the nesting depth budget (maxDepth) when
	// non-zero.
	DepthLimit uint

	// TraverseLimit overrides the read traversal budget (in bytes) when
	// non-zero; see ReadLimit.
	TraverseLimit uint64

	segs    map[SegmentID]*Segment
	segList []*Segment
	capTable []Client

	readLimit    uint64
	readLimitSet bool
	lastSeg      SegmentID
	hasLast      bool
}

// NewMessage creates a message with the given arena, initializing
// segment zero and, when it is empty, reserving its first word for the
// root pointer.  If arena is nil, a SingleSegmentArena is used.
func NewMessage(arena Arena) (msg *Message, first *Segment, err error) {
	if arena == nil {
		arena = NewSingleSegmentArena(nil)
	}
	msg = &Message{Arena: arena}
	first, err = msg.Segment(0)
	if err != nil {
		if arena.NumSegments() == 0 {
			first, err = msg.allocSegment(0)
		}
		if err != nil {
			return nil, nil, annotatef(err, "new message")
		}
	}
	if len(first.data) == 0 {
		if _, _, err := msg.allocateIn(first.id, true, wordSize); err != nil {
			return nil, nil, annotatef(err, "new message: root pointer")
		}
	}
	return msg, first, nil
}

// depthLimit returns the effective nesting-depth budget.
func (m *Message) depthLimit() uint {
	if m.DepthLimit != 0 {
		return m.DepthLimit
	}
	return maxDepth
}

// ReadLimit returns the remaining read traversal budget, in bytes.
func (m *Message) ReadLimit() uint64 {
	m.initReadLimit()
	return m.readLimit
}

// ResetReadLimit sets the remaining read traversal budget to limit
// bytes.
func (m *Message) ResetReadLimit(limit uint64) {
	m.readLimit = limit
	m.readLimitSet = true
}

func (m *Message) initReadLimit() {
	if !m.readLimitSet {
		m.readLimitSet = true
		if m.TraverseLimit != 0 {
			m.readLimit = m.TraverseLimit
		} else {
			m.readLimit = defaultTraverseLimit
		}
	}
}

// canRead deducts sz from the read traversal budget, reporting whether
// the budget allows it.  Exceeding the budget is sticky: once false is
// returned, the budget does not recover (a fresh read limit must be set
// explicitly via ResetReadLimit).
func (m *Message) canRead(sz Size) bool {
	m.initReadLimit()
	if uint64(sz) > m.readLimit {
		m.readLimit = 0
		return false
	}
	m.readLimit -= uint64(sz)
	return true
}

// NumSegments returns the number of segments in the message.
func (m *Message) NumSegments() int64 {
	if m.Arena == nil {
		return 0
	}
	return m.Arena.NumSegments()
}

// Segment returns the segment with the given ID, loading it from the
// arena on first use.
func (m *Message) Segment(id SegmentID) (*Segment, error) {
	if m.segs != nil {
		if seg := m.segs[id]; seg != nil {
			return seg, nil
		}
	}
	if m.Arena == nil {
		return nil, annotatef(ErrSegmentOutOfRange, "segment %d: no arena", id)
	}
	data, err := m.Arena.Data(id)
	if err != nil {
		return nil, annotatef(err, "segment %d", id)
	}
	return m.addSegment(id, data), nil
}

// Segments returns every segment currently loaded, in the order each
// was first loaded (segment zero first).  It does not force segments that have not yet been touched to load.
func (m *Message) Segments() []*Segment {
	return append([]*Segment(nil), m.segList...)
}

func (m *Message) addSegment(id SegmentID, data []byte) *Segment {
	if m.segs == nil {
		m.segs = make(map[SegmentID]*Segment)
	}
	seg := &Segment{msg: m, id: id, data: data}
	m.segs[id] = seg
	m.segList = append(m.segList, seg)
	return seg
}

// allocSegment creates the arena's first segment, used when the arena
// starts out empty (a fresh MultiSegmentArena) and so has no existing
// segment for Data to return.
func (m *Message) allocSegment(id SegmentID) (*Segment, error) {
	allocID, data, err := m.Arena.Allocate(0, m.segs)
	if err != nil {
		return nil, err
	}
	return m.addSegment(allocID, data), nil
}

// Allocate reserves sz bytes, preferring the segment most recently
// allocated into, falling back to any segment with room, and finally to
// a freshly created segment.
func (m *Message) Allocate(sz Size) (*Segment, address, error) {
	return m.allocateIn(0, false, sz)
}

// allocateIn reserves sz bytes, preferring segment prefer when
// usePrefer is true (the behavior of an active allocation context) and
// otherwise preferring the last segment written to.
func (m *Message) allocateIn(prefer SegmentID, usePrefer bool, sz Size) (*Segment, address, error) {
	if !sz.isValid_() {
		return nil, 0, annotatef(ErrOversizedList, "allocate %d bytes", sz)
	}
	sz = sz.padToWord()

	try := func(id SegmentID) (*Segment, address, bool) {
		seg, err := m.Segment(id)
		if err != nil {
			return nil, 0, false
		}
		if addr, ok := seg.tryAllocate(sz); ok {
			m.lastSeg, m.hasLast = seg.id, true
			return seg, addr, true
		}
		return nil, 0, false
	}

	if usePrefer {
		if seg, addr, ok := try(prefer); ok {
			return seg, addr, nil
		}
	} else if m.hasLast {
		if seg, addr, ok := try(m.lastSeg); ok {
			return seg, addr, nil
		}
	}
	for _, seg := range m.segList {
		if addr, ok := seg.tryAllocate(sz); ok {
			m.lastSeg, m.hasLast = seg.id, true
			return seg, addr, nil
		}
	}
	id, data, err := m.Arena.Allocate(sz, m.segs)
	if err != nil {
		return nil, 0, annotatef(err, "allocate %d bytes", sz)
	}
	var seg *Segment
	if existing := m.segs[id]; existing != nil {
		existing.data = data
		seg = existing
	} else {
		seg = m.addSegment(id, data)
	}
	addr, ok := seg.tryAllocate(sz)
	if !ok {
		return nil, 0, errorf("allocate %d bytes: arena returned undersized segment", sz)
	}
	m.lastSeg, m.hasLast = seg.id, true
	return seg, addr, nil
}

// alloc is the package-level allocation entry point used by segment.go
// and struct.go; it prefers s's own segment, then falls back to the
// message's other segments and finally to a new one.
func alloc(s *Segment, sz Size) (*Segment, address, error) {
	return s.msg.allocateIn(s.id, true, sz)
}

// Root returns the message's root pointer, dereferenced, or the zero
// Ptr if the root has never been set.
func (m *Message) Root() (Ptr, error) {
	seg, err := m.Segment(0)
	if err != nil {
		return Ptr{}, annotatef(err, "read root")
	}
	p, err := seg.root().At(0)
	if err != nil {
		return Ptr{}, annotatef(err, "read root")
	}
	return p, nil
}

// RootStruct returns the message's root pointer as a Struct.
func (m *Message) RootStruct() (Struct, error) {
	p, err := m.Root()
	if err != nil {
		return Struct{}, err
	}
	return p.Struct(), nil
}

// SetRoot sets the message's root pointer to p.
func (m *Message) SetRoot(p Ptr) error {
	seg, err := m.Segment(0)
	if err != nil {
		return annotatef(err, "set root")
	}
	if err := seg.root().setPointer(0, p); err != nil {
		return annotatef(err, "set root")
	}
	return nil
}

// NewRootStruct allocates a struct of the given size through the
// message's allocator and installs it as the message's root.
func (m *Message) NewRootStruct(sz ObjectSize) (Struct, error) {
	st, err := NewStruct(m, sz)
	if err != nil {
		return Struct{}, annotatef(err, "new root struct")
	}
	if err := m.SetRoot(st.ToPtr()); err != nil {
		return Struct{}, err
	}
	return st, nil
}

// AddCap appends c to the message's capability table, interning: if c
// is already present (by Client.IsSame identity), the existing index is
// returned instead of growing the table.
func (m *Message) AddCap(c Client) CapabilityID {
	for i, existing := range m.capTable {
		if existing != nil && c != nil && existing.IsSame(c) {
			return CapabilityID(i)
		}
	}
	m.capTable = append(m.capTable, c)
	return CapabilityID(len(m.capTable) - 1)
}

// CapTable returns the message's capability table.  Entries are never
// removed for the message's lifetime.
func (m *Message) CapTable() []Client {
	return m.capTable
}

// Client returns the capability at index i of the message's capability
// table, or nil if i is out of range.
func (m *Message) Client(i CapabilityID) Client {
	if int64(i) < 0 || int64(i) >= int64(len(m.capTable)) {
		return nil
	}
	return m.capTable[i]
}

// isValid_ reports whether sz fits within a single segment's encodable
// range.  Named with a trailing underscore to avoid colliding with
// ObjectSize.isValid, which checks a different quantity (data-section
// word count, not total requested bytes).
func (sz Size) isValid_() bool {
	return sz <= maxAllocSize()
}
