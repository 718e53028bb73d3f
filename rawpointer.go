package capnp

import (
	"fmt"
)

// pointerOffset is an address offset in multiples of word size.
// It is bounded to [-1<<29, 1<<29).
type pointerOffset int32

// resolve returns an absolute address relative to a base address.
// For near pointers, the base is the end of the near pointer.
// For far pointers, the base is zero (the beginning of the segment).
func (off pointerOffset) resolve(base address) (_ address, ok bool) {
	return base.element(int32(off), wordSize)
}

// nearPointerOffset computes the offset for a pointer at paddr to point
// to addr.
func nearPointerOffset(paddr, addr address) pointerOffset {
	return pointerOffset(addr/address(wordSize) - paddr/address(wordSize) - 1)
}

// rawPointer is a single encoded pointer word: a 64-bit tagged union
// distinguishing struct, list, far, and other/capability pointers.
type rawPointer uint64

// Bit lanes within a rawPointer word, named so the constructors below
// read as "which lane gets which field" instead of bare shift amounts.
const (
	offsetLaneShift     = 2  // near-pointer signed word offset
	farSegmentLaneShift = 32 // segment ID on far/double-far pointers
	structDataLaneShift = 32 // struct pointer data-section word count
	structPtrLaneShift  = 48 // struct pointer pointer-section count
	listTagLaneShift    = 32 // list pointer element-type tag
	listLenLaneShift    = 35 // list pointer element/word count
	capabilityLaneShift = 32 // interface pointer capability index
)

// withTag stamps the low three bits of a rawPointer with a pointer
// type tag, leaving every other bit untouched. Every constructor below
// builds its word by combining this with the lane values above.
func withTag(t pointerType) rawPointer {
	return rawPointer(t)
}

// rawStructPointer builds a struct pointer whose offset runs from the
// end of the pointer word to the start of the struct's data section.
func rawStructPointer(off pointerOffset, sz ObjectSize) rawPointer {
	word := withTag(structPointer)
	word |= rawPointer(uint32(off) << offsetLaneShift)
	word |= rawPointer(sz.dataWordCount()) << structDataLaneShift
	word |= rawPointer(sz.PointerCount) << structPtrLaneShift
	return word
}

// rawListPointer builds a list pointer. off counts words from the end
// of the pointer to the list's first element. length is a word count
// when lt is compositeList and an element count otherwise.
func rawListPointer(off pointerOffset, lt listType, length int32) rawPointer {
	word := withTag(listPointer)
	word |= rawPointer(uint32(off) << offsetLaneShift)
	word |= rawPointer(lt) << listTagLaneShift
	word |= rawPointer(length) << listLenLaneShift
	return word
}

// rawInterfacePointer builds an interface pointer naming a capability
// table slot.
func rawInterfacePointer(capability CapabilityID) rawPointer {
	return withTag(otherPointer) | rawPointer(capability)<<capabilityLaneShift
}

// farAddressLane masks a byte address down to the word-aligned bits a
// far pointer's landing-pad address lane can hold.
func farAddressLane(off address) rawPointer {
	return rawPointer(off &^ 7)
}

// rawFarPointer builds a pointer that redirects a reader to a landing
// pad pointer word living in another segment.
func rawFarPointer(segID SegmentID, off address) rawPointer {
	return withTag(farPointer) | farAddressLane(off) | rawPointer(segID)<<farSegmentLaneShift
}

// rawDoubleFarPointer builds a landing-pad-of-a-landing-pad reference,
// used when the target itself required a far pointer to reach.
func rawDoubleFarPointer(segID SegmentID, off address) rawPointer {
	return withTag(doubleFarPointer) | farAddressLane(off) | rawPointer(segID)<<farSegmentLaneShift
}

// landingPadNearPointer folds a double-far pointer's landing-pad
// address into tag's offset lane, producing the near pointer that a
// double-far chain ultimately resolves to. tag supplies every field
// except the offset, and must already be a struct or list pointer.
func landingPadNearPointer(far, tag rawPointer) rawPointer {
	const offsetLaneMask = rawPointer(0xfffffffc)
	// far's address lane is a 29-bit unsigned word count; shifting it
	// right by one turns it into the signed 30-bit offset lane a near
	// pointer expects.
	rebased := rawPointer(uint32(far&^3) >> 1)
	return tag&^offsetLaneMask | rebased
}

type pointerType int

// Raw pointer types (low tag bits of a rawPointer).
const (
	structPointer    pointerType = 0
	listPointer      pointerType = 1
	farPointer       pointerType = 2
	doubleFarPointer pointerType = 6
	otherPointer     pointerType = 3
)

func (p rawPointer) pointerType() pointerType {
	t := pointerType(p & 3)
	if t == farPointer {
		return pointerType(p & 7)
	}
	return t
}

func (p rawPointer) structSize() ObjectSize {
	c := uint16(p >> 32)
	d := uint16(p >> 48)
	return ObjectSize{
		DataSize:     wordSize.timesUnchecked(int32(c)),
		PointerCount: d,
	}
}

type listType int

// Raw list pointer element-size tags.
const (
	voidList      listType = 0
	bit1List      listType = 1
	byte1List     listType = 2
	byte2List     listType = 3
	byte4List     listType = 4
	byte8List     listType = 5
	pointerList   listType = 6
	compositeList listType = 7
)

func (p rawPointer) listType() listType {
	return listType((p >> 32) & 7)
}

// numListElements returns the number of elements in the list, or the
// number of words in the list content if the list is a composite list.
// Always in the range [0, 1<<29).
func (p rawPointer) numListElements() int32 {
	return int32(p >> 35)
}

// elementSize returns the size of an individual element in the list
// referenced by p.  Must not be called for composite lists.
func (p rawPointer) elementSize() ObjectSize {
	switch p.listType() {
	case voidList:
		return ObjectSize{}
	case bit1List:
		return ObjectSize{} // size is ignored on bit lists
	case byte1List:
		return ObjectSize{DataSize: 1}
	case byte2List:
		return ObjectSize{DataSize: 2}
	case byte4List:
		return ObjectSize{DataSize: 4}
	case byte8List:
		return ObjectSize{DataSize: 8}
	case pointerList:
		return ObjectSize{PointerCount: 1}
	default:
		panic("elementSize not supposed to be called on composite or unknown list type")
	}
}

// totalListSize returns the total size of the list referenced by p.
func (p rawPointer) totalListSize() (sz Size, ok bool) {
	n := p.numListElements()
	switch p.listType() {
	case bit1List:
		return bitListSize(n), true
	case compositeList:
		// n represents the number of words, excluding the tag word.
		return wordSize.times(n + 1)
	default:
		return p.elementSize().totalSize().timesUnchecked(n), true
	}
}

// offset returns a pointer's offset.  Only valid for struct or list
// pointers.
func (p rawPointer) offset() pointerOffset {
	return pointerOffset(int32(p) >> 2)
}

// withOffset replaces a pointer's offset.  Only valid for struct or
// list pointers.
func (p rawPointer) withOffset(off pointerOffset) rawPointer {
	return p&^0xfffffffc | rawPointer(uint32(off<<2))
}

// farAddress returns the address of the landing pad pointer.
func (p rawPointer) farAddress() address {
	// Far pointer offset is 29 bits starting after the low 3 bits; it's
	// an unsigned word offset, equivalent to a logical left shift by 3.
	return address(p) &^ 7
}

// farSegment returns the segment ID that the far pointer references.
func (p rawPointer) farSegment() SegmentID {
	return SegmentID(p >> 32)
}

// otherPointerType returns the subtype of "other pointer" from p.
func (p rawPointer) otherPointerType() uint32 {
	return uint32(p) >> 2
}

// capabilityIndex returns the index of the capability in the message's
// capability table.
func (p rawPointer) capabilityIndex() CapabilityID {
	return CapabilityID(p >> 32)
}

// GoString formats the pointer as a call to one of the rawPointer
// construction functions.
func (p rawPointer) GoString() string {
	if p == 0 {
		return "rawPointer(0)"
	}
	switch p.pointerType() {
	case structPointer:
		return fmt.Sprintf("rawStructPointer(%d, %#v)", p.offset(), p.structSize())
	case listPointer:
		var lt string
		switch p.listType() {
		case voidList:
			lt = "voidList"
		case bit1List:
			lt = "bit1List"
		case byte1List:
			lt = "byte1List"
		case byte2List:
			lt = "byte2List"
		case byte4List:
			lt = "byte4List"
		case byte8List:
			lt = "byte8List"
		case pointerList:
			lt = "pointerList"
		case compositeList:
			lt = "compositeList"
		}
		return fmt.Sprintf("rawListPointer(%d, %s, %d)", p.offset(), lt, p.numListElements())
	case farPointer:
		return fmt.Sprintf("rawFarPointer(%d, %v)", p.farSegment(), p.farAddress())
	case doubleFarPointer:
		return fmt.Sprintf("rawDoubleFarPointer(%d, %v)", p.farSegment(), p.farAddress())
	default:
		if p.otherPointerType() != 0 {
			return fmt.Sprintf("rawPointer(%#016x)", uint64(p))
		}
		return fmt.Sprintf("rawInterfacePointer(%d)", p.capabilityIndex())
	}
}

// bitListSize returns the byte size of a 1-bit list of n elements.
func bitListSize(n int32) Size {
	return Size((n + 7) / 8)
}
