package capnp

import "fmt"

// wordSize is the width of a Cap'n Proto word: every section length,
// struct offset, and list stride is counted in multiples of it.
const wordSize Size = 8

// maxSegmentSize is one past the largest byte offset a pointer's
// 32-bit offset and length fields can address.
const maxSegmentSize Size = 1<<32 - 8

// maxInt is the largest value a native int holds on this platform.
// maxAllocSize consults it because converting between Size (always
// 32-bit) and int silently wraps in opposite directions depending on
// whether int is 32 or 64 bits here.
const maxInt = 1<<(32<<(^uint(0)>>63)-1) - 1

// maxAllocSize reports the largest single allocation this process can
// make without the Size<->int conversion at the call site overflowing.
func maxAllocSize() Size {
	if maxInt == 0x7fffffff {
		return Size(0x7ffffff8)
	}
	return maxSegmentSize
}

// clampedSum adds a and b and reports whether the total is a valid,
// non-negative quantity no larger than ceiling. Every overflow-checked
// arithmetic method in this file routes through it rather than
// repeating its own int64 comparison.
func clampedSum(a, b int64, ceiling Size) (uint32, bool) {
	total := a + b
	if total < 0 || total > int64(ceiling) {
		return 0xffffffff, false
	}
	return uint32(total), true
}

// address is a byte offset into a single segment's data, always in
// [0, maxSegmentSize).
type address uint32

func (a address) String() string {
	return fmt.Sprintf("%#08x", uint32(a))
}

func (a address) GoString() string {
	return fmt.Sprintf("capnp.address(%#08x)", uint32(a))
}

// addSize reports a+sz, or ok=false if the sum would leave the
// segment's addressable range.
func (a address) addSize(sz Size) (_ address, ok bool) {
	v, ok := clampedSum(int64(a), int64(sz), maxSegmentSize)
	return address(v), ok
}

// addSizeUnchecked computes a+sz, trusting a caller that has already
// bounded the result itself.
func (a address) addSizeUnchecked(sz Size) address {
	return a + address(sz)
}

// element locates the i'th entry of a run of sz-byte items starting
// at a. i may be negative; a result below zero or past maxSegmentSize
// reports ok=false.
func (a address) element(i int32, sz Size) (_ address, ok bool) {
	v, ok := clampedSum(int64(a), int64(i)*int64(sz), maxSegmentSize)
	return address(v), ok
}

// addOffset applies a struct-relative data offset to a. o is expected
// to already satisfy the 19-bit range a DataOffset promises; violating
// that is a caller bug, so this panics instead of threading through
// another error return.
func (a address) addOffset(o DataOffset) address {
	if o >= 1<<19 {
		panic("capnp: data offset out of range")
	}
	return a + address(o)
}

// Size is a non-negative byte count.
type Size uint32

func (sz Size) String() string {
	if sz == 1 {
		return "1 byte"
	}
	return fmt.Sprintf("%d bytes", uint32(sz))
}

func (sz Size) GoString() string {
	return fmt.Sprintf("capnp.Size(%d)", uint32(sz))
}

// times reports sz*n, or ok=false once the product would exceed
// maxSegmentSize or go negative.
func (sz Size) times(n int32) (_ Size, ok bool) {
	v, ok := clampedSum(0, int64(sz)*int64(n), maxSegmentSize)
	return Size(v), ok
}

// timesUnchecked computes sz*n without any range check.
func (sz Size) timesUnchecked(n int32) Size {
	return sz * Size(n)
}

// padToWord rounds sz up to the nearest whole word.
func (sz Size) padToWord() Size {
	const trailingBits = Size(wordSize - 1)
	return (sz + trailingBits) &^ trailingBits
}

// DataOffset is a byte offset from the start of a struct's data
// section, bounded to [0, 1<<19).
type DataOffset uint32

func (off DataOffset) String() string {
	if off == 1 {
		return "+1 byte"
	}
	return fmt.Sprintf("+%d bytes", uint32(off))
}

func (off DataOffset) GoString() string {
	return fmt.Sprintf("capnp.DataOffset(%d)", uint32(off))
}

// BitOffset is a bit offset from the start of a struct's data section,
// bounded to [0, 1<<22).
type BitOffset uint32

// offset reports which data byte bit falls in.
func (bit BitOffset) offset() DataOffset {
	return DataOffset(bit / 8)
}

// mask reports the single-bit mask selecting bit within its byte.
func (bit BitOffset) mask() byte {
	return 1 << (bit % 8)
}

func (bit BitOffset) String() string {
	return fmt.Sprintf("bit %d", uint32(bit))
}

func (bit BitOffset) GoString() string {
	return fmt.Sprintf("capnp.BitOffset(%d)", uint32(bit))
}

// ObjectSize records the data and pointer section widths shared by a
// struct or a composite list's element layout.
type ObjectSize struct {
	DataSize     Size // always a multiple of wordSize, <= 0xffff words
	PointerCount uint16
}

// isZero reports whether sz describes an entirely empty object.
func (sz ObjectSize) isZero() bool {
	return sz.DataSize == 0 && sz.PointerCount == 0
}

// isOneByte reports whether sz matches the shape Text and Data
// elements use: a single data byte and no pointers.
func (sz ObjectSize) isOneByte() bool {
	return sz.DataSize == 1 && sz.PointerCount == 0
}

// isValid reports whether sz's data section fits the 16-bit word
// count a struct pointer's tag can encode.
func (sz ObjectSize) isValid() bool {
	return sz.DataSize <= 0xffff*wordSize
}

// pointerSize reports the byte width of sz's pointer section.
func (sz ObjectSize) pointerSize() Size {
	return wordSize * Size(sz.PointerCount)
}

// totalSize reports the combined byte width of sz's data and pointer
// sections.
func (sz ObjectSize) totalSize() Size {
	return sz.DataSize + sz.pointerSize()
}

// dataWordCount reports sz's data section length in words. It panics
// if DataSize was never rounded to a word boundary, which would be a
// bug in whatever constructed sz.
func (sz ObjectSize) dataWordCount() int32 {
	if sz.DataSize%wordSize != 0 {
		panic("capnp: object data size is not word-aligned")
	}
	return int32(sz.DataSize / wordSize)
}

// totalWordCount reports sz's combined data and pointer section length
// in words.
func (sz ObjectSize) totalWordCount() int32 {
	return sz.dataWordCount() + int32(sz.PointerCount)
}

func (sz ObjectSize) String() string {
	return fmt.Sprintf("{datasz=%d ptrs=%d}", uint32(sz.DataSize), sz.PointerCount)
}

func (sz ObjectSize) GoString() string {
	return fmt.Sprintf("capnp.ObjectSize{DataSize: %d, PointerCount: %d}", uint32(sz.DataSize), sz.PointerCount)
}
