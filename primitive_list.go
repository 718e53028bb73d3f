package capnp

import "math"

// UInt8List is a list of unsigned 8-bit integers.
type UInt8List List

// NewUInt8List allocates a list of n uint8s in msg.
func NewUInt8List(msg *Message, n int32) (UInt8List, error) {
	l, err := newList(msg, ObjectSize{DataSize: 1}, n, 0)
	return UInt8List(l), annotatef(err, "new uint8 list")
}

func (l UInt8List) Len() int     { return List(l).Len() }
func (l UInt8List) ToPtr() Ptr   { return List(l).ToPtr() }
func (l UInt8List) At(i int) uint8 {
	if i < 0 || i >= int(l.length) {
		return 0
	}
	return l.seg.readUint8(List(l).elementAddr(i, 1))
}
func (l UInt8List) Set(i int, v uint8) error {
	if i < 0 || i >= int(l.length) {
		return annotatef(ErrIndexOutOfRange, "uint8 list index %d", i)
	}
	l.seg.writeUint8(List(l).elementAddr(i, 1), v)
	return nil
}

// Int8List is a list of signed 8-bit integers.
type Int8List List

// NewInt8List allocates a list of n int8s in msg.
func NewInt8List(msg *Message, n int32) (Int8List, error) {
	l, err := newList(msg, ObjectSize{DataSize: 1}, n, 0)
	return Int8List(l), annotatef(err, "new int8 list")
}

func (l Int8List) Len() int   { return List(l).Len() }
func (l Int8List) ToPtr() Ptr { return List(l).ToPtr() }
func (l Int8List) At(i int) int8 {
	return int8(UInt8List(l).At(i))
}
func (l Int8List) Set(i int, v int8) error {
	return UInt8List(l).Set(i, uint8(v))
}

// UInt16List is a list of unsigned 16-bit integers.
type UInt16List List

// NewUInt16List allocates a list of n uint16s in msg.
func NewUInt16List(msg *Message, n int32) (UInt16List, error) {
	l, err := newList(msg, ObjectSize{DataSize: 2}, n, 0)
	return UInt16List(l), annotatef(err, "new uint16 list")
}

func (l UInt16List) Len() int   { return List(l).Len() }
func (l UInt16List) ToPtr() Ptr { return List(l).ToPtr() }
func (l UInt16List) At(i int) uint16 {
	if i < 0 || i >= int(l.length) {
		return 0
	}
	return l.seg.readUint16(List(l).elementAddr(i, 2))
}
func (l UInt16List) Set(i int, v uint16) error {
	if i < 0 || i >= int(l.length) {
		return annotatef(ErrIndexOutOfRange, "uint16 list index %d", i)
	}
	l.seg.writeUint16(List(l).elementAddr(i, 2), v)
	return nil
}

// Int16List is a list of signed 16-bit integers.
type Int16List List

// NewInt16List allocates a list of n int16s in msg.
func NewInt16List(msg *Message, n int32) (Int16List, error) {
	l, err := newList(msg, ObjectSize{DataSize: 2}, n, 0)
	return Int16List(l), annotatef(err, "new int16 list")
}

func (l Int16List) Len() int   { return List(l).Len() }
func (l Int16List) ToPtr() Ptr { return List(l).ToPtr() }
func (l Int16List) At(i int) int16 {
	return int16(UInt16List(l).At(i))
}
func (l Int16List) Set(i int, v int16) error {
	return UInt16List(l).Set(i, uint16(v))
}

// UInt32List is a list of unsigned 32-bit integers.
type UInt32List List

// NewUInt32List allocates a list of n uint32s in msg.
func NewUInt32List(msg *Message, n int32) (UInt32List, error) {
	l, err := newList(msg, ObjectSize{DataSize: 4}, n, 0)
	return UInt32List(l), annotatef(err, "new uint32 list")
}

func (l UInt32List) Len() int   { return List(l).Len() }
func (l UInt32List) ToPtr() Ptr { return List(l).ToPtr() }
func (l UInt32List) At(i int) uint32 {
	if i < 0 || i >= int(l.length) {
		return 0
	}
	return l.seg.readUint32(List(l).elementAddr(i, 4))
}
func (l UInt32List) Set(i int, v uint32) error {
	if i < 0 || i >= int(l.length) {
		return annotatef(ErrIndexOutOfRange, "uint32 list index %d", i)
	}
	l.seg.writeUint32(List(l).elementAddr(i, 4), v)
	return nil
}

// Int32List is a list of signed 32-bit integers.
type Int32List List

// NewInt32List allocates a list of n int32s in msg.
func NewInt32List(msg *Message, n int32) (Int32List, error) {
	l, err := newList(msg, ObjectSize{DataSize: 4}, n, 0)
	return Int32List(l), annotatef(err, "new int32 list")
}

func (l Int32List) Len() int   { return List(l).Len() }
func (l Int32List) ToPtr() Ptr { return List(l).ToPtr() }
func (l Int32List) At(i int) int32 {
	return int32(UInt32List(l).At(i))
}
func (l Int32List) Set(i int, v int32) error {
	return UInt32List(l).Set(i, uint32(v))
}

// UInt64List is a list of unsigned 64-bit integers.
type UInt64List List

// NewUInt64List allocates a list of n uint64s in msg.
func NewUInt64List(msg *Message, n int32) (UInt64List, error) {
	l, err := newList(msg, ObjectSize{DataSize: 8}, n, 0)
	return UInt64List(l), annotatef(err, "new uint64 list")
}

func (l UInt64List) Len() int   { return List(l).Len() }
func (l UInt64List) ToPtr() Ptr { return List(l).ToPtr() }
func (l UInt64List) At(i int) uint64 {
	if i < 0 || i >= int(l.length) {
		return 0
	}
	return l.seg.readUint64(List(l).elementAddr(i, 8))
}
func (l UInt64List) Set(i int, v uint64) error {
	if i < 0 || i >= int(l.length) {
		return annotatef(ErrIndexOutOfRange, "uint64 list index %d", i)
	}
	l.seg.writeUint64(List(l).elementAddr(i, 8), v)
	return nil
}

// Int64List is a list of signed 64-bit integers.
type Int64List List

// NewInt64List allocates a list of n int64s in msg.
func NewInt64List(msg *Message, n int32) (Int64List, error) {
	l, err := newList(msg, ObjectSize{DataSize: 8}, n, 0)
	return Int64List(l), annotatef(err, "new int64 list")
}

func (l Int64List) Len() int   { return List(l).Len() }
func (l Int64List) ToPtr() Ptr { return List(l).ToPtr() }
func (l Int64List) At(i int) int64 {
	return int64(UInt64List(l).At(i))
}
func (l Int64List) Set(i int, v int64) error {
	return UInt64List(l).Set(i, uint64(v))
}

// Float32List is a list of 32-bit floats.
type Float32List List

// NewFloat32List allocates a list of n float32s in msg.
func NewFloat32List(msg *Message, n int32) (Float32List, error) {
	l, err := newList(msg, ObjectSize{DataSize: 4}, n, 0)
	return Float32List(l), annotatef(err, "new float32 list")
}

func (l Float32List) Len() int   { return List(l).Len() }
func (l Float32List) ToPtr() Ptr { return List(l).ToPtr() }
func (l Float32List) At(i int) float32 {
	return math.Float32frombits(UInt32List(l).At(i))
}
func (l Float32List) Set(i int, v float32) error {
	return UInt32List(l).Set(i, math.Float32bits(v))
}

// Float64List is a list of 64-bit floats.
type Float64List List

// NewFloat64List allocates a list of n float64s in msg.
func NewFloat64List(msg *Message, n int32) (Float64List, error) {
	l, err := newList(msg, ObjectSize{DataSize: 8}, n, 0)
	return Float64List(l), annotatef(err, "new float64 list")
}

func (l Float64List) Len() int   { return List(l).Len() }
func (l Float64List) ToPtr() Ptr { return List(l).ToPtr() }
func (l Float64List) At(i int) float64 {
	return math.Float64frombits(UInt64List(l).At(i))
}
func (l Float64List) Set(i int, v float64) error {
	return UInt64List(l).Set(i, math.Float64bits(v))
}
