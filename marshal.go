package capnp

import (
	"bytes"
	"encoding/binary"
	"io"
)

// maxStreamSegments bounds the segment count a Decoder will accept
// before even looking at the rest of the stream, so a header claiming
// billions of segments fails fast instead of driving an enormous
// allocation.
const maxStreamSegments = 1 << 16

// A Decoder reads a sequence of unpacked Cap'n Proto messages from a
// stream: a 32-bit segment count minus one, a 32-bit length per segment (in
// words), padding to the next word boundary, and then the segments'
// words concatenated in order.  There is no framing for RPC or for the
// packed compression variant; each call to Decode reads exactly one
// message.
type Decoder struct {
	r io.Reader
}

// NewDecoder returns a Decoder that reads messages from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r}
}

// Decode reads one message from the stream.
func (d *Decoder) Decode() (*Message, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(d.r, hdr[:]); err != nil {
		return nil, annotatef(err, "decode: read segment count")
	}
	segCount := binary.LittleEndian.Uint32(hdr[:]) + 1
	if segCount == 0 || segCount > maxStreamSegments {
		return nil, annotatef(ErrOversizedList, "decode: %d segments", segCount)
	}

	lenBuf := make([]byte, int(segCount)*4)
	if _, err := io.ReadFull(d.r, lenBuf); err != nil {
		return nil, annotatef(err, "decode: read segment lengths")
	}
	sizes := make([]Size, segCount)
	var total Size
	for i := range sizes {
		words := binary.LittleEndian.Uint32(lenBuf[i*4:])
		sz, ok := wordSize.times(int32(words))
		if !ok {
			return nil, annotatef(ErrOversizedList, "decode: segment %d is %d words", i, words)
		}
		var okAdd bool
		total, okAdd = addSize(total, sz)
		if !okAdd {
			return nil, annotatef(ErrOversizedList, "decode: message exceeds segment size limit")
		}
		sizes[i] = sz
	}
	if segCount%2 == 0 {
		// The (count, lengths) header is (segCount+1)*4 bytes; that's
		// only word-aligned when segCount is odd.
		var pad [4]byte
		if _, err := io.ReadFull(d.r, pad[:]); err != nil {
			return nil, annotatef(err, "decode: read header padding")
		}
	}

	data := make([]byte, total)
	if _, err := io.ReadFull(d.r, data); err != nil {
		return nil, annotatef(err, "decode: read segment data")
	}
	arena := NewMultiSegmentArena()
	var off Size
	for _, sz := range sizes {
		b := data[off : off+sz : off+sz]
		arena.segs = append(arena.segs, &b)
		off += sz
	}
	msg, _, err := NewMessage(arena)
	if err != nil {
		return nil, annotatef(err, "decode")
	}
	return msg, nil
}

// An Encoder writes messages to a stream using the same unpacked
// framing Decoder reads.
type Encoder struct {
	w io.Writer
}

// NewEncoder returns an Encoder that writes messages to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode writes msg to the stream.
func (e *Encoder) Encode(msg *Message) error {
	n := msg.NumSegments()
	if n == 0 {
		return annotatef(ErrSegmentOutOfRange, "encode: message has no segments")
	}
	segs := make([]*Segment, n)
	for id := range segs {
		seg, err := msg.Segment(SegmentID(id))
		if err != nil {
			return annotatef(err, "encode: load segment %d", id)
		}
		segs[id] = seg
	}
	header := make([]byte, 4, 4*(len(segs)+1)+4)
	binary.LittleEndian.PutUint32(header, uint32(len(segs)-1))
	for _, seg := range segs {
		data := seg.Data()
		if Size(len(data))%wordSize != 0 {
			return annotatef(ErrMalformedPointer, "encode: segment %d length not word-aligned", seg.ID())
		}
		var lb [4]byte
		binary.LittleEndian.PutUint32(lb[:], uint32(len(data))/uint32(wordSize))
		header = append(header, lb[:]...)
	}
	if len(header)%8 != 0 {
		header = append(header, 0, 0, 0, 0)
	}
	if _, err := e.w.Write(header); err != nil {
		return annotatef(err, "encode: write header")
	}
	for _, seg := range segs {
		if _, err := e.w.Write(seg.Data()); err != nil {
			return annotatef(err, "encode: write segment %d", seg.ID())
		}
	}
	return nil
}

// Marshal encodes msg using the stream framing and returns the result.
func Marshal(msg *Message) ([]byte, error) {
	var buf bytes.Buffer
	if err := NewEncoder(&buf).Encode(msg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes a single message from data.
func Unmarshal(data []byte) (*Message, error) {
	return NewDecoder(bytes.NewReader(data)).Decode()
}
