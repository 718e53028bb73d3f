package e2e

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	capnp "github.com/palad1/capnpcore"
)

type stubClient struct{ name string }

func (c *stubClient) IsSame(other capnp.Client) bool {
	o, ok := other.(*stubClient)
	return ok && o.name == c.name
}

var _ = Describe("a Cap'n Proto message", func() {
	It("round-trips primitive struct fields through their default encoding", func() {
		msg, _, err := capnp.NewMessage(nil)
		Expect(err).NotTo(HaveOccurred())

		root, err := msg.NewRootStruct(capnp.ObjectSize{DataSize: 16})
		Expect(err).NotTo(HaveOccurred())
		Expect(root.SetUint32(0, 1234, 0)).To(Succeed())
		Expect(root.SetInt64(8, -99, 0)).To(Succeed())

		Expect(root.Uint32(0, 0)).To(Equal(uint32(1234)))
		Expect(root.Int64(8, 0)).To(Equal(int64(-99)))
	})

	It("resolves a pointer that stays within its own segment", func() {
		msg, _, err := capnp.NewMessage(nil)
		Expect(err).NotTo(HaveOccurred())

		root, err := msg.NewRootStruct(capnp.ObjectSize{PointerCount: 1})
		Expect(err).NotTo(HaveOccurred())

		child, err := capnp.NewStruct(msg, capnp.ObjectSize{DataSize: 8})
		Expect(err).NotTo(HaveOccurred())
		Expect(child.SetUint64(0, 7, 0)).To(Succeed())
		Expect(root.SetPtr(0, child.ToPtr())).To(Succeed())

		got, err := root.Ptr(0)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Struct().Uint64(0, 0)).To(Equal(uint64(7)))
	})

	It("resolves a pointer across segments via a far pointer", func() {
		msg, _, err := capnp.NewMessage(capnp.NewMultiSegmentArena())
		Expect(err).NotTo(HaveOccurred())

		root, err := msg.NewRootStruct(capnp.ObjectSize{PointerCount: 1})
		Expect(err).NotTo(HaveOccurred())

		// DataSize exceeds segment 0's remaining headroom, forcing the
		// target into a second segment.
		far, err := capnp.NewStruct(msg, capnp.ObjectSize{DataSize: 8192})
		Expect(err).NotTo(HaveOccurred())
		Expect(far.SetUint64(0, 321, 0)).To(Succeed())
		Expect(root.SetPtr(0, far.ToPtr())).To(Succeed())

		Expect(msg.NumSegments()).To(BeNumerically(">=", 2))

		got, err := root.Ptr(0)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Struct().Uint64(0, 0)).To(Equal(uint64(321)))
	})

	It("interns capabilities added multiple times under the same identity", func() {
		msg, _, err := capnp.NewMessage(nil)
		Expect(err).NotTo(HaveOccurred())

		root, err := msg.NewRootStruct(capnp.ObjectSize{PointerCount: 2})
		Expect(err).NotTo(HaveOccurred())

		a, b := &stubClient{name: "svc"}, &stubClient{name: "svc"}
		Expect(root.SetCapability(0, a)).To(Succeed())
		Expect(root.SetCapability(1, b)).To(Succeed())

		p0, err := root.Ptr(0)
		Expect(err).NotTo(HaveOccurred())
		p1, err := root.Ptr(1)
		Expect(err).NotTo(HaveOccurred())
		Expect(p0.Interface().Capability()).To(Equal(p1.Interface().Capability()))
		Expect(msg.CapTable()).To(HaveLen(1))
	})

	It("deep-copies a struct graph into a fresh message", func() {
		src, _, err := capnp.NewMessage(nil)
		Expect(err).NotTo(HaveOccurred())

		leaf, err := capnp.NewText(src, "payload")
		Expect(err).NotTo(HaveOccurred())

		root, err := src.NewRootStruct(capnp.ObjectSize{PointerCount: 1})
		Expect(err).NotTo(HaveOccurred())
		Expect(root.SetPtr(0, leaf)).To(Succeed())

		dst, _, err := capnp.NewMessage(nil)
		Expect(err).NotTo(HaveOccurred())

		copied, err := root.CopyTo(dst)
		Expect(err).NotTo(HaveOccurred())
		Expect(dst.SetRoot(copied.ToPtr())).To(Succeed())

		dstRoot, err := dst.RootStruct()
		Expect(err).NotTo(HaveOccurred())
		p, err := dstRoot.Ptr(0)
		Expect(err).NotTo(HaveOccurred())
		Expect(p.Text()).To(Equal("payload"))

		// src is untouched: the copy did not alias its segments.
		srcRoot, err := src.RootStruct()
		Expect(err).NotTo(HaveOccurred())
		Expect(srcRoot.Segment()).NotTo(BeIdenticalTo(dstRoot.Segment()))
	})

	It("enforces the traversal limit as a sticky read budget", func() {
		msg, _, err := capnp.NewMessage(nil)
		Expect(err).NotTo(HaveOccurred())
		msg.TraverseLimit = 4

		root, err := msg.NewRootStruct(capnp.ObjectSize{DataSize: 8, PointerCount: 1})
		Expect(err).NotTo(HaveOccurred())

		child, err := capnp.NewStruct(msg, capnp.ObjectSize{DataSize: 8})
		Expect(err).NotTo(HaveOccurred())
		Expect(root.SetPtr(0, child.ToPtr())).To(Succeed())

		// The 8-byte child exceeds the 4-byte budget, and once exceeded
		// the budget stays exhausted for every later read.
		_, err = root.Ptr(0)
		Expect(err).To(HaveOccurred())
		_, err = root.Ptr(0)
		Expect(err).To(HaveOccurred())
	})

	It("survives an encode/decode round trip across multiple segments", func() {
		msg, _, err := capnp.NewMessage(capnp.NewMultiSegmentArena())
		Expect(err).NotTo(HaveOccurred())

		root, err := msg.NewRootStruct(capnp.ObjectSize{PointerCount: 1})
		Expect(err).NotTo(HaveOccurred())
		far, err := capnp.NewStruct(msg, capnp.ObjectSize{DataSize: 8192})
		Expect(err).NotTo(HaveOccurred())
		Expect(far.SetUint64(0, 654, 0)).To(Succeed())
		Expect(root.SetPtr(0, far.ToPtr())).To(Succeed())

		data, err := capnp.Marshal(msg)
		Expect(err).NotTo(HaveOccurred())

		decoded, err := capnp.Unmarshal(data)
		Expect(err).NotTo(HaveOccurred())

		decodedRoot, err := decoded.RootStruct()
		Expect(err).NotTo(HaveOccurred())
		p, err := decodedRoot.Ptr(0)
		Expect(err).NotTo(HaveOccurred())
		Expect(p.Struct().Uint64(0, 0)).To(Equal(uint64(654)))
	})

	It("compacts a struct's trailing zero fields without disturbing live data", func() {
		msg, _, err := capnp.NewMessage(nil)
		Expect(err).NotTo(HaveOccurred())

		st, err := capnp.NewStruct(msg, capnp.ObjectSize{DataSize: 8, PointerCount: 2})
		Expect(err).NotTo(HaveOccurred())
		text, err := capnp.NewText(msg, "data")
		Expect(err).NotTo(HaveOccurred())
		Expect(st.SetUint64(0, 42, 0)).To(Succeed())
		Expect(st.SetPtr(0, text)).To(Succeed())

		compacted, err := st.Compact(false)
		Expect(err).NotTo(HaveOccurred())
		Expect(compacted.Size().PointerCount).To(Equal(uint16(1)))

		p, err := compacted.Ptr(0)
		Expect(err).NotTo(HaveOccurred())
		Expect(p.Text()).To(Equal("data"))
	})

	It("pins an allocation context to one segment across several objects", func() {
		msg, _, err := capnp.NewMessage(capnp.NewMultiSegmentArena())
		Expect(err).NotTo(HaveOccurred())

		ctx := capnp.NewAllocContext(msg)
		first, err := ctx.NewStruct(capnp.ObjectSize{DataSize: 8})
		Expect(err).NotTo(HaveOccurred())

		second, err := ctx.NewStruct(capnp.ObjectSize{DataSize: 8})
		Expect(err).NotTo(HaveOccurred())

		Expect(second.Segment().ID()).To(Equal(first.Segment().ID()))
	})
})
