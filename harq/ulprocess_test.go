package harq

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("UlHarqProcess", func() {
	var p UlHarqProcess

	BeforeEach(func() {
		p = newUlHarqProcess(0)
	})

	It("should arm the PHICH latch and set pending data on NewTx", func() {
		p.NewTx(NewTtiPoint(10), 4, 500, PRBInterval{Start: 0, Len: 10}, 5)

		Expect(p.HasPendingPhich()).To(BeTrue())
		Expect(p.PendingData()).To(Equal(uint32(500)))
		Expect(p.Alloc()).To(Equal(PRBInterval{Start: 0, Len: 10}))
	})

	It("should consume the PHICH latch exactly once", func() {
		p.NewTx(NewTtiPoint(10), 4, 500, PRBInterval{Start: 0, Len: 10}, 5)
		_, _ = p.SetAck(true)

		ack := p.PopPendingPhich()

		Expect(ack).To(BeTrue())
		Expect(p.HasPendingPhich()).To(BeFalse())
	})

	It("should clear pending data once the process becomes empty", func() {
		p.NewTx(NewTtiPoint(10), 4, 500, PRBInterval{Start: 0, Len: 10}, 5)
		_, _ = p.SetAck(true)

		p.ResetPendingData()

		Expect(p.PendingData()).To(Equal(uint32(0)))
	})

	It("should recycle an active process when max_retx is zero", func() {
		p.NewTx(NewTtiPoint(10), 4, 500, PRBInterval{Start: 0, Len: 10}, 0)

		p.ResetPendingData()

		Expect(p.HasPendingRetx()).To(BeFalse())
		Expect(p.PendingData()).To(Equal(uint32(0)))
	})

	It("should not require a fresh PDCCH grant when alloc and target slot are unchanged", func() {
		identity := func(t TtiPoint) TtiPoint { return t }

		p.NewTx(NewTtiPoint(10), 4, 500, PRBInterval{Start: 0, Len: 10}, 5)

		needs := p.RetxRequiresPdcch(NewTtiPoint(10), PRBInterval{Start: 0, Len: 10}, identity)

		Expect(needs).To(BeFalse())
	})

	It("should require a fresh PDCCH grant when the allocation changes", func() {
		identity := func(t TtiPoint) TtiPoint { return t }

		p.NewTx(NewTtiPoint(10), 4, 500, PRBInterval{Start: 0, Len: 10}, 5)

		needs := p.RetxRequiresPdcch(NewTtiPoint(10), PRBInterval{Start: 5, Len: 10}, identity)

		Expect(needs).To(BeTrue())
	})

	It("should require a fresh PDCCH grant when the target slot changes", func() {
		shifted := func(t TtiPoint) TtiPoint { return t.Add(1) }

		p.NewTx(NewTtiPoint(10), 4, 500, PRBInterval{Start: 0, Len: 10}, 5)

		needs := p.RetxRequiresPdcch(NewTtiPoint(10), PRBInterval{Start: 0, Len: 10}, shifted)

		Expect(needs).To(BeTrue())
	})
})
