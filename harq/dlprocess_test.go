package harq

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("DlHarqProcess", func() {
	var p DlHarqProcess

	BeforeEach(func() {
		p = newDlHarqProcess(0)
	})

	It("should start empty with NDI false", func() {
		Expect(p.IsEmpty()).To(BeTrue())
		Expect(p.NDI(0)).To(BeFalse())
	})

	It("should toggle NDI and activate the TB on NewTx", func() {
		p.NewTx(0, NewTtiPoint(100), 5, 1000, 3, RBGMask(0x1), 2)

		Expect(p.IsEmptyTB(0)).To(BeFalse())
		Expect(p.NDI(0)).To(BeTrue())
		Expect(p.NofTx(0)).To(Equal(uint32(1)))
		Expect(p.TBS(0)).To(Equal(1000))
		Expect(p.MCS(0)).To(Equal(5))
		Expect(p.RBGMask()).To(Equal(RBGMask(0x1)))
		Expect(p.NCce()).To(Equal(uint32(2)))
	})

	It("should not toggle NDI a second time until another NewTx", func() {
		p.NewTx(0, NewTtiPoint(100), 5, 1000, 3, RBGMask(0x1), 2)
		p.NewRetx(0, NewTtiPoint(105), RBGMask(0x2), 3)

		Expect(p.NDI(0)).To(BeTrue())
	})

	It("should gate pending retx on the feedback window", func() {
		p.NewTx(0, NewTtiPoint(100), 5, 1000, 3, RBGMask(0x1), 2)

		Expect(p.HasPendingRetxTB(0, NewTtiPoint(100), 4)).To(BeFalse())
		Expect(p.HasPendingRetxTB(0, NewTtiPoint(103), 4)).To(BeFalse())
		Expect(p.HasPendingRetxTB(0, NewTtiPoint(104), 4)).To(BeTrue())
	})

	It("should reuse mcs/tbs on retransmission", func() {
		p.NewTx(0, NewTtiPoint(100), 5, 1000, 3, RBGMask(0x1), 2)

		mcs, tbs := p.NewRetx(0, NewTtiPoint(105), RBGMask(0x4), 7)

		Expect(mcs).To(Equal(5))
		Expect(tbs).To(Equal(1000))
		Expect(p.NofRetx(0)).To(Equal(uint32(1)))
		Expect(p.RBGMask()).To(Equal(RBGMask(0x4)))
	})

	It("should deactivate the TB on ack", func() {
		p.NewTx(0, NewTtiPoint(100), 5, 1000, 3, RBGMask(0x1), 2)

		maxExceeded, err := p.SetAck(0, true)

		Expect(err).NotTo(HaveOccurred())
		Expect(maxExceeded).To(BeFalse())
		Expect(p.IsEmptyTB(0)).To(BeTrue())
	})

	It("should report an error acking an inactive TB", func() {
		_, err := p.SetAck(0, true)

		Expect(err).To(MatchError(ErrInactiveHarq))
	})

	It("should discard the TB once max_retx is exhausted", func() {
		p.NewTx(0, NewTtiPoint(100), 5, 1000, 1, RBGMask(0x1), 2)

		maxExceeded, err := p.SetAck(0, false)

		Expect(err).NotTo(HaveOccurred())
		Expect(maxExceeded).To(BeTrue())
		Expect(p.IsEmptyTB(0)).To(BeTrue())
	})

	It("should keep the TB active while retx budget remains", func() {
		p.NewTx(0, NewTtiPoint(100), 5, 1000, 3, RBGMask(0x1), 2)

		maxExceeded, err := p.SetAck(0, false)

		Expect(err).NotTo(HaveOccurred())
		Expect(maxExceeded).To(BeFalse())
		Expect(p.IsEmptyTB(0)).To(BeFalse())
	})

	It("should recycle an active TB when max_retx is zero", func() {
		p.NewTx(0, NewTtiPoint(100), 5, 1000, 0, RBGMask(0x1), 2)

		p.ResetPendingData()

		Expect(p.IsEmptyTB(0)).To(BeTrue())
	})

	It("should clear allocation fields but preserve NDI on reset", func() {
		p.NewTx(0, NewTtiPoint(100), 5, 1000, 3, RBGMask(0x1), 2)

		p.reset()

		Expect(p.IsEmpty()).To(BeTrue())
		Expect(p.RBGMask()).To(Equal(RBGMask(0)))
		Expect(p.NDI(0)).To(BeTrue())
	})
})
