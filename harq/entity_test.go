package harq

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type recordingHook struct {
	events []HookCtx
}

func (h *recordingHook) Func(ctx HookCtx) {
	h.events = append(h.events, ctx)
}

var _ = Describe("HarqEntity", func() {
	Describe("synchronous downlink selection", func() {
		var e *HarqEntity

		BeforeEach(func() {
			e = MakeHarqEntityBuilder().
				WithNofDlHarqs(4).
				WithNofUlHarqs(4).
				WithFddDelayDL(4).
				WithFddDelayUL(4).
				Build()
		})

		It("should only ever consider the process at tti mod D", func() {
			h := e.GetEmptyDlHarq(NewTtiPoint(101))

			Expect(h.ID()).To(Equal(uint32(1)))
		})

		It("should return nil for an occupied slot", func() {
			e.dl[1].NewTx(0, NewTtiPoint(101), 5, 1000, 5, 0, 0)

			Expect(e.GetEmptyDlHarq(NewTtiPoint(101))).To(BeNil())
		})

		It("should return the process once its feedback window elapses", func() {
			e.dl[1].NewTx(0, NewTtiPoint(101), 5, 1000, 5, 0, 0)

			Expect(e.GetPendingDlHarq(NewTtiPoint(101))).To(BeNil())
			Expect(e.GetPendingDlHarq(NewTtiPoint(104))).To(BeNil())
			Expect(e.GetPendingDlHarq(NewTtiPoint(105)).ID()).To(Equal(uint32(1)))
		})
	})

	Describe("asynchronous downlink selection", func() {
		var e *HarqEntity

		BeforeEach(func() {
			e = MakeHarqEntityBuilder().
				WithNofDlHarqs(4).
				WithNofUlHarqs(4).
				WithAsync(true).
				WithFddDelayDL(4).
				WithFddDelayUL(4).
				Build()
		})

		It("should pick the first empty process in index order", func() {
			e.dl[0].NewTx(0, NewTtiPoint(1), 5, 1000, 5, 0, 0)

			h := e.GetEmptyDlHarq(NewTtiPoint(50))

			Expect(h.ID()).To(Equal(uint32(1)))
		})

		It("should pick the oldest observed pending process", func() {
			e.dl[0].NewTx(0, NewTtiPoint(10), 5, 1000, 5, 0, 0)
			e.dl[1].NewTx(0, NewTtiPoint(20), 5, 1000, 5, 0, 0)

			e.NewTti(NewTtiPoint(14))
			e.NewTti(NewTtiPoint(24))

			h := e.GetPendingDlHarq(NewTtiPoint(30))

			Expect(h.ID()).To(Equal(uint32(0)))
		})

		It("should skip processes whose feedback window has not been observed", func() {
			e.dl[0].NewTx(0, NewTtiPoint(10), 5, 1000, 5, 0, 0)
			e.dl[2].NewTx(0, NewTtiPoint(5), 5, 1000, 5, 0, 0)

			e.NewTti(NewTtiPoint(14))
			// ack tti for dl[2] (9) deliberately never observed

			h := e.GetPendingDlHarq(NewTtiPoint(30))

			Expect(h.ID()).To(Equal(uint32(0)))
		})

		It("should return nil when nothing is eligible", func() {
			Expect(e.GetPendingDlHarq(NewTtiPoint(30))).To(BeNil())
		})
	})

	Describe("feedback routing", func() {
		var e *HarqEntity

		BeforeEach(func() {
			e = MakeHarqEntityBuilder().
				WithNofDlHarqs(4).
				WithNofUlHarqs(4).
				WithFddDelayDL(4).
				WithFddDelayUL(4).
				Build()
		})

		It("should route SetAckInfo to the process whose ack window matches", func() {
			e.dl[1].NewTx(0, NewTtiPoint(101), 5, 1000, 5, 0, 0)

			pid, tbs := e.SetAckInfo(NewTtiPoint(105), 0, true)

			Expect(pid).To(Equal(uint32(1)))
			Expect(tbs).To(Equal(1000))
			Expect(e.dl[1].IsEmptyTB(0)).To(BeTrue())
		})

		It("should report a miss when no process matches and invoke the hook", func() {
			hook := &recordingHook{}
			e.AcceptHook(hook)

			pid, tbs := e.SetAckInfo(NewTtiPoint(999), 0, true)

			Expect(pid).To(Equal(e.NofDlHarqs()))
			Expect(tbs).To(Equal(-1))
			Expect(hook.events).To(HaveLen(1))
			Expect(hook.events[0].Pos).To(Equal(HookPosFeedbackMiss))
		})

		It("should invoke HookPosMaxRetxExceeded when a nack exhausts the retx budget", func() {
			hook := &recordingHook{}
			e.AcceptHook(hook)

			e.dl[1].NewTx(0, NewTtiPoint(101), 5, 1000, 1, 0, 0)

			_, _ = e.SetAckInfo(NewTtiPoint(105), 0, false)

			var sawMaxExceeded bool
			for _, evt := range hook.events {
				if evt.Pos == HookPosMaxRetxExceeded {
					sawMaxExceeded = true
				}
			}

			Expect(sawMaxExceeded).To(BeTrue())
		})

		It("should route SetUlCrc to the synchronous uplink process", func() {
			e.ul[2].NewTx(NewTtiPoint(102), 4, 500, PRBInterval{Start: 0, Len: 10}, 5)

			pid := e.SetUlCrc(NewTtiPoint(102), 0, true)

			Expect(pid).To(Equal(2))
			Expect(e.ul[2].HasPendingRetx()).To(BeFalse())
		})

		It("should report -1 from SetUlCrc on an inactive process", func() {
			pid := e.SetUlCrc(NewTtiPoint(102), 0, true)

			Expect(pid).To(Equal(-1))
		})
	})

	Describe("per-TTI housekeeping", func() {
		It("should recycle a zero-retx-budget uplink process via ResetPendingData", func() {
			e := MakeHarqEntityBuilder().
				WithNofDlHarqs(4).
				WithNofUlHarqs(4).
				WithFddDelayDL(4).
				WithFddDelayUL(4).
				Build()

			ttiRx := NewTtiPoint(50)
			ulSlot := e.ToTxUl(ttiRx)
			e.GetUlHarq(ulSlot).NewTx(ulSlot, 4, 500, PRBInterval{Start: 0, Len: 10}, 0)

			e.ResetPendingData(ttiRx)

			Expect(e.GetUlHarq(ulSlot).HasPendingRetx()).To(BeFalse())
			Expect(e.GetUlHarq(ulSlot).PendingData()).To(Equal(uint32(0)))
		})
	})

	Describe("Reset", func() {
		It("should deactivate every process and invoke HookPosEntityReset", func() {
			e := MakeHarqEntityBuilder().
				WithNofDlHarqs(2).
				WithNofUlHarqs(2).
				Build()

			e.dl[0].NewTx(0, NewTtiPoint(1), 5, 1000, 5, 0, 0)
			e.ul[0].NewTx(NewTtiPoint(1), 5, 1000, PRBInterval{}, 5)

			hook := &recordingHook{}
			e.AcceptHook(hook)

			e.Reset()

			Expect(e.dl[0].IsEmpty()).To(BeTrue())
			Expect(e.ul[0].IsEmpty()).To(BeTrue())
			Expect(hook.events).To(HaveLen(1))
			Expect(hook.events[0].Pos).To(Equal(HookPosEntityReset))
		})
	})
})
