// Package station assembles the HARQ core, hooking, recording, and
// monitoring packages into a runnable demo scheduler loop, standing in
// for the out-of-scope per-TTI tick dispatcher described by the spec.
package station

import (
	"fmt"
	"math/rand"

	"github.com/basestation/harqcore/analysis"
	"github.com/basestation/harqcore/harq"
	"github.com/basestation/harqcore/monitoring"
	"github.com/basestation/harqcore/recording"
)

// UE bundles one user's HARQ entity under a stable name, plus the
// synthetic feedback this demo driver has scheduled for it.
type UE struct {
	ID     string
	Entity *harq.HarqEntity

	pending map[uint32][]pendingFeedback
}

// pendingFeedback is a synthetic ACK/NACK or CRC outcome, decided at
// transmission time by Station and delivered at the TTI it would arrive
// at over a real radio link.
type pendingFeedback struct {
	tb    int
	ul    bool
	txTti harq.TtiPoint
	ack   bool
}

// Station owns a fleet of named HarqEntity instances and drives them
// through synthetic TTIs via Tick, calling the external collaborator
// interfaces (harq.LinkAdaptation, harq.ResourceAllocator, harq.SduPacker,
// harq.PhyDriver) the core itself never calls.
type Station struct {
	ues   map[string]*UE
	order []string

	linkAdaptation harq.LinkAdaptation
	allocator      harq.ResourceAllocator
	packer         harq.SduPacker
	phy            harq.PhyDriver

	monitor  *monitoring.Monitor
	recorder recording.DataRecorder
	recHook  *recording.RecorderHook
	stats    *analysis.Stats

	fddDelayDL uint32
	fddDelayUL uint32
	ulCrcDelay uint32
	maxRetxDL  uint32
	maxRetxUL  uint32
	ackRate    float64

	rng    *rand.Rand
	nCce   uint32
	bar    *monitoring.ProgressBar
}

// UEs returns the station's UEs in attach order.
func (s *Station) UEs() []*UE {
	out := make([]*UE, len(s.order))
	for i, id := range s.order {
		out[i] = s.ues[id]
	}

	return out
}

// UE returns the named UE, or nil if it was never attached.
func (s *Station) UE(id string) *UE {
	return s.ues[id]
}

// Stats returns the station's statistics aggregator, or nil if none was
// configured.
func (s *Station) Stats() *analysis.Stats {
	return s.stats
}

// Close flushes and closes the recorder, if one is configured.
func (s *Station) Close() error {
	if s.recHook == nil {
		return nil
	}

	if err := s.recHook.Close(); err != nil {
		return fmt.Errorf("station: close recorder: %w", err)
	}

	return nil
}

// RunProgress attaches a monitoring.ProgressBar tracking total TTIs to
// run, if a Monitor was configured. Subsequent Tick calls advance it.
func (s *Station) RunProgress(total uint64) {
	if s.monitor == nil {
		return
	}

	s.bar = s.monitor.CreateProgressBar("ttis", total)
}

// Tick drives one TTI across every owned entity: it records the receive
// TTI, delivers any feedback synthesized for this slot, runs per-TTI
// housekeeping, and then grants new transmissions or retransmissions
// using the station's collaborator stand-ins — the same order the spec
// mandates in its per-TTI data flow.
func (s *Station) Tick(ttiRx harq.TtiPoint) {
	for _, id := range s.order {
		ue := s.ues[id]
		e := ue.Entity

		e.NewTti(ttiRx)
		s.deliverFeedback(ue, ttiRx)
		e.ResetPendingData(ttiRx)

		s.scheduleDownlink(ue, ttiRx)
		s.scheduleUplink(ue, ttiRx)
	}

	if s.bar != nil {
		s.bar.IncrementFinished(1)
	}
}

func (s *Station) deliverFeedback(ue *UE, ttiRx harq.TtiPoint) {
	due := ue.pending[ttiRx.ToUint()]
	if len(due) == 0 {
		return
	}

	delete(ue.pending, ttiRx.ToUint())

	e := ue.Entity

	for _, fb := range due {
		if fb.ul {
			pid := e.SetUlCrc(fb.txTti, fb.tb, fb.ack)
			if pid < 0 {
				continue
			}

			proc := e.GetUlHarq(fb.txTti)
			ackReported := proc.PopPendingPhich()
			s.phy.SendPHICH(ue.ID, ackReported)

			continue
		}

		e.SetAckInfo(ttiRx, fb.tb, fb.ack)
	}
}

func (s *Station) scheduleDownlink(ue *UE, ttiTxDl harq.TtiPoint) {
	e := ue.Entity

	if proc := e.GetPendingDlHarq(ttiTxDl); proc != nil {
		tb := 0
		if !proc.HasPendingRetxTB(0, ttiTxDl, s.fddDelayDL) {
			tb = 1
		}

		mask := s.allocator.AllocateDL(ttiTxDl)
		proc.NewRetx(tb, ttiTxDl, mask, s.nextCce())
		s.scheduleDlFeedback(ue, tb, ttiTxDl)

		return
	}

	proc := e.GetEmptyDlHarq(ttiTxDl)
	if proc == nil {
		return
	}

	mcs, tbs := s.linkAdaptation.SelectDL(ue.ID, ttiTxDl)
	if !s.packer.Pack(ue.ID, tbs) {
		return
	}

	mask := s.allocator.AllocateDL(ttiTxDl)
	tb := 0
	proc.NewTx(tb, ttiTxDl, mcs, tbs, s.maxRetxDL, mask, s.nextCce())
	s.scheduleDlFeedback(ue, tb, ttiTxDl)
}

func (s *Station) scheduleUplink(ue *UE, ttiRx harq.TtiPoint) {
	e := ue.Entity
	ttiTxUl := e.ToTxUl(ttiRx)
	proc := e.GetUlHarq(ttiTxUl)

	if proc.HasPendingRetx() {
		alloc := s.allocator.AllocateUL(ttiTxUl)
		if proc.RetxRequiresPdcch(ttiTxUl, alloc, e.ToTxUl) {
			s.nextCce()
		}

		proc.NewRetx(ttiTxUl, alloc)
		s.scheduleUlFeedback(ue, ttiTxUl)

		return
	}

	if !proc.IsEmpty() {
		return
	}

	mcs, tbs := s.linkAdaptation.SelectUL(ue.ID, ttiTxUl)
	if !s.packer.Pack(ue.ID, tbs) {
		return
	}

	alloc := s.allocator.AllocateUL(ttiTxUl)
	proc.NewTx(ttiTxUl, mcs, tbs, alloc, s.maxRetxUL)
	s.scheduleUlFeedback(ue, ttiTxUl)
}

func (s *Station) scheduleDlFeedback(ue *UE, tb int, ttiTxDl harq.TtiPoint) {
	delivery := ttiTxDl.Add(s.fddDelayDL)
	fb := pendingFeedback{tb: tb, ul: false, txTti: ttiTxDl, ack: s.decideAck()}
	ue.pending[delivery.ToUint()] = append(ue.pending[delivery.ToUint()], fb)
}

func (s *Station) scheduleUlFeedback(ue *UE, ttiTxUl harq.TtiPoint) {
	delivery := ttiTxUl.Add(s.ulCrcDelay)
	fb := pendingFeedback{tb: 0, ul: true, txTti: ttiTxUl, ack: s.decideAck()}
	ue.pending[delivery.ToUint()] = append(ue.pending[delivery.ToUint()], fb)
}

func (s *Station) decideAck() bool {
	return s.rng.Float64() < s.ackRate
}

func (s *Station) nextCce() uint32 {
	s.nCce++
	return s.nCce
}
