package station

import (
	"math/rand"

	"github.com/basestation/harqcore/harq"
)

// mcsEntry is one row of a trivial MCS/TBS table.
type mcsEntry struct {
	mcs int
	tbs int
}

// randomLinkAdaptation stands in for a real link-adaptation engine: it
// picks an MCS/TBS pair from a fixed table instead of consulting channel
// quality reports. The HARQ core never calls this itself — it exists so
// Station's demo loop has something to call before NewTx/NewRetx.
type randomLinkAdaptation struct {
	rng   *rand.Rand
	table []mcsEntry
}

func newRandomLinkAdaptation(rng *rand.Rand) *randomLinkAdaptation {
	return &randomLinkAdaptation{
		rng: rng,
		table: []mcsEntry{
			{mcs: 2, tbs: 200},
			{mcs: 10, tbs: 600},
			{mcs: 20, tbs: 1200},
			{mcs: 27, tbs: 2400},
		},
	}
}

// SelectDL implements harq.LinkAdaptation.
func (a *randomLinkAdaptation) SelectDL(_ string, _ harq.TtiPoint) (mcs, tbs int) {
	e := a.table[a.rng.Intn(len(a.table))]
	return e.mcs, e.tbs
}

// SelectUL implements harq.LinkAdaptation.
func (a *randomLinkAdaptation) SelectUL(_ string, _ harq.TtiPoint) (mcs, tbs int) {
	e := a.table[a.rng.Intn(len(a.table))]
	return e.mcs, e.tbs
}

// fixedAllocator stands in for the resource-block allocator: every grant
// gets the full RBG mask and a fixed-width PRB interval. A real allocator
// would divide these among competing UEs per TTI.
type fixedAllocator struct {
	ulPrbLen int
}

// AllocateDL implements harq.ResourceAllocator.
func (a *fixedAllocator) AllocateDL(_ harq.TtiPoint) harq.RBGMask {
	return harq.RBGMask(0xFFFF)
}

// AllocateUL implements harq.ResourceAllocator.
func (a *fixedAllocator) AllocateUL(_ harq.TtiPoint) harq.PRBInterval {
	return harq.PRBInterval{Start: 0, Len: a.ulPrbLen}
}

// alwaysHasDataPacker reports every UE always has data to send, enough to
// exercise the scheduler loop without a real RLC buffer model.
type alwaysHasDataPacker struct{}

// Pack implements harq.SduPacker.
func (alwaysHasDataPacker) Pack(_ string, _ int) (hasData bool) {
	return true
}

// noopPhyDriver discards PHICH decisions. A real implementation would
// hand them to the physical-layer driver for transmission.
type noopPhyDriver struct{}

// SendPHICH implements harq.PhyDriver.
func (noopPhyDriver) SendPHICH(_ string, _ bool) {}
