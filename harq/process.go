package harq

// MaxTB is the number of parallel transport blocks a single HARQ process
// can carry. Downlink spatial multiplexing uses both; uplink uses only
// index 0.
const MaxTB = 2

// hookNotifier is how a process reports a committed transition back to
// whatever HarqEntity vended it, without the process itself needing to
// know about Hookable. HarqEntity.Build wires this to its own
// InvokeHook, so a process obtained from GetEmptyDlHarq/GetPendingDlHarq/
// GetUlHarq and called directly (proc.NewTx(...)) still surfaces through
// the entity's registered hooks.
type hookNotifier func(pos *HookPos, item interface{}, detail interface{})

// HarqProcess holds the fields and behavior common to both the downlink
// and uplink specializations. It is meant to be embedded by value inside
// DlHarqProcess/UlHarqProcess rather than used on its own — direction
// specific eligibility and allocation bookkeeping live on the outer type.
type HarqProcess struct {
	id      uint32
	tti     TtiPoint
	maxRetx uint32

	active   [MaxTB]bool
	ackState [MaxTB]bool
	ndi      [MaxTB]bool
	nRtx     [MaxTB]uint32
	txCnt    [MaxTB]uint32
	lastMcs  [MaxTB]int
	lastTbs  [MaxTB]int

	notify hookNotifier
}

// newHarqProcess returns a HarqProcess with the given stable bank index.
// The index never changes for the lifetime of the process.
func newHarqProcess(id uint32) HarqProcess {
	p := HarqProcess{id: id}
	p.resetAll()

	return p
}

// ID returns the stable integer index of this process within its bank.
func (p *HarqProcess) ID() uint32 {
	return p.id
}

// Tti returns the slot at which this process's TB was last (re)transmitted.
func (p *HarqProcess) Tti() TtiPoint {
	return p.tti
}

// IsEmpty reports whether every TB slot is inactive.
func (p *HarqProcess) IsEmpty() bool {
	for tb := 0; tb < MaxTB; tb++ {
		if p.active[tb] {
			return false
		}
	}

	return true
}

// IsEmptyTB reports whether a single TB slot is inactive.
func (p *HarqProcess) IsEmptyTB(tb int) bool {
	return !p.active[tb]
}

// NDI returns the current New-Data-Indicator bit for a TB.
func (p *HarqProcess) NDI(tb int) bool {
	return p.ndi[tb]
}

// NofTx returns the transmission counter for a TB. NewTx clears the TB
// slot and then increments it, so it reads 1 after every new
// transmission; NewRetx leaves it unchanged (see NofRetx).
func (p *HarqProcess) NofTx(tb int) uint32 {
	return p.txCnt[tb]
}

// NofRetx returns the retransmission counter for a TB.
func (p *HarqProcess) NofRetx(tb int) uint32 {
	return p.nRtx[tb]
}

// MaxNofRetx returns the cap taken from the most recent NewTx call.
func (p *HarqProcess) MaxNofRetx() uint32 {
	return p.maxRetx
}

// TBS returns the transport block size used on the last transmission of a
// TB, reused verbatim across retransmissions.
func (p *HarqProcess) TBS(tb int) int {
	return p.lastTbs[tb]
}

// MCS returns the modulation/coding scheme used on the last transmission
// of a TB.
func (p *HarqProcess) MCS(tb int) int {
	return p.lastMcs[tb]
}

// hasPendingRetxCommon is the direction-agnostic eligibility test: active
// and not yet acknowledged. DL additionally requires the feedback window
// to have elapsed (see DlHarqProcess.HasPendingRetx); UL has no extra
// condition beyond this one, HARQ being strictly synchronous there.
func (p *HarqProcess) hasPendingRetxCommon(tb int) bool {
	return p.active[tb] && !p.ackState[tb]
}

// newTxCommon applies the NewTx postconditions shared by both directions:
// toggled NDI, zeroed retx counter, incremented tx counter, the process
// slot marked active, and the new max_retx policy latched in.
func (p *HarqProcess) newTxCommon(tb int, tti TtiPoint, mcs, tbs int, maxRetx uint32) {
	p.resetTB(tb)

	p.ndi[tb] = !p.ndi[tb]
	p.tti = tti
	p.maxRetx = maxRetx
	p.txCnt[tb]++
	p.lastMcs[tb] = mcs
	p.lastTbs[tb] = tbs
	p.active[tb] = true
}

// newRetxCommon applies the NewRetx postconditions shared by both
// directions. NDI, last_mcs, and last_tbs are left untouched; mcs/tbs are
// handed back to the caller so it can reuse the original grant's
// modulation and size.
func (p *HarqProcess) newRetxCommon(tb int, tti TtiPoint) (mcs, tbs int) {
	p.ackState[tb] = false
	p.tti = tti
	p.nRtx[tb]++

	return p.lastMcs[tb], p.lastTbs[tb]
}

// setAckCommon applies the SetAck postconditions shared by both
// directions. It never treats retx exhaustion as an error: the TB is
// silently discarded and maxExceeded reports whether that happened, so
// callers can invoke HookPosMaxRetxExceeded.
func (p *HarqProcess) setAckCommon(tb int, ack bool) (maxExceeded bool, err error) {
	if p.IsEmptyTB(tb) {
		return false, ErrInactiveHarq
	}

	p.ackState[tb] = ack

	if ack {
		p.active[tb] = false
		return false, nil
	}

	if p.nRtx[tb]+1 >= p.maxRetx {
		p.active[tb] = false
		return true, nil
	}

	return false, nil
}

// resetPendingDataCommon recycles a process whose configuration forbids
// retransmissions (max_retx == 0), regardless of whether feedback has
// arrived yet.
func (p *HarqProcess) resetPendingDataCommon() {
	if p.maxRetx == 0 && !p.IsEmpty() {
		for tb := 0; tb < MaxTB; tb++ {
			p.active[tb] = false
		}
	}
}

// resetTB clears one TB slot back to its just-constructed state.
func (p *HarqProcess) resetTB(tb int) {
	p.ackState[tb] = false
	p.active[tb] = false
	p.nRtx[tb] = 0
	p.lastMcs[tb] = -1
	p.lastTbs[tb] = -1
	p.txCnt[tb] = 0
}

// resetAll clears every TB slot and the shared process-level fields. Used
// at construction and on HarqEntity.Reset.
func (p *HarqProcess) resetAll() {
	for tb := 0; tb < MaxTB; tb++ {
		p.resetTB(tb)
	}

	p.tti = TtiPoint{}
	p.maxRetx = 0
}
