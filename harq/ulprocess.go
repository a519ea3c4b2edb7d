package harq

// PRBInterval is a contiguous range of physical resource blocks, [Start,
// Start+Len).
type PRBInterval struct {
	Start int
	Len   int
}

// UlHarqProcess is a single uplink HARQ process. Uplink is always
// synchronous and carries a single TB (index 0), plus a PRB allocation
// interval and two feedback latches.
type UlHarqProcess struct {
	HarqProcess

	allocation   PRBInterval
	pendingData  uint32
	pendingPhich bool
}

// newUlHarqProcess returns an empty uplink process at the given bank
// index.
func newUlHarqProcess(id uint32) UlHarqProcess {
	return UlHarqProcess{HarqProcess: newHarqProcess(id)}
}

// Alloc returns the PRB interval used on the last grant.
func (p *UlHarqProcess) Alloc() PRBInterval {
	return p.allocation
}

// PendingData returns the bytes queued for this process, set on NewTx and
// cleared by ResetPendingData once the process is empty.
func (p *UlHarqProcess) PendingData() uint32 {
	return p.pendingData
}

// NewTx commits a new uplink transmission. It sets pending_data to tbs
// and arms the PHICH latch.
func (p *UlHarqProcess) NewTx(tti TtiPoint, mcs, tbs int, alloc PRBInterval, maxRetx uint32) {
	p.allocation = alloc
	p.newTxCommon(0, tti, mcs, tbs, maxRetx)
	p.pendingData = uint32(tbs)
	p.pendingPhich = true

	if p.notify != nil {
		p.notify(HookPosNewTx, p, 0)
	}
}

// NewRetx commits an uplink retransmission and re-arms the PHICH latch.
func (p *UlHarqProcess) NewRetx(tti TtiPoint, alloc PRBInterval) (mcs, tbs int) {
	p.allocation = alloc
	mcs, tbs = p.newRetxCommon(0, tti)
	p.pendingPhich = true

	if p.notify != nil {
		p.notify(HookPosNewRetx, p, 0)
	}

	return mcs, tbs
}

// RetxRequiresPdcch reports whether a retransmission attempt at tti with
// alloc would need a fresh PDCCH grant (the allocation or target slot
// changed) versus reusing the previous grant unmodified ("adaptive
// noncontrol"). toTxUl must be the same canonical-uplink-slot function
// the caller uses to derive tti_tx_ul from a receive TTI.
func (p *UlHarqProcess) RetxRequiresPdcch(tti TtiPoint, alloc PRBInterval, toTxUl func(TtiPoint) TtiPoint) bool {
	return alloc != p.allocation || !tti.Equal(toTxUl(p.Tti()))
}

// SetAck records CRC feedback for the process's single TB.
func (p *UlHarqProcess) SetAck(ack bool) (maxExceeded bool, err error) {
	return p.setAckCommon(0, ack)
}

// HasPendingRetx reports whether the process is active and awaiting
// retransmission. Unlike downlink, uplink has no extra feedback-window
// condition: synchronous timing already guarantees the process a caller
// looks up at tti_tx_ul is the right one.
func (p *UlHarqProcess) HasPendingRetx() bool {
	return p.hasPendingRetxCommon(0)
}

// HasPendingPhich reports whether a PHICH still needs to be emitted for
// this process's last transmission.
func (p *UlHarqProcess) HasPendingPhich() bool {
	return p.pendingPhich
}

// PopPendingPhich consumes the PHICH latch, returning the ack state it
// should report. Calling it again before the next NewTx/NewRetx returns
// the same ack state but reports the latch as already cleared via
// HasPendingPhich.
func (p *UlHarqProcess) PopPendingPhich() bool {
	ret := p.ackState[0]
	p.pendingPhich = false

	if p.notify != nil {
		p.notify(HookPosPhichPop, p, ret)
	}

	return ret
}

// ResetPendingData recycles the process when its configuration forbids
// retransmissions, and clears pending_data once the process has become
// empty (acknowledged or exhausted).
func (p *UlHarqProcess) ResetPendingData() {
	p.resetPendingDataCommon()

	if p.IsEmptyTB(0) {
		p.pendingData = 0
	}
}

// reset clears the process back to its just-constructed state, including
// the UL-specific allocation and latch fields.
func (p *UlHarqProcess) reset() {
	p.resetAll()
	p.allocation = PRBInterval{}
	p.pendingData = 0
	p.pendingPhich = false
}
