package harq

// RBGMask is the resource-block-group allocation bitmap used for a
// downlink grant. Bit i set means RBG i is allocated to this TB.
type RBGMask uint64

// DlHarqProcess is a single downlink HARQ process: the common
// retransmission state machine plus the resource-block-group mask and
// CCE index of the last grant.
type DlHarqProcess struct {
	HarqProcess

	rbgmask RBGMask
	nCce    uint32
}

// newDlHarqProcess returns an empty downlink process at the given bank
// index.
func newDlHarqProcess(id uint32) DlHarqProcess {
	return DlHarqProcess{HarqProcess: newHarqProcess(id)}
}

// RBGMask returns the RBG allocation used on the last grant.
func (p *DlHarqProcess) RBGMask() RBGMask {
	return p.rbgmask
}

// NCce returns the control-channel element index used for the last grant.
func (p *DlHarqProcess) NCce() uint32 {
	return p.nCce
}

// NewTx commits a new (non-retransmission) downlink transmission on tb.
func (p *DlHarqProcess) NewTx(
	tb int,
	tti TtiPoint,
	mcs, tbs int,
	maxRetx uint32,
	mask RBGMask,
	nCce uint32,
) {
	p.rbgmask = mask
	p.nCce = nCce
	p.newTxCommon(tb, tti, mcs, tbs, maxRetx)

	if p.notify != nil {
		p.notify(HookPosNewTx, p, tb)
	}
}

// NewRetx commits a retransmission on tb, reusing the original grant's
// mcs/tbs and reporting them back to the caller.
func (p *DlHarqProcess) NewRetx(
	tb int,
	tti TtiPoint,
	mask RBGMask,
	nCce uint32,
) (mcs, tbs int) {
	p.rbgmask = mask
	p.nCce = nCce

	mcs, tbs = p.newRetxCommon(tb, tti)

	if p.notify != nil {
		p.notify(HookPosNewRetx, p, tb)
	}

	return mcs, tbs
}

// SetAck records ACK/NACK feedback for tb. maxExceeded is true when this
// call discarded the TB for exhausting its retransmission budget rather
// than because it was acknowledged.
func (p *DlHarqProcess) SetAck(tb int, ack bool) (maxExceeded bool, err error) {
	return p.setAckCommon(tb, ack)
}

// HasPendingRetxTB reports whether tb is eligible for retransmission at
// tti, i.e. it is active, unacknowledged, and the feedback window for its
// last transmission has elapsed by tti.
func (p *DlHarqProcess) HasPendingRetxTB(tb int, tti TtiPoint, fddDelayDL uint32) bool {
	ackWindowStart := p.Tti().Add(fddDelayDL)

	return tti.AtOrAfter(ackWindowStart) && p.hasPendingRetxCommon(tb)
}

// HasPendingRetx reports whether either TB is eligible for retransmission
// at tti.
func (p *DlHarqProcess) HasPendingRetx(tti TtiPoint, fddDelayDL uint32) bool {
	return p.HasPendingRetxTB(0, tti, fddDelayDL) || p.HasPendingRetxTB(1, tti, fddDelayDL)
}

// ResetPendingData recycles the process when its configuration forbids
// retransmissions.
func (p *DlHarqProcess) ResetPendingData() {
	p.resetPendingDataCommon()
}

// reset clears the process back to its just-constructed state, including
// the DL-specific allocation fields.
func (p *DlHarqProcess) reset() {
	p.resetAll()
	p.rbgmask = 0
	p.nCce = 0
}
