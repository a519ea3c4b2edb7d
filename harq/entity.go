package harq

// defaultLastTtiRingSize is the size of the HarqEntity's observed-receive-
// TTI ring. It only needs to cover the largest lookback the oldest-pending
// selection performs (a DL feedback delay plus the bank size), so a fixed
// constant comfortably larger than any realistic configuration is used
// rather than sizing it from D/U at construction.
const defaultLastTtiRingSize = 128

// HarqEntity owns one user's fixed bank of downlink and uplink HARQ
// processes and implements process selection, feedback routing, and
// per-TTI housekeeping. It is created once per user on attach and reset
// (never reallocated) on detach.
type HarqEntity struct {
	HookableBase

	id string

	dl []DlHarqProcess
	ul []UlHarqProcess

	isAsync    bool
	fddDelayDL uint32
	fddDelayUL uint32

	lastTtis []TtiPoint
	lastSeen []bool
}

// HarqEntityBuilder builds a HarqEntity. Its zero value is not ready to
// use (it has no ID generator and an empty TTI ring); MakeHarqEntityBuilder
// returns one with defaults matching a typical FDD configuration (8 DL
// processes, 8 UL processes, synchronous DL, 4ms FDD delay both ways).
type HarqEntityBuilder struct {
	nofDlHarqs uint32
	nofUlHarqs uint32
	isAsync    bool
	fddDelayDL uint32
	fddDelayUL uint32
	ringSize   int
	idGen      IDGenerator
	hooks      []Hook
}

// MakeHarqEntityBuilder returns a builder with FDD defaults.
func MakeHarqEntityBuilder() HarqEntityBuilder {
	return HarqEntityBuilder{
		nofDlHarqs: 8,
		nofUlHarqs: 8,
		fddDelayDL: 4,
		fddDelayUL: 4,
		ringSize:   defaultLastTtiRingSize,
		idGen:      DefaultIDGenerator,
	}
}

// WithNofDlHarqs sets D, the size of the downlink process bank.
func (b HarqEntityBuilder) WithNofDlHarqs(n uint32) HarqEntityBuilder {
	b.nofDlHarqs = n
	return b
}

// WithNofUlHarqs sets U, the size of the uplink process bank.
func (b HarqEntityBuilder) WithNofUlHarqs(n uint32) HarqEntityBuilder {
	b.nofUlHarqs = n
	return b
}

// WithAsync selects asynchronous downlink process selection. Uplink is
// always synchronous regardless of this setting.
func (b HarqEntityBuilder) WithAsync(async bool) HarqEntityBuilder {
	b.isAsync = async
	return b
}

// WithFddDelayDL sets the downlink feedback delay, in TTIs.
func (b HarqEntityBuilder) WithFddDelayDL(n uint32) HarqEntityBuilder {
	b.fddDelayDL = n
	return b
}

// WithFddDelayUL sets the slot offset from an uplink receive TTI to the
// corresponding uplink transmission TTI (ToTxUl), in TTIs.
func (b HarqEntityBuilder) WithFddDelayUL(n uint32) HarqEntityBuilder {
	b.fddDelayUL = n
	return b
}

// WithRingSize overrides the observed-receive-TTI ring size.
func (b HarqEntityBuilder) WithRingSize(n int) HarqEntityBuilder {
	b.ringSize = n
	return b
}

// WithIDGenerator overrides the ID generator used to assign the entity's
// correlation ID.
func (b HarqEntityBuilder) WithIDGenerator(g IDGenerator) HarqEntityBuilder {
	b.idGen = g
	return b
}

// WithHook registers a hook on the built entity.
func (b HarqEntityBuilder) WithHook(h Hook) HarqEntityBuilder {
	b.hooks = append(b.hooks, h)
	return b
}

// Build constructs the HarqEntity. All processes start empty.
func (b HarqEntityBuilder) Build() *HarqEntity {
	e := &HarqEntity{
		id:         b.idGen.Generate(),
		isAsync:    b.isAsync,
		fddDelayDL: b.fddDelayDL,
		fddDelayUL: b.fddDelayUL,
		lastTtis:   make([]TtiPoint, b.ringSize),
		lastSeen:   make([]bool, b.ringSize),
	}

	e.dl = make([]DlHarqProcess, b.nofDlHarqs)
	for i := range e.dl {
		e.dl[i] = newDlHarqProcess(uint32(i))
		e.dl[i].notify = e.notifyProcess
	}

	e.ul = make([]UlHarqProcess, b.nofUlHarqs)
	for i := range e.ul {
		e.ul[i] = newUlHarqProcess(uint32(i))
		e.ul[i].notify = e.notifyProcess
	}

	for _, h := range b.hooks {
		e.AcceptHook(h)
	}

	return e
}

// notifyProcess is the hookNotifier every owned process is wired to at
// Build time, so a process obtained from GetEmptyDlHarq/GetPendingDlHarq/
// GetUlHarq and driven directly (h.NewTx(...)) still surfaces through
// whichever hooks are registered on the entity, including ones accepted
// after Build via AcceptHook.
func (e *HarqEntity) notifyProcess(pos *HookPos, item interface{}, detail interface{}) {
	if e.NumHooks() == 0 {
		return
	}

	e.InvokeHook(HookCtx{Domain: e, Pos: pos, Item: item, Detail: detail})
}

// ID returns the entity's run-scoped correlation ID.
func (e *HarqEntity) ID() string {
	return e.id
}

// NofDlHarqs returns D.
func (e *HarqEntity) NofDlHarqs() uint32 {
	return uint32(len(e.dl))
}

// NofUlHarqs returns U.
func (e *HarqEntity) NofUlHarqs() uint32 {
	return uint32(len(e.ul))
}

// ToTxUl maps a receive TTI to the uplink transmission TTI it governs.
// RetxRequiresPdcch and ResetPendingData both use this mapping, so the
// entity — not the process — owns it.
func (e *HarqEntity) ToTxUl(ttiRx TtiPoint) TtiPoint {
	return ttiRx.Add(e.fddDelayUL)
}

// Reset deactivates every process in both banks and rewinds their shared
// state, as happens on user detach.
func (e *HarqEntity) Reset() {
	for i := range e.dl {
		e.dl[i].reset()
	}

	for i := range e.ul {
		e.ul[i].reset()
	}

	for i := range e.lastSeen {
		e.lastSeen[i] = false
	}

	if e.NumHooks() > 0 {
		e.InvokeHook(HookCtx{Domain: e, Pos: HookPosEntityReset, Item: e})
	}
}

// NewTti records the latest observed receive TTI. Must be called once per
// receive TTI before feedback routing and before any async DL selection
// for that TTI.
func (e *HarqEntity) NewTti(ttiRx TtiPoint) {
	slot := ttiRx.ToUint() % uint32(len(e.lastTtis))
	e.lastTtis[slot] = ttiRx
	e.lastSeen[slot] = true
}

// observed reports whether ttiRx is the most recent TTI recorded in the
// ring slot it maps to — i.e. whether NewTti actually saw this exact TTI,
// as opposed to the slot having been overwritten or never populated.
func (e *HarqEntity) observed(ttiRx TtiPoint) bool {
	slot := ttiRx.ToUint() % uint32(len(e.lastTtis))
	return e.lastSeen[slot] && e.lastTtis[slot].Equal(ttiRx)
}

// GetEmptyDlHarq returns an empty downlink process eligible for a new
// transmission at ttiTxDl, or nil. Synchronous mode only ever considers
// dl[ttiTxDl mod D]; asynchronous mode considers every process in index
// order and returns the first empty one.
func (e *HarqEntity) GetEmptyDlHarq(ttiTxDl TtiPoint) *DlHarqProcess {
	if !e.isAsync {
		h := &e.dl[ttiTxDl.ToUint()%e.NofDlHarqs()]
		if h.IsEmpty() {
			return h
		}

		return nil
	}

	for i := range e.dl {
		if e.dl[i].IsEmpty() {
			return &e.dl[i]
		}
	}

	return nil
}

// GetPendingDlHarq returns a downlink process requiring retransmission at
// ttiTxDl, or nil. Synchronous mode only ever considers dl[ttiTxDl mod D];
// asynchronous mode delegates to the oldest-pending policy.
func (e *HarqEntity) GetPendingDlHarq(ttiTxDl TtiPoint) *DlHarqProcess {
	if !e.isAsync {
		h := &e.dl[ttiTxDl.ToUint()%e.NofDlHarqs()]
		if h.HasPendingRetx(ttiTxDl, e.fddDelayDL) {
			return h
		}

		return nil
	}

	return e.getOldestDlHarq(ttiTxDl)
}

// getOldestDlHarq implements the asynchronous oldest-pending policy: among
// processes eligible for retransmission at ttiTxDl whose feedback has
// actually been observed via NewTti, return the one with the largest
// ttiTxDl - h.Tti() (the oldest outstanding transmission). Ties go to the
// lowest id — the spec leaves the original's tie-break undefined and
// mandates this resolution.
func (e *HarqEntity) getOldestDlHarq(ttiTxDl TtiPoint) *DlHarqProcess {
	var oldest *DlHarqProcess

	var oldestAge int32 = -1

	for i := range e.dl {
		h := &e.dl[i]
		if !h.HasPendingRetx(ttiTxDl, e.fddDelayDL) {
			continue
		}

		ackTti := h.Tti().Add(e.fddDelayDL)
		if !e.observed(ackTti) {
			continue
		}

		age := ttiTxDl.Sub(h.Tti())
		if age > oldestAge {
			oldestAge = age
			oldest = h
		}
	}

	return oldest
}

// GetUlHarq returns the synchronous uplink process for ttiTxUl. Uplink
// selection never depends on is_async.
func (e *HarqEntity) GetUlHarq(ttiTxUl TtiPoint) *UlHarqProcess {
	return &e.ul[ttiTxUl.ToUint()%e.NofUlHarqs()]
}

// SetAckInfo routes downlink ACK/NACK feedback received at ttiRx to the
// process whose last transmission it acknowledges. pid equals
// NofDlHarqs() when no process matches; tbs is -1 when no process
// matches or the matched process was already inactive.
func (e *HarqEntity) SetAckInfo(ttiRx TtiPoint, tb int, ack bool) (pid uint32, tbs int) {
	for i := range e.dl {
		h := &e.dl[i]
		if !h.Tti().Add(e.fddDelayDL).Equal(ttiRx) {
			continue
		}

		maxExceeded, err := h.SetAck(tb, ack)
		if err != nil {
			e.invokeFeedbackMiss(h, ttiRx, tb, ack)
			return h.ID(), -1
		}

		if maxExceeded && e.NumHooks() > 0 {
			e.InvokeHook(HookCtx{Domain: e, Pos: HookPosMaxRetxExceeded, Item: h, Detail: tb})
		}

		if e.NumHooks() > 0 {
			e.InvokeHook(HookCtx{Domain: e, Pos: HookPosAck, Item: h, Detail: ack})
		}

		return h.ID(), h.TBS(tb)
	}

	e.invokeFeedbackMiss(nil, ttiRx, tb, ack)

	return e.NofDlHarqs(), -1
}

// SetUlCrc routes uplink CRC feedback; ttiRx is reinterpreted as the
// uplink transmission slot under synchronous semantics. Returns the
// process id on success, -1 if the target process was inactive.
func (e *HarqEntity) SetUlCrc(ttiRx TtiPoint, tb int, ack bool) int {
	h := e.GetUlHarq(ttiRx)

	maxExceeded, err := h.SetAck(ack)
	if err != nil {
		e.invokeFeedbackMiss(h, ttiRx, tb, ack)
		return -1
	}

	if maxExceeded && e.NumHooks() > 0 {
		e.InvokeHook(HookCtx{Domain: e, Pos: HookPosMaxRetxExceeded, Item: h, Detail: tb})
	}

	if e.NumHooks() > 0 {
		e.InvokeHook(HookCtx{Domain: e, Pos: HookPosAck, Item: h, Detail: ack})
	}

	return int(h.ID())
}

// ResetPendingData is invoked once per receive TTI, after feedback
// processing: it recycles the uplink process for ToTxUl(ttiRx) and every
// downlink process, so a max_retx==0 configuration drops stale TBs
// promptly instead of waiting for the scheduler to notice.
func (e *HarqEntity) ResetPendingData(ttiRx TtiPoint) {
	e.GetUlHarq(e.ToTxUl(ttiRx)).ResetPendingData()

	for i := range e.dl {
		e.dl[i].ResetPendingData()
	}
}

func (e *HarqEntity) invokeFeedbackMiss(h interface{}, ttiRx TtiPoint, tb int, ack bool) {
	if e.NumHooks() == 0 {
		return
	}

	e.InvokeHook(HookCtx{
		Domain: e,
		Pos:    HookPosFeedbackMiss,
		Item:   h,
		Detail: feedbackMissDetail{TtiRx: ttiRx, TB: tb, Ack: ack},
	})
}

// feedbackMissDetail is the HookCtx.Detail payload for HookPosFeedbackMiss.
type feedbackMissDetail struct {
	TtiRx TtiPoint
	TB    int
	Ack   bool
}
