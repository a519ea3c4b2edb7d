// Package analysis aggregates HARQ hook events into the running counters
// the testable properties in the specification ask for, so a station run
// can assert they held over its whole lifetime rather than only in a
// unit test.
package analysis

import (
	"sync"

	"github.com/basestation/harqcore/harq"
)

// processKey identifies one TB slot across the lifetime of a run, for
// counters that need to remember state between hook invocations (e.g.
// the last NDI value seen, to check it alternates).
type processKey struct {
	entityID string
	procID   uint32
	ul       bool
	tb       int
}

// Stats is a harq.Hook that accumulates counters over every entity it is
// registered on: NDI repeats across successive new transmissions (P1),
// retransmission counts above the cap seen at new_tx/new_retx (P3), PHICH
// pops with no transmission since the previous pop (P5), plus feedback
// misses and retx exhaustions. It has no counter for P2, P4 or P7.
type Stats struct {
	mu sync.Mutex

	lastNDI      map[processKey]bool
	sawNDI       map[processKey]bool
	ndiViolation uint64

	newTxCount   uint64
	newRetxCount uint64

	retxCapViolations uint64 // P3: active ⇒ n_rtx ≤ max_retx, should stay 0

	phichPops     uint64
	ulNewTx       uint64
	phichMismatch uint64 // P5: a pop without a preceding tx/retx on the same process since the last pop

	feedbackMiss uint64 // P4's complement: misses should match the "never observed" scenario rate

	maxRetxExceeded uint64

	phichArmed map[processKey]bool
}

// NewStats returns an empty Stats aggregator.
func NewStats() *Stats {
	return &Stats{
		lastNDI:    make(map[processKey]bool),
		sawNDI:     make(map[processKey]bool),
		phichArmed: make(map[processKey]bool),
	}
}

// Func implements harq.Hook.
func (s *Stats) Func(ctx harq.HookCtx) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entity, _ := ctx.Domain.(*harq.HarqEntity)

	switch ctx.Pos {
	case harq.HookPosNewTx:
		s.observeNewTx(entity, ctx)
	case harq.HookPosNewRetx:
		s.observeNewRetx(entity, ctx)
	case harq.HookPosMaxRetxExceeded:
		s.maxRetxExceeded++
	case harq.HookPosPhichPop:
		s.observePhichPop(entity, ctx)
	case harq.HookPosFeedbackMiss:
		s.feedbackMiss++
	}
}

func (s *Stats) observeNewTx(entity *harq.HarqEntity, ctx harq.HookCtx) {
	s.newTxCount++

	key, ok := keyFor(entity, ctx)
	if !ok {
		return
	}

	ndi, maxRetx, nRtx := ndiAndBudget(ctx, key.tb)

	if prev, seen := s.lastNDI[key]; seen && prev == ndi {
		s.ndiViolation++
	}

	s.lastNDI[key] = ndi
	s.sawNDI[key] = true

	if nRtx > maxRetx {
		s.retxCapViolations++
	}

	if key.ul {
		s.ulNewTx++
		s.phichArmed[key] = true
	}
}

func (s *Stats) observeNewRetx(entity *harq.HarqEntity, ctx harq.HookCtx) {
	s.newRetxCount++

	key, ok := keyFor(entity, ctx)
	if !ok {
		return
	}

	_, maxRetx, nRtx := ndiAndBudget(ctx, key.tb)
	if nRtx > maxRetx {
		s.retxCapViolations++
	}

	if key.ul {
		s.phichArmed[key] = true
	}
}

func (s *Stats) observePhichPop(entity *harq.HarqEntity, ctx harq.HookCtx) {
	s.phichPops++

	key, ok := keyFor(entity, ctx)
	if !ok {
		return
	}

	if !s.phichArmed[key] {
		s.phichMismatch++
	}

	s.phichArmed[key] = false
}

// keyFor builds the processKey for a hook event whose Item is a
// DlHarqProcess or UlHarqProcess pointer and whose Detail carries the TB
// index (or, for UlHarqProcess events, is always TB 0).
func keyFor(entity *harq.HarqEntity, ctx harq.HookCtx) (processKey, bool) {
	var entityID string
	if entity != nil {
		entityID = entity.ID()
	}

	switch item := ctx.Item.(type) {
	case *harq.DlHarqProcess:
		tb, _ := ctx.Detail.(int)
		return processKey{entityID: entityID, procID: item.ID(), ul: false, tb: tb}, true
	case *harq.UlHarqProcess:
		tb := 0
		if v, ok := ctx.Detail.(int); ok {
			tb = v
		}

		return processKey{entityID: entityID, procID: item.ID(), ul: true, tb: tb}, true
	default:
		return processKey{}, false
	}
}

// ndiAndBudget extracts the NDI bit, the configured retx cap, and the
// current retx count for tb from a hook event's process item.
func ndiAndBudget(ctx harq.HookCtx, tb int) (ndi bool, maxRetx, nRtx uint32) {
	switch item := ctx.Item.(type) {
	case *harq.DlHarqProcess:
		return item.NDI(tb), item.MaxNofRetx(), item.NofRetx(tb)
	case *harq.UlHarqProcess:
		return item.NDI(tb), item.MaxNofRetx(), item.NofRetx(tb)
	default:
		return false, 0, 0
	}
}

// Snapshot is a point-in-time read of every counter Stats tracks.
type Snapshot struct {
	NewTxCount        uint64
	NewRetxCount      uint64
	NDIViolations     uint64
	RetxCapViolations uint64
	PhichPops         uint64
	PhichMismatch     uint64
	FeedbackMiss      uint64
	MaxRetxExceeded   uint64
}

// Snapshot returns a consistent copy of the current counters.
func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{
		NewTxCount:        s.newTxCount,
		NewRetxCount:      s.newRetxCount,
		NDIViolations:     s.ndiViolation,
		RetxCapViolations: s.retxCapViolations,
		PhichPops:         s.phichPops,
		PhichMismatch:     s.phichMismatch,
		FeedbackMiss:      s.feedbackMiss,
		MaxRetxExceeded:   s.maxRetxExceeded,
	}
}
