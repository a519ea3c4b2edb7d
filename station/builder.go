package station

import (
	"fmt"
	"math/rand"

	"github.com/basestation/harqcore/analysis"
	"github.com/basestation/harqcore/harq"
	"github.com/basestation/harqcore/monitoring"
	"github.com/basestation/harqcore/recording"
)

// Builder builds a Station. Its zero value is not ready to use —
// call MakeBuilder for FDD defaults matching a typical eNB configuration.
type Builder struct {
	ueIDs []string

	nofDlHarqs uint32
	nofUlHarqs uint32
	isAsync    bool
	fddDelayDL uint32
	fddDelayUL uint32
	ulCrcDelay uint32
	maxRetxDL  uint32
	maxRetxUL  uint32
	ackRate    float64
	seed       int64

	linkAdaptation harq.LinkAdaptation
	allocator      harq.ResourceAllocator
	packer         harq.SduPacker
	phy            harq.PhyDriver

	monitor  *monitoring.Monitor
	recorder recording.DataRecorder
	stats    *analysis.Stats
}

// MakeBuilder returns a Builder with FDD defaults: 8 DL processes, 8 UL
// processes, synchronous DL selection, 4ms feedback delays both ways, a
// retx cap of 4, and an 70% ACK rate for synthetic feedback.
func MakeBuilder() Builder {
	return Builder{
		nofDlHarqs: 8,
		nofUlHarqs: 8,
		fddDelayDL: 4,
		fddDelayUL: 4,
		ulCrcDelay: 4,
		maxRetxDL:  4,
		maxRetxUL:  4,
		ackRate:    0.7,
		seed:       1,
	}
}

// WithUEs generates n synthetic UE ids ("ue0".."ue(n-1)") for Build to
// attach.
func (b Builder) WithUEs(n int) Builder {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("ue%d", i)
	}

	b.ueIDs = ids

	return b
}

// WithNofDlHarqs sets D, the size of each UE's downlink process bank.
func (b Builder) WithNofDlHarqs(n uint32) Builder {
	b.nofDlHarqs = n
	return b
}

// WithNofUlHarqs sets U, the size of each UE's uplink process bank.
func (b Builder) WithNofUlHarqs(n uint32) Builder {
	b.nofUlHarqs = n
	return b
}

// WithAsync selects asynchronous downlink process selection.
func (b Builder) WithAsync(async bool) Builder {
	b.isAsync = async
	return b
}

// WithFddDelayDL sets the downlink feedback delay, in TTIs.
func (b Builder) WithFddDelayDL(n uint32) Builder {
	b.fddDelayDL = n
	return b
}

// WithFddDelayUL sets the uplink receive-to-transmit TTI offset.
func (b Builder) WithFddDelayUL(n uint32) Builder {
	b.fddDelayUL = n
	return b
}

// WithUlCrcDelay sets the synthetic round-trip delay, in TTIs, between an
// uplink transmission and its CRC/PHICH outcome being delivered.
func (b Builder) WithUlCrcDelay(n uint32) Builder {
	b.ulCrcDelay = n
	return b
}

// WithMaxRetx sets the retransmission cap applied to every new downlink
// and uplink transmission the demo loop grants.
func (b Builder) WithMaxRetx(dl, ul uint32) Builder {
	b.maxRetxDL = dl
	b.maxRetxUL = ul

	return b
}

// WithAckRate sets the probability that synthetic feedback is a positive
// ACK rather than a NACK.
func (b Builder) WithAckRate(rate float64) Builder {
	b.ackRate = rate
	return b
}

// WithSeed sets the RNG seed driving MCS selection and synthetic
// feedback decisions, for reproducible demo runs.
func (b Builder) WithSeed(seed int64) Builder {
	b.seed = seed
	return b
}

// WithLinkAdaptation overrides the default random MCS/TBS stand-in.
func (b Builder) WithLinkAdaptation(la harq.LinkAdaptation) Builder {
	b.linkAdaptation = la
	return b
}

// WithAllocator overrides the default fixed-allocation stand-in.
func (b Builder) WithAllocator(a harq.ResourceAllocator) Builder {
	b.allocator = a
	return b
}

// WithPacker overrides the default always-has-data stand-in.
func (b Builder) WithPacker(p harq.SduPacker) Builder {
	b.packer = p
	return b
}

// WithPhyDriver overrides the default no-op PHICH sink.
func (b Builder) WithPhyDriver(p harq.PhyDriver) Builder {
	b.phy = p
	return b
}

// WithMonitor registers a monitoring.Monitor; every attached UE's entity
// is registered on it at Build time.
func (b Builder) WithMonitor(m *monitoring.Monitor) Builder {
	b.monitor = m
	return b
}

// WithRecorder wires a recording.DataRecorder via a RecorderHook on every
// attached UE's entity.
func (b Builder) WithRecorder(r recording.DataRecorder) Builder {
	b.recorder = r
	return b
}

// WithStats wires an analysis.Stats aggregator as a hook on every
// attached UE's entity.
func (b Builder) WithStats(s *analysis.Stats) Builder {
	b.stats = s
	return b
}

// Build constructs the Station and attaches every UE named via WithUEs.
func (b Builder) Build() *Station {
	s := &Station{
		ues:            make(map[string]*UE),
		linkAdaptation: b.linkAdaptation,
		allocator:      b.allocator,
		packer:         b.packer,
		phy:            b.phy,
		monitor:        b.monitor,
		recorder:       b.recorder,
		stats:          b.stats,
		fddDelayDL:     b.fddDelayDL,
		fddDelayUL:     b.fddDelayUL,
		ulCrcDelay:     b.ulCrcDelay,
		maxRetxDL:      b.maxRetxDL,
		maxRetxUL:      b.maxRetxUL,
		ackRate:        b.ackRate,
		rng:            rand.New(rand.NewSource(b.seed)),
	}

	if s.linkAdaptation == nil {
		s.linkAdaptation = newRandomLinkAdaptation(s.rng)
	}

	if s.allocator == nil {
		s.allocator = &fixedAllocator{ulPrbLen: 10}
	}

	if s.packer == nil {
		s.packer = alwaysHasDataPacker{}
	}

	if s.phy == nil {
		s.phy = noopPhyDriver{}
	}

	var hooks []harq.Hook

	if s.recorder != nil {
		s.recHook = recording.NewRecorderHook(s.recorder, 1024)
		hooks = append(hooks, s.recHook)
	}

	if s.stats != nil {
		hooks = append(hooks, s.stats)
	}

	for _, id := range b.ueIDs {
		eb := harq.MakeHarqEntityBuilder().
			WithNofDlHarqs(b.nofDlHarqs).
			WithNofUlHarqs(b.nofUlHarqs).
			WithAsync(b.isAsync).
			WithFddDelayDL(b.fddDelayDL).
			WithFddDelayUL(b.fddDelayUL)

		for _, h := range hooks {
			eb = eb.WithHook(h)
		}

		e := eb.Build()

		s.ues[id] = &UE{ID: id, Entity: e, pending: make(map[uint32][]pendingFeedback)}
		s.order = append(s.order, id)

		if s.monitor != nil {
			s.monitor.RegisterEntity(e)
		}
	}

	return s
}
