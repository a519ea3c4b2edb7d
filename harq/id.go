package harq

import (
	"strconv"
	"sync/atomic"

	"github.com/rs/xid"
)

// IDGenerator produces the opaque, run-scoped correlation IDs assigned to
// HarqEntity instances at attach time. IDs have no bearing on any HARQ
// invariant; they exist for logs, recordings, and the monitoring
// dashboard to key on.
type IDGenerator interface {
	Generate() string
}

// SequentialIDGenerator hands out small, deterministic, human-readable IDs.
// Good for tests and single-process demos where reproducibility matters.
type SequentialIDGenerator struct {
	next uint64
}

// Generate returns the next sequential ID.
func (g *SequentialIDGenerator) Generate() string {
	n := atomic.AddUint64(&g.next, 1)
	return strconv.FormatUint(n, 10)
}

// XIDGenerator hands out globally unique IDs without a shared counter, so
// UE attach/detach from multiple goroutines (e.g. several cells in one
// process) never contends on a lock.
type XIDGenerator struct{}

// Generate returns a new xid-based ID.
func (XIDGenerator) Generate() string {
	return xid.New().String()
}

// DefaultIDGenerator is the generator MakeHarqEntityBuilder installs; Build
// uses it unless WithIDGenerator supplies another.
var DefaultIDGenerator IDGenerator = &SequentialIDGenerator{}
