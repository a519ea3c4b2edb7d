package station_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basestation/harqcore/analysis"
	"github.com/basestation/harqcore/harq"
	"github.com/basestation/harqcore/station"
)

func TestStation_TickDrivesTransmissionsAndFeedback(t *testing.T) {
	stats := analysis.NewStats()

	s := station.MakeBuilder().
		WithUEs(2).
		WithNofDlHarqs(4).
		WithNofUlHarqs(4).
		WithFddDelayDL(4).
		WithFddDelayUL(4).
		WithUlCrcDelay(4).
		WithSeed(42).
		WithStats(stats).
		Build()

	for tti := uint32(0); tti < 40; tti++ {
		s.Tick(harq.NewTtiPoint(tti))
	}

	snap := stats.Snapshot()
	assert.Greater(t, snap.NewTxCount, uint64(0))
	assert.Equal(t, uint64(0), snap.NDIViolations)
	assert.Equal(t, uint64(0), snap.RetxCapViolations)
	assert.Equal(t, uint64(0), snap.PhichMismatch)

	require.NoError(t, s.Close())
}

func TestStation_UEsAreAttachedInOrder(t *testing.T) {
	s := station.MakeBuilder().WithUEs(3).Build()

	ids := make([]string, 0, 3)
	for _, ue := range s.UEs() {
		ids = append(ids, ue.ID)
	}

	assert.Equal(t, []string{"ue0", "ue1", "ue2"}, ids)
	assert.NotNil(t, s.UE("ue1"))
	assert.Nil(t, s.UE("missing"))
}
