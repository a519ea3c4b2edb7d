package recording_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/basestation/harqcore/harq"
	"github.com/basestation/harqcore/recording"
)

func TestRecorderHook_CallsMockRecorderOnMaxRetxExceeded(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockRecorder := recording.NewMockDataRecorder(ctrl)

	done := make(chan struct{})
	mockRecorder.EXPECT().
		RecordEvent(gomock.Any()).
		Do(func(e recording.Event) {
			if e.Kind == string(recording.EventMaxRetxExceeded) {
				close(done)
			}
		}).
		AnyTimes()

	hook := recording.NewRecorderHook(mockRecorder, 16)
	entity := harq.MakeHarqEntityBuilder().WithNofDlHarqs(2).WithNofUlHarqs(2).Build()
	entity.AcceptHook(hook)

	entity.GetEmptyDlHarq(harq.NewTtiPoint(0)).NewTx(0, harq.NewTtiPoint(10), 5, 1000, 1, 0, 0)
	entity.SetAckInfo(harq.NewTtiPoint(14), 0, false)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for max-retx-exceeded event")
	}

	mockRecorder.EXPECT().Close().Return(nil)
	require.NoError(t, hook.Close())
}
