package recording

import (
	"github.com/basestation/harqcore/harq"
	"github.com/rs/xid"
)

// identified is implemented by harq.DlHarqProcess/UlHarqProcess, the only
// HookCtx.Item values carrying a stable integer process id.
type identified interface {
	ID() uint32
}

// RecorderHook translates harq.HookCtx values into recording.Events and
// hands them to a DataRecorder. The hook itself does no I/O: it sends
// events into a buffered channel and a dedicated goroutine drains it into
// the recorder. A slow DB flush stalls a HARQ call on the scheduler's
// thread only once the buffer is full, because the send then blocks until
// the drain goroutine makes room.
type RecorderHook struct {
	recorder DataRecorder
	events   chan Event
	done     chan struct{}
}

// NewRecorderHook starts the draining goroutine and returns the hook.
// Close must be called to drain remaining events and stop the goroutine.
func NewRecorderHook(recorder DataRecorder, bufferSize int) *RecorderHook {
	if bufferSize <= 0 {
		bufferSize = 1024
	}

	h := &RecorderHook{
		recorder: recorder,
		events:   make(chan Event, bufferSize),
		done:     make(chan struct{}),
	}

	go h.drain()

	return h
}

func (h *RecorderHook) drain() {
	defer close(h.done)

	for e := range h.events {
		h.recorder.RecordEvent(e)
	}
}

// Func implements harq.Hook.
func (h *RecorderHook) Func(ctx harq.HookCtx) {
	h.events <- eventFromHookCtx(ctx)
}

// Close stops accepting new events, waits for the drain goroutine to
// finish, and flushes the underlying recorder.
func (h *RecorderHook) Close() error {
	close(h.events)
	<-h.done

	return h.recorder.Close()
}

func eventFromHookCtx(ctx harq.HookCtx) Event {
	e := Event{
		ID:   xid.New().String(),
		Kind: kindFromHookPos(ctx.Pos),
	}

	if entity, ok := ctx.Domain.(*harq.HarqEntity); ok {
		e.EntityID = entity.ID()
	}

	if item, ok := ctx.Item.(identified); ok {
		e.ProcessID = int64(item.ID())
	}

	switch d := ctx.Detail.(type) {
	case bool:
		e.Ack = d
	case int:
		e.TB = int64(d)
	}

	return e
}

func kindFromHookPos(pos *harq.HookPos) string {
	switch pos {
	case harq.HookPosNewTx:
		return string(EventNewTx)
	case harq.HookPosNewRetx:
		return string(EventNewRetx)
	case harq.HookPosAck:
		return string(EventAck)
	case harq.HookPosMaxRetxExceeded:
		return string(EventMaxRetxExceeded)
	case harq.HookPosPhichPop:
		return string(EventPhichPop)
	case harq.HookPosFeedbackMiss:
		return string(EventFeedbackMiss)
	case harq.HookPosEntityReset:
		return string(EventEntityReset)
	default:
		return "unknown"
	}
}
