package harq

// HookPos defines the enum of possible hooking positions within the HARQ
// core. Values are pointers so callers can compare by identity.
type HookPos struct {
	Name string
}

// HookCtx is the context passed to a Hook when it is invoked. Item is the
// process or entity the event concerns; Detail carries event-specific data
// (e.g. the ACK bool, the discarded TB index).
type HookCtx struct {
	Domain Hookable
	Pos    *HookPos
	Item   interface{}
	Detail interface{}
}

// Hookable is anything that accepts Hooks. HarqEntity embeds HookableBase
// to implement it.
type Hookable interface {
	AcceptHook(hook Hook)
}

// HookPosNewTx marks a new (non-retransmission) transmission committing.
var HookPosNewTx = &HookPos{Name: "NewTx"}

// HookPosNewRetx marks a retransmission committing.
var HookPosNewRetx = &HookPos{Name: "NewRetx"}

// HookPosAck marks set_ack committing, successful or not.
var HookPosAck = &HookPos{Name: "Ack"}

// HookPosMaxRetxExceeded marks a TB being discarded after exhausting its
// retransmission budget.
var HookPosMaxRetxExceeded = &HookPos{Name: "MaxRetxExceeded"}

// HookPosPhichPop marks pop_pending_phich consuming the latch.
var HookPosPhichPop = &HookPos{Name: "PhichPop"}

// HookPosFeedbackMiss marks feedback that matched no process, or matched
// an inactive one.
var HookPosFeedbackMiss = &HookPos{Name: "FeedbackMiss"}

// HookPosEntityReset marks HarqEntity.Reset completing.
var HookPosEntityReset = &HookPos{Name: "EntityReset"}

// Hook is a short piece of program invoked by a Hookable object.
type Hook interface {
	Func(ctx HookCtx)
}

// HookableBase provides the bookkeeping for types implementing Hookable.
type HookableBase struct {
	hooks []Hook
}

// AcceptHook registers a hook. Hooks are invoked in registration order.
func (h *HookableBase) AcceptHook(hook Hook) {
	h.hooks = append(h.hooks, hook)
}

// NumHooks returns the number of registered hooks, so callers can skip
// building a HookCtx on the hot path when nothing is listening.
func (h *HookableBase) NumHooks() int {
	return len(h.hooks)
}

// InvokeHook triggers every registered hook with ctx.
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	for _, hook := range h.hooks {
		hook.Func(ctx)
	}
}

// HookFunc adapts a plain function to the Hook interface, the way a
// one-off observer in a test usually wants to register.
type HookFunc func(ctx HookCtx)

// Func implements Hook.
func (f HookFunc) Func(ctx HookCtx) {
	f(ctx)
}
