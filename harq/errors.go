package harq

import "errors"

// ErrInactiveHarq is returned when an ACK/CRC targets a TB slot that is
// not active. The core logs this via HookPosFeedbackMiss and never
// panics or propagates it as an exception — callers that care can count
// it from the returned error.
var ErrInactiveHarq = errors.New("harq: inactive process")

// ErrNoProcessFound names the case of a feedback slot that matches no
// process in the entity's bank. No function in this package returns it:
// SetAckInfo reports that case as pid NofDlHarqs() with tbs -1, and
// invokes HookPosFeedbackMiss.
var ErrNoProcessFound = errors.New("harq: no process found for feedback slot")
