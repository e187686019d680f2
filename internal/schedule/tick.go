package schedule

// TickRequester is the payload-free side channel callers use to ask the
// surrounding system to re-run due-promotion sweeps. The engine never runs
// a background timer itself: it only signals here after mutations likely
// to change due-based bucketing.
//
// Requests coalesce: a pending signal absorbs any number of further
// requests until a consumer drains it.
type TickRequester struct {
	ch chan struct{}
}

// NewTickRequester creates a requester with a single pending slot.
func NewTickRequester() *TickRequester {
	return &TickRequester{ch: make(chan struct{}, 1)}
}

// Request signals that a sweep should run. Never blocks.
func (t *TickRequester) Request() {
	select {
	case t.ch <- struct{}{}:
	default:
	}
}

// C is the channel sweep loops receive from.
func (t *TickRequester) C() <-chan struct{} {
	return t.ch
}
