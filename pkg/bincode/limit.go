package bincode

// LimitTracker is the per-decode accumulator for the byte budget and the
// current nesting depth. It is created for one decode and never shared.
type LimitTracker struct {
	remaining uint64
	bounded   bool
	depth     int
	maxDepth  int
}

// NewLimitTracker creates a tracker seeded from cfg.
func NewLimitTracker(cfg Config) *LimitTracker {
	cfg = cfg.orDefault()
	return &LimitTracker{
		remaining: cfg.limit,
		bounded:   cfg.bounded,
		maxDepth:  cfg.maxDepth,
	}
}

// Reserve takes n bytes out of the budget. When the budget cannot cover n
// nothing is taken and a SizeLimit error is returned.
func (t *LimitTracker) Reserve(n uint64) error {
	if !t.bounded {
		return nil
	}
	if n > t.remaining {
		return &Error{Kind: KindSizeLimit, Value: n}
	}
	t.remaining -= n
	return nil
}

// Enter records the descent into a composite. Going past the maximum depth
// fails and leaves the depth unchanged, so Leave must only follow a
// successful Enter.
func (t *LimitTracker) Enter() error {
	if t.depth >= t.maxDepth {
		return &Error{Kind: KindDepthLimit, Value: uint64(t.maxDepth)}
	}
	t.depth++
	return nil
}

// Leave records the return from a composite.
func (t *LimitTracker) Leave() {
	if t.depth > 0 {
		t.depth--
	}
}

// Depth returns the current nesting depth.
func (t *LimitTracker) Depth() int { return t.depth }

// Remaining returns the unspent budget and whether a budget applies.
func (t *LimitTracker) Remaining() (uint64, bool) { return t.remaining, t.bounded }
