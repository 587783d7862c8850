package contracts

// SelectionState holds the pending long/short picks between the weekly
// selection pass and the next rebalance emission. The selector populates it,
// the rebalancer consumes it and clears it; nothing else mutates it.
//
// Per the strategy's reversal logic, Longs holds the bottom-momentum group
// and Shorts the top-momentum group.
type SelectionState struct {
	Longs  []SecurityID `json:"longs"`
	Shorts []SecurityID `json:"shorts"`
}

// Set replaces both groups
func (s *SelectionState) Set(longs, shorts []SecurityID) {
	s.Longs = longs
	s.Shorts = shorts
}

// Clear empties both groups. Must only be called after the lists have been
// fully consumed for instruction emission.
func (s *SelectionState) Clear() {
	s.Longs = nil
	s.Shorts = nil
}

// IsEmpty reports whether there is nothing pending
func (s *SelectionState) IsEmpty() bool {
	return len(s.Longs) == 0 && len(s.Shorts) == 0
}
