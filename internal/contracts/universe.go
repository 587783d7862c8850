package contracts

import "time"

// UniverseSnapshot is the tracked universe produced by one weekly selection
// pass, handed to the external universe-management collaborator.
type UniverseSnapshot struct {
	Date     time.Time             `json:"date"`
	Members  []SecurityID          `json:"members"`
	Excluded map[SecurityID]string `json:"excluded,omitempty"` // candidate -> reason it fell out
}

// Contains checks whether a security is in the universe
func (u *UniverseSnapshot) Contains(id SecurityID) bool {
	for _, m := range u.Members {
		if m == id {
			return true
		}
	}
	return false
}

// Count returns the number of tracked securities
func (u *UniverseSnapshot) Count() int {
	return len(u.Members)
}

// Diff compares this snapshot against a previous one and returns the
// securities that entered and left the universe, in snapshot order.
func (u *UniverseSnapshot) Diff(prev *UniverseSnapshot) (added, removed []SecurityID) {
	if prev == nil {
		return append([]SecurityID(nil), u.Members...), nil
	}

	current := make(map[SecurityID]struct{}, len(u.Members))
	for _, m := range u.Members {
		current[m] = struct{}{}
	}
	previous := make(map[SecurityID]struct{}, len(prev.Members))
	for _, m := range prev.Members {
		previous[m] = struct{}{}
	}

	for _, m := range u.Members {
		if _, ok := previous[m]; !ok {
			added = append(added, m)
		}
	}
	for _, m := range prev.Members {
		if _, ok := current[m]; !ok {
			removed = append(removed, m)
		}
	}
	return added, removed
}
