package resource

import "sort"

// HasPending reports whether any of the snapshots is still pending.
func HasPending(snapshots []Snapshot) bool {
	for _, s := range snapshots {
		if s.IsPending() {
			return true
		}
	}
	return false
}

// Newest returns the snapshot with the latest start time.
// The input order is not relied on and is left untouched.
func Newest(snapshots []Snapshot) (Snapshot, bool) {
	if len(snapshots) == 0 {
		return Snapshot{}, false
	}
	sorted := make([]Snapshot, len(snapshots))
	copy(sorted, snapshots)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartTime.After(sorted[j].StartTime)
	})
	return sorted[0], true
}
