package work

import "time"

// UpsertStatus returns a copy of status with userID's entry set to state.
// An existing entry keeps its position and username; a new one is appended.
func UpsertStatus(status []StatusEntry, userID, username string, state State, now time.Time) []StatusEntry {
	out := make([]StatusEntry, len(status), len(status)+1)
	copy(out, status)
	for i := range out {
		if out[i].UserID == userID {
			out[i].State = state
			out[i].UpdatedAt = now
			return out
		}
	}
	return append(out, StatusEntry{
		UserID:    userID,
		Username:  username,
		State:     state,
		UpdatedAt: now,
	})
}

// Recount tallies status by state from scratch.
func Recount(status []StatusEntry) Counts {
	var c Counts
	for _, entry := range status {
		switch entry.State {
		case StateCompleted:
			c.Completed++
		case StateDoing:
			c.Doing++
		default:
			c.NotYetStarted++
		}
	}
	return c
}

// SumTotals adds up the stored counts of every work.
func SumTotals(works []Work) Totals {
	t := Totals{TotalWorks: len(works)}
	for _, w := range works {
		t.Completed += w.Counts.Completed
		t.Doing += w.Counts.Doing
		t.NotYetStarted += w.Counts.NotYetStarted
	}
	return t
}
