package game

// RecordingBarrier tracks which players have submitted a recording for the
// current round. It releases when the validated set equals the roster as sets,
// so a resubmission from the same player never counts twice and the roster is
// read at check time rather than snapshotted at round start.
type RecordingBarrier struct {
	recordings map[string]string
	validated  map[string]struct{}
}

func NewRecordingBarrier() *RecordingBarrier {
	b := &RecordingBarrier{}
	b.Reset()
	return b
}

// Reset clears the round-scoped state.
func (b *RecordingBarrier) Reset() {
	b.recordings = make(map[string]string)
	b.validated = make(map[string]struct{})
}

// Submit stores the handle for id and marks id as validated. When id already
// submitted, the newer handle wins and the superseded one is returned.
func (b *RecordingBarrier) Submit(id, handle string) string {
	previous := b.recordings[id]
	b.recordings[id] = handle
	b.validated[id] = struct{}{}
	if previous == handle {
		return ""
	}
	return previous
}

// Forget drops id from the round, returning its handle if it had one.
func (b *RecordingBarrier) Forget(id string) string {
	handle := b.recordings[id]
	delete(b.recordings, id)
	delete(b.validated, id)
	return handle
}

// Count is the number of the given players that have validated.
func (b *RecordingBarrier) Count(players []string) int {
	count := 0
	for _, id := range players {
		if _, ok := b.validated[id]; ok {
			count++
		}
	}
	return count
}

// Satisfied reports whether validated and players are equal as sets.
func (b *RecordingBarrier) Satisfied(players []string) bool {
	if len(players) == 0 || len(players) != len(b.validated) {
		return false
	}
	return b.Count(players) == len(players)
}

// Release hands the round's recordings off and clears the barrier.
func (b *RecordingBarrier) Release() map[string]string {
	released := b.recordings
	b.Reset()
	return released
}

// Handles lists every handle currently held.
func (b *RecordingBarrier) Handles() []string {
	out := make([]string, 0, len(b.recordings))
	for _, handle := range b.recordings {
		out = append(out, handle)
	}
	return out
}
