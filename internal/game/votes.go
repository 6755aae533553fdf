package game

// Note is a single rating given to a recording.
type Note int

const (
	NoteBad   Note = -1
	NoteGood  Note = 1
	NoteGreat Note = 2
)

func (n Note) Valid() bool {
	switch n {
	case NoteBad, NoteGood, NoteGreat:
		return true
	default:
		return false
	}
}

// Vote is one voter's rating of a target.
type Vote struct {
	Voter string `json:"voter"`
	Note  Note   `json:"note"`
}

// VoteSequencer rates each target's recording in turn. The queue is fixed for
// the voting round. Each target collects at most one vote per voter, never one
// from the target itself, and its tally closes exactly once.
type VoteSequencer struct {
	queue  []string
	index  int
	votes  map[string][]Vote
	closed map[string]bool
}

func NewVoteSequencer(queue []string) *VoteSequencer {
	return &VoteSequencer{
		queue:  append([]string(nil), queue...),
		votes:  make(map[string][]Vote),
		closed: make(map[string]bool),
	}
}

// Current is the target being rated.
func (v *VoteSequencer) Current() (string, bool) {
	if v.index >= len(v.queue) {
		return "", false
	}
	return v.queue[v.index], true
}

// Cast records voter's note for target.
func (v *VoteSequencer) Cast(voter, target string, note Note) error {
	if !note.Valid() {
		return ErrInvalidNote
	}
	if voter == target {
		return ErrSelfVote
	}
	current, ok := v.Current()
	if !ok || current != target {
		return ErrNotCurrentTarget
	}
	if v.closed[target] {
		return ErrTallyClosed
	}
	if v.HasVoted(target, voter) {
		return ErrDuplicateVote
	}
	v.votes[target] = append(v.votes[target], Vote{Voter: voter, Note: note})
	return nil
}

func (v *VoteSequencer) HasVoted(target, voter string) bool {
	for _, vote := range v.votes[target] {
		if vote.Voter == voter {
			return true
		}
	}
	return false
}

func (v *VoteSequencer) Count(target string) int {
	return len(v.votes[target])
}

// Pending lists the players other than target that have not voted for it.
func (v *VoteSequencer) Pending(target string, players []string) []string {
	pending := make([]string, 0, len(players))
	for _, id := range players {
		if id == target || v.HasVoted(target, id) {
			continue
		}
		pending = append(pending, id)
	}
	return pending
}

// QuorumReached reports whether every other current player has voted for target.
func (v *VoteSequencer) QuorumReached(target string, players []string) bool {
	return !v.closed[target] && len(v.Pending(target, players)) == 0
}

// Close sums target's notes and marks the tally closed. The second call for the
// same target reports false.
func (v *VoteSequencer) Close(target string) (int, bool) {
	if v.closed[target] {
		return 0, false
	}
	v.closed[target] = true
	sum := 0
	for _, vote := range v.votes[target] {
		sum += int(vote.Note)
	}
	return sum, true
}

func (v *VoteSequencer) Closed(target string) bool {
	return v.closed[target]
}

// Advance moves to the next target.
func (v *VoteSequencer) Advance() (string, bool) {
	if v.index < len(v.queue) {
		v.index++
	}
	return v.Current()
}

// Remaining counts the targets queued after the current one.
func (v *VoteSequencer) Remaining() int {
	left := len(v.queue) - v.index - 1
	if left < 0 {
		return 0
	}
	return left
}

func (v *VoteSequencer) Done() bool {
	return v.index >= len(v.queue)
}

func (v *VoteSequencer) Queue() []string {
	return append([]string(nil), v.queue...)
}

// Record copies every vote cast this round, keyed by target.
func (v *VoteSequencer) Record() map[string][]Vote {
	out := make(map[string][]Vote, len(v.votes))
	for target, votes := range v.votes {
		out[target] = append([]Vote(nil), votes...)
	}
	return out
}
