package game

import (
	"maps"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// roundState is the payload of a round once its clip has been selected.
// recordings is filled when the barrier releases and votes when voting starts.
type roundState struct {
	number     int
	clip       string
	recordings map[string]string
	votes      *VoteSequencer
}

// Room is one live session. Every exported method is a short transaction under
// the room's lock; invalid actions are ignored without a reply.
type Room struct {
	mu   sync.Mutex
	code string
	reg  *Registry
	deps Deps
	log  zerolog.Logger

	phase   Phase
	host    string
	roster  roster
	clips   ClipSequencer
	barrier *RecordingBarrier
	ledger  *Ledger
	round   *roundState
	// pending is the scheduler generation of the delayed action this room is
	// waiting on, zero when none.
	pending uint64
	closed  bool
}

func newRoom(reg *Registry, code, hostConn, hostName string) *Room {
	r := &Room{
		code:    code,
		reg:     reg,
		deps:    reg.deps,
		log:     reg.deps.Logger.With().Str("session", code).Logger(),
		phase:   PhaseWaiting,
		host:    hostConn,
		roster:  newRoster(),
		barrier: NewRecordingBarrier(),
		ledger:  NewLedger(),
	}
	r.roster.add(hostConn, hostName)
	return r
}

func (r *Room) Code() string {
	return r.code
}

func (r *Room) Phase() Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

func (r *Room) HostID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.host
}

// Summary is a read-only view of a room for listings.
type Summary struct {
	Code        string   `json:"code"`
	Phase       Phase    `json:"phase"`
	HostID      string   `json:"hostId"`
	Players     []string `json:"players"`
	Round       int      `json:"round"`
	TotalRounds int      `json:"totalRounds"`
}

func (r *Room) Summary() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	players := make([]string, 0, r.roster.len())
	for _, id := range r.roster.ids() {
		players = append(players, r.roster.name(id))
	}
	return Summary{
		Code:        r.code,
		Phase:       r.phase,
		HostID:      r.host,
		Players:     players,
		Round:       r.clips.Index(),
		TotalRounds: r.clips.Len(),
	}
}

// Scores returns the ledger keyed by display name.
func (r *Room) Scores() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ledger.ByName(r.roster.namesByID())
}

// announce subscribes the creator and publishes the initial roster.
func (r *Room) announce() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deps.Emitter.Subscribe(r.code, r.host)
	r.emitPlayers()
	r.deps.Journal.Record(r.code, JournalSessionCreated, JournalPlayer{ConnID: r.host, Name: r.roster.name(r.host)})
	r.log.Info().Str("conn", r.host).Msg("session created")
}

func (r *Room) join(conn, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRoomNotFound
	}
	r.roster.add(conn, name)
	r.reg.track(conn, r.code)
	r.deps.Emitter.Subscribe(r.code, conn)
	r.emitPlayers()
	r.deps.Journal.Record(r.code, JournalPlayerJoined, JournalPlayer{ConnID: conn, Name: name})
	r.log.Info().Str("conn", conn).Int("players", r.roster.len()).Msg("player joined")
	r.applyRosterThreshold()
	return nil
}

// Leave removes conn from the room, reassigning the host and repairing the
// barrier or the current tally as needed. An emptied room is destroyed.
func (r *Room) Leave(conn string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := r.roster.name(conn)
	if r.closed || !r.roster.remove(conn) {
		return
	}
	r.reg.untrack(conn, r.code)
	r.deps.Emitter.Unsubscribe(r.code, conn)
	r.deps.Journal.Record(r.code, JournalPlayerLeft, JournalPlayer{ConnID: conn, Name: name})
	r.log.Info().Str("conn", conn).Int("players", r.roster.len()).Msg("player left")

	if r.roster.len() == 0 {
		r.destroy(CloseReasonEmpty)
		return
	}
	if r.host == conn {
		r.host, _ = r.roster.first()
		r.log.Info().Str("conn", r.host).Msg("host reassigned")
	}
	r.emitPlayers()

	switch {
	case r.phase.rosterPhase():
		r.applyRosterThreshold()
	case r.phase.acceptsRecordings():
		if handle := r.barrier.Forget(conn); handle != "" {
			r.deleteRecordings(handle)
		}
		r.emitProgress()
		r.checkBarrier()
	case r.phase == PhaseVoting:
		if target, ok := r.round.votes.Current(); ok && target == conn {
			r.round.votes.Close(conn)
			r.round.votes.Advance()
			r.log.Info().Str("target", conn).Msg("target left, tally abandoned")
			r.openTarget()
			return
		}
		r.checkQuorum()
	}
}

// Close destroys the room regardless of its roster.
func (r *Room) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.destroy(CloseReasonClosed)
}

// StartRound is the host starting the first round from the lobby.
func (r *Room) StartRound(conn string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.hostAction(conn, PhaseWaitingToStart) {
		return
	}
	r.startRound()
}

// ClipFinished moves the room from watching the clip to recording.
func (r *Room) ClipFinished(conn string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || !r.roster.has(conn) || r.phase != PhasePlayingClip {
		r.ignored(conn, "clip_done")
		return
	}
	r.setPhase(PhaseRecording)
	r.emit(EventStartRecording, nil)
}

// SubmitRecording is the barrier intake for conn's recording of this round.
func (r *Room) SubmitRecording(conn, handle string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	handle = strings.TrimSpace(handle)
	if r.closed || handle == "" || !r.roster.has(conn) || !r.phase.acceptsRecordings() {
		r.ignored(conn, "recording_done")
		return
	}
	if superseded := r.barrier.Submit(conn, handle); superseded != "" {
		r.deleteRecordings(superseded)
	}
	r.log.Debug().Str("conn", conn).Str("handle", handle).Msg("recording submitted")
	if r.phase == PhaseRecording {
		r.setPhase(PhaseCollectingRecordings)
	}
	r.emitProgress()
	r.checkBarrier()
}

// StartVoting is the host opening the vote on the released recordings.
func (r *Room) StartVoting(conn string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.hostAction(conn, PhasePlayingRecordings) {
		return
	}
	r.startVoting()
}

// CastVote is the vote sequencer intake.
func (r *Room) CastVote(conn, target string, note Note) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || r.phase != PhaseVoting || r.round == nil || r.round.votes == nil {
		r.ignored(conn, "vote")
		return
	}
	if !r.roster.has(conn) {
		r.log.Debug().Str("conn", conn).Err(ErrNotMember).Msg("vote rejected")
		return
	}
	if err := r.round.votes.Cast(conn, target, note); err != nil {
		r.log.Debug().Str("conn", conn).Str("target", target).Err(err).Msg("vote rejected")
		return
	}
	r.checkQuorum()
}

// NextRound is the host leaving the vote results for the next clip or the end
// of the game.
func (r *Room) NextRound(conn string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.hostAction(conn, PhaseVotingDone) || !r.ready(ActionNextClip) {
		return
	}
	r.nextRound()
}

// RequestTimedAction broadcasts a countdown and performs action once it elapses,
// provided the room still exists and is still in the phase the action needs.
func (r *Room) RequestTimedAction(conn string, action Action) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.hostAction(conn, action.requiredPhase()) || !r.ready(action) {
		return
	}
	if r.pending != 0 {
		r.log.Debug().Str("action", string(action)).Msg("countdown already running")
		return
	}
	delay := r.deps.Settings.CountdownDelay
	r.emit(EventStartButtonCountdown, ButtonCountdownPayload{Action: action, Seconds: seconds(delay)})
	handle := r.reg.sched.Schedule(r.code, delay, func(gen uint64) {
		r.fireAction(action, gen)
	})
	r.pending = handle.Gen
}

func (r *Room) fireAction(action Action, gen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.claim(gen) {
		return
	}
	if r.phase != action.requiredPhase() || !r.ready(action) {
		r.log.Debug().Str("action", string(action)).Str("phase", r.phase.String()).Msg("stale countdown")
		return
	}
	switch action {
	case ActionStartGame:
		r.startRound()
	case ActionListenImitations:
		r.startVoting()
	case ActionNextClip:
		r.nextRound()
	}
}

func (r *Room) fireVotePause(gen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.claim(gen) {
		return
	}
	if r.phase != PhaseVotingDone || r.round == nil || r.round.votes == nil || r.round.votes.Done() {
		return
	}
	r.openTarget()
}

// claim consumes the pending generation if gen is still current for a live
// room registered under its code.
func (r *Room) claim(gen uint64) bool {
	if r.closed || r.pending != gen || !r.reg.current(r) {
		return false
	}
	r.pending = 0
	return true
}

func (r *Room) hostAction(conn string, phase Phase) bool {
	if r.closed || conn != r.host || r.phase != phase {
		r.ignored(conn, string(phase))
		return false
	}
	return true
}

// ready covers preconditions beyond the phase.
func (r *Room) ready(action Action) bool {
	switch action {
	case ActionListenImitations:
		return r.round != nil && r.round.recordings != nil
	case ActionNextClip:
		return r.round != nil && r.round.votes != nil && r.round.votes.Done()
	default:
		return true
	}
}

func (r *Room) applyRosterThreshold() {
	switch {
	case r.phase == PhaseWaiting && r.roster.len() >= 2:
		r.setPhase(PhaseWaitingToStart)
	case r.phase == PhaseWaitingToStart && r.roster.len() < 2:
		r.setPhase(PhaseWaiting)
	}
}

func (r *Room) startRound() {
	if !r.clips.Loaded() {
		clips, err := r.deps.Clips.ListClips(r.code)
		if err != nil {
			r.log.Warn().Err(err).Msg("list clips")
			return
		}
		r.clips.Load(clips)
		r.ledger.Seed(r.roster.ids())
		r.emit(EventUpdateScores, r.ledger.ByName(r.roster.namesByID()))
	}
	clip, ok := r.clips.Next()
	if !ok {
		r.finish()
		return
	}
	r.barrier.Reset()
	r.round = &roundState{number: r.clips.Index(), clip: clip}
	r.setPhase(PhasePlayingClip)
	r.emit(EventPlayClip, PlayClipPayload{ClipName: clip, Round: r.round.number, TotalRounds: r.clips.Len()})
	r.deps.Journal.Record(r.code, JournalRoundStarted, JournalRound{Number: r.round.number, Clip: clip})
}

func (r *Room) checkBarrier() {
	if !r.phase.acceptsRecordings() || !r.barrier.Satisfied(r.roster.ids()) {
		return
	}
	recordings := r.barrier.Release()
	r.round.recordings = recordings
	r.setPhase(PhasePlayingRecordings)
	r.emit(EventPlayRecordings, maps.Clone(recordings))
	r.deps.Journal.Record(r.code, JournalRecordingsReady, JournalRecordings{Round: r.round.number, Recordings: maps.Clone(recordings)})
}

func (r *Room) startVoting() {
	queue := make([]string, 0, len(r.round.recordings))
	for _, id := range r.roster.ids() {
		if _, ok := r.round.recordings[id]; ok {
			queue = append(queue, id)
		}
	}
	r.round.votes = NewVoteSequencer(queue)
	r.log.Info().Int("targets", len(queue)).Msg("voting started")
	r.openTarget()
}

// openTarget opens the current target of the vote sequencer, skipping targets
// that have left since the queue was fixed.
func (r *Room) openTarget() {
	votes := r.round.votes
	for {
		target, ok := votes.Current()
		if !ok {
			r.closeVoting()
			return
		}
		if r.roster.has(target) {
			break
		}
		votes.Close(target)
		votes.Advance()
	}
	target, _ := votes.Current()
	r.setPhase(PhaseVoting)
	r.emit(EventStartVotePhase, VotePhasePayload{TargetID: target, MediaHandle: r.round.recordings[target]})
	r.checkQuorum()
}

// checkQuorum closes the current tally once every other player has voted.
func (r *Room) checkQuorum() {
	votes := r.round.votes
	target, ok := votes.Current()
	if !ok || r.phase != PhaseVoting || !votes.QuorumReached(target, r.roster.ids()) {
		return
	}
	sum, closed := votes.Close(target)
	if !closed {
		return
	}
	total := r.ledger.Add(target, sum)
	r.emit(EventUpdateScores, r.ledger.ByName(r.roster.namesByID()))
	r.deps.Journal.Record(r.code, JournalTallyClosed, JournalTally{
		Round:    r.round.number,
		TargetID: target,
		Sum:      sum,
		Votes:    votes.Record()[target],
		Total:    total,
	})
	r.log.Info().Str("target", target).Int("sum", sum).Int("total", total).Msg("tally closed")

	votes.Advance()
	if votes.Done() {
		r.closeVoting()
		return
	}
	pause := r.deps.Settings.VotePause
	r.setPhase(PhaseVotingDone)
	r.emit(EventStartCountdown, CountdownPayload{Seconds: seconds(pause)})
	handle := r.reg.sched.Schedule(r.code, pause, r.fireVotePause)
	r.pending = handle.Gen
}

func (r *Room) closeVoting() {
	r.setPhase(PhaseVotingDone)
	r.emit(EventVotingDone, r.round.votes.Record())
}

func (r *Room) nextRound() {
	if r.round != nil {
		r.deleteRecordings(handlesOf(r.round.recordings)...)
		r.round = nil
	}
	if r.clips.Exhausted() {
		r.finish()
		return
	}
	r.startRound()
}

// finish ends the game, publishes the ranking and evicts the room.
func (r *Room) finish() {
	ranking := r.ledger.Ranking(r.roster.ids(), r.roster.namesByID())
	r.setPhase(PhaseGameOver)
	r.emit(EventGameOver, GameOverPayload{Ranking: ranking})
	r.deps.Journal.Record(r.code, JournalGameOver, JournalResults{Rounds: r.clips.Index(), Ranking: ranking})
	r.log.Info().Int("rounds", r.clips.Index()).Msg("game over")
	r.destroy(CloseReasonGameOver)
}

// destroy marks the room closed, drops it from the registry and reclaims its
// media in the background.
func (r *Room) destroy(reason string) {
	r.closed = true
	r.cancelPending()
	handles := r.barrier.Handles()
	if r.round != nil {
		handles = append(handles, handlesOf(r.round.recordings)...)
	}
	r.round = nil
	r.reg.evict(r, r.roster.ids())
	r.deps.Emitter.Close(r.code)
	r.deps.Journal.Record(r.code, JournalSessionClosed, JournalClosure{Reason: reason})
	r.log.Info().Str("reason", reason).Msg("session closed")

	media, code, log := r.deps.Media, r.code, r.log
	r.deps.Async(func() {
		for _, handle := range handles {
			if err := media.DeleteRecording(handle); err != nil {
				log.Warn().Str("handle", handle).Err(err).Msg("delete recording")
			}
		}
		if err := media.RemoveSessionMedia(code); err != nil {
			log.Warn().Err(err).Msg("remove session media")
		}
	})
}

func (r *Room) deleteRecordings(handles ...string) {
	if len(handles) == 0 {
		return
	}
	media, log := r.deps.Media, r.log
	r.deps.Async(func() {
		for _, handle := range handles {
			if err := media.DeleteRecording(handle); err != nil {
				log.Warn().Str("handle", handle).Err(err).Msg("delete recording")
			}
		}
	})
}

// setPhase is the only place the phase changes. Any pending delayed action is
// dropped since it was requested for the phase being left.
func (r *Room) setPhase(next Phase) {
	if r.phase == next {
		return
	}
	prev := r.phase
	r.phase = next
	r.cancelPending()
	r.emit(EventPhaseChange, next)
	r.log.Info().Str("from", prev.String()).Str("to", next.String()).Msg("phase change")
}

func (r *Room) cancelPending() {
	if r.pending == 0 {
		return
	}
	r.reg.sched.CancelHandle(Handle{Key: r.code, Gen: r.pending})
	r.pending = 0
}

func (r *Room) emit(eventType string, data any) {
	r.deps.Emitter.Broadcast(r.code, Event{Type: eventType, Data: data})
}

func (r *Room) emitPlayers() {
	r.emit(EventUpdatePlayers, PlayersPayload{
		Names:  r.roster.namesByID(),
		Order:  r.roster.ids(),
		HostID: r.host,
	})
}

func (r *Room) emitProgress() {
	players := r.roster.ids()
	r.emit(EventUpdateValidations, ValidationsPayload{Count: r.barrier.Count(players), Total: len(players)})
}

func (r *Room) ignored(conn, action string) {
	r.log.Debug().Str("conn", conn).Str("action", action).Str("phase", r.phase.String()).Msg("ignored")
}

func handlesOf(recordings map[string]string) []string {
	out := make([]string, 0, len(recordings))
	for _, handle := range recordings {
		out = append(out, handle)
	}
	return out
}

func seconds(d time.Duration) int {
	return int(d.Round(time.Second) / time.Second)
}
