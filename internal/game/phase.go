package game

// Phase is the lifecycle position of a room. Exactly one phase is current at a
// time and it decides which inbound actions are accepted.
type Phase string

const (
	// Client-side phases that precede room membership. Rooms never hold them but
	// they are part of the shared wire vocabulary.
	PhaseLobbySelection Phase = "lobby_selection"
	PhaseCreateOrJoin   Phase = "create_or_join"

	PhaseWaiting              Phase = "waiting"
	PhaseWaitingToStart       Phase = "waiting_start"
	PhasePlayingClip          Phase = "playing_clip"
	PhaseRecording            Phase = "recording"
	PhaseCollectingRecordings Phase = "collecting_recordings"
	PhasePlayingRecordings    Phase = "playing_recordings"
	PhaseVoting               Phase = "voting"
	PhaseVotingDone           Phase = "voting_done"
	PhaseGameOver             Phase = "game_over"
)

func (p Phase) String() string {
	return string(p)
}

// Terminal reports whether no further round or vote events apply.
func (p Phase) Terminal() bool {
	return p == PhaseGameOver
}

// acceptsRecordings reports whether the recording barrier is open.
func (p Phase) acceptsRecordings() bool {
	return p == PhaseRecording || p == PhaseCollectingRecordings
}

// rosterPhase reports whether the phase is driven by roster size alone.
func (p Phase) rosterPhase() bool {
	return p == PhaseWaiting || p == PhaseWaitingToStart
}

// Action is a host-triggered advancement that may be delayed by a countdown.
type Action string

const (
	ActionStartGame        Action = "start_game"
	ActionListenImitations Action = "listen_imitations"
	ActionNextClip         Action = "next_clip"
)

// ParseAction maps a wire action name to an Action.
func ParseAction(raw string) (Action, bool) {
	switch Action(raw) {
	case ActionStartGame, ActionListenImitations, ActionNextClip:
		return Action(raw), true
	default:
		return "", false
	}
}

// requiredPhase is the phase in which the action is meaningful, both when it is
// requested and when its countdown elapses.
func (a Action) requiredPhase() Phase {
	switch a {
	case ActionStartGame:
		return PhaseWaitingToStart
	case ActionListenImitations:
		return PhasePlayingRecordings
	case ActionNextClip:
		return PhaseVotingDone
	default:
		return ""
	}
}
