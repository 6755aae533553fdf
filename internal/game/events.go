package game

// Outbound event types.
const (
	EventUpdatePlayers        = "update_players"
	EventPhaseChange          = "phase_change"
	EventPlayClip             = "play_clip"
	EventStartRecording       = "start_recording"
	EventUpdateValidations    = "update_validations"
	EventPlayRecordings       = "play_recordings"
	EventStartCountdown       = "start_countdown"
	EventStartButtonCountdown = "start_button_countdown"
	EventStartVotePhase       = "start_vote_phase"
	EventUpdateScores         = "update_scores"
	EventVotingDone           = "voting_done"
	EventGameOver             = "game_over"
)

// Event is one outbound message fanned out to a room.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

type PlayersPayload struct {
	Names  map[string]string `json:"names"`
	Order  []string          `json:"order"`
	HostID string            `json:"hostId"`
}

type PlayClipPayload struct {
	ClipName    string `json:"clipName"`
	Round       int    `json:"round"`
	TotalRounds int    `json:"totalRounds"`
}

type ValidationsPayload struct {
	Count int `json:"count"`
	Total int `json:"total"`
}

type CountdownPayload struct {
	Seconds int `json:"seconds"`
}

type ButtonCountdownPayload struct {
	Action  Action `json:"action"`
	Seconds int    `json:"seconds"`
}

type VotePhasePayload struct {
	TargetID    string `json:"targetId"`
	MediaHandle string `json:"mediaHandle"`
}

type GameOverPayload struct {
	Ranking []Standing `json:"ranking"`
}

// Journal entry kinds.
const (
	JournalSessionCreated  = "session_created"
	JournalPlayerJoined    = "player_joined"
	JournalPlayerLeft      = "player_left"
	JournalRoundStarted    = "round_started"
	JournalRecordingsReady = "recordings_ready"
	JournalTallyClosed     = "tally_closed"
	JournalGameOver        = "game_over"
	JournalSessionClosed   = "session_closed"
)

type JournalPlayer struct {
	ConnID string `json:"conn_id"`
	Name   string `json:"name"`
}

type JournalRound struct {
	Number int    `json:"number"`
	Clip   string `json:"clip"`
}

type JournalTally struct {
	Round    int    `json:"round"`
	TargetID string `json:"target_id"`
	Sum      int    `json:"sum"`
	Votes    []Vote `json:"votes"`
	Total    int    `json:"total"`
}

type JournalResults struct {
	Rounds  int        `json:"rounds"`
	Ranking []Standing `json:"ranking"`
}

type JournalRecordings struct {
	Round      int               `json:"round"`
	Recordings map[string]string `json:"recordings"`
}

// Reasons a session closes.
const (
	CloseReasonEmpty    = "empty"
	CloseReasonClosed   = "closed"
	CloseReasonGameOver = "game_over"
)

type JournalClosure struct {
	Reason string `json:"reason"`
}
