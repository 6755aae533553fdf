package game

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Emitter fans events out to every connection subscribed to a room. Broadcast
// must not block on slow connections; rooms call it while holding their lock.
type Emitter interface {
	Subscribe(room, conn string)
	Unsubscribe(room, conn string)
	Broadcast(room string, event Event)
	Close(room string)
}

// ClipSource enumerates the round media uploaded for a session.
type ClipSource interface {
	ListClips(session string) ([]string, error)
}

// MediaReclaimer deletes stored media.
type MediaReclaimer interface {
	DeleteRecording(handle string) error
	RemoveSessionMedia(session string) error
}

// Journal records session history. Record must not block.
type Journal interface {
	Record(session string, kind string, payload any)
}

type Settings struct {
	// CountdownDelay is the wait before a host-requested action runs.
	CountdownDelay time.Duration
	// VotePause separates consecutive vote targets.
	VotePause time.Duration
}

func DefaultSettings() Settings {
	return Settings{
		CountdownDelay: 3 * time.Second,
		VotePause:      3 * time.Second,
	}
}

// Deps are the collaborators shared by every room of a registry.
type Deps struct {
	Emitter  Emitter
	Clips    ClipSource
	Media    MediaReclaimer
	Journal  Journal
	Timers   TimerFunc
	Settings Settings
	Logger   *zerolog.Logger
	// Async runs best-effort work off the room's critical section.
	Async func(func())
}

func (d Deps) withDefaults() Deps {
	if d.Emitter == nil {
		d.Emitter = nopEmitter{}
	}
	if d.Clips == nil {
		d.Clips = noClips{}
	}
	if d.Media == nil {
		d.Media = nopMedia{}
	}
	if d.Journal == nil {
		d.Journal = nopJournal{}
	}
	if d.Settings == (Settings{}) {
		d.Settings = DefaultSettings()
	}
	if d.Logger == nil {
		d.Logger = &log.Logger
	}
	if d.Async == nil {
		d.Async = func(f func()) { go f() }
	}
	return d
}

type nopEmitter struct{}

func (nopEmitter) Subscribe(string, string)   {}
func (nopEmitter) Unsubscribe(string, string) {}
func (nopEmitter) Broadcast(string, Event)    {}
func (nopEmitter) Close(string)               {}

type noClips struct{}

func (noClips) ListClips(string) ([]string, error) { return nil, nil }

type nopMedia struct{}

func (nopMedia) DeleteRecording(string) error    { return nil }
func (nopMedia) RemoveSessionMedia(string) error { return nil }

type nopJournal struct{}

func (nopJournal) Record(string, string, any) {}
