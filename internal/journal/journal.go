package journal

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"imitation-game/internal/db"
	"imitation-game/internal/game"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const DefaultBuffer = 256

type entry struct {
	session string
	kind    string
	payload any
	at      time.Time
}

// Writer persists session history on a single background goroutine. Record
// never blocks; when the buffer is full the entry is dropped.
type Writer struct {
	db      *gorm.DB
	entries chan entry
	done    chan struct{}
	log     zerolog.Logger
	now     func() time.Time

	mu     sync.RWMutex
	closed bool

	// owned by the worker goroutine
	games   map[string]uint
	players map[string]uint
}

func New(conn *gorm.DB, buffer int) *Writer {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	w := &Writer{
		db:      conn,
		entries: make(chan entry, buffer),
		done:    make(chan struct{}),
		log:     log.With().Str("module", "journal").Logger(),
		now:     func() time.Time { return time.Now().UTC() },
		games:   make(map[string]uint),
		players: make(map[string]uint),
	}
	go w.run()
	return w
}

func (w *Writer) Record(session, kind string, payload any) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return
	}
	select {
	case w.entries <- entry{session: session, kind: kind, payload: payload, at: w.now()}:
	default:
		w.log.Warn().Str("session", session).Str("kind", kind).Msg("journal full, entry dropped")
	}
}

// Close stops accepting entries and waits until the buffered ones are written.
func (w *Writer) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		<-w.done
		return
	}
	w.closed = true
	close(w.entries)
	w.mu.Unlock()
	<-w.done
}

func (w *Writer) run() {
	defer close(w.done)
	for e := range w.entries {
		if err := w.apply(e); err != nil {
			w.log.Warn().Str("session", e.session).Str("kind", e.kind).Err(err).Msg("journal write failed")
		}
	}
}

func (w *Writer) apply(e entry) error {
	if w.db == nil {
		return nil
	}
	if e.kind == game.JournalSessionCreated {
		if err := w.openGame(e); err != nil {
			return err
		}
	}
	gameID, ok := w.games[e.session]
	if !ok {
		return fmt.Errorf("no journal row for session %s", e.session)
	}
	if err := w.applyKind(gameID, e); err != nil {
		return err
	}
	data, err := json.Marshal(e.payload)
	if err != nil {
		return err
	}
	if err := w.db.Create(&db.Event{
		GameID:    gameID,
		Type:      e.kind,
		Payload:   datatypes.JSON(data),
		CreatedAt: e.at,
	}).Error; err != nil {
		return err
	}
	if e.kind == game.JournalSessionClosed {
		w.forget(e.session)
	}
	return nil
}

func (w *Writer) applyKind(gameID uint, e entry) error {
	switch payload := e.payload.(type) {
	case game.JournalPlayer:
		switch e.kind {
		case game.JournalSessionCreated:
			return w.addPlayer(gameID, e, payload, true)
		case game.JournalPlayerJoined:
			return w.addPlayer(gameID, e, payload, false)
		case game.JournalPlayerLeft:
			id, ok := w.players[playerKey(e.session, payload.ConnID)]
			if !ok {
				return nil
			}
			return w.db.Model(&db.Player{}).Where("id = ?", id).Update("left_at", e.at).Error
		}
	case game.JournalRound:
		return w.db.Model(&db.Game{}).Where("id = ?", gameID).Update("rounds", payload.Number).Error
	case game.JournalResults:
		return w.writeResults(gameID, e, payload)
	case game.JournalClosure:
		status := db.GameStatusClosed
		if payload.Reason == game.CloseReasonGameOver {
			status = db.GameStatusFinished
		}
		return w.db.Model(&db.Game{}).Where("id = ?", gameID).Updates(map[string]any{
			"status":   status,
			"ended_at": e.at,
		}).Error
	}
	return nil
}

// openGame inserts the row for a new session. An open row already holding the
// join code belongs to a session this process never closed, so it is marked
// abandoned and the insert retried.
func (w *Writer) openGame(e entry) error {
	record := db.Game{
		JoinCode:  e.session,
		Status:    db.GameStatusOpen,
		StartedAt: e.at,
	}
	err := w.db.Create(&record).Error
	if err != nil && isUniqueViolation(err) {
		if abandonErr := w.db.Model(&db.Game{}).
			Where("join_code = ? AND ended_at IS NULL", e.session).
			Updates(map[string]any{"status": db.GameStatusAbandoned, "ended_at": e.at}).Error; abandonErr != nil {
			return abandonErr
		}
		record = db.Game{JoinCode: e.session, Status: db.GameStatusOpen, StartedAt: e.at}
		err = w.db.Create(&record).Error
	}
	if err != nil {
		return err
	}
	w.games[e.session] = record.ID
	return nil
}

func (w *Writer) addPlayer(gameID uint, e entry, player game.JournalPlayer, host bool) error {
	key := playerKey(e.session, player.ConnID)
	if id, ok := w.players[key]; ok {
		return w.db.Model(&db.Player{}).Where("id = ?", id).Updates(map[string]any{
			"name":    player.Name,
			"left_at": nil,
		}).Error
	}
	record := db.Player{
		GameID:   gameID,
		ConnID:   player.ConnID,
		Name:     player.Name,
		IsHost:   host,
		JoinedAt: e.at,
	}
	if err := w.db.Create(&record).Error; err != nil {
		if !isUniqueViolation(err) {
			return err
		}
		var existing db.Player
		if lookupErr := w.db.Where("game_id = ? AND conn_id = ?", gameID, player.ConnID).First(&existing).Error; lookupErr != nil {
			return err
		}
		record.ID = existing.ID
	}
	w.players[key] = record.ID
	return nil
}

func (w *Writer) writeResults(gameID uint, e entry, results game.JournalResults) error {
	return w.db.Transaction(func(tx *gorm.DB) error {
		if len(results.Ranking) > 0 {
			rows := make([]db.Result, 0, len(results.Ranking))
			for _, standing := range results.Ranking {
				rows = append(rows, db.Result{
					GameID:    gameID,
					ConnID:    standing.PlayerID,
					Name:      standing.Name,
					Score:     standing.Score,
					Position:  standing.Position,
					CreatedAt: e.at,
				})
			}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error; err != nil {
				return err
			}
		}
		return tx.Model(&db.Game{}).Where("id = ?", gameID).Update("rounds", results.Rounds).Error
	})
}

func (w *Writer) forget(session string) {
	delete(w.games, session)
	prefix := session + "/"
	for key := range w.players {
		if strings.HasPrefix(key, prefix) {
			delete(w.players, key)
		}
	}
}

func playerKey(session, conn string) string {
	return session + "/" + conn
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
