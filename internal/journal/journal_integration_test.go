//go:build integration

package journal

import (
	"context"
	"os"
	"testing"
	"time"

	"imitation-game/internal/db"
	"imitation-game/internal/game"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
)

var testDB *gorm.DB

func TestMain(m *testing.M) {
	ctx := context.Background()
	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("journal"),
		postgres.WithUsername("journal"),
		postgres.WithPassword("journal"),
		testcontainers.WithWaitStrategy(wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		panic(err)
	}
	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		panic(err)
	}
	testDB, err = db.Open(dsn, db.PoolConfig{MaxOpenConns: 4})
	if err != nil {
		panic(err)
	}
	if err := db.Migrate(testDB); err != nil {
		panic(err)
	}

	code := m.Run()
	container.Terminate(ctx)
	os.Exit(code)
}

func TestWriterRecordsLifecycle(t *testing.T) {
	w := New(testDB, 0)
	w.Record("123456", game.JournalSessionCreated, game.JournalPlayer{ConnID: "c1", Name: "Ana"})
	w.Record("123456", game.JournalPlayerJoined, game.JournalPlayer{ConnID: "c2", Name: "Bea"})
	w.Record("123456", game.JournalRoundStarted, game.JournalRound{Number: 1, Clip: "a.mp4"})
	w.Record("123456", game.JournalPlayerLeft, game.JournalPlayer{ConnID: "c2", Name: "Bea"})
	w.Record("123456", game.JournalGameOver, game.JournalResults{Rounds: 1, Ranking: []game.Standing{
		{PlayerID: "c1", Name: "Ana", Score: 3, Position: 1},
		{PlayerID: "c2", Name: "Bea", Score: 1, Position: 2},
	}})
	w.Record("123456", game.JournalSessionClosed, game.JournalClosure{Reason: game.CloseReasonGameOver})
	w.Close()

	var record db.Game
	require.NoError(t, testDB.Where("join_code = ?", "123456").First(&record).Error)
	assert.Equal(t, db.GameStatusFinished, record.Status)
	assert.Equal(t, 1, record.Rounds)
	assert.NotNil(t, record.EndedAt)

	var players []db.Player
	require.NoError(t, testDB.Where("game_id = ?", record.ID).Order("id").Find(&players).Error)
	require.Len(t, players, 2)
	assert.True(t, players[0].IsHost)
	assert.NotNil(t, players[1].LeftAt)

	var results []db.Result
	require.NoError(t, testDB.Where("game_id = ?", record.ID).Order("position").Find(&results).Error)
	require.Len(t, results, 2)
	assert.Equal(t, "Ana", results[0].Name)

	var events int64
	require.NoError(t, testDB.Model(&db.Event{}).Where("game_id = ?", record.ID).Count(&events).Error)
	assert.Equal(t, int64(6), events)
}

func TestWriterAbandonsStaleOpenRow(t *testing.T) {
	stale := New(testDB, 0)
	stale.Record("654321", game.JournalSessionCreated, game.JournalPlayer{ConnID: "old", Name: "Old"})
	stale.Close()

	w := New(testDB, 0)
	w.Record("654321", game.JournalSessionCreated, game.JournalPlayer{ConnID: "new", Name: "New"})
	w.Close()

	var rows []db.Game
	require.NoError(t, testDB.Where("join_code = ?", "654321").Order("id").Find(&rows).Error)
	require.Len(t, rows, 2)
	assert.Equal(t, db.GameStatusAbandoned, rows[0].Status)
	assert.Equal(t, db.GameStatusOpen, rows[1].Status)
}
