package game

import "slices"

// Ledger accumulates integer scores per player across rounds. It is only
// mutated when a vote tally closes, plus the zero seeding at the first round.
type Ledger struct {
	scores map[string]int
}

func NewLedger() *Ledger {
	return &Ledger{scores: make(map[string]int)}
}

// Seed sets every id to zero unless it already has a score.
func (l *Ledger) Seed(ids []string) {
	for _, id := range ids {
		if _, ok := l.scores[id]; !ok {
			l.scores[id] = 0
		}
	}
}

// Add accumulates delta into id's score and returns the new total.
func (l *Ledger) Add(id string, delta int) int {
	l.scores[id] += delta
	return l.scores[id]
}

func (l *Ledger) Score(id string) int {
	return l.scores[id]
}

func (l *Ledger) Has(id string) bool {
	_, ok := l.scores[id]
	return ok
}

// ByName keys scores by display name. Players no longer present are skipped.
func (l *Ledger) ByName(names map[string]string) map[string]int {
	out := make(map[string]int, len(l.scores))
	for id, score := range l.scores {
		name, ok := names[id]
		if !ok {
			continue
		}
		out[name] = score
	}
	return out
}

// Standing is one line of the final ranking.
type Standing struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
	Position int    `json:"position"`
}

// Ranking orders the given players by score, descending. Ties keep roster order
// and share no tie-break beyond that.
func (l *Ledger) Ranking(order []string, names map[string]string) []Standing {
	standings := make([]Standing, 0, len(order))
	for _, id := range order {
		standings = append(standings, Standing{
			PlayerID: id,
			Name:     names[id],
			Score:    l.scores[id],
		})
	}
	slices.SortStableFunc(standings, func(a, b Standing) int {
		return b.Score - a.Score
	})
	for i := range standings {
		standings[i].Position = i + 1
	}
	return standings
}
