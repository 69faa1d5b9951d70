// internal/game/table.go
//
// Table is the shared handle every session plays against.
// Responsibilities:
//   - Own the single current Board and replace it when a round is over.
//   - Track the participants of the current round and their running scores.
//   - Serialize guess → evaluate → score so a round is settled exactly once.
//
// Locking: Table.mu guards board, participants and scores. Win settlement
// calls Scorer while holding Table.mu, so the order is always
// Table before Leaderboard. A Scorer must never call back into the Table.

package game

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// WinBonus is the per-participant award under ScoringWinBonus.
const WinBonus = 1

// Source supplies board documents for new rounds.
type Source interface {
	Pick() (name, text string)
}

// Scorer persists round results. ApplyWinBonus must be atomic with respect to
// other leaderboard operations.
type Scorer interface {
	ApplyWinBonus(names []string, deltas map[string]int)
}

// Scoring selects how a win is credited to participants.
type Scoring int

const (
	// ScoringWinBonus awards WinBonus to every participant.
	ScoringWinBonus Scoring = iota
	// ScoringRunningTotal flushes every participant's running score.
	ScoringRunningTotal
)

// ParseScoring maps "bonus" / "running" to a Scoring.
func ParseScoring(s string) (Scoring, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "bonus":
		return ScoringWinBonus, nil
	case "running":
		return ScoringRunningTotal, nil
	default:
		return 0, fmt.Errorf("unknown scoring mode %q", s)
	}
}

func (s Scoring) String() string {
	if s == ScoringRunningTotal {
		return "running"
	}
	return "bonus"
}

// participant is one session that joined the current round.
type participant struct {
	name  string
	score int
}

// Table is safe for concurrent use.
type Table struct {
	mu           sync.Mutex
	board        *Board
	round        int
	participants map[string]*participant // keyed by session ID

	source  Source
	scorer  Scorer
	scoring Scoring
	log     zerolog.Logger
}

// Option configures a Table.
type Option func(*Table)

// WithScoring sets the win scoring policy.
func WithScoring(s Scoring) Option {
	return func(t *Table) { t.scoring = s }
}

// WithLogger sets the logger used for round lifecycle events.
func WithLogger(l zerolog.Logger) Option {
	return func(t *Table) { t.log = l }
}

// NewTable creates a Table with no active round.
func NewTable(src Source, scorer Scorer, opts ...Option) *Table {
	t := &Table{
		participants: make(map[string]*participant),
		source:       src,
		scorer:       scorer,
		log:          zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// JoinResult describes the round a session joined.
type JoinResult struct {
	NewRound bool
	Round    int
	Guesses  int
	Board    string
}

// Join starts a round when none is active (or the last one is over) and adds
// the session to its participants. Joining twice keeps the running score.
func (t *Table) Join(sessionID, name string) JoinResult {
	t.mu.Lock()
	defer t.mu.Unlock()

	started := false
	if t.board == nil || t.board.Finished() {
		t.startRound()
		started = true
	}
	if _, ok := t.participants[sessionID]; !ok {
		t.participants[sessionID] = &participant{name: name}
	}
	t.logOriginal()
	return JoinResult{
		NewRound: started,
		Round:    t.round,
		Guesses:  t.board.Guesses(),
		Board:    t.board.RenderRevealed(),
	}
}

// startRound replaces the board. Caller holds t.mu.
func (t *Table) startRound() {
	name, text := t.source.Pick()
	t.board = NewBoard(text)
	t.board.source = name
	t.round++
	t.participants = make(map[string]*participant)

	t.log.Info().
		Int("round", t.round).
		Str("source", name).
		Int("rows", t.board.Rows()).
		Int("cols", t.board.Cols()).
		Int("targets", t.board.Targets()).
		Msg("round started")
}

// logOriginal writes the unrevealed board at debug level. Caller holds t.mu.
func (t *Table) logOriginal() {
	if e := t.log.Debug(); e.Enabled() {
		e.Int("round", t.round).Str("original", t.board.RenderOriginal()).Msg("original board")
	}
}

// GuessResult is the outcome of one guess as seen by the guessing session.
type GuessResult struct {
	Outcome Outcome
	Won     bool
	Lost    bool
	Round   int
	Guesses int
	Score   int
	Board   string
}

// Done reports whether this guess ended the round.
func (r GuessResult) Done() bool { return r.Won || r.Lost }

// Guess applies a guess for a participant of the current round.
//
// The whole sequence runs under the table lock: exactly one guess can win a
// round, and the win is settled with the Scorer before any other guess is
// evaluated.
func (t *Table) Guess(sessionID string, row, col int) (GuessResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.board == nil {
		return GuessResult{}, ErrNoRound
	}
	p, ok := t.participants[sessionID]
	if !ok {
		return GuessResult{}, ErrNotParticipant
	}
	if t.board.Finished() {
		t.participants = make(map[string]*participant)
		return GuessResult{}, ErrRoundOver
	}

	outcome, err := t.board.Guess(row, col)
	if err != nil {
		return GuessResult{}, err
	}
	switch outcome {
	case OutcomeHit:
		p.score++
	case OutcomeMiss:
		p.score--
	}

	res := GuessResult{
		Outcome: outcome,
		Round:   t.round,
		Guesses: t.board.Guesses(),
		Score:   p.score,
	}
	switch {
	case t.board.IsWon():
		res.Won = true
		t.settleWin()
	case t.board.IsLost():
		res.Lost = true
		t.log.Info().Int("round", t.round).Int("guesses", res.Guesses).Msg("round lost")
		t.participants = make(map[string]*participant)
	}
	res.Board = t.board.RenderRevealed()
	t.logOriginal()
	return res, nil
}

// settleWin credits every participant and clears the round. Caller holds t.mu.
func (t *Table) settleWin() {
	names := make([]string, 0, len(t.participants))
	deltas := make(map[string]int, len(t.participants))
	for _, p := range t.participants {
		if _, seen := deltas[p.name]; !seen {
			names = append(names, p.name)
			deltas[p.name] = 0
		}
		switch t.scoring {
		case ScoringRunningTotal:
			deltas[p.name] += p.score
		default:
			deltas[p.name] = WinBonus
		}
	}

	sort.Strings(names)
	if t.scorer != nil && len(names) > 0 {
		t.scorer.ApplyWinBonus(names, deltas)
	}
	t.log.Info().
		Int("round", t.round).
		Int("guesses", t.board.Guesses()).
		Strs("participants", names).
		Str("scoring", t.scoring.String()).
		Msg("round won")
	t.participants = make(map[string]*participant)
}

// Leave drops a session from the current round. Its running score is
// discarded. Reports whether the session was a participant.
func (t *Table) Leave(sessionID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.participants[sessionID]; !ok {
		return false
	}
	delete(t.participants, sessionID)
	return true
}

// Participating reports whether the session is in the current round.
func (t *Table) Participating(sessionID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.participants[sessionID]
	return ok
}

// Status is a point-in-time view of the table. It never includes the
// original board.
type Status struct {
	Active       bool   `json:"active"`
	Round        int    `json:"round"`
	Source       string `json:"source,omitempty"`
	Rows         int    `json:"rows"`
	Cols         int    `json:"cols"`
	Targets      int    `json:"targets"`
	Hits         int    `json:"hits"`
	Guesses      int    `json:"guesses"`
	MaxGuesses   int    `json:"maxGuesses"`
	Won          bool   `json:"won"`
	Lost         bool   `json:"lost"`
	Participants int    `json:"participants"`
	Board        string `json:"board,omitempty"`
}

// Status returns a consistent snapshot.
func (t *Table) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()

	st := Status{Round: t.round, MaxGuesses: MaxGuesses, Participants: len(t.participants)}
	if t.board == nil {
		return st
	}
	st.Source = t.board.Source()
	st.Rows = t.board.Rows()
	st.Cols = t.board.Cols()
	st.Targets = t.board.Targets()
	st.Hits = t.board.Hits()
	st.Guesses = t.board.Guesses()
	st.Won = t.board.IsWon()
	st.Lost = t.board.IsLost()
	st.Active = !st.Won && !st.Lost
	st.Board = t.board.RenderRevealed()
	return st
}
