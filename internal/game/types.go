// internal/game/types.go
//
// Core type definitions for the Battleship board engine.
// Defines:
//   - Outcome: per-guess result (hit/miss/already marked).
//   - Glyphs used by the ground truth and the revealed view.
//   - Sentinel errors returned by Board and Table.

package game

import "errors"

// MaxGuesses is the guess ceiling; a round is lost once the counter exceeds it.
const MaxGuesses = 42

// Outcome is the evaluation of a single guess.
type Outcome int

const (
	OutcomeMiss Outcome = iota
	OutcomeHit
	OutcomeAlreadyMarked
)

func (o Outcome) String() string {
	switch o {
	case OutcomeHit:
		return "hit"
	case OutcomeMiss:
		return "miss"
	case OutcomeAlreadyMarked:
		return "already_marked"
	default:
		return "unknown"
	}
}

// Cell glyphs.
const (
	GlyphTarget  byte = 'x' // ground truth: counts toward the win
	GlyphPadding byte = ' ' // ground truth: implicit padding of short rows
	GlyphUnknown byte = 'X' // revealed: not guessed yet
	GlyphHit     byte = 'O' // revealed: target hit
	GlyphMiss    byte = ' ' // revealed: filler guessed
)

var (
	ErrOutOfBounds    = errors.New("row or column out of bounds")
	ErrNoRound        = errors.New("no round has been started")
	ErrNotParticipant = errors.New("not a participant in the current round")
	ErrRoundOver      = errors.New("round is already over")
)
