// internal/game/engine.go
//
// Board engine for a single round of Battleship.
// Responsibilities:
//   - Parse a source document into the ground-truth grid.
//   - Apply guesses against the revealed grid and count them.
//   - Evaluate won/lost.
//   - Render the revealed and original grids as text.
//
// Board performs no locking; Table serializes access to the shared board.

package game

import (
	"strconv"
	"strings"
)

// Board holds the ground truth and revealed state of one round.
type Board struct {
	original [][]byte
	revealed [][]byte
	rows     int
	cols     int
	targets  int
	guesses  int
	source   string
}

// NewBoard parses doc into a fresh, fully obscured board.
// The width is the longest row; shorter rows are blank-padded.
func NewBoard(doc string) *Board {
	lines := strings.Split(doc, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}

	b := &Board{rows: len(lines)}
	for _, l := range lines {
		if len(l) > b.cols {
			b.cols = len(l)
		}
	}

	b.original = make([][]byte, b.rows)
	b.revealed = make([][]byte, b.rows)
	for i, l := range lines {
		row := make([]byte, b.cols)
		for j := range row {
			row[j] = GlyphPadding
		}
		copy(row, l)
		for _, c := range row {
			if c == GlyphTarget {
				b.targets++
			}
		}
		b.original[i] = row

		hidden := make([]byte, b.cols)
		for j := range hidden {
			hidden[j] = GlyphUnknown
		}
		b.revealed[i] = hidden
	}
	return b
}

// Guess marks (row, col) and reports the outcome.
//
// Out-of-bounds guesses fail with ErrOutOfBounds and are not counted. Every
// other call counts as one guess, including guesses on already-marked cells,
// which leave the grid untouched.
func (b *Board) Guess(row, col int) (Outcome, error) {
	if !b.InBounds(row, col) {
		return 0, ErrOutOfBounds
	}
	b.guesses++
	if b.revealed[row][col] != GlyphUnknown {
		return OutcomeAlreadyMarked, nil
	}
	if b.original[row][col] == GlyphTarget {
		b.revealed[row][col] = GlyphHit
		return OutcomeHit, nil
	}
	b.revealed[row][col] = GlyphMiss
	return OutcomeMiss, nil
}

// InBounds reports whether (row, col) lies on this board.
func (b *Board) InBounds(row, col int) bool {
	return row >= 0 && row < b.rows && col >= 0 && col < b.cols
}

// IsWon reports whether every target cell has been hit. It scans the grid on
// every call.
func (b *Board) IsWon() bool {
	for i := 0; i < b.rows; i++ {
		for j := 0; j < b.cols; j++ {
			if b.original[i][j] == GlyphTarget && b.revealed[i][j] != GlyphHit {
				return false
			}
		}
	}
	return true
}

// IsLost reports whether the guess ceiling was exceeded without a win.
func (b *Board) IsLost() bool {
	return b.guesses > MaxGuesses && !b.IsWon()
}

// Finished reports whether the round is won or lost.
func (b *Board) Finished() bool { return b.IsWon() || b.IsLost() }

func (b *Board) Rows() int { return b.rows }

func (b *Board) Cols() int { return b.cols }

func (b *Board) Targets() int { return b.targets }

func (b *Board) Guesses() int { return b.guesses }

// Source names the document the board was parsed from.
func (b *Board) Source() string { return b.source }

// Hits counts target cells marked hit.
func (b *Board) Hits() int {
	n := 0
	for i := 0; i < b.rows; i++ {
		for j := 0; j < b.cols; j++ {
			if b.revealed[i][j] == GlyphHit {
				n++
			}
		}
	}
	return n
}

// RenderRevealed renders what players are allowed to see.
func (b *Board) RenderRevealed() string { return b.render(b.revealed) }

// RenderOriginal renders the ground truth. Server-side diagnostics only.
func (b *Board) RenderOriginal() string { return b.render(b.original) }

// render writes a header of 1-based column numbers, then one line per row
// prefixed with its letter, cells separated by spaces.
func (b *Board) render(grid [][]byte) string {
	var sb strings.Builder

	sb.WriteString(" ")
	for j := 0; j < b.cols; j++ {
		sb.WriteByte(' ')
		sb.WriteString(strconv.Itoa(j + 1))
	}
	sb.WriteByte('\n')

	for i, row := range grid {
		sb.WriteByte(byte('a' + i%26))
		for _, c := range row {
			sb.WriteByte(' ')
			sb.WriteByte(c)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
