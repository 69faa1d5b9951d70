// internal/boards/boards.go
//
// Source documents for the shared board.
//
// Responsibilities:
//   - Load board sources from a directory of *.txt files, or fall back to
//     the defaults embedded in the assets package.
//   - Pick one source at random when a new round starts.
//
// Board text is kept verbatim (no trimming): leading blanks are cells.
// Only trailing carriage returns are removed so CRLF files parse the same.

package boards

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/robalobadob/battleship/assets"
)

// ErrEmpty is returned when no board sources could be found.
var ErrEmpty = errors.New("boards: no board sources")

// Set is an immutable collection of board sources.
type Set struct {
	boards []assets.Board
}

// New builds a Set from explicit boards (useful for tests).
func New(boards ...assets.Board) *Set {
	return &Set{boards: append([]assets.Board(nil), boards...)}
}

// Load reads every *.txt file in dir. An empty dir selects the embedded
// defaults.
func Load(dir string) (*Set, error) {
	if dir == "" {
		list, err := assets.Boards()
		if err != nil {
			return nil, fmt.Errorf("read embedded boards: %w", err)
		}
		if len(list) == 0 {
			return nil, ErrEmpty
		}
		return &Set{boards: normalize(list)}, nil
	}

	paths, err := filepath.Glob(filepath.Join(dir, "*.txt"))
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", dir, err)
	}
	sort.Strings(paths)

	var list []assets.Board
	for _, p := range paths {
		b, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		list = append(list, assets.Board{Name: filepath.Base(p), Text: string(b)})
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrEmpty, dir)
	}
	return &Set{boards: normalize(list)}, nil
}

// normalize strips carriage returns left by CRLF line endings.
func normalize(list []assets.Board) []assets.Board {
	out := make([]assets.Board, len(list))
	for i, b := range list {
		out[i] = assets.Board{Name: b.Name, Text: strings.ReplaceAll(b.Text, "\r", "")}
	}
	return out
}

// Pick returns a cryptographically random board source.
func (s *Set) Pick() (name, text string) {
	if len(s.boards) == 0 {
		return "", ""
	}
	n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(s.boards))))
	b := s.boards[n.Int64()]
	return b.Name, b.Text
}

// Names lists the loaded sources.
func (s *Set) Names() []string {
	out := make([]string, len(s.boards))
	for i, b := range s.boards {
		out[i] = b.Name
	}
	return out
}

// Len reports how many sources are loaded.
func (s *Set) Len() int { return len(s.boards) }
