// internal/leaderboard/store.go
//
// Persistent leaderboard keyed by player name.
// Responsibilities:
//   - Load the flat file on startup. A missing or unreadable file gives an
//     empty board; malformed and overlong lines are skipped.
//   - Record logins and apply round results under one lock.
//   - Rewrite the whole file after every mutation.
//
// File format: one record per line, "name,points,logins". Names are not
// escaped; callers must reject names containing ',' or a newline.
//
// Concurrency: Store.mu guards the records and the file. Memory is
// authoritative; a failed Save is logged and the next mutation retries.

package leaderboard

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Player is one leaderboard record.
type Player struct {
	Name   string `json:"name"`
	Points int    `json:"points"`
	Logins int    `json:"logins"`
}

// Store is safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	path    string
	players map[string]*Player
	order   []string // insertion order of names
	log     zerolog.Logger
}

// maxLineLen bounds one leaderboard line. Longer lines are skipped.
const maxLineLen = 4096

// Open returns a Store backed by path and loads any existing records.
// A missing or unreadable file is logged and yields an empty store.
func Open(path string, log zerolog.Logger) *Store {
	s := &Store{
		path:    path,
		players: make(map[string]*Player),
		log:     log.With().Str("component", "leaderboard").Logger(),
	}
	if err := s.Load(); err != nil {
		s.log.Error().Err(err).Str("path", s.path).Msg("leaderboard not loaded, starting empty")
	}
	return s
}

// Load replaces the in-memory records with the file contents. On error the
// records are left unchanged.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if os.IsNotExist(err) {
		s.log.Info().Str("path", s.path).Msg("no leaderboard file, starting empty")
		s.players = make(map[string]*Player)
		s.order = nil
		return nil
	}
	if err != nil {
		return fmt.Errorf("open leaderboard: %w", err)
	}
	defer f.Close()

	players := make(map[string]*Player)
	var order []string

	r := bufio.NewReader(f)
	for lineNo := 1; ; lineNo++ {
		line, tooLong, err := nextLine(r)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("read leaderboard: %w", err)
		}
		if tooLong {
			s.log.Warn().Int("line", lineNo).Msg("skipping overlong leaderboard line")
			continue
		}
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		p, err := parseLine(line)
		if err != nil {
			s.log.Warn().Err(err).Int("line", lineNo).Msg("skipping malformed leaderboard line")
			continue
		}
		if existing, ok := players[p.Name]; ok {
			*existing = p
			continue
		}
		players[p.Name] = &p
		order = append(order, p.Name)
	}

	s.players = players
	s.order = order
	s.log.Info().Str("path", s.path).Int("players", len(order)).Msg("leaderboard loaded")
	return nil
}

// nextLine reads one line without its terminator. A line longer than
// maxLineLen is consumed and reported as tooLong. io.EOF means no line was read.
func nextLine(r *bufio.Reader) (line string, tooLong bool, err error) {
	var buf []byte
	for {
		frag, more, err := r.ReadLine()
		if err != nil {
			return "", false, err
		}
		if !tooLong {
			if len(buf)+len(frag) > maxLineLen {
				tooLong, buf = true, nil
			} else {
				buf = append(buf, frag...)
			}
		}
		if !more {
			return string(buf), tooLong, nil
		}
	}
}

func parseLine(line string) (Player, error) {
	fields := strings.Split(line, ",")
	if len(fields) != 3 {
		return Player{}, fmt.Errorf("want 3 fields, got %d", len(fields))
	}
	points, err := strconv.Atoi(strings.TrimSpace(fields[1]))
	if err != nil {
		return Player{}, fmt.Errorf("points: %w", err)
	}
	logins, err := strconv.Atoi(strings.TrimSpace(fields[2]))
	if err != nil {
		return Player{}, fmt.Errorf("logins: %w", err)
	}
	return Player{Name: fields[0], Points: points, Logins: logins}, nil
}

// lookup returns the record for name, creating it if needed. Caller holds s.mu.
func (s *Store) lookup(name string) *Player {
	if p, ok := s.players[name]; ok {
		return p
	}
	p := &Player{Name: name}
	s.players[name] = p
	s.order = append(s.order, name)
	return p
}

// RecordLogin counts a login for name, creating the record on first sight.
func (s *Store) RecordLogin(name string) Player {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.lookup(name)
	p.Logins++
	s.persist()
	return *p
}

// Get returns a copy of the record for name.
func (s *Store) Get(name string) (Player, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[name]
	if !ok {
		return Player{}, false
	}
	return *p, true
}

// ApplyWinBonus adds deltas[name] to each named player in one critical
// section. Names without a delta gain nothing but still get a record.
func (s *Store) ApplyWinBonus(names []string, deltas map[string]int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, name := range names {
		p := s.lookup(name)
		p.Points += deltas[name]
	}
	s.persist()
}

// Snapshot returns a copy of every record in insertion order.
func (s *Store) Snapshot() []Player {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Player, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, *s.players[name])
	}
	return out
}

// Len reports the number of records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

// Save writes every record to the backing file.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save()
}

// persist saves and logs failures. Caller holds s.mu.
func (s *Store) persist() {
	if err := s.save(); err != nil {
		s.log.Error().Err(err).Str("path", s.path).Msg("save leaderboard")
	}
}

// save writes to a temp file in the same directory and renames it over the
// target. Caller holds s.mu.
func (s *Store) save() error {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	for _, name := range s.order {
		p := s.players[name]
		fmt.Fprintf(w, "%s,%d,%d\n", p.Name, p.Points, p.Logins)
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
