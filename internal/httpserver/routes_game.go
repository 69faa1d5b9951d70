// internal/httpserver/routes_game.go
//
// Read-only views of the running game:
//   - GET /leaderboard      → every player, sorted by points then name
//   - GET /round            → status of the shared round (revealed board only)
//   - GET /connections?n=20 → latest connection log lines

package httpserver

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/robalobadob/battleship/internal/leaderboard"
)

const defaultConnections = 20

// mountGame registers the game views.
func (s *Server) mountGame(r chi.Router) {
	r.Get("/leaderboard", s.handleLeaderboard)
	r.Get("/round", s.handleRound)
	r.Get("/connections", s.handleConnections)
}

type leaderboardRes struct {
	Players []leaderboard.Player `json:"players"`
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	players := s.players.Snapshot()
	sort.SliceStable(players, func(i, j int) bool {
		if players[i].Points != players[j].Points {
			return players[i].Points > players[j].Points
		}
		return players[i].Name < players[j].Name
	})
	if players == nil {
		players = []leaderboard.Player{}
	}
	_ = json.NewEncoder(w).Encode(leaderboardRes{Players: players})
}

func (s *Server) handleRound(w http.ResponseWriter, r *http.Request) {
	_ = json.NewEncoder(w).Encode(s.table.Status())
}

type connectionsRes struct {
	Lines []string `json:"lines"`
}

func (s *Server) handleConnections(w http.ResponseWriter, r *http.Request) {
	n := defaultConnections
	if q := r.URL.Query().Get("n"); q != "" {
		v, err := strconv.Atoi(q)
		if err != nil || v < 1 {
			http.Error(w, `{"error":"bad_n"}`, http.StatusBadRequest)
			return
		}
		n = v
	}
	lines, err := s.connlog.Recent(r.Context(), n)
	if err != nil {
		s.log.Error().Err(err).Msg("read connection log")
		http.Error(w, `{"error":"connlog_unavailable"}`, http.StatusInternalServerError)
		return
	}
	if lines == nil {
		lines = []string{}
	}
	_ = json.NewEncoder(w).Encode(connectionsRes{Lines: lines})
}
