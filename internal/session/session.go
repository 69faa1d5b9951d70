// internal/session/session.go
//
// Per-connection protocol state machine.
// Responsibilities:
//   - Read framed requests, answer each with exactly one framed response.
//   - Track the session state (unauthenticated, menu, in round).
//   - Delegate board work to the shared game.Table and login/score
//     bookkeeping to the leaderboard.
//   - Release the session's seat in the round on QUIT or disconnect.
//
// Protocol misuse is answered with an ERROR response and never ends the
// session. Only QUIT, a framing/decoding failure, or a network error does.

package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/robalobadob/battleship/internal/connlog"
	"github.com/robalobadob/battleship/internal/game"
	"github.com/robalobadob/battleship/internal/leaderboard"
	"github.com/robalobadob/battleship/internal/metrics"
	"github.com/robalobadob/battleship/internal/protocol"
)

// State is where a session is in the protocol.
type State int

const (
	StateUnauthenticated State = iota
	StateMenu
	StateInRound
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateMenu:
		return "menu"
	case StateInRound:
		return "in_round"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Players is the part of the leaderboard a session uses.
type Players interface {
	RecordLogin(name string) leaderboard.Player
	Snapshot() []leaderboard.Player
}

// Env is shared by every session of one server.
type Env struct {
	Table   *game.Table
	Players Players
	ConnLog connlog.Logger

	// Rows and Cols bound ROWCOL requests before they reach the board.
	Rows int
	Cols int

	// IdleTimeout closes a session that sends nothing for this long.
	// Zero waits forever.
	IdleTimeout time.Duration

	Log zerolog.Logger
}

// Session serves one connection. It is not safe for concurrent use.
type Session struct {
	id     string
	conn   net.Conn
	r      *bufio.Reader
	env    *Env
	log    zerolog.Logger
	remote string

	state State
	name  string
}

// New binds a session to conn.
func New(conn net.Conn, env *Env) *Session {
	id := uuid.NewString()
	remote := ""
	if addr := conn.RemoteAddr(); addr != nil {
		remote = addr.String()
	}
	return &Session{
		id:     id,
		conn:   conn,
		r:      bufio.NewReader(conn),
		env:    env,
		remote: remote,
		log:    env.Log.With().Str("session", id).Str("remote", remote).Logger(),
	}
}

// ID is the session's unique identifier.
func (s *Session) ID() string { return s.id }

// State reports the current protocol state.
func (s *Session) State() State { return s.state }

// Run serves requests until QUIT, disconnect or a framing error, then closes
// the connection. A clean QUIT or EOF returns nil.
func (s *Session) Run(ctx context.Context) error {
	metrics.SessionsTotal.Inc()
	metrics.SessionsActive.Inc()
	defer metrics.SessionsActive.Dec()
	defer s.conn.Close()

	s.log.Debug().Msg("session started")
	for s.state != StateTerminated {
		if s.env.IdleTimeout > 0 {
			_ = s.conn.SetReadDeadline(time.Now().Add(s.env.IdleTimeout))
		}
		req, err := protocol.ReadRequest(s.r)
		if err != nil {
			s.leave(ctx, "disconnect")
			if errors.Is(err, io.EOF) {
				return nil
			}
			s.log.Warn().Err(err).Msg("read request")
			return err
		}

		res := s.handle(ctx, req)
		metrics.Requests.WithLabelValues(opLabel(req.Op), res.Type.String()).Inc()
		s.log.Debug().
			Stringer("op", req.Op).
			Stringer("response", res.Type).
			Stringer("state", s.state).
			Msg("request handled")

		if err := protocol.WriteResponse(s.conn, res); err != nil {
			s.leave(ctx, "write failed")
			s.log.Warn().Err(err).Msg("write response")
			return fmt.Errorf("write response: %w", err)
		}
	}
	return nil
}

func (s *Session) handle(ctx context.Context, req *protocol.Request) *protocol.Response {
	switch req.Op {
	case protocol.OpQuit:
		return s.quit(ctx)
	case protocol.OpName:
		return s.hello(ctx, req.Name)
	}
	if s.state == StateUnauthenticated {
		return s.errorf(msgNameFirst)
	}

	switch req.Op {
	case protocol.OpLeaderboard:
		return s.leaderboard()
	case protocol.OpStart:
		return s.start()
	case protocol.OpRowCol:
		return s.guess(req.Row, req.Column)
	default:
		return s.errorf(msgUnknownRequest)
	}
}

func (s *Session) hello(ctx context.Context, raw string) *protocol.Response {
	if s.state != StateUnauthenticated {
		return s.errorf(msgNameTwice)
	}
	name := strings.TrimSpace(raw)
	if name == "" {
		return s.errorf(msgNameEmpty)
	}
	if strings.ContainsAny(name, ",\r\n") {
		return s.errorf(msgNameChars)
	}

	s.name = name
	s.state = StateMenu
	s.log = s.log.With().Str("player", name).Logger()

	p := s.env.Players.RecordLogin(name)
	s.record(ctx, connlog.Connect)
	s.log.Info().Int("logins", p.Logins).Int("points", p.Points).Msg("player connected")

	return &protocol.Response{
		Type:        protocol.TypeGreeting,
		Message:     fmt.Sprintf(msgGreeting, name),
		MenuOptions: menuOptions,
		Next:        protocol.NextMenu,
	}
}

// leaderboard answers from Menu or InRound. From a round it returns the
// session to the menu; START resumes the same round.
func (s *Session) leaderboard() *protocol.Response {
	snap := s.env.Players.Snapshot()
	entries := make([]protocol.Entry, 0, len(snap))
	for _, p := range snap {
		entries = append(entries, protocol.Entry{
			Name:   p.Name,
			Points: int32(p.Points),
			Logins: int32(p.Logins),
		})
	}
	s.state = StateMenu
	return &protocol.Response{
		Type:        protocol.TypeLeaderboard,
		Leader:      entries,
		MenuOptions: menuOptions,
		Next:        protocol.NextMenu,
	}
}

func (s *Session) start() *protocol.Response {
	jr := s.env.Table.Join(s.id, s.name)
	s.state = StateInRound

	msg := msgResuming
	if jr.NewRound {
		msg = msgStarting
	}
	s.log.Info().Int("round", jr.Round).Bool("new", jr.NewRound).Msg("joined round")
	return &protocol.Response{
		Type:    protocol.TypeStart,
		Board:   jr.Board,
		Message: msg,
		Next:    protocol.NextTile,
	}
}

func (s *Session) guess(row, col int32) *protocol.Response {
	if s.state != StateInRound {
		return s.errorf(msgStartFirst)
	}
	if row < 0 || int(row) >= s.env.Rows || col < 0 || int(col) >= s.env.Cols {
		return s.errorf(msgOutOfBounds)
	}

	res, err := s.env.Table.Guess(s.id, int(row), int(col))
	switch {
	case errors.Is(err, game.ErrOutOfBounds):
		return s.errorf(msgOutOfBounds)
	case errors.Is(err, game.ErrNotParticipant),
		errors.Is(err, game.ErrNoRound),
		errors.Is(err, game.ErrRoundOver):
		s.state = StateMenu
		return s.errorf(msgRoundOver)
	case err != nil:
		s.log.Error().Err(err).Msg("guess")
		return s.errorf(msgInternal)
	}

	metrics.Guesses.WithLabelValues(res.Outcome.String()).Inc()

	eval, text := protocol.EvalMiss, msgMiss
	switch res.Outcome {
	case game.OutcomeHit:
		eval, text = protocol.EvalHit, msgHit
	case game.OutcomeAlreadyMarked:
		eval, text = protocol.EvalOld, msgOld
	}

	out := &protocol.Response{
		Type:  protocol.TypePlay,
		Board: res.Board,
		Next:  protocol.NextTile,
	}
	switch {
	case res.Won:
		eval, text = protocol.EvalWon, msgWon
		metrics.Rounds.WithLabelValues("won").Inc()
		s.log.Info().Int("round", res.Round).Int("guesses", res.Guesses).Msg("winning guess")
	case res.Lost:
		eval, text = protocol.EvalLost, msgLost
		metrics.Rounds.WithLabelValues("lost").Inc()
	}
	if res.Done() {
		out.Type = protocol.TypeDone
		out.Next = protocol.NextMenu
		s.state = StateMenu
	}
	out.Eval = eval
	out.Message = fmt.Sprintf("%s Number of guesses: %d", text, res.Guesses)
	return out
}

func (s *Session) quit(ctx context.Context) *protocol.Response {
	s.leave(ctx, "quit")
	return &protocol.Response{Type: protocol.TypeBye, Message: msgBye}
}

// leave drops the session from the round, discarding its running score,
// and ends the session.
func (s *Session) leave(ctx context.Context, reason string) {
	if s.state == StateTerminated {
		return
	}
	wasPlaying := s.env.Table.Leave(s.id)
	if s.name != "" {
		s.record(ctx, connlog.Disconnect)
	}
	s.state = StateTerminated
	s.log.Info().Str("reason", reason).Bool("left_round", wasPlaying).Msg("session ended")
}

func (s *Session) record(ctx context.Context, kind connlog.Kind) {
	if s.env.ConnLog == nil {
		return
	}
	err := s.env.ConnLog.Record(ctx, connlog.Event{
		Time:    time.Now(),
		Name:    s.name,
		Kind:    kind,
		Remote:  s.remote,
		Session: s.id,
	})
	if err != nil {
		s.log.Warn().Err(err).Str("kind", string(kind)).Msg("connection log")
	}
}

// errorf builds an ERROR response whose next-step hint matches the state.
func (s *Session) errorf(format string, args ...any) *protocol.Response {
	next := protocol.NextMenu
	if s.state == StateInRound {
		next = protocol.NextTile
	}
	return &protocol.Response{
		Type:    protocol.TypeError,
		Message: fmt.Sprintf(format, args...),
		Next:    next,
	}
}

func opLabel(op protocol.OperationType) string {
	if op < protocol.OpName || op > protocol.OpQuit {
		return "UNKNOWN"
	}
	return op.String()
}
