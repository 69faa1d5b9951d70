package session

import (
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/battleship/assets"
	"github.com/robalobadob/battleship/internal/boards"
	"github.com/robalobadob/battleship/internal/client"
	"github.com/robalobadob/battleship/internal/connlog"
	"github.com/robalobadob/battleship/internal/game"
	"github.com/robalobadob/battleship/internal/leaderboard"
	"github.com/robalobadob/battleship/internal/protocol"
)

// threeTargets has targets at a1, a2 and c3.
const threeTargets = "xx.\n...\n..x\n"

type harness struct {
	env     *Env
	store   *leaderboard.Store
	logPath string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	store := leaderboard.Open(filepath.Join(dir, "leaderboard.txt"), zerolog.Nop())

	logPath := filepath.Join(dir, "logs.txt")
	src := boards.New(assets.Board{Name: "three", Text: threeTargets})
	return &harness{
		env: &Env{
			Table:   game.NewTable(src, store),
			Players: store,
			ConnLog: connlog.OpenFile(logPath),
			Rows:    7,
			Cols:    7,
			Log:     zerolog.Nop(),
		},
		store:   store,
		logPath: logPath,
	}
}

// connect starts a session on one end of a pipe and returns a client on
// the other plus a channel that yields Run's result.
func (h *harness) connect(t *testing.T) (*client.Client, *Session, <-chan error) {
	t.Helper()
	srv, cli := net.Pipe()
	s := New(srv, h.env)
	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background()) }()
	c := client.New(cli)
	t.Cleanup(func() { _ = c.Close() })
	return c, s, done
}

func wait(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("session did not end")
		return nil
	}
}

func TestAliceWinsScenario(t *testing.T) {
	h := newHarness(t)
	c, _, done := h.connect(t)

	res, err := c.Name("alice")
	require.NoError(t, err)
	require.Equal(t, protocol.TypeGreeting, res.Type)
	require.Equal(t, "Hello alice and welcome to a simple game of battleship.", res.Message)
	require.Equal(t, menuOptions, res.MenuOptions)
	require.Equal(t, protocol.NextMenu, res.Next)

	p, ok := h.store.Get("alice")
	require.True(t, ok)
	require.Equal(t, leaderboard.Player{Name: "alice", Points: 0, Logins: 1}, p)

	res, err = c.Start()
	require.NoError(t, err)
	require.Equal(t, protocol.TypeStart, res.Type)
	require.Equal(t, "Starting a new game.", res.Message)
	require.Equal(t, protocol.NextTile, res.Next)
	require.Equal(t, "  1 2 3\na X X X\nb X X X\nc X X X\n", res.Board)

	res, err = c.Guess(0, 0)
	require.NoError(t, err)
	require.Equal(t, protocol.TypePlay, res.Type)
	require.Equal(t, protocol.EvalHit, res.Eval)
	require.Equal(t, "That's a hit! Number of guesses: 1", res.Message)

	res, err = c.Guess(0, 1)
	require.NoError(t, err)
	require.Equal(t, protocol.EvalHit, res.Eval)

	res, err = c.Guess(2, 2)
	require.NoError(t, err)
	require.Equal(t, protocol.TypeDone, res.Type)
	require.Equal(t, protocol.EvalWon, res.Eval)
	require.Equal(t, protocol.NextMenu, res.Next)
	require.Equal(t, "Congratulations, you won! Number of guesses: 3", res.Message)
	require.Equal(t, "  1 2 3\na O O X\nb X X X\nc X X O\n", res.Board)

	p, _ = h.store.Get("alice")
	require.Equal(t, 1, p.Points)

	res, err = c.Quit()
	require.NoError(t, err)
	require.Equal(t, protocol.TypeBye, res.Type)
	require.Equal(t, "Goodbye!", res.Message)
	require.NoError(t, wait(t, done))

	lines, err := connlog.ReadFile(h.logPath)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	require.Contains(t, lines[0], "alice - CONNECT")
	require.Contains(t, lines[1], "alice - DISCONNECT")
}

func TestRequestsBeforeName(t *testing.T) {
	h := newHarness(t)
	c, s, _ := h.connect(t)

	for _, op := range []protocol.OperationType{protocol.OpStart, protocol.OpLeaderboard, protocol.OpRowCol} {
		res, err := c.Do(&protocol.Request{Op: op})
		require.NoError(t, err)
		require.Equal(t, protocol.TypeError, res.Type, op)
		require.Equal(t, protocol.NextMenu, res.Next)
	}
	require.Equal(t, 0, h.store.Len())
	require.Equal(t, StateUnauthenticated, s.State())
}

func TestNameValidation(t *testing.T) {
	h := newHarness(t)
	c, _, _ := h.connect(t)

	for _, bad := range []string{"", "   ", "a,b", "line\nbreak"} {
		res, err := c.Name(bad)
		require.NoError(t, err)
		require.Equal(t, protocol.TypeError, res.Type, bad)
	}

	res, err := c.Name("  bob  ")
	require.NoError(t, err)
	require.Equal(t, protocol.TypeGreeting, res.Type)
	_, ok := h.store.Get("bob")
	require.True(t, ok, "names are trimmed")

	res, err = c.Name("carol")
	require.NoError(t, err)
	require.Equal(t, protocol.TypeError, res.Type, "a session has one name")
	require.Equal(t, 1, h.store.Len())
}

func TestUnknownOperation(t *testing.T) {
	h := newHarness(t)
	c, s, _ := h.connect(t)
	_, err := c.Name("alice")
	require.NoError(t, err)

	res, err := c.Do(&protocol.Request{Op: protocol.OperationType(42)})
	require.NoError(t, err)
	require.Equal(t, protocol.TypeError, res.Type)
	require.Equal(t, "Unknown request type", res.Message)
	require.Equal(t, protocol.NextMenu, res.Next)
	require.Equal(t, StateMenu, s.State())

	_, err = c.Start()
	require.NoError(t, err)
	res, err = c.Do(&protocol.Request{Op: protocol.OpUnspecified})
	require.NoError(t, err)
	require.Equal(t, protocol.TypeError, res.Type)
	require.Equal(t, protocol.NextTile, res.Next, "hint follows the state")
}

func TestOutOfBoundsDoesNotConsumeGuess(t *testing.T) {
	h := newHarness(t)
	c, _, _ := h.connect(t)
	_, err := c.Name("alice")
	require.NoError(t, err)

	res, err := c.Guess(0, 0)
	require.NoError(t, err)
	require.Equal(t, protocol.TypeError, res.Type, "no START yet")

	_, err = c.Start()
	require.NoError(t, err)

	// Outside the declared 7x7 grid.
	res, err = c.Guess(7, 0)
	require.NoError(t, err)
	require.Equal(t, protocol.TypeError, res.Type)
	require.Equal(t, "Row or column out of bounds.", res.Message)
	require.Equal(t, protocol.NextTile, res.Next)

	// Inside 7x7 but outside the 3x3 board.
	res, err = c.Guess(5, 5)
	require.NoError(t, err)
	require.Equal(t, protocol.TypeError, res.Type)
	require.Equal(t, 0, h.env.Table.Status().Guesses)

	res, err = c.Guess(2, 2)
	require.NoError(t, err)
	require.Equal(t, protocol.TypePlay, res.Type)
	require.Equal(t, "That's a hit! Number of guesses: 1", res.Message)
}

func TestAlreadyMarked(t *testing.T) {
	h := newHarness(t)
	c, _, _ := h.connect(t)
	_, err := c.Name("alice")
	require.NoError(t, err)
	_, err = c.Start()
	require.NoError(t, err)

	first, err := c.Guess(1, 1)
	require.NoError(t, err)
	require.Equal(t, protocol.EvalMiss, first.Eval)
	require.Equal(t, "You missed! Number of guesses: 1", first.Message)

	again, err := c.Guess(1, 1)
	require.NoError(t, err)
	require.Equal(t, protocol.TypePlay, again.Type)
	require.Equal(t, protocol.EvalOld, again.Eval)
	require.Equal(t, "You already guessed this spot! Number of guesses: 2", again.Message)
	require.Equal(t, first.Board, again.Board)
}

func TestLeaderboardEntries(t *testing.T) {
	h := newHarness(t)
	h.store.RecordLogin("zoe")
	h.store.ApplyWinBonus([]string{"zoe"}, map[string]int{"zoe": 4})

	c, s, _ := h.connect(t)
	_, err := c.Name("alice")
	require.NoError(t, err)
	_, err = c.Start()
	require.NoError(t, err)

	res, err := c.Leaderboard()
	require.NoError(t, err)
	require.Equal(t, protocol.TypeLeaderboard, res.Type)
	require.Equal(t, protocol.NextMenu, res.Next)
	require.Equal(t, menuOptions, res.MenuOptions)
	require.Equal(t, []protocol.Entry{
		{Name: "zoe", Points: 4, Logins: 1},
		{Name: "alice", Points: 0, Logins: 1},
	}, res.Leader)
	require.Equal(t, StateMenu, s.State())

	res, err = c.Start()
	require.NoError(t, err)
	require.Equal(t, "Resuming the current game.", res.Message)
}

func TestSecondPlayerResumesAndLoserIsReturnedToMenu(t *testing.T) {
	h := newHarness(t)
	alice, _, _ := h.connect(t)
	bob, bobSession, _ := h.connect(t)

	_, err := alice.Name("alice")
	require.NoError(t, err)
	_, err = bob.Name("bob")
	require.NoError(t, err)

	_, err = alice.Start()
	require.NoError(t, err)
	_, err = alice.Guess(0, 0)
	require.NoError(t, err)

	res, err := bob.Start()
	require.NoError(t, err)
	require.Equal(t, "Resuming the current game.", res.Message)
	require.Equal(t, "  1 2 3\na O X X\nb X X X\nc X X X\n", res.Board)

	_, err = bob.Guess(0, 1)
	require.NoError(t, err)
	res, err = alice.Guess(2, 2)
	require.NoError(t, err)
	require.Equal(t, protocol.EvalWon, res.Eval)

	for _, name := range []string{"alice", "bob"} {
		p, _ := h.store.Get(name)
		require.Equal(t, 1, p.Points, name)
	}

	res, err = bob.Guess(1, 1)
	require.NoError(t, err)
	require.Equal(t, protocol.TypeError, res.Type)
	require.Equal(t, protocol.NextMenu, res.Next)
	require.Equal(t, StateMenu, bobSession.State())
}

func TestDisconnectLeavesRound(t *testing.T) {
	h := newHarness(t)
	c, _, done := h.connect(t)
	_, err := c.Name("alice")
	require.NoError(t, err)
	_, err = c.Start()
	require.NoError(t, err)
	require.Equal(t, 1, h.env.Table.Status().Participants)

	require.NoError(t, c.Close())
	require.NoError(t, wait(t, done))
	require.Equal(t, 0, h.env.Table.Status().Participants)

	lines, err := connlog.ReadFile(h.logPath)
	require.NoError(t, err)
	require.Contains(t, lines[len(lines)-1], "alice - DISCONNECT")
}

func TestMalformedFrameEndsSession(t *testing.T) {
	h := newHarness(t)
	srv, cli := net.Pipe()
	s := New(srv, h.env)
	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background()) }()
	defer cli.Close()

	// Length 3, then a tag promising a 5 byte string with only 1 byte.
	_, err := cli.Write([]byte{0x03, 0x12, 0x05, 'a'})
	require.NoError(t, err)
	require.ErrorIs(t, wait(t, done), protocol.ErrMalformed)
	require.Equal(t, StateTerminated, s.State())
}

func TestIdleTimeout(t *testing.T) {
	h := newHarness(t)
	h.env.IdleTimeout = 50 * time.Millisecond
	_, _, done := h.connect(t)

	err := wait(t, done)
	var ne net.Error
	require.ErrorAs(t, err, &ne)
	require.True(t, ne.Timeout())
}
