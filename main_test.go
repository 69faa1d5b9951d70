package main

import (
	"bytes"
	"context"
	"net"
	"path/filepath"
	"strconv"
	"strings"
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
	"github.com/robalobadob/battleship/internal/server"
	"github.com/robalobadob/battleship/internal/session"
)

func run(t *testing.T, args ...string) (int, string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code := execute(context.Background(), args, strings.NewReader(""), &out, &errOut)
	return code, errOut.String()
}

func isolateEnv(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("LEADERBOARD_FILE", filepath.Join(dir, "leaderboard.txt"))
	t.Setenv("CONNLOG_FILE", filepath.Join(dir, "logs.txt"))
	t.Setenv("LOG_LEVEL", "disabled")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("SCORING", "bonus")
	t.Setenv("BOARDS_DIR", "")
	t.Setenv("CONNLOG_DSN", "")
	t.Setenv("OPS_ADDR", "")
	t.Setenv("ADMIT_PER_MINUTE", "0")
}

func TestExitCodes(t *testing.T) {
	isolateEnv(t)

	cases := []struct {
		name string
		args []string
		code int
	}{
		{"no args", nil, exitUsage},
		{"one arg", []string{"8000"}, exitUsage},
		{"three args", []string{"8000", "0", "x"}, exitUsage},
		{"port not numeric", []string{"http", "0"}, exitNumeric},
		{"port too large", []string{"70000", "0"}, exitNumeric},
		{"delay not numeric", []string{"8000", "soon"}, exitNumeric},
		{"client arg count", []string{"client", "localhost"}, exitUsage},
		{"client port", []string{"client", "localhost", "port"}, exitNumeric},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			code, stderr := run(t, c.args...)
			require.Equal(t, c.code, code, stderr)
			require.Contains(t, stderr, "error:")
		})
	}
}

func TestConfigErrorExitCode(t *testing.T) {
	isolateEnv(t)
	t.Setenv("SCORING", "double")

	code, stderr := run(t, "0", "0")
	require.Equal(t, exitConfig, code)
	require.Contains(t, stderr, "SCORING")
}

func TestBindFailureExitCode(t *testing.T) {
	isolateEnv(t)
	ln, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer ln.Close()
	port := ln.Addr().(*net.TCPAddr).Port

	code, stderr := run(t, strconv.Itoa(port), "0")
	require.Equal(t, exitBind, code)
	require.Contains(t, stderr, "listen")
}

func TestConsolePlaysARound(t *testing.T) {
	store := leaderboard.Open(filepath.Join(t.TempDir(), "leaderboard.txt"), zerolog.Nop())
	env := &session.Env{
		Table:   game.NewTable(boards.New(assets.Board{Name: "t", Text: "x.\n..\n"}), store),
		Players: store,
		ConnLog: connlog.Nop{},
		Rows:    consoleRows,
		Cols:    consoleCols,
		Log:     zerolog.Nop(),
	}
	srv := server.New(env)
	require.NoError(t, srv.Listen("127.0.0.1:0"))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = srv.Serve(ctx) }()

	dialCtx, dialCancel := context.WithTimeout(ctx, 2*time.Second)
	defer dialCancel()
	c, err := client.Dial(dialCtx, srv.Addr().String())
	require.NoError(t, err)
	defer c.Close()

	input := strings.Join([]string{
		"alice",
		"9",   // invalid menu option
		"2",   // play
		"zz",  // invalid tile
		"h 1", // outside 7x7
		"b 2", // miss
		"a 1", // hit, wins
		"1",   // leaderboard
		"3",   // quit
	}, "\n") + "\n"
	var out bytes.Buffer
	require.NoError(t, runConsole(c, strings.NewReader(input), &out))

	got := out.String()
	require.Contains(t, got, "Hello alice and welcome to a simple game of battleship.")
	require.Contains(t, got, "Invalid option. Please enter 1, 2, or 3.")
	require.Contains(t, got, "Starting a new game.")
	require.Contains(t, got, "Invalid input. enter a row letter")
	require.Contains(t, got, "(a-g) and column as a number (1-7)")
	require.Contains(t, got, "You missed! Number of guesses: 1")
	require.Contains(t, got, "Congratulations, you won! Number of guesses: 2")
	require.Contains(t, got, "alice - points: 1, logins: 1")
	require.Contains(t, got, "Goodbye!")
}

func TestConsoleQuitsOnEOF(t *testing.T) {
	store := leaderboard.Open(filepath.Join(t.TempDir(), "leaderboard.txt"), zerolog.Nop())
	env := &session.Env{
		Table:   game.NewTable(boards.New(assets.Board{Name: "t", Text: "x\n"}), store),
		Players: store,
		ConnLog: connlog.Nop{},
		Rows:    consoleRows,
		Cols:    consoleCols,
		Log:     zerolog.Nop(),
	}
	srvConn, cliConn := net.Pipe()
	go func() { _ = session.New(srvConn, env).Run(context.Background()) }()
	c := client.New(cliConn)
	defer c.Close()

	var out bytes.Buffer
	require.NoError(t, runConsole(c, strings.NewReader("bob\n2\n"), &out))
	require.Contains(t, out.String(), "Goodbye!")
}
