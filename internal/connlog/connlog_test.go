package connlog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var at = time.Date(2024, time.March, 5, 14, 7, 9, 0, time.UTC)

func TestEventLine(t *testing.T) {
	e := Event{Time: at, Name: "alice", Kind: Connect}
	require.Equal(t, "Tue Mar  5 14:07:09 UTC 2024: alice - CONNECT", e.Line())
}

func TestFileAppendsAndReadsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs.txt")
	l := OpenFile(path)
	ctx := context.Background()

	lines, err := l.Recent(ctx, 0)
	require.NoError(t, err)
	require.Empty(t, lines)

	require.NoError(t, l.Record(ctx, Event{Time: at, Name: "alice", Kind: Connect}))
	require.NoError(t, l.Record(ctx, Event{Time: at, Name: "bob", Kind: Connect}))
	require.NoError(t, l.Record(ctx, Event{Time: at, Name: "alice", Kind: Disconnect}))

	all, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Contains(t, all[0], "alice - CONNECT")
	require.Contains(t, all[2], "alice - DISCONNECT")

	last, err := l.Recent(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, all[1:], last)
	require.NoError(t, l.Close())
}

func TestSQLRecordAndRecent(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "data", "conn.db")
	l, err := OpenSQL(dsn, zerolog.Nop())
	require.NoError(t, err)
	defer l.Close()
	ctx := context.Background()

	for i, name := range []string{"alice", "bob", "alice"} {
		require.NoError(t, l.Record(ctx, Event{
			Time:    at.Add(time.Duration(i) * time.Second),
			Name:    name,
			Kind:    Connect,
			Remote:  "127.0.0.1:5000",
			Session: "s",
		}))
	}

	n, err := l.Logins(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, 2, n)

	lines, err := l.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	require.Contains(t, lines[0], "bob - CONNECT")
	require.Contains(t, lines[1], "alice - CONNECT")

	all, err := l.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
}

func TestSQLMigrationsAreIdempotent(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "conn.db")
	l, err := OpenSQL(dsn, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, l.Record(context.Background(), Event{Time: at, Name: "alice", Kind: Connect}))
	require.NoError(t, l.Close())

	l, err = OpenSQL(dsn, zerolog.Nop())
	require.NoError(t, err)
	defer l.Close()
	n, err := l.Logins(context.Background(), "alice")
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestNop(t *testing.T) {
	var l Logger = Nop{}
	require.NoError(t, l.Record(context.Background(), Event{}))
	lines, err := l.Recent(context.Background(), 5)
	require.NoError(t, err)
	require.Nil(t, lines)
}
