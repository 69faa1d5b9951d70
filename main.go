package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/robalobadob/battleship/internal/admission"
	"github.com/robalobadob/battleship/internal/boards"
	"github.com/robalobadob/battleship/internal/config"
	"github.com/robalobadob/battleship/internal/connlog"
	"github.com/robalobadob/battleship/internal/game"
	"github.com/robalobadob/battleship/internal/httpserver"
	"github.com/robalobadob/battleship/internal/leaderboard"
	"github.com/robalobadob/battleship/internal/server"
	"github.com/robalobadob/battleship/internal/session"
)

// Process exit codes.
const (
	exitUsage   = 1 // wrong argument count, or any other failure
	exitNumeric = 2 // non-numeric argument
	exitConfig  = 3 // environment configuration or startup data
	exitBind    = 4 // cannot bind the game port
)

// exitError carries the process exit code for err.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

func exitf(code int, format string, args ...any) error {
	return &exitError{code: code, err: fmt.Errorf(format, args...)}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// execute runs the command line and maps its error to an exit code.
func execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if args == nil {
		args = []string{}
	}
	cmd := newRootCmd(stdin, stdout)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, "error:", err)
		var ee *exitError
		if errors.As(err, &ee) {
			return ee.code
		}
		return exitUsage
	}
	return 0
}

func newRootCmd(stdin io.Reader, stdout io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:   "battleship <port> <delay-ms>",
		Short: "Runs the multiplayer battleship server.",
		Long: "Runs the multiplayer battleship server on <port>, waiting at least <delay-ms>\n" +
			"milliseconds between accepted connections. Settings come from the environment\n" +
			"(and .env): LOG_LEVEL, LOG_FORMAT, LEADERBOARD_FILE, CONNLOG_FILE, CONNLOG_DSN,\n" +
			"BOARDS_DIR, GRID_ROWS, GRID_COLS, SCORING, SESSION_IDLE_TIMEOUT, OPS_ADDR,\n" +
			"ADMIT_PER_MINUTE, REDIS_ADDR, REDIS_PASSWORD, REDIS_DB.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          serverArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			port, _ := strconv.ParseUint(args[0], 10, 16)
			delay, _ := strconv.ParseUint(args[1], 10, 32)

			cfg, err := config.Load()
			if err != nil {
				return &exitError{code: exitConfig, err: err}
			}
			setupLogging(cfg, cmd.ErrOrStderr())
			return serve(cmd.Context(), cfg, uint16(port), time.Duration(delay)*time.Millisecond)
		},
	}
	root.AddCommand(newClientCmd(stdin, stdout))
	return root
}

// serverArgs checks the positional arguments: exactly two, both numeric.
func serverArgs(_ *cobra.Command, args []string) error {
	if len(args) != 2 {
		return exitf(exitUsage, "expected 2 arguments <port> <delay-ms>, got %d", len(args))
	}
	if _, err := strconv.ParseUint(args[0], 10, 16); err != nil {
		return exitf(exitNumeric, "port must be a number between 0 and 65535: %q", args[0])
	}
	if _, err := strconv.ParseUint(args[1], 10, 32); err != nil {
		return exitf(exitNumeric, "delay must be a non-negative number of milliseconds: %q", args[1])
	}
	return nil
}

// setupLogging configures the global zerolog logger.
func setupLogging(cfg config.Config, w io.Writer) {
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if cfg.LogFormat == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
}

// serve wires the shared game state and runs the game server (and the ops
// HTTP surface when configured) until ctx is cancelled.
func serve(ctx context.Context, cfg config.Config, port uint16, delay time.Duration) error {
	set, err := boards.Load(cfg.BoardsDir)
	if err != nil {
		return &exitError{code: exitConfig, err: err}
	}
	store := leaderboard.Open(cfg.LeaderboardFile, log.Logger)

	var cl connlog.Logger
	if cfg.ConnLogDSN != "" {
		sqlLog, err := connlog.OpenSQL(cfg.ConnLogDSN, log.Logger)
		if err != nil {
			return &exitError{code: exitConfig, err: err}
		}
		cl = sqlLog
	} else {
		cl = connlog.OpenFile(cfg.ConnLogFile)
	}
	defer cl.Close()

	table := game.NewTable(set, store,
		game.WithScoring(cfg.ScoringMode()),
		game.WithLogger(log.With().Str("component", "table").Logger()),
	)

	var admit admission.Admitter = admission.AllowAll{}
	if cfg.AdmitPerMinute > 0 {
		if rc := admission.DialRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, log.Logger); rc != nil {
			defer rc.Close()
			admit = admission.NewRedis(rc, cfg.AdmitPerMinute, time.Minute, log.Logger)
		} else {
			admit = admission.NewLocal(cfg.AdmitPerMinute)
		}
	}

	env := &session.Env{
		Table:       table,
		Players:     store,
		ConnLog:     cl,
		Rows:        cfg.GridRows,
		Cols:        cfg.GridCols,
		IdleTimeout: cfg.SessionIdleTimeout,
		Log:         log.With().Str("component", "session").Logger(),
	}
	srv := server.New(env,
		server.WithAcceptDelay(delay),
		server.WithAdmitter(admit),
		server.WithLogger(log.With().Str("component", "server").Logger()),
	)
	if err := srv.Listen(fmt.Sprintf(":%d", port)); err != nil {
		return &exitError{code: exitBind, err: err}
	}

	if cfg.OpsAddr != "" {
		ops := httpserver.New(table, store, cl, log.Logger)
		go func() {
			if err := ops.Run(ctx, cfg.OpsAddr); err != nil {
				log.Error().Err(err).Str("addr", cfg.OpsAddr).Msg("ops http server exited")
			}
		}()
	}

	log.Info().
		Uint16("port", port).
		Dur("delay", delay).
		Strs("boards", set.Names()).
		Str("scoring", cfg.ScoringMode().String()).
		Int("players", store.Len()).
		Msg("starting battleship server")
	return srv.Serve(ctx)
}
