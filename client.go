// client.go
//
// Console client: `battleship client <host> <port>`.
// Asks for a name, then loops over the menu (leaderboard, play, quit).
// While playing, reads tiles like "a 1" until the round ends or the player
// types "exit".

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/robalobadob/battleship/internal/client"
	"github.com/robalobadob/battleship/internal/protocol"
)

// Declared grid bounds checked before a tile is sent.
const (
	consoleRows = 7
	consoleCols = 7
)

const menuPrompt = "* \nWhat would you like to do? \n 1 - to see the leader board \n 2 - to enter a game \n 3 - quit the game"

func newClientCmd(stdin io.Reader, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "client <host> <port>",
		Short: "Plays on a battleship server from the terminal.",
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) != 2 {
				return exitf(exitUsage, "expected 2 arguments <host> <port>, got %d", len(args))
			}
			if _, err := strconv.ParseUint(args[1], 10, 16); err != nil {
				return exitf(exitNumeric, "port must be a number between 0 and 65535: %q", args[1])
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			c, err := client.Dial(ctx, net.JoinHostPort(args[0], args[1]))
			cancel()
			if err != nil {
				return err
			}
			defer c.Close()
			return runConsole(c, stdin, stdout)
		},
	}
}

// console drives one client from line-oriented input.
type console struct {
	c   *client.Client
	in  *bufio.Scanner
	out io.Writer
}

// errInputClosed ends the console when stdin runs out.
var errInputClosed = errors.New("input closed")

func runConsole(c *client.Client, in io.Reader, out io.Writer) error {
	con := &console{c: c, in: bufio.NewScanner(in), out: out}
	err := con.run()
	if errors.Is(err, errInputClosed) {
		// Leave politely so the server logs a QUIT rather than a dropped connection.
		if res, qerr := c.Quit(); qerr == nil {
			con.println(res.Message)
		}
		return nil
	}
	return err
}

func (con *console) println(a ...any) { fmt.Fprintln(con.out, a...) }

func (con *console) readLine() (string, error) {
	if !con.in.Scan() {
		if err := con.in.Err(); err != nil {
			return "", err
		}
		return "", errInputClosed
	}
	return strings.TrimSpace(con.in.Text()), nil
}

func (con *console) run() error {
	for {
		con.println("What is your name?")
		name, err := con.readLine()
		if err != nil {
			return err
		}
		res, err := con.c.Name(name)
		if err != nil {
			return err
		}
		con.println(res.Message)
		if res.Type != protocol.TypeError {
			con.println(res.MenuOptions)
			break
		}
	}

	for {
		con.println(menuPrompt)
		choice, err := con.readLine()
		if err != nil {
			return err
		}
		switch choice {
		case "1":
			if err := con.leaderboard(); err != nil {
				return err
			}
		case "2":
			done, err := con.play()
			if err != nil || done {
				return err
			}
		case "3":
			res, err := con.c.Quit()
			if err != nil {
				return err
			}
			con.println(res.Message)
			return nil
		default:
			con.println("Invalid option. Please enter 1, 2, or 3.")
		}
	}
}

func (con *console) leaderboard() error {
	res, err := con.c.Leaderboard()
	if err != nil {
		return err
	}
	if res.Type == protocol.TypeError {
		con.println(res.Message)
		return nil
	}
	con.println("Leaderboard:")
	if len(res.Leader) == 0 {
		con.println("  (no players yet)")
	}
	for _, e := range res.Leader {
		fmt.Fprintf(con.out, "  %s - points: %d, logins: %d\n", e.Name, e.Points, e.Logins)
	}
	return nil
}

// play runs one round. done reports that the player quit the program.
func (con *console) play() (done bool, err error) {
	res, err := con.c.Start()
	if err != nil {
		return false, err
	}
	con.println(res.Message)
	con.println(res.Board)

	for res.Next == protocol.NextTile {
		con.println("Enter row and column separated by a space (e.g., 'a 1'), or type 'exit' to quit:")
		line, err := con.readLine()
		if err != nil {
			return false, err
		}
		if strings.EqualFold(line, "exit") {
			bye, err := con.c.Quit()
			if err != nil {
				return false, err
			}
			con.println(bye.Message)
			return true, nil
		}

		row, col, perr := protocol.ParseTile(line)
		if perr != nil {
			con.println("Invalid input. " + perr.Error())
			continue
		}
		if row >= consoleRows || col >= consoleCols {
			con.println(fmt.Sprintf("Invalid input. Please enter valid row as a letter (a-%c) and column as a number (1-%d).",
				'a'+consoleRows-1, consoleCols))
			continue
		}

		res, err = con.c.Guess(row, col)
		if err != nil {
			return false, err
		}
		con.println(res.Message)
		if res.Board != "" {
			con.println(res.Board)
		}
	}
	return false, nil
}
