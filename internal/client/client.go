// internal/client/client.go
//
// Protocol client for the battleship server.
// Used by the console client and by the server tests.

package client

import (
	"bufio"
	"context"
	"fmt"
	"net"

	"github.com/robalobadob/battleship/internal/protocol"
)

// Client sends one request at a time and waits for its response.
type Client struct {
	conn net.Conn
	r    *bufio.Reader
}

// Dial connects to addr.
func Dial(ctx context.Context, addr string) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return New(conn), nil
}

// New wraps an established connection.
func New(conn net.Conn) *Client {
	return &Client{conn: conn, r: bufio.NewReader(conn)}
}

// Do writes req and reads the response.
func (c *Client) Do(req *protocol.Request) (*protocol.Response, error) {
	if err := protocol.WriteRequest(c.conn, req); err != nil {
		return nil, fmt.Errorf("send %s: %w", req.Op, err)
	}
	res, err := protocol.ReadResponse(c.r)
	if err != nil {
		return nil, fmt.Errorf("receive %s: %w", req.Op, err)
	}
	return res, nil
}

func (c *Client) Name(name string) (*protocol.Response, error) {
	return c.Do(&protocol.Request{Op: protocol.OpName, Name: name})
}

func (c *Client) Leaderboard() (*protocol.Response, error) {
	return c.Do(&protocol.Request{Op: protocol.OpLeaderboard})
}

func (c *Client) Start() (*protocol.Response, error) {
	return c.Do(&protocol.Request{Op: protocol.OpStart})
}

// Guess sends zero-based row and column indexes.
func (c *Client) Guess(row, col int32) (*protocol.Response, error) {
	return c.Do(&protocol.Request{Op: protocol.OpRowCol, Row: row, Column: col})
}

func (c *Client) Quit() (*protocol.Response, error) {
	return c.Do(&protocol.Request{Op: protocol.OpQuit})
}

// Close closes the connection without sending QUIT.
func (c *Client) Close() error { return c.conn.Close() }
