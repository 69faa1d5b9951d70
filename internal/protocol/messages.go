// internal/protocol/messages.go
//
// Wire messages exchanged between client and server.
// Defines:
//   - Request / Response / Entry (field numbers match battleship.proto).
//   - The enums carried by them, with String methods for logs and metrics.

package protocol

import "strconv"

// OperationType is the kind of request a client sends.
type OperationType int32

const (
	OpUnspecified OperationType = iota
	OpName
	OpLeaderboard
	OpStart
	OpRowCol
	OpQuit
)

func (o OperationType) String() string {
	switch o {
	case OpName:
		return "NAME"
	case OpLeaderboard:
		return "LEADERBOARD"
	case OpStart:
		return "START"
	case OpRowCol:
		return "ROWCOL"
	case OpQuit:
		return "QUIT"
	case OpUnspecified:
		return "UNSPECIFIED"
	default:
		return "OP_" + strconv.Itoa(int(o))
	}
}

// ResponseType is the kind of response the server sends.
type ResponseType int32

const (
	TypeUnspecified ResponseType = iota
	TypeGreeting
	TypeLeaderboard
	TypeStart
	TypePlay
	TypeDone
	TypeBye
	TypeError
)

func (t ResponseType) String() string {
	switch t {
	case TypeGreeting:
		return "GREETING"
	case TypeLeaderboard:
		return "LEADERBOARD"
	case TypeStart:
		return "START"
	case TypePlay:
		return "PLAY"
	case TypeDone:
		return "DONE"
	case TypeBye:
		return "BYE"
	case TypeError:
		return "ERROR"
	case TypeUnspecified:
		return "UNSPECIFIED"
	default:
		return "TYPE_" + strconv.Itoa(int(t))
	}
}

// EvalType is the evaluation of a guess on PLAY and DONE responses.
type EvalType int32

const (
	EvalUnspecified EvalType = iota
	EvalHit
	EvalMiss
	EvalOld // already marked
	EvalWon
	EvalLost
)

func (e EvalType) String() string {
	switch e {
	case EvalHit:
		return "HIT"
	case EvalMiss:
		return "MISS"
	case EvalOld:
		return "OLD"
	case EvalWon:
		return "WON"
	case EvalLost:
		return "LOST"
	case EvalUnspecified:
		return "UNSPECIFIED"
	default:
		return "EVAL_" + strconv.Itoa(int(e))
	}
}

// NextStep tells the client which input it should collect next.
type NextStep int32

const (
	NextUnspecified NextStep = iota
	NextMenu
	NextTile
)

func (n NextStep) String() string {
	switch n {
	case NextMenu:
		return "MENU"
	case NextTile:
		return "TILE"
	case NextUnspecified:
		return "UNSPECIFIED"
	default:
		return "NEXT_" + strconv.Itoa(int(n))
	}
}

// Request is a client → server message.
type Request struct {
	Op     OperationType // 1
	Name   string        // 2, NAME only
	Row    int32         // 3, ROWCOL only
	Column int32         // 4, ROWCOL only
}

// Entry is one leaderboard line on a LEADERBOARD response.
type Entry struct {
	Name   string // 1
	Points int32  // 2
	Logins int32  // 3
}

// Response is a server → client message.
type Response struct {
	Type        ResponseType // 1
	Board       string       // 2
	Message     string       // 3
	MenuOptions string       // 4
	Eval        EvalType     // 5
	Next        NextStep     // 6
	Leader      []Entry      // 7
}
