package protocol

import (
	"errors"
	"strconv"
	"strings"
)

var ErrBadTile = errors.New("enter a row letter and a column number separated by a space, e.g. 'a 1'")

// ParseTile converts console input such as "a 1" into zero-based row and
// column indexes. Bounds are not checked here.
func ParseTile(s string) (row, col int32, err error) {
	parts := strings.Fields(strings.ToLower(s))
	if len(parts) != 2 || len(parts[0]) != 1 {
		return 0, 0, ErrBadTile
	}
	letter := parts[0][0]
	if letter < 'a' || letter > 'z' {
		return 0, 0, ErrBadTile
	}
	n, err := strconv.Atoi(parts[1])
	if err != nil || n < 1 {
		return 0, 0, ErrBadTile
	}
	return int32(letter - 'a'), int32(n - 1), nil
}

// FormatTile is the inverse of ParseTile.
func FormatTile(row, col int32) string {
	return string(rune('a'+row)) + " " + strconv.Itoa(int(col)+1)
}
