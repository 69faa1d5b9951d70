package assets

import (
	"embed"
	"io/fs"
	"path"
	"sort"
)

//go:embed boards/*.txt
var FS embed.FS

// Board is one named source document for a round.
type Board struct {
	Name string
	Text string
}

// Boards returns the embedded board sources sorted by file name.
func Boards() ([]Board, error) {
	names, err := fs.Glob(FS, "boards/*.txt")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	out := make([]Board, 0, len(names))
	for _, name := range names {
		b, err := FS.ReadFile(name)
		if err != nil {
			return nil, err
		}
		out = append(out, Board{Name: path.Base(name), Text: string(b)})
	}
	return out, nil
}
