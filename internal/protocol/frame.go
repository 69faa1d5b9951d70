// internal/protocol/frame.go
//
// Length-delimited framing over a byte stream.
//
// Each frame is a base-128 varint byte count followed by exactly that many
// payload bytes, the same layout as protobuf's writeDelimitedTo.

package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"google.golang.org/protobuf/encoding/protowire"
)

// MaxFrameSize caps a single payload.
const MaxFrameSize = 1 << 20

var (
	ErrFrameTooLarge = errors.New("protocol: frame exceeds maximum size")
	ErrMalformed     = errors.New("protocol: malformed message")
)

// Reader is what ReadFrame needs: bufio.Reader satisfies it.
type Reader interface {
	io.Reader
	io.ByteReader
}

// ReadFrame reads one frame. A clean EOF before the length prefix is
// returned as io.EOF; EOF inside a frame is io.ErrUnexpectedEOF.
func ReadFrame(r Reader) ([]byte, error) {
	size, err := binary.ReadUvarint(r)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("read length: %w", err)
	}
	if size > MaxFrameSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, size)
	}
	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("read payload: %w", err)
	}
	return buf, nil
}

// WriteFrame writes payload with its length prefix in a single Write.
func WriteFrame(w io.Writer, payload []byte) error {
	if len(payload) > MaxFrameSize {
		return fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(payload))
	}
	b := make([]byte, 0, protowire.SizeVarint(uint64(len(payload)))+len(payload))
	b = protowire.AppendVarint(b, uint64(len(payload)))
	b = append(b, payload...)
	_, err := w.Write(b)
	return err
}

// ReadRequest reads and decodes one Request frame.
func ReadRequest(r Reader) (*Request, error) {
	b, err := ReadFrame(r)
	if err != nil {
		return nil, err
	}
	req := new(Request)
	if err := req.Unmarshal(b); err != nil {
		return nil, err
	}
	return req, nil
}

// WriteRequest encodes and writes one Request frame.
func WriteRequest(w io.Writer, req *Request) error {
	return WriteFrame(w, req.Marshal())
}

// ReadResponse reads and decodes one Response frame.
func ReadResponse(r Reader) (*Response, error) {
	b, err := ReadFrame(r)
	if err != nil {
		return nil, err
	}
	res := new(Response)
	if err := res.Unmarshal(b); err != nil {
		return nil, err
	}
	return res, nil
}

// WriteResponse encodes and writes one Response frame.
func WriteResponse(w io.Writer, res *Response) error {
	return WriteFrame(w, res.Marshal())
}
