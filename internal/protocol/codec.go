// internal/protocol/codec.go
//
// Protobuf wire encoding of the protocol messages.
//
// Encoding follows proto3: zero values are omitted, enums and int32 are
// varints (negative int32 sign-extended to 64 bits). Decoding skips unknown
// fields and fields whose wire type does not match the schema.

package protocol

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

func appendVarintField(b []byte, num protowire.Number, v int64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, uint64(v))
}

func appendStringField(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

// Marshal encodes r in protobuf wire format.
func (r *Request) Marshal() []byte {
	var b []byte
	b = appendVarintField(b, 1, int64(r.Op))
	b = appendStringField(b, 2, r.Name)
	b = appendVarintField(b, 3, int64(r.Row))
	b = appendVarintField(b, 4, int64(r.Column))
	return b
}

// Unmarshal decodes b into r, resetting r first.
func (r *Request) Unmarshal(b []byte) error {
	*r = Request{}
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == 1 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			r.Op = OperationType(v)
			return n, nil
		case num == 2 && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			r.Name = v
			return n, nil
		case num == 3 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			r.Row = int32(v)
			return n, nil
		case num == 4 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			r.Column = int32(v)
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
}

func (e *Entry) appendTo(b []byte) []byte {
	b = appendStringField(b, 1, e.Name)
	b = appendVarintField(b, 2, int64(e.Points))
	b = appendVarintField(b, 3, int64(e.Logins))
	return b
}

func (e *Entry) unmarshal(b []byte) error {
	*e = Entry{}
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == 1 && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			e.Name = v
			return n, nil
		case num == 2 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			e.Points = int32(v)
			return n, nil
		case num == 3 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			e.Logins = int32(v)
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
}

// Marshal encodes r in protobuf wire format.
func (r *Response) Marshal() []byte {
	var b []byte
	b = appendVarintField(b, 1, int64(r.Type))
	b = appendStringField(b, 2, r.Board)
	b = appendStringField(b, 3, r.Message)
	b = appendStringField(b, 4, r.MenuOptions)
	b = appendVarintField(b, 5, int64(r.Eval))
	b = appendVarintField(b, 6, int64(r.Next))
	for i := range r.Leader {
		b = protowire.AppendTag(b, 7, protowire.BytesType)
		b = protowire.AppendBytes(b, r.Leader[i].appendTo(nil))
	}
	return b
}

// Unmarshal decodes b into r, resetting r first.
func (r *Response) Unmarshal(b []byte) error {
	*r = Response{}
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == 1 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			r.Type = ResponseType(v)
			return n, nil
		case num == 2 && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			r.Board = v
			return n, nil
		case num == 3 && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			r.Message = v
			return n, nil
		case num == 4 && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			r.MenuOptions = v
			return n, nil
		case num == 5 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			r.Eval = EvalType(v)
			return n, nil
		case num == 6 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			r.Next = NextStep(v)
			return n, nil
		case num == 7 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			var e Entry
			if err := e.unmarshal(v); err != nil {
				return 0, fmt.Errorf("leader entry: %w", err)
			}
			r.Leader = append(r.Leader, e)
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
}

// walk iterates over the fields of an encoded message. field consumes the
// value that follows a tag and returns its length, negative on a parse error.
func walk(b []byte, field func(protowire.Number, protowire.Type, []byte) (int, error)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
		}
		b = b[n:]
		m, err := field(num, typ, b)
		if err != nil {
			return err
		}
		if m < 0 {
			return fmt.Errorf("%w: field %d: %v", ErrMalformed, num, protowire.ParseError(m))
		}
		b = b[m:]
	}
	return nil
}

// AppendLogEntry appends one `repeated string log = 1` field of the Logs
// message. Concatenating such fields onto an existing Logs encoding yields a
// valid Logs message.
func AppendLogEntry(b []byte, line string) []byte {
	b = protowire.AppendTag(b, 1, protowire.BytesType)
	return protowire.AppendString(b, line)
}

// DecodeLogs returns the `log` entries of an encoded Logs message.
func DecodeLogs(b []byte) ([]string, error) {
	var out []string
	err := walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num == 1 && typ == protowire.BytesType {
			v, n := protowire.ConsumeString(b)
			if n >= 0 {
				out = append(out, v)
			}
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
	return out, err
}
