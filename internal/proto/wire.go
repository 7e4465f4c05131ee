package proto

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// Message is implemented by every request and response of the service.
// The encoding is standard protobuf wire format.
type Message interface {
	Marshal() ([]byte, error)
	Unmarshal(b []byte) error
}

// encoder appends fields in wire format and keeps the first error.
type encoder struct {
	b   []byte
	err error
}

// string skips empty values, as proto3 does for implicit presence.
func (e *encoder) string(num protowire.Number, v string) {
	if v == "" {
		return
	}
	e.b = protowire.AppendTag(e.b, num, protowire.BytesType)
	e.b = protowire.AppendString(e.b, v)
}

// optString writes v whenever it is set, even when empty.
func (e *encoder) optString(num protowire.Number, v *string) {
	if v == nil {
		return
	}
	e.b = protowire.AppendTag(e.b, num, protowire.BytesType)
	e.b = protowire.AppendString(e.b, *v)
}

func (e *encoder) embed(num protowire.Number, data []byte, err error) {
	if e.err != nil {
		return
	}
	if err != nil {
		e.err = err
		return
	}
	e.b = protowire.AppendTag(e.b, num, protowire.BytesType)
	e.b = protowire.AppendBytes(e.b, data)
}

func (e *encoder) message(num protowire.Number, m Message) {
	data, err := m.Marshal()
	e.embed(num, data, err)
}

func (e *encoder) timestamp(num protowire.Number, ts *timestamppb.Timestamp) {
	if ts == nil {
		return
	}
	data, err := proto.Marshal(ts)
	e.embed(num, data, err)
}

func (e *encoder) result() ([]byte, error) {
	return e.b, e.err
}

// decode walks the fields of b and hands every length-delimited one to fn.
// Fields of other wire types are skipped; none of the messages use them.
func decode(b []byte, fn func(num protowire.Number, v []byte) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		if typ != protowire.BytesType {
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			b = b[n:]
			continue
		}

		v, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		if err := fn(num, v); err != nil {
			return fmt.Errorf("field %d: %w", num, err)
		}
	}
	return nil
}

func decodeTimestamp(v []byte) (*timestamppb.Timestamp, error) {
	ts := &timestamppb.Timestamp{}
	if err := proto.Unmarshal(v, ts); err != nil {
		return nil, err
	}
	return ts, nil
}

func stringPtr(v []byte) *string {
	s := string(v)
	return &s
}

// skip decodes messages without fields, ignoring anything unknown.
func skip(protowire.Number, []byte) error { return nil }
