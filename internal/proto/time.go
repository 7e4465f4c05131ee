package proto

import (
	"time"

	"google.golang.org/protobuf/types/known/timestamppb"
)

// OptionalTimestamp converts an optional time; nil stays unset on the wire.
func OptionalTimestamp(t *time.Time) *timestamppb.Timestamp {
	if t == nil {
		return nil
	}
	return timestamppb.New(*t)
}

// OptionalTime is the inverse of OptionalTimestamp.
func OptionalTime(ts *timestamppb.Timestamp) *time.Time {
	if ts == nil {
		return nil
	}
	t := ts.AsTime()
	return &t
}
