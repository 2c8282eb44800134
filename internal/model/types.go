package model

import "time"

// Identity is an agent's public key. Opaque, globally unique, never reused.
type Identity string

// PartitionID identifies an independently addressed storage partition.
type PartitionID string

// Hash is the hex SHA-256 content address of an entry.
type Hash string

// Timestamp is a point in time in unix milliseconds.
type Timestamp int64

// TimestampOf converts t to a Timestamp.
func TimestampOf(t time.Time) Timestamp {
	return Timestamp(t.UnixMilli())
}

// Time converts ts back to a time.Time in UTC.
func (ts Timestamp) Time() time.Time {
	return time.UnixMilli(int64(ts)).UTC()
}

// Page is one slice of an ordered result set.
type Page[T any] struct {
	Items  []T `json:"items"`
	Size   int `json:"size"`
	Number int `json:"number"`
}

// IdentityPage is a page of identities; used by graph and collective queries.
type IdentityPage = Page[Identity]
