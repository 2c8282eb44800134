package model

import (
	"encoding/json"
	"fmt"
)

// Relation labels a follow edge. It is either None or Named(label) with a
// non-empty label; each (follower, followed, relation) triple is unique.
type Relation struct {
	label string
	named bool
}

// NoRelation returns the unlabeled relation.
func NoRelation() Relation {
	return Relation{}
}

// Named returns a labeled relation. An empty label yields an invalid
// relation that Validate rejects.
func Named(label string) Relation {
	return Relation{label: label, named: true}
}

// ParseRelation maps an optional CLI or config string to a Relation.
// The empty string means None.
func ParseRelation(s string) Relation {
	if s == "" {
		return NoRelation()
	}
	return Named(s)
}

// Label returns the label and whether the relation is named.
func (r Relation) Label() (string, bool) {
	return r.label, r.named
}

// IsNone reports whether r is the unlabeled relation.
func (r Relation) IsNone() bool {
	return !r.named
}

// Key is the storage form of r: "" for None, the label otherwise.
// Named labels are non-empty, so the mapping is injective.
func (r Relation) Key() string {
	return r.label
}

// RelationFromKey is the inverse of Key.
func RelationFromKey(key string) Relation {
	return ParseRelation(key)
}

// Validate rejects Named("").
func (r Relation) Validate() error {
	if r.named && r.label == "" {
		return fmt.Errorf("named relation requires a non-empty label")
	}
	if len(r.label) > MaxFieldLength {
		return fmt.Errorf("relation label exceeds %d bytes", MaxFieldLength)
	}
	return nil
}

func (r Relation) String() string {
	if !r.named {
		return "none"
	}
	return "named(" + r.label + ")"
}

// MarshalJSON encodes None as null and Named as its label.
func (r Relation) MarshalJSON() ([]byte, error) {
	if !r.named {
		return []byte("null"), nil
	}
	return json.Marshal(r.label)
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (r *Relation) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = NoRelation()
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("relation: %w", err)
	}
	*r = Named(s)
	return nil
}
