package model

import (
	"cmp"
	"fmt"
	"strings"
)

// GlobalEntryRef addresses an entry that may live in a foreign partition.
// Equality is structural; the total order is (Partition, Entry) by bytes.
type GlobalEntryRef struct {
	Partition PartitionID `json:"partition_id" validate:"required,max=256,printascii"`
	Entry     Hash        `json:"entry_hash" validate:"required,max=256,printascii"`
}

// Ref builds a GlobalEntryRef.
func Ref(partition PartitionID, entry Hash) GlobalEntryRef {
	return GlobalEntryRef{Partition: partition, Entry: entry}
}

// Equal reports structural equality.
func (r GlobalEntryRef) Equal(o GlobalEntryRef) bool {
	return r == o
}

// Compare orders refs lexicographically by partition then entry hash.
// Returns -1, 0 or +1.
func (r GlobalEntryRef) Compare(o GlobalEntryRef) int {
	if c := cmp.Compare(r.Partition, o.Partition); c != 0 {
		return c
	}
	return cmp.Compare(r.Entry, o.Entry)
}

// Less reports whether r sorts before o.
func (r GlobalEntryRef) Less(o GlobalEntryRef) bool {
	return r.Compare(o) < 0
}

// String renders the ref as "partition/entry".
func (r GlobalEntryRef) String() string {
	return fmt.Sprintf("%s/%s", r.Partition, r.Entry)
}

// ParseRef is the inverse of String. Everything before the first "/" is
// the partition.
func ParseRef(s string) (GlobalEntryRef, error) {
	partition, entry, ok := strings.Cut(s, "/")
	if !ok || partition == "" || entry == "" {
		return GlobalEntryRef{}, fmt.Errorf("reference %q is not partition/entry", s)
	}
	return Ref(PartitionID(partition), Hash(entry)), nil
}

// CompareRefs is GlobalEntryRef.Compare as a function, for slices.SortFunc.
func CompareRefs(a, b GlobalEntryRef) int {
	return a.Compare(b)
}
