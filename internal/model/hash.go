package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// The version suffix leaves room for a future algorithm change.
const (
	DomainExpression = "socialdna/expression/v1"
	DomainPrivate    = "socialdna/private/v1"
	DomainPost       = "socialdna/post/v1"
)

// hashWithDomain computes SHA256(domain || 0x00 || data).
// The null separator keeps the domain/data boundary unambiguous.
func hashWithDomain(domain string, data []byte) Hash {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return Hash(hex.EncodeToString(h.Sum(nil)))
}

// ContentHash computes the address of body under domain.
func ContentHash(domain string, body map[string]any) (Hash, error) {
	canonical, err := MarshalCanonical(body)
	if err != nil {
		return "", fmt.Errorf("content hash %s: %w", domain, err)
	}
	return hashWithDomain(domain, canonical), nil
}

// ExpressionHash addresses a public expression. created_at is excluded so a
// retried create maps to the same entry.
func ExpressionHash(creator Identity, origin PartitionID, c Content, link *PartitionID) (Hash, error) {
	body := map[string]any{
		"creator": creator,
		"origin":  origin,
		"content": c.canonical(),
	}
	if link != nil {
		body["link_partition"] = *link
	}
	return ContentHash(DomainExpression, body)
}

// PrivateHash addresses a directly delivered expression.
func PrivateHash(from, to Identity, origin PartitionID, c Content) (Hash, error) {
	return ContentHash(DomainPrivate, map[string]any{
		"from":    from,
		"to":      to,
		"origin":  origin,
		"content": c.canonical(),
	})
}

// PostHash addresses one entry of a collective's communication log.
func PostHash(collective PartitionID, ref GlobalEntryRef, author Identity) (Hash, error) {
	return ContentHash(DomainPost, map[string]any{
		"collective": collective,
		"ref":        ref.canonical(),
		"author":     author,
	})
}

func (r GlobalEntryRef) canonical() map[string]any {
	return map[string]any{
		"partition_id": r.Partition,
		"entry_hash":   r.Entry,
	}
}
