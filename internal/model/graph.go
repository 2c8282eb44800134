package model

import "fmt"

// FollowEdge is a directed follow between two identities under a relation.
type FollowEdge struct {
	Follower  Identity  `json:"follower"`
	Followed  Identity  `json:"followed"`
	Relation  Relation  `json:"relation"`
	CreatedAt Timestamp `json:"created_at"`
}

// RequestState is the lifecycle of one directed friendship request.
type RequestState string

const (
	RequestPending   RequestState = "pending"
	RequestAccepted  RequestState = "accepted"
	RequestDeclined  RequestState = "declined"
	RequestWithdrawn RequestState = "withdrawn"
)

// FriendshipRequest is a directed proposal from one identity to another.
type FriendshipRequest struct {
	From      Identity     `json:"from"`
	To        Identity     `json:"to"`
	State     RequestState `json:"state"`
	UpdatedAt Timestamp    `json:"updated_at"`
}

// FriendshipEdge is the canonical undirected friendship with A < B.
type FriendshipEdge struct {
	A         Identity  `json:"a"`
	B         Identity  `json:"b"`
	CreatedAt Timestamp `json:"created_at"`
}

// CanonicalPair orders two identities so the smaller comes first.
func CanonicalPair(x, y Identity) (Identity, Identity) {
	if y < x {
		return y, x
	}
	return x, y
}

// NewFriendshipEdge builds the canonical edge for x and y.
func NewFriendshipEdge(x, y Identity, at Timestamp) FriendshipEdge {
	a, b := CanonicalPair(x, y)
	return FriendshipEdge{A: a, B: b, CreatedAt: at}
}

// Other returns the peer of self on the edge.
func (e FriendshipEdge) Other(self Identity) Identity {
	if e.A == self {
		return e.B
	}
	return e.A
}

// FriendshipStatus is the handshake state between the caller and a peer,
// seen from the caller's side.
type FriendshipStatus string

const (
	StatusNone             FriendshipStatus = "none"
	StatusRequestedBySelf  FriendshipStatus = "requested_by_self"
	StatusRequestedByOther FriendshipStatus = "requested_by_other"
	StatusFriends          FriendshipStatus = "friends"
	StatusDeclined         FriendshipStatus = "declined"
)

// ParseFriendshipStatus is used when decoding CLI and golden output.
func ParseFriendshipStatus(s string) (FriendshipStatus, error) {
	switch st := FriendshipStatus(s); st {
	case StatusNone, StatusRequestedBySelf, StatusRequestedByOther, StatusFriends, StatusDeclined:
		return st, nil
	}
	return "", fmt.Errorf("unknown friendship status %q", s)
}
