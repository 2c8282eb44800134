// Package graph maintains the follow graph and the friendship handshake.
//
// Follow edges are directed and labeled by a Relation; every mutation is an
// idempotent write keyed by (follower, followed, relation). Friendship is
// one canonical undirected edge plus a directed request log, so concurrent
// mutual requests converge on Friends regardless of arrival order.
//
// Friendship states, seen from the caller toward one peer:
//
//	None ──request──▶ RequestedBySelf ──peer requests──▶ Friends
//	None ◀─withdraw── RequestedBySelf
//	RequestedByOther ──request──▶ Friends
//	RequestedByOther ──decline──▶ Declined ──request──▶ RequestedBySelf
//	Friends ──drop──▶ None
package graph
