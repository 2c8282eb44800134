// Package harness runs YAML conformance scenarios against a real engine.
//
// A scenario names a sequence of engine operations, each invoked as a
// given agent, with optional expectations on the outcome:
//
//	name: mutual_friendship
//	description: two requests in opposite directions make a friendship
//	flow:
//	  - as: alice
//	    invoke: graph.request_friendship
//	    args: {target: bob}
//	    expect: {result: {status: requested_by_self}}
//	  - as: bob
//	    invoke: graph.request_friendship
//	    args: {target: alice}
//	    expect: {result: {status: friends}}
//	assertions:
//	  - type: query
//	    as: alice
//	    invoke: graph.friends
//	    expect: {items: [bob]}
//
// Every scenario runs on a fresh in-memory database with a deterministic
// clock, so content hashes, timestamps and receipts are reproducible and
// the recorded trace can be compared against a golden file.
//
// Expectations use subset matching: a map matches when every expected key
// matches, a list matches element by element, and scalars compare after a
// JSON round trip. An expected error is the error code ("FORBIDDEN",
// "NOT_FOUND") and a step without one must succeed.
package harness
