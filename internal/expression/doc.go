// Package expression stores public and private expressions.
//
// A public expression is written to the local partition and appended to its
// creator's log. A private expression is addressed to one recipient and is
// readable only where the injected Visibility allows it. Both are content
// addressed: creating the same content twice returns the first entry.
package expression
