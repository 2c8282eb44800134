// Package engine wires the socialdna services over one store.
//
// ARCHITECTURE:
//
// One Store, Many Services:
// Expressions, the social graph, cross-partition links, collectives and
// profiles each own a narrow Store interface. The engine opens a single
// SQLite-backed store.Store and hands it to every service, so all state
// lives in one file and every mutation is one transaction in it.
//
// Calling Identity:
// The engine holds no notion of a current user. Each operation reads the
// caller from its context (agent.WithIdentity); writes without one fail
// with errs.Forbidden.
//
// Configuration:
// config.Config supplies page caps, traversal bounds, the link admission
// chain (trusted partitions, then the sliding-window quota, then any
// policies given with WithAdmission) and per-collective settings.
//
// Observability:
// All services share one zap logger, tagged per component, and one
// metrics.Collector whose registry belongs to this engine alone.
package engine
