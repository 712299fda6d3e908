// Package eqn implements the equation compiler: it consumes textual
// definitions of neuron and synapse dynamics and produces a finalized,
// unit-checked, dependency-ordered set of update functions.
//
// A Set is built from one or more definition strings, optionally combined
// with explicit namespaces or identifier substitutions, merged with other
// sets while still unprepared, and finalized exactly once by Prepare. After
// finalization the set is immutable and safe for concurrent read access by
// any number of evaluator goroutines; merging or re-preparing a set
// concurrently is not supported.
//
// Fatal conditions (syntax errors, naming conflicts, dependency cycles,
// dimension errors) abort the operation that discovered them. Everything
// else (unresolved identifiers, namespace names shadowing variables,
// identifiers that cannot be frozen) is accumulated as warnings, because an
// equation fragment is legitimately incomplete until combined with other
// fragments or with runtime context.
package eqn
