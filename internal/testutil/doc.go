// Package testutil contains helpers shared by tests across packages: a
// fluent builder for conversation threads and a conformance suite every
// store.Store implementation runs. Not intended for production usage.
package testutil
