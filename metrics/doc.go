// Package metrics exposes Prometheus instrumentation for supportmesh.
//
// A Collector owns its registry, so several collectors (one per test, say)
// never clash on metric registration. It satisfies the recorder interfaces
// of the agent and team packages and can wrap a model to time its calls.
package metrics
