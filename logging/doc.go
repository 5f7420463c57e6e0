// Package logging provides a minimal logging interface and adapters for supportmesh.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// that assistants, coordinators, stores and the HTTP shell use for observability.
// This package includes:
//
//   - Logger interface for dependency injection
//   - ZapAdapter wrapping go.uber.org/zap's sugared logger
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger, err := logging.New(logging.Config{Level: "info", Format: "json"})
//	assistant := agent.NewAssistant("CodeExpert", m, func(o *agent.Options) { o.Logger = logger })
package logging
