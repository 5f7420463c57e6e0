// Package agent provides the Assistant: a named model wrapper with a fixed
// system instruction and an optional set of tools.
//
// An Assistant keeps no conversation state. Each Reply receives the shared
// thread, maps it onto model roles (its own messages as assistant turns,
// everyone else's as user turns), calls the model and, when the model asks
// for tools, executes them one after another through a tool.Registry.
//
// By default tool outputs are returned verbatim as the reply. With
// ReflectOnToolUse the results are handed back to the model for a final
// natural language answer.
package agent
