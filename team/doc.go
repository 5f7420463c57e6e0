// Package team coordinates several assistants over one shared thread.
//
// A GroupChat repeatedly asks its Selector who speaks next, lets that
// assistant reply to the thread and checks its Termination condition. The
// default selector is model driven (ModelSelector); RoundRobinSelector,
// IntentSelector and SelectorFunc are deterministic alternatives.
package team
