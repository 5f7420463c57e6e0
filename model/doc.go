// Package model defines the provider‑agnostic abstractions and concrete
// helpers for interacting with hosted language models inside supportmesh.
//
// Core goals:
//   - Unify streaming + non‑streaming generation behind a single interface
//   - Normalize tool / function call representation (ToolDefinition, ToolCall)
//   - Keep request/response shapes minimal and transport independent
//   - Facilitate deterministic doubles for tests (MockModel, ScriptedModel)
//
// Providers (OpenAI, Anthropic) implement the Model interface from this
// package so higher layers (assistants, selectors) remain decoupled from
// vendor SDKs. A model handle is stateless apart from its connection and
// credential configuration.
package model
