// Package core provides the foundational conversation types shared by every
// other package:
//
//   - Content and its closed set of Parts (text, function call, function response)
//   - Message, an immutable entry of an append-only conversation history
//
// The package has no behaviour beyond constructors and accessors so model
// adapters, assistants and coordinators can agree on one representation.
package core
