// Package codeassist explains, lints and optimizes source snippets.
//
// An Expert pairs a single "CodeExpert" assistant with an optional Linter.
// Explain and Optimize are one-shot prompts; Review runs all three passes
// and collects them into a Report.
package codeassist
