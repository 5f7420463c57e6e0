// Package session keeps per-visitor chat transcripts for the web UI.
//
// Transcripts are append-only and live only as long as the process.
package session
