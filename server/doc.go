// Package server exposes the support team and the code expert over HTTP.
//
// Routes:
//
//	POST /chat, /chat/   {"query": "..."}  -> {"response": "..."}
//	POST /explain        {"code": "..."}   -> {"response": "..."}
//	POST /optimize       {"code": "..."}   -> {"response": "..."}
//	POST /review         {"code": "..."}   -> {"explanation", "lint", "optimization"}
//	GET  /healthz
//	GET  /metrics        (when a collector is configured)
//
// Malformed bodies get 422, backend failures 500, both as {"error": "..."}.
package server
