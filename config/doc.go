// Package config loads supportmesh settings.
//
// Values are layered: DefaultConfig, then an optional YAML file, then
// SUPPORTMESH_* environment variables. Nested fields join their env tags
// with underscores, e.g. SUPPORTMESH_STORE_REDIS_ADDR.
package config
