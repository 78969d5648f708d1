// Package driving holds the inbound ports: what the CLI, the HTTP API, the
// MCP server and the file watcher may ask of the core.
//
//   - SearchService: ranked search, similarity lookup, snapshot reload
//   - IndexService: full and incremental builds, index status reset
//   - StatusService: statistics, game listing, build history, import
//   - Scheduler: periodic incremental builds
//
// Implementations live in internal/core/services.
package driving
