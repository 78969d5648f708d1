// Package sqlite is the record store: the games table the index is built
// from and the index_builds history table.
//
// It runs on modernc.org/sqlite, so the binary stays CGO-free. The database
// is opened in WAL mode with a busy timeout, letting `status` and the HTTP
// listing endpoints read while a build marks games as indexed.
//
// Schema changes live in migrations/ as NNN_name.up.sql and .down.sql pairs;
// only the up scripts are applied, in version order, on open.
package sqlite
