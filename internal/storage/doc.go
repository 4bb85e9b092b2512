// Package storage provides JSON-based persistence for the published snapshot.
//
// Persistence is optional: the pipeline is correct without it, but a saved
// snapshot lets a restarted process serve the last-known-good calendar right
// away. Writes are atomic (temp file + rename) so readers of the data
// directory never see a partial snapshot.
package storage
