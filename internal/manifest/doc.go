// Package manifest renders the operation catalog of each capability server
// as compact text for external search indexing, and persists it.
//
// A manifest names the server, counts its operations and lists one block per
// operation with its description and parameter table. Compile is pure:
// identical input yields byte-identical output, and operations keep the
// order the server listed them in.
//
// Manifests are always written whole. A Store replaces everything it holds
// for a server on every Write; there is no incremental update. Two stores
// are provided:
//
//   - FileStore writes <dir>/<server>.md atomically
//   - SQLiteStore keeps manifests and per-operation entries in SQLite
//
// Publish walks a registry and brings a Store in line with it: Ready servers
// get a fresh manifest, every other server has its manifest removed so a
// failed server contributes no entries.
package manifest
