// Package session manages the live relationship with one capability server.
//
// A Session moves through Disconnected, Connecting, Connected, Listing and
// Ready, or ends in Failed. Its state, visible operations and last error are
// published together as an immutable Snapshot, so readers never see a
// partially updated operation list.
//
// Filtering happens here: operations hidden by the server's allow or block
// list, or by the destructive denylist, never appear in a snapshot and
// cannot be invoked.
package session
