// Package app bootstraps the lantern runtime and drives its lifecycle.
//
// NewApplication loads the configuration directory, configures logging and
// telemetry, and builds the long-lived components: the server registry, the
// resolver, the invoker and the manifest store. Commands then use the
// Application to connect servers, publish manifests, invoke operations or
// serve the meta-tools.
//
// # Lifecycle
//
//  1. NewApplication: configuration, logging, telemetry, registry, store
//  2. Connect / Refresh: concurrent connects, each server isolated from the others
//  3. Publish: manifests written for Ready servers, withdrawn for the rest
//  4. Serve (optional): meta-tools over stdio or streamable HTTP, with
//     configuration reloads applied through ApplyConfig
//  5. Close: sessions disconnected, store closed, traces flushed
//
// Logging always goes to stderr so that stdout stays free for command
// output and for the stdio meta-tools transport.
package app
