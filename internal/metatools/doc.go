// Package metatools exposes lantern to an agent as a small, fixed set of MCP
// tools.
//
// Instead of injecting every operation schema of every configured server
// into the agent's context, the meta-tools disclose capabilities step by
// step:
//
//   - list_servers: the configured servers with their state and operation count
//   - read_manifest: the compiled manifest text of one server
//   - describe_operation: the full parameter table of one operation
//   - call_operation: validate and invoke one operation
//
// Per-operation schemas are only returned by describe_operation, on demand.
//
// # Usage
//
//	provider := metatools.NewProvider(reg, store, invoker.New())
//	srv := metatools.NewServer(provider, version)
//	err := srv.ServeStdio(ctx, os.Stdin, os.Stdout)
package metatools
