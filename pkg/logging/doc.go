// Package logging provides subsystem-tagged structured logging for lantern.
//
// It is a thin layer over log/slog. Every entry carries a subsystem attribute
// (for example "Transport", "Session" or "Invoker") so the output of many
// concurrently connecting capability servers stays easy to follow.
//
// # Usage
//
//	logging.InitForCLI(logging.LevelInfo, os.Stderr)
//
//	logging.Info("Registry", "Connecting %d servers", n)
//	logging.Debug("Transport", "Spawning %s %v", command, args)
//	logging.Error("Session", err, "Failed to connect %s", name)
//
// JSON output is available through Init:
//
//	logging.Init(logging.LevelDebug, os.Stderr, logging.FormatJSON)
//
// Logs are written to stderr by default. This matters for `lantern serve`,
// whose stdio transport owns stdout.
//
// Before Init is called, Debug and Info entries are dropped while Warn and
// Error entries still reach stderr.
package logging
