// Package cli holds the pieces shared by lantern's commands: the common flag
// set, progress spinners and the mapping from errors to exit codes.
//
// Exit codes:
//
//	0  success
//	1  general failure (connection, protocol, remote error)
//	2  invalid arguments or configuration
//	3  server or operation not found, or server not ready
//	4  timeout
package cli
