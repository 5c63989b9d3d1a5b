// Package invoker executes resolved operations.
//
// An invocation validates the arguments against the operation's parameter
// schema before anything reaches the transport, calls the operation through
// its session (which applies the server timeout) and parses the raw
// envelope into an api.InvocationResult. Every invocation gets an ID, a
// trace span and metrics.
//
// Failures always carry one of the api error types:
//
//   - ValidationError when the arguments do not match the schema
//   - MalformedResponseError when the envelope is empty or carries an unknown content kind
//   - InvocationError when the server flags the result as an error, or the
//     call fails with an error that has no category of its own
//
// Connection, timeout and not-ready errors from the session pass through unchanged.
package invoker
