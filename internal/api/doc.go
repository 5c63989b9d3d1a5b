// Package api holds the data model and the error taxonomy shared by every
// lantern package.
//
// It deliberately contains no behaviour beyond small helpers on the types, so
// transport, session, registry, manifest, resolver and invoker packages can all
// depend on it without depending on each other.
//
// # Data model
//
//   - CapabilityServer: static descriptor of one configured server
//     (transport kind, connection parameters, cache policy, timeout, filter)
//   - SessionState: Disconnected, Connecting, Connected, Listing, Ready, Failed
//   - Operation and Parameter: one callable unit and its flattened schema
//   - Envelope and ContentBlock: the raw, discriminated response of a call
//   - InvocationRequest and InvocationResult: one call and its parsed outcome
//
// # Errors
//
// Every failure crossing a package boundary is one of ConnectionError,
// TimeoutError, ProtocolError, NotFoundError, NotReadyError, ValidationError,
// MalformedResponseError or InvocationError. Use the IsX helpers, which
// support wrapped errors, or Classify to obtain a stable code:
//
//	if api.IsNotReady(err) {
//	    // connect the server first
//	}
package api
