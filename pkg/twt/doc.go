// Package twt implements the Target Wake Time session-control protocol
// carried in nl80211 vendor commands.
//
// A TWT command line flows through three pure stages:
//
//	line -> ParseCommand -> Params -> Build -> []wire.Attr
//
// and replies flow back through DecodeReply (synchronous read-style
// operations) or DecodeEvent (asynchronous notifications), both of which
// render a human-readable report into a bounded ReplyWriter.
//
// # Operations
//
// Setup, Terminate, Suspend, Resume and Nudge complete asynchronously: the
// driver acknowledges the request and later reports the outcome as a
// vendor event. Get, GetStats and GetCapabilities return their data
// inline. ClearStats completes on acknowledgement alone.
//
// # Parameters
//
// Params is a closed sum type. Each operation has one parameter record,
// produced only by a successful parse, so a record is never partially
// valid.
//
// # Rendering
//
// Reports are single lines of space-separated "name value" pairs.
// Multi-session replies render one line per session. Event lines are
// prefixed with "CTRL-EVENT-TWT <TAG>".
//
// Nothing in this package keeps mutable state, so decoding may run
// concurrently with command dispatch.
package twt
