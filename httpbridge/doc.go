// Package httpbridge adapts plain HTTP clients onto the transport contract.
//
// Inbound HTTP requests are framed as protocol requests and pushed onto a
// queue; a dispatcher drains that queue through the usual Receive/Send loop.
// Each HTTP handler parks on a per-request completion slot keyed by the
// frame's envelope ID, so the response the dispatcher sends is routed back
// to the waiting HTTP request. A handler that outlives the configured
// timeout answers 202 Accepted and the late response is dropped.
package httpbridge
