// Package transport defines the bidirectional message transport contract and
// the wire envelope shared by every concrete transport.
//
// A Transport carries protocol requests inbound and protocol responses
// outbound over some medium. Implementations must deliver each message as an
// atomic unit, report io.EOF from Receive on clean peer closure, and refuse
// to send once disconnected. Connectivity is monotonic: a transport that has
// disconnected never reports itself connected again.
package transport
