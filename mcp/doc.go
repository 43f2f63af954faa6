// Package mcp defines the protocol model shared by every transport: the
// tagged request and result unions, the response envelope, the fixed error
// code enumeration, and the descriptor types (tools, resources, contents)
// that flow through them.
//
// All unions are encoded as a JSON object carrying a discriminator field and
// a nested payload, and every valid value round-trips: decoding the encoding
// of a value yields an equal value. Dispatch sites are expected to switch
// exhaustively on the discriminator rather than sniff payload fields.
package mcp
