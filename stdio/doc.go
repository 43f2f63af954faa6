// Package stdio implements the transport contract over a newline-delimited
// JSON stream, by default the process's stdin and stdout.
//
// Each frame is one UTF-8 JSON envelope terminated by '\n'; a trailing '\r'
// is tolerated. Control pings are answered inline with pongs, stray response
// frames are logged and skipped, and a control close frame ends the stream
// cleanly. Oversized and malformed frames are reported to the caller and
// dropped without tearing down the transport.
package stdio
