// Package protocol implements the text wire protocol spoken between a live
// board client and the server.
//
// Every message is a frame: a two digit, zero-padded decimal type code
// followed by an optional JSON payload.
//
//	┌──────────────┬──────────────────────────────────────────┐
//	│ Type         │ Payload                                  │
//	│ (2 digits)   │ (JSON value, absent for empty messages)  │
//	└──────────────┴──────────────────────────────────────────┘
//
// Examples:
//
//	"03" + "[12,97]"    append 'a' to post 12
//	"04" + "12"         backspace post 12
//	"34"                no-op keepalive, no payload
//
// # Concatenation
//
// The server batches small messages into a single transport write. A concat
// frame carries zero or more complete frames joined by NUL:
//
//	"33" frame ("\x00" frame)*
//
// Receivers expand concat frames recursively and handle the contained frames
// in order before processing the next transport message.
//
// # Payload absence
//
// An empty payload is not the same as a JSON null. Use EncodeEmpty for
// messages that carry no data at all and Encode for everything else.
//
// # Usage Example
//
//	raw, err := protocol.Encode(protocol.MessageSplice, protocol.SpliceMessage{
//	    ID:     12,
//	    Splice: edit.Splice{Start: 6, Len: 5, Text: "there"},
//	})
//
//	frames, err := protocol.DefaultCodec.Decode(raw)
//	for _, f := range frames {
//	    // f.Type, f.Payload
//	}
//
// # File Structure
//
//   - message.go: message type codes
//   - frame.go: frame encoding, decoding and concat handling
//   - payload.go: typed payloads of individual messages
//   - limits.go: protocol limits shared with the server
//   - errors.go: decode errors
package protocol
