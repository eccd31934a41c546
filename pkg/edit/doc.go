// Package edit computes and applies minimal edits of a single line of text.
//
// Live posts are transmitted as a stream of edit operations on their last
// line. Compute classifies the change between two versions of a line as
// the cheapest operation that describes it:
//
//   - Append: exactly one character added at the end
//   - Backspace: exactly one character removed from the end
//   - Splice: anything else, as a (start, len, text) replacement
//
// Apply replays an operation onto a line. It is used both for operations
// generated locally and for operations received from the server, so both
// sides converge on the same text:
//
//	op := edit.Compute("hello world", "hello there")
//	// op.Splice == Splice{Start: 6, Len: 5, Text: "there"}
//	edit.Apply("hello world", op) // "hello there"
//
// All indices and lengths count runes, not bytes.
package edit
