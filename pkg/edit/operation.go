package edit

import "fmt"

// ToEnd is the Splice length that replaces everything from Start to the end
// of the line.
const ToEnd = -1

// Kind identifies the type of an operation.
type Kind uint8

const (
	KindNone      Kind = iota // Lines are equal
	KindAppend                // One character appended
	KindBackspace             // Last character removed
	KindSplice                // Generic replacement
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "None"
	case KindAppend:
		return "Append"
	case KindBackspace:
		return "Backspace"
	case KindSplice:
		return "Splice"
	default:
		return "Unknown"
	}
}

// Splice replaces Len runes starting at Start with Text. A Len of ToEnd
// replaces everything after Start.
type Splice struct {
	Start int    `json:"start"`
	Len   int    `json:"len"`
	Text  string `json:"text"`
}

// String returns a debug representation of the splice.
func (s Splice) String() string {
	return fmt.Sprintf("splice(%d,%d,%q)", s.Start, s.Len, s.Text)
}

// Operation is a minimal edit of a line.
type Operation struct {
	Kind Kind

	// Char is the appended character. Only set for KindAppend.
	Char rune

	// Splice is the replacement. Only set for KindSplice.
	Splice Splice
}

// Append returns an append operation for r.
func Append(r rune) Operation {
	return Operation{Kind: KindAppend, Char: r}
}

// Backspace returns a backspace operation.
func Backspace() Operation {
	return Operation{Kind: KindBackspace}
}

// Replace returns a splice operation.
func Replace(start, length int, text string) Operation {
	return Operation{Kind: KindSplice, Splice: Splice{Start: start, Len: length, Text: text}}
}

// String returns a debug representation of the operation.
func (op Operation) String() string {
	switch op.Kind {
	case KindAppend:
		return fmt.Sprintf("append(%q)", op.Char)
	case KindSplice:
		return op.Splice.String()
	default:
		return op.Kind.String()
	}
}
